package repository

import (
	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(n *model.NotificationEvent) error {
	return r.DB.Create(n).Error
}

func (r *NotificationRepository) MarkDelivered(id uint) error {
	return r.DB.Model(&model.NotificationEvent{}).Where("id = ?", id).Update("delivered", true).Error
}

func (r *NotificationRepository) ListUndelivered(limit int) ([]model.NotificationEvent, error) {
	var ns []model.NotificationEvent
	err := r.DB.Where("delivered = ?", false).Order("created_at asc").Limit(limit).Find(&ns).Error
	return ns, err
}

func (r *NotificationRepository) ListByRecipient(userID uint, limit int) ([]model.NotificationEvent, error) {
	var ns []model.NotificationEvent
	err := r.DB.Where("recipient_user_id = ?", userID).Order("created_at desc").Limit(limit).Find(&ns).Error
	return ns, err
}
