package repository

import (
	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/gorm"
)

type ConflictRepository struct {
	DB *gorm.DB
}

func NewConflictRepository(db *gorm.DB) *ConflictRepository {
	return &ConflictRepository{DB: db}
}

func (r *ConflictRepository) Create(c *model.ScheduleConflict) error {
	return r.DB.Create(c).Error
}

func (r *ConflictRepository) Save(c *model.ScheduleConflict) error {
	return r.DB.Save(c).Error
}

func (r *ConflictRepository) FindByID(id uint) (*model.ScheduleConflict, error) {
	var c model.ScheduleConflict
	err := r.DB.First(&c, id).Error
	return &c, err
}

func (r *ConflictRepository) ListUnresolved() ([]model.ScheduleConflict, error) {
	var cs []model.ScheduleConflict
	err := r.DB.Where("resolved = ?", false).Order("created_at asc").Find(&cs).Error
	return cs, err
}

func (r *ConflictRepository) ListByStudent(studentProfileID uint) ([]model.ScheduleConflict, error) {
	var cs []model.ScheduleConflict
	err := r.DB.Where("student_profile_id = ?", studentProfileID).Order("created_at desc").Find(&cs).Error
	return cs, err
}

// ExistsForPair 同一对课时不重复记冲突
func (r *ConflictRepository) ExistsForPair(firstID, secondID uint) (bool, error) {
	var n int64
	err := r.DB.Model(&model.ScheduleConflict{}).
		Where("(first_schedule_id = ? AND second_schedule_id = ?) OR (first_schedule_id = ? AND second_schedule_id = ?)",
			firstID, secondID, secondID, firstID).Count(&n).Error
	return n > 0, err
}
