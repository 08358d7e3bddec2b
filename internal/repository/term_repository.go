package repository

import (
	"errors"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/gorm"
)

type TermRepository struct {
	DB *gorm.DB
}

func NewTermRepository(db *gorm.DB) *TermRepository {
	return &TermRepository{DB: db}
}

func (r *TermRepository) FindActive() (*model.Term, error) {
	var t model.Term
	err := r.DB.Where("is_active = ?", true).Order("start_date desc").First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TermRepository) FindByID(id uint) (*model.Term, error) {
	var t model.Term
	err := r.DB.First(&t, id).Error
	return &t, err
}

func (r *TermRepository) Create(t *model.Term) error {
	return r.DB.Create(t).Error
}

func (r *TermRepository) Save(t *model.Term) error {
	return r.DB.Save(t).Error
}

func (r *TermRepository) List() ([]model.Term, error) {
	var ts []model.Term
	err := r.DB.Order("start_date desc").Find(&ts).Error
	return ts, err
}

// Deactivate 将其余学期全部置为非活跃，保证活跃学期唯一
func (r *TermRepository) Deactivate(exceptID uint) error {
	return r.DB.Model(&model.Term{}).Where("id <> ?", exceptID).Update("is_active", false).Error
}

func (r *TermRepository) FindHolidayByDate(date time.Time) (*model.PublicHoliday, error) {
	var h model.PublicHoliday
	err := r.DB.Where("holiday_date = ?", model.DateOnly(date)).First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// IsSchoolClosed 判断某天是否停课假期
func (r *TermRepository) IsSchoolClosed(date time.Time) (bool, error) {
	h, err := r.FindHolidayByDate(date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.IsSchoolClosed, nil
}

func (r *TermRepository) ListHolidaysBetween(from, to time.Time) ([]model.PublicHoliday, error) {
	var hs []model.PublicHoliday
	err := r.DB.Where("holiday_date >= ? AND holiday_date <= ?", model.DateOnly(from), model.DateOnly(to)).
		Order("holiday_date asc").Find(&hs).Error
	return hs, err
}

func (r *TermRepository) CreateHoliday(h *model.PublicHoliday) error {
	return r.DB.Create(h).Error
}

func (r *TermRepository) DeleteHoliday(id uint) error {
	return r.DB.Delete(&model.PublicHoliday{}, id).Error
}
