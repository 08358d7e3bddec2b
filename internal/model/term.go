package model

import "time"

// Term 学期，周数计算与评估窗口的基准单位
// swagger:model Term
type Term struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
	IsActive  bool      `gorm:"default:false;index" json:"isActive"`
	WeekCount int       `gorm:"default:16" json:"weekCount"`
}

func (Term) TableName() string {
	return "terms"
}

// Contains 判断日期是否落在学期范围内（含边界）
func (t *Term) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(t.StartDate)) && !d.After(DateOnly(t.EndDate))
}

// PublicHoliday 公共假期，休息日撞上假期会触发整周课时顺延
// swagger:model PublicHoliday
type PublicHoliday struct {
	BaseModel
	HolidayDate     time.Time `gorm:"uniqueIndex;not null" json:"holidayDate"`
	HolidayName     string    `gorm:"size:255;not null" json:"holidayName"`
	IsSchoolClosed  bool      `gorm:"default:true" json:"isSchoolClosed"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	CreatedByUserID uint      `gorm:"index" json:"createdByUserId"`
}

func (PublicHoliday) TableName() string {
	return "public_holidays"
}

// DateOnly 截断到当天零点，统一日期比较口径
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
