package service

import (
	"errors"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/util"

	"gorm.io/gorm"
)

// TermWeekService 学期周次计算，所有周相关任务的基准
type TermWeekService struct {
	TermRepo *repository.TermRepository
}

func NewTermWeekService(termRepo *repository.TermRepository) *TermWeekService {
	return &TermWeekService{TermRepo: termRepo}
}

// ActiveTerm 取当前活跃学期
func (s *TermWeekService) ActiveTerm() (*model.Term, error) {
	t, err := s.TermRepo.FindActive()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoActiveTerm
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// WeekNumber 计算某日期落在学期第几周
// 第 1 周从学期开始日起算，每满 7 天进一周
func (s *TermWeekService) WeekNumber(term *model.Term, date time.Time) (int, error) {
	d := model.DateOnly(date)
	start := model.DateOnly(term.StartDate)
	if d.Before(start) || d.After(model.DateOnly(term.EndDate)) {
		return 0, util.ErrInvalidWeekNumber
	}
	days := int(d.Sub(start).Hours() / 24)
	week := days/7 + 1
	if term.WeekCount > 0 && week > term.WeekCount {
		return 0, util.ErrInvalidWeekNumber
	}
	return week, nil
}

// CurrentWeek 当前活跃学期的本周周次
func (s *TermWeekService) CurrentWeek(now time.Time) (*model.Term, int, error) {
	term, err := s.ActiveTerm()
	if err != nil {
		return nil, 0, err
	}
	week, err := s.WeekNumber(term, now)
	if err != nil {
		return nil, 0, err
	}
	return term, week, nil
}

// WeekBounds 某周的起止日期，第 1 周从学期开始日起
func (s *TermWeekService) WeekBounds(term *model.Term, week int) (time.Time, time.Time, error) {
	if week < 1 || (term.WeekCount > 0 && week > term.WeekCount) {
		return time.Time{}, time.Time{}, util.ErrInvalidWeekNumber
	}
	start := model.DateOnly(term.StartDate).AddDate(0, 0, (week-1)*7)
	end := start.AddDate(0, 0, 6)
	return start, end, nil
}

// WeekHoliday 某周内第一个停课假期，没有则返回 false
func (s *TermWeekService) WeekHoliday(term *model.Term, week int) (bool, string, error) {
	start, end, err := s.WeekBounds(term, week)
	if err != nil {
		return false, "", err
	}
	hs, err := s.TermRepo.ListHolidaysBetween(start, end)
	if err != nil {
		return false, "", err
	}
	for i := range hs {
		if hs[i].IsSchoolClosed {
			return true, hs[i].HolidayName, nil
		}
	}
	return false, "", nil
}

// IsSchoolDay 是否开课日，周日固定休息，假期表可停掉其他日子
func (s *TermWeekService) IsSchoolDay(date time.Time) (bool, error) {
	if date.Weekday() == time.Sunday {
		return false, nil
	}
	closed, err := s.TermRepo.IsSchoolClosed(date)
	if err != nil {
		return false, err
	}
	return !closed, nil
}
