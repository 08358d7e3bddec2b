package service

import (
	"fmt"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/util"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
)

// ConflictService 课时冲突的检测与处置
type ConflictService struct {
	ConflictRepo *repository.ConflictRepository
	ScheduleRepo *repository.ScheduleRepository
	Clock        Clock
}

func NewConflictService(conflictRepo *repository.ConflictRepository, scheduleRepo *repository.ScheduleRepository, clock Clock) *ConflictService {
	return &ConflictService{ConflictRepo: conflictRepo, ScheduleRepo: scheduleRepo, Clock: clock}
}

// DetectForStudentWeek 扫一个学生某周的课时，找出时间重叠和重复节次
func (s *ConflictService) DetectForStudentWeek(studentProfileID uint, week int) (int, error) {
	entries, err := s.ScheduleRepo.ListForStudentWeek(studentProfileID, week)
	if err != nil {
		return 0, err
	}
	return s.detect(studentProfileID, entries)
}

// DetectForStudentDate 扫一个学生某天的课时
func (s *ConflictService) DetectForStudentDate(studentProfileID uint, date time.Time) (int, error) {
	entries, err := s.ScheduleRepo.ListByStudentAndDate(studentProfileID, date)
	if err != nil {
		return 0, err
	}
	return s.detect(studentProfileID, entries)
}

func (s *ConflictService) detect(studentProfileID uint, entries []model.ScheduleEntry) (int, error) {
	found := 0
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := &entries[i], &entries[j]
			if !a.ScheduledDate.Equal(b.ScheduledDate) {
				continue
			}
			kind, ok := classify(a, b)
			if !ok {
				continue
			}
			exists, err := s.ConflictRepo.ExistsForPair(a.ID, b.ID)
			if err != nil {
				return found, err
			}
			if exists {
				continue
			}
			c := &model.ScheduleConflict{
				StudentProfileID: studentProfileID,
				FirstScheduleID:  a.ID,
				SecondScheduleID: b.ID,
				Type:             kind,
				Detail:           fmt.Sprintf("%s %s-%s vs %s-%s", a.ScheduledDate.Format(model.DateFormat), a.StartTime, a.EndTime, b.StartTime, b.EndTime),
			}
			if err := s.ConflictRepo.Create(c); err != nil {
				return found, err
			}
			s.markConflicted(a, c)
			s.markConflicted(b, c)
			found++
		}
	}
	return found, nil
}

func classify(a, b *model.ScheduleEntry) (model.ConflictType, bool) {
	switch {
	case a.PeriodNumber == b.PeriodNumber:
		return model.ConflictDuplicateSlot, true
	case overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) && a.ScheduleSource != b.ScheduleSource:
		return model.ConflictSourceCollision, true
	case overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime):
		return model.ConflictTimeOverlap, true
	default:
		return "", false
	}
}

// overlaps "15:04" 字符串可直接按字典序比较
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

func (s *ConflictService) markConflicted(e *model.ScheduleEntry, c *model.ScheduleConflict) {
	e.HasConflict = true
	e.ConflictDetails = c.Detail
	if err := s.ScheduleRepo.Save(e); err != nil {
		logger.Log.Warn("conflict mark failed", zap.Uint("scheduleId", e.ID), zap.Error(err))
	}
}

// Resolve 按指定动作处置冲突
// KEEP_FIRST 删第二节，KEEP_SECOND 删第一节，EDIT_TIME 改第二节的时间
func (s *ConflictService) Resolve(conflictID uint, action model.ConflictAction, newStart, newEnd string, resolvedBy uint) error {
	c, err := s.ConflictRepo.FindByID(conflictID)
	if err != nil {
		return err
	}
	if c.Resolved {
		return util.ErrConflictAlreadyResolved
	}

	switch action {
	case model.ConflictKeepFirst:
		if err := s.ScheduleRepo.Delete(c.SecondScheduleID); err != nil {
			return err
		}
		s.clearConflictMark(c.FirstScheduleID)
	case model.ConflictKeepSecond:
		if err := s.ScheduleRepo.Delete(c.FirstScheduleID); err != nil {
			return err
		}
		s.clearConflictMark(c.SecondScheduleID)
	case model.ConflictEditTime:
		e, err := s.ScheduleRepo.FindByID(c.SecondScheduleID)
		if err != nil {
			return err
		}
		if err := validateWindow(e.DayOfWeek, newStart, newEnd); err != nil {
			return err
		}
		e.StartTime = newStart
		e.EndTime = newEnd
		e.HasConflict = false
		e.ConflictDetails = ""
		if err := s.ScheduleRepo.Save(e); err != nil {
			return err
		}
		s.clearConflictMark(c.FirstScheduleID)
	default:
		return util.ErrConflictUnresolved
	}

	c.Resolved = true
	c.ResolvedAction = action
	c.ResolvedByUserID = &resolvedBy
	return s.ConflictRepo.Save(c)
}

func (s *ConflictService) clearConflictMark(scheduleID uint) {
	e, err := s.ScheduleRepo.FindByID(scheduleID)
	if err != nil {
		return
	}
	e.HasConflict = false
	e.ConflictDetails = ""
	if err := s.ScheduleRepo.Save(e); err != nil {
		logger.Log.Warn("conflict clear failed", zap.Uint("scheduleId", scheduleID), zap.Error(err))
	}
}
