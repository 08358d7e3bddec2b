package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/util"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dayOffsets = map[string]int{
	"MONDAY":    0,
	"TUESDAY":   1,
	"WEDNESDAY": 2,
	"THURSDAY":  3,
	"FRIDAY":    4,
	"SATURDAY":  5,
}

// ScheduleExpander 把学生的周课表模板展开成某一周的具体课时
type ScheduleExpander struct {
	StudentRepo *repository.StudentRepository
	TermWeek    *TermWeekService
}

func NewScheduleExpander(studentRepo *repository.StudentRepository, termWeek *TermWeekService) *ScheduleExpander {
	return &ScheduleExpander{StudentRepo: studentRepo, TermWeek: termWeek}
}

// ExpandWeek 展开单个学生某周的课时，不落库，由编排器统一持久化
// 周日不排课，撞上停课假期的当天整体跳过
func (e *ScheduleExpander) ExpandWeek(term *model.Term, week int, student *model.StudentProfile) ([]model.ScheduleEntry, error) {
	weekStart, _, err := e.TermWeek.WeekBounds(term, week)
	if err != nil {
		return nil, err
	}

	entries, err := e.StudentRepo.ListTimetable(student.ID)
	if err != nil {
		return nil, err
	}

	var out []model.ScheduleEntry
	for _, tpl := range entries {
		offset, ok := dayOffsets[tpl.DayOfWeek]
		if !ok {
			// 周日或非法值，模板里本不该出现
			logger.Log.Warn("timetable entry on non-school day skipped",
				zap.Uint("studentProfileId", student.ID),
				zap.String("dayOfWeek", tpl.DayOfWeek))
			continue
		}
		if err := validateWindow(tpl.DayOfWeek, tpl.StartTime, tpl.EndTime); err != nil {
			logger.Log.Warn("timetable entry outside allowed window skipped",
				zap.Uint("studentProfileId", student.ID),
				zap.String("dayOfWeek", tpl.DayOfWeek),
				zap.String("startTime", tpl.StartTime),
				zap.Error(err))
			continue
		}

		date := weekStart.AddDate(0, 0, offset)
		if !term.Contains(date) {
			continue
		}
		schoolDay, err := e.TermWeek.IsSchoolDay(date)
		if err != nil {
			return nil, err
		}
		if !schoolDay {
			continue
		}

		entry := model.ScheduleEntry{
			StudentProfileID: student.ID,
			ScheduledDate:    date,
			DayOfWeek:        tpl.DayOfWeek,
			PeriodNumber:     tpl.PeriodNumber,
			StartTime:        tpl.StartTime,
			EndTime:          tpl.EndTime,
			SubjectID:        tpl.SubjectID,
			ScheduleSource:   student.ScheduleMode,
			TermWeekNumber:   week,
		}
		e.attachTopic(&entry, week)
		out = append(out, entry)
	}

	linkMultiPeriod(out)
	return out, nil
}

// attachTopic 按学科和周次挂课程主题，找不到就标缺失
func (e *ScheduleExpander) attachTopic(entry *model.ScheduleEntry, week int) {
	topic, err := e.StudentRepo.FindTopicForWeek(entry.SubjectID, week)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry.MissingLessonTopic = true
		return
	}
	if err != nil {
		logger.Log.Error("topic lookup failed",
			zap.Uint("subjectId", entry.SubjectID),
			zap.Int("week", week),
			zap.Error(err))
		entry.MissingLessonTopic = true
		return
	}
	entry.LessonTopicID = &topic.ID
	if topic.PeriodCount > 1 {
		entry.TotalPeriodsForTopic = topic.PeriodCount
	}
}

// linkMultiPeriod 同一主题的连续课时按日期节次排序后编上序号
// 课时落库后由编排器回填 LinkedScheduleIDs
func linkMultiPeriod(entries []model.ScheduleEntry) {
	byTopic := make(map[uint][]*model.ScheduleEntry)
	for i := range entries {
		e := &entries[i]
		if e.LessonTopicID == nil || e.TotalPeriodsForTopic <= 1 {
			continue
		}
		byTopic[*e.LessonTopicID] = append(byTopic[*e.LessonTopicID], e)
	}
	for _, group := range byTopic {
		for i, e := range group {
			e.PeriodSequence = i + 1
		}
	}
}

// validateWindow 校验课时落在允许的开课时段内
func validateWindow(dayOfWeek, startTime, endTime string) error {
	var lo, hi string
	switch dayOfWeek {
	case "SATURDAY":
		lo, hi = util.SaturdayWindowStart, util.SaturdayWindowEnd
	case "SUNDAY":
		return fmt.Errorf("no lessons on Sunday")
	default:
		lo, hi = util.WeekdayWindowStart, util.WeekdayWindowEnd
	}
	if startTime < lo || endTime > hi || startTime >= endTime {
		return fmt.Errorf("period %s-%s outside allowed window %s-%s", startTime, endTime, lo, hi)
	}
	return nil
}

// ParsePeriodTimes 把日期和 "15:04" 时刻合成完整时间
func ParsePeriodTimes(date time.Time, startTime, endTime string) (time.Time, time.Time, error) {
	st, err := time.ParseInLocation(model.ClockFormat, startTime, date.Location())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	et, err := time.ParseInLocation(model.ClockFormat, endTime, date.Location())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	d := model.DateOnly(date)
	start := d.Add(time.Duration(st.Hour())*time.Hour + time.Duration(st.Minute())*time.Minute)
	end := d.Add(time.Duration(et.Hour())*time.Hour + time.Duration(et.Minute())*time.Minute)
	return start, end, nil
}
