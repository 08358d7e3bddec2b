package service

import (
	"errors"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/util"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaintenanceResult 维护任务前后对账
type MaintenanceResult struct {
	MissingBefore   int64 `json:"missingBefore"`
	MissingAfter    int64 `json:"missingAfter"`
	FlagsCleared    int   `json:"flagsCleared"`
	FlagsAdded      int   `json:"flagsAdded"`
	TopicsRelinked  int   `json:"topicsRelinked"`
	ClassRowsPurged int64 `json:"classRowsPurged"`
}

// MaintenanceService 课表数据的日常修复
// 双向修复缺主题标记，顺带清理过期的班级课表
type MaintenanceService struct {
	ScheduleRepo *repository.ScheduleRepository
	StudentRepo  *repository.StudentRepository
	Notifier     *NotificationService
	Clock        Clock
}

func NewMaintenanceService(
	scheduleRepo *repository.ScheduleRepository,
	studentRepo *repository.StudentRepository,
	notifier *NotificationService,
	clock Clock,
) *MaintenanceService {
	return &MaintenanceService{
		ScheduleRepo: scheduleRepo,
		StudentRepo:  studentRepo,
		Notifier:     notifier,
		Clock:        clock,
	}
}

// Run 凌晨两点的维护入口
func (s *MaintenanceService) Run() (*MaintenanceResult, error) {
	res := &MaintenanceResult{}

	before, err := s.ScheduleRepo.CountMissingTopic()
	if err != nil {
		return nil, err
	}
	res.MissingBefore = before

	if err := s.clearStaleFlags(res); err != nil {
		return nil, err
	}
	if err := s.flagAndRelink(res); err != nil {
		return nil, err
	}

	after, err := s.ScheduleRepo.CountMissingTopic()
	if err != nil {
		return nil, err
	}
	res.MissingAfter = after

	purged, err := s.purgeOldClassSchedules()
	if err != nil {
		return nil, err
	}
	res.ClassRowsPurged = purged

	logger.Log.Info("schedule maintenance finished",
		zap.Int64("missingBefore", res.MissingBefore),
		zap.Int64("missingAfter", res.MissingAfter),
		zap.Int("flagsCleared", res.FlagsCleared),
		zap.Int("flagsAdded", res.FlagsAdded),
		zap.Int("topicsRelinked", res.TopicsRelinked),
		zap.Int64("classRowsPurged", res.ClassRowsPurged))
	return res, nil
}

// clearStaleFlags 有主题却还挂着缺失标记的课时，清掉标记
func (s *MaintenanceService) clearStaleFlags(res *MaintenanceResult) error {
	entries, err := s.ScheduleRepo.ListFlaggedButLinked()
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].MissingLessonTopic = false
		if err := s.ScheduleRepo.Save(&entries[i]); err != nil {
			return err
		}
		res.FlagsCleared++
	}
	return nil
}

// flagAndRelink 没主题也没标记的课时，先试着补挂主题，补不上才打标记
func (s *MaintenanceService) flagAndRelink(res *MaintenanceResult) error {
	entries, err := s.ScheduleRepo.ListUnflaggedButMissing()
	if err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		topic, err := s.StudentRepo.FindTopicForWeek(e.SubjectID, e.TermWeekNumber)
		if err == nil {
			e.LessonTopicID = &topic.ID
			if topic.PeriodCount > 1 {
				e.TotalPeriodsForTopic = topic.PeriodCount
			}
			if err := s.ScheduleRepo.Save(e); err != nil {
				return err
			}
			res.TopicsRelinked++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		e.MissingLessonTopic = true
		if err := s.ScheduleRepo.Save(e); err != nil {
			return err
		}
		res.FlagsAdded++
		s.notifyMissing(e)
	}
	return nil
}

func (s *MaintenanceService) notifyMissing(e *model.ScheduleEntry) {
	subj, err := s.StudentRepo.FindSubject(e.SubjectID)
	if err != nil {
		return
	}
	s.Notifier.MissingTopic(subj.TeacherUserID, e.ID, e.SubjectID)
}

// purgeOldClassSchedules 班级课表只保留最近 30 天
func (s *MaintenanceService) purgeOldClassSchedules() (int64, error) {
	cutoff := model.DateOnly(s.Clock.Now()).AddDate(0, 0, -util.ClassScheduleRetention)
	return s.ScheduleRepo.DeleteClassEntriesBefore(cutoff)
}
