package service

import (
	"errors"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/util"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressInitializer 为已落库的课时创建进度记录并绑定评估窗口
type ProgressInitializer struct {
	ProgressRepo *repository.ProgressRepository
	Builder      *AssessmentBuilder
	Notifier     *NotificationService
}

func NewProgressInitializer(progressRepo *repository.ProgressRepository, builder *AssessmentBuilder, notifier *NotificationService) *ProgressInitializer {
	return &ProgressInitializer{ProgressRepo: progressRepo, Builder: builder, Notifier: notifier}
}

// InitForSchedule 为单个课时建进度记录，幂等，槽位已存在则返回现有记录
// 评估窗口从课时开始前 30 分钟开到结束后 2 小时
// 返回值第二项表示这次是否新建了评估
func (s *ProgressInitializer) InitForSchedule(entry *model.ScheduleEntry, teacherUserID uint) (*model.ProgressRecord, bool, error) {
	existing, err := s.ProgressRepo.FindBySlot(entry.StudentProfileID, entry.LessonTopicID, entry.ScheduledDate, entry.PeriodNumber)
	if err == nil {
		// 重新生成后课时行是新的，保留下来的旧进度要挂回新行
		if existing.ScheduleID == nil || *existing.ScheduleID != entry.ID {
			existing.ScheduleID = &entry.ID
			if err := s.ProgressRepo.Save(existing); err != nil {
				return nil, false, err
			}
		}
		entry.AssessmentID = existing.AssessmentID
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	start, end, err := ParsePeriodTimes(entry.ScheduledDate, entry.StartTime, entry.EndTime)
	if err != nil {
		return nil, false, err
	}
	windowStart := start.Add(-util.WindowLeadTime)
	windowEnd := end.Add(util.WindowTailTime)
	graceDeadline := windowEnd.Add(util.GraceTolerance)

	p := &model.ProgressRecord{
		StudentProfileID:       entry.StudentProfileID,
		LessonTopicID:          entry.LessonTopicID,
		SubjectID:              entry.SubjectID,
		ScheduleID:             &entry.ID,
		ScheduledDate:          model.DateOnly(entry.ScheduledDate),
		PeriodNumber:           entry.PeriodNumber,
		PeriodSequence:         entry.PeriodSequence,
		TotalPeriodsInSequence: entry.TotalPeriodsForTopic,
		WindowStart:            &windowStart,
		WindowEnd:              &windowEnd,
		GraceDeadline:          &graceDeadline,
	}

	built := false
	if entry.LessonTopicID != nil {
		built = s.bindAssessment(p, entry, teacherUserID)
	}

	if err := s.ProgressRepo.Create(p); err != nil {
		return nil, false, err
	}
	entry.AssessmentID = p.AssessmentID
	return p, built, nil
}

// bindAssessment 绑定评估，组卷失败不阻断进度创建，标记待教师手工处理
// 返回是否新组了一份卷
func (s *ProgressInitializer) bindAssessment(p *model.ProgressRecord, entry *model.ScheduleEntry, teacherUserID uint) bool {
	a, created, err := s.Builder.EnsureForTopic(*entry.LessonTopicID)
	if err == nil {
		p.AssessmentID = &a.ID
		return created
	}
	if errors.Is(err, util.ErrInsufficientQuestions) {
		p.RequiresCustomAssessment = true
		s.Notifier.CustomAssessmentNeeded(teacherUserID, entry.StudentProfileID, entry.SubjectID, *entry.LessonTopicID)
		return false
	}
	logger.Log.Error("assessment binding failed",
		zap.Uint("topicId", *entry.LessonTopicID),
		zap.Uint("studentProfileId", entry.StudentProfileID),
		zap.Error(err))
	return false
}

// LinkSequence 多课时序列落库后回填链接和前序指针
func (s *ProgressInitializer) LinkSequence(records []*model.ProgressRecord) error {
	byTopic := make(map[uint][]*model.ProgressRecord)
	for _, p := range records {
		if p.LessonTopicID == nil || p.TotalPeriodsInSequence <= 1 {
			continue
		}
		byTopic[*p.LessonTopicID] = append(byTopic[*p.LessonTopicID], p)
	}
	for _, group := range byTopic {
		ids := make([]uint, 0, len(group))
		for _, p := range group {
			ids = append(ids, p.ID)
		}
		for i, p := range group {
			p.SetLinkedIDs(ids)
			if i > 0 {
				prev := group[i-1].ID
				p.PreviousPeriodID = &prev
			}
			if err := s.ProgressRepo.Save(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// RescheduleWindow 改期不覆盖旧窗口，先写审计行再更新
func (s *ProgressInitializer) RescheduleWindow(progressID uint, newStart, newEnd time.Time, reason string, requestedBy uint) (*model.ProgressRecord, error) {
	p, err := s.ProgressRepo.FindByID(progressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Terminal() {
		return nil, &model.IllegalTransitionError{From: p.State(), To: model.StateOpen}
	}

	var oldStart, oldEnd time.Time
	if p.WindowStart != nil {
		oldStart = *p.WindowStart
	}
	if p.WindowEnd != nil {
		oldEnd = *p.WindowEnd
	}
	audit := &model.WindowReschedule{
		ProgressID:     p.ID,
		OldWindowStart: oldStart,
		OldWindowEnd:   oldEnd,
		NewWindowStart: newStart,
		NewWindowEnd:   newEnd,
		Reason:         reason,
		RequestedBy:    requestedBy,
	}
	if err := s.ProgressRepo.CreateReschedule(audit); err != nil {
		return nil, err
	}

	grace := newEnd.Add(util.GraceTolerance)
	p.WindowStart = &newStart
	p.WindowEnd = &newEnd
	p.GraceDeadline = &grace
	p.AssessmentAccessible = false
	p.IncompleteReason = model.IncompleteNone
	p.AutoMarkedIncompleteAt = nil
	if err := s.ProgressRepo.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}
