package service

import (
	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
)

// AccessibilityService 定时开放到点的评估窗口
type AccessibilityService struct {
	ProgressRepo *repository.ProgressRepository
	StudentRepo  *repository.StudentRepository
	Assessments  *repository.AssessmentRepository
	Notifier     *NotificationService
	Clock        Clock
}

func NewAccessibilityService(
	progressRepo *repository.ProgressRepository,
	studentRepo *repository.StudentRepository,
	assessments *repository.AssessmentRepository,
	notifier *NotificationService,
	clock Clock,
) *AccessibilityService {
	return &AccessibilityService{
		ProgressRepo: progressRepo,
		StudentRepo:  studentRepo,
		Assessments:  assessments,
		Notifier:     notifier,
		Clock:        clock,
	}
}

// OpenDueWindows 开窗扫描，候选集见 ListOpenCandidates 的筛选条件
// 返回实际开放的数量
func (s *AccessibilityService) OpenDueWindows() (int, error) {
	now := s.Clock.Now()
	candidates, err := s.ProgressRepo.ListOpenCandidates(now)
	if err != nil {
		return 0, err
	}

	opened := 0
	for i := range candidates {
		p := &candidates[i]
		if blocked, _ := s.previousPeriodBlocked(p); blocked {
			continue
		}
		if err := p.Open(now); err != nil {
			logger.Log.Warn("window open rejected",
				zap.Uint("progressId", p.ID),
				zap.Error(err))
			continue
		}
		if err := s.ProgressRepo.Save(p); err != nil {
			logger.Log.Error("window open save failed", zap.Uint("progressId", p.ID), zap.Error(err))
			continue
		}
		opened++
		s.notifyOpened(p)
	}
	if opened > 0 {
		logger.Log.Info("assessment windows opened", zap.Int("count", opened))
	}
	return opened, nil
}

// previousPeriodBlocked 多课时序列里前一节没完成就不开后一节
func (s *AccessibilityService) previousPeriodBlocked(p *model.ProgressRecord) (bool, error) {
	if p.PreviousPeriodID == nil {
		return false, nil
	}
	prev, err := s.ProgressRepo.FindByID(*p.PreviousPeriodID)
	if err != nil {
		return false, err
	}
	return !prev.Completed, nil
}

func (s *AccessibilityService) notifyOpened(p *model.ProgressRecord) {
	st, err := s.StudentRepo.FindByID(p.StudentProfileID)
	if err != nil {
		return
	}
	title := "课时评估"
	if p.AssessmentID != nil {
		if a, err := s.Assessments.FindByID(*p.AssessmentID); err == nil {
			title = a.Title
		}
	}
	s.Notifier.AssessmentAvailable(st.UserID, st.ID, p.ID, title)
}
