package service

import (
	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
)

// GraceExpiryService 宽限期过期扫描
// 过期的记录打上缺考标记、锁住窗口，并刷新关联课时的完成率
type GraceExpiryService struct {
	ProgressRepo *repository.ProgressRepository
	ScheduleRepo *repository.ScheduleRepository
	StudentRepo  *repository.StudentRepository
	Assessments  *repository.AssessmentRepository
	Notifier     *NotificationService
	Clock        Clock
}

func NewGraceExpiryService(
	progressRepo *repository.ProgressRepository,
	scheduleRepo *repository.ScheduleRepository,
	studentRepo *repository.StudentRepository,
	assessments *repository.AssessmentRepository,
	notifier *NotificationService,
	clock Clock,
) *GraceExpiryService {
	return &GraceExpiryService{
		ProgressRepo: progressRepo,
		ScheduleRepo: scheduleRepo,
		StudentRepo:  studentRepo,
		Assessments:  assessments,
		Notifier:     notifier,
		Clock:        clock,
	}
}

// ExpireOverdue 扫描宽限期已过仍未提交的记录
func (s *GraceExpiryService) ExpireOverdue() (int, error) {
	now := s.Clock.Now()
	candidates, err := s.ProgressRepo.ListExpiredCandidates(now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		p := &candidates[i]
		if err := p.FlagMissed(now); err != nil {
			logger.Log.Warn("expiry flag rejected", zap.Uint("progressId", p.ID), zap.Error(err))
			continue
		}
		if err := s.ProgressRepo.Save(p); err != nil {
			logger.Log.Error("expiry save failed", zap.Uint("progressId", p.ID), zap.Error(err))
			continue
		}
		expired++
		s.refreshScheduleCompletion(p)
		s.notifyExpired(p)
	}
	if expired > 0 {
		logger.Log.Info("grace periods expired", zap.Int("count", expired))
	}
	return expired, nil
}

// refreshScheduleCompletion 重新统计课时及其关联课时的完成率
func (s *GraceExpiryService) refreshScheduleCompletion(p *model.ProgressRecord) {
	if p.ScheduleID == nil {
		return
	}
	entry, err := s.ScheduleRepo.FindByID(*p.ScheduleID)
	if err != nil {
		return
	}
	ids := append([]uint{entry.ID}, entry.LinkedIDs()...)
	seen := make(map[uint]bool)
	total, done := 0, 0
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		records, err := s.ProgressRepo.ListBySchedule(id)
		if err != nil {
			continue
		}
		for _, r := range records {
			total++
			if r.Completed {
				done++
			}
		}
	}
	if total == 0 {
		return
	}
	percent := float64(done) / float64(total) * 100
	for id := range seen {
		if err := s.ScheduleRepo.UpdateCompletion(id, done == total, percent); err != nil {
			logger.Log.Warn("schedule completion update failed", zap.Uint("scheduleId", id), zap.Error(err))
		}
	}
}

// rollupTopic 多课时序列全部闭合后汇总主题均分
// 闭合路径不止学生提交一条，兜底定稿补的零分提交同样要触发汇总
func (s *GraceExpiryService) rollupTopic(p *model.ProgressRecord) {
	linked := p.LinkedIDs()
	if len(linked) == 0 {
		return
	}
	records, err := s.ProgressRepo.FindByIDs(linked)
	if err != nil {
		logger.Log.Warn("topic rollup load failed", zap.Uint("progressId", p.ID), zap.Error(err))
		return
	}
	var sum float64
	scored := 0
	for i := range records {
		if !records[i].Completed {
			return
		}
		if records[i].SubmissionID == nil {
			continue
		}
		sub, err := s.Assessments.FindSubmission(*records[i].SubmissionID)
		if err != nil || sub.MaxScore == 0 {
			continue
		}
		sum += sub.Score / sub.MaxScore * 100
		scored++
	}
	var avg *float64
	if scored > 0 {
		v := sum / float64(scored)
		avg = &v
	}
	for i := range records {
		records[i].AllPeriodsCompleted = true
		records[i].TopicAverageScore = avg
		if err := s.ProgressRepo.Save(&records[i]); err != nil {
			logger.Log.Warn("topic rollup save failed", zap.Uint("progressId", records[i].ID), zap.Error(err))
		}
	}
}

func (s *GraceExpiryService) notifyExpired(p *model.ProgressRecord) {
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
	s.Notifier.AssessmentExpired(st.UserID, st.ID, p.ID, title)
}
