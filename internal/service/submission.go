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

// AnswerInput 学生提交的单题作答
type AnswerInput struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
}

// SubmissionService 学生提交的校验、判分与进度推进
type SubmissionService struct {
	ProgressRepo   *repository.ProgressRepository
	AssessmentRepo *repository.AssessmentRepository
	Expiry         *GraceExpiryService
	Clock          Clock
}

func NewSubmissionService(
	progressRepo *repository.ProgressRepository,
	assessmentRepo *repository.AssessmentRepository,
	expiry *GraceExpiryService,
	clock Clock,
) *SubmissionService {
	return &SubmissionService{
		ProgressRepo:   progressRepo,
		AssessmentRepo: assessmentRepo,
		Expiry:         expiry,
		Clock:          clock,
	}
}

// Submit 学生对某条进度记录提交作答
func (s *SubmissionService) Submit(progressID uint, answers []AnswerInput) (*model.AssessmentSubmission, error) {
	p, err := s.ProgressRepo.FindByID(progressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.AssessmentID == nil {
		return nil, util.ErrAssessmentNotAccessible
	}
	now := s.Clock.Now()

	if err := s.checkAccess(p, now); err != nil {
		return nil, err
	}

	exists, err := s.AssessmentRepo.SubmissionExistsForProgress(p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrSubmissionExists
	}

	sub, err := s.grade(p, answers)
	if err != nil {
		return nil, err
	}
	if err := p.AttachSubmission(sub.ID, now); err != nil {
		return nil, err
	}
	if err := s.ProgressRepo.Save(p); err != nil {
		return nil, err
	}
	s.Expiry.refreshScheduleCompletion(p)
	s.Expiry.rollupTopic(p)
	return sub, nil
}

// checkAccess 窗口、宽限期与前序课时三道闸
func (s *SubmissionService) checkAccess(p *model.ProgressRecord, now time.Time) error {
	if !p.AssessmentAccessible {
		return util.ErrAssessmentNotAccessible
	}
	if p.GraceDeadline != nil && now.After(*p.GraceDeadline) {
		return util.ErrAssessmentWindowClosed
	}
	if p.PreviousPeriodID != nil {
		prev, err := s.ProgressRepo.FindByID(*p.PreviousPeriodID)
		if err != nil {
			return err
		}
		if !prev.Completed {
			return util.ErrPreviousPeriodIncomplete
		}
	}
	return nil
}

// grade 按题库正确答案判分
func (s *SubmissionService) grade(p *model.ProgressRecord, answers []AnswerInput) (*model.AssessmentSubmission, error) {
	a, err := s.AssessmentRepo.FindByID(*p.AssessmentID)
	if err != nil {
		return nil, err
	}
	links, err := s.AssessmentRepo.ListQuestions(a.ID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uint]string, len(answers))
	for _, in := range answers {
		byQuestion[in.QuestionID] = in.Answer
	}

	sub := &model.AssessmentSubmission{
		AssessmentID:     a.ID,
		StudentProfileID: p.StudentProfileID,
		ProgressID:       &p.ID,
		SubmittedAt:      s.Clock.Now(),
		MaxScore:         a.TotalScore,
	}
	if err := s.AssessmentRepo.CreateSubmission(sub); err != nil {
		return nil, err
	}

	var score float64
	rows := make([]model.AssessmentAnswer, 0, len(links))
	for _, l := range links {
		var q model.QuestionBankItem
		if err := s.AssessmentRepo.DB.First(&q, l.QuestionID).Error; err != nil {
			continue
		}
		given := byQuestion[q.ID]
		row := model.AssessmentAnswer{
			SubmissionID: sub.ID,
			QuestionID:   q.ID,
			Answer:       given,
		}
		if given != "" && given == q.CorrectAnswer {
			row.Correct = true
			row.ScoreAwarded = q.Score
			score += q.Score
		}
		rows = append(rows, row)
	}
	if err := s.AssessmentRepo.CreateAnswers(rows); err != nil {
		return nil, err
	}
	sub.Score = score
	sub.AnswerCount = len(rows)
	if err := s.AssessmentRepo.SaveSubmission(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// NullifyPreWindow 作废赶在窗口开放前溜进来的提交
func (s *SubmissionService) NullifyPreWindow(submissionID uint, reason string) error {
	sub, err := s.AssessmentRepo.FindSubmission(submissionID)
	if err != nil {
		return err
	}
	now := s.Clock.Now()
	sub.Nullified = true
	sub.NullifiedReason = reason
	sub.NullifiedAt = &now
	if err := s.AssessmentRepo.SaveSubmission(sub); err != nil {
		return err
	}
	if sub.ProgressID == nil {
		return nil
	}
	p, err := s.ProgressRepo.FindByID(*sub.ProgressID)
	if err != nil {
		return err
	}
	p.SubmissionID = nil
	p.Completed = false
	p.CompletedAt = nil
	p.IncompleteReason = model.IncompleteNone
	return s.ProgressRepo.Save(p)
}

// SweepPreWindow 巡检提交时间早于窗口开放的提交并作废
// 改期会把窗口往后挪，旧窗口里的提交就会落到新窗口开放之前
func (s *SubmissionService) SweepPreWindow() (int, error) {
	suspects, err := s.ProgressRepo.ListPreWindowSubmitted()
	if err != nil {
		return 0, err
	}
	nullified := 0
	for i := range suspects {
		p := &suspects[i]
		if p.SubmissionID == nil {
			continue
		}
		if err := s.NullifyPreWindow(*p.SubmissionID, "submitted before window opened"); err != nil {
			logger.Log.Error("pre-window nullify failed", zap.Uint("progressId", p.ID), zap.Error(err))
			continue
		}
		nullified++
	}
	if nullified > 0 {
		logger.Log.Info("pre-window submissions nullified", zap.Int("count", nullified))
	}
	return nullified, nil
}
