package service

import (
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/util"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
)

// FinalizeResult 一轮兜底定稿的统计
type FinalizeResult struct {
	Scanned          int `json:"scanned"`
	ZeroScored       int `json:"zeroScored"`
	ClosedNoContent  int `json:"closedNoContent"`
	SkippedSubmitted int `json:"skippedSubmitted"`
}

// Finalizer 兜底定稿任务
// 窗口早已关闭却始终没有提交的记录，补一份零分提交并闭合
// 没绑评估内容的记录直接闭合，不造提交
type Finalizer struct {
	ProgressRepo   *repository.ProgressRepository
	AssessmentRepo *repository.AssessmentRepository
	Expiry         *GraceExpiryService
	Clock          Clock
}

func NewFinalizer(
	progressRepo *repository.ProgressRepository,
	assessmentRepo *repository.AssessmentRepository,
	expiry *GraceExpiryService,
	clock Clock,
) *Finalizer {
	return &Finalizer{
		ProgressRepo:   progressRepo,
		AssessmentRepo: assessmentRepo,
		Expiry:         expiry,
		Clock:          clock,
	}
}

// Run 每小时主扫描，回看 7 天
func (f *Finalizer) Run() (*FinalizeResult, error) {
	now := f.Clock.Now()
	return f.finalizeBetween(now.Add(-util.FinalizerLookback), now)
}

// RunGradebookScan 成绩册补录扫描，回看 2 小时
// 回看区间刻意比主扫描短，主扫描才是兜底
func (f *Finalizer) RunGradebookScan() (*FinalizeResult, error) {
	now := f.Clock.Now()
	return f.finalizeBetween(now.Add(-util.GradebookLookback), now)
}

// RunDailySafetyPass 每日安全扫描，从前一天零点起补漏
func (f *Finalizer) RunDailySafetyPass() (*FinalizeResult, error) {
	now := f.Clock.Now()
	since := model.DateOnly(now).AddDate(0, 0, -1)
	return f.finalizeBetween(since, now)
}

func (f *Finalizer) finalizeBetween(since, until time.Time) (*FinalizeResult, error) {
	candidates, err := f.ProgressRepo.ListFinalizeCandidates(since, until)
	if err != nil {
		return nil, err
	}

	res := &FinalizeResult{Scanned: len(candidates)}
	now := f.Clock.Now()
	for i := range candidates {
		p := &candidates[i]
		if err := f.finalizeOne(p, now, res); err != nil {
			logger.Log.Error("finalize failed", zap.Uint("progressId", p.ID), zap.Error(err))
		}
	}
	if res.ZeroScored > 0 || res.ClosedNoContent > 0 {
		logger.Log.Info("missed assessments finalized",
			zap.Int("scanned", res.Scanned),
			zap.Int("zeroScored", res.ZeroScored),
			zap.Int("closedNoContent", res.ClosedNoContent),
			zap.Int("skippedSubmitted", res.SkippedSubmitted))
	}
	return res, nil
}

func (f *Finalizer) finalizeOne(p *model.ProgressRecord, now time.Time, res *FinalizeResult) error {
	if p.AssessmentID == nil {
		if err := p.FinalizeWithoutAssessment(now); err != nil {
			return err
		}
		if err := f.ProgressRepo.Save(p); err != nil {
			return err
		}
		res.ClosedNoContent++
		f.Expiry.refreshScheduleCompletion(p)
		f.Expiry.rollupTopic(p)
		return nil
	}

	// 幂等护栏，提交已存在说明学生赶在扫描前交了，或上一轮已补过
	exists, err := f.AssessmentRepo.SubmissionExistsForProgress(p.ID)
	if err != nil {
		return err
	}
	if exists {
		res.SkippedSubmitted++
		return nil
	}

	sub, err := f.createZeroScoreSubmission(p, now)
	if err != nil {
		return err
	}
	if err := p.FinalizeZeroScore(sub.ID, now); err != nil {
		return err
	}
	if err := f.ProgressRepo.Save(p); err != nil {
		return err
	}
	res.ZeroScored++
	f.Expiry.refreshScheduleCompletion(p)
	f.Expiry.rollupTopic(p)
	return nil
}

// createZeroScoreSubmission 零分提交带空白作答，每道题一条空答案
func (f *Finalizer) createZeroScoreSubmission(p *model.ProgressRecord, now time.Time) (*model.AssessmentSubmission, error) {
	a, err := f.AssessmentRepo.FindByID(*p.AssessmentID)
	if err != nil {
		return nil, err
	}
	sub := &model.AssessmentSubmission{
		AssessmentID:     a.ID,
		StudentProfileID: p.StudentProfileID,
		ProgressID:       &p.ID,
		SubmittedAt:      now,
		Score:            0,
		MaxScore:         a.TotalScore,
		MissedReason:     string(model.IncompleteMissedGrace),
		AutoGenerated:    true,
	}
	if err := f.AssessmentRepo.CreateSubmission(sub); err != nil {
		return nil, err
	}

	links, err := f.AssessmentRepo.ListQuestions(a.ID)
	if err != nil {
		return nil, err
	}
	answers := make([]model.AssessmentAnswer, 0, len(links))
	for _, l := range links {
		answers = append(answers, model.AssessmentAnswer{
			SubmissionID: sub.ID,
			QuestionID:   l.QuestionID,
			Answer:       "",
		})
	}
	if err := f.AssessmentRepo.CreateAnswers(answers); err != nil {
		return nil, err
	}
	sub.AnswerCount = len(answers)
	if err := f.AssessmentRepo.SaveSubmission(sub); err != nil {
		return nil, err
	}
	return sub, nil
}
