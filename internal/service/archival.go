package service

import (
	"fmt"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArchiveResult 一次归档批次的统计
type ArchiveResult struct {
	BatchID           string `json:"batchId"`
	WeekNumber        int    `json:"weekNumber"`
	SchedulesArchived int    `json:"schedulesArchived"`
	ProgressArchived  int    `json:"progressArchived"`
	ProgressSkipped   int    `json:"progressSkipped"`
}

// ArchivalService 周末把个性化课表和进度快照搬进归档表
// 带提交的进度记录不删原件，只做快照，成绩链路不能断
type ArchivalService struct {
	TermWeek     *TermWeekService
	ScheduleRepo *repository.ScheduleRepository
	ProgressRepo *repository.ProgressRepository
	StudentRepo  *repository.StudentRepository
	Clock        Clock
}

func NewArchivalService(
	termWeek *TermWeekService,
	scheduleRepo *repository.ScheduleRepository,
	progressRepo *repository.ProgressRepository,
	studentRepo *repository.StudentRepository,
	clock Clock,
) *ArchivalService {
	return &ArchivalService{
		TermWeek:     termWeek,
		ScheduleRepo: scheduleRepo,
		ProgressRepo: progressRepo,
		StudentRepo:  studentRepo,
		Clock:        clock,
	}
}

// ArchiveWeek 归档某周的个性化课表
func (s *ArchivalService) ArchiveWeek(week int) (*ArchiveResult, error) {
	term, err := s.TermWeek.ActiveTerm()
	if err != nil {
		return nil, err
	}
	weekStart, weekEnd, err := s.TermWeek.WeekBounds(term, week)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	res := &ArchiveResult{
		BatchID:    uuid.NewString(),
		WeekNumber: week,
	}
	year := academicYear(term)

	entries, err := s.ScheduleRepo.ListIndividualForArchive(week)
	if err != nil {
		return nil, err
	}
	archived := make([]model.ArchivedScheduleEntry, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		archived = append(archived, model.ArchivedScheduleEntry{
			OriginalScheduleID:   e.ID,
			ArchivedAt:           now,
			ArchiveBatchID:       res.BatchID,
			TermID:               term.ID,
			TermWeekNumber:       e.TermWeekNumber,
			AcademicYear:         year,
			StudentProfileID:     e.StudentProfileID,
			ScheduledDate:        e.ScheduledDate,
			DayOfWeek:            e.DayOfWeek,
			PeriodNumber:         e.PeriodNumber,
			StartTime:            e.StartTime,
			EndTime:              e.EndTime,
			SubjectID:            e.SubjectID,
			LessonTopicID:        e.LessonTopicID,
			AssessmentID:         e.AssessmentID,
			ScheduleSource:       e.ScheduleSource,
			PeriodSequence:       e.PeriodSequence,
			TotalPeriodsForTopic: e.TotalPeriodsForTopic,
			MissingLessonTopic:   e.MissingLessonTopic,
		})
	}
	if err := s.ScheduleRepo.CreateArchivedBatch(archived); err != nil {
		return nil, err
	}
	res.SchedulesArchived = len(archived)

	students, err := s.StudentRepo.ListActiveByMode(model.ScheduleModeIndividual)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if err := s.archiveStudentProgress(&students[i], term, week, weekStart, weekEnd, year, now, res); err != nil {
			logger.Log.Error("progress archive failed",
				zap.Uint("studentProfileId", students[i].ID),
				zap.Int("week", week),
				zap.Error(err))
		}
	}

	for i := range entries {
		if err := s.ScheduleRepo.Delete(entries[i].ID); err != nil {
			logger.Log.Warn("archived schedule delete failed", zap.Uint("scheduleId", entries[i].ID), zap.Error(err))
		}
	}

	logger.Log.Info("weekly archive finished",
		zap.String("batchId", res.BatchID),
		zap.Int("week", week),
		zap.Int("schedules", res.SchedulesArchived),
		zap.Int("progress", res.ProgressArchived),
		zap.Int("skipped", res.ProgressSkipped))
	return res, nil
}

// archiveStudentProgress 快照该学生本周的全部进度，带提交的保留原件
func (s *ArchivalService) archiveStudentProgress(st *model.StudentProfile, term *model.Term, week int, from, to time.Time, year string, now time.Time, res *ArchiveResult) error {
	records, err := s.ProgressRepo.ListForArchive(st.ID, from, to)
	if err != nil {
		return err
	}
	snaps := make([]model.ArchivedProgressRecord, 0, len(records))
	var removable []uint
	for i := range records {
		p := &records[i]
		snaps = append(snaps, model.ArchivedProgressRecord{
			OriginalProgressID:     p.ID,
			ArchivedAt:             now,
			ArchiveBatchID:         res.BatchID,
			TermID:                 term.ID,
			TermWeekNumber:         week,
			AcademicYear:           year,
			StudentProfileID:       p.StudentProfileID,
			LessonTopicID:          p.LessonTopicID,
			SubjectID:              p.SubjectID,
			ScheduledDate:          p.ScheduledDate,
			PeriodNumber:           p.PeriodNumber,
			PeriodSequence:         p.PeriodSequence,
			TotalPeriodsInSequence: p.TotalPeriodsInSequence,
			AssessmentID:           p.AssessmentID,
			SubmissionID:           p.SubmissionID,
			WindowStart:            p.WindowStart,
			WindowEnd:              p.WindowEnd,
			GraceDeadline:          p.GraceDeadline,
			Completed:              p.Completed,
			CompletedAt:            p.CompletedAt,
			IncompleteReason:       p.IncompleteReason,
		})
		if p.SubmissionID == nil {
			removable = append(removable, p.ID)
		} else {
			res.ProgressSkipped++
		}
	}
	if err := s.ProgressRepo.CreateArchivedBatch(snaps); err != nil {
		return err
	}
	res.ProgressArchived += len(snaps)
	for _, id := range removable {
		if err := s.ProgressRepo.Delete(id); err != nil {
			logger.Log.Warn("archived progress delete failed", zap.Uint("progressId", id), zap.Error(err))
		}
	}
	return nil
}

func academicYear(term *model.Term) string {
	start := term.StartDate.Year()
	end := term.EndDate.Year()
	if end == start {
		end = start + 1
	}
	return fmt.Sprintf("%d/%d", start, end)
}
