package service

import (
	"fmt"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"go.uber.org/zap"
)

// GenerationResult 单次周生成的汇总
type GenerationResult struct {
	TermID            uint      `json:"termId"`
	WeekNumber        int       `json:"weekNumber"`
	StudentsTotal     int       `json:"studentsTotal"`
	StudentsOK        int       `json:"studentsOk"`
	SchedulesMade     int       `json:"schedulesMade"`
	ProgressMade      int       `json:"progressMade"`
	AssessmentsMade   int       `json:"assessmentsMade"`
	MissingTopics     int       `json:"missingTopics"`
	SchedulesArchived int       `json:"schedulesArchived"`
	ProgressArchived  int       `json:"progressArchived"`
	IsHoliday         bool      `json:"isHoliday"`
	HolidayName       string    `json:"holidayName,omitempty"`
	FailedStudents    []uint    `json:"failedStudents,omitempty"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
	DurationSeconds   float64   `json:"durationSeconds"`
}

// studentWeekStats 单个学生一周的生成计数
type studentWeekStats struct {
	schedules     int
	progress      int
	assessments   int
	missingTopics int
}

// WeeklyOrchestrator 周课时生成编排器
// 逐个学生独立生成，单个学生失败不影响其他学生
type WeeklyOrchestrator struct {
	TermWeek     *TermWeekService
	Expander     *ScheduleExpander
	Init         *ProgressInitializer
	Archival     *ArchivalService
	StudentRepo  *repository.StudentRepository
	ScheduleRepo *repository.ScheduleRepository
	ProgressRepo *repository.ProgressRepository
	Clock        Clock
}

func NewWeeklyOrchestrator(
	termWeek *TermWeekService,
	expander *ScheduleExpander,
	init *ProgressInitializer,
	archival *ArchivalService,
	studentRepo *repository.StudentRepository,
	scheduleRepo *repository.ScheduleRepository,
	progressRepo *repository.ProgressRepository,
	clock Clock,
) *WeeklyOrchestrator {
	return &WeeklyOrchestrator{
		TermWeek:     termWeek,
		Expander:     expander,
		Init:         init,
		Archival:     archival,
		StudentRepo:  studentRepo,
		ScheduleRepo: scheduleRepo,
		ProgressRepo: progressRepo,
		Clock:        clock,
	}
}

// GenerateWeek 为全部活跃学生生成某周的课时与进度记录
// 第 2 周起顺带归档上一周，归档失败只记日志不阻断生成
func (o *WeeklyOrchestrator) GenerateWeek(week int) (*GenerationResult, error) {
	term, err := o.TermWeek.ActiveTerm()
	if err != nil {
		return nil, err
	}
	if _, _, err := o.TermWeek.WeekBounds(term, week); err != nil {
		return nil, err
	}

	students, err := o.StudentRepo.ListActive()
	if err != nil {
		return nil, err
	}

	res := &GenerationResult{
		TermID:        term.ID,
		WeekNumber:    week,
		StudentsTotal: len(students),
		StartedAt:     o.Clock.Now(),
	}

	holiday, name, err := o.TermWeek.WeekHoliday(term, week)
	if err != nil {
		return nil, err
	}
	res.IsHoliday = holiday
	res.HolidayName = name

	for i := range students {
		st := &students[i]
		stats, err := o.generateStudent(term, week, st)
		if err != nil {
			logger.Log.Error("weekly generation failed for student",
				zap.Uint("studentProfileId", st.ID),
				zap.Int("week", week),
				zap.Error(err))
			res.FailedStudents = append(res.FailedStudents, st.ID)
			continue
		}
		res.StudentsOK++
		res.SchedulesMade += stats.schedules
		res.ProgressMade += stats.progress
		res.AssessmentsMade += stats.assessments
		res.MissingTopics += stats.missingTopics
	}

	if week > 1 && o.Archival != nil {
		arch, err := o.Archival.ArchiveWeek(week - 1)
		if err != nil {
			logger.Log.Error("previous week archive failed", zap.Int("week", week-1), zap.Error(err))
		} else {
			res.SchedulesArchived = arch.SchedulesArchived
			res.ProgressArchived = arch.ProgressArchived
		}
	}

	res.FinishedAt = o.Clock.Now()
	res.DurationSeconds = res.FinishedAt.Sub(res.StartedAt).Seconds()

	logger.Log.Info("weekly generation finished",
		zap.Int("week", week),
		zap.Int("students", res.StudentsTotal),
		zap.Int("ok", res.StudentsOK),
		zap.Int("schedules", res.SchedulesMade),
		zap.Int("progress", res.ProgressMade),
		zap.Int("assessments", res.AssessmentsMade),
		zap.Int("missingTopics", res.MissingTopics),
		zap.Bool("holiday", res.IsHoliday),
		zap.Uints("failed", res.FailedStudents))
	return res, nil
}

// GenerateNextWeek 周日晚间任务入口，生成下一周
func (o *WeeklyOrchestrator) GenerateNextWeek() (*GenerationResult, error) {
	term, week, err := o.TermWeek.CurrentWeek(o.Clock.Now())
	if err != nil {
		return nil, err
	}
	if term.WeekCount > 0 && week+1 > term.WeekCount {
		return nil, fmt.Errorf("term %d has no week %d", term.ID, week+1)
	}
	return o.GenerateWeek(week + 1)
}

// RegenerateStudentWeek 单个学生的重新生成，有提交的进度记录保留
func (o *WeeklyOrchestrator) RegenerateStudentWeek(studentProfileID uint, week int) (*GenerationResult, error) {
	term, err := o.TermWeek.ActiveTerm()
	if err != nil {
		return nil, err
	}
	st, err := o.StudentRepo.FindByID(studentProfileID)
	if err != nil {
		return nil, err
	}

	res := &GenerationResult{
		TermID:        term.ID,
		WeekNumber:    week,
		StudentsTotal: 1,
		StartedAt:     o.Clock.Now(),
	}
	stats, err := o.generateStudent(term, week, st)
	if err != nil {
		res.FailedStudents = []uint{st.ID}
		res.FinishedAt = o.Clock.Now()
		res.DurationSeconds = res.FinishedAt.Sub(res.StartedAt).Seconds()
		return res, err
	}
	res.StudentsOK = 1
	res.SchedulesMade = stats.schedules
	res.ProgressMade = stats.progress
	res.AssessmentsMade = stats.assessments
	res.MissingTopics = stats.missingTopics
	res.FinishedAt = o.Clock.Now()
	res.DurationSeconds = res.FinishedAt.Sub(res.StartedAt).Seconds()
	return res, nil
}

// generateStudent 先清旧再展开，旧进度里带提交的不动，靠槽位幂等保住
func (o *WeeklyOrchestrator) generateStudent(term *model.Term, week int, st *model.StudentProfile) (*studentWeekStats, error) {
	weekStart, weekEnd, err := o.TermWeek.WeekBounds(term, week)
	if err != nil {
		return nil, err
	}
	if err := o.ScheduleRepo.DeleteForStudentWeek(st.ID, week); err != nil {
		return nil, err
	}
	if err := o.ProgressRepo.DeleteForStudentWeek(st.ID, weekStart, weekEnd); err != nil {
		return nil, err
	}

	entries, err := o.Expander.ExpandWeek(term, week, st)
	if err != nil {
		return nil, err
	}
	stats := &studentWeekStats{}
	if len(entries) == 0 {
		return stats, nil
	}

	for i := range entries {
		if err := o.ScheduleRepo.Create(&entries[i]); err != nil {
			return nil, err
		}
		if entries[i].MissingLessonTopic {
			stats.missingTopics++
		}
	}
	o.linkSchedules(entries)

	var records []*model.ProgressRecord
	for i := range entries {
		teacherID := o.subjectTeacher(entries[i].SubjectID)
		p, built, err := o.Init.InitForSchedule(&entries[i], teacherID)
		if err != nil {
			return nil, err
		}
		if built {
			stats.assessments++
		}
		if err := o.ScheduleRepo.Save(&entries[i]); err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	if err := o.Init.LinkSequence(records); err != nil {
		return nil, err
	}
	stats.schedules = len(entries)
	stats.progress = len(records)
	return stats, nil
}

// linkSchedules 多课时主题的课时之间互相记下对方的ID
func (o *WeeklyOrchestrator) linkSchedules(entries []model.ScheduleEntry) {
	byTopic := make(map[uint][]*model.ScheduleEntry)
	for i := range entries {
		e := &entries[i]
		if e.LessonTopicID == nil || e.TotalPeriodsForTopic <= 1 {
			continue
		}
		byTopic[*e.LessonTopicID] = append(byTopic[*e.LessonTopicID], e)
	}
	for _, group := range byTopic {
		ids := make([]uint, 0, len(group))
		for _, e := range group {
			ids = append(ids, e.ID)
		}
		for _, e := range group {
			e.SetLinkedIDs(ids)
			if err := o.ScheduleRepo.Save(e); err != nil {
				logger.Log.Warn("linked schedule save failed", zap.Uint("scheduleId", e.ID), zap.Error(err))
			}
		}
	}
}

func (o *WeeklyOrchestrator) subjectTeacher(subjectID uint) uint {
	subj, err := o.StudentRepo.FindSubject(subjectID)
	if err != nil {
		return 0
	}
	return subj.TeacherUserID
}
