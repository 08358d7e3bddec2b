package service

import (
	"testing"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/pkg/database"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// testEnv 打包一套内存库上的仓储和服务
type testEnv struct {
	DB           *gorm.DB
	Clock        *FixedClock
	TermRepo     *repository.TermRepository
	StudentRepo  *repository.StudentRepository
	ScheduleRepo *repository.ScheduleRepository
	ProgressRepo *repository.ProgressRepository
	Assessments  *repository.AssessmentRepository
	Notifs       *repository.NotificationRepository
	Conflicts    *repository.ConflictRepository

	TermWeek     *TermWeekService
	Expander     *ScheduleExpander
	Builder      *AssessmentBuilder
	Notifier     *NotificationService
	Init         *ProgressInitializer
	Orchestrator *WeeklyOrchestrator
	Access       *AccessibilityService
	Expiry       *GraceExpiryService
	Finalizer    *Finalizer
	Submissions  *SubmissionService
	Maintenance  *MaintenanceService
	Archival     *ArchivalService
	Conflict     *ConflictService
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	clock := &FixedClock{Current: now}
	e := &testEnv{
		DB:           db,
		Clock:        clock,
		TermRepo:     repository.NewTermRepository(db),
		StudentRepo:  repository.NewStudentRepository(db),
		ScheduleRepo: repository.NewScheduleRepository(db),
		ProgressRepo: repository.NewProgressRepository(db),
		Assessments:  repository.NewAssessmentRepository(db),
		Notifs:       repository.NewNotificationRepository(db),
		Conflicts:    repository.NewConflictRepository(db),
	}
	e.TermWeek = NewTermWeekService(e.TermRepo)
	e.Expander = NewScheduleExpander(e.StudentRepo, e.TermWeek)
	e.Builder = NewAssessmentBuilder(e.Assessments, e.StudentRepo)
	e.Notifier = NewNotificationService(e.Notifs, nil)
	e.Init = NewProgressInitializer(e.ProgressRepo, e.Builder, e.Notifier)
	e.Archival = NewArchivalService(e.TermWeek, e.ScheduleRepo, e.ProgressRepo, e.StudentRepo, clock)
	e.Orchestrator = NewWeeklyOrchestrator(e.TermWeek, e.Expander, e.Init, e.Archival, e.StudentRepo, e.ScheduleRepo, e.ProgressRepo, clock)
	e.Expiry = NewGraceExpiryService(e.ProgressRepo, e.ScheduleRepo, e.StudentRepo, e.Assessments, e.Notifier, clock)
	e.Access = NewAccessibilityService(e.ProgressRepo, e.StudentRepo, e.Assessments, e.Notifier, clock)
	e.Finalizer = NewFinalizer(e.ProgressRepo, e.Assessments, e.Expiry, clock)
	e.Submissions = NewSubmissionService(e.ProgressRepo, e.Assessments, e.Expiry, clock)
	e.Maintenance = NewMaintenanceService(e.ScheduleRepo, e.StudentRepo, e.Notifier, clock)
	e.Conflict = NewConflictService(e.Conflicts, e.ScheduleRepo, clock)
	return e
}

// seedTerm 2025-01-06（周一）开学，16 周
func (e *testEnv) seedTerm(t *testing.T) *model.Term {
	t.Helper()
	term := &model.Term{
		Name:      "2025 春季学期",
		StartDate: date(2025, 1, 6),
		EndDate:   date(2025, 4, 27),
		IsActive:  true,
		WeekCount: 16,
	}
	require.NoError(t, e.TermRepo.Create(term))
	return term
}

func (e *testEnv) seedStudent(t *testing.T, userID uint, mode model.ScheduleMode) *model.StudentProfile {
	t.Helper()
	st := &model.StudentProfile{
		UserID:       userID,
		FullName:     "测试学生",
		ScheduleMode: mode,
		Active:       true,
	}
	require.NoError(t, e.StudentRepo.Create(st))
	return st
}

func (e *testEnv) seedSubject(t *testing.T, code string, teacherID uint) *model.Subject {
	t.Helper()
	subj := &model.Subject{Name: "学科 " + code, Code: code, TeacherUserID: teacherID}
	require.NoError(t, e.DB.Create(subj).Error)
	return subj
}

func (e *testEnv) seedTopic(t *testing.T, subjectID uint, week, periods int) *model.LessonTopic {
	t.Helper()
	topic := &model.LessonTopic{
		SubjectID:   subjectID,
		Title:       "主题",
		WeekNumber:  week,
		PeriodCount: periods,
	}
	require.NoError(t, e.StudentRepo.CreateTopic(topic))
	return topic
}

func (e *testEnv) seedBank(t *testing.T, subjectID, topicID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		q := &model.QuestionBankItem{
			SubjectID:     subjectID,
			LessonTopicID: topicID,
			Body:          "题目",
			CorrectAnswer: "A",
			Score:         10,
		}
		require.NoError(t, e.DB.Create(q).Error)
	}
}

func (e *testEnv) seedTimetable(t *testing.T, studentID, subjectID uint, day string, period int, start, end string) {
	t.Helper()
	require.NoError(t, e.StudentRepo.CreateTimetableEntry(&model.TimetableEntry{
		StudentProfileID: studentID,
		DayOfWeek:        day,
		PeriodNumber:     period,
		StartTime:        start,
		EndTime:          end,
		SubjectID:        subjectID,
	}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}
