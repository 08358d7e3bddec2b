package service

import (
	"testing"

	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceClearsStaleFlags(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 10, 2, 0))
	e.seedTerm(t)
	subj := e.seedSubject(t, "MATH", 9)
	topic := e.seedTopic(t, subj.ID, 1, 1)

	// 有主题却挂着缺失标记
	entry := &model.ScheduleEntry{
		StudentProfileID:   1,
		ScheduledDate:      date(2025, 1, 6),
		DayOfWeek:          "MONDAY",
		PeriodNumber:       1,
		StartTime:          "16:00",
		EndTime:            "16:30",
		SubjectID:          subj.ID,
		LessonTopicID:      &topic.ID,
		TermWeekNumber:     1,
		MissingLessonTopic: true,
	}
	require.NoError(t, e.ScheduleRepo.Create(entry))

	res, err := e.Maintenance.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MissingBefore)
	assert.Equal(t, int64(0), res.MissingAfter)
	assert.Equal(t, 1, res.FlagsCleared)

	after, err := e.ScheduleRepo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.False(t, after.MissingLessonTopic)
}

func TestMaintenanceRelinksOrFlags(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 10, 2, 0))
	e.seedTerm(t)
	subjWith := e.seedSubject(t, "MATH", 9)
	topic := e.seedTopic(t, subjWith.ID, 1, 1)
	subjWithout := e.seedSubject(t, "ART", 42)

	// 没主题没标记，但主题其实存在，应补挂
	relinkable := &model.ScheduleEntry{
		StudentProfileID: 1,
		ScheduledDate:    date(2025, 1, 6),
		DayOfWeek:        "MONDAY",
		PeriodNumber:     1,
		StartTime:        "16:00",
		EndTime:          "16:30",
		SubjectID:        subjWith.ID,
		TermWeekNumber:   1,
	}
	require.NoError(t, e.ScheduleRepo.Create(relinkable))

	// 没主题没标记，主题不存在，应打标记并通知教师
	orphan := &model.ScheduleEntry{
		StudentProfileID: 1,
		ScheduledDate:    date(2025, 1, 6),
		DayOfWeek:        "MONDAY",
		PeriodNumber:     2,
		StartTime:        "17:00",
		EndTime:          "17:30",
		SubjectID:        subjWithout.ID,
		TermWeekNumber:   1,
	}
	require.NoError(t, e.ScheduleRepo.Create(orphan))

	res, err := e.Maintenance.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, res.TopicsRelinked)
	assert.Equal(t, 1, res.FlagsAdded)
	assert.Equal(t, int64(1), res.MissingAfter)

	fixed, err := e.ScheduleRepo.FindByID(relinkable.ID)
	require.NoError(t, err)
	require.NotNil(t, fixed.LessonTopicID)
	assert.Equal(t, topic.ID, *fixed.LessonTopicID)

	flagged, err := e.ScheduleRepo.FindByID(orphan.ID)
	require.NoError(t, err)
	assert.True(t, flagged.MissingLessonTopic)

	ns, err := e.Notifs.ListByRecipient(42, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, model.NotifyMissingTopic, ns[0].Kind)
}

func TestMaintenancePurgesOldClassSchedules(t *testing.T) {
	e := newTestEnv(t, at(2025, 3, 1, 2, 0))
	e.seedTerm(t)
	subj := e.seedSubject(t, "MATH", 9)
	topic := e.seedTopic(t, subj.ID, 1, 1)

	old := &model.ScheduleEntry{
		StudentProfileID: 1,
		ScheduledDate:    date(2025, 1, 10), // 50 天前
		DayOfWeek:        "FRIDAY",
		PeriodNumber:     1,
		StartTime:        "16:00",
		EndTime:          "16:30",
		SubjectID:        subj.ID,
		LessonTopicID:    &topic.ID,
		ScheduleSource:   model.ScheduleModeClass,
		TermWeekNumber:   1,
	}
	recent := &model.ScheduleEntry{
		StudentProfileID: 1,
		ScheduledDate:    date(2025, 2, 20),
		DayOfWeek:        "THURSDAY",
		PeriodNumber:     1,
		StartTime:        "16:00",
		EndTime:          "16:30",
		SubjectID:        subj.ID,
		LessonTopicID:    &topic.ID,
		ScheduleSource:   model.ScheduleModeClass,
		TermWeekNumber:   7,
	}
	oldIndividual := &model.ScheduleEntry{
		StudentProfileID: 2,
		ScheduledDate:    date(2025, 1, 10),
		DayOfWeek:        "FRIDAY",
		PeriodNumber:     1,
		StartTime:        "16:00",
		EndTime:          "16:30",
		SubjectID:        subj.ID,
		LessonTopicID:    &topic.ID,
		ScheduleSource:   model.ScheduleModeIndividual,
		TermWeekNumber:   1,
	}
	require.NoError(t, e.ScheduleRepo.Create(old))
	require.NoError(t, e.ScheduleRepo.Create(recent))
	require.NoError(t, e.ScheduleRepo.Create(oldIndividual))

	res, err := e.Maintenance.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ClassRowsPurged)

	// 个性化课表不受 30 天滚动清理影响
	_, err = e.ScheduleRepo.FindByID(oldIndividual.ID)
	assert.NoError(t, err)
	_, err = e.ScheduleRepo.FindByID(recent.ID)
	assert.NoError(t, err)
	_, err = e.ScheduleRepo.FindByID(old.ID)
	assert.Error(t, err)
}
