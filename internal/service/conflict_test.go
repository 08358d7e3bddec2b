package service

import (
	"testing"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedConflictPair(t *testing.T, subjectID uint, day time.Time, p1, p2 int, s1, e1, s2, e2 string, src2 model.ScheduleMode) (*model.ScheduleEntry, *model.ScheduleEntry) {
	t.Helper()
	a := &model.ScheduleEntry{
		StudentProfileID: 1,
		ScheduledDate:    day,
		DayOfWeek:        "MONDAY",
		PeriodNumber:     p1,
		StartTime:        s1,
		EndTime:          e1,
		SubjectID:        subjectID,
		ScheduleSource:   model.ScheduleModeIndividual,
		TermWeekNumber:   1,
	}
	b := &model.ScheduleEntry{
		StudentProfileID: 1,
		ScheduledDate:    day,
		DayOfWeek:        "MONDAY",
		PeriodNumber:     p2,
		StartTime:        s2,
		EndTime:          e2,
		SubjectID:        subjectID,
		ScheduleSource:   src2,
		TermWeekNumber:   1,
	}
	require.NoError(t, e.ScheduleRepo.Create(a))
	require.NoError(t, e.ScheduleRepo.Create(b))
	return a, b
}

func TestDetectDuplicateSlot(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 6, 8, 0))
	subj := e.seedSubject(t, "MATH", 9)
	a, b := e.seedConflictPair(t, subj.ID, date(2025, 1, 6), 1, 1,
		"16:00", "16:30", "17:00", "17:30", model.ScheduleModeIndividual)

	found, err := e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, found)

	cs, err := e.Conflicts.ListUnresolved()
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, model.ConflictDuplicateSlot, cs[0].Type)

	for _, id := range []uint{a.ID, b.ID} {
		entry, err := e.ScheduleRepo.FindByID(id)
		require.NoError(t, err)
		assert.True(t, entry.HasConflict)
	}
}

func TestDetectTimeOverlap(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 6, 8, 0))
	subj := e.seedSubject(t, "MATH", 9)
	e.seedConflictPair(t, subj.ID, date(2025, 1, 6), 1, 2,
		"16:00", "17:00", "16:30", "17:30", model.ScheduleModeIndividual)

	found, err := e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, found)

	cs, err := e.Conflicts.ListUnresolved()
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, model.ConflictTimeOverlap, cs[0].Type)
}

func TestDetectSourceCollision(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 6, 8, 0))
	subj := e.seedSubject(t, "MATH", 9)
	e.seedConflictPair(t, subj.ID, date(2025, 1, 6), 1, 2,
		"16:00", "17:00", "16:30", "17:30", model.ScheduleModeClass)

	found, err := e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, found)

	cs, err := e.Conflicts.ListUnresolved()
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, model.ConflictSourceCollision, cs[0].Type)
}

func TestDetectDoesNotDuplicateConflicts(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 6, 8, 0))
	subj := e.seedSubject(t, "MATH", 9)
	e.seedConflictPair(t, subj.ID, date(2025, 1, 6), 1, 1,
		"16:00", "16:30", "17:00", "17:30", model.ScheduleModeIndividual)

	found, err := e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, found)

	// 重跑不重复记
	found, err = e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, 0, found)

	cs, err := e.Conflicts.ListUnresolved()
	require.NoError(t, err)
	assert.Len(t, cs, 1)
}

func TestResolveKeepFirst(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 6, 8, 0))
	subj := e.seedSubject(t, "MATH", 9)
	a, b := e.seedConflictPair(t, subj.ID, date(2025, 1, 6), 1, 1,
		"16:00", "16:30", "17:00", "17:30", model.ScheduleModeIndividual)

	_, err := e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	cs, err := e.Conflicts.ListUnresolved()
	require.NoError(t, err)
	require.Len(t, cs, 1)

	require.NoError(t, e.Conflict.Resolve(cs[0].ID, model.ConflictKeepFirst, "", "", 5))

	_, err = e.ScheduleRepo.FindByID(b.ID)
	assert.Error(t, err)

	kept, err := e.ScheduleRepo.FindByID(a.ID)
	require.NoError(t, err)
	assert.False(t, kept.HasConflict)

	c, err := e.Conflicts.FindByID(cs[0].ID)
	require.NoError(t, err)
	assert.True(t, c.Resolved)
	assert.Equal(t, model.ConflictKeepFirst, c.ResolvedAction)
	require.NotNil(t, c.ResolvedByUserID)
	assert.Equal(t, uint(5), *c.ResolvedByUserID)

	// 已处理的冲突不允许二次处理
	err = e.Conflict.Resolve(cs[0].ID, model.ConflictKeepSecond, "", "", 5)
	assert.ErrorIs(t, err, util.ErrConflictAlreadyResolved)
}

func TestResolveKeepSecond(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 6, 8, 0))
	subj := e.seedSubject(t, "MATH", 9)
	a, b := e.seedConflictPair(t, subj.ID, date(2025, 1, 6), 1, 1,
		"16:00", "16:30", "17:00", "17:30", model.ScheduleModeIndividual)

	_, err := e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	cs, err := e.Conflicts.ListUnresolved()
	require.NoError(t, err)
	require.Len(t, cs, 1)

	require.NoError(t, e.Conflict.Resolve(cs[0].ID, model.ConflictKeepSecond, "", "", 5))

	_, err = e.ScheduleRepo.FindByID(a.ID)
	assert.Error(t, err)
	kept, err := e.ScheduleRepo.FindByID(b.ID)
	require.NoError(t, err)
	assert.False(t, kept.HasConflict)
}

func TestResolveEditTime(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 6, 8, 0))
	subj := e.seedSubject(t, "MATH", 9)
	a, b := e.seedConflictPair(t, subj.ID, date(2025, 1, 6), 1, 2,
		"16:00", "17:00", "16:30", "17:30", model.ScheduleModeIndividual)

	_, err := e.Conflict.DetectForStudentDate(1, date(2025, 1, 6))
	require.NoError(t, err)
	cs, err := e.Conflicts.ListUnresolved()
	require.NoError(t, err)
	require.Len(t, cs, 1)

	// 新时间越出允许时段，拒绝
	err = e.Conflict.Resolve(cs[0].ID, model.ConflictEditTime, "19:00", "19:30", 5)
	assert.Error(t, err)

	require.NoError(t, e.Conflict.Resolve(cs[0].ID, model.ConflictEditTime, "17:00", "17:30", 5))

	edited, err := e.ScheduleRepo.FindByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "17:00", edited.StartTime)
	assert.Equal(t, "17:30", edited.EndTime)
	assert.False(t, edited.HasConflict)

	first, err := e.ScheduleRepo.FindByID(a.ID)
	require.NoError(t, err)
	assert.False(t, first.HasConflict)
}
