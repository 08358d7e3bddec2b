package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveWeekSnapshotsAndRemoves(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 12, 23, 59))
	p := seedGeneratedWeek(t, e, 6)
	scheduleID := *p.ScheduleID

	res, err := e.Archival.ArchiveWeek(1)
	require.NoError(t, err)
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 1, res.WeekNumber)
	assert.Equal(t, 1, res.SchedulesArchived)
	assert.Equal(t, 1, res.ProgressArchived)
	assert.Equal(t, 0, res.ProgressSkipped)

	// 无提交的原件随归档移除
	_, err = e.ScheduleRepo.FindByID(scheduleID)
	assert.Error(t, err)
	_, err = e.ProgressRepo.FindByID(p.ID)
	assert.Error(t, err)
}

func TestArchiveWeekKeepsSubmittedProgress(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)
	_, err = e.Submissions.Submit(p.ID, nil)
	require.NoError(t, err)

	e.Clock.Current = at(2025, 1, 12, 23, 59)
	res, err := e.Archival.ArchiveWeek(1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProgressArchived)
	assert.Equal(t, 1, res.ProgressSkipped)

	// 带提交的原件不删，成绩链路保留
	kept, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept.SubmissionID)
}

func TestArchiveWeekNoActiveTerm(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 12, 23, 59))
	_, err := e.Archival.ArchiveWeek(1)
	assert.Error(t, err)
}
