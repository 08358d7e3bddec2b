package service

import (
	"testing"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 造一个已生成的单课时场景：周一 16:00-16:30，窗口 15:30-18:30
func seedGeneratedWeek(t *testing.T, e *testEnv, bankSize int) *model.ProgressRecord {
	t.Helper()
	e.seedTerm(t)
	st := e.seedStudent(t, 100, model.ScheduleModeIndividual)
	subj := e.seedSubject(t, "MATH", 9)
	topic := e.seedTopic(t, subj.ID, 1, 1)
	if bankSize > 0 {
		e.seedBank(t, subj.ID, topic.ID, bankSize)
	}
	e.seedTimetable(t, st.ID, subj.ID, "MONDAY", 1, "16:00", "16:30")

	_, err := e.Orchestrator.GenerateWeek(1)
	require.NoError(t, err)

	records, err := e.ProgressRepo.ListByStudentAndDate(st.ID, date(2025, 1, 6))
	require.NoError(t, err)
	require.Len(t, records, 1)
	return &records[0]
}

func TestOpenDueWindows(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	// 窗口未到，不开
	e.Clock.Current = at(2025, 1, 6, 15, 0)
	opened, err := e.Access.OpenDueWindows()
	require.NoError(t, err)
	assert.Zero(t, opened)

	// 窗口已到
	e.Clock.Current = at(2025, 1, 6, 15, 40)
	opened, err = e.Access.OpenDueWindows()
	require.NoError(t, err)
	assert.Equal(t, 1, opened)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.True(t, after.AssessmentAccessible)

	// 学生收到开放通知
	ns, err := e.Notifs.ListByRecipient(100, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, model.NotifyAssessmentAvailable, ns[0].Kind)

	// 再扫一轮不重复开
	opened, err = e.Access.OpenDueWindows()
	require.NoError(t, err)
	assert.Zero(t, opened)
}

func TestOpenSkipsWholeExpiredWindow(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	seedGeneratedWeek(t, e, 6)

	// 窗口 18:30 整体结束后才扫到
	e.Clock.Current = at(2025, 1, 6, 19, 0)
	opened, err := e.Access.OpenDueWindows()
	require.NoError(t, err)
	assert.Zero(t, opened)
}

func TestExpireOverdue(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)

	// 宽限 18:35 前不动
	e.Clock.Current = at(2025, 1, 6, 18, 34)
	expired, err := e.Expiry.ExpireOverdue()
	require.NoError(t, err)
	assert.Zero(t, expired)

	e.Clock.Current = at(2025, 1, 6, 18, 40)
	expired, err = e.Expiry.ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IncompleteMissedGrace, after.IncompleteReason)
	assert.False(t, after.AssessmentAccessible)
	assert.Equal(t, model.StateMissedFlagged, after.State())

	// 关联课时完成率刷成 0
	require.NotNil(t, after.ScheduleID)
	entry, err := e.ScheduleRepo.FindByID(*after.ScheduleID)
	require.NoError(t, err)
	assert.False(t, entry.AllAssessmentsCompleted)
	assert.Zero(t, entry.TopicCompletionPercent)
}

func TestExpireOverdueFlagsNeverOpenedRecords(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	// 整个窗口都没扫到，开窗任务已经追不上了
	e.Clock.Current = at(2025, 1, 6, 19, 0)
	opened, err := e.Access.OpenDueWindows()
	require.NoError(t, err)
	require.Zero(t, opened)

	// 从未开放过的记录同样要标缺考
	expired, err := e.Expiry.ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IncompleteMissedGrace, after.IncompleteReason)
	assert.Equal(t, model.StateMissedFlagged, after.State())

	ns, err := e.Notifs.ListByRecipient(100, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, model.NotifyAssessmentExpired, ns[0].Kind)

	// 再扫一轮不重复标
	expired, err = e.Expiry.ExpireOverdue()
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestFinalizerWaitsOutGracePeriod(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)

	// 窗口 18:30 已关但宽限到 18:35，定稿任务不能碰
	e.Clock.Current = at(2025, 1, 6, 18, 32)
	res, err := e.Finalizer.Run()
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	assert.Zero(t, res.ZeroScored)

	// 宽限期内的迟交仍然有效
	sub, err := e.Submissions.Submit(p.ID, nil)
	require.NoError(t, err)
	assert.False(t, sub.AutoGenerated)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.Equal(t, model.IncompleteLateSubmit, after.IncompleteReason)

	// 宽限过后定稿任务也不会再覆盖这份提交
	e.Clock.Current = at(2025, 1, 6, 18, 40)
	res, err = e.Finalizer.Run()
	require.NoError(t, err)
	assert.Zero(t, res.ZeroScored)

	var count int64
	require.NoError(t, e.DB.Model(&model.AssessmentSubmission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFinalizerRollsUpMultiPeriodTopic(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	e.seedTerm(t)
	st := e.seedStudent(t, 100, model.ScheduleModeIndividual)
	subj := e.seedSubject(t, "CS", 9)
	topic := e.seedTopic(t, subj.ID, 1, 2)
	e.seedBank(t, subj.ID, topic.ID, 6)
	e.seedTimetable(t, st.ID, subj.ID, "MONDAY", 1, "16:00", "16:30")
	e.seedTimetable(t, st.ID, subj.ID, "WEDNESDAY", 1, "16:00", "16:30")

	_, err := e.Orchestrator.GenerateWeek(1)
	require.NoError(t, err)

	// 两节课全缺考，由定稿任务闭合
	e.Clock.Current = at(2025, 1, 9, 12, 0)
	res, err := e.Finalizer.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, res.ZeroScored)

	// 序列闭合后主题汇总也要跟上，零分缺考均分为 0
	for _, d := range []time.Time{date(2025, 1, 6), date(2025, 1, 8)} {
		records, err := e.ProgressRepo.ListByStudentAndDate(st.ID, d)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].AllPeriodsCompleted)
		require.NotNil(t, records[0].TopicAverageScore)
		assert.Equal(t, float64(0), *records[0].TopicAverageScore)
	}
}

func TestFinalizerCreatesExactlyOneZeroScoreSubmission(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)
	e.Clock.Current = at(2025, 1, 6, 19, 0)
	_, err = e.Expiry.ExpireOverdue()
	require.NoError(t, err)

	e.Clock.Current = at(2025, 1, 6, 20, 0)
	res, err := e.Finalizer.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, res.ZeroScored)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateFinalized, after.State())
	require.NotNil(t, after.SubmissionID)

	sub, err := e.Assessments.FindSubmission(*after.SubmissionID)
	require.NoError(t, err)
	assert.Zero(t, sub.Score)
	assert.True(t, sub.AutoGenerated)
	assert.Equal(t, string(model.IncompleteMissedGrace), sub.MissedReason)
	// 每道题一条空答案
	answers, err := e.Assessments.ListAnswers(sub.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 5)

	// 幂等：再跑一轮不再造提交
	res, err = e.Finalizer.Run()
	require.NoError(t, err)
	assert.Zero(t, res.ZeroScored)
	assert.Zero(t, res.Scanned)

	var count int64
	require.NoError(t, e.DB.Model(&model.AssessmentSubmission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFinalizerClosesRecordsWithoutAssessment(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 0) // 题库为空，没有评估

	e.Clock.Current = at(2025, 1, 6, 20, 0)
	res, err := e.Finalizer.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, res.ClosedNoContent)
	assert.Zero(t, res.ZeroScored)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.Nil(t, after.SubmissionID)
	assert.Equal(t, model.IncompleteMissedGrace, after.IncompleteReason)
}

func TestFinalizerLookbackBounds(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	seedGeneratedWeek(t, e, 6)

	// 窗口结束 8 天后，主扫描的 7 天回看已覆盖不到
	e.Clock.Current = at(2025, 1, 14, 20, 0)
	res, err := e.Finalizer.Run()
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)

	// 成绩册扫描 2 小时回看更短，当晚就已覆盖不到
	e.Clock.Current = at(2025, 1, 6, 21, 0)
	res, err = e.Finalizer.RunGradebookScan()
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)

	// 每日安全扫描从前一天零点起，第二天还能兜住
	e.Clock.Current = at(2025, 1, 7, 0, 5)
	res, err = e.Finalizer.RunDailySafetyPass()
	require.NoError(t, err)
	assert.Equal(t, 1, res.ZeroScored)
}
