package service

import (
	"testing"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitBeforeWindowOpensRejected(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 10, 0)
	_, err := e.Submissions.Submit(p.ID, nil)
	assert.ErrorIs(t, err, util.ErrAssessmentNotAccessible)
}

func TestSubmitGradesAnswers(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)

	p, err = e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	links, err := e.Assessments.ListQuestions(*p.AssessmentID)
	require.NoError(t, err)
	require.Len(t, links, 5)

	// 前两题答对，第三题答错，其余不答
	answers := []AnswerInput{
		{QuestionID: links[0].QuestionID, Answer: "A"},
		{QuestionID: links[1].QuestionID, Answer: "A"},
		{QuestionID: links[2].QuestionID, Answer: "B"},
	}
	sub, err := e.Submissions.Submit(p.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, float64(20), sub.Score)
	assert.Equal(t, 5, sub.AnswerCount)
	assert.False(t, sub.AutoGenerated)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.Equal(t, model.StateFinalized, after.State())

	// 课时完成率刷新
	entry, err := e.ScheduleRepo.FindByID(*after.ScheduleID)
	require.NoError(t, err)
	assert.True(t, entry.AllAssessmentsCompleted)
	assert.Equal(t, float64(100), entry.TopicCompletionPercent)
}

func TestSubmitTwiceRejected(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)

	_, err = e.Submissions.Submit(p.ID, nil)
	require.NoError(t, err)
	_, err = e.Submissions.Submit(p.ID, nil)
	assert.ErrorIs(t, err, util.ErrSubmissionExists)
}

func TestSubmitAfterGraceRejected(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)

	e.Clock.Current = at(2025, 1, 6, 18, 40)
	_, err = e.Submissions.Submit(p.ID, nil)
	assert.ErrorIs(t, err, util.ErrAssessmentWindowClosed)
}

func TestSubmitBlockedByPreviousPeriod(t *testing.T) {
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

	second, err := e.ProgressRepo.ListByStudentAndDate(st.ID, date(2025, 1, 8))
	require.NoError(t, err)
	require.Len(t, second, 1)

	// 第一节没完成，第二节窗口也不给开
	e.Clock.Current = at(2025, 1, 8, 16, 0)
	_, err = e.Access.OpenDueWindows()
	require.NoError(t, err)
	p2, err := e.ProgressRepo.FindByID(second[0].ID)
	require.NoError(t, err)
	assert.False(t, p2.AssessmentAccessible)

	_, err = e.Submissions.Submit(p2.ID, nil)
	assert.ErrorIs(t, err, util.ErrAssessmentNotAccessible)
}

func TestNullifyPreWindowSubmissionReopensProgress(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)
	sub, err := e.Submissions.Submit(p.ID, nil)
	require.NoError(t, err)

	require.NoError(t, e.Submissions.NullifyPreWindow(sub.ID, "submitted before window"))

	nulled, err := e.Assessments.FindSubmission(sub.ID)
	require.NoError(t, err)
	assert.True(t, nulled.Nullified)
	assert.Equal(t, "submitted before window", nulled.NullifiedReason)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.False(t, after.Completed)
	assert.Nil(t, after.SubmissionID)

	// 作废后可重新提交
	_, err = e.Submissions.Submit(after.ID, nil)
	require.NoError(t, err)
}

func TestSweepPreWindowNullifiesEarlySubmissions(t *testing.T) {
	e := newTestEnv(t, at(2025, 1, 5, 23, 59))
	p := seedGeneratedWeek(t, e, 6)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err := e.Access.OpenDueWindows()
	require.NoError(t, err)
	sub, err := e.Submissions.Submit(p.ID, nil)
	require.NoError(t, err)

	// 正常提交不在巡检范围内
	swept, err := e.Submissions.SweepPreWindow()
	require.NoError(t, err)
	assert.Zero(t, swept)

	// 把提交时间改到窗口开放之前，模拟绕过窗口的提交
	sub.SubmittedAt = at(2025, 1, 6, 15, 0)
	require.NoError(t, e.Assessments.SaveSubmission(sub))

	swept, err = e.Submissions.SweepPreWindow()
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	nulled, err := e.Assessments.FindSubmission(sub.ID)
	require.NoError(t, err)
	assert.True(t, nulled.Nullified)

	after, err := e.ProgressRepo.FindByID(p.ID)
	require.NoError(t, err)
	assert.False(t, after.Completed)
	assert.Nil(t, after.SubmissionID)

	// 已作废的提交不再重复处理
	swept, err = e.Submissions.SweepPreWindow()
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestTopicRollupAveragesLinkedPeriods(t *testing.T) {
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

	first, err := e.ProgressRepo.ListByStudentAndDate(st.ID, date(2025, 1, 6))
	require.NoError(t, err)
	second, err := e.ProgressRepo.ListByStudentAndDate(st.ID, date(2025, 1, 8))
	require.NoError(t, err)

	e.Clock.Current = at(2025, 1, 6, 16, 0)
	_, err = e.Access.OpenDueWindows()
	require.NoError(t, err)
	_, err = e.Submissions.Submit(first[0].ID, nil)
	require.NoError(t, err)

	// 第一节完成后第二节才能开
	e.Clock.Current = at(2025, 1, 8, 16, 0)
	_, err = e.Access.OpenDueWindows()
	require.NoError(t, err)
	_, err = e.Submissions.Submit(second[0].ID, nil)
	require.NoError(t, err)

	p1, err := e.ProgressRepo.FindByID(first[0].ID)
	require.NoError(t, err)
	assert.True(t, p1.AllPeriodsCompleted)
	require.NotNil(t, p1.TopicAverageScore)
	assert.Equal(t, float64(0), *p1.TopicAverageScore)
}
