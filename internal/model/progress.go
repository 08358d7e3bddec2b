package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// IncompleteReason 未完成原因，闭集
type IncompleteReason string

const (
	IncompleteNone         IncompleteReason = ""
	IncompleteMissedGrace  IncompleteReason = "missed_grace_period"
	IncompleteLateSubmit   IncompleteReason = "late_submission"
	IncompleteNoSubmission IncompleteReason = "no_submission"
)

// ProgressState 进度记录的生命周期状态
// Pending → Open → Submitted | MissedFlagged → Finalized
type ProgressState string

const (
	StatePending       ProgressState = "pending"
	StateOpen          ProgressState = "open"
	StateSubmitted     ProgressState = "submitted"
	StateMissedFlagged ProgressState = "missed_flagged"
	StateFinalized     ProgressState = "finalized"
)

// ProgressRecord 学生单个课时的生命周期记录
// 由周生成编排器创建，之后只被窗口开启、学生提交、宽限过期和兜底定稿四类动作推进
// swagger:model ProgressRecord
type ProgressRecord struct {
	BaseModel
	StudentProfileID uint      `gorm:"index;not null;uniqueIndex:uniq_progress_slot" json:"studentProfileId"`
	LessonTopicID    *uint     `gorm:"index;uniqueIndex:uniq_progress_slot" json:"lessonTopicId,omitempty"`
	SubjectID        uint      `gorm:"index" json:"subjectId"`
	ScheduleID       *uint     `gorm:"index" json:"scheduleId,omitempty"`
	ScheduledDate    time.Time `gorm:"index;not null;uniqueIndex:uniq_progress_slot" json:"scheduledDate"`
	PeriodNumber     int       `gorm:"not null;uniqueIndex:uniq_progress_slot" json:"periodNumber"`

	PeriodSequence         int             `gorm:"default:1" json:"periodSequence"`
	TotalPeriodsInSequence int             `gorm:"default:1" json:"totalPeriodsInSequence"`
	LinkedProgressIDs      json.RawMessage `gorm:"type:json" json:"linkedProgressIds,omitempty"`
	PreviousPeriodID       *uint           `gorm:"index" json:"previousPeriodId,omitempty"`

	AssessmentID         *uint      `gorm:"index" json:"assessmentId,omitempty"`
	SubmissionID         *uint      `gorm:"index" json:"submissionId,omitempty"`
	AssessmentAccessible bool       `gorm:"default:false;index" json:"assessmentAccessible"`
	WindowStart          *time.Time `gorm:"index" json:"windowStart,omitempty"`
	WindowEnd            *time.Time `json:"windowEnd,omitempty"`
	GraceDeadline        *time.Time `gorm:"index" json:"graceDeadline,omitempty"`

	Completed              bool             `gorm:"default:false;index" json:"completed"`
	CompletedAt            *time.Time       `json:"completedAt,omitempty"`
	IncompleteReason       IncompleteReason `gorm:"size:50;default:'';index" json:"incompleteReason,omitempty"`
	AutoMarkedIncompleteAt *time.Time       `json:"autoMarkedIncompleteAt,omitempty"`

	AllPeriodsCompleted bool     `gorm:"default:false" json:"allPeriodsCompleted"`
	TopicAverageScore   *float64 `json:"topicAverageScore,omitempty"`

	RequiresCustomAssessment  bool       `gorm:"default:false" json:"requiresCustomAssessment"`
	CustomAssessmentCreatedAt *time.Time `json:"customAssessmentCreatedAt,omitempty"`
	CustomAssessmentCreator   *uint      `json:"customAssessmentCreator,omitempty"`
}

func (ProgressRecord) TableName() string {
	return "lesson_progress"
}

// State 从持久化字段推导当前状态，避免状态列与标志位漂移
func (p *ProgressRecord) State() ProgressState {
	switch {
	case p.Completed || (p.SubmissionID != nil && p.IncompleteReason != IncompleteNone):
		return StateFinalized
	case p.SubmissionID != nil:
		return StateSubmitted
	case p.IncompleteReason != IncompleteNone:
		return StateMissedFlagged
	case p.AssessmentAccessible:
		return StateOpen
	default:
		return StatePending
	}
}

// Terminal 终态记录不允许任何后台任务再次改写
func (p *ProgressRecord) Terminal() bool {
	s := p.State()
	return s == StateFinalized || s == StateSubmitted
}

// Open 窗口开启：Pending → Open
func (p *ProgressRecord) Open(now time.Time) error {
	if s := p.State(); s != StatePending {
		return illegalTransition(s, StateOpen)
	}
	if p.WindowStart == nil || now.Before(*p.WindowStart) {
		return fmt.Errorf("progress %d: window has not started", p.ID)
	}
	p.AssessmentAccessible = true
	return nil
}

// AttachSubmission 学生提交：Pending|Open → Submitted
// Pending 下的提交是提前提交，由提交校验服务事后判定作废，这里不拦
func (p *ProgressRecord) AttachSubmission(submissionID uint, now time.Time) error {
	s := p.State()
	if s != StateOpen && s != StatePending {
		return illegalTransition(s, StateSubmitted)
	}
	p.SubmissionID = &submissionID
	p.Completed = true
	p.CompletedAt = &now
	if p.WindowEnd != nil && now.After(*p.WindowEnd) {
		p.IncompleteReason = IncompleteLateSubmit
	}
	return nil
}

// FlagMissed 宽限期过期：Pending|Open → MissedFlagged
func (p *ProgressRecord) FlagMissed(now time.Time) error {
	s := p.State()
	if s != StatePending && s != StateOpen {
		return illegalTransition(s, StateMissedFlagged)
	}
	p.IncompleteReason = IncompleteMissedGrace
	p.AutoMarkedIncompleteAt = &now
	p.AssessmentAccessible = false
	return nil
}

// FinalizeZeroScore 有评估内容的缺考定稿：创建零分提交并标记完成
// 标记完成是为了解锁多课时序列的后续课时
func (p *ProgressRecord) FinalizeZeroScore(submissionID uint, now time.Time) error {
	s := p.State()
	if s == StateFinalized || s == StateSubmitted {
		return illegalTransition(s, StateFinalized)
	}
	p.SubmissionID = &submissionID
	p.Completed = true
	p.CompletedAt = &now
	if p.IncompleteReason == IncompleteNone {
		p.IncompleteReason = IncompleteMissedGrace
	}
	if p.AutoMarkedIncompleteAt == nil {
		p.AutoMarkedIncompleteAt = &now
	}
	p.AssessmentAccessible = false
	return nil
}

// FinalizeWithoutAssessment 从未关联评估内容的缺考定稿：无提交，仅闭合记录
func (p *ProgressRecord) FinalizeWithoutAssessment(now time.Time) error {
	s := p.State()
	if s == StateFinalized || s == StateSubmitted {
		return illegalTransition(s, StateFinalized)
	}
	p.Completed = true
	p.CompletedAt = &now
	p.IncompleteReason = IncompleteMissedGrace
	if p.AutoMarkedIncompleteAt == nil {
		p.AutoMarkedIncompleteAt = &now
	}
	p.AssessmentAccessible = false
	return nil
}

// LinkedIDs 解析关联进度ID列表
func (p *ProgressRecord) LinkedIDs() []uint {
	return decodeIDList(p.LinkedProgressIDs)
}

// SetLinkedIDs 序列化关联进度ID列表
func (p *ProgressRecord) SetLinkedIDs(ids []uint) {
	p.LinkedProgressIDs = encodeIDList(ids)
}

// IllegalTransitionError 包装非法状态迁移
type IllegalTransitionError struct {
	From ProgressState
	To   ProgressState
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal progress transition %s -> %s", e.From, e.To)
}

func illegalTransition(from, to ProgressState) error {
	return &IllegalTransitionError{From: from, To: to}
}

// ArchivedProgressRecord 归档后的进度快照
type ArchivedProgressRecord struct {
	BaseModel
	OriginalProgressID uint      `gorm:"index;not null" json:"originalProgressId"`
	ArchivedAt         time.Time `gorm:"not null" json:"archivedAt"`
	ArchiveBatchID     string    `gorm:"size:36;index" json:"archiveBatchId"`
	TermID             uint      `gorm:"index" json:"termId"`
	TermWeekNumber     int       `gorm:"index" json:"termWeekNumber"`
	AcademicYear       string    `gorm:"size:9" json:"academicYear"`

	StudentProfileID       uint             `gorm:"index" json:"studentProfileId"`
	LessonTopicID          *uint            `json:"lessonTopicId,omitempty"`
	SubjectID              uint             `json:"subjectId"`
	ScheduledDate          time.Time        `json:"scheduledDate"`
	PeriodNumber           int              `json:"periodNumber"`
	PeriodSequence         int              `json:"periodSequence"`
	TotalPeriodsInSequence int              `json:"totalPeriodsInSequence"`
	AssessmentID           *uint            `json:"assessmentId,omitempty"`
	SubmissionID           *uint            `json:"submissionId,omitempty"`
	WindowStart            *time.Time       `json:"windowStart,omitempty"`
	WindowEnd              *time.Time       `json:"windowEnd,omitempty"`
	GraceDeadline          *time.Time       `json:"graceDeadline,omitempty"`
	Completed              bool             `json:"completed"`
	CompletedAt            *time.Time       `json:"completedAt,omitempty"`
	IncompleteReason       IncompleteReason `gorm:"size:50" json:"incompleteReason,omitempty"`
}

func (ArchivedProgressRecord) TableName() string {
	return "archived_lesson_progress"
}
