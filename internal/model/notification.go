package model

// NotificationKind 通知类别
type NotificationKind string

const (
	NotifyAssessmentAvailable   NotificationKind = "assessment_available"
	NotifyAssessmentExpired     NotificationKind = "assessment_expired"
	NotifyCustomAssessmentNeed  NotificationKind = "custom_assessment_needed"
	NotifyCustomAssessmentMade  NotificationKind = "custom_assessment_created"
	NotifyMissingTopic          NotificationKind = "missing_topic"
)

// NotificationUrgency 通知紧急度
type NotificationUrgency string

const (
	UrgencyNormal NotificationUrgency = "normal"
	UrgencyHigh   NotificationUrgency = "high"
)

// NotificationEvent 后台任务产出的通知事件
// 先落库再发布到 Redis 频道，消费端丢失也能从表里补
// swagger:model NotificationEvent
type NotificationEvent struct {
	BaseModel
	Kind             NotificationKind    `gorm:"size:50;not null;index" json:"kind"`
	RecipientUserID  uint                `gorm:"index;not null" json:"recipientUserId"`
	StudentProfileID *uint               `gorm:"index" json:"studentProfileId,omitempty"`
	SubjectID        *uint               `json:"subjectId,omitempty"`
	ProgressID       *uint               `json:"progressId,omitempty"`
	ScheduleID       *uint               `json:"scheduleId,omitempty"`
	Title            string              `gorm:"size:255;not null" json:"title"`
	Body             string              `gorm:"type:text" json:"body,omitempty"`
	Urgency          NotificationUrgency `gorm:"size:10;default:'normal'" json:"urgency"`
	Delivered        bool                `gorm:"default:false;index" json:"delivered"`
}

func (NotificationEvent) TableName() string {
	return "notification_events"
}
