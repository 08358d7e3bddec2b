package model

import (
	"encoding/json"
	"time"
)

// ScheduleEntry 某学生某天某节课的已排课时
// 既可能来自个性化周课表展开（individual），也可能来自班级课表（class）
// swagger:model ScheduleEntry
type ScheduleEntry struct {
	BaseModel
	StudentProfileID uint         `gorm:"index;not null" json:"studentProfileId"`
	ScheduledDate    time.Time    `gorm:"index;not null" json:"scheduledDate"`
	DayOfWeek        string       `gorm:"size:10" json:"dayOfWeek"`
	PeriodNumber     int          `gorm:"not null" json:"periodNumber"`
	StartTime        string       `gorm:"size:5" json:"startTime"`
	EndTime          string       `gorm:"size:5" json:"endTime"`
	SubjectID        uint         `gorm:"index;not null" json:"subjectId"`
	LessonTopicID    *uint        `gorm:"index" json:"lessonTopicId,omitempty"`
	AssessmentID     *uint        `gorm:"index" json:"assessmentId,omitempty"`
	ScheduleSource   ScheduleMode `gorm:"size:20;default:'class';index" json:"scheduleSource"`
	TermWeekNumber   int          `gorm:"index" json:"termWeekNumber"`

	// 多课时主题字段，由编排器在分组链接阶段填充
	PeriodSequence       int             `gorm:"default:1" json:"periodSequence"`
	TotalPeriodsForTopic int             `gorm:"default:1" json:"totalPeriodsForTopic"`
	LinkedScheduleIDs    json.RawMessage `gorm:"type:json" json:"linkedScheduleIds,omitempty"`

	MissingLessonTopic      bool    `gorm:"default:false;index" json:"missingLessonTopic"`
	AllAssessmentsCompleted bool    `gorm:"default:false" json:"allAssessmentsCompleted"`
	TopicCompletionPercent  float64 `gorm:"default:0" json:"topicCompletionPercent"`

	HasConflict     bool   `gorm:"default:false" json:"hasConflict"`
	ConflictDetails string `gorm:"type:text" json:"conflictDetails,omitempty"`
}

func (ScheduleEntry) TableName() string {
	return "daily_schedules"
}

// LinkedIDs 解析关联课时ID列表
func (s *ScheduleEntry) LinkedIDs() []uint {
	return decodeIDList(s.LinkedScheduleIDs)
}

// SetLinkedIDs 序列化关联课时ID列表
func (s *ScheduleEntry) SetLinkedIDs(ids []uint) {
	s.LinkedScheduleIDs = encodeIDList(ids)
}

// ArchivedScheduleEntry 归档后的课时快照，保留生成时的全部字段
type ArchivedScheduleEntry struct {
	BaseModel
	OriginalScheduleID uint      `gorm:"index;not null" json:"originalScheduleId"`
	ArchivedAt         time.Time `gorm:"not null" json:"archivedAt"`
	ArchiveBatchID     string    `gorm:"size:36;index" json:"archiveBatchId"`
	TermID             uint      `gorm:"index" json:"termId"`
	TermWeekNumber     int       `gorm:"index" json:"termWeekNumber"`
	AcademicYear       string    `gorm:"size:9" json:"academicYear"`

	StudentProfileID     uint      `gorm:"index" json:"studentProfileId"`
	ScheduledDate        time.Time `json:"scheduledDate"`
	DayOfWeek            string    `gorm:"size:10" json:"dayOfWeek"`
	PeriodNumber         int       `json:"periodNumber"`
	StartTime            string    `gorm:"size:5" json:"startTime"`
	EndTime              string    `gorm:"size:5" json:"endTime"`
	SubjectID            uint      `json:"subjectId"`
	LessonTopicID        *uint     `json:"lessonTopicId,omitempty"`
	AssessmentID         *uint     `json:"assessmentId,omitempty"`
	ScheduleSource       ScheduleMode `gorm:"size:20" json:"scheduleSource"`
	PeriodSequence       int       `json:"periodSequence"`
	TotalPeriodsForTopic int       `json:"totalPeriodsForTopic"`
	MissingLessonTopic   bool      `json:"missingLessonTopic"`
}

func (ArchivedScheduleEntry) TableName() string {
	return "archived_daily_schedules"
}

func decodeIDList(raw json.RawMessage) []uint {
	if len(raw) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}

func encodeIDList(ids []uint) json.RawMessage {
	if len(ids) == 0 {
		return nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil
	}
	return raw
}
