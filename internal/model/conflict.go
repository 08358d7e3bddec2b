package model

// ConflictType 课时冲突类型
type ConflictType string

const (
	ConflictTimeOverlap    ConflictType = "time_overlap"    // 同一学生同一时段出现两节课
	ConflictDuplicateSlot  ConflictType = "duplicate_slot"  // 同日同节次重复排课
	ConflictSourceCollision ConflictType = "source_collision" // 个性化课表与班级课表互撞
)

// ConflictAction 冲突处理动作
type ConflictAction string

const (
	ConflictKeepFirst  ConflictAction = "KEEP_FIRST"
	ConflictKeepSecond ConflictAction = "KEEP_SECOND"
	ConflictEditTime   ConflictAction = "EDIT_TIME"
)

// ScheduleConflict 检测到的课时冲突，待教师或管理员处理
// swagger:model ScheduleConflict
type ScheduleConflict struct {
	BaseModel
	StudentProfileID uint           `gorm:"index;not null" json:"studentProfileId"`
	FirstScheduleID  uint           `gorm:"index;not null" json:"firstScheduleId"`
	SecondScheduleID uint           `gorm:"index;not null" json:"secondScheduleId"`
	Type             ConflictType   `gorm:"size:30;not null" json:"type"`
	Detail           string         `gorm:"type:text" json:"detail,omitempty"`
	Resolved         bool           `gorm:"default:false;index" json:"resolved"`
	ResolvedAction   ConflictAction `gorm:"size:20" json:"resolvedAction,omitempty"`
	ResolvedByUserID *uint          `json:"resolvedByUserId,omitempty"`
}

func (ScheduleConflict) TableName() string {
	return "schedule_conflicts"
}
