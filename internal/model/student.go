package model

// ScheduleMode 表示学生的排课模式
type ScheduleMode string

const (
	ScheduleModeIndividual ScheduleMode = "individual" // 个性化周课表，按周归档
	ScheduleModeClass      ScheduleMode = "class"      // 班级统一课表，30天滚动清理
)

// StudentProfile 学生档案
// swagger:model StudentProfile
type StudentProfile struct {
	BaseModel
	UserID       uint         `gorm:"index;not null" json:"userId"`
	FullName     string       `gorm:"size:255;not null" json:"fullName"`
	ScheduleMode ScheduleMode `gorm:"size:20;default:'class';index" json:"scheduleMode"`
	Active       bool         `gorm:"default:true" json:"active"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

// Subject 学科
type Subject struct {
	BaseModel
	Name          string `gorm:"size:255;not null" json:"name"`
	Code          string `gorm:"size:50;uniqueIndex" json:"code"`
	TeacherUserID uint   `gorm:"index" json:"teacherUserId"`
}

func (Subject) TableName() string {
	return "subjects"
}

// LessonTopic 课程主题，按学科和学期周次组织
type LessonTopic struct {
	BaseModel
	SubjectID   uint   `gorm:"index;not null" json:"subjectId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	WeekNumber  int    `gorm:"index" json:"weekNumber"`
	PeriodCount int    `gorm:"default:1" json:"periodCount"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

func (LessonTopic) TableName() string {
	return "lesson_topics"
}

// Enrollment 选课关系
type Enrollment struct {
	BaseModel
	StudentProfileID uint `gorm:"index;not null;uniqueIndex:uniq_enrollment" json:"studentProfileId"`
	SubjectID        uint `gorm:"index;not null;uniqueIndex:uniq_enrollment" json:"subjectId"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// TimetableEntry 个性化学生的周课表模板条目，由编排器展开为具体日期的课时
// swagger:model TimetableEntry
type TimetableEntry struct {
	BaseModel
	StudentProfileID uint   `gorm:"index;not null" json:"studentProfileId"`
	DayOfWeek        string `gorm:"size:10;not null" json:"dayOfWeek"` // MONDAY..SATURDAY
	PeriodNumber     int    `gorm:"not null" json:"periodNumber"`
	StartTime        string `gorm:"size:5;not null" json:"startTime"` // "16:00"
	EndTime          string `gorm:"size:5;not null" json:"endTime"`   // "16:30"
	SubjectID        uint   `gorm:"index;not null" json:"subjectId"`
}

func (TimetableEntry) TableName() string {
	return "timetable_entries"
}
