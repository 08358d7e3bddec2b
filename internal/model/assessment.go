package model

import "time"

// AssessmentType 评估类型
type AssessmentType string

const (
	AssessmentTypeStandard AssessmentType = "standard" // 题库自动组卷
	AssessmentTypeCustom   AssessmentType = "custom"   // 教师手工创建
)

// Assessment 课时评估，与课程主题和具体课时绑定
// swagger:model Assessment
type Assessment struct {
	BaseModel
	Title          string         `gorm:"size:255;not null" json:"title"`
	SubjectID      uint           `gorm:"index;not null" json:"subjectId"`
	LessonTopicID  *uint          `gorm:"index" json:"lessonTopicId,omitempty"`
	Type           AssessmentType `gorm:"size:20;default:'standard'" json:"type"`
	QuestionCount  int            `gorm:"default:0" json:"questionCount"`
	TotalScore     float64        `gorm:"default:100" json:"totalScore"`
	DurationMin    int            `gorm:"default:30" json:"durationMin"`
	CreatedByUser  *uint          `json:"createdByUser,omitempty"`
	Published      bool           `gorm:"default:true" json:"published"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// QuestionBankItem 题库题目，按主题归类，组卷时随机抽取
type QuestionBankItem struct {
	BaseModel
	SubjectID     uint   `gorm:"index;not null" json:"subjectId"`
	LessonTopicID uint   `gorm:"index;not null" json:"lessonTopicId"`
	Body          string `gorm:"type:text;not null" json:"body"`
	OptionsJSON   string `gorm:"type:text" json:"optionsJson,omitempty"`
	CorrectAnswer string `gorm:"size:500" json:"correctAnswer"`
	Score         float64 `gorm:"default:10" json:"score"`
}

func (QuestionBankItem) TableName() string {
	return "question_bank_items"
}

// AssessmentQuestion 评估与题目的关联
type AssessmentQuestion struct {
	BaseModel
	AssessmentID uint `gorm:"index;not null;uniqueIndex:uniq_assessment_question" json:"assessmentId"`
	QuestionID   uint `gorm:"index;not null;uniqueIndex:uniq_assessment_question" json:"questionId"`
	OrderIndex   int  `gorm:"default:0" json:"orderIndex"`
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// AssessmentSubmission 学生对某次评估的提交
// 兜底定稿任务会为缺考学生创建零分提交，MissedReason 标记来源
// swagger:model AssessmentSubmission
type AssessmentSubmission struct {
	BaseModel
	AssessmentID     uint       `gorm:"index;not null" json:"assessmentId"`
	StudentProfileID uint       `gorm:"index;not null" json:"studentProfileId"`
	ProgressID       *uint      `gorm:"index" json:"progressId,omitempty"`
	SubmittedAt      time.Time  `gorm:"not null" json:"submittedAt"`
	Score            float64    `gorm:"default:0" json:"score"`
	MaxScore         float64    `gorm:"default:100" json:"maxScore"`
	AnswerCount      int        `gorm:"default:0" json:"answerCount"`
	Nullified        bool       `gorm:"default:false" json:"nullified"`
	NullifiedReason  string     `gorm:"size:255" json:"nullifiedReason,omitempty"`
	NullifiedAt      *time.Time `json:"nullifiedAt,omitempty"`
	MissedReason     string     `gorm:"size:100" json:"missedReason,omitempty"`
	AutoGenerated    bool       `gorm:"default:false;index" json:"autoGenerated"`
}

func (AssessmentSubmission) TableName() string {
	return "assessment_submissions"
}

// AssessmentAnswer 提交中的单题作答，零分提交的作答为空答案
type AssessmentAnswer struct {
	BaseModel
	SubmissionID uint    `gorm:"index;not null" json:"submissionId"`
	QuestionID   uint    `gorm:"index;not null" json:"questionId"`
	Answer       string  `gorm:"type:text" json:"answer"`
	Correct      bool    `gorm:"default:false" json:"correct"`
	ScoreAwarded float64 `gorm:"default:0" json:"scoreAwarded"`
}

func (AssessmentAnswer) TableName() string {
	return "assessment_answers"
}

// WindowReschedule 评估窗口改期的审计记录
// 改期不修改原进度记录的窗口，而是新建一行记录新旧窗口
type WindowReschedule struct {
	BaseModel
	ProgressID     uint      `gorm:"index;not null" json:"progressId"`
	OldWindowStart time.Time `json:"oldWindowStart"`
	OldWindowEnd   time.Time `json:"oldWindowEnd"`
	NewWindowStart time.Time `json:"newWindowStart"`
	NewWindowEnd   time.Time `json:"newWindowEnd"`
	Reason         string    `gorm:"size:255" json:"reason,omitempty"`
	RequestedBy    uint      `gorm:"index" json:"requestedBy"`
}

func (WindowReschedule) TableName() string {
	return "window_reschedules"
}
