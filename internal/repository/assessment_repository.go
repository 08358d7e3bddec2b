package repository

import (
	"errors"

	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) Save(a *model.Assessment) error {
	return r.DB.Save(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.First(&a, id).Error
	return &a, err
}

func (r *AssessmentRepository) FindByTopic(topicID uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Where("lesson_topic_id = ? AND published = ?", topicID, true).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountBankQuestions 题库中某主题的可用题量，组卷门槛判断用
func (r *AssessmentRepository) CountBankQuestions(topicID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.QuestionBankItem{}).Where("lesson_topic_id = ?", topicID).Count(&n).Error
	return n, err
}

// ListBankQuestions 某主题的全部题目，随机抽取在上层做
func (r *AssessmentRepository) ListBankQuestions(topicID uint) ([]model.QuestionBankItem, error) {
	var qs []model.QuestionBankItem
	err := r.DB.Where("lesson_topic_id = ?", topicID).Order("id asc").Find(&qs).Error
	return qs, err
}

func (r *AssessmentRepository) CreateQuestionLinks(links []model.AssessmentQuestion) error {
	if len(links) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(links, 100).Error
}

func (r *AssessmentRepository) ListQuestions(assessmentID uint) ([]model.AssessmentQuestion, error) {
	var ls []model.AssessmentQuestion
	err := r.DB.Where("assessment_id = ?", assessmentID).Order("order_index asc").Find(&ls).Error
	return ls, err
}

func (r *AssessmentRepository) CreateSubmission(s *model.AssessmentSubmission) error {
	return r.DB.Create(s).Error
}

func (r *AssessmentRepository) SaveSubmission(s *model.AssessmentSubmission) error {
	return r.DB.Save(s).Error
}

func (r *AssessmentRepository) FindSubmission(id uint) (*model.AssessmentSubmission, error) {
	var s model.AssessmentSubmission
	err := r.DB.First(&s, id).Error
	return &s, err
}

// SubmissionExistsForProgress 幂等护栏，一条进度记录只允许一份有效提交
// 多课时主题的各节共用同一份评估，按进度而不是按评估判重
func (r *AssessmentRepository) SubmissionExistsForProgress(progressID uint) (bool, error) {
	var s model.AssessmentSubmission
	err := r.DB.Where("progress_id = ? AND nullified = ?", progressID, false).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *AssessmentRepository) ListSubmissionsByStudent(studentProfileID uint) ([]model.AssessmentSubmission, error) {
	var ss []model.AssessmentSubmission
	err := r.DB.Where("student_profile_id = ?", studentProfileID).Order("submitted_at desc").Find(&ss).Error
	return ss, err
}

func (r *AssessmentRepository) CreateAnswers(as []model.AssessmentAnswer) error {
	if len(as) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(as, 100).Error
}

func (r *AssessmentRepository) ListAnswers(submissionID uint) ([]model.AssessmentAnswer, error) {
	var as []model.AssessmentAnswer
	err := r.DB.Where("submission_id = ?", submissionID).Find(&as).Error
	return as, err
}
