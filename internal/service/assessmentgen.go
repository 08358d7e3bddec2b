package service

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/util"

	"gorm.io/gorm"
)

// AssessmentBuilder 课时评估的查找与自动组卷
// 题库题量达到门槛就自动组卷，不够则要求教师手工创建
type AssessmentBuilder struct {
	AssessmentRepo *repository.AssessmentRepository
	StudentRepo    *repository.StudentRepository
}

func NewAssessmentBuilder(assessmentRepo *repository.AssessmentRepository, studentRepo *repository.StudentRepository) *AssessmentBuilder {
	return &AssessmentBuilder{AssessmentRepo: assessmentRepo, StudentRepo: studentRepo}
}

// EnsureForTopic 取主题已有评估，没有就尝试自动组卷
// 返回值第二项表示是否新组了卷，ErrInsufficientQuestions 表示需要教师手工创建
func (b *AssessmentBuilder) EnsureForTopic(topicID uint) (*model.Assessment, bool, error) {
	a, err := b.AssessmentRepo.FindByTopic(topicID)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	a, err = b.buildFromBank(topicID)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

func (b *AssessmentBuilder) buildFromBank(topicID uint) (*model.Assessment, error) {
	count, err := b.AssessmentRepo.CountBankQuestions(topicID)
	if err != nil {
		return nil, err
	}
	if count < util.MinimumQuestions {
		return nil, util.ErrInsufficientQuestions
	}

	topic, err := b.StudentRepo.FindTopic(topicID)
	if err != nil {
		return nil, err
	}
	pool, err := b.AssessmentRepo.ListBankQuestions(topicID)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	questions := pool[:util.MinimumQuestions]

	var total float64
	for _, q := range questions {
		total += q.Score
	}
	a := &model.Assessment{
		Title:         fmt.Sprintf("%s 课后测", topic.Title),
		SubjectID:     topic.SubjectID,
		LessonTopicID: &topicID,
		Type:          model.AssessmentTypeStandard,
		QuestionCount: len(questions),
		TotalScore:    total,
	}
	if err := b.AssessmentRepo.Create(a); err != nil {
		return nil, err
	}

	links := make([]model.AssessmentQuestion, 0, len(questions))
	for i, q := range questions {
		links = append(links, model.AssessmentQuestion{
			AssessmentID: a.ID,
			QuestionID:   q.ID,
			OrderIndex:   i,
		})
	}
	if err := b.AssessmentRepo.CreateQuestionLinks(links); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateCustom 教师手工创建评估并挂到主题上
func (b *AssessmentBuilder) CreateCustom(topicID, teacherUserID uint, title string, questionIDs []uint, now time.Time) (*model.Assessment, error) {
	topic, err := b.StudentRepo.FindTopic(topicID)
	if err != nil {
		return nil, err
	}
	a := &model.Assessment{
		Title:         title,
		SubjectID:     topic.SubjectID,
		LessonTopicID: &topicID,
		Type:          model.AssessmentTypeCustom,
		QuestionCount: len(questionIDs),
		CreatedByUser: &teacherUserID,
	}
	if err := b.AssessmentRepo.Create(a); err != nil {
		return nil, err
	}
	links := make([]model.AssessmentQuestion, 0, len(questionIDs))
	for i, qid := range questionIDs {
		links = append(links, model.AssessmentQuestion{
			AssessmentID: a.ID,
			QuestionID:   qid,
			OrderIndex:   i,
		})
	}
	if err := b.AssessmentRepo.CreateQuestionLinks(links); err != nil {
		return nil, err
	}
	return a, nil
}
