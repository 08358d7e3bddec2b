package repository

import (
	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/gorm"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) FindByID(id uint) (*model.StudentProfile, error) {
	var s model.StudentProfile
	err := r.DB.First(&s, id).Error
	return &s, err
}

func (r *StudentRepository) ListActive() ([]model.StudentProfile, error) {
	var ss []model.StudentProfile
	err := r.DB.Where("active = ?", true).Order("id asc").Find(&ss).Error
	return ss, err
}

func (r *StudentRepository) ListActiveByMode(mode model.ScheduleMode) ([]model.StudentProfile, error) {
	var ss []model.StudentProfile
	err := r.DB.Where("active = ? AND schedule_mode = ?", true, mode).Order("id asc").Find(&ss).Error
	return ss, err
}

func (r *StudentRepository) Create(s *model.StudentProfile) error {
	return r.DB.Create(s).Error
}

func (r *StudentRepository) Save(s *model.StudentProfile) error {
	return r.DB.Save(s).Error
}

func (r *StudentRepository) ListTimetable(studentProfileID uint) ([]model.TimetableEntry, error) {
	var es []model.TimetableEntry
	err := r.DB.Where("student_profile_id = ?", studentProfileID).
		Order("day_of_week asc, period_number asc").Find(&es).Error
	return es, err
}

func (r *StudentRepository) CreateTimetableEntry(e *model.TimetableEntry) error {
	return r.DB.Create(e).Error
}

func (r *StudentRepository) DeleteTimetableEntry(id uint) error {
	return r.DB.Delete(&model.TimetableEntry{}, id).Error
}

func (r *StudentRepository) ListEnrollments(studentProfileID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.Where("student_profile_id = ?", studentProfileID).Find(&es).Error
	return es, err
}

func (r *StudentRepository) FindSubject(id uint) (*model.Subject, error) {
	var s model.Subject
	err := r.DB.First(&s, id).Error
	return &s, err
}

func (r *StudentRepository) ListSubjects() ([]model.Subject, error) {
	var ss []model.Subject
	err := r.DB.Order("id asc").Find(&ss).Error
	return ss, err
}

func (r *StudentRepository) FindTopic(id uint) (*model.LessonTopic, error) {
	var t model.LessonTopic
	err := r.DB.First(&t, id).Error
	return &t, err
}

// FindTopicForWeek 按学科和学期周次取课程主题
func (r *StudentRepository) FindTopicForWeek(subjectID uint, weekNumber int) (*model.LessonTopic, error) {
	var t model.LessonTopic
	err := r.DB.Where("subject_id = ? AND week_number = ?", subjectID, weekNumber).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *StudentRepository) ListTopicsForWeek(subjectID uint, weekNumber int) ([]model.LessonTopic, error) {
	var ts []model.LessonTopic
	err := r.DB.Where("subject_id = ? AND week_number = ?", subjectID, weekNumber).
		Order("id asc").Find(&ts).Error
	return ts, err
}

func (r *StudentRepository) CreateTopic(t *model.LessonTopic) error {
	return r.DB.Create(t).Error
}
