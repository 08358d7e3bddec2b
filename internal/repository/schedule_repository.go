package repository

import (
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/gorm"
)

type ScheduleRepository struct {
	DB *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{DB: db}
}

func (r *ScheduleRepository) Create(e *model.ScheduleEntry) error {
	return r.DB.Create(e).Error
}

func (r *ScheduleRepository) CreateBatch(es []model.ScheduleEntry) error {
	if len(es) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(es, 100).Error
}

func (r *ScheduleRepository) Save(e *model.ScheduleEntry) error {
	return r.DB.Save(e).Error
}

func (r *ScheduleRepository) FindByID(id uint) (*model.ScheduleEntry, error) {
	var e model.ScheduleEntry
	err := r.DB.First(&e, id).Error
	return &e, err
}

func (r *ScheduleRepository) FindByIDs(ids []uint) ([]model.ScheduleEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var es []model.ScheduleEntry
	err := r.DB.Where("id IN ?", ids).Find(&es).Error
	return es, err
}

func (r *ScheduleRepository) ListByStudentAndDate(studentProfileID uint, date time.Time) ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("student_profile_id = ? AND scheduled_date = ?", studentProfileID, model.DateOnly(date)).
		Order("period_number asc").Find(&es).Error
	return es, err
}

func (r *ScheduleRepository) ListByStudentBetween(studentProfileID uint, from, to time.Time) ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("student_profile_id = ? AND scheduled_date >= ? AND scheduled_date <= ?",
		studentProfileID, model.DateOnly(from), model.DateOnly(to)).
		Order("scheduled_date asc, period_number asc").Find(&es).Error
	return es, err
}

func (r *ScheduleRepository) ListForWeek(termWeekNumber int) ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("term_week_number = ?", termWeekNumber).
		Order("student_profile_id asc, scheduled_date asc, period_number asc").Find(&es).Error
	return es, err
}

func (r *ScheduleRepository) ListForStudentWeek(studentProfileID uint, termWeekNumber int) ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("student_profile_id = ? AND term_week_number = ?", studentProfileID, termWeekNumber).
		Order("scheduled_date asc, period_number asc").Find(&es).Error
	return es, err
}

// DeleteForStudentWeek 重新生成前清掉该学生该周的旧课时
func (r *ScheduleRepository) DeleteForStudentWeek(studentProfileID uint, termWeekNumber int) error {
	return r.DB.Where("student_profile_id = ? AND term_week_number = ?", studentProfileID, termWeekNumber).
		Delete(&model.ScheduleEntry{}).Error
}

// ListMissingTopic 课表上标了缺主题的课时
func (r *ScheduleRepository) ListMissingTopic() ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("missing_lesson_topic = ?", true).Find(&es).Error
	return es, err
}

// ListFlaggedButLinked 标了缺主题却已经有主题的课时，维护任务反向修复用
func (r *ScheduleRepository) ListFlaggedButLinked() ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("missing_lesson_topic = ? AND lesson_topic_id IS NOT NULL", true).Find(&es).Error
	return es, err
}

// ListUnflaggedButMissing 没标缺主题却没有主题的课时
func (r *ScheduleRepository) ListUnflaggedButMissing() ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("missing_lesson_topic = ? AND lesson_topic_id IS NULL", false).Find(&es).Error
	return es, err
}

func (r *ScheduleRepository) CountMissingTopic() (int64, error) {
	var n int64
	err := r.DB.Model(&model.ScheduleEntry{}).Where("missing_lesson_topic = ?", true).Count(&n).Error
	return n, err
}

// DeleteClassEntriesBefore 班级课表按 30 天滚动窗口清理
func (r *ScheduleRepository) DeleteClassEntriesBefore(cutoff time.Time) (int64, error) {
	res := r.DB.Where("schedule_source = ? AND scheduled_date < ?", model.ScheduleModeClass, model.DateOnly(cutoff)).
		Delete(&model.ScheduleEntry{})
	return res.RowsAffected, res.Error
}

// ListIndividualForArchive 个性化课表到周末归档
func (r *ScheduleRepository) ListIndividualForArchive(termWeekNumber int) ([]model.ScheduleEntry, error) {
	var es []model.ScheduleEntry
	err := r.DB.Where("schedule_source = ? AND term_week_number = ?", model.ScheduleModeIndividual, termWeekNumber).
		Find(&es).Error
	return es, err
}

func (r *ScheduleRepository) CreateArchived(a *model.ArchivedScheduleEntry) error {
	return r.DB.Create(a).Error
}

func (r *ScheduleRepository) CreateArchivedBatch(as []model.ArchivedScheduleEntry) error {
	if len(as) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(as, 100).Error
}

func (r *ScheduleRepository) Delete(id uint) error {
	return r.DB.Delete(&model.ScheduleEntry{}, id).Error
}

func (r *ScheduleRepository) UpdateCompletion(id uint, allCompleted bool, percent float64) error {
	return r.DB.Model(&model.ScheduleEntry{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"all_assessments_completed": allCompleted,
			"topic_completion_percent":  percent,
		}).Error
}
