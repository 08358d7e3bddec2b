package repository

import (
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Create(p *model.ProgressRecord) error {
	return r.DB.Create(p).Error
}

func (r *ProgressRepository) CreateBatch(ps []model.ProgressRecord) error {
	if len(ps) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(ps, 100).Error
}

func (r *ProgressRepository) Save(p *model.ProgressRecord) error {
	return r.DB.Save(p).Error
}

func (r *ProgressRepository) FindByID(id uint) (*model.ProgressRecord, error) {
	var p model.ProgressRecord
	err := r.DB.First(&p, id).Error
	return &p, err
}

func (r *ProgressRepository) FindByIDs(ids []uint) ([]model.ProgressRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ps []model.ProgressRecord
	err := r.DB.Where("id IN ?", ids).Find(&ps).Error
	return ps, err
}

// FindBySlot 唯一槽位查询，学生+主题+日期+节次
func (r *ProgressRepository) FindBySlot(studentProfileID uint, topicID *uint, date time.Time, period int) (*model.ProgressRecord, error) {
	var p model.ProgressRecord
	q := r.DB.Where("student_profile_id = ? AND scheduled_date = ? AND period_number = ?",
		studentProfileID, model.DateOnly(date), period)
	if topicID != nil {
		q = q.Where("lesson_topic_id = ?", *topicID)
	} else {
		q = q.Where("lesson_topic_id IS NULL")
	}
	err := q.First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) ListByStudentAndDate(studentProfileID uint, date time.Time) ([]model.ProgressRecord, error) {
	var ps []model.ProgressRecord
	err := r.DB.Where("student_profile_id = ? AND scheduled_date = ?", studentProfileID, model.DateOnly(date)).
		Order("period_number asc").Find(&ps).Error
	return ps, err
}

func (r *ProgressRepository) ListByStudentBetween(studentProfileID uint, from, to time.Time) ([]model.ProgressRecord, error) {
	var ps []model.ProgressRecord
	err := r.DB.Where("student_profile_id = ? AND scheduled_date >= ? AND scheduled_date <= ?",
		studentProfileID, model.DateOnly(from), model.DateOnly(to)).
		Order("scheduled_date asc, period_number asc").Find(&ps).Error
	return ps, err
}

// ListOpenCandidates 开窗任务的候选集
// 未开放、窗口已到、日期在前后一天以内、未完成、未被标记、且窗口还没整个过期
func (r *ProgressRepository) ListOpenCandidates(now time.Time) ([]model.ProgressRecord, error) {
	day := model.DateOnly(now)
	var ps []model.ProgressRecord
	err := r.DB.
		Where("assessment_accessible = ?", false).
		Where("completed = ?", false).
		Where("incomplete_reason = ?", "").
		Where("window_start IS NOT NULL AND window_start <= ?", now).
		Where("window_end IS NOT NULL AND window_end >= ?", now).
		Where("scheduled_date >= ? AND scheduled_date <= ?", day.AddDate(0, 0, -1), day.AddDate(0, 0, 1)).
		Find(&ps).Error
	return ps, err
}

// ListExpiredCandidates 宽限期已过且尚未处理的记录
// 不看 assessment_accessible，从未开放过的记录同样要标缺考
func (r *ProgressRepository) ListExpiredCandidates(now time.Time) ([]model.ProgressRecord, error) {
	var ps []model.ProgressRecord
	err := r.DB.
		Where("completed = ?", false).
		Where("incomplete_reason = ?", "").
		Where("submission_id IS NULL").
		Where("grace_deadline IS NOT NULL AND grace_deadline < ?", now).
		Find(&ps).Error
	return ps, err
}

// ListFinalizeCandidates 兜底定稿候选集，宽限截止落在回看区间内且尚无提交
// 必须用 grace_deadline 而不是 window_end，宽限期内的记录还允许迟交
func (r *ProgressRepository) ListFinalizeCandidates(since, until time.Time) ([]model.ProgressRecord, error) {
	var ps []model.ProgressRecord
	err := r.DB.
		Where("completed = ?", false).
		Where("submission_id IS NULL").
		Where("grace_deadline IS NOT NULL AND grace_deadline >= ? AND grace_deadline < ?", since, until).
		Find(&ps).Error
	return ps, err
}

// ListPreWindowSubmitted 提交时间早于窗口开放时间的可疑记录，作废巡检用
func (r *ProgressRepository) ListPreWindowSubmitted() ([]model.ProgressRecord, error) {
	var ps []model.ProgressRecord
	err := r.DB.
		Joins("JOIN assessment_submissions ON assessment_submissions.id = lesson_progress.submission_id").
		Where("assessment_submissions.nullified = ?", false).
		Where("lesson_progress.window_start IS NOT NULL").
		Where("assessment_submissions.submitted_at < lesson_progress.window_start").
		Find(&ps).Error
	return ps, err
}

func (r *ProgressRepository) ListBySchedule(scheduleID uint) ([]model.ProgressRecord, error) {
	var ps []model.ProgressRecord
	err := r.DB.Where("schedule_id = ?", scheduleID).Find(&ps).Error
	return ps, err
}

// DeleteForStudentWeek 重新生成时清掉无提交的旧记录，有提交的保留
func (r *ProgressRepository) DeleteForStudentWeek(studentProfileID uint, from, to time.Time) error {
	return r.DB.Where("student_profile_id = ? AND scheduled_date >= ? AND scheduled_date <= ? AND submission_id IS NULL",
		studentProfileID, model.DateOnly(from), model.DateOnly(to)).
		Delete(&model.ProgressRecord{}).Error
}

// ListPendingCustom 等待教师手工组卷的进度记录
// topicID 传 0 表示不按主题过滤
func (r *ProgressRepository) ListPendingCustom(topicID uint) ([]model.ProgressRecord, error) {
	q := r.DB.Where("requires_custom_assessment = ? AND assessment_id IS NULL", true)
	if topicID != 0 {
		q = q.Where("lesson_topic_id = ?", topicID)
	}
	var ps []model.ProgressRecord
	err := q.Order("scheduled_date asc, period_number asc").Find(&ps).Error
	return ps, err
}

// ListForArchive 某周可归档的进度，带提交的跳过
func (r *ProgressRepository) ListForArchive(studentProfileID uint, from, to time.Time) ([]model.ProgressRecord, error) {
	var ps []model.ProgressRecord
	err := r.DB.Where("student_profile_id = ? AND scheduled_date >= ? AND scheduled_date <= ?",
		studentProfileID, model.DateOnly(from), model.DateOnly(to)).Find(&ps).Error
	return ps, err
}

func (r *ProgressRepository) CreateArchived(a *model.ArchivedProgressRecord) error {
	return r.DB.Create(a).Error
}

func (r *ProgressRepository) CreateArchivedBatch(as []model.ArchivedProgressRecord) error {
	if len(as) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(as, 100).Error
}

func (r *ProgressRepository) Delete(id uint) error {
	return r.DB.Delete(&model.ProgressRecord{}, id).Error
}

func (r *ProgressRepository) CreateReschedule(w *model.WindowReschedule) error {
	return r.DB.Create(w).Error
}

func (r *ProgressRepository) ListReschedules(progressID uint) ([]model.WindowReschedule, error) {
	var ws []model.WindowReschedule
	err := r.DB.Where("progress_id = ?", progressID).Order("created_at asc").Find(&ws).Error
	return ws, err
}

// LatestReschedule 最近一次改期，nil 表示从未改过
func (r *ProgressRepository) LatestReschedule(progressID uint) (*model.WindowReschedule, error) {
	var w model.WindowReschedule
	err := r.DB.Where("progress_id = ?", progressID).Order("created_at desc").First(&w).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
