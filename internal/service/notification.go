package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NotificationChannel 通知事件发布的 Redis 频道
const NotificationChannel = "notifications"

// NotificationService 通知先落库再发布，Redis 不可用时只落库
type NotificationService struct {
	Repo  *repository.NotificationRepository
	Redis *redis.Client
}

func NewNotificationService(repo *repository.NotificationRepository, rdb *redis.Client) *NotificationService {
	return &NotificationService{Repo: repo, Redis: rdb}
}

func (s *NotificationService) emit(n *model.NotificationEvent) {
	if err := s.Repo.Create(n); err != nil {
		logger.Log.Error("notification persist failed",
			zap.String("kind", string(n.Kind)),
			zap.Uint("recipient", n.RecipientUserID),
			zap.Error(err))
		return
	}
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Redis.Publish(ctx, NotificationChannel, payload).Err(); err != nil {
		logger.Log.Warn("notification publish failed", zap.Error(err))
		return
	}
	if err := s.Repo.MarkDelivered(n.ID); err != nil {
		logger.Log.Warn("notification delivery mark failed", zap.Uint("id", n.ID), zap.Error(err))
	}
}

// AssessmentAvailable 评估窗口开启
func (s *NotificationService) AssessmentAvailable(studentUserID, studentProfileID, progressID uint, title string) {
	s.emit(&model.NotificationEvent{
		Kind:             model.NotifyAssessmentAvailable,
		RecipientUserID:  studentUserID,
		StudentProfileID: &studentProfileID,
		ProgressID:       &progressID,
		Title:            "评估已开放",
		Body:             fmt.Sprintf("「%s」现在可以作答", title),
	})
}

// AssessmentExpired 宽限期过期
func (s *NotificationService) AssessmentExpired(studentUserID, studentProfileID, progressID uint, title string) {
	s.emit(&model.NotificationEvent{
		Kind:             model.NotifyAssessmentExpired,
		RecipientUserID:  studentUserID,
		StudentProfileID: &studentProfileID,
		ProgressID:       &progressID,
		Title:            "评估已过期",
		Body:             fmt.Sprintf("「%s」的作答窗口已关闭", title),
		Urgency:          model.UrgencyHigh,
	})
}

// CustomAssessmentNeeded 题库不足，需要教师手工组卷
func (s *NotificationService) CustomAssessmentNeeded(teacherUserID, studentProfileID, subjectID, topicID uint) {
	s.emit(&model.NotificationEvent{
		Kind:             model.NotifyCustomAssessmentNeed,
		RecipientUserID:  teacherUserID,
		StudentProfileID: &studentProfileID,
		SubjectID:        &subjectID,
		Title:            "需要手工创建评估",
		Body:             fmt.Sprintf("主题 %d 的题库题量不足，请手工创建评估", topicID),
		Urgency:          model.UrgencyHigh,
	})
}

// CustomAssessmentCreated 教师手工评估已创建
func (s *NotificationService) CustomAssessmentCreated(studentUserID, studentProfileID uint, progressID uint, title string) {
	s.emit(&model.NotificationEvent{
		Kind:             model.NotifyCustomAssessmentMade,
		RecipientUserID:  studentUserID,
		StudentProfileID: &studentProfileID,
		ProgressID:       &progressID,
		Title:            "评估已创建",
		Body:             fmt.Sprintf("「%s」的评估已由教师创建", title),
	})
}

// MissingTopic 排课缺少课程主题
func (s *NotificationService) MissingTopic(teacherUserID, scheduleID, subjectID uint) {
	s.emit(&model.NotificationEvent{
		Kind:            model.NotifyMissingTopic,
		RecipientUserID: teacherUserID,
		ScheduleID:      &scheduleID,
		SubjectID:       &subjectID,
		Title:           "课时缺少课程主题",
		Body:            fmt.Sprintf("课时 %d 没有关联课程主题，请补充", scheduleID),
	})
}
