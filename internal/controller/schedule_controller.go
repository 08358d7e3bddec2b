package controller

import (
	"errors"
	"strconv"
	"time"

	"github.com/forhay123/haybee-edu-sub014/internal/model"
	"github.com/forhay123/haybee-edu-sub014/internal/repository"
	"github.com/forhay123/haybee-edu-sub014/internal/service"
	"github.com/forhay123/haybee-edu-sub014/internal/util"

	"github.com/gin-gonic/gin"
)

// ScheduleController 课表查询、冲突处理与通知
type ScheduleController struct {
	ScheduleRepo     *repository.ScheduleRepository
	NotificationRepo *repository.NotificationRepository
	ConflictRepo     *repository.ConflictRepository
	Conflicts        *service.ConflictService
	TermWeek         *service.TermWeekService
	Clock            service.Clock
}

func NewScheduleController(
	scheduleRepo *repository.ScheduleRepository,
	notificationRepo *repository.NotificationRepository,
	conflictRepo *repository.ConflictRepository,
	conflicts *service.ConflictService,
	termWeek *service.TermWeekService,
	clock service.Clock,
) *ScheduleController {
	return &ScheduleController{
		ScheduleRepo:     scheduleRepo,
		NotificationRepo: notificationRepo,
		ConflictRepo:     conflictRepo,
		Conflicts:        conflicts,
		TermWeek:         termWeek,
		Clock:            clock,
	}
}

// @Summary 学生某天的课表
// @Tags 学生
// @Produce json
// @Param profileId path int true "学生档案ID"
// @Param date query string true "日期 2006-01-02"
// @Success 200 {object} util.Response
// @Router /api/student/{profileId}/schedules [get]
func (c *ScheduleController) StudentDailySchedule(ctx *gin.Context) {
	profileID, err := strconv.ParseUint(ctx.Param("profileId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid profile id")
		return
	}
	date, err := time.Parse(model.DateFormat, ctx.Query("date"))
	if err != nil {
		util.BadRequest(ctx, "invalid date")
		return
	}
	entries, err := c.ScheduleRepo.ListByStudentAndDate(uint(profileID), date)
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, entries)
}

// @Summary 当前学期周次
// @Tags 学生
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/student/current-week [get]
func (c *ScheduleController) CurrentWeek(ctx *gin.Context) {
	term, week, err := c.TermWeek.CurrentWeek(c.Clock.Now())
	if err != nil {
		if errors.Is(err, util.ErrNoActiveTerm) || errors.Is(err, util.ErrInvalidWeekNumber) {
			util.Conflict(ctx, err.Error())
			return
		}
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{
		"termId":     term.ID,
		"termName":   term.Name,
		"weekNumber": week,
	})
}

// @Summary 学生的通知列表
// @Tags 学生
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /api/student/notifications/{userId} [get]
func (c *ScheduleController) StudentNotifications(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("userId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}
	ns, err := c.NotificationRepo.ListByRecipient(uint(userID), 50)
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, ns)
}

// @Summary 缺少课程主题的课时
// @Tags 教师
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/teacher/schedules/missing-topic [get]
func (c *ScheduleController) MissingTopicSchedules(ctx *gin.Context) {
	entries, err := c.ScheduleRepo.ListMissingTopic()
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, entries)
}

// @Summary 未处理的课时冲突
// @Tags 教师
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/teacher/conflicts [get]
func (c *ScheduleController) UnresolvedConflicts(ctx *gin.Context) {
	cs, err := c.ConflictRepo.ListUnresolved()
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, cs)
}

type resolveConflictRequest struct {
	Action     string `json:"action" binding:"required"`
	NewStart   string `json:"newStart"`
	NewEnd     string `json:"newEnd"`
	ResolvedBy uint   `json:"resolvedBy" binding:"required"`
}

// @Summary 处置课时冲突
// @Tags 教师
// @Accept json
// @Produce json
// @Param id path int true "冲突ID"
// @Param body body resolveConflictRequest true "处置动作 KEEP_FIRST/KEEP_SECOND/EDIT_TIME"
// @Success 200 {object} util.Response
// @Router /api/teacher/conflicts/{id}/resolve [post]
func (c *ScheduleController) ResolveConflict(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid conflict id")
		return
	}
	var req resolveConflictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	err = c.Conflicts.Resolve(uint(id), model.ConflictAction(req.Action), req.NewStart, req.NewEnd, req.ResolvedBy)
	switch {
	case err == nil:
		util.Success(ctx, gin.H{"resolved": true})
	case errors.Is(err, util.ErrConflictAlreadyResolved):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrConflictUnresolved):
		util.BadRequest(ctx, "unknown action")
	default:
		util.ServerError(ctx, err.Error())
	}
}
