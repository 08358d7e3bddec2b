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

// AssessmentController 进度查询、作答提交与窗口改期
type AssessmentController struct {
	ProgressRepo *repository.ProgressRepository
	StudentRepo  *repository.StudentRepository
	Submissions  *service.SubmissionService
	Init         *service.ProgressInitializer
	Builder      *service.AssessmentBuilder
	Notifier     *service.NotificationService
	Clock        service.Clock
}

func NewAssessmentController(
	progressRepo *repository.ProgressRepository,
	studentRepo *repository.StudentRepository,
	submissions *service.SubmissionService,
	init *service.ProgressInitializer,
	builder *service.AssessmentBuilder,
	notifier *service.NotificationService,
	clock service.Clock,
) *AssessmentController {
	return &AssessmentController{
		ProgressRepo: progressRepo,
		StudentRepo:  studentRepo,
		Submissions:  submissions,
		Init:         init,
		Builder:      builder,
		Notifier:     notifier,
		Clock:        clock,
	}
}

// @Summary 学生某段时间的进度记录
// @Tags 学生
// @Produce json
// @Param profileId path int true "学生档案ID"
// @Param from query string true "起始日期"
// @Param to query string true "结束日期"
// @Success 200 {object} util.Response
// @Router /api/student/{profileId}/progress [get]
func (c *AssessmentController) StudentProgress(ctx *gin.Context) {
	profileID, err := strconv.ParseUint(ctx.Param("profileId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid profile id")
		return
	}
	from, err := time.Parse(model.DateFormat, ctx.Query("from"))
	if err != nil {
		util.BadRequest(ctx, "invalid from date")
		return
	}
	to, err := time.Parse(model.DateFormat, ctx.Query("to"))
	if err != nil {
		util.BadRequest(ctx, "invalid to date")
		return
	}
	records, err := c.ProgressRepo.ListByStudentBetween(uint(profileID), from, to)
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, records)
}

type submitRequest struct {
	Answers []service.AnswerInput `json:"answers" binding:"required"`
}

// @Summary 提交作答
// @Tags 学生
// @Accept json
// @Produce json
// @Param id path int true "进度记录ID"
// @Param body body submitRequest true "作答"
// @Success 201 {object} util.Response
// @Router /api/student/progress/{id}/submit [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid progress id")
		return
	}
	var req submitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sub, err := c.Submissions.Submit(uint(id), req.Answers)
	switch {
	case err == nil:
		util.Created(ctx, sub)
	case errors.Is(err, util.ErrProgressNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrAssessmentNotAccessible),
		errors.Is(err, util.ErrAssessmentWindowClosed),
		errors.Is(err, util.ErrPreviousPeriodIncomplete):
		util.Error(ctx, 403, err.Error())
	case errors.Is(err, util.ErrSubmissionExists):
		util.Conflict(ctx, err.Error())
	default:
		util.ServerError(ctx, err.Error())
	}
}

type rescheduleRequest struct {
	NewStart    string `json:"newStart" binding:"required"`
	NewEnd      string `json:"newEnd" binding:"required"`
	Reason      string `json:"reason"`
	RequestedBy uint   `json:"requestedBy" binding:"required"`
}

// @Summary 改期评估窗口
// @Tags 教师
// @Accept json
// @Produce json
// @Param id path int true "进度记录ID"
// @Param body body rescheduleRequest true "新窗口"
// @Success 200 {object} util.Response
// @Router /api/teacher/progress/{id}/reschedule [post]
func (c *AssessmentController) Reschedule(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid progress id")
		return
	}
	var req rescheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	newStart, err := time.Parse(model.DateTimeFormat, req.NewStart)
	if err != nil {
		util.BadRequest(ctx, "invalid newStart")
		return
	}
	newEnd, err := time.Parse(model.DateTimeFormat, req.NewEnd)
	if err != nil {
		util.BadRequest(ctx, "invalid newEnd")
		return
	}
	if !newEnd.After(newStart) {
		util.BadRequest(ctx, "newEnd must be after newStart")
		return
	}
	p, err := c.Init.RescheduleWindow(uint(id), newStart, newEnd, req.Reason, req.RequestedBy)
	if err != nil {
		var ill *model.IllegalTransitionError
		switch {
		case errors.Is(err, util.ErrProgressNotFound):
			util.NotFound(ctx, err.Error())
		case errors.As(err, &ill):
			util.Conflict(ctx, err.Error())
		default:
			util.ServerError(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, p)
}

// @Summary 等待教师手工组卷的进度记录
// @Tags 教师
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/teacher/assessments/pending [get]
func (c *AssessmentController) PendingCustomAssessments(ctx *gin.Context) {
	pending, err := c.ProgressRepo.ListPendingCustom(0)
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, pending)
}

type accessCheckResponse struct {
	Accessible     bool   `json:"accessible"`
	BlockingReason string `json:"blockingReason,omitempty"`
}

// @Summary 查询某条进度记录当前能否作答
// @Tags 学生
// @Produce json
// @Param id path int true "进度记录ID"
// @Success 200 {object} util.Response
// @Router /api/student/progress/{id}/access [get]
func (c *AssessmentController) AccessCheck(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid progress id")
		return
	}
	p, err := c.ProgressRepo.FindByID(uint(id))
	if err != nil {
		util.NotFound(ctx, "progress record not found")
		return
	}

	resp := accessCheckResponse{Accessible: p.AssessmentAccessible}
	if p.PreviousPeriodID != nil {
		prev, err := c.ProgressRepo.FindByID(*p.PreviousPeriodID)
		if err == nil && !prev.Completed {
			resp.Accessible = false
			resp.BlockingReason = util.BlockingReasonPreviousPeriod
		}
	}
	util.Success(ctx, resp)
}

type customAssessmentRequest struct {
	TopicID       uint   `json:"topicId" binding:"required"`
	TeacherUserID uint   `json:"teacherUserId" binding:"required"`
	Title         string `json:"title" binding:"required"`
	QuestionIDs   []uint `json:"questionIds" binding:"required"`
}

// @Summary 教师手工创建评估
// @Tags 教师
// @Accept json
// @Produce json
// @Param body body customAssessmentRequest true "评估内容"
// @Success 201 {object} util.Response
// @Router /api/teacher/assessments/custom [post]
func (c *AssessmentController) CreateCustomAssessment(ctx *gin.Context) {
	var req customAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	a, err := c.Builder.CreateCustom(req.TopicID, req.TeacherUserID, req.Title, req.QuestionIDs, c.Clock.Now())
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	c.backfillPending(a, req.TopicID)
	util.Created(ctx, a)
}

// backfillPending 把等着手工评估的进度记录挂上新评估并通知学生
func (c *AssessmentController) backfillPending(a *model.Assessment, topicID uint) {
	pending, err := c.ProgressRepo.ListPendingCustom(topicID)
	if err != nil {
		return
	}
	now := c.Clock.Now()
	for i := range pending {
		p := &pending[i]
		p.AssessmentID = &a.ID
		p.RequiresCustomAssessment = false
		p.CustomAssessmentCreatedAt = &now
		p.CustomAssessmentCreator = a.CreatedByUser
		if err := c.ProgressRepo.Save(p); err != nil {
			continue
		}
		if st, err := c.StudentRepo.FindByID(p.StudentProfileID); err == nil {
			c.Notifier.CustomAssessmentCreated(st.UserID, st.ID, p.ID, a.Title)
		}
	}
}
