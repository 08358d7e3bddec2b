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

// AdminController 学期、假期与后台任务的手动触发入口
type AdminController struct {
	TermRepo     *repository.TermRepository
	TermWeek     *service.TermWeekService
	Orchestrator *service.WeeklyOrchestrator
	Maintenance  *service.MaintenanceService
	Archival     *service.ArchivalService
	Finalizer    *service.Finalizer
	Clock        service.Clock
}

func NewAdminController(
	termRepo *repository.TermRepository,
	termWeek *service.TermWeekService,
	orchestrator *service.WeeklyOrchestrator,
	maintenance *service.MaintenanceService,
	archival *service.ArchivalService,
	finalizer *service.Finalizer,
	clock service.Clock,
) *AdminController {
	return &AdminController{
		TermRepo:     termRepo,
		TermWeek:     termWeek,
		Orchestrator: orchestrator,
		Maintenance:  maintenance,
		Archival:     archival,
		Finalizer:    finalizer,
		Clock:        clock,
	}
}

type createTermRequest struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	WeekCount int    `json:"weekCount"`
	Activate  bool   `json:"activate"`
}

// @Summary 创建学期
// @Tags 管理
// @Accept json
// @Produce json
// @Param body body createTermRequest true "学期信息"
// @Success 201 {object} util.Response
// @Router /api/admin/terms [post]
func (c *AdminController) CreateTerm(ctx *gin.Context) {
	var req createTermRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	start, err := time.Parse(model.DateFormat, req.StartDate)
	if err != nil {
		util.BadRequest(ctx, "invalid startDate")
		return
	}
	end, err := time.Parse(model.DateFormat, req.EndDate)
	if err != nil {
		util.BadRequest(ctx, "invalid endDate")
		return
	}
	if !end.After(start) {
		util.BadRequest(ctx, "endDate must be after startDate")
		return
	}

	term := &model.Term{
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		WeekCount: req.WeekCount,
		IsActive:  req.Activate,
	}
	if term.WeekCount == 0 {
		term.WeekCount = 16
	}
	if err := c.TermRepo.Create(term); err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	if req.Activate {
		if err := c.TermRepo.Deactivate(term.ID); err != nil {
			util.ServerError(ctx, err.Error())
			return
		}
	}
	util.Created(ctx, term)
}

// @Summary 激活学期
// @Tags 管理
// @Produce json
// @Param id path int true "学期ID"
// @Success 200 {object} util.Response
// @Router /api/admin/terms/{id}/activate [put]
func (c *AdminController) ActivateTerm(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid term id")
		return
	}
	term, err := c.TermRepo.FindByID(uint(id))
	if err != nil {
		util.NotFound(ctx, "term not found")
		return
	}
	term.IsActive = true
	if err := c.TermRepo.Save(term); err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	if err := c.TermRepo.Deactivate(term.ID); err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, term)
}

// @Summary 当前激活学期及其所在周次
// @Tags 管理
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/admin/terms/active [get]
func (c *AdminController) ActiveTerm(ctx *gin.Context) {
	term, err := c.TermWeek.ActiveTerm()
	if err != nil {
		if errors.Is(err, util.ErrNoActiveTerm) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.ServerError(ctx, err.Error())
		return
	}
	week, err := c.TermWeek.WeekNumber(term, c.Clock.Now())
	if err != nil {
		// 学期已激活但今天不在学期范围内，只返回学期本身
		util.Success(ctx, gin.H{"term": term})
		return
	}
	util.Success(ctx, gin.H{"term": term, "currentWeek": week})
}

type createHolidayRequest struct {
	Date           string `json:"date" binding:"required"`
	Name           string `json:"name" binding:"required"`
	IsSchoolClosed *bool  `json:"isSchoolClosed"`
	Description    string `json:"description"`
}

// @Summary 录入公共假期
// @Tags 管理
// @Accept json
// @Produce json
// @Param body body createHolidayRequest true "假期信息"
// @Success 201 {object} util.Response
// @Router /api/admin/holidays [post]
func (c *AdminController) CreateHoliday(ctx *gin.Context) {
	var req createHolidayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	date, err := time.Parse(model.DateFormat, req.Date)
	if err != nil {
		util.BadRequest(ctx, "invalid date")
		return
	}
	h := &model.PublicHoliday{
		HolidayDate:    date,
		HolidayName:    req.Name,
		IsSchoolClosed: true,
		Description:    req.Description,
	}
	if req.IsSchoolClosed != nil {
		h.IsSchoolClosed = *req.IsSchoolClosed
	}
	if err := c.TermRepo.CreateHoliday(h); err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Created(ctx, h)
}

// @Summary 手动生成某周课时
// @Tags 管理
// @Produce json
// @Param week path int true "学期周次"
// @Success 200 {object} util.Response
// @Router /api/admin/generation/week/{week} [post]
func (c *AdminController) GenerateWeek(ctx *gin.Context) {
	week, err := strconv.Atoi(ctx.Param("week"))
	if err != nil {
		util.BadRequest(ctx, "invalid week")
		return
	}
	res, err := c.Orchestrator.GenerateWeek(week)
	if err != nil {
		c.generationError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 为单个学生重新生成某周
// @Tags 管理
// @Produce json
// @Param id path int true "学生档案ID"
// @Param week path int true "学期周次"
// @Success 200 {object} util.Response
// @Router /api/admin/generation/student/{id}/week/{week} [post]
func (c *AdminController) RegenerateStudentWeek(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid student id")
		return
	}
	week, err := strconv.Atoi(ctx.Param("week"))
	if err != nil {
		util.BadRequest(ctx, "invalid week")
		return
	}
	res, err := c.Orchestrator.RegenerateStudentWeek(uint(id), week)
	if err != nil {
		c.generationError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 手动触发课表维护
// @Tags 管理
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/admin/maintenance/run [post]
func (c *AdminController) RunMaintenance(ctx *gin.Context) {
	res, err := c.Maintenance.Run()
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, res)
}

// @Summary 手动触发兜底定稿
// @Tags 管理
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/admin/finalizer/run [post]
func (c *AdminController) RunFinalizer(ctx *gin.Context) {
	res, err := c.Finalizer.Run()
	if err != nil {
		util.ServerError(ctx, err.Error())
		return
	}
	util.Success(ctx, res)
}

// @Summary 归档某周个性化课表
// @Tags 管理
// @Produce json
// @Param week path int true "学期周次"
// @Success 200 {object} util.Response
// @Router /api/admin/archive/week/{week} [post]
func (c *AdminController) ArchiveWeek(ctx *gin.Context) {
	week, err := strconv.Atoi(ctx.Param("week"))
	if err != nil {
		util.BadRequest(ctx, "invalid week")
		return
	}
	res, err := c.Archival.ArchiveWeek(week)
	if err != nil {
		c.generationError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

func (c *AdminController) generationError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNoActiveTerm):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidWeekNumber):
		util.BadRequest(ctx, err.Error())
	default:
		util.ServerError(ctx, err.Error())
	}
}
