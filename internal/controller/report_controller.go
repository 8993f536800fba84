package controller

import (
	"errors"
	"strconv"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	ReportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// TaskReport godoc
// @Summary 任务报表
// @Description 每个被指派用户的整体进度、累计时长与最优测验成绩
// @Tags 报表
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response{data=model.TaskReport}
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/reports/tasks/{id} [get]
func (c *ReportController) TaskReport(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	report, err := c.ReportService.TaskReport(id)
	if err != nil {
		if errors.Is(err, util.ErrTaskNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, report)
}

// UserReport godoc
// @Summary 用户报表
// @Tags 报表
// @Produce  json
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.UserReport}
// @Failure 404 {object} util.Response "用户不存在"
// @Security ApiKeyAuth
// @Router /api/admin/reports/users/{id} [get]
func (c *ReportController) UserReport(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	report, err := c.ReportService.UserReport(uint(id))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, report)
}

// Overview godoc
// @Summary 平台总览
// @Tags 报表
// @Produce  json
// @Success 200 {object} util.Response{data=model.PlatformOverview}
// @Security ApiKeyAuth
// @Router /api/admin/reports/overview [get]
func (c *ReportController) Overview(ctx *gin.Context) {
	report, err := c.ReportService.Overview()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, report)
}
