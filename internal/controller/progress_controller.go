package controller

import (
	"errors"

	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// Report godoc
// @Summary 上报学习进度
// @Description 把一次翻页/播放/心跳事件合并进 (用户, 文件) 的进度记录。
// @Description 重复上报不会产生重复记录；有效时长只增不减；完成时间一经置位不再清除
// @Tags 学习
// @Accept  json
// @Produce  json
// @Param   body body service.ProgressReportRequest true "进度事件"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未登录"
// @Failure 403 {object} util.Response "任务未发布"
// @Failure 404 {object} util.Response "任务或文件不存在"
// @Security ApiKeyAuth
// @Router /api/progress [post]
func (c *ProgressController) Report(ctx *gin.Context) {
	var req service.ProgressReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)

	result, err := c.ProgressService.Report(claims.UserID, &req)
	if err != nil {
		monitoring.ProgressReports.WithLabelValues(string(req.Action), "rejected").Inc()
		switch {
		case errors.Is(err, util.ErrInvalidAction):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrTaskNotFound), errors.Is(err, util.ErrFileNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrTaskNotPublished):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.ProgressReports.WithLabelValues(string(req.Action), "merged").Inc()
	util.Success(ctx, result)
}

// TaskProgress godoc
// @Summary 我的任务进度
// @Description 当前用户在某任务下每个文件的进度记录
// @Tags 学习
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response{data=[]model.FileProgress}
// @Security ApiKeyAuth
// @Router /api/tasks/{id}/progress [get]
func (c *ProgressController) TaskProgress(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)

	records, err := c.ProgressService.ListForTask(claims.UserID, id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, records)
}
