package controller

import (
	"errors"
	"strconv"

	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TaskController struct {
	TaskService *service.TaskService
}

func NewTaskController(taskService *service.TaskService) *TaskController {
	return &TaskController{TaskService: taskService}
}

func taskID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid task id")
		return 0, false
	}
	return uint(id), true
}

// mapTaskError 按错误分类映射状态码：不存在404，未发布403
func mapTaskError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrTaskNotFound), errors.Is(err, util.ErrFileNotFound), errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrTaskNotPublished), errors.Is(err, util.ErrNotAssigned):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidTransition), errors.Is(err, util.ErrInvalidAnswerIndex):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

type CreateTaskRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	PassingScore int    `json:"passingScore" binding:"omitempty,min=0,max=100"`
}

// CreateTask godoc
// @Summary 创建任务
// @Description 新任务总是草稿状态，发布前不接受进度上报
// @Tags 任务管理
// @Accept  json
// @Produce  json
// @Param   body body CreateTaskRequest true "任务信息"
// @Success 201 {object} util.Response{data=model.Task}
// @Failure 400 {object} util.Response "请求参数错误"
// @Security ApiKeyAuth
// @Router /api/admin/tasks [post]
func (c *TaskController) CreateTask(ctx *gin.Context) {
	var req CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)

	task := &model.Task{
		Title:       req.Title,
		Description: req.Description,
		CreatedByID: claims.UserID,
	}
	if req.PassingScore > 0 {
		task.PassingScore = req.PassingScore
	}

	if err := c.TaskService.Create(task); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, task)
}

// ListTasks godoc
// @Summary 任务列表（管理端）
// @Tags 任务管理
// @Produce  json
// @Param   status query string false "按状态过滤 draft/published/archived"
// @Param   page   query int    false "页码"
// @Param   limit  query int    false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security ApiKeyAuth
// @Router /api/admin/tasks [get]
func (c *TaskController) ListTasks(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	tasks, total, err := c.TaskService.List(model.TaskStatus(ctx.Query("status")), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: tasks, Total: total, Page: page, Limit: limit})
}

// GetTask godoc
// @Summary 任务详情
// @Tags 任务管理
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response{data=model.Task}
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id} [get]
func (c *TaskController) GetTask(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	task, err := c.TaskService.Get(id)
	if err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, task)
}

type UpdateTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	PassingScore *int   `json:"passingScore" binding:"omitempty,min=0,max=100"`
}

// UpdateTask godoc
// @Summary 更新任务
// @Tags 任务管理
// @Accept  json
// @Produce  json
// @Param   id   path int true "任务ID"
// @Param   body body UpdateTaskRequest true "更新字段"
// @Success 200 {object} util.Response{data=model.Task}
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id} [put]
func (c *TaskController) UpdateTask(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.TaskService.Update(id, req.Title, req.Description, req.PassingScore)
	if err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, task)
}

// PublishTask godoc
// @Summary 发布任务
// @Tags 任务管理
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "状态不允许发布"
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/publish [post]
func (c *TaskController) PublishTask(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	if err := c.TaskService.Publish(id); err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// ArchiveTask godoc
// @Summary 归档任务
// @Tags 任务管理
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "状态不允许归档"
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/archive [post]
func (c *TaskController) ArchiveTask(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	if err := c.TaskService.Archive(id); err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// DeleteTask godoc
// @Summary 删除任务
// @Description 级联删除任务的文件、指派、题目和进度记录
// @Tags 任务管理
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id} [delete]
func (c *TaskController) DeleteTask(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	if err := c.TaskService.Delete(id); err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

type AssignRequest struct {
	UserIDs []uint `json:"userIds" binding:"required,min=1"`
}

// AssignTask godoc
// @Summary 指派任务
// @Tags 任务管理
// @Accept  json
// @Produce  json
// @Param   id   path int true "任务ID"
// @Param   body body AssignRequest true "用户ID列表"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "任务或用户不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/assignments [post]
func (c *TaskController) AssignTask(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	var req AssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if err := c.TaskService.Assign(id, req.UserIDs, claims.UserID); err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// UnassignTask godoc
// @Summary 取消指派
// @Tags 任务管理
// @Produce  json
// @Param   id     path int true "任务ID"
// @Param   userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/assignments/{userId} [delete]
func (c *TaskController) UnassignTask(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(ctx.Param("userId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	if err := c.TaskService.Unassign(id, uint(userID)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// RegisterFile godoc
// @Summary 登记任务文件
// @Description 客户端先通过签名URL直传对象存储，再调用本接口登记元数据
// @Tags 任务管理
// @Accept  json
// @Produce  json
// @Param   id   path int true "任务ID"
// @Param   body body service.RegisterFileRequest true "文件元数据"
// @Success 201 {object} util.Response{data=model.TaskFile}
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/files [post]
func (c *TaskController) RegisterFile(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	var req service.RegisterFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	file, err := c.TaskService.RegisterFile(id, &req)
	if err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Created(ctx, file)
}

// RemoveFile godoc
// @Summary 删除任务文件
// @Tags 任务管理
// @Produce  json
// @Param   id     path string true "任务ID"
// @Param   fileId path string true "文件ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "文件不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/files/{fileId} [delete]
func (c *TaskController) RemoveFile(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	if err := c.TaskService.RemoveFile(id, ctx.Param("fileId")); err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// AddQuestion godoc
// @Summary 添加测验题
// @Tags 任务管理
// @Accept  json
// @Produce  json
// @Param   id   path int true "任务ID"
// @Param   body body service.AddQuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.QuizQuestion}
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/questions [post]
func (c *TaskController) AddQuestion(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	var req service.AddQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.TaskService.AddQuestion(id, &req)
	if err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Created(ctx, q)
}

// RemoveQuestion godoc
// @Summary 删除测验题
// @Tags 任务管理
// @Produce  json
// @Param   id         path int true "任务ID"
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/admin/tasks/{id}/questions/{questionId} [delete]
func (c *TaskController) RemoveQuestion(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	questionID, err := strconv.ParseUint(ctx.Param("questionId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.TaskService.RemoveQuestion(id, uint(questionID)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// MyTasks godoc
// @Summary 我的任务
// @Description 当前用户被指派且已发布的任务
// @Tags 学习
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Task}
// @Security ApiKeyAuth
// @Router /api/tasks [get]
func (c *TaskController) MyTasks(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	tasks, err := c.TaskService.ListAssigned(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, tasks)
}

// FileDownloadURL godoc
// @Summary 文件下载地址
// @Description 签发时限签名URL，客户端直连对象存储取内容
// @Tags 学习
// @Produce  json
// @Param   id     path string true "任务ID"
// @Param   fileId path string true "文件ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.Response "任务未发布或未指派"
// @Failure 404 {object} util.Response "文件不存在"
// @Security ApiKeyAuth
// @Router /api/tasks/{id}/files/{fileId}/download-url [get]
func (c *TaskController) FileDownloadURL(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	url, err := c.TaskService.FileDownloadURL(ctx.Request.Context(), claims.UserID, id, ctx.Param("fileId"))
	if err != nil {
		mapTaskError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}
