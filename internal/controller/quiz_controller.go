package controller

import (
	"errors"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

func mapQuizError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrTaskNotFound), errors.Is(err, util.ErrTaskHasNoQuiz):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrTaskNotPublished):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// Questions godoc
// @Summary 测验题目
// @Description 已发布任务的题目列表，不含正确答案
// @Tags 测验
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response{data=[]model.QuizQuestion}
// @Failure 403 {object} util.Response "任务未发布"
// @Failure 404 {object} util.Response "任务不存在"
// @Security ApiKeyAuth
// @Router /api/tasks/{id}/quiz [get]
func (c *QuizController) Questions(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	questions, err := c.QuizService.Questions(id)
	if err != nil {
		mapQuizError(ctx, err)
		return
	}

	util.Success(ctx, questions)
}

// Submit godoc
// @Summary 提交测验答案
// @Description 评分并落一条不可变提交记录，重考不限次数
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param   body body service.QuizSubmissionRequest true "完整作答"
// @Success 200 {object} util.Response{data=service.QuizScoreResult}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "任务未发布"
// @Failure 404 {object} util.Response "任务不存在或没有测验"
// @Security ApiKeyAuth
// @Router /api/quiz/submissions [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	var req service.QuizSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)

	result, err := c.QuizService.Submit(claims.UserID, &req)
	if err != nil {
		mapQuizError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// MySubmissions godoc
// @Summary 我的测验提交
// @Tags 测验
// @Produce  json
// @Param   id path int true "任务ID"
// @Success 200 {object} util.Response{data=[]model.QuizSubmission}
// @Security ApiKeyAuth
// @Router /api/tasks/{id}/quiz/submissions [get]
func (c *QuizController) MySubmissions(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)

	subs, err := c.QuizService.Submissions(id, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, subs)
}
