package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FileController struct {
	StorageService *service.StorageService
}

func NewFileController(storageService *service.StorageService) *FileController {
	return &FileController{StorageService: storageService}
}

type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// CreateUploadURL godoc
// @Summary 签发上传地址
// @Description 生成全新对象键和时限签名PUT地址，文件字节不经过本服务。
// @Description 上传完成后调用文件登记接口关联到任务
// @Tags 文件
// @Accept  json
// @Produce  json
// @Param   body body UploadURLRequest true "文件名与类型"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "请求参数错误"
// @Security ApiKeyAuth
// @Router /api/admin/files/upload-url [post]
func (c *FileController) CreateUploadURL(ctx *gin.Context) {
	var req UploadURLRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	key := c.StorageService.NewObjectKey(req.Filename)
	url, err := c.StorageService.UploadURL(ctx.Request.Context(), key, req.ContentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"objectKey": key,
		"uploadUrl": url,
	})
}
