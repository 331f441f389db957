package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ccode104/Lab-Assistant/api/middleware"
	"github.com/Ccode104/Lab-Assistant/api/model"
	"github.com/Ccode104/Lab-Assistant/internal/document"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/services"
	"github.com/Ccode104/Lab-Assistant/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SubmissionHandler 处理实验提交相关的API请求
type SubmissionHandler struct {
	submissionService *services.SubmissionService // 提交服务
	fileStorage       storage.Storage             // 文件存储服务
	logger            *logrus.Logger              // 日志记录器
}

// NewSubmissionHandler 创建新的提交处理器
func NewSubmissionHandler(submissionService *services.SubmissionService, fileStorage storage.Storage) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		fileStorage:       fileStorage,
		logger:            middleware.GetLogger(),
	}
}

// UploadSubmission 处理实验代码上传请求
// POST /api/submissions/upload
func (h *SubmissionHandler) UploadSubmission(c *gin.Context) {
	// 绑定请求参数
	var req model.SubmissionUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid submission upload request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	// 检查文件
	if req.File == nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"未提供文件",
		))
		return
	}

	// 检查文件类型
	filename := req.File.Filename
	if document.DetectContentType(filename) == document.Unknown {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"不支持的文件类型，请上传源代码、文本、Markdown或PDF文件",
		))
		return
	}

	// 打开上传的文件
	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to open uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"无法打开上传的文件",
		))
		return
	}
	defer file.Close()

	// 保存文件到存储
	fileInfo, err := h.fileStorage.Save(file, filename)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to save file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"保存文件失败",
		))
		return
	}

	// 记录文件上传信息
	h.logger.WithFields(logrus.Fields{
		"submission_id": fileInfo.ID,
		"filename":      fileInfo.Name,
		"path":          fileInfo.Path,
		"size":          fileInfo.Size,
		"student_id":    req.StudentID,
	}).Info("Submission uploaded successfully")

	// 创建提交记录
	statusManager := h.submissionService.GetStatusManager()
	if statusManager == nil {
		if err := h.submissionService.Init(); err != nil {
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"提交服务未初始化",
			))
			return
		}
		statusManager = h.submissionService.GetStatusManager()
	}

	sub := &models.Submission{
		ID:          fileInfo.ID,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		LabName:     req.LabName,
		FileName:    filename,
		FileType:    strings.TrimPrefix(filepath.Ext(filename), "."),
		FilePath:    fileInfo.Path,
		FileSize:    fileInfo.Size,
		Language:    req.Language,
		Tags:        req.Tags,
	}
	if err := statusManager.MarkAsUploaded(c.Request.Context(), sub); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":         err.Error(),
			"submission_id": fileInfo.ID,
		}).Error("Failed to create submission record")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"创建提交记录失败",
		))
		return
	}

	// 启动处理流程
	if h.submissionService.IsAsyncEnabled() {
		// 异步模式：加入任务队列后立即返回
		var opts []services.AsyncOption
		if req.MaxLines > 0 {
			opts = append(opts, services.WithMaxBlockLines(req.MaxLines))
		}
		if req.BlockCount > 0 {
			opts = append(opts, services.WithBlockCount(req.BlockCount))
		}
		if req.PerBlock > 0 {
			opts = append(opts, services.WithQuestionsPerBlock(req.PerBlock))
		}

		if err := h.submissionService.ProcessSubmissionAsync(c.Request.Context(), fileInfo.ID, fileInfo.Path, opts...); err != nil {
			h.logger.WithFields(logrus.Fields{
				"error":         err.Error(),
				"submission_id": fileInfo.ID,
			}).Error("Failed to enqueue submission processing")

			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"提交处理任务入队失败",
			))
			return
		}
	} else {
		// 同步模式：后台处理，通过状态接口跟踪进度
		go func() {
			h.logger.WithField("submission_id", fileInfo.ID).Info("Starting submission processing")
			ctx := context.Background()

			if err := h.submissionService.ProcessSubmission(ctx, fileInfo.ID, fileInfo.Path); err != nil {
				h.logger.WithFields(logrus.Fields{
					"error":         err.Error(),
					"submission_id": fileInfo.ID,
				}).Error("Failed to process submission")
			} else {
				h.logger.WithField("submission_id", fileInfo.ID).Info("Submission processed successfully")
			}
		}()
	}

	// 返回提交ID和状态
	resp := model.SubmissionUploadResponse{
		SubmissionID: fileInfo.ID,
		FileName:     filename,
		Status:       "processing", // 初始状态为处理中
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetSubmissionStatus 获取提交处理状态
// GET /api/submissions/:id/status
func (h *SubmissionHandler) GetSubmissionStatus(c *gin.Context) {
	// 绑定路径参数
	var req model.SubmissionStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的提交ID"))
		return
	}

	// 获取提交信息
	info, err := h.submissionService.GetSubmissionInfo(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":         err.Error(),
			"submission_id": req.ID,
		}).Error("Failed to get submission info")

		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到提交或获取信息失败"))
		return
	}

	// 构建响应，状态信息按存在的字段逐项填充
	resp := model.SubmissionStatusResponse{
		SubmissionID: req.ID,
	}
	if v, ok := info["status"].(models.SubmissionStatus); ok {
		resp.Status = string(v)
	}
	if v, ok := info["filename"].(string); ok {
		resp.FileName = v
	}
	if v, ok := info["progress"].(int); ok {
		resp.Progress = v
	}
	if v, ok := info["stage"].(models.ProcessStage); ok {
		resp.Stage = string(v)
	}
	if v, ok := info["line_count"].(int); ok {
		resp.LineCount = v
	}
	if v, ok := info["block_count"].(int); ok {
		resp.BlockCount = v
	}
	if v, ok := info["question_count"].(int); ok {
		resp.QuestionCount = v
	}
	if v, ok := info["created_at"].(string); ok {
		resp.CreatedAt = v
	}
	if v, ok := info["updated_at"].(string); ok {
		resp.UpdatedAt = v
	}
	if v, ok := info["error"].(string); ok {
		resp.Error = v
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListSubmissions 获取提交列表
// GET /api/submissions
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	// 绑定查询参数
	var req model.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 构建过滤条件
	filters := make(map[string]interface{})
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.StudentID != "" {
		filters["student_id"] = req.StudentID
	}
	if req.LabName != "" {
		filters["lab_name"] = req.LabName
	}
	if req.Tags != "" {
		filters["tags"] = req.Tags
	}
	if req.StartTime != nil {
		filters["start_time"] = req.StartTime.Format(time.RFC3339)
	}
	if req.EndTime != nil {
		filters["end_time"] = req.EndTime.Format(time.RFC3339)
	}

	// 计算分页参数
	offset := (req.GetPage() - 1) * req.GetPageSize()
	limit := req.GetPageSize()

	// 查询提交列表
	submissions, total, err := h.submissionService.ListSubmissions(c.Request.Context(), offset, limit, filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list submissions")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取提交列表失败",
		))
		return
	}

	// 转换为响应格式
	infos := make([]model.SubmissionInfo, 0, len(submissions))
	for _, sub := range submissions {
		infos = append(infos, model.SubmissionInfo{
			SubmissionID:  sub.ID,
			FileName:      sub.FileName,
			Status:        string(sub.Status),
			StudentID:     sub.StudentID,
			StudentName:   sub.StudentName,
			LabName:       sub.LabName,
			Language:      sub.Language,
			Tags:          sub.Tags,
			LineCount:     sub.LineCount,
			BlockCount:    sub.BlockCount,
			QuestionCount: sub.QuestionCount,
			UploadedAt:    sub.UploadedAt.Format(time.RFC3339),
		})
	}

	// 构建分页响应
	resp := model.SubmissionListResponse{
		Total:       total,
		Page:        req.GetPage(),
		PageSize:    req.GetPageSize(),
		Submissions: infos,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteSubmission 删除提交
// DELETE /api/submissions/:id
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	// 绑定路径参数
	var req model.SubmissionDeleteRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的提交ID"))
		return
	}

	// 删除提交及其代码块、问题和向量
	err := h.submissionService.DeleteSubmission(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":         err.Error(),
			"submission_id": req.ID,
		}).Error("Failed to delete submission")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除提交失败",
		))
		return
	}

	h.logger.WithField("submission_id", req.ID).Info("Submission deleted successfully")

	// 返回成功响应
	resp := model.SubmissionDeleteResponse{
		Success:      true,
		SubmissionID: req.ID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetSubmissionBlocks 获取提交采样出的代码块
// GET /api/submissions/:id/blocks
func (h *SubmissionHandler) GetSubmissionBlocks(c *gin.Context) {
	// 绑定路径参数
	var req model.SubmissionStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的提交ID"))
		return
	}

	// 获取代码块
	blocks, err := h.submissionService.GetSubmissionBlocks(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":         err.Error(),
			"submission_id": req.ID,
		}).Error("Failed to get submission blocks")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取代码块失败",
		))
		return
	}

	// 构建响应
	resp := model.BlockListResponse{
		SubmissionID: req.ID,
		Blocks:       model.ConvertToBlockInfo(blocks),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
