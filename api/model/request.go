package model

import (
	"mime/multipart"
	"time"
)

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// SubmissionUploadRequest 实验提交上传请求
type SubmissionUploadRequest struct {
	File        *multipart.FileHeader `form:"file" binding:"required"`                          // 代码文件
	StudentID   string                `form:"student_id" json:"student_id" binding:"omitempty"` // 学号
	StudentName string                `form:"student_name" json:"student_name" binding:"omitempty"`
	LabName     string                `form:"lab_name" json:"lab_name" binding:"omitempty"` // 实验名称
	Language    string                `form:"language" json:"language" binding:"omitempty"` // 代码语言
	Tags        string                `form:"tags" json:"tags" binding:"omitempty"`         // 标签，逗号分隔
	MaxLines    int                   `form:"max_lines" json:"max_lines" binding:"omitempty,min=1"`
	BlockCount  int                   `form:"block_count" json:"block_count" binding:"omitempty,min=1"`
	PerBlock    int                   `form:"per_block" json:"per_block" binding:"omitempty,min=1"`
}

// SubmissionStatusRequest 提交状态查询请求
type SubmissionStatusRequest struct {
	ID string `uri:"id" binding:"required"` // 提交ID
}

// SubmissionListRequest 提交列表请求
type SubmissionListRequest struct {
	PaginationRequest
	StartTime *time.Time `form:"start_time" json:"start_time" binding:"omitempty"` // 开始时间
	EndTime   *time.Time `form:"end_time" json:"end_time" binding:"omitempty"`     // 结束时间
	Status    string     `form:"status" json:"status" binding:"omitempty,submissionstatus"` // 提交状态
	StudentID string     `form:"student_id" json:"student_id" binding:"omitempty"` // 学号过滤
	LabName   string     `form:"lab_name" json:"lab_name" binding:"omitempty"`     // 实验名称过滤
	Tags      string     `form:"tags" json:"tags" binding:"omitempty"`             // 标签过滤
}

// SubmissionDeleteRequest 提交删除请求
type SubmissionDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 提交ID
}

// EvaluateAnswerRequest 回答评估请求
type EvaluateAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"` // 问题ID
	Answer     string `json:"answer" binding:"required"`      // 学生的回答
}

// QuestionSearchRequest 问题语义搜索请求
type QuestionSearchRequest struct {
	Query        string `form:"q" binding:"required"`              // 查询文本
	SubmissionID string `form:"submission_id" binding:"omitempty"` // 限定提交范围，可选
}
