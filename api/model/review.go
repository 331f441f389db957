package model

import (
	"time"
)

// CreateReviewRequest 创建检查会话请求
type CreateReviewRequest struct {
	SubmissionID string `json:"submission_id" binding:"required"` // 关联的提交ID
	Title        string `json:"title,omitempty"`                  // 会话标题，可选，如果不提供将使用默认标题
	StudentID    string `json:"student_id,omitempty"`             // 学号，可选
}

// ReviewHistoryRequest 获取检查历史请求
type ReviewHistoryRequest struct {
	SessionID         string `uri:"session_id" binding:"required"` // 会话ID
	PaginationRequest        // 嵌入分页请求
}

// ReviewListRequest 检查会话列表请求
type ReviewListRequest struct {
	PaginationRequest            // 嵌入分页请求
	SubmissionID      string     `form:"submission_id" json:"submission_id,omitempty"` // 提交过滤
	StudentID         string     `form:"student_id" json:"student_id,omitempty"`       // 学号过滤
	StartTime         *time.Time `form:"start_time" json:"start_time,omitempty"`       // 开始时间
	EndTime           *time.Time `form:"end_time" json:"end_time,omitempty"`           // 结束时间
	Tags              string     `form:"tags" json:"tags,omitempty"`                   // 标签过滤
}

// RenameReviewRequest 重命名检查会话请求
type RenameReviewRequest struct {
	SessionID string `uri:"session_id" binding:"required"` // 会话ID
	Title     string `json:"title" binding:"required"`     // 新标题
}

// DeleteReviewRequest 删除检查会话请求
type DeleteReviewRequest struct {
	SessionID string `uri:"session_id" binding:"required"` // 会话ID
}

// CreateReviewMessageRequest 向检查会话提交消息的请求
// 带question_id和answer时执行完整的问答评估流程，
// 否则按role/content直接追加一条消息
type CreateReviewMessageRequest struct {
	QuestionID string `json:"question_id,omitempty"` // 被回答的问题ID
	Answer     string `json:"answer,omitempty"`      // 学生的回答
	Role       string `json:"role,omitempty"`        // 消息角色：examiner, student, verdict
	Content    string `json:"content,omitempty"`     // 消息内容
}

// GetRecentQuestionsRequest 获取最近问题请求
type GetRecentQuestionsRequest struct {
	Limit int `form:"limit,default=10" json:"limit,default=10"` // 返回问题数量限制，默认10条
}

// GetRecentQuestionsResponse 获取最近问题响应
type GetRecentQuestionsResponse struct {
	Questions []string `json:"questions"` // 问题列表
}

// BlockRefInfo 消息引用的代码块信息
type BlockRefInfo struct {
	BlockID      string `json:"block_id"`      // 代码块ID
	SubmissionID string `json:"submission_id"` // 提交ID
	StartLine    int    `json:"start_line"`    // 起始行号
	EndLine      int    `json:"end_line"`      // 结束行号
	Text         string `json:"text"`          // 引用的代码文本
}

// MessageInfo 检查消息响应对象
type MessageInfo struct {
	ID         string         `json:"id"`                    // 消息ID
	Role       string         `json:"role"`                  // 消息角色
	Content    string         `json:"content"`               // 消息内容
	QuestionID string         `json:"question_id,omitempty"` // 关联的问题ID
	Score      *int           `json:"score,omitempty"`       // 评分，仅评定消息有
	Verdict    string         `json:"verdict,omitempty"`     // 评定结论
	CreatedAt  time.Time      `json:"created_at"`            // 创建时间
	Refs       []BlockRefInfo `json:"refs,omitempty"`        // 引用的代码块
}

// CreateReviewResponse 创建检查会话响应
type CreateReviewResponse struct {
	SessionID    string    `json:"session_id"`    // 会话ID
	SubmissionID string    `json:"submission_id"` // 关联的提交ID
	Title        string    `json:"title"`         // 会话标题
	CreatedAt    time.Time `json:"created_at"`    // 创建时间
}

// ReviewHistoryResponse 检查历史响应
type ReviewHistoryResponse struct {
	SessionID    string        `json:"session_id"`    // 会话ID
	SubmissionID string        `json:"submission_id"` // 关联的提交ID
	Title        string        `json:"title"`         // 会话标题
	Messages     []MessageInfo `json:"messages"`      // 消息列表
}

// ReviewInfo 检查会话信息
type ReviewInfo struct {
	ID           string    `json:"id"`                   // 会话ID
	SubmissionID string    `json:"submission_id"`        // 关联的提交ID
	Title        string    `json:"title"`                // 会话标题
	StudentID    string    `json:"student_id,omitempty"` // 学号
	CreatedAt    time.Time `json:"created_at"`           // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`           // 更新时间
	MessageCount int       `json:"message_count"`        // 消息数量
}

// ReviewListResponse 检查会话列表响应
type ReviewListResponse struct {
	Total    int64        `json:"total"`     // 总数量
	Page     int          `json:"page"`      // 当前页码
	PageSize int          `json:"page_size"` // 每页大小
	Reviews  []ReviewInfo `json:"reviews"`   // 会话列表
}

// DeleteReviewResponse 删除会话响应
type DeleteReviewResponse struct {
	Success   bool   `json:"success"`    // 是否成功
	SessionID string `json:"session_id"` // 会话ID
}

// ExchangeResponse 问答交换响应
// 评估完成后返回学生回答与评定结果
type ExchangeResponse struct {
	SessionID  string `json:"session_id"`  // 会话ID
	QuestionID string `json:"question_id"` // 问题ID
	Question   string `json:"question"`    // 问题文本
	Answer     string `json:"answer"`      // 学生的回答
	Score      int    `json:"score"`       // 评分（0-100）
	Verdict    string `json:"verdict"`     // 评定结论
	Feedback   string `json:"feedback"`    // 评语
}
