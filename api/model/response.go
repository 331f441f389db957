package model

import (
	"github.com/Ccode104/Lab-Assistant/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// SubmissionUploadResponse 提交上传响应
type SubmissionUploadResponse struct {
	SubmissionID string `json:"submission_id"` // 提交ID
	FileName     string `json:"filename"`      // 文件名
	Status       string `json:"status"`        // 处理状态：uploaded、processing、completed、failed
}

// SubmissionStatusResponse 提交状态查询响应
type SubmissionStatusResponse struct {
	SubmissionID  string `json:"submission_id"`            // 提交ID
	Status        string `json:"status"`                   // 处理状态
	FileName      string `json:"filename"`                 // 文件名
	Progress      int    `json:"progress"`                 // 处理进度（0-100）
	Stage         string `json:"stage,omitempty"`          // 当前处理阶段
	LineCount     int    `json:"line_count,omitempty"`     // 代码行数
	BlockCount    int    `json:"block_count,omitempty"`    // 抽取的代码块数量
	QuestionCount int    `json:"question_count,omitempty"` // 已生成的问题数量
	Error         string `json:"error,omitempty"`          // 错误信息（如果有）
	CreatedAt     string `json:"created_at"`               // 上传时间
	UpdatedAt     string `json:"updated_at"`               // 更新时间
}

// SubmissionInfo 提交信息
type SubmissionInfo struct {
	SubmissionID  string `json:"submission_id"`          // 提交ID
	FileName      string `json:"filename"`               // 文件名
	Status        string `json:"status"`                 // 状态
	StudentID     string `json:"student_id,omitempty"`   // 学号
	StudentName   string `json:"student_name,omitempty"` // 学生姓名
	LabName       string `json:"lab_name,omitempty"`     // 实验名称
	Language      string `json:"language,omitempty"`     // 代码语言
	Tags          string `json:"tags,omitempty"`         // 标签
	LineCount     int    `json:"line_count"`             // 代码行数
	BlockCount    int    `json:"block_count"`            // 代码块数量
	QuestionCount int    `json:"question_count"`         // 问题数量
	UploadedAt    string `json:"uploaded_at"`            // 上传时间
}

// SubmissionListResponse 提交列表响应
type SubmissionListResponse struct {
	Total       int64            `json:"total"`       // 总数量
	Page        int              `json:"page"`        // 当前页码
	PageSize    int              `json:"page_size"`   // 每页大小
	Submissions []SubmissionInfo `json:"submissions"` // 提交列表
}

// SubmissionDeleteResponse 提交删除响应
type SubmissionDeleteResponse struct {
	Success      bool   `json:"success"`       // 是否成功
	SubmissionID string `json:"submission_id"` // 提交ID
}

// BlockInfo 代码块信息
type BlockInfo struct {
	BlockID   string `json:"block_id"`   // 代码块ID
	Position  int    `json:"position"`   // 代码块序号
	StartLine int    `json:"start_line"` // 起始行号（含）
	EndLine   int    `json:"end_line"`   // 结束行号（含）
	Text      string `json:"text"`       // 代码块文本
	Source    string `json:"source"`     // 抽取来源（marker/fallback）
}

// BlockListResponse 代码块列表响应
type BlockListResponse struct {
	SubmissionID string      `json:"submission_id"` // 提交ID
	Blocks       []BlockInfo `json:"blocks"`        // 代码块列表
}

// ConvertToBlockInfo 将代码块模型转换为响应信息
func ConvertToBlockInfo(blocks []*models.CodeBlock) []BlockInfo {
	if len(blocks) == 0 {
		return []BlockInfo{}
	}

	infos := make([]BlockInfo, len(blocks))
	for i, block := range blocks {
		infos[i] = BlockInfo{
			BlockID:   block.BlockID,
			Position:  block.Position,
			StartLine: block.StartLine,
			EndLine:   block.EndLine,
			Text:      block.Text,
			Source:    block.Source,
		}
	}
	return infos
}

// QuestionInfo 检查问题信息
type QuestionInfo struct {
	QuestionID string `json:"question_id"` // 问题ID
	BlockID    string `json:"block_id"`    // 所属代码块ID
	Position   int    `json:"position"`    // 问题在代码块内的序号
	Text       string `json:"text"`        // 问题文本
	Difficulty string `json:"difficulty"`  // 问题难度
	AskedCount int    `json:"asked_count"` // 已被提问次数
}

// QuestionListResponse 问题列表响应
type QuestionListResponse struct {
	SubmissionID string         `json:"submission_id"` // 提交ID
	Questions    []QuestionInfo `json:"questions"`     // 问题列表
}

// ConvertToQuestionInfo 将问题模型转换为响应信息
func ConvertToQuestionInfo(questions []*models.QuizQuestion) []QuestionInfo {
	if len(questions) == 0 {
		return []QuestionInfo{}
	}

	infos := make([]QuestionInfo, len(questions))
	for i, question := range questions {
		infos[i] = QuestionInfo{
			QuestionID: question.QuestionID,
			BlockID:    question.BlockID,
			Position:   question.Position,
			Text:       question.Text,
			Difficulty: string(question.Difficulty),
			AskedCount: question.AskedCount,
		}
	}
	return infos
}

// EvaluationResponse 回答评估响应
type EvaluationResponse struct {
	QuestionID string `json:"question_id"` // 问题ID
	Score      int    `json:"score"`       // 评分（0-100）
	Verdict    string `json:"verdict"`     // 评定结论：correct/partial/incorrect
	Feedback   string `json:"feedback"`    // 评语
}

// QuestionMatchInfo 语义搜索命中信息
type QuestionMatchInfo struct {
	Question QuestionInfo `json:"question"` // 命中的问题
	Score    float32      `json:"score"`    // 相似度分数
}

// QuestionSearchResponse 问题语义搜索响应
type QuestionSearchResponse struct {
	Query   string              `json:"query"`   // 查询文本
	Matches []QuestionMatchInfo `json:"matches"` // 命中列表
}

// PaginationResponse 分页响应信息
type PaginationResponse struct {
	Total    int `json:"total"`     // 总记录数
	Page     int `json:"page"`      // 当前页码
	PageSize int `json:"page_size"` // 每页大小
}
