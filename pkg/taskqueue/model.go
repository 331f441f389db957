package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskSubmissionParse 提交代码解析任务
	TaskSubmissionParse TaskType = "submission_parse"
	// TaskBlockSample 代码块抽样任务
	TaskBlockSample TaskType = "block_sample"
	// TaskQuestionGenerate 问题生成任务
	TaskQuestionGenerate TaskType = "question_generate"
	// TaskProcessComplete 提交处理完整流程任务
	TaskProcessComplete TaskType = "process_complete"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID           string          `json:"id"`            // 任务唯一标识符
	Type         TaskType        `json:"type"`          // 任务类型
	SubmissionID string          `json:"submission_id"` // 关联的提交ID
	Status       TaskStatus      `json:"status"`        // 任务状态
	Payload      json.RawMessage `json:"payload"`       // 任务载荷数据，不同任务类型对应不同结构
	Result       json.RawMessage `json:"result"`        // 任务结果数据，不同任务类型对应不同结构
	Error        string          `json:"error"`         // 错误信息（如果处理失败）
	CreatedAt    time.Time       `json:"created_at"`    // 创建时间
	UpdatedAt    time.Time       `json:"updated_at"`    // 更新时间
	StartedAt    *time.Time      `json:"started_at"`    // 开始处理时间
	CompletedAt  *time.Time      `json:"completed_at"`  // 完成时间
	Attempts     int             `json:"attempts"`      // 尝试次数
	MaxRetries   int             `json:"max_retries"`   // 最大重试次数
}

// SubmissionParsePayload 提交代码解析任务载荷
type SubmissionParsePayload struct {
	FilePath string            `json:"file_path"` // 文件存储路径
	FileName string            `json:"file_name"` // 文件名
	FileType string            `json:"file_type"` // 文件类型
	Language string            `json:"language"`  // 编程语言（如果已知）
	Metadata map[string]string `json:"metadata"`  // 元数据
}

// SubmissionParseResult 提交代码解析任务结果
type SubmissionParseResult struct {
	Content  string            `json:"content"`  // 解析后的代码文本
	Language string            `json:"language"` // 推断的编程语言
	Meta     map[string]string `json:"meta"`     // 提取的元数据
	Error    string            `json:"error"`    // 错误信息（如果有）
	Lines    int               `json:"lines"`    // 代码行数
	Chars    int               `json:"chars"`    // 字符数
}

// BlockSamplePayload 代码块抽样任务载荷
type BlockSamplePayload struct {
	SubmissionID string `json:"submission_id"` // 提交ID
	Content      string `json:"content"`       // 代码文本
	MaxLines     int    `json:"max_lines"`     // 单个代码块的最大行数
	Count        int    `json:"count"`         // 需要抽取的代码块数量
	Seed         int64  `json:"seed"`          // 随机数种子，0表示不固定
}

// BlockInfo 代码块信息
type BlockInfo struct {
	BlockID   string `json:"block_id"`   // 代码块标识符
	Index     int    `json:"index"`      // 代码块序号
	StartLine int    `json:"start_line"` // 起始行（从1开始）
	EndLine   int    `json:"end_line"`   // 结束行（包含）
	Text      string `json:"text"`       // 代码块文本
	Source    string `json:"source"`     // 来源: marker 或 fallback
}

// BlockSampleResult 代码块抽样任务结果
type BlockSampleResult struct {
	SubmissionID string      `json:"submission_id"` // 提交ID
	Blocks       []BlockInfo `json:"blocks"`        // 抽取的代码块列表
	BlockCount   int         `json:"block_count"`   // 代码块数量
	LineCount    int         `json:"line_count"`    // 代码总行数
	Error        string      `json:"error"`         // 错误信息（如果有）
}

// QuestionGeneratePayload 问题生成任务载荷
type QuestionGeneratePayload struct {
	SubmissionID string      `json:"submission_id"` // 提交ID
	Blocks       []BlockInfo `json:"blocks"`        // 代码块列表
	Model        string      `json:"model"`         // 大模型名称
	PerBlock     int         `json:"per_block"`     // 每个代码块生成的问题数
}

// QuestionInfo 问题信息
type QuestionInfo struct {
	BlockIndex int    `json:"block_index"` // 所属代码块序号
	QuestionID string `json:"question_id"` // 问题标识符
	Text       string `json:"text"`        // 问题文本
	Difficulty string `json:"difficulty"`  // 难度: basic 或 deep
}

// QuestionGenerateResult 问题生成任务结果
type QuestionGenerateResult struct {
	SubmissionID  string         `json:"submission_id"`  // 提交ID
	Questions     []QuestionInfo `json:"questions"`      // 生成的问题列表
	QuestionCount int            `json:"question_count"` // 问题数量
	Model         string         `json:"model"`          // 使用的模型
	Error         string         `json:"error"`          // 错误信息（如果有）
}

// ProcessCompletePayload 完整处理流程任务载荷
type ProcessCompletePayload struct {
	SubmissionID string            `json:"submission_id"` // 提交ID
	FilePath     string            `json:"file_path"`     // 文件路径
	FileName     string            `json:"file_name"`     // 文件名
	FileType     string            `json:"file_type"`     // 文件类型
	Language     string            `json:"language"`      // 编程语言
	MaxLines     int               `json:"max_lines"`     // 单个代码块的最大行数
	Count        int               `json:"count"`         // 抽取的代码块数量
	PerBlock     int               `json:"per_block"`     // 每个代码块生成的问题数
	Model        string            `json:"model"`         // 大模型名称
	Metadata     map[string]string `json:"metadata"`      // 元数据
}

// ProcessCompleteResult 完整处理流程结果
type ProcessCompleteResult struct {
	SubmissionID   string         `json:"submission_id"`   // 提交ID
	LineCount      int            `json:"line_count"`      // 代码行数
	BlockCount     int            `json:"block_count"`     // 代码块数量
	QuestionCount  int            `json:"question_count"`  // 问题数量
	ParseStatus    string         `json:"parse_status"`    // 解析状态
	SampleStatus   string         `json:"sample_status"`   // 抽样状态
	GenerateStatus string         `json:"generate_status"` // 问题生成状态
	Error          string         `json:"error"`           // 错误信息（如果有）
	Questions      []QuestionInfo `json:"questions"`       // 可选，根据配置决定是否返回问题数据
}

// TaskCallback 任务回调信息
type TaskCallback struct {
	TaskID       string          `json:"task_id"`       // 任务ID
	SubmissionID string          `json:"submission_id"` // 提交ID
	Status       TaskStatus      `json:"status"`        // 任务状态
	Type         TaskType        `json:"type"`          // 任务类型
	Result       json.RawMessage `json:"result"`        // 任务结果
	Error        string          `json:"error"`         // 错误信息
	Timestamp    time.Time       `json:"timestamp"`     // 回调时间戳
}
