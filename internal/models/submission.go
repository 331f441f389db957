package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionStatus 提交处理状态类型
type SubmissionStatus string

const (
	// SubStatusUploaded 代码已上传，等待处理
	SubStatusUploaded SubmissionStatus = "uploaded"
	// SubStatusProcessing 提交处理中
	SubStatusProcessing SubmissionStatus = "processing"
	// SubStatusCompleted 提交处理完成，题目已就绪
	SubStatusCompleted SubmissionStatus = "completed"
	// SubStatusFailed 提交处理失败
	SubStatusFailed SubmissionStatus = "failed"
)

// ProcessStage 提交处理阶段
type ProcessStage string

const (
	// StageParsing 解析阶段
	StageParsing ProcessStage = "parsing"
	// StageSampling 代码块抽取阶段
	StageSampling ProcessStage = "sampling"
	// StageGenerating 问题生成阶段
	StageGenerating ProcessStage = "generating"
	// StageCompleted 处理完成
	StageCompleted ProcessStage = "completed"
)

// Submission 实验提交数据模型
// 用于存储学生上传的实验代码的元数据信息
type Submission struct {
	ID            string           `gorm:"primaryKey"`         // 提交ID，主键
	StudentID     string           `gorm:"size:50;index"`      // 学号
	StudentName   string           `gorm:"size:100"`           // 学生姓名
	LabName       string           `gorm:"size:100;index"`     // 实验名称
	FileName      string           `gorm:"not null"`           // 文件名
	FileType      string           `gorm:"not null"`           // 文件类型
	FilePath      string           `gorm:"not null"`           // 文件路径
	FileSize      int64            `gorm:"not null"`           // 文件大小（字节）
	Language      string           `gorm:"size:30"`            // 代码语言
	Status        SubmissionStatus `gorm:"not null;index"`     // 处理状态
	UploadedAt    time.Time        `gorm:"not null;index"`     // 上传时间
	ProcessedAt   *time.Time       `gorm:"index"`              // 处理完成时间
	UpdatedAt     time.Time        `gorm:"not null;index"`     // 更新时间
	Progress      int              `gorm:"not null;default:0"` // 处理进度（0-100）
	Error         string           `gorm:"type:text"`          // 错误信息
	LineCount     int              `gorm:"not null;default:0"` // 代码行数
	BlockCount    int              `gorm:"not null;default:0"` // 抽取的代码块数量
	QuestionCount int              `gorm:"not null;default:0"` // 已生成的问题数量
	Tags          string           `gorm:"type:varchar(255)"`  // 标签，逗号分隔
	Metadata      datatypes.JSON   `gorm:"type:json"`          // 元数据，JSON格式
	CurrentStage  ProcessStage     `gorm:"size:20"`            // 当前处理阶段
	CurrentTaskID string           `gorm:"size:50;index"`      // 当前关联的任务ID
	RetryCount    int              `gorm:"default:0"`          // 重试次数
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (s *Submission) BeforeCreate(tx *gorm.DB) (err error) {
	// 如果上传时间为零值，设置为当前时间
	if s.UploadedAt.IsZero() {
		s.UploadedAt = time.Now()
	}
	// 设置更新时间
	s.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (s *Submission) BeforeUpdate(tx *gorm.DB) (err error) {
	s.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Submission) TableName() string {
	return "submissions"
}

// BlockSourceMarker 标记命中抽取的代码块
const BlockSourceMarker = "marker"

// BlockSourceFallback 兜底随机切片抽取的代码块
const BlockSourceFallback = "fallback"

// CodeBlock 代码块数据模型
// 用于在数据库中跟踪从提交代码中抽取的代码块
type CodeBlock struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"` // 主键ID
	SubmissionID string         `gorm:"not null;index"`           // 所属提交ID
	BlockID      string         `gorm:"not null;uniqueIndex"`     // 代码块唯一ID
	Position     int            `gorm:"not null"`                 // 代码块序号
	StartLine    int            `gorm:"not null"`                 // 起始行号（含）
	EndLine      int            `gorm:"not null"`                 // 结束行号（含）
	Text         string         `gorm:"type:text;not null"`       // 代码块文本内容
	Source       string         `gorm:"size:20"`                  // 抽取来源（marker/fallback）
	CreatedAt    time.Time      `gorm:"not null"`                 // 创建时间
	UpdatedAt    time.Time      `gorm:"not null"`                 // 更新时间
	Metadata     datatypes.JSON `gorm:"type:json"`                // 代码块元数据
	TaskID       string         `gorm:"size:50;index"`            // 处理此代码块的任务ID
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (cb *CodeBlock) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	cb.CreatedAt = now
	cb.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (cb *CodeBlock) BeforeUpdate(tx *gorm.DB) (err error) {
	cb.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (CodeBlock) TableName() string {
	return "code_blocks"
}
