package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionDifficulty 问题难度类型
type QuestionDifficulty string

const (
	// DifficultyBasic 基础题，考察对代码的直接理解
	DifficultyBasic QuestionDifficulty = "basic"
	// DifficultyDeep 深入题，考察设计意图和边界情况
	DifficultyDeep QuestionDifficulty = "deep"
)

// QuizQuestion 检查问题数据模型
// 用于存储针对代码块生成的检查问题
type QuizQuestion struct {
	ID           uint               `gorm:"primaryKey;autoIncrement"` // 主键ID
	QuestionID   string             `gorm:"not null;uniqueIndex"`     // 问题唯一ID
	SubmissionID string             `gorm:"not null;index"`           // 所属提交ID
	BlockID      string             `gorm:"not null;index"`           // 所属代码块ID
	Position     int                `gorm:"not null"`                 // 问题在代码块内的序号
	Text         string             `gorm:"type:text;not null"`       // 问题文本
	Difficulty   QuestionDifficulty `gorm:"size:20"`                  // 问题难度
	CreatedAt    time.Time          `gorm:"not null"`                 // 创建时间
	UpdatedAt    time.Time          `gorm:"not null"`                 // 更新时间
	Metadata     datatypes.JSON     `gorm:"type:json"`                // 问题元数据
	VectorID     string             `gorm:"size:50;index"`            // 向量索引中的ID
	AskedCount   int                `gorm:"default:0"`                // 已被提问次数
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (q *QuizQuestion) BeforeUpdate(tx *gorm.DB) (err error) {
	q.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
