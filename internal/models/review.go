package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewRole 检查消息角色类型
type ReviewRole string

const (
	// RoleExaminer 考官角色，提出检查问题
	RoleExaminer ReviewRole = "examiner"
	// RoleStudent 学生角色，回答问题
	RoleStudent ReviewRole = "student"
	// RoleVerdict 评定角色，记录评分结论
	RoleVerdict ReviewRole = "verdict"
)

// ReviewSession 检查会话模型
// 用于存储一次实验检查的会话信息
type ReviewSession struct {
	ID           string         `gorm:"primaryKey"`        // 会话ID，主键
	SubmissionID string         `gorm:"not null;index"`    // 关联的提交ID
	Title        string         `gorm:"not null"`          // 会话标题
	StudentID    string         `gorm:"size:50;index"`     // 学号，可选
	CreatedAt    time.Time      `gorm:"not null"`          // 创建时间
	UpdatedAt    time.Time      `gorm:"not null"`          // 更新时间
	Tags         string         `gorm:"type:varchar(255)"` // 标签，逗号分隔
	Metadata     datatypes.JSON `gorm:"type:json"`         // 元数据，JSON格式
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (rs *ReviewSession) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if rs.CreatedAt.IsZero() {
		rs.CreatedAt = now
	}
	rs.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (rs *ReviewSession) BeforeUpdate(tx *gorm.DB) (err error) {
	rs.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (ReviewSession) TableName() string {
	return "review_sessions"
}

// ReviewMessage 检查消息模型
// 用于存储检查会话中的单条问答记录
type ReviewMessage struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"`  // 主键ID
	SessionID  string         `gorm:"not null;index"`            // 所属会话ID
	Role       ReviewRole     `gorm:"not null;type:varchar(20)"` // 消息角色
	Content    string         `gorm:"type:text;not null"`        // 消息内容
	QuestionID string         `gorm:"size:50;index"`             // 关联的问题ID，可选
	Score      *int           `gorm:""`                          // 评分（0-100），仅评定消息有
	Verdict    string         `gorm:"size:20"`                   // 评定结论
	CreatedAt  time.Time      `gorm:"not null"`                  // 创建时间
	Metadata   datatypes.JSON `gorm:"type:json"`                 // 元数据
	Refs       datatypes.JSON `gorm:"type:json"`                 // 引用的代码块
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (rm *ReviewMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if rm.CreatedAt.IsZero() {
		rm.CreatedAt = time.Now()
	}
	return nil
}

// TableName 明确指定表名
func (ReviewMessage) TableName() string {
	return "review_messages"
}

// BlockRef 表示消息引用的代码块
type BlockRef struct {
	BlockID      string  `json:"block_id"`        // 代码块ID
	SubmissionID string  `json:"submission_id"`   // 提交ID
	StartLine    int     `json:"start_line"`      // 起始行号
	EndLine      int     `json:"end_line"`        // 结束行号
	Text         string  `json:"text"`            // 引用的代码文本
	Score        float32 `json:"score,omitempty"` // 匹配分数
}
