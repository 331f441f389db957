package models

import "errors"

var (
	// ErrSubmissionNotFound 提交不存在错误
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrBlockNotFound 代码块不存在错误
	ErrBlockNotFound = errors.New("code block not found")

	// ErrInvalidSubmissionStatus 无效的提交状态错误
	ErrInvalidSubmissionStatus = errors.New("invalid submission status")

	// ErrQuestionNotFound 问题不存在错误
	ErrQuestionNotFound = errors.New("question not found")

	// ErrSessionNotFound 检查会话不存在错误
	ErrSessionNotFound = errors.New("review session not found")
)
