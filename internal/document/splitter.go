package document

import (
	"fmt"
	"strings"
)

// SplitType 文本切分的类型
type SplitType string

const (
	// ByLine 按行切分，用于源代码
	ByLine SplitType = "line"
	// ByParagraph 按段落切分，用于报告正文
	ByParagraph SplitType = "paragraph"
)

// SplitterConfig 分段器配置
type SplitterConfig struct {
	SplitType   SplitType // 切分类型
	KeepBlank   bool      // 按行切分时是否保留空行
	MaxSegments int       // 最大段数（0表示不限制）
}

// DefaultSplitterConfig 返回默认分段器配置
// 默认按行切分并保留空行：采样出的代码块行号必须能对回原始提交
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		SplitType:   ByLine,
		KeepBlank:   true,
		MaxSegments: 0,
	}
}

// TextSplitter 实现文本分段器接口
type TextSplitter struct {
	config SplitterConfig
}

// NewTextSplitter 创建新的文本分段器
func NewTextSplitter(config SplitterConfig) *TextSplitter {
	return &TextSplitter{
		config: config,
	}
}

// Split 将文本分割成内容段落
func (s *TextSplitter) Split(text string) ([]Content, error) {
	if text == "" {
		return []Content{}, nil
	}

	var chunks []string

	switch s.config.SplitType {
	case ByLine:
		chunks = s.splitByLine(text)
	case ByParagraph:
		chunks = s.splitByParagraph(text)
	default:
		return nil, fmt.Errorf("unknown split type: %s", s.config.SplitType)
	}

	// 应用最大段数限制
	if s.config.MaxSegments > 0 && len(chunks) > s.config.MaxSegments {
		chunks = chunks[:s.config.MaxSegments]
	}

	// 构造Content对象
	var contents []Content
	for i, chunk := range chunks {
		contents = append(contents, Content{
			Text:  chunk,
			Index: i,
		})
	}

	return contents, nil
}

// Lines 将文本规范化换行符后按行切分
// 行内容不做任何修剪，采样器需要原始缩进
func (s *TextSplitter) Lines(text string) []string {
	if text == "" {
		return nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// splitByLine 按行切分文本
func (s *TextSplitter) splitByLine(text string) []string {
	lines := s.Lines(text)
	if s.config.KeepBlank {
		return lines
	}

	// 过滤空行
	var result []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}

	return result
}

// splitByParagraph 按段落切分文本
func (s *TextSplitter) splitByParagraph(text string) []string {
	// 规范化段落分隔符
	text = strings.ReplaceAll(text, "\r\n", "\n")

	// 按空行分段
	paragraphs := strings.Split(text, "\n\n")

	// 过滤空段落
	var result []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}

	return result
}
