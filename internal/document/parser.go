package document

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// Parser 提交文档解析器接口
// 负责将不同格式的实验提交解析为纯文本
type Parser interface {
	// Parse 解析文档，返回文本内容
	Parse(filePath string) (string, error)

	// ParseReader 从Reader解析文档，返回文本内容
	// filename用于确定文档类型
	ParseReader(r io.Reader, filename string) (string, error)
}

// ContentType 表示提交文档的内容类型
type ContentType string

const (
	// SourceCode 源代码类型
	SourceCode ContentType = "source"
	// PDF 文档类型
	PDF ContentType = "pdf"
	// Markdown 文档类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// sourceCodeExts 识别为源代码的文件扩展名
// 源代码按纯文本解析，保留原始的行和缩进供采样器使用
var sourceCodeExts = map[string]bool{
	".py":    true,
	".go":    true,
	".c":     true,
	".h":     true,
	".cpp":   true,
	".cc":    true,
	".hpp":   true,
	".java":  true,
	".js":    true,
	".ts":    true,
	".rs":    true,
	".rb":    true,
	".php":   true,
	".cs":    true,
	".kt":    true,
	".swift": true,
	".scala": true,
	".sh":    true,
	".sql":   true,
	".m":     true,
	".lua":   true,
	".pl":    true,
	".r":     true,
}

// ParserFactory 解析器工厂函数，根据文件类型创建对应的解析器
func ParserFactory(filePath string) (Parser, error) {
	contentType := DetectContentType(filePath)

	switch contentType {
	case PDF:
		return NewPDFParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case SourceCode, PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, errors.New("unsupported submission type")
	}
}

// DetectContentType 根据文件扩展名检测内容类型
func DetectContentType(filePath string) ContentType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch {
	case ext == ".pdf":
		return PDF
	case ext == ".md" || ext == ".markdown":
		return Markdown
	case ext == ".txt" || ext == ".text" || ext == ".log":
		return PlainText
	case sourceCodeExts[ext]:
		return SourceCode
	default:
		return Unknown
	}
}

// Document 解析后的提交文档结构
type Document struct {
	Content string            // 文档文本内容
	Title   string            // 文档标题（可选）
	Source  string            // 源文件信息
	Meta    map[string]string // 元数据（可选，例如学生、课程等）
}

// Content 表示文档的内容段落
type Content struct {
	Text  string // 段落文本内容
	Index int    // 段落索引
}

// Splitter 文本分段器接口
// 负责将解析后的文本切分成行或段落
type Splitter interface {
	// Split 将文本分割成段落
	Split(text string) ([]Content, error)
}
