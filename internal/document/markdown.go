package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser Markdown实验报告解析器
// 报告正文渲染后提取纯文本，围栏代码块原样保留，
// 否则报告里嵌入的代码会在HTML渲染中丢失缩进，无法供采样器使用
type MarkdownParser struct{}

// NewMarkdownParser 创建新的Markdown解析器
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// Parse 解析Markdown文件并提取文本内容
func (p *MarkdownParser) Parse(filePath string) (string, error) {
	// 读取文件
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open markdown file: %v", err)
	}
	defer file.Close()

	// 使用ParseReader实现
	return p.ParseReader(file, filePath)
}

// ParseReader 从Reader解析Markdown内容
func (p *MarkdownParser) ParseReader(r io.Reader, filename string) (string, error) {
	// 读取文件内容
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown content: %v", err)
	}

	// 1. 先摘出围栏代码块，剩余部分作为报告正文
	prose, codeBlocks := extractFencedCode(string(content))

	// 2. 创建Markdown解析器处理正文
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	// 3. 解析Markdown内容
	doc := mdParser.Parse([]byte(prose))

	// 4. 创建HTML渲染器
	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	// 5. 将Markdown转换为HTML后提取纯文本
	htmlContent := markdown.Render(doc, renderer)
	plainText := extractTextFromHTML(string(htmlContent))

	// 6. 代码块追加在正文之后，保持原始行结构
	if len(codeBlocks) > 0 {
		var sb strings.Builder
		sb.WriteString(plainText)
		for _, block := range codeBlocks {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(block)
		}
		return sb.String(), nil
	}

	return plainText, nil
}

// extractFencedCode 从Markdown原文中摘出围栏代码块
// 返回去掉代码块后的正文和按出现顺序排列的代码块内容
func extractFencedCode(text string) (string, []string) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var prose []string
	var blocks []string
	var current []string
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				// 围栏结束，收集完整代码块
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inFence = !inFence
			continue
		}

		if inFence {
			current = append(current, line)
		} else {
			prose = append(prose, line)
		}
	}

	// 未闭合的围栏按代码处理
	if inFence && len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}

	return strings.Join(prose, "\n"), blocks
}

// extractTextFromHTML 从HTML中提取纯文本
// 注意：这是一个简化的实现，更复杂的情况可能需要使用HTML解析库
func extractTextFromHTML(html string) string {
	// 替换常见的HTML元素为空格或换行符
	replacements := []struct {
		Old string
		New string
	}{
		{"<br>", "\n"},
		{"<br/>", "\n"},
		{"<br />", "\n"},
		{"<p>", ""},
		{"</p>", "\n\n"},
		{"<li>", "- "},
		{"</li>", "\n"},
		{"<ul>", "\n"},
		{"</ul>", "\n"},
		{"<ol>", "\n"},
		{"</ol>", "\n"},
		{"<h1>", "\n\n"},
		{"</h1>", "\n\n"},
		{"<h2>", "\n\n"},
		{"</h2>", "\n\n"},
		{"<h3>", "\n\n"},
		{"</h3>", "\n\n"},
		{"<h4>", "\n\n"},
		{"</h4>", "\n\n"},
		{"<h5>", "\n\n"},
		{"</h5>", "\n\n"},
		{"<h6>", "\n\n"},
		{"</h6>", "\n\n"},
	}

	result := html
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.Old, r.New)
	}

	// 移除所有HTML标签
	for {
		start := strings.Index(result, "<")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], ">")
		if end == -1 {
			break
		}
		result = result[:start] + " " + result[start+end+1:]
	}

	// 规范化空白
	result = normalizeWhitespace(result)

	return result
}

// normalizeWhitespace 规范化文本中的空白符
func normalizeWhitespace(text string) string {
	// 替换连续的空白符为单个空格
	text = strings.Join(strings.Fields(text), " ")

	// 替换连续多个换行符为最多两个
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}
