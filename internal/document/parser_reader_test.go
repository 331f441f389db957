package document

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserReaderImplementations(t *testing.T) {
	// 测试纯文本解析器
	t.Run("PlainText", func(t *testing.T) {
		content := "Hello, this is plain text."
		reader := strings.NewReader(content)

		parser := NewPlainTextParser()
		result, err := parser.ParseReader(reader, "test.txt")

		assert.NoError(t, err)
		assert.Equal(t, content, result)
	})

	// 测试源代码走纯文本路径
	t.Run("SourceCode", func(t *testing.T) {
		content := "for i in range(3):\n    print(i)\n    log(i)"
		reader := strings.NewReader(content)

		parser := NewPlainTextParser()
		result, err := parser.ParseReader(reader, "loop.py")

		assert.NoError(t, err)
		assert.Equal(t, content, result, "源代码必须原样返回")
	})

	// 测试Markdown解析器
	t.Run("Markdown", func(t *testing.T) {
		content := "# Heading\n\nThis is **markdown** text."
		reader := strings.NewReader(content)

		parser := NewMarkdownParser()
		result, err := parser.ParseReader(reader, "test.md")

		assert.NoError(t, err)
		assert.Contains(t, result, "Heading")
		assert.Contains(t, result, "markdown")
	})

	// 测试PDF解析器经临时文件中转
	t.Run("PDF", func(t *testing.T) {
		pdfPath := createTempPDF(t, "Reader based PDF content.")
		defer os.Remove(pdfPath)

		f, err := os.Open(pdfPath)
		require.NoError(t, err)
		defer f.Close()

		parser := NewPDFParser()
		result, err := parser.ParseReader(f, "report.pdf")

		assert.NoError(t, err)
		assert.Contains(t, result, "PDF content")
	})
}

func TestPlainTextParserReader(t *testing.T) {
	parser := NewPlainTextParser()
	testContent := "This is test content.\nSecond line."
	reader := bytes.NewReader([]byte(testContent))

	result, err := parser.ParseReader(reader, "test.txt")
	assert.NoError(t, err)
	assert.Equal(t, testContent, result)
}

func TestMarkdownParserReader(t *testing.T) {
	parser := NewMarkdownParser()
	mdContent := "# Title\n\nThis is **bold** text."
	reader := bytes.NewReader([]byte(mdContent))

	result, err := parser.ParseReader(reader, "test.md")
	assert.NoError(t, err)
	assert.Contains(t, result, "Title")
	assert.Contains(t, result, "bold")
}
