package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSplitByLine 测试按行分割功能
func TestSplitByLine(t *testing.T) {
	config := DefaultSplitterConfig()
	splitter := NewTextSplitter(config)

	t.Run("basic line splitting", func(t *testing.T) {
		text := "def f():\n    return 1\n\n    return 2"
		segments, err := splitter.Split(text)
		assert.NoError(t, err)
		require.Equal(t, 4, len(segments), "应该切分成4行，空行保留")

		// 验证行内容和缩进原样保留
		assert.Equal(t, "def f():", segments[0].Text)
		assert.Equal(t, "    return 1", segments[1].Text)
		assert.Equal(t, "", segments[2].Text)
		assert.Equal(t, "    return 2", segments[3].Text)
	})

	t.Run("crlf normalized", func(t *testing.T) {
		text := "line one\r\nline two\r\nline three"
		segments, err := splitter.Split(text)
		assert.NoError(t, err)
		assert.Equal(t, 3, len(segments), "CRLF应该被规范化后按行切分")
	})

	t.Run("blank lines dropped when configured", func(t *testing.T) {
		config := DefaultSplitterConfig()
		config.KeepBlank = false
		s := NewTextSplitter(config)

		segments, err := s.Split("a\n\n\nb")
		assert.NoError(t, err)
		assert.Equal(t, 2, len(segments), "配置关闭空行保留时应该过滤空行")
	})

	t.Run("segment index assigned", func(t *testing.T) {
		segments, err := splitter.Split("x\ny\nz")
		assert.NoError(t, err)
		for i, seg := range segments {
			assert.Equal(t, i, seg.Index)
		}
	})
}

// TestSplitByParagraph 测试按段落分割功能
func TestSplitByParagraph(t *testing.T) {
	config := SplitterConfig{SplitType: ByParagraph}
	splitter := NewTextSplitter(config)

	t.Run("basic paragraph splitting", func(t *testing.T) {
		text := "实验目的：熟悉排序算法。\n\n实验步骤如下。\n\n实验结论。"
		segments, err := splitter.Split(text)
		assert.NoError(t, err)
		assert.Equal(t, 3, len(segments), "应该分割成3个段落")

		assert.Contains(t, segments[0].Text, "实验目的")
		assert.Contains(t, segments[1].Text, "实验步骤")
		assert.Contains(t, segments[2].Text, "实验结论")
	})

	t.Run("empty paragraphs filtered", func(t *testing.T) {
		text := "first\n\n\n\nsecond"
		segments, err := splitter.Split(text)
		assert.NoError(t, err)
		assert.Equal(t, 2, len(segments), "空段落应该被过滤")
	})
}

// TestSplitterLimits 测试分段器的边界行为
func TestSplitterLimits(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		splitter := NewTextSplitter(DefaultSplitterConfig())
		segments, err := splitter.Split("")
		assert.NoError(t, err)
		assert.Empty(t, segments, "空文本返回空结果")
	})

	t.Run("max segments", func(t *testing.T) {
		config := DefaultSplitterConfig()
		config.MaxSegments = 2
		splitter := NewTextSplitter(config)

		segments, err := splitter.Split("a\nb\nc\nd")
		assert.NoError(t, err)
		assert.Equal(t, 2, len(segments), "段数应该被限制在最大值")
	})

	t.Run("unknown split type", func(t *testing.T) {
		splitter := NewTextSplitter(SplitterConfig{SplitType: "sentence"})
		_, err := splitter.Split("some text")
		assert.Error(t, err, "未知的切分类型应该返回错误")
	})
}

// TestSplitterLines 测试供采样器使用的按行接口
func TestSplitterLines(t *testing.T) {
	splitter := NewTextSplitter(DefaultSplitterConfig())

	lines := splitter.Lines("if x {\r\n\tgo()\r\n}")
	require.Equal(t, 3, len(lines))
	assert.Equal(t, "\tgo()", lines[1], "行内容必须保留原始缩进")

	assert.Nil(t, splitter.Lines(""), "空文本没有行")
}
