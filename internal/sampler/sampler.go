package sampler

import (
	"math/rand"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// BlockSource 代码块的来源类型
type BlockSource string

const (
	// SourceMarker 块起始于结构标记行
	SourceMarker BlockSource = "marker"
	// SourceFallback 块来自随机回退切片
	SourceFallback BlockSource = "fallback"
)

// MinBlockLines 候选代码块的最小行数
const MinBlockLines = 3

// DefaultMaxLines 单个代码块的默认最大行数
const DefaultMaxLines = 8

// Block 从提交文档中采样出的连续代码块
type Block struct {
	Start  int         // 起始行下标（含）
	End    int         // 结束行下标（不含）
	Lines  []string    // 块的内容行
	Source BlockSource // 块的来源
}

// Text 将块的内容行拼接为文本
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

// LineCount 返回块的行数
func (b Block) LineCount() int {
	return len(b.Lines)
}

// Config 采样器配置
// Markers与Closers以显式数据的形式描述匹配模式，便于测试和扩展
type Config struct {
	MaxLines int      // 单个代码块的最大行数（最小为3，0表示使用默认值）
	Markers  []string // 结构标记模式，带尾部空格，按整词匹配
	Closers  []string // 结束定界模式，匹配去除缩进后的行前缀
}

// DefaultMarkers 返回默认的结构标记模式
// 覆盖常见语言的函数、类、条件、循环和分支开头
func DefaultMarkers() []string {
	return []string{"def ", "function ", "class ", "if ", "for ", "while ", "switch "}
}

// DefaultClosers 返回默认的结束定界模式
func DefaultClosers() []string {
	return []string{"}", ")"}
}

// DefaultConfig 返回默认采样器配置
func DefaultConfig() Config {
	return Config{
		MaxLines: DefaultMaxLines,
		Markers:  DefaultMarkers(),
		Closers:  DefaultClosers(),
	}
}

// BlockSampler 代码块采样器
// 从提交文档中选出一个代表性的连续代码块：
// 优先选择以结构标记开头的逻辑块，没有合法候选时退化为随机切片
type BlockSampler struct {
	config Config
	rng    *rand.Rand // 注入的随机源，nil时使用进程级随机源
	mu     sync.Mutex // 保护rng，rand.Rand本身不是并发安全的
}

// Option 采样器配置选项
type Option func(*BlockSampler)

// WithRand 注入自定义随机源
func WithRand(rng *rand.Rand) Option {
	return func(s *BlockSampler) {
		s.rng = rng
	}
}

// WithSeed 使用固定种子的随机源，保证采样结果可复现
func WithSeed(seed int64) Option {
	return func(s *BlockSampler) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithMaxLines 设置单个代码块的最大行数
func WithMaxLines(maxLines int) Option {
	return func(s *BlockSampler) {
		s.config.MaxLines = maxLines
	}
}

// WithMarkers 设置结构标记模式
func WithMarkers(markers ...string) Option {
	return func(s *BlockSampler) {
		s.config.Markers = markers
	}
}

// WithClosers 设置结束定界模式
func WithClosers(closers ...string) Option {
	return func(s *BlockSampler) {
		s.config.Closers = closers
	}
}

// NewBlockSampler 创建代码块采样器
// 非法配置在这里规范化而不是报错：采样器对任何输入都不失败
func NewBlockSampler(config Config, opts ...Option) *BlockSampler {
	s := &BlockSampler{
		config: config,
	}

	// 应用配置选项
	for _, opt := range opts {
		opt(s)
	}

	// 规范化最大行数：零值使用默认值，小于下限时收紧到下限
	if s.config.MaxLines == 0 {
		s.config.MaxLines = DefaultMaxLines
	}
	if s.config.MaxLines < MinBlockLines {
		s.config.MaxLines = MinBlockLines
	}

	// 未指定模式时使用默认模式
	if len(s.config.Markers) == 0 {
		s.config.Markers = DefaultMarkers()
	}
	if len(s.config.Closers) == 0 {
		s.config.Closers = DefaultClosers()
	}

	return s
}

// MaxLines 返回规范化后的最大块行数
func (s *BlockSampler) MaxLines() int {
	return s.config.MaxLines
}

// Sample 从文档行中采样一个代码块
// 有合法候选时在候选中等概率随机选择一个，否则返回随机回退切片
func (s *BlockSampler) Sample(lines []string) Block {
	candidates := s.Candidates(lines)
	if len(candidates) > 0 {
		return candidates[s.intn(len(candidates))]
	}

	return s.fallbackSlice(lines)
}

// SampleText 采样的文本接口：输入完整提交文本，返回选中代码块的文本
// 对任何输入都不失败，空输入返回空字符串
func (s *BlockSampler) SampleText(text string) string {
	if text == "" {
		return ""
	}

	// 规范化换行符后按行切分
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	return s.Sample(lines).Text()
}

// Candidates 扫描整个文档，收集所有行数在[MinBlockLines, MaxLines]内的候选块
// 扫描总是从标记行的下一行继续，候选块之间允许互相重叠
func (s *BlockSampler) Candidates(lines []string) []Block {
	var candidates []Block

	for i := 0; i < len(lines); i++ {
		if !s.isMarkerLine(lines[i]) {
			continue
		}

		block := s.extendBlock(lines, i)
		if n := block.LineCount(); n >= MinBlockLines && n <= s.config.MaxLines {
			candidates = append(candidates, block)
		}
	}

	return candidates
}

// extendBlock 从标记行开始向下扩展代码块
// 扩展在块达到最大行数、文档结束或纳入一个结束定界行后停止
func (s *BlockSampler) extendBlock(lines []string, start int) Block {
	end := start + 1
	for end < len(lines) && end-start < s.config.MaxLines {
		line := lines[end]
		end++
		// 结束定界行本身计入块内，纳入后立即停止扩展
		if s.isCloserLine(line) {
			break
		}
	}

	return Block{
		Start:  start,
		End:    end,
		Lines:  lines[start:end],
		Source: SourceMarker,
	}
}

// fallbackSlice 在没有合法候选块时随机截取一段连续行
// 起点在[0, n-MinBlockLines]内均匀选取（n过小时固定为0），
// 长度在[MinBlockLines, MaxLines]内均匀选取，终点收紧到文档末尾。
// 文档不足MinBlockLines行时结果可能短于下限甚至为空，这是接受的退化行为
func (s *BlockSampler) fallbackSlice(lines []string) Block {
	n := len(lines)

	start := 0
	if n >= MinBlockLines {
		start = s.intn(n - MinBlockLines + 1)
	}

	length := MinBlockLines + s.intn(s.config.MaxLines-MinBlockLines+1)
	end := start + length
	if end > n {
		end = n
	}

	return Block{
		Start:  start,
		End:    end,
		Lines:  lines[start:end],
		Source: SourceFallback,
	}
}

// isMarkerLine 判断一行去除首尾空白后是否含有结构标记
func (s *BlockSampler) isMarkerLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	for _, marker := range s.config.Markers {
		if containsWord(trimmed, marker) {
			return true
		}
	}

	return false
}

// isCloserLine 判断一行去除首尾空白后是否以结束定界模式开头
func (s *BlockSampler) isCloserLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, closer := range s.config.Closers {
		if strings.HasPrefix(trimmed, closer) {
			return true
		}
	}

	return false
}

// intn 返回[0, n)内的随机整数
// 未注入随机源时退回到进程级随机源
func (s *BlockSampler) intn(n int) int {
	if s.rng != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.rng.Intn(n)
	}

	return rand.Intn(n)
}

// containsWord 判断pattern是否以独立单词的形式出现在text中
// pattern自带的尾部空格提供右边界，这里只需检查左侧不是标识符字符
func containsWord(text, pattern string) bool {
	for offset := 0; offset <= len(text)-len(pattern); {
		idx := strings.Index(text[offset:], pattern)
		if idx < 0 {
			return false
		}

		pos := offset + idx
		if pos == 0 {
			return true
		}

		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if !isIdentRune(prev) {
			return true
		}

		offset = pos + 1
	}

	return false
}

// isIdentRune 判断字符是否可以出现在标识符中
func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
