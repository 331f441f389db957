package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultQuestionTemplate 默认出题提示词模板
// 包含变量：
// {{.Code}} - 学生提交的代码块
// {{.Count}} - 期望的问题数量
const DefaultQuestionTemplate = `请你作为一名实验课助教，围绕下面这段学生提交的代码出{{.Count}}道口头检查问题。
问题要能检验学生是否真正理解自己写的代码，覆盖代码的意图、关键变量和控制流程。
不要给出答案，不要重复代码内容。

学生代码:
{{.Code}}

请严格按下面的格式输出，每行一道问题:
1. 第一道问题
2. 第二道问题`

// DeepQuestionTemplate 深挖模式的出题提示词模板
// 在基础问题之外追问边界条件、复杂度和改进空间
const DeepQuestionTemplate = `请你作为一名实验课助教，围绕下面这段学生提交的代码出{{.Count}}道口头检查问题。
先理解代码的意图和控制流程，再从以下角度出题：
1. 这段代码想解决什么问题
2. 关键变量和分支的作用
3. 边界条件下会发生什么
4. 时间复杂度以及可能的改进空间

不要给出答案，不要重复代码内容。

学生代码:
{{.Code}}

请严格按下面的格式输出，每行一道问题:
1. 第一道问题
2. 第二道问题`

// DefaultEvaluationTemplate 默认评估提示词模板
// 包含变量：
// {{.Code}} - 学生提交的代码块
// {{.Question}} - 检查问题
// {{.Answer}} - 学生的回答
const DefaultEvaluationTemplate = `请你作为一名实验课助教，根据下面的代码判断学生对检查问题的回答是否正确。
如果回答与代码实际行为不符，请指出来，不要猜测或编造信息。

学生代码:
{{.Code}}

检查问题: {{.Question}}

学生回答: {{.Answer}}

请严格按下面的JSON格式输出评估结果，不要输出任何其他内容:
{"score": 0到100的整数, "verdict": "correct或partial或incorrect", "feedback": "一句简短的中文反馈"}`

// GeneratorConfig 问题生成器配置
type GeneratorConfig struct {
	// 出题提示词模板
	QuestionTemplate string
	// 评估提示词模板
	EvaluationTemplate string
	// 每个代码块生成的问题数量
	QuestionCount int
	// 最大Token数
	MaxTokens int
	// 温度参数
	Temperature float32
	// 超时时间
	Timeout time.Duration
}

// DefaultGeneratorConfig 默认问题生成器配置
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		QuestionTemplate:   DefaultQuestionTemplate,
		EvaluationTemplate: DefaultEvaluationTemplate,
		QuestionCount:      3,
		MaxTokens:          2048,
		Temperature:        0.7,
		Timeout:            60 * time.Second,
	}
}

// Generator 实现检查问题生成服务
// 围绕采样出的代码块出题，并评估学生的口头回答
type Generator struct {
	Client Client           // 大模型客户端
	config *GeneratorConfig // 配置
	mu     sync.RWMutex     // 配置互斥锁
}

// NewGenerator 创建新的问题生成服务
func NewGenerator(client Client, opts ...GeneratorOption) *Generator {
	cfg := DefaultGeneratorConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Generator{
		Client: client,
		config: cfg,
	}
}

// GeneratorOption 问题生成器配置选项函数类型
type GeneratorOption func(*GeneratorConfig)

// WithQuestionTemplate 设置出题提示词模板
func WithQuestionTemplate(template string) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.QuestionTemplate = template
	}
}

// WithEvaluationTemplate 设置评估提示词模板
func WithEvaluationTemplate(template string) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.EvaluationTemplate = template
	}
}

// WithDeepQuestions 启用深挖出题模式
func WithDeepQuestions() GeneratorOption {
	return func(c *GeneratorConfig) {
		c.QuestionTemplate = DeepQuestionTemplate
	}
}

// WithQuestionCount 设置每个代码块的问题数量
func WithQuestionCount(count int) GeneratorOption {
	return func(c *GeneratorConfig) {
		if count > 0 {
			c.QuestionCount = count
		}
	}
}

// WithGeneratorMaxTokens 设置最大Token数
func WithGeneratorMaxTokens(tokens int) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.MaxTokens = tokens
	}
}

// WithGeneratorTemperature 设置温度参数
func WithGeneratorTemperature(temp float32) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.Temperature = temp
	}
}

// WithGeneratorTimeout 设置请求超时时间
func WithGeneratorTimeout(timeout time.Duration) GeneratorOption {
	return func(c *GeneratorConfig) {
		c.Timeout = timeout
	}
}

// GenerateQuestions 围绕代码块生成检查问题
func (g *Generator) GenerateQuestions(ctx context.Context, code string) (*QuestionSet, error) {
	if strings.TrimSpace(code) == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "code block cannot be empty")
	}

	g.mu.RLock()
	cfg := g.config
	g.mu.RUnlock()

	// 创建带超时的上下文
	ctxWithTimeout, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// 构建提示词
	prompt := g.buildQuestionPrompt(code)

	// 调用大模型生成问题
	response, err := g.Client.Generate(
		ctxWithTimeout,
		prompt,
		WithGenerateMaxTokens(cfg.MaxTokens),
		WithGenerateTemperature(cfg.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %v", err)
	}

	// 解析编号列表
	questions := parseQuestionList(response.Text)
	if len(questions) == 0 {
		return nil, NewLLMError(ErrCodeBadReply, "no questions found in model reply")
	}

	// 截断到期望的问题数量
	if len(questions) > cfg.QuestionCount {
		questions = questions[:cfg.QuestionCount]
	}

	return &QuestionSet{
		BlockText: code,
		Questions: questions,
	}, nil
}

// EvaluateAnswer 评估学生对检查问题的回答
func (g *Generator) EvaluateAnswer(ctx context.Context, code, question, answer string) (*Evaluation, error) {
	if strings.TrimSpace(question) == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "question cannot be empty")
	}
	if strings.TrimSpace(answer) == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "answer cannot be empty")
	}

	g.mu.RLock()
	cfg := g.config
	g.mu.RUnlock()

	// 创建带超时的上下文
	ctxWithTimeout, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// 构建提示词
	prompt := g.buildEvaluationPrompt(code, question, answer)

	// 评估需要稳定输出，温度固定用低值
	response, err := g.Client.Generate(
		ctxWithTimeout,
		prompt,
		WithGenerateMaxTokens(cfg.MaxTokens),
		WithGenerateTemperature(0.1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate answer: %v", err)
	}

	// 解析评估结果
	evaluation, err := parseEvaluation(response.Text)
	if err != nil {
		return nil, err
	}

	return evaluation, nil
}

// buildQuestionPrompt 构建出题提示词
func (g *Generator) buildQuestionPrompt(code string) string {
	g.mu.RLock()
	template := g.config.QuestionTemplate
	count := g.config.QuestionCount
	g.mu.RUnlock()

	// 简单的模板替换
	prompt := template
	prompt = strings.ReplaceAll(prompt, "{{.Code}}", code)
	prompt = strings.ReplaceAll(prompt, "{{.Count}}", strconv.Itoa(count))

	return prompt
}

// buildEvaluationPrompt 构建评估提示词
func (g *Generator) buildEvaluationPrompt(code, question, answer string) string {
	g.mu.RLock()
	template := g.config.EvaluationTemplate
	g.mu.RUnlock()

	prompt := template
	prompt = strings.ReplaceAll(prompt, "{{.Code}}", code)
	prompt = strings.ReplaceAll(prompt, "{{.Question}}", question)
	prompt = strings.ReplaceAll(prompt, "{{.Answer}}", answer)

	return prompt
}

// SetQuestionTemplate 设置自定义出题模板
func (g *Generator) SetQuestionTemplate(template string) *Generator {
	g.mu.Lock()
	g.config.QuestionTemplate = template
	g.mu.Unlock()
	return g
}

// parseQuestionList 从模型回复中解析编号问题列表
// 容忍常见的编号格式：1. / 1、/ 1) / - / Q1:
func parseQuestionList(text string) []string {
	var questions []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		question := stripListPrefix(line)
		if question == "" {
			continue
		}

		questions = append(questions, question)
	}

	return questions
}

// stripListPrefix 去掉一行开头的列表编号
// 不带编号的行视为模型的闲话，直接丢弃
func stripListPrefix(line string) string {
	// Q1: / q2. 风格
	rest := line
	if len(rest) > 1 && (rest[0] == 'Q' || rest[0] == 'q') {
		rest = rest[1:]
	}

	// 去掉数字
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}

	if i > 0 {
		// 数字后面必须跟分隔符
		rest = rest[i:]
		if rest == "" {
			return ""
		}
		switch rest[0] {
		case '.', ':', ')':
			return strings.TrimSpace(rest[1:])
		}
		if strings.HasPrefix(rest, "、") {
			return strings.TrimSpace(strings.TrimPrefix(rest, "、"))
		}
		return ""
	}

	// 无序列表风格
	if strings.HasPrefix(line, "- ") {
		return strings.TrimSpace(line[2:])
	}
	if strings.HasPrefix(line, "• ") {
		return strings.TrimSpace(strings.TrimPrefix(line, "• "))
	}

	return ""
}

// parseEvaluation 从模型回复中解析JSON评估结果
// 模型经常在JSON前后加说明文字，先截取最外层花括号再解析
func parseEvaluation(text string) (*Evaluation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, NewLLMError(ErrCodeBadReply, "no JSON object found in evaluation reply")
	}

	var evaluation Evaluation
	if err := json.Unmarshal([]byte(text[start:end+1]), &evaluation); err != nil {
		return nil, NewLLMError(ErrCodeBadReply,
			fmt.Sprintf("failed to parse evaluation reply: %v", err))
	}

	// 规范化评分和结论
	if evaluation.Score < 0 {
		evaluation.Score = 0
	}
	if evaluation.Score > 100 {
		evaluation.Score = 100
	}

	evaluation.Verdict = strings.ToLower(strings.TrimSpace(evaluation.Verdict))
	switch evaluation.Verdict {
	case VerdictCorrect, VerdictPartial, VerdictIncorrect:
		// 合法结论
	default:
		// 结论缺失或不合法时根据评分推断
		switch {
		case evaluation.Score >= 80:
			evaluation.Verdict = VerdictCorrect
		case evaluation.Score >= 40:
			evaluation.Verdict = VerdictPartial
		default:
			evaluation.Verdict = VerdictIncorrect
		}
	}

	return &evaluation, nil
}
