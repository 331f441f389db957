package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ccode104/Lab-Assistant/internal/cache"
	"github.com/Ccode104/Lab-Assistant/internal/embedding"
	"github.com/Ccode104/Lab-Assistant/internal/llm"
	"github.com/Ccode104/Lab-Assistant/internal/models"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/Ccode104/Lab-Assistant/internal/vectordb"
	"github.com/google/uuid"
)

// QuizService 检查问题服务
// 负责协调问题库、向量检索和大模型评估
type QuizService struct {
	questionRepo   repository.QuestionRepository   // 问题仓储
	submissionRepo repository.SubmissionRepository // 提交仓储
	generator      *llm.Generator                  // 问题生成器
	embedder       embedding.Client                // 嵌入模型客户端
	vectorDB       vectordb.Repository             // 向量数据库
	cache          cache.Cache                     // 缓存
	reviewRepo     repository.ReviewRepository     // 检查会话仓储，提问历史用
	cacheTTL       time.Duration                   // 缓存有效期
	searchLimit    int                             // 搜索结果数量限制
	minScore       float32                         // 最低相似度分数
}

// QuizOption 检查问题服务配置选项
type QuizOption func(*QuizService)

// NewQuizService 创建检查问题服务实例
func NewQuizService(
	questionRepo repository.QuestionRepository,
	submissionRepo repository.SubmissionRepository,
	generator *llm.Generator,
	embedder embedding.Client,
	vectorDB vectordb.Repository,
	cache cache.Cache,
	opts ...QuizOption,
) *QuizService {
	// 创建服务实例
	service := &QuizService{
		questionRepo:   questionRepo,
		submissionRepo: submissionRepo,
		generator:      generator,
		embedder:       embedder,
		vectorDB:       vectorDB,
		cache:          cache,
		cacheTTL:       24 * time.Hour, // 默认缓存24小时
		searchLimit:    5,              // 默认检索5个相关问题
		minScore:       0.7,            // 默认最低相似度分数
	}

	// 应用配置选项
	for _, opt := range opts {
		opt(service)
	}

	return service
}

// WithCacheTTL 设置缓存时间
func WithCacheTTL(ttl time.Duration) QuizOption {
	return func(s *QuizService) {
		s.cacheTTL = ttl
	}
}

// WithSearchLimit 设置搜索结果数量
func WithSearchLimit(limit int) QuizOption {
	return func(s *QuizService) {
		s.searchLimit = limit
	}
}

// WithMinScore 设置最低相似度分数
func WithMinScore(score float32) QuizOption {
	return func(s *QuizService) {
		s.minScore = score
	}
}

// WithReviewRepository 设置检查会话仓储
// 配置后可以从检查记录中查询提问历史
func WithReviewRepository(repo repository.ReviewRepository) QuizOption {
	return func(s *QuizService) {
		s.reviewRepo = repo
	}
}

// QuestionMatch 语义搜索命中的问题
type QuestionMatch struct {
	Question *models.QuizQuestion // 命中的问题
	Score    float32              // 相似度分数
}

// QuestionsForSubmission 获取提交的检查问题列表
// 问题库为空时根据已采样的代码块现场生成
func (s *QuizService) QuestionsForSubmission(ctx context.Context, submissionID string) ([]*models.QuizQuestion, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submissionID cannot be empty")
	}

	// 1. 尝试从缓存获取
	cacheKey := cache.GenerateCacheKey("quiz_questions", submissionID)
	cached, found, err := s.cache.Get(cacheKey)
	if err == nil && found {
		var questions []*models.QuizQuestion
		if err := json.Unmarshal([]byte(cached), &questions); err != nil {
			// 解析失败就回库查询，不影响主流程
			fmt.Printf("Failed to unmarshal cached questions: %v\n", err)
		} else {
			return questions, nil
		}
	}

	// 2. 从数据库读取已生成的问题
	questions, err := s.questionRepo.WithContext(ctx).GetBySubmission(submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	// 3. 问题库为空时根据代码块现场生成
	if len(questions) == 0 {
		questions, err = s.generateForSubmission(ctx, submissionID)
		if err != nil {
			return nil, err
		}
	}

	// 4. 缓存结果
	if data, err := json.Marshal(questions); err == nil {
		s.cache.Set(cacheKey, string(data), s.cacheTTL)
	}

	return questions, nil
}

// QuestionsForBlock 获取指定代码块的检查问题列表
func (s *QuizService) QuestionsForBlock(ctx context.Context, blockID string) ([]*models.QuizQuestion, error) {
	if blockID == "" {
		return nil, fmt.Errorf("blockID cannot be empty")
	}

	questions, err := s.questionRepo.WithContext(ctx).GetByBlock(blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	return questions, nil
}

// EvaluateAnswer 评估学生对检查问题的回答
func (s *QuizService) EvaluateAnswer(ctx context.Context, questionID string, answer string) (*llm.Evaluation, error) {
	if questionID == "" {
		return nil, fmt.Errorf("questionID cannot be empty")
	}
	if answer == "" {
		return nil, fmt.Errorf("answer cannot be empty")
	}

	// 1. 尝试从缓存获取
	cacheKey := cache.GenerateCacheKey("quiz_eval", questionID, answer)
	cached, found, err := s.cache.Get(cacheKey)
	if err == nil && found {
		var eval llm.Evaluation
		if err := json.Unmarshal([]byte(cached), &eval); err != nil {
			// 解析失败就重新评估，不影响主流程
			fmt.Printf("Failed to unmarshal cached evaluation: %v\n", err)
		} else {
			return &eval, nil
		}
	}

	// 2. 加载问题及其对应的代码块
	question, err := s.questionRepo.WithContext(ctx).GetByQuestionID(questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	block, err := s.submissionRepo.GetBlockByID(question.BlockID)
	if err != nil {
		return nil, fmt.Errorf("failed to load code block: %w", err)
	}

	// 3. 调用大模型对照代码块评估回答
	eval, err := s.generator.EvaluateAnswer(ctx, block.Text, question.Text, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate answer: %w", err)
	}

	// 记录提问次数，失败不影响评估结果
	if err := s.questionRepo.IncrementAsked(questionID); err != nil {
		fmt.Printf("Failed to increment asked count: %v\n", err)
	}

	// 4. 缓存评估结果
	if data, err := json.Marshal(eval); err == nil {
		s.cache.Set(cacheKey, string(data), s.cacheTTL)
	}

	return eval, nil
}

// QuestionContext 加载问题及其对应的代码块
// 检查会话记录问答时需要问题原文和代码块引用
func (s *QuizService) QuestionContext(ctx context.Context, questionID string) (*models.QuizQuestion, *models.CodeBlock, error) {
	if questionID == "" {
		return nil, nil, fmt.Errorf("questionID cannot be empty")
	}

	question, err := s.questionRepo.WithContext(ctx).GetByQuestionID(questionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load question: %w", err)
	}

	block, err := s.submissionRepo.GetBlockByID(question.BlockID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load code block: %w", err)
	}

	return question, block, nil
}

// SearchQuestions 在问题库中按语义检索问题
// submissionID非空时只搜索指定提交的问题
func (s *QuizService) SearchQuestions(ctx context.Context, query string, submissionID string) ([]QuestionMatch, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	// 1. 将查询转换为向量
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	// 2. 检索问题向量索引
	filter := vectordb.SearchFilter{
		MinScore:   s.minScore,
		MaxResults: s.searchLimit,
	}
	if submissionID != "" {
		filter.FileIDs = []string{submissionID}
	}
	results, err := s.vectorDB.Search(vector, filter)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	// 只保留相似度高于阈值的结果
	var filteredResults []vectordb.SearchResult
	for _, result := range results {
		if result.Score >= s.minScore {
			filteredResults = append(filteredResults, result)
		}
	}
	if len(filteredResults) == 0 {
		return []QuestionMatch{}, nil
	}

	// 3. 根据向量ID回库获取完整问题记录
	vectorIDs := make([]string, len(filteredResults))
	for i, result := range filteredResults {
		vectorIDs[i] = result.Document.ID
	}
	questions, err := s.questionRepo.WithContext(ctx).GetByVectorIDs(vectorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	byVectorID := make(map[string]*models.QuizQuestion, len(questions))
	for _, question := range questions {
		byVectorID[question.VectorID] = question
	}

	// 4. 按检索顺序组装结果，跳过库中已删除的问题
	matches := make([]QuestionMatch, 0, len(filteredResults))
	for _, result := range filteredResults {
		question, ok := byVectorID[result.Document.ID]
		if !ok {
			continue
		}
		matches = append(matches, QuestionMatch{
			Question: question,
			Score:    result.Score,
		})
	}

	return matches, nil
}

// RecentQuestions 获取最近提出过的检查问题
// 从检查会话的考官消息中提取，未配置会话仓储时返回空列表
func (s *QuizService) RecentQuestions(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.reviewRepo == nil {
		return []string{}, nil
	}

	// 考官消息和学生回答、评语交错存储，多取一些再过滤
	messages, err := s.reviewRepo.WithContext(ctx).GetRecentMessages(limit * 3)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}

	questions := make([]string, 0, limit)
	for _, msg := range messages {
		if msg.Role != models.RoleExaminer {
			continue
		}
		questions = append(questions, msg.Content)
		if len(questions) >= limit {
			break
		}
	}

	return questions, nil
}

// ClearCache 清除问题服务缓存
func (s *QuizService) ClearCache() error {
	return s.cache.Clear()
}

// generateForSubmission 为提交的代码块现场生成检查问题
// 处理流水线没有产出问题时的兜底路径
func (s *QuizService) generateForSubmission(ctx context.Context, submissionID string) ([]*models.QuizQuestion, error) {
	blocks, err := s.submissionRepo.GetBlocks(submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load code blocks: %w", err)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no code blocks found for submission %s", submissionID)
	}

	questions := make([]*models.QuizQuestion, 0, len(blocks)*2)
	for _, block := range blocks {
		set, err := s.generator.GenerateQuestions(ctx, block.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to generate questions for block %s: %w", block.BlockID, err)
		}

		for j, text := range set.Questions {
			questionID := uuid.New().String()
			questions = append(questions, &models.QuizQuestion{
				QuestionID:   questionID,
				SubmissionID: submissionID,
				BlockID:      block.BlockID,
				Position:     j,
				Text:         text,
				Difficulty:   models.DifficultyBasic,
				VectorID:     questionID,
			})
		}
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions generated for submission %s", submissionID)
	}

	if err := s.questionRepo.WithContext(ctx).SaveQuestions(questions); err != nil {
		return nil, fmt.Errorf("failed to save questions: %w", err)
	}

	// 向量化失败只影响语义搜索，不影响问题返回
	if err := s.indexQuestions(ctx, submissionID, questions); err != nil {
		fmt.Printf("Failed to index questions: %v\n", err)
	}

	return questions, nil
}

// indexQuestions 将问题写入向量索引供语义搜索使用
func (s *QuizService) indexQuestions(ctx context.Context, submissionID string, questions []*models.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	// 文件名用于搜索结果展示，取不到不算错误
	fileName := ""
	if sub, err := s.submissionRepo.GetByID(submissionID); err == nil {
		fileName = sub.FileName
	}

	texts := make([]string, len(questions))
	for i, question := range questions {
		texts[i] = question.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(questions) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(questions))
	}

	docs := make([]vectordb.Document, len(questions))
	for i, question := range questions {
		docs[i] = vectordb.Document{
			ID:        question.VectorID,
			FileID:    submissionID,
			FileName:  fileName,
			Position:  question.Position,
			Text:      question.Text,
			Vector:    vectors[i],
			CreatedAt: time.Now(),
			Metadata: map[string]interface{}{
				"block_id":   question.BlockID,
				"difficulty": string(question.Difficulty),
			},
		}
	}

	if err := s.vectorDB.AddBatch(docs); err != nil {
		return fmt.Errorf("failed to add vectors: %w", err)
	}

	return nil
}
