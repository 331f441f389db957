package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Ccode104/Lab-Assistant/api"
	"github.com/Ccode104/Lab-Assistant/api/middleware"

	"github.com/Ccode104/Lab-Assistant/api/handler"
	appconfig "github.com/Ccode104/Lab-Assistant/config"
	"github.com/Ccode104/Lab-Assistant/internal/cache"
	"github.com/Ccode104/Lab-Assistant/internal/database"
	"github.com/Ccode104/Lab-Assistant/internal/document"
	"github.com/Ccode104/Lab-Assistant/internal/embedding"
	"github.com/Ccode104/Lab-Assistant/internal/llm"
	"github.com/Ccode104/Lab-Assistant/internal/repository"
	"github.com/Ccode104/Lab-Assistant/internal/sampler"
	"github.com/Ccode104/Lab-Assistant/internal/services"
	"github.com/Ccode104/Lab-Assistant/internal/vectordb"
	"github.com/Ccode104/Lab-Assistant/pkg/storage"
	"github.com/Ccode104/Lab-Assistant/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 配置选项
type config struct {
	Host         string        // 监听地址
	Port         int           // 服务端口
	Mode         string        // 运行模式 (debug/release)
	LogLevel     string        // 日志级别
	LogFile      string        // 日志文件路径
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时

	// 存储配置
	StorageType    string // 存储类型 (local/minio)
	StoragePath    string // 本地文件存储路径
	MinioEndpoint  string // MinIO端点
	MinioBucket    string // MinIO桶名称
	MinioAccessKey string // MinIO访问密钥
	MinioSecretKey string // MinIO秘密密钥
	MinioUseSSL    bool   // MinIO是否使用SSL

	// 向量数据库配置
	VectorDBPath    string // 向量数据库路径
	VectorDimension int    // 向量维度

	// 嵌入模型配置
	EmbedProvider   string // 嵌入提供商
	EmbeddingModel  string // 嵌入模型名称
	EmbeddingAPIKey string // 嵌入API密钥
	EmbedEndpoint   string // 嵌入服务端点
	EmbedBatchSize  int    // 嵌入批处理大小

	// 大语言模型配置
	LLMProvider    string  // LLM提供商
	LLMModel       string  // 大语言模型名称
	LLMAPIKey      string  // 大语言模型API密钥
	LLMEndpoint    string  // LLM服务端点
	LLMMaxTokens   int     // 生成内容的最大token数
	LLMTemperature float32 // 生成温度

	// 代码块采样配置
	MaxBlockLines  int      // 代码块最大行数
	BlockCount     int      // 每份提交抽取的代码块数量
	SamplerSeed    int64    // 采样随机种子，0表示按时间生成
	SamplerMarkers []string // 结构标记模式，仅来自配置文件，空时使用默认模式
	SamplerClosers []string // 结束定界模式，仅来自配置文件，空时使用默认模式

	// 检查问答配置
	PerBlock     int     // 每个代码块生成的问题数量
	MinScore     float32 // 搜索最低相似度分数
	SearchLimit  int     // 搜索结果数量限制
	QuizCacheTTL int     // 评估结果缓存时间(秒)

	CacheType   string // 缓存类型
	DataDir     string // 数据目录路径
	DatabaseDSN string // 数据库DSN，空时使用数据目录下的sqlite文件
	ConfigFile  string // 配置文件路径

	// 日志轮转配置
	LogMaxSize    int  // 单个日志文件最大尺寸(MB)
	LogMaxBackups int  // 保留的旧日志文件数量
	LogMaxAge     int  // 日志文件保留天数
	LogCompress   bool // 是否压缩旧日志

	// 任务队列相关配置
	QueueEnabled     bool          // 是否启用任务队列
	QueueType        string        // 任务队列类型
	RedisAddr        string        // Redis 地址
	RedisPassword    string        // Redis 密码
	RedisDB          int           // Redis 数据库编号
	QueueConcurrency int           // 任务队列处理并发数
	QueueRetryLimit  int           // 任务重试次数
	QueueRetryDelay  time.Duration // 任务重试延迟
}

func main() {
	// 加载.env文件(如果存在)
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file")
	}

	// 解析命令行参数
	cfg := parseFlags()

	// 加载配置文件(如果指定)
	var appConfig *appconfig.Config
	var err error
	if cfg.ConfigFile != "" {
		appConfig, err = appconfig.Load(cfg.ConfigFile)
		if err != nil {
			log.Printf("Warning: Failed to load config file: %v, using command line args", err)
		} else {
			// 使用配置文件中的值更新相关设置
			updateConfigFromFile(&cfg, appConfig)
		}
	}

	// 设置Gin模式
	gin.SetMode(cfg.Mode)

	// 初始化日志
	logger := setupLogger(cfg)
	logger.Info("Starting Lab Assistant...")

	// 初始化数据库
	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 创建文件存储服务
	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 创建向量数据库
	vectorDB, err := setupVectorDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize vector database: %v", err)
	}
	defer vectorDB.Close()

	// 创建嵌入客户端
	embeddingClient, err := setupEmbedding(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}

	// 创建大语言模型客户端
	llmClient, err := setupLLM(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// 创建缓存服务
	cacheService, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	// 初始化任务队列（如果启用）
	var queue taskqueue.Queue
	if cfg.QueueEnabled {
		queue, err = setupTaskQueue(cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		logger.Info("Task queue initialized successfully")
	}

	// 创建文本分段器，按行切分以保留行号
	splitter := document.NewTextSplitter(document.DefaultSplitterConfig())

	// 创建代码块采样器
	blockSampler := setupSampler(cfg)

	// 创建检查问题生成器
	generator := llm.NewGenerator(llmClient,
		llm.WithQuestionCount(cfg.PerBlock),
	)

	// 初始化业务服务
	var repo repository.SubmissionRepository
	if queue != nil {
		// 如果启用了任务队列，使用带队列的仓储
		repo = repository.NewSubmissionRepositoryWithQueue(database.MustDB(), queue)
		logger.Info("Using submission repository with task queue")
	} else {
		repo = repository.NewSubmissionRepository()
	}
	questionRepo := repository.NewQuestionRepository()
	reviewRepo := repository.NewReviewRepository()

	statusManager := services.NewSubmissionStatusManager(repo, logger)

	// 创建提交服务，根据是否启用队列进行配置
	submissionServiceOptions := []services.SubmissionOption{
		services.WithSubmissionRepository(repo),
		services.WithQuestionRepository(questionRepo),
		services.WithStatusManager(statusManager),
		services.WithSampleCount(cfg.BlockCount),
		services.WithBatchSize(16),
		services.WithLogger(logger),
	}

	// 如果启用了队列，添加相关选项
	if queue != nil {
		submissionServiceOptions = append(submissionServiceOptions,
			services.WithTaskQueue(queue),
			services.WithAsyncProcessing(true),
		)
		logger.Info("Submission processing will use async task queue")
	}

	submissionService := services.NewSubmissionService(
		fileStorage,
		nil, // document.Parser通过调用ParserFactory动态创建
		splitter,
		blockSampler,
		generator,
		embeddingClient,
		vectorDB,
		submissionServiceOptions...,
	)

	quizService := services.NewQuizService(
		questionRepo,
		repo,
		generator,
		embeddingClient,
		vectorDB,
		cacheService,
		services.WithMinScore(cfg.MinScore),
		services.WithSearchLimit(cfg.SearchLimit),
		services.WithCacheTTL(time.Duration(cfg.QuizCacheTTL)*time.Second),
		services.WithReviewRepository(reviewRepo),
	)

	reviewService := services.NewReviewService(reviewRepo)

	// 启动任务工作者（如果启用了队列）
	if queue != nil {
		worker, err := setupTaskWorker(queue, submissionService, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task worker: %v", err)
		}
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Task worker started")
	}

	// 初始化API处理器
	subHandler := handler.NewSubmissionHandler(submissionService, fileStorage)
	quizHandler := handler.NewQuizHandler(quizService)
	reviewHandler := handler.NewReviewHandler(reviewService, quizService)

	var taskHandler *handler.TaskHandler
	if queue != nil {
		taskHandler = handler.NewTaskHandler(queue)
	}

	// 设置路由
	r := api.SetupRouter(subHandler, quizHandler, reviewHandler, taskHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// 优雅关闭
	go func() {
		// 启动服务
		logger.Infof("Server is running on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// parseFlags 解析命令行参数
func parseFlags() config {
	cfg := config{}

	// 服务配置
	flag.StringVar(&cfg.Host, "host", "", "Listen address (empty for all interfaces)")
	flag.IntVar(&cfg.Port, "port", 8080, "Server port")
	flag.StringVar(&cfg.Mode, "mode", "debug", "Run mode (debug/release)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Log file path (empty for stdout only)")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", 30*time.Second, "Read timeout")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", 30*time.Second, "Write timeout")

	// 存储配置
	flag.StringVar(&cfg.StorageType, "storage-type", "local", "Storage type (local/minio)")
	flag.StringVar(&cfg.StoragePath, "storage", "./data/files", "File storage path")

	// 向量数据库配置
	flag.StringVar(&cfg.VectorDBPath, "vectordb", "./data/vectordb", "Vector database path")
	flag.IntVar(&cfg.VectorDimension, "dim", 768, "Vector dimension")

	// 嵌入模型配置
	flag.StringVar(&cfg.EmbedProvider, "embed-provider", "ollama", "Embedding provider (ollama/openai)")
	flag.StringVar(&cfg.EmbeddingModel, "embed-model", "nomic-embed-text", "Embedding model name")
	flag.StringVar(&cfg.EmbeddingAPIKey, "embed-key", "", "Embedding API key")
	flag.StringVar(&cfg.EmbedEndpoint, "embed-url", "", "Embedding service endpoint")

	// LLM配置
	flag.StringVar(&cfg.LLMProvider, "llm-provider", "ollama", "LLM provider (ollama/openai)")
	flag.StringVar(&cfg.LLMModel, "llm-model", "qwen2.5-coder", "LLM model name")
	flag.StringVar(&cfg.LLMAPIKey, "llm-key", "", "LLM API key")
	flag.StringVar(&cfg.LLMEndpoint, "llm-url", "", "LLM service endpoint")

	// 代码块采样配置
	flag.IntVar(&cfg.MaxBlockLines, "max-lines", 8, "Maximum lines per sampled code block")
	flag.IntVar(&cfg.BlockCount, "blocks", 3, "Number of code blocks sampled per submission")
	flag.Int64Var(&cfg.SamplerSeed, "sampler-seed", 0, "Random seed for block sampling (0 for time-based)")

	// 检查问答配置
	flag.IntVar(&cfg.PerBlock, "per-block", 3, "Questions generated per code block")
	var minScore float64
	flag.Float64Var(&minScore, "min-score", 0.5, "Minimum similarity score for question search")
	flag.IntVar(&cfg.SearchLimit, "search-limit", 10, "Maximum results for question search")

	// 缓存配置
	flag.StringVar(&cfg.CacheType, "cache", "memory", "Cache type (memory/redis)")

	// 数据目录配置
	flag.StringVar(&cfg.DataDir, "data-dir", "./data", "Data directory path")

	// 配置文件
	flag.StringVar(&cfg.ConfigFile, "config", "", "Path to config file")

	// 任务队列配置
	flag.BoolVar(&cfg.QueueEnabled, "queue", false, "Enable task queue")
	flag.StringVar(&cfg.QueueType, "queue-type", "redis", "Task queue type (redis)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "Redis address for task queue")
	flag.StringVar(&cfg.RedisPassword, "redis-password", "", "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	flag.IntVar(&cfg.QueueConcurrency, "queue-concurrency", 10, "Task queue concurrency")
	flag.IntVar(&cfg.QueueRetryLimit, "queue-retry", 3, "Max retry attempts for failed tasks")
	flag.DurationVar(&cfg.QueueRetryDelay, "queue-retry-delay", time.Minute, "Delay between retry attempts")

	// 没有对应命令行参数的默认值，详细配置来自配置文件
	cfg.LLMMaxTokens = 1024
	cfg.LLMTemperature = 0.7
	cfg.EmbedBatchSize = 10
	cfg.QuizCacheTTL = 3600
	cfg.LogMaxSize = 100
	cfg.LogMaxBackups = 5
	cfg.LogMaxAge = 30
	cfg.LogCompress = true

	// 从环境变量获取配置（优先级高于命令行参数默认值）
	if key := os.Getenv("EMBEDDING_API_KEY"); key != "" {
		cfg.EmbeddingAPIKey = key
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLMAPIKey = key
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		cfg.EmbedEndpoint = url
		cfg.LLMEndpoint = url
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}

	flag.Parse()
	cfg.MinScore = float32(minScore)
	return cfg
}

// updateConfigFromFile 从配置文件更新命令行参数
func updateConfigFromFile(cfg *config, appConfig *appconfig.Config) {
	// 只更新未在命令行上明确设置的参数

	// 服务器配置
	if flag.Lookup("host").DefValue == cfg.Host {
		cfg.Host = appConfig.Server.Host
	}
	if flag.Lookup("port").DefValue == fmt.Sprint(cfg.Port) {
		cfg.Port = appConfig.Server.Port
	}

	// 存储配置
	if flag.Lookup("storage-type").DefValue == cfg.StorageType {
		cfg.StorageType = appConfig.Storage.Type
	}
	if flag.Lookup("storage").DefValue == cfg.StoragePath && appConfig.Storage.Path != "" {
		cfg.StoragePath = appConfig.Storage.Path
	}
	// MinIO参数没有对应的命令行参数，始终取配置文件的值
	cfg.MinioEndpoint = appConfig.Storage.Endpoint
	cfg.MinioBucket = appConfig.Storage.Bucket
	cfg.MinioAccessKey = appConfig.Storage.AccessKey
	cfg.MinioSecretKey = appConfig.Storage.SecretKey
	cfg.MinioUseSSL = appConfig.Storage.UseSSL

	// 向量数据库配置
	if flag.Lookup("vectordb").DefValue == cfg.VectorDBPath && appConfig.VectorDB.Path != "" {
		cfg.VectorDBPath = appConfig.VectorDB.Path
	}
	if flag.Lookup("dim").DefValue == fmt.Sprint(cfg.VectorDimension) && appConfig.VectorDB.Dim > 0 {
		cfg.VectorDimension = appConfig.VectorDB.Dim
	}

	// 嵌入模型配置
	if flag.Lookup("embed-provider").DefValue == cfg.EmbedProvider && appConfig.Embed.Provider != "" {
		cfg.EmbedProvider = appConfig.Embed.Provider
	}
	if flag.Lookup("embed-model").DefValue == cfg.EmbeddingModel && appConfig.Embed.Model != "" {
		cfg.EmbeddingModel = appConfig.Embed.Model
	}
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = appConfig.Embed.APIKey
	}
	if cfg.EmbedEndpoint == "" {
		cfg.EmbedEndpoint = appConfig.Embed.Endpoint
	}
	if appConfig.Embed.BatchSize > 0 {
		cfg.EmbedBatchSize = appConfig.Embed.BatchSize
	}

	// LLM配置
	if flag.Lookup("llm-provider").DefValue == cfg.LLMProvider && appConfig.LLM.Provider != "" {
		cfg.LLMProvider = appConfig.LLM.Provider
	}
	if flag.Lookup("llm-model").DefValue == cfg.LLMModel && appConfig.LLM.Model != "" {
		cfg.LLMModel = appConfig.LLM.Model
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = appConfig.LLM.APIKey
	}
	if cfg.LLMEndpoint == "" {
		cfg.LLMEndpoint = appConfig.LLM.Endpoint
	}
	if appConfig.LLM.MaxTokens > 0 {
		cfg.LLMMaxTokens = appConfig.LLM.MaxTokens
	}
	if appConfig.LLM.Temperature > 0 {
		cfg.LLMTemperature = appConfig.LLM.Temperature
	}

	// 采样配置
	if flag.Lookup("max-lines").DefValue == fmt.Sprint(cfg.MaxBlockLines) && appConfig.Sampler.MaxLines > 0 {
		cfg.MaxBlockLines = appConfig.Sampler.MaxLines
	}
	if flag.Lookup("blocks").DefValue == fmt.Sprint(cfg.BlockCount) && appConfig.Sampler.BlockCount > 0 {
		cfg.BlockCount = appConfig.Sampler.BlockCount
	}
	if flag.Lookup("sampler-seed").DefValue == fmt.Sprint(cfg.SamplerSeed) {
		cfg.SamplerSeed = appConfig.Sampler.Seed
	}
	cfg.SamplerMarkers = appConfig.Sampler.Markers
	cfg.SamplerClosers = appConfig.Sampler.Closers

	// 检查问答配置
	if flag.Lookup("per-block").DefValue == fmt.Sprint(cfg.PerBlock) && appConfig.Quiz.PerBlock > 0 {
		cfg.PerBlock = appConfig.Quiz.PerBlock
	}
	if flag.Lookup("min-score").DefValue == fmt.Sprint(cfg.MinScore) {
		cfg.MinScore = appConfig.Quiz.MinScore
	}
	if flag.Lookup("search-limit").DefValue == fmt.Sprint(cfg.SearchLimit) && appConfig.Quiz.SearchLimit > 0 {
		cfg.SearchLimit = appConfig.Quiz.SearchLimit
	}
	if appConfig.Quiz.CacheTTL > 0 {
		cfg.QuizCacheTTL = appConfig.Quiz.CacheTTL
	}

	// 缓存配置
	if flag.Lookup("cache").DefValue == cfg.CacheType && appConfig.Cache.Type != "" {
		cfg.CacheType = appConfig.Cache.Type
	}

	// 数据库配置
	if appConfig.Database.DSN != "" {
		cfg.DatabaseDSN = appConfig.Database.DSN
	}

	// 日志配置
	if flag.Lookup("log-level").DefValue == cfg.LogLevel && appConfig.Logging.Level != "" {
		cfg.LogLevel = appConfig.Logging.Level
	}
	if cfg.LogFile == "" {
		cfg.LogFile = appConfig.Logging.File
	}
	if appConfig.Logging.MaxSize > 0 {
		cfg.LogMaxSize = appConfig.Logging.MaxSize
	}
	if appConfig.Logging.MaxBackups > 0 {
		cfg.LogMaxBackups = appConfig.Logging.MaxBackups
	}
	if appConfig.Logging.MaxAge > 0 {
		cfg.LogMaxAge = appConfig.Logging.MaxAge
	}
	cfg.LogCompress = appConfig.Logging.Compress

	// 任务队列配置
	if flag.Lookup("queue").DefValue == fmt.Sprint(cfg.QueueEnabled) {
		cfg.QueueEnabled = appConfig.Queue.Enable
	}
	if flag.Lookup("queue-type").DefValue == cfg.QueueType {
		cfg.QueueType = appConfig.Queue.Type
	}
	if flag.Lookup("redis-addr").DefValue == cfg.RedisAddr {
		cfg.RedisAddr = appConfig.Queue.RedisAddr
	}
	if flag.Lookup("redis-password").DefValue == cfg.RedisPassword {
		cfg.RedisPassword = appConfig.Queue.RedisPassword
	}
	if flag.Lookup("redis-db").DefValue == fmt.Sprint(cfg.RedisDB) {
		cfg.RedisDB = appConfig.Queue.RedisDB
	}
	if flag.Lookup("queue-concurrency").DefValue == fmt.Sprint(cfg.QueueConcurrency) {
		cfg.QueueConcurrency = appConfig.Queue.Concurrency
	}
	if flag.Lookup("queue-retry").DefValue == fmt.Sprint(cfg.QueueRetryLimit) {
		cfg.QueueRetryLimit = appConfig.Queue.RetryLimit
	}
	if appConfig.Queue.RetryDelay > 0 {
		cfg.QueueRetryDelay = time.Duration(appConfig.Queue.RetryDelay) * time.Second
	}
}

// setupLogger 设置日志系统
func setupLogger(cfg config) *logrus.Logger {
	logger := middleware.GetLogger()

	// 设置日志级别
	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// 配置了日志文件时，同时输出到控制台和轮转文件
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   cfg.LogCompress,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupStorage 设置文件存储服务
func setupStorage(cfg config) (storage.Storage, error) {
	// MinIO存储
	if cfg.StorageType == "minio" {
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
	}

	// 确保存储目录存在
	if err := os.MkdirAll(cfg.StoragePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	// 创建本地存储
	return storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.StoragePath,
	})
}

// setupVectorDB 设置向量数据库
func setupVectorDB(cfg config) (vectordb.Repository, error) {
	// 确保向量数据库目录存在
	if err := os.MkdirAll(filepath.Dir(cfg.VectorDBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector database directory: %v", err)
	}

	// 尝试创建FAISS向量数据库
	faissConfig := vectordb.Config{
		Type:              "faiss",
		Path:              cfg.VectorDBPath,
		Dimension:         cfg.VectorDimension,
		DistanceType:      vectordb.Cosine,
		CreateIfNotExists: true,
	}

	repo, err := vectordb.NewRepository(faissConfig)
	if err != nil {
		// 如果FAISS初始化失败，回退到内存实现
		log.Printf("Warning: Failed to initialize FAISS vector database: %v", err)
		log.Printf("Falling back to in-memory vector database")

		memoryConfig := vectordb.Config{
			Type:         "memory",
			Dimension:    cfg.VectorDimension,
			DistanceType: vectordb.Cosine,
		}
		return vectordb.NewRepository(memoryConfig)
	}

	return repo, nil
}

// setupSampler 设置代码块采样器
// 配置文件中自定义的标记和定界模式优先，空时采样器回落到默认模式
func setupSampler(cfg config) *sampler.BlockSampler {
	samplerConfig := sampler.Config{
		MaxLines: cfg.MaxBlockLines,
		Markers:  cfg.SamplerMarkers,
		Closers:  cfg.SamplerClosers,
	}

	// 固定种子用于可复现的采样，主要在调试时使用
	if cfg.SamplerSeed != 0 {
		return sampler.NewBlockSampler(samplerConfig, sampler.WithSeed(cfg.SamplerSeed))
	}
	return sampler.NewBlockSampler(samplerConfig)
}

// setupEmbedding 设置嵌入模型客户端
func setupEmbedding(cfg config) (embedding.Client, error) {
	if cfg.EmbedProvider == "openai" && cfg.EmbeddingAPIKey == "" {
		return nil, fmt.Errorf("embedding API key is required for openai provider")
	}

	return embedding.NewClient(embedding.Config{
		Provider:    cfg.EmbedProvider,
		APIKey:      cfg.EmbeddingAPIKey,
		BaseURL:     cfg.EmbedEndpoint,
		Model:       cfg.EmbeddingModel,
		Dimensions:  cfg.VectorDimension,
		BatchSize:   cfg.EmbedBatchSize,
		EnableCache: true,
	})
}

// setupLLM 设置大语言模型客户端
func setupLLM(cfg config) (llm.Client, error) {
	if cfg.LLMProvider == "openai" && cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM API key is required for openai provider")
	}

	opts := []llm.Option{
		llm.WithModel(cfg.LLMModel),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTemperature(cfg.LLMTemperature),
	}
	if cfg.LLMAPIKey != "" {
		opts = append(opts, llm.WithAPIKey(cfg.LLMAPIKey))
	}
	if cfg.LLMEndpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLMEndpoint))
	}

	return llm.NewClient(cfg.LLMProvider, opts...)
}

// setupCache 设置缓存服务
func setupCache(cfg config) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:            cfg.CacheType,
		DefaultTTL:      24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}

	// 如果配置了Redis，添加Redis配置
	if cfg.CacheType == "redis" {
		cacheConfig.RedisAddr = cfg.RedisAddr
		cacheConfig.RedisPassword = cfg.RedisPassword
		// Redis数据库编号默认为0
	}

	return cache.NewCache(cacheConfig)
}

// setupDatabase 设置数据库
func setupDatabase(cfg config, logger *logrus.Logger) error {
	dbPath := cfg.DatabaseDSN
	if dbPath == "" {
		dbPath = filepath.Join(cfg.DataDir, "labassistant.db")
	}

	// 确保数据目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %v", err)
	}

	// 初始化数据库
	dbConfig := &database.Config{
		Type: "sqlite",
		DSN:  dbPath,
	}

	return database.Setup(dbConfig, logger)
}

// setupTaskQueue 设置任务队列
func setupTaskQueue(cfg config, logger *logrus.Logger) (taskqueue.Queue, error) {
	if !cfg.QueueEnabled {
		return nil, nil
	}

	// 根据配置创建任务队列
	queueConfig := taskqueue.DefaultConfig()
	queueConfig.RedisAddr = cfg.RedisAddr
	queueConfig.RedisPassword = cfg.RedisPassword
	queueConfig.RedisDB = cfg.RedisDB
	queueConfig.Concurrency = cfg.QueueConcurrency
	queueConfig.RetryLimit = cfg.QueueRetryLimit
	queueConfig.RetryDelay = cfg.QueueRetryDelay

	logger.WithFields(logrus.Fields{
		"type":        cfg.QueueType,
		"redis_addr":  cfg.RedisAddr,
		"concurrency": cfg.QueueConcurrency,
		"retry_limit": cfg.QueueRetryLimit,
	}).Info("Setting up task queue")

	queue, err := taskqueue.NewQueue(cfg.QueueType, queueConfig)
	if err != nil {
		return nil, err
	}

	return queue, nil
}

// setupTaskWorker 设置任务工作者
// 提交解析、代码块采样和问题生成任务都由同一个处理器承接
func setupTaskWorker(queue taskqueue.Queue, submissionService *services.SubmissionService, logger *logrus.Logger) (taskqueue.Worker, error) {
	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		return nil, fmt.Errorf("task worker requires a redis queue")
	}

	worker := taskqueue.NewRedisWorker(redisQueue, nil)

	taskHandler := services.NewSubmissionTaskHandler(submissionService, logger)
	for _, taskType := range taskHandler.GetTaskTypes() {
		worker.RegisterHandler(taskType, taskHandler)
	}

	return worker, nil
}
