package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragquiz/internal/ai"
	appsvc "ragquiz/internal/app"
	"ragquiz/internal/cache"
	"ragquiz/internal/config"
	"ragquiz/internal/platform/logger"
	mysqlClient "ragquiz/internal/platform/mysql"
	rabbitmqClient "ragquiz/internal/platform/rabbitmq"
	redisClient "ragquiz/internal/platform/redis"
	"ragquiz/internal/rag"
	"ragquiz/internal/repository"
	"ragquiz/internal/vectorstore"
	"ragquiz/internal/websearch"
	"ragquiz/internal/worker"
)

// embeddingBackend is what both the OpenAI-compatible and Ollama embedders
// provide.
type embeddingBackend interface {
	cache.NamedEmbedder
	appsvc.BatchEmbedder
}

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	VectorStore  *vectorstore.Store
	RecordWorker *worker.RecordPersistWorker

	Documents   *appsvc.DocumentService
	Generations *appsvc.GenerationService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	var err error
	a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN(), a.Logger)
	if err != nil {
		return err
	}

	a.Redis, err = redisClient.New(ctx, redisClient.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.App.Name)
	if err != nil {
		return err
	}

	model, embedder, err := newAIBackends(cfg)
	if err != nil {
		return err
	}
	embeddingCache := cache.NewEmbeddingCache(a.Redis, time.Duration(cfg.Redis.EmbeddingTTLSeconds)*time.Second)
	queryEmbedder := cache.NewCachedEmbedder(embedder, embeddingCache, a.Logger.Named("embedding"))

	a.VectorStore, err = vectorstore.Open(vectorstore.Config{
		Path:       cfg.VectorDB.Path,
		Compress:   cfg.VectorDB.Compress,
		Collection: cfg.VectorDB.Collection,
	}, queryEmbedder)
	if err != nil {
		return err
	}
	retriever := vectorstore.NewMMRRetriever(a.VectorStore, queryEmbedder, vectorstore.MMRConfig{
		K:      cfg.Retrieval.K,
		FetchK: cfg.Retrieval.FetchK,
		Lambda: cfg.Retrieval.Lambda,
	})

	search := websearch.NewTavilyClient(websearch.TavilyConfig{
		BaseURL:     cfg.Search.BaseURL,
		APIKey:      cfg.Search.APIKey,
		SearchDepth: cfg.Search.SearchDepth,
		Timeout:     time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
	})

	generator, err := rag.NewGenerator(rag.Dependencies{
		Retriever: retriever,
		Embedder:  queryEmbedder,
		Model:     model,
		Search:    search,
		Logger:    a.Logger.Named("rag"),
	})
	if err != nil {
		return fmt.Errorf("init generator failed: %w", err)
	}

	documentRepo := repository.NewDocumentRepository(a.MySQL)
	recordRepo := repository.NewGenerationRecordRepository(a.MySQL)

	a.RecordWorker = worker.NewRecordPersistWorker(a.MQConn, recordRepo, cfg.RabbitMQ.GenerationRecordQueue, a.Logger.Named("worker"))
	if err := a.RecordWorker.Start(ctx); err != nil {
		return fmt.Errorf("start record worker failed: %w", err)
	}
	publisher := rabbitmqClient.NewRecordPublisher(a.MQConn, cfg.RabbitMQ.GenerationRecordQueue)

	a.Documents = appsvc.NewDocumentService(
		a.VectorStore,
		documentRepo,
		embedder,
		cfg.VectorDB.ChunkSize,
		cfg.VectorDB.ChunkOverlap,
		a.Logger.Named("documents"),
	)
	a.Generations = appsvc.NewGenerationService(generator, publisher, recordRepo, appsvc.GenerationSettings{
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		FallbackMaxResults:  cfg.Search.MaxResults,
		DefaultNumQuestions: cfg.Generation.DefaultNumQuestions,
		UseWebFallback:      cfg.Generation.UseWebFallback,
	}, a.Logger.Named("generation"))

	a.Logger.Info("application initialised",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", embedder.Name()),
		zap.Int("indexed_chunks", a.VectorStore.Count()),
	)
	return nil
}

func newAIBackends(cfg *config.Config) (rag.GenerativeModel, embeddingBackend, error) {
	var (
		ollamaModel    *ai.OllamaModel
		ollamaEmbedder *ai.OllamaEmbedder
	)
	if cfg.LLM.Provider == "ollama" || cfg.Embedding.Provider == "ollama" {
		var err error
		ollamaModel, ollamaEmbedder, err = ai.NewOllama(ai.OllamaConfig{
			ServerURL:      cfg.Ollama.ServerURL,
			Model:          cfg.Ollama.Model,
			EmbeddingModel: cfg.Ollama.EmbeddingModel,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	client := ai.NewOpenAICompatibleClient(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)

	var model rag.GenerativeModel = ollamaModel
	if cfg.LLM.Provider != "ollama" {
		model = ai.NewChatModel(client, ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		})
	}

	var embedder embeddingBackend = ollamaEmbedder
	if cfg.Embedding.Provider != "ollama" {
		embedder = ai.NewEmbeddingModel(client, ai.EmbeddingConfig{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey,
			Model:   cfg.Embedding.Model,
		})
	}
	return model, embedder, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.RecordWorker != nil {
		a.RecordWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
