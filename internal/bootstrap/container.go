package bootstrap

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/controller"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/internal/service"
	"ai-bookrec-be/pkg/embedding"
	"ai-bookrec-be/pkg/enrich"
	"ai-bookrec-be/pkg/external"
	"ai-bookrec-be/pkg/intelligence"
	"ai-bookrec-be/pkg/llm/factory"
	"ai-bookrec-be/pkg/recs/intent"
	"ai-bookrec-be/pkg/recs/narrator"
	"ai-bookrec-be/pkg/recs/pipeline"
	"ai-bookrec-be/pkg/retrieval"
	"ai-bookrec-be/pkg/vectorindex"

	pktNats "ai-bookrec-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController
	BookController controller.IBookController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Index is exposed so main can snapshot it on shutdown.
	Index *vectorindex.Index
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := initPipelineLogger(cfg.App.PipelineLogPath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v (embedding cache degrades to local only)", err)
		rdb = nil
	}

	// Query embeddings are cached; repeated prompts skip the provider.
	cachedEmbeddings := embedding.NewCachedProvider(embeddingProvider, rdb)

	// 4. Vector Index
	index, err := vectorindex.LoadOrNew(cfg.Index.Path, cfg.Index.Dimension)
	if err != nil {
		if errors.Is(err, vectorindex.ErrCorruptIndex) {
			log.Fatalf("[FATAL] Vector index at %s is corrupt, refusing to start with a partial catalog: %v", cfg.Index.Path, err)
		}
		log.Fatalf("[FATAL] Failed to load vector index: %v", err)
	}
	log.Printf("[INFO] Vector index ready: %d books, dimension %d", index.Count(), index.Dimension())

	retrievalEngine := retrieval.NewEngine(index, retrieval.Config{
		SimilarityWeight: cfg.Retrieval.SimilarityWeight,
		MetadataWeight:   cfg.Retrieval.MetadataWeight,
		RatingWeight:     cfg.Retrieval.RatingWeight,
		PopularityWeight: cfg.Retrieval.PopularityWeight,
		MinSimilarity:    cfg.Retrieval.MinSimilarity,
	})

	// 5. Personalization Model
	scorer, err := intelligence.NewScorer(cfg.Index.CheckpointPath, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Personalization checkpoint at %s is unreadable: %v", cfg.Index.CheckpointPath, err)
	}

	// 6. Discovery Waterfall + Enrichment
	googleBooks := external.NewGoogleBooksSource(cfg.Keys.GoogleBooks)
	sources := []external.Source{
		external.NewOpenLibrarySource(),
		googleBooks,
		external.NewGenerativeSource(llmProvider),
	}
	waterfall := external.NewWaterfall(sources, nil, sysLogger)

	enricher := enrich.NewEnricher(
		service.NewDescriptionStore(uowFactory),
		googleBooks,
		llmProvider,
		sysLogger,
	)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Keys.EmbedBookTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedBookTopic,
		uowFactory,
		cachedEmbeddings,
		index,
		cfg.Index.Path,
	)

	bookService := service.NewBookService(
		uowFactory,
		publisherService,
		natsPub,
		enricher,
		waterfall,
	)
	// Discovered books flow back into the catalog.
	waterfall.AttachSink(bookService)

	recPipeline := pipeline.New(pipeline.Deps{
		Extractor: intent.NewExtractor(llmProvider, pipelineLogger),
		Embedder:  &queryEmbedder{provider: cachedEmbeddings},
		Retriever: retrievalEngine,
		Titles:    bookService,
		Waterfall: waterfall,
		Scorer:    scorer,
		Enricher:  enricher,
		Narrator:  narrator.NewNarrator(llmProvider, pipelineLogger),
		Logger:    pipelineLogger,
	})

	chatService := service.NewChatService(uowFactory, recPipeline, natsPub)

	// 8. Controllers
	return &Container{
		ChatController:  controller.NewChatController(chatService),
		BookController:  controller.NewBookController(bookService),
		ConsumerService: consumerService,
		Index:           index,
	}
}

// queryEmbedder adapts the embedding provider to the pipeline's narrow
// query-side contract.
type queryEmbedder struct {
	provider embedding.EmbeddingProvider
}

func (q *queryEmbedder) EmbedQuery(text string) ([]float32, error) {
	res, err := q.provider.Generate(text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}

func initPipelineLogger(logPath string) *log.Logger {
	if logPath == "" {
		logPath = filepath.Join(".", "logs", "pipeline.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[PIPELINE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
