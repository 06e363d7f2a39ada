package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/documind-ai/documind/internal/config"
	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
	"github.com/documind-ai/documind/internal/core/usecase"
	"github.com/documind-ai/documind/internal/infrastructure/chunking"
	"github.com/documind-ai/documind/internal/infrastructure/embedding/httpembed"
	"github.com/documind-ai/documind/internal/infrastructure/extractor/pdf"
	"github.com/documind-ai/documind/internal/infrastructure/queue/nats"
	"github.com/documind-ai/documind/internal/infrastructure/repository/postgres"
	"github.com/documind-ai/documind/internal/infrastructure/resilience"
	"github.com/documind-ai/documind/internal/infrastructure/storage"
	"github.com/documind-ai/documind/internal/infrastructure/storage/localfs"
	"github.com/documind-ai/documind/internal/infrastructure/storage/s3"
	"github.com/documind-ai/documind/internal/infrastructure/summarizer/extractive"
)

// App wires infrastructure into the use cases. Both the api and the worker
// binaries build the same graph and pick the ports they need.
type App struct {
	Config config.Config

	Queue       *nats.Queue
	Repo        ports.DocumentRepository
	UploadUC    ports.DocumentIngestor
	ProcessUC   ports.DocumentProcessor
	SearchUC    ports.DocumentSearcher
	ChatUC      ports.DocumentChatService
	SummarizeUC ports.DocumentSummaryService
	ReaderUC    ports.DocumentReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx, cfg.EmbedDimension); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkStore := postgres.NewChunkRepository(db)

	objectStorage, err := buildStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder := httpembed.New(cfg.EmbedURL, cfg.EmbedModel, cfg.EmbedDimension, httpembed.Options{
		BatchSize: cfg.EmbedBatchSize,
		Executor:  executor,
	})
	if err := embedder.VerifyDimension(ctx); err != nil {
		if probeFatal(cfg.EmbedStrictBoot, err) {
			return nil, fmt.Errorf("verify embedding dimension: %w", err)
		}
		logger.Warn("embedding backend unreachable, continuing", "error", err)
	}

	var chunker ports.Chunker
	switch cfg.ChunkPolicy {
	case "window":
		chunker = chunking.NewWindowChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize, cfg.MaxChunksPerDoc)
	default:
		chunker = chunking.NewParagraphChunker(cfg.MaxChunksPerDoc)
	}

	extractor := pdf.New(objectStorage, cfg.MinChunkSize)
	summarizer := extractive.New()

	processUC := usecase.NewProcessUseCase(repo, chunkStore, extractor, chunker, embedder, logger)
	uploadUC := usecase.NewUploadUseCase(repo, objectStorage, queue, processUC,
		cfg.MaxUploadSize, cfg.TaskTimeout, logger)
	searchUC := usecase.NewSearchUseCase(chunkStore, embedder, usecase.SearchDefaults{
		TopK:          cfg.SearchTopK,
		TopKMax:       cfg.SearchTopKMax,
		MinSimilarity: cfg.SearchMinSimilarity,
	})
	chatUC := usecase.NewChatUseCase(chunkStore, embedder, cfg.RetrievalMinSimilarity, cfg.ChatTopK)
	summarizeUC := usecase.NewSummarizeUseCase(chunkStore, embedder, summarizer, cfg.RetrievalMinSimilarity)
	readerUC := usecase.NewReaderUseCase(repo)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		UploadUC:    uploadUC,
		ProcessUC:   processUC,
		SearchUC:    searchUC,
		ChatUC:      chatUC,
		SummarizeUC: summarizeUC,
		ReaderUC:    readerUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// probeFatal decides whether a failed embedding probe stops startup. A
// dimension mismatch means the schema and the model disagree; serving
// traffic would fail every query, so it is fatal no matter the mode.
// Non-strict mode only tolerates the backend being unreachable at boot.
func probeFatal(strict bool, err error) bool {
	if strict {
		return true
	}
	return domain.IsKind(err, domain.ErrInvalidInput)
}

// buildStorage picks the write target from config. Reads always go through
// the location router, so documents saved under a previous provider stay
// readable after a switch.
func buildStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	local, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	var remote ports.ObjectStorage
	if cfg.S3Bucket != "" {
		s3Storage, err := s3.New(ctx, cfg.S3Bucket, s3.Credentials{
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		remote = s3Storage
	}

	primary := ports.ObjectStorage(local)
	if cfg.StorageProvider == "s3" {
		if remote == nil {
			return nil, fmt.Errorf("storage provider is s3 but S3_BUCKET_NAME is empty")
		}
		primary = remote
	}
	return storage.NewRouter(primary, remote, local), nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
