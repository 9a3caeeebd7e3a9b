package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/context-reader/internal/config"
	"github.com/kirillkom/context-reader/internal/core/ports"
	"github.com/kirillkom/context-reader/internal/core/usecase"
	"github.com/kirillkom/context-reader/internal/infrastructure/extractor"
	"github.com/kirillkom/context-reader/internal/infrastructure/filetype"
	"github.com/kirillkom/context-reader/internal/infrastructure/queue/nats"
	"github.com/kirillkom/context-reader/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/context-reader/internal/infrastructure/resilience"
	"github.com/kirillkom/context-reader/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/context-reader/internal/infrastructure/storage/s3"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Extractor *extractor.Registry

	IngestUC    ports.DocumentIngestor
	ProcessUC   ports.DocumentProcessor
	DocumentsUC ports.DocumentReader
	// TranslateUC is nil unless WithTranslation was passed.
	TranslateUC ports.TranslationService

	closeFn func()
}

type options struct {
	translation    bool
	observer       CallObserver
	onBreakerState func(operation, state string)
}

type Option func(*options)

// WithTranslation wires providers, cache and vocabulary graph. The worker
// does not need them.
func WithTranslation(observer CallObserver, onBreakerState func(operation, state string)) Option {
	return func(o *options) {
		o.translation = true
		o.observer = observer
		o.onBreakerState = onBreakerState
	}
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	closers := []func(){func() { _ = db.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		closeAll()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queueResilience := resilience.DefaultConfig()
	queueResilience.OnStateChange = o.onBreakerState
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(queueResilience),
		HandlerTimeout:     5 * time.Minute,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	closers = append(closers, queue.Close)

	registry := extractor.NewRegistry(storage, cfg.MaxUploadBytes)
	documentsUC := usecase.NewDocumentQueryUseCase(repo, cfg.PageSizeWords)

	app := &App{
		Config:      cfg,
		Queue:       queue,
		Repo:        repo,
		Extractor:   registry,
		IngestUC:    usecase.NewIngestDocumentUseCase(repo, storage, queue, filetype.NewSniffer()),
		ProcessUC:   usecase.NewProcessDocumentUseCase(repo, registry),
		DocumentsUC: documentsUC,
	}

	if o.translation {
		translation, err := NewTranslation(ctx, cfg, o.observer, o.onBreakerState)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, translation.Close)
		app.TranslateUC = usecase.NewTranslateUseCase(
			translation.Router,
			postgres.NewTranslationRepository(db),
			documentsUC,
			translation.Cache,
			translation.Vocabulary,
			translateOptions(cfg),
		)
	}

	app.closeFn = closeAll
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "", "localfs":
		return localfs.New(cfg.StoragePath)
	case "s3":
		slog.Info("object_storage_s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return s3.New(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Endpoint)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func translateOptions(cfg config.Config) usecase.TranslateOptions {
	return usecase.TranslateOptions{
		CacheTTL:        time.Duration(cfg.TranslationCacheTTLSeconds) * time.Second,
		MaxContextWords: cfg.TranslateMaxContextWords,
		DefaultModel:    cfg.DefaultModel,
		DefaultLanguage: cfg.DefaultTargetLanguage,
		HistoryLimit:    cfg.TranslationHistoryLimit,
	}
}
