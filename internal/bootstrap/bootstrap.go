package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/equipment-intake/internal/config"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
	"github.com/kirillkom/equipment-intake/internal/core/usecase"
	rediscache "github.com/kirillkom/equipment-intake/internal/infrastructure/cache/redis"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/queue/nats"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/repository/guarded"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/repository/memory"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/resilience"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/similarity"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/vision/ollama"
)

type App struct {
	Config config.Config

	Catalog  ports.CatalogStore
	Entities ports.EntityReader
	Queue    ports.IntakeQueue

	NormalizeUC *usecase.NormalizeUseCase
	CatalogUC   *usecase.CatalogUpdateUseCase
	FilingUC    *usecase.FilingUseCase
	IntakeUC    *usecase.IntakeUseCase

	closers []func()
}

type options struct {
	breakerObserver resilience.StateObserver
	cacheObserver   rediscache.CacheObserver
	withQueue       bool
}

type Option func(*options)

// WithBreakerObserver exports breaker transitions of every outbound adapter.
func WithBreakerObserver(observer resilience.StateObserver) Option {
	return func(o *options) { o.breakerObserver = observer }
}

func WithCacheObserver(observer rediscache.CacheObserver) Option {
	return func(o *options) { o.cacheObserver = observer }
}

// WithQueue connects to NATS; only the worker consumes intake requests.
func WithQueue() Option {
	return func(o *options) { o.withQueue = true }
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	app := &App{Config: cfg}

	store, entities, err := app.openCatalog(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	var catalog ports.CatalogStore = guarded.NewCatalogStore(store, newExecutor(cfg, resilience.CatalogPolicy(), o.breakerObserver))
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init catalog cache: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		cache := rediscache.NewCatalogCache(catalog, client, cfg.CatalogCacheTTL)
		if o.cacheObserver != nil {
			cache = cache.WithObserver(o.cacheObserver)
		}
		catalog = cache
	}
	app.Catalog = catalog
	app.Entities = entities

	var reader ports.NameplateReader
	if cfg.OllamaURL != "" {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaVisionModel).
			WithExecutor(newExecutor(cfg, resilience.VisionPolicy(), o.breakerObserver))
		reader = ollama.NewNameplateReader(client)
	}

	if o.withQueue {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSReadingsSubject, cfg.NATSResultsSubject, nats.Options{
			ResilienceExecutor: newExecutor(cfg, resilience.QueuePolicy(), o.breakerObserver),
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
		app.Queue = queue
	}

	app.NormalizeUC = usecase.NewNormalizeUseCase(catalog)
	app.CatalogUC = usecase.NewCatalogUpdateUseCase(catalog)
	app.FilingUC = usecase.NewFilingUseCase(entities)
	app.IntakeUC = usecase.NewIntakeUseCase(app.NormalizeUC, reader, cfg.IntakeConcurrency)
	if cfg.PhotoArchivePath != "" {
		archive, err := localfs.New(cfg.PhotoArchivePath)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init photo archive: %w", err)
		}
		app.IntakeUC.WithPhotoArchive(archive)
	}

	slog.Info("bootstrap_ready",
		"catalog_backend", cfg.CatalogBackend,
		"catalog_cache", cfg.RedisAddr != "",
		"vision_reader", reader != nil,
		"queue", app.Queue != nil,
		"photo_archive", cfg.PhotoArchivePath != "",
	)
	return app, nil
}

func (a *App) openCatalog(ctx context.Context, cfg config.Config) (ports.CatalogStore, ports.EntityReader, error) {
	seed, err := loadSeed(cfg.CatalogSeedPath)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.CatalogBackend {
	case config.CatalogBackendMemory:
		store := memory.NewCatalogStore(similarity.NewLevenshtein())
		entities := memory.NewEntityStore()
		if seed != nil {
			if err := seed.Apply(ctx, store, entities); err != nil {
				return nil, nil, fmt.Errorf("apply seed: %w", err)
			}
		}
		return store, entities, nil
	case config.CatalogBackendPostgres, "":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		return openPostgresCatalog(ctx, db, seed)
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.CatalogBackend)
	}
}

func openPostgresCatalog(ctx context.Context, db *sql.DB, seed *memory.Seed) (ports.CatalogStore, ports.EntityReader, error) {
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewCatalogRepository(db)
	if seed != nil {
		// Entities live in their own tables; the seed only fills the catalog here.
		if err := seed.Apply(ctx, repo, nil); err != nil {
			return nil, nil, fmt.Errorf("apply seed: %w", err)
		}
	}
	return repo, postgres.NewEntityRepository(db), nil
}

func loadSeed(path string) (*memory.Seed, error) {
	if path == "" {
		return nil, nil
	}
	seed, err := memory.LoadSeedFile(path)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	return seed, nil
}

// newExecutor gives each outbound adapter its own breaker, starting from its preset.
func newExecutor(cfg config.Config, policy resilience.Config, observer resilience.StateObserver) *resilience.Executor {
	executor := resilience.NewExecutor(ResilienceConfig(cfg, policy))
	if observer != nil {
		executor = executor.WithStateObserver(observer)
	}
	return executor
}

// ResilienceConfig lays the RESILIENCE_* settings that are set over an adapter preset.
func ResilienceConfig(cfg config.Config, policy resilience.Config) resilience.Config {
	out := policy.Override(resilience.Config{
		RetryMaxAttempts:        cfg.RetryMaxAttempts,
		RetryInitialBackoff:     cfg.RetryInitialBackoff,
		RetryMaxBackoff:         cfg.RetryMaxBackoff,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
	})
	out.BreakerEnabled = cfg.BreakerEnabled && policy.BreakerEnabled
	return out
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
