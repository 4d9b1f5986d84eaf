package app

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/db"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	apphttp "github.com/OpenSundsvall/api-service-case-data/internal/http"
	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	store        *db.Store
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	if cfg.CaseTypesFile != "" {
		n, err := errand.LoadCaseTypesFile(cfg.CaseTypesFile)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("load case types: %w", err)
		}
		log.Info("Case type catalog loaded", "path", cfg.CaseTypesFile, "count", n)
	}

	otelCfg := observability.LoadOtelConfig()
	otelCfg.ServiceName, otelCfg.Environment, otelCfg.Version = cfg.ServiceName, cfg.Environment, cfg.Version
	otelShutdown := observability.InitOTel(ctx, log, otelCfg)
	metrics := observability.Init(log)

	store, err := db.Open(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := store.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, clients, gormPinger{db: theDB})
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and, when configured, the errand process worker and the
// metrics collectors until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Server.Run(ctx, a.Cfg.HTTPAddr) })
	if a.Services.TemporalWorker != nil {
		g.Go(func() error { return a.Services.TemporalWorker.Run(ctx) })
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Clients.NumberLock != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.NumberLock.Client())
		}
	}

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.Log != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
