package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/data/db"
	server "github.com/yungbote/autocrm-backend/internal/http"
	"github.com/yungbote/autocrm-backend/internal/observability"
	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	// Server is nil for apps built with NewCore.
	Server *server.Server

	pg           *db.PostgresService
	shutdownOtel func(context.Context) error
}

// New builds the full HTTP application.
func New(ctx context.Context) (*App, error) {
	return build(ctx, true)
}

// NewCore builds everything except the HTTP surface, for operator commands.
func NewCore(ctx context.Context) (*App, error) {
	return build(ctx, false)
}

func build(ctx context.Context, withServer bool) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	if withServer {
		if err := cfg.validateServer(); err != nil {
			log.Sync()
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	a := &App{Log: log, Cfg: cfg}
	a.shutdownOtel = observability.InitOTel(ctx, log, cfg.Otel)

	a.pg, err = db.NewPostgresService(log, cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.AutoMigrate {
		if err := a.pg.AutoMigrateAll(); err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}
	a.DB = a.pg.DB()

	a.Clients, err = wireClients(log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repos = wireRepos(a.DB, log)
	a.Services, err = wireServices(ctx, a.DB, log, cfg, a.Clients, a.Repos)
	if err != nil {
		a.Close()
		return nil, err
	}
	if !withServer {
		return a, nil
	}

	handlers, err := wireHandlers(a.DB, log, cfg, a.Services)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Server = wireServer(log, cfg, handlers, wireMiddleware(log, cfg, a.Repos))
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Starting server", "address", a.Cfg.Address, "vector_provider", a.Cfg.VectorProvider, "completion_mode", a.Cfg.CompletionMode)
	return a.Server.Run(ctx, a.Cfg.Address)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOtel(ctx); err != nil && a.Log != nil {
			a.Log.Warn("Tracer shutdown failed", "error", err)
		}
		cancel()
		a.shutdownOtel = nil
	}
	if a.pg != nil {
		_ = a.pg.Close()
		a.pg = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
