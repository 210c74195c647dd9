package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/trackflow-backend/internal/data/repos"
	"github.com/yungbote/trackflow-backend/internal/db"
	httpx "github.com/yungbote/trackflow-backend/internal/http"
	"github.com/yungbote/trackflow-backend/internal/platform/logger"
	"github.com/yungbote/trackflow-backend/internal/sse"
	"github.com/yungbote/trackflow-backend/internal/storage"
	"github.com/yungbote/trackflow-backend/internal/temporalx/temporalworker"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    *repos.Repos
	Services Services
	Clients  Clients
	Hub      *sse.Hub
	Store    storage.Store
	Server   *httpx.Server

	worker *temporalworker.Runner
	cancel context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	store, err := storage.New(context.Background(), log, storage.ConfigFromEnv())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	hub := sse.NewHub(log)

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init clients: %w", err)
	}

	rp := repos.New(theDB, log)

	svc, err := wireServices(theDB, log, cfg, rp, hub, clients, store)
	if err != nil {
		log.Sync()
		return nil, err
	}

	var worker *temporalworker.Runner
	if clients.Temporal != nil {
		worker, err = temporalworker.NewRunner(log, clients.Temporal, theDB, rp.JobRuns, svc.Registry, svc.Notifier)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init temporal worker: %w", err)
		}
	} else {
		log.Warn("temporal disabled, jobs stay pending until a worker runs")
	}

	server := httpx.NewServer(wireRouter(log, svc, hub, store))

	return &App{
		Log:      log,
		DB:       theDB,
		Cfg:      cfg,
		Repos:    rp,
		Services: svc,
		Clients:  clients,
		Hub:      hub,
		Store:    store,
		Server:   server,
		worker:   worker,
	}, nil
}

// Start brings up the background pieces: the redis to SSE forwarder when a
// bus is configured, and the Temporal worker.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
			a.Log.Warn("sse forwarder failed to start", "error", err)
		}
	}

	if a.worker != nil {
		if err := a.worker.Start(ctx); err != nil {
			cancel()
			a.cancel = nil
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("server listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Clients.SSEBus != nil {
		a.Clients.SSEBus.Close()
	}
	if a.Clients.Temporal != nil {
		a.Clients.Temporal.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
