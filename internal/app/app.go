package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/ostrakov/socialmesh-backend/internal/data/db"
	httpapi "github.com/ostrakov/socialmesh-backend/internal/http"
	httpMW "github.com/ostrakov/socialmesh-backend/internal/http/middleware"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
	"github.com/ostrakov/socialmesh-backend/internal/realtime"
	"github.com/ostrakov/socialmesh-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Hub      *realtime.Hub
	Bus      bus.Bus
	Server   *httpapi.Server
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

	cfg := LoadConfig(log)

	gormDB, err := db.NewPostgres(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(gormDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	hub := realtime.NewHub(log)

	// The bus is optional: without REDIS_ADDR the hub serves this instance
	// alone and writes broadcast straight to it.
	var eventBus bus.Bus
	if cfg.RedisAddr != "" {
		eventBus, err = bus.NewRedisBus(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init redis bus: %w", err)
		}
	}

	reposet := wireRepos(gormDB, log)
	serviceset := wireServices(gormDB, log, cfg, reposet, hub, eventBus)
	handlerset := wireHandlers(log, serviceset, hub)

	server := httpapi.NewServer(httpapi.RouterConfig{
		Log:                    log,
		AuthMiddleware:         httpMW.NewAuthMiddleware(log, serviceset.Auth),
		AuthHandler:            handlerset.Auth,
		UserHandler:            handlerset.User,
		ChatHandler:            handlerset.Chat,
		MessageHandler:         handlerset.Msg,
		FeedHandler:            handlerset.Feed,
		PostReactionHandler:    handlerset.PostReactions,
		CommentReactionHandler: handlerset.CommentReactions,
		RealtimeHandler:        handlerset.Realtime,
		HealthHandler:          handlerset.Health,
	})

	return &App{
		Log:      log,
		DB:       gormDB,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Hub:      hub,
		Bus:      eventBus,
		Server:   server,
	}, nil
}

// Start launches background pieces: when a bus is wired, its forwarder feeds
// every received event into the local hub.
func (a *App) Start(ctx context.Context) error {
	if a.Bus != nil {
		if err := a.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
			return fmt.Errorf("start bus forwarder: %w", err)
		}
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
