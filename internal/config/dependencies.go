// Package config assembles the long-lived dependencies of the API process.
package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kanban-board/configs"
	"kanban-board/internal/repository"
	"kanban-board/internal/service"
	realtime "kanban-board/internal/websocket"
	"kanban-board/pkg/database"
	"kanban-board/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Dependencies is built once at startup and passed to the HTTP layer.
type Dependencies struct {
	Config  configs.Config
	Log     *logger.Loggers
	DB      *sql.DB
	Redis   *redis.Client
	Repo    repository.Repository
	Hub     *realtime.Hub
	Tokens  *service.TokenIssuer
	Service *service.Service

	pubsub     *realtime.RedisBroadcaster
	stopListen context.CancelFunc
	listenDone chan struct{}
}

// Build connects the configured backends. Redis is optional: without it events are
// delivered to this process only and boards are not cached.
func Build(ctx context.Context, cfg configs.Config, log *logger.Loggers) (*Dependencies, error) {
	d := &Dependencies{Config: cfg, Log: log}

	if cfg.RepoBackend == repository.BackendPostgres {
		db, err := database.ConnectDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.DB = db
	}
	repo, err := repository.New(cfg.RepoBackend, d.DB, log.System)
	if err != nil {
		d.closeDB()
		return nil, err
	}
	if err := repo.OnStart(ctx); err != nil {
		_ = repo.OnStop(ctx)
		return nil, fmt.Errorf("start repository: %w", err)
	}
	d.Repo = repo
	log.System.Info("repository ready", zap.String("backend", cfg.RepoBackend))

	var svc *service.Service
	d.Hub = realtime.NewHub(realtime.AccessFunc(func(ctx context.Context, boardID, userID string) (bool, error) {
		return svc.HasAccess(ctx, boardID, userID)
	}), log.System)

	opts := []service.Option{service.WithBroadcaster(d.Hub)}
	if cfg.RedisEnabled() {
		client, err := database.ConnectRedis(ctx, cfg)
		if err != nil {
			_ = repo.OnStop(ctx)
			return nil, err
		}
		d.Redis = client
		d.pubsub = realtime.NewRedisBroadcaster(client, d.Hub, log.System)
		opts = []service.Option{
			service.WithBroadcaster(d.pubsub),
			service.WithBoardCache(service.NewRedisBoardCache(client, cfg.BoardCacheTTL, log.Error)),
		}
		log.System.Info("redis connected", zap.String("host", cfg.RedisHost))
	}

	d.Tokens = service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	svc = service.New(repo, d.Tokens, log, cfg.RequestTimeout, opts...)
	d.Service = svc
	return d, nil
}

// Start runs the hub loop and, with Redis, the event subscriber.
func (d *Dependencies) Start() {
	d.Hub.Init()
	if d.pubsub == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.stopListen = cancel
	d.listenDone = make(chan struct{})
	go func() {
		defer close(d.listenDone)
		if err := d.pubsub.Listen(ctx); err != nil {
			d.Log.Error.Error("event subscriber stopped", zap.Error(err))
		}
	}()
}

// Close stops the subscriber and hub, then releases Redis and the repository.
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error
	if d.stopListen != nil {
		d.stopListen()
		select {
		case <-d.listenDone:
		case <-ctx.Done():
		}
	}
	if d.Hub != nil {
		if err := d.Hub.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("hub shutdown: %w", err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if d.Repo != nil {
		if err := d.Repo.OnStop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop repository: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dependencies) closeDB() {
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
