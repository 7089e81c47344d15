package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"powerlog/backend/libs/db"
	libredis "powerlog/backend/libs/redis"
	"powerlog/backend/services/collector-service/internal/config"
	httpserver "powerlog/backend/services/collector-service/internal/http"
	"powerlog/backend/services/collector-service/internal/http/handlers"
	"powerlog/backend/services/collector-service/internal/http/middleware"
	"powerlog/backend/services/collector-service/internal/mqtt"
	redisstore "powerlog/backend/services/collector-service/internal/redis"
	"powerlog/backend/services/collector-service/internal/repository"
	"powerlog/backend/services/collector-service/internal/service"
	"powerlog/backend/services/collector-service/internal/ws"
)

const (
	schemaTimeout    = 10 * time.Second
	feedWriteTimeout = 10 * time.Second
	feedPingInterval = 30 * time.Second
)

// App wires collector service dependencies.
type App struct {
	subscriber *mqtt.Subscriber
	server     *httpserver.Server
	feed       *ws.Server
	db         *sql.DB
	redis      *redis.Client
	logger     *zap.Logger
}

// New constructs application components. Optional mirrors and the status API
// are only built when configured.
func New(cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	mqtt.RouteLibraryLogs(logger)

	csvRepo, err := repository.NewCSVRepository(cfg.CSV.Path, cfg.CSV.CRLF)
	if err != nil {
		return nil, err
	}

	var mirror service.ReadingMirror
	if cfg.Database.DSN != "" {
		a.db, err = db.NewPostgresDB(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		readingRepo := repository.NewReadingRepository(a.db)
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := readingRepo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		mirror = readingRepo
		logger.Info("postgres mirror enabled")
	}

	var latest service.LatestStore
	if cfg.Redis.Addr != "" {
		a.redis, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, 0)
		if err != nil {
			return nil, err
		}
		latest = redisstore.NewLatestStore(a.redis, cfg.RedisTTL())
		logger.Info("redis latest store enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var hub *ws.Hub
	var broadcaster service.RowBroadcaster
	if cfg.HTTPEnabled() {
		hub = ws.NewHub()
		broadcaster = hub
	}

	collector := service.NewCollectorService(cfg.MQTT.Topic, csvRepo, mirror, latest, broadcaster, logger)

	a.subscriber = mqtt.NewSubscriber(mqtt.Options{
		Broker:         cfg.MQTT.Broker,
		Topic:          cfg.MQTT.Topic,
		QoS:            byte(cfg.MQTT.QoS),
		ClientID:       cfg.MQTT.ClientID,
		ClientIDPrefix: cfg.MQTT.ClientIDPrefix,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		ConnectRetry:   cfg.MQTT.ConnectRetry,
	}, collector, logger)

	if hub != nil {
		a.feed = ws.NewServer(hub, feedWriteTimeout, feedPingInterval, logger)
		routes := httpserver.Routes{
			Health: handlers.NewHealthHandler(collector, a.subscriber),
			Latest: handlers.NewLatestHandler(collector, logger),
			Feed:   a.feed.HandleWS,
		}
		if collector.MirrorEnabled() {
			routes.Recent = handlers.NewRecentHandler(collector, logger)
		}

		var apiMiddleware []func(http.Handler) http.Handler
		if cfg.HTTP.JWTSecret != "" {
			apiMiddleware = append(apiMiddleware, middleware.AuthMiddleware(cfg.HTTP.JWTSecret))
		}
		router := httpserver.NewRouter(routes, apiMiddleware...)
		a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger, httpserver.RequestLogger(logger))
	}

	logger.Info("collector configured",
		zap.String("topic", cfg.MQTT.Topic),
		zap.String("csv", csvRepo.Path()),
		zap.Bool("status_api", a.server != nil),
	)
	return a, nil
}

// Run subscribes and, when enabled, serves the status API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.subscriber.Run(ctx)
	})
	if a.server != nil {
		g.Go(func() error {
			if err := a.server.Run(ctx); err != nil {
				return fmt.Errorf("status api: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.feed != nil {
		a.feed.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
