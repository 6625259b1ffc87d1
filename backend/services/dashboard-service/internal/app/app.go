package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "tempdash/backend/libs/db"
	libredis "tempdash/backend/libs/redis"
	"tempdash/backend/services/dashboard-service/internal/auth"
	"tempdash/backend/services/dashboard-service/internal/cache"
	"tempdash/backend/services/dashboard-service/internal/config"
	httpserver "tempdash/backend/services/dashboard-service/internal/http"
	"tempdash/backend/services/dashboard-service/internal/http/handlers"
	"tempdash/backend/services/dashboard-service/internal/http/middleware"
	"tempdash/backend/services/dashboard-service/internal/ingest"
	"tempdash/backend/services/dashboard-service/internal/repository"
	"tempdash/backend/services/dashboard-service/internal/service"
	"tempdash/backend/services/dashboard-service/internal/watch"
	"tempdash/backend/services/dashboard-service/internal/ws"
)

// App wires dashboard service dependencies.
type App struct {
	cfg     *config.Config
	server  *httpserver.Server
	sync    *service.SyncService
	watcher *watch.FileWatcher
	db      *sql.DB
	redis   *goredis.Client
	cancel  context.CancelFunc
	logger  *zap.Logger
}

// New constructs application components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := OpenStore(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	store, err := repository.NewStore(cfg.Database.Driver, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	normalizer, err := NewNormalizer(cfg)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	syncService := service.NewSyncService(store, normalizer, cfg.Source.Path, cfg.DelimiterRune(), logger)

	var (
		redisClient *goredis.Client
		viewCache   cache.ViewCache
	)
	if cfg.CacheEnabled() {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		viewCache = cache.NewRedisViewCache(redisClient, cfg.Redis.TTL)
	}
	dashboardService := service.NewDashboardService(store, viewCache, logger)

	hubCtx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(hubCtx, 0, 0, logger)

	syncService.OnSynced(dashboardService.InvalidateOnSync)
	syncService.OnSynced(hub.Publish)

	routes := httpserver.Routes{
		Health:    handlers.NewHealthHandler(sqlDB),
		Sync:      handlers.NewSyncHandlers(syncService, logger),
		Dashboard: handlers.NewDashboardHandlers(dashboardService, logger),
		SyncFeed:  hub.HandleWS,
	}

	var authMiddleware func(http.Handler) http.Handler
	if cfg.AuthEnabled() {
		tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.JWTExpiration())
		authenticator, err := auth.NewAuthenticator(cfg.Auth.Operator, cfg.Auth.PasswordHash, tokens)
		if err != nil {
			cancel()
			sqlDB.Close()
			return nil, err
		}
		routes.Login = handlers.NewLoginHandler(authenticator, logger)
		authMiddleware = middleware.AuthMiddleware(tokens)
	} else {
		logger.Warn("operator auth disabled, POST /api/sync is open")
	}

	router := httpserver.NewRouter(routes, authMiddleware)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)

	a := &App{
		cfg:    cfg,
		server: server,
		sync:   syncService,
		db:     sqlDB,
		redis:  redisClient,
		cancel: cancel,
		logger: logger,
	}
	if cfg.Sync.Watch {
		a.watcher = watch.New(cfg.Source.Path, cfg.Sync.Debounce, syncService, logger)
	}
	return a, nil
}

// Run performs the startup pass, starts the file watcher and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Sync.OnStartup {
		// A failed startup pass leaves the previous store contents on display.
		if _, err := a.sync.Sync(ctx); err != nil {
			a.logger.Warn("startup sync failed", zap.Error(err))
		}
	}

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("file watcher stopped", zap.Error(err))
			}
		}()
	}

	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}

// OpenStore opens the configured database and bootstraps the schema when asked to.
func OpenStore(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	sqlDB, err := libdb.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Database.EnsureSchema {
		if err := repository.EnsureSchema(ctx, sqlDB, cfg.Database.Driver, cfg.Database.BootstrapViews); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}
	return sqlDB, nil
}

// NewNormalizer builds the normalizer from source settings. Configured renames extend the defaults.
func NewNormalizer(cfg *config.Config) (*ingest.Normalizer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	renames := ingest.DefaultRenames()
	for from, to := range cfg.Source.Renames {
		renames[from] = to
	}
	return ingest.NewNormalizer(renames, cfg.Source.Layouts, loc), nil
}
