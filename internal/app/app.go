package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fleetwatch/internal/config"
	"fleetwatch/internal/db"
	httpserver "fleetwatch/internal/http"
	"fleetwatch/internal/http/handlers"
	"fleetwatch/internal/http/middleware"
	"fleetwatch/internal/ingest"
	"fleetwatch/internal/password"
	"fleetwatch/internal/redisstore"
	"fleetwatch/internal/repository"
	"fleetwatch/internal/service"
)

// App wires the backend dependencies: the shared Postgres pool, the optional
// redis resolver cache, the MQTT ingestion listener and the HTTP API.
type App struct {
	server   *httpserver.Server
	listener *ingest.Listener
	pool     *sql.DB
	redis    *redis.Client
	logger   *zap.Logger
}

// New constructs the application graph. All connections are established and
// validated here; a misconfigured ingestion listener fails startup instead of
// silently dropping frames later.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(context.Background(), pool); err != nil {
		pool.Close()
		return nil, err
	}

	var redisClient *redis.Client
	var identifierCache ingest.IdentifierCache
	if cfg.Redis.Addr != "" {
		redisClient, err = redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			pool.Close()
			return nil, err
		}
		identifierCache = redisstore.NewIdentifierCache(redisClient, cfg.Redis.ResolverTTL())
	}

	userRepo := repository.NewUserRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	readingRepo := repository.NewReadingRepository(pool)

	resolver := ingest.NewResolver(vehicleRepo, identifierCache, logger)
	pipeline := ingest.NewPipeline(resolver, readingRepo, logger)
	listener := ingest.NewListener(cfg.MQTT, pipeline, logger)

	hasher := password.NewBcryptHasher(0)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, logger)
	vehicleSvc := service.NewVehicleService(vehicleRepo, readingRepo, logger)

	routes := httpserver.Routes{
		Register:       handlers.NewRegisterHandler(authSvc),
		Login:          handlers.NewLoginHandler(authSvc),
		VehiclesList:   handlers.NewVehiclesListHandler(vehicleSvc),
		VehicleCreate:  handlers.NewVehicleCreateHandler(vehicleSvc),
		VehicleHistory: handlers.NewVehicleHistoryHandler(vehicleSvc),
		Health:         handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(tokenSvc))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:   server,
		listener: listener,
		pool:     pool,
		redis:    redisClient,
		logger:   logger,
	}, nil
}

// Run starts the ingestion listener and serves HTTP until the context is
// canceled.
func (a *App) Run(ctx context.Context) error {
	if err := a.listener.Start(ctx); err != nil {
		return err
	}
	defer a.listener.Stop()

	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
