package app

import (
	"chessrush/internal/cache"
	"chessrush/internal/config"
	"chessrush/internal/engine"
	"chessrush/internal/logging"
	"chessrush/internal/metrics"
	"chessrush/internal/model"
	"chessrush/internal/repository"
	"chessrush/internal/service"
	"chessrush/internal/transport/rest"
	"chessrush/internal/transport/ws"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pingTimeout = 5 * time.Second

// App holds the wired service and the clients it owns
type App struct {
	Mongo *mongo.Client
	Redis *redis.Client
	DB    *mongo.Database

	Attempts    repository.AttemptRepo
	Positions   repository.PositionRepo
	Leaderboard cache.LeaderboardCache

	Engine  *engine.Pool // nil when no engine is configured
	Hub     *ws.Hub
	Metrics *metrics.Metrics
	Auth    *service.AuthService
	Puzzles *service.PuzzleService

	log zerolog.Logger
}

// ConnectMongo connects and pings MongoDB
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// ConnectRedis connects and pings Redis
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return rdb, nil
}

// New connects to the stores, starts the engine pool and wires the services
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		Metrics: metrics.New(),
		log:     log,
	}
	logAcceptance(log, cfg.Acceptance)

	var err error
	if a.Mongo, err = ConnectMongo(ctx, cfg); err != nil {
		return nil, err
	}
	log.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")

	if a.Redis, err = ConnectRedis(ctx, cfg); err != nil {
		a.Close(ctx)
		return nil, err
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	a.DB = a.Mongo.Database(cfg.MongoDB)
	a.Attempts = repository.NewAttemptRepo(a.DB)
	a.Positions = repository.NewPositionRepo(a.DB)
	a.Leaderboard = cache.NewLeaderboardCache(a.Redis)

	if err := a.Attempts.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to create attempt indexes")
	}

	// Statistics source: explorer behind a Redis response cache
	explorer := service.NewExplorerClient(cfg.Explorer.BaseURL, cfg.Explorer.Token, cfg.Explorer.Timeout, logging.Component(log, "explorer"))
	explorer.SetRetry(cfg.Explorer.Retries, cfg.Explorer.Backoff)
	source := service.NewCachedSource(explorer, cache.NewExplorerCache(a.Redis, cfg.Explorer.CacheTTL), a.Metrics, logging.Component(log, "explorer"))

	oracle, err := a.newOracle(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Hub = ws.NewHub(logging.Component(log, "hub"))
	a.Auth = service.NewAuthService(cfg.JWTSecret)
	a.Puzzles = service.NewPuzzleService(
		source,
		service.NewAcceptanceEngine(logging.Component(log, "acceptance"), a.Metrics),
		oracle,
		cfg.Acceptance,
		cfg.Explorer.Moves,
		a.Attempts,
		a.Positions,
		a.Leaderboard,
		logging.Component(log, "puzzles"),
	)
	a.Puzzles.SetBroadcaster(a.Hub)
	a.Puzzles.SetObserver(a.Metrics)

	return a, nil
}

// newOracle starts the engine pool when one is configured. Without an engine
// borderline moves get no opinion and are rejected.
func (a *App) newOracle(ctx context.Context, cfg *config.Config) (service.EvaluationOracle, error) {
	if !cfg.Engine.Enabled() || !cfg.Acceptance.OracleEnabled {
		a.log.Warn().Msg("no engine configured, oracle fallback has no opinion")
		return service.NoOpinionOracle{}, nil
	}

	pool, err := engine.NewPool(ctx, engine.PoolConfig{
		Options: engine.Options{
			Path:    cfg.Engine.Path,
			Depth:   cfg.Engine.Depth,
			HashMB:  cfg.Engine.HashMB,
			Threads: cfg.Engine.Threads,
		},
		Workers: cfg.Engine.Workers,
	}, logging.Component(a.log, "engine"))
	if err != nil {
		return nil, fmt.Errorf("failed to start engine pool: %w", err)
	}
	a.Engine = pool

	oracle := service.NewEngineOracle(pool, logging.Component(a.log, "engine"))
	evals := cache.NewEvalCache(a.Redis, pool.Depth(), cfg.Engine.CacheTTL)
	return service.NewCachedOracle(oracle, evals, a.Metrics, logging.Component(a.log, "engine")), nil
}

// Router builds the HTTP handler
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:   a.Auth,
		PuzzleService: a.Puzzles,
		WSHub:         a.Hub,
		Metrics:       a.Metrics,
		Log:           a.log,
	})
}

// Close releases everything New opened
func (a *App) Close(ctx context.Context) {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close Redis")
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to disconnect MongoDB")
		}
	}
}

// logAcceptance reports the acceptance tuning at startup
func logAcceptance(log zerolog.Logger, cfg model.AcceptanceConfig) {
	log.Info().
		Int("min_games", cfg.MinSampleSize).
		Float64("win_rate_delta", cfg.WinScoreDelta).
		Float64("max_eval_loss", cfg.MaxEvalLoss).
		Bool("engine_fallback", cfg.OracleEnabled).
		Dur("engine_timeout", cfg.OracleTimeout).
		Int("engine_concurrency", cfg.OracleConcurrency).
		Msg("acceptance config")
}
