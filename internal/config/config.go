package config

import (
	"chessrush/internal/model"
	"os"
	"strconv"
	"strings"
	"time"
)

// ExplorerConfig configures the opening-explorer statistics source
type ExplorerConfig struct {
	BaseURL  string        `json:"baseUrl"`
	Token    string        `json:"-"` // Never serialize
	Moves    int           `json:"moves"`
	Timeout  time.Duration `json:"timeout"`
	Retries  int           `json:"retries"` // attempts on HTTP 429
	Backoff  time.Duration `json:"backoff"`
	CacheTTL time.Duration `json:"cacheTtl"`
}

// EngineConfig configures the UCI engine behind the evaluation oracle
type EngineConfig struct {
	Path     string        `json:"path"`
	Workers  int           `json:"workers"`
	Depth    int           `json:"depth"`
	HashMB   int           `json:"hashMb"`
	Threads  int           `json:"threads"`
	CacheTTL time.Duration `json:"cacheTtl"`
}

// Enabled returns true if an engine binary is configured
func (c EngineConfig) Enabled() bool {
	return c.Path != ""
}

// Config holds all service configuration
type Config struct {
	HTTPPort   string
	MongoURI   string
	MongoDB    string
	RedisAddr  string
	JWTSecret  string
	LogLevel   string
	LogPretty  bool
	Explorer   ExplorerConfig
	Engine     EngineConfig
	Acceptance model.AcceptanceConfig
}

// Load reads the configuration from the environment
func Load() *Config {
	acc := model.DefaultAcceptanceConfig()
	acc.MinSampleSize = getEnvInt("MIN_GAMES", acc.MinSampleSize)
	acc.WinScoreDelta = getEnvFloat("WIN_RATE_DELTA", acc.WinScoreDelta)
	acc.MaxEvalLoss = getEnvFloat("MAX_EVAL_LOSS", acc.MaxEvalLoss)
	acc.OracleEnabled = getEnvBool("USE_ENGINE_FALLBACK", acc.OracleEnabled)
	acc.OracleTimeout = getEnvDuration("ENGINE_TIMEOUT", acc.OracleTimeout)
	acc.OracleConcurrency = getEnvInt("ENGINE_CONCURRENCY", acc.OracleConcurrency)

	return &Config{
		HTTPPort:  getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "chessrush"),
		RedisAddr: strings.TrimPrefix(getEnv("REDIS_URI", "localhost:6379"), "redis://"),
		JWTSecret: getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),
		Explorer: ExplorerConfig{
			BaseURL:  getEnv("EXPLORER_URL", "https://explorer.lichess.ovh"),
			Token:    os.Getenv("LICHESS_TOKEN"),
			Moves:    getEnvInt("EXPLORER_MOVES", 8),
			Timeout:  getEnvDuration("EXPLORER_TIMEOUT", 5*time.Second),
			Retries:  getEnvInt("EXPLORER_RETRIES", 3),
			Backoff:  getEnvDuration("EXPLORER_BACKOFF", time.Second),
			CacheTTL: getEnvDuration("EXPLORER_CACHE_TTL", 24*time.Hour),
		},
		Engine: EngineConfig{
			Path:     os.Getenv("STOCKFISH_PATH"),
			Workers:  getEnvInt("ENGINE_WORKERS", 2),
			Depth:    getEnvInt("ENGINE_DEPTH", 18),
			HashMB:   getEnvInt("ENGINE_HASH_MB", 64),
			Threads:  getEnvInt("ENGINE_THREADS", 1),
			CacheTTL: getEnvDuration("ENGINE_CACHE_TTL", 7*24*time.Hour),
		},
		Acceptance: acc,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("750ms") or a bare number of milliseconds
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}
