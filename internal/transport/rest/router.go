package rest

import (
	"chessrush/internal/logging"
	"chessrush/internal/metrics"
	"chessrush/internal/service"
	"chessrush/internal/transport/rest/handler"
	"chessrush/internal/transport/rest/middleware"
	"chessrush/internal/transport/ws"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService   *service.AuthService
	PuzzleService *service.PuzzleService
	WSHub         *ws.Hub
	Metrics       *metrics.Metrics
	Log           zerolog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	puzzleHandler := handler.NewPuzzleHandler(c.PuzzleService)
	playerHandler := handler.NewPlayerHandler(c.PuzzleService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, logging.Component(c.Log, "ws"))

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)
	r.Use(hlog.NewHandler(c.Log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(accessLog))
	if c.Metrics != nil {
		r.Use(c.Metrics.Middleware)
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	if c.Metrics != nil {
		r.Handle("/metrics", c.Metrics.Handler()).Methods("GET")
	}

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/sessions", authHandler.CreateSession).Methods("POST", "OPTIONS")
	v1.HandleFunc("/leaderboard", playerHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/positions", puzzleHandler.Positions).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws", wsHandler.PlayerWS).Methods("GET")

	// Puzzle routes (player attached when a token is present)
	puzzleRoutes := v1.NewRoute().Subrouter()
	puzzleRoutes.Use(authMW.OptionalPlayer)

	puzzleRoutes.HandleFunc("/opening", puzzleHandler.Opening).Methods("GET", "OPTIONS")
	puzzleRoutes.HandleFunc("/puzzle", puzzleHandler.Puzzle).Methods("GET", "OPTIONS")
	puzzleRoutes.HandleFunc("/puzzle/submit", puzzleHandler.Submit).Methods("POST", "OPTIONS")

	// Player routes (require player auth)
	playerRoutes := v1.NewRoute().Subrouter()
	playerRoutes.Use(authMW.RequirePlayer)

	playerRoutes.HandleFunc("/me/attempts", playerHandler.Attempts).Methods("GET", "OPTIONS")

	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
