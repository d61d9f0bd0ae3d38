package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/tabsettle/internal/auth"
	"github.com/mmynk/tabsettle/internal/config"
	"github.com/mmynk/tabsettle/internal/metrics"
	"github.com/mmynk/tabsettle/internal/middleware"
	"github.com/mmynk/tabsettle/internal/notify"
	"github.com/mmynk/tabsettle/internal/service"
	"github.com/mmynk/tabsettle/internal/storage/sqlite"
	"github.com/mmynk/tabsettle/internal/tracker"
	"github.com/mmynk/tabsettle/pkg/logging"
)

func main() {
	logger := logging.Setup()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	collector := metrics.New()
	notifiers := notify.Fanout{notify.NewLogger(logger), collector}
	if cfg.RedisURL != "" {
		publisher, err := notify.NewRedis(ctx, cfg.RedisURL, cfg.RedisChannel, logger)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		logger.Info("Publishing settlement events", "channel", cfg.RedisChannel)
	}

	accounts := store.Accounts()
	ledger, err := tracker.Open(ctx, accounts.Spender(cfg.SpenderID), store,
		tracker.WithNotifier(notifiers),
		tracker.WithLogger(logger),
	)
	if err != nil {
		logger.Error("Failed to restore ledger", "error", err)
		os.Exit(1)
	}

	// Outermost first: rejected calls are still counted and logged.
	interceptors := []connect.Interceptor{collector.Interceptor(), middleware.LoggingInterceptor(logger)}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if cfg.AuthEnabled() {
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager, service.PublicProcedures...))
	} else {
		logger.Warn("Coordinator auth disabled, set JWT_SECRET to enable it")
	}
	opts := connect.WithInterceptors(interceptors...)

	mux := http.NewServeMux()

	// Register Connect services
	trackerPath, trackerHandler := service.NewTrackerServiceHandler(
		service.NewTrackerService(ledger, accounts, cfg.SpenderID, logger), opts)
	mux.Handle(trackerPath, trackerHandler)

	if cfg.AuthEnabled() {
		authPath, authHandler := service.NewAuthServiceHandler(
			service.NewAuthService(auth.NewPasswordAuthenticator(cfg.CoordinatorPasswordHash), jwtManager, logger), opts)
		mux.Handle(authPath, authHandler)
	}

	mux.Handle("/metrics", collector.Handler())

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(logger, corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
