package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fivem-dashboard/internal/activity"
	"fivem-dashboard/internal/auth"
	"fivem-dashboard/internal/chat"
	"fivem-dashboard/internal/db"
	"fivem-dashboard/internal/fivem"
	"fivem-dashboard/internal/maintenance"
	"fivem-dashboard/internal/observability"
	"fivem-dashboard/internal/todo"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// Build wires the whole dashboard: the application database (accounts,
// sessions, logs, chat, todos) and the separate read-only game database,
// each selectable between postgres and mysql.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	databaseDriver := envOrDefault("DATABASE_DRIVER", db.DriverPostgres)
	if !db.ValidDriver(databaseDriver) {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER: %q", databaseDriver)
	}

	fivemURL, err := mustEnv("FIVEM_DATABASE_URL")
	if err != nil {
		return nil, err
	}
	fivemDriver := envOrDefault("FIVEM_DATABASE_DRIVER", db.DriverMySQL)
	if !db.ValidDriver(fivemDriver) {
		return nil, fmt.Errorf("unsupported FIVEM_DATABASE_DRIVER: %q", fivemDriver)
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	poolConfig := db.PoolConfig{
		MaxOpenConns:    envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		ConnMaxIdleTime: envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
	}

	database, err := db.Open(databaseDriver, databaseURL, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	gameDatabase, err := db.Open(fivemDriver, fivemURL, poolConfig)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("open fivem database: %w", err)
	}
	if err := gameDatabase.Ping(); err != nil {
		_ = database.Close()
		_ = gameDatabase.Close()
		return nil, fmt.Errorf("ping fivem database: %w", err)
	}

	// Migrations only touch the application database. The game database
	// belongs to the game server and is never written to.
	if options.RunMigrations {
		if err := db.RunMigrations(database, databaseDriver); err != nil {
			_ = database.Close()
			_ = gameDatabase.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	closeAll := func() error {
		observability.FlushSentry()
		gameErr := gameDatabase.Close()
		if err := database.Close(); err != nil {
			return err
		}
		return gameErr
	}

	staffStore, err := auth.NewStaffStore(database, databaseDriver)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	sessionStore, err := auth.NewSessionStore(database, databaseDriver)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	activityStore, err := activity.NewStore(database, databaseDriver)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	chatStore, err := chat.NewStore(database, databaseDriver)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	todoStore, err := todo.NewStore(database, databaseDriver)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	gameStore, err := fivem.NewGameStore(gameDatabase, fivemDriver)
	if err != nil {
		_ = closeAll()
		return nil, err
	}

	sessionTTL := envHoursOrDefault("SESSION_TTL_HOURS", 24)
	sessionManager := auth.NewSessionManager(sessionStore, sessionTTL)
	activityLogger := activity.NewLogger(activityStore, logger)

	authService := auth.NewService(staffStore, sessionManager, activityLogger, chatStore, logger)
	authService.WithLockoutPolicy(
		envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		envMinutesOrDefault("LOGIN_LOCK_MINUTES", 15),
	)
	authHandler := auth.NewHandler(authService, EnvBoolOrDefault("COOKIE_SECURE", false), sessionTTL)

	chatHandler := chat.NewHandler(chatStore, logger)
	todoHandler := todo.NewHandler(todoStore)

	trackyClient := fivem.NewTrackyClient(os.Getenv("TRACKY_SERVER_ID"), os.Getenv("TRACKY_SERVER_KEY"))
	fivemHandler := fivem.NewHandler(gameStore, trackyClient, logger)

	cleanupHandler := maintenance.NewCleanupHandler(
		sessionStore,
		activityStore,
		chatStore,
		logger,
		os.Getenv("CRON_SECRET"),
		envDaysOrDefault("SESSION_RETENTION_DAYS", 7),
		envDaysOrDefault("ACTIVITY_LOG_RETENTION_DAYS", 30),
		envIntOrDefault("CLEANUP_BATCH_SIZE", 500),
	)

	loginLimiter := auth.NewLoginRateLimiter(
		envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
	)

	guard := func(h http.HandlerFunc) http.Handler {
		return auth.RequireSession(authService, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/check", authHandler.Check)

	mux.Handle("GET /chat/messages", guard(chatHandler.ListMessages))
	mux.Handle("POST /chat/messages", guard(chatHandler.PostMessage))
	mux.Handle("GET /chat/online", guard(chatHandler.OnlineUsers))

	mux.Handle("GET /todos", guard(todoHandler.ListTasks))
	mux.Handle("POST /todos", guard(todoHandler.CreateTask))
	mux.Handle("POST /todos/{id}/toggle", guard(todoHandler.ToggleTask))
	mux.Handle("DELETE /todos/{id}", guard(todoHandler.DeleteTask))

	mux.Handle("GET /fivem/players", guard(fivemHandler.Players))
	mux.Handle("GET /fivem/vehicles", guard(fivemHandler.Vehicles))
	mux.Handle("GET /fivem/hall-of-fame", guard(fivemHandler.HallOfFame))
	mux.Handle("GET /fivem/status", guard(fivemHandler.Status))

	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database, gameDatabase))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Close:   closeAll,
	}, nil
}

func healthHandler(database, gameDatabase *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{
			"status":   "ok",
			"database": "ok",
			"fivem":    "ok",
			"time":     time.Now().UTC().Format(time.RFC3339),
		}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
		if err := gameDatabase.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["fivem"] = "unreachable"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
