package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/coreybb/timetrack/api"
	"github.com/coreybb/timetrack/auth"
	"github.com/coreybb/timetrack/datastore"
	rh "github.com/coreybb/timetrack/route-handlers"
)

const (
	defaultPort        = "8080"
	defaultDatabaseURL = "user=postgres password=password dbname=timetrack host=localhost port=5432 sslmode=disable"
	dbPingTimeout      = 5 * time.Second
	migrateTimeout     = 2 * time.Minute
	shutdownTimeout    = 15 * time.Second
	dbMaxOpenConns     = 25
	dbMaxIdleConns     = 25
	dbConnMaxLifetime  = 5 * time.Minute
)

type config struct {
	port          string
	databaseURL   string
	logLevel      slog.Level
	runMigrations bool
	policy        rh.AccessPolicy
}

func main() {
	cfg := loadConfig()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.logLevel})))

	db, err := setupDatabase(cfg.databaseURL)
	if err != nil {
		slog.Error("Database setup failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.runMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
		err := datastore.Migrate(ctx, db)
		cancel()
		if err != nil {
			slog.Error("Schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	userRepo := datastore.NewUserRepository(db)
	projectRepo := datastore.NewProjectRepository(db)
	memberRepo := datastore.NewProjectMemberRepository(db)
	timeRecordRepo := datastore.NewTimeRecordRepository(db)
	tokenRepo := datastore.NewTokenRepository(db)

	tokens := auth.NewGateway(tokenRepo)

	handlers := api.Handlers{
		Auth:        rh.NewAuthHandler(userRepo, tokens),
		Users:       rh.NewUserHandler(userRepo, cfg.policy),
		Projects:    rh.NewProjectHandler(projectRepo, memberRepo, timeRecordRepo, cfg.policy),
		TimeRecords: rh.NewTimeRecordHandler(timeRecordRepo),
	}

	startServer(cfg.port, api.SetupRoutes(handlers, tokens))
}

func loadConfig() config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		dbURL = defaultDatabaseURL
		slog.Warn("DB_CONNECTION_STRING not set, using default local connection string.")
	}

	return config{
		port:          port,
		databaseURL:   dbURL,
		logLevel:      parseLogLevel(os.Getenv("LOG_LEVEL")),
		runMigrations: envBool("RUN_MIGRATIONS", true),
		policy: rh.AccessPolicy{
			ScopeProjectsToMembers: envBool("SCOPE_PROJECTS_TO_MEMBERS", false),
			RestrictUsersToSelf:    envBool("RESTRICT_USERS_TO_SELF", false),
		},
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("Ignoring unparsable boolean setting", "key", key, "value", raw)
		return fallback
	}
	return v
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connection successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownSignal // Block until signal received
	slog.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}

	slog.Info("Server gracefully stopped")
}
