package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/certlearn/stepwise/internal/cache"
	"github.com/certlearn/stepwise/internal/config"
	"github.com/certlearn/stepwise/internal/daemon"
	"github.com/certlearn/stepwise/internal/exercise"
	"github.com/certlearn/stepwise/internal/progress"
	"github.com/certlearn/stepwise/internal/queue"
	"github.com/certlearn/stepwise/internal/session"
	"github.com/certlearn/stepwise/internal/storage/postgres"
	"github.com/certlearn/stepwise/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.Debug)

	// Load exercise content
	registry := exercise.NewRegistry(exercise.NewLoader(cfg.ExercisesPath))
	if err := registry.Load(); err != nil {
		return fmt.Errorf("load exercises: %w", err)
	}
	slog.Info("exercises loaded", "path", cfg.ExercisesPath, "count", registry.Count())

	ctx := context.Background()

	// Select the progress store backend
	store, closeStore, err := openProgressStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open progress store: %w", err)
	}
	defer closeStore()

	var opts []progress.Option

	// Optional Redis best-score cache
	if cfg.RedisAddr != "" {
		scoreCache, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
		} else {
			defer scoreCache.Close()
			opts = append(opts, progress.WithCache(scoreCache))
			slog.Info("best-score cache enabled", "addr", cfg.RedisAddr)
		}
	}

	// Optional RabbitMQ progress event fan-out
	var consumer *queue.Consumer
	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()

		opts = append(opts, progress.WithPublisher(queue.NewProducer(conn)))

		// Workers drain published events back into the store. The
		// upsert keeps the retained maximum, so replays are safe.
		if cfg.ConsumerWorkers > 0 {
			consumerCfg := queue.DefaultConsumerConfig()
			consumerCfg.Workers = cfg.ConsumerWorkers
			consumer = queue.NewConsumer(conn, store, consumerCfg)
			if err := consumer.Start(ctx); err != nil {
				return fmt.Errorf("start consumer: %w", err)
			}
			defer consumer.Stop()
		}
	}

	progressSvc := progress.NewService(store, opts...)
	sessions := session.NewService(session.NewStore(), registry, progressSvc)

	server := daemon.NewServer(daemon.ServerConfig{
		Config:   cfg,
		Registry: registry,
		Sessions: sessions,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// openProgressStore picks the progress backend from configuration.
// A remote progress API takes precedence, then Postgres, then the
// embedded SQLite store.
func openProgressStore(ctx context.Context, cfg *config.Config) (progress.Recorder, func(), error) {
	if cfg.ProgressAPIURL != "" {
		slog.Info("using remote progress API", "url", cfg.ProgressAPIURL)
		return progress.NewRemoteRecorder(cfg.ProgressAPIURL), func() {}, nil
	}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := postgres.NewProgressRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		slog.Info("using postgres progress store")
		return repo, pool.Close, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	slog.Info("using sqlite progress store", "path", cfg.SQLitePath)
	return sqlite.NewProgressStore(db), func() { db.Close() }, nil
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
