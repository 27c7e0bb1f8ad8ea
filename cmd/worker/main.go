package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sitepulse/internal/config"
	"sitepulse/internal/consumer"
	"sitepulse/internal/queue"
	"sitepulse/internal/store"
	"sitepulse/pkg/logger"
	"sitepulse/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown. The consumer observes it only
	// between messages, so an in-flight insert always completes.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	events := store.NewPostgres(db)
	if err := events.EnsureSchema(rootCtx); err != nil {
		log.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	q, err := queue.NewRedis(rdb, cfg.Queue.Name)
	if err != nil {
		log.Error("queue init failed", "err", err)
		os.Exit(1)
	}

	c := consumer.New(q, events, log, consumer.Config{
		PopTimeout: cfg.Worker.PopTimeout,
		MaxEvents:  cfg.Worker.MaxEvents,
	})

	if err := c.Run(rootCtx); err != nil {
		log.Error("consumer failed", "err", err)
		os.Exit(1)
	}
	log.Info("worker exited")
}
