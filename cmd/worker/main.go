package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayhub.app/eventhub/common/id"
	"stayhub.app/eventhub/common/logger"
	"stayhub.app/eventhub/common/otel"
	"stayhub.app/eventhub/core/config"
	"stayhub.app/eventhub/internal/broker"
	"stayhub.app/eventhub/internal/reverse"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)
	slog.InfoContext(ctx, "eventhub worker starting", "env", cfg.Env, "topic", cfg.Broker.OutboundTopic)

	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	if !cfg.WriteBack.Enabled() {
		slog.ErrorContext(ctx, "WRITEBACK_BASE_URL is required")
		os.Exit(1)
	}

	client, err := broker.NewRedisClient(broker.RedisConfig{
		URL:            cfg.Broker.RedisURL,
		PingInterval:   cfg.Broker.PingInterval,
		SessionTimeout: cfg.Broker.SessionTimeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to build broker client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	consumer := reverse.New(client, reverse.NewWriteBackClient(cfg.WriteBack.BaseURL), cfg.Broker.OutboundTopic)

	// The worker is useless without a broker connection, so it retries
	// indefinitely rather than exiting; only a shutdown signal ends the loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.RunForever(ctx, client, cfg.Broker.ReconnectDelay)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}
