package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"stayhub.app/eventhub/common/id"
	"stayhub.app/eventhub/common/logger"
	"stayhub.app/eventhub/common/otel"
	"stayhub.app/eventhub/core/config"
	"stayhub.app/eventhub/core/db"
	"stayhub.app/eventhub/internal/broker"
	"stayhub.app/eventhub/internal/dispatch"
	"stayhub.app/eventhub/internal/fanout"
	"stayhub.app/eventhub/internal/http/middleware"
	httprouter "stayhub.app/eventhub/internal/http/router"
	"stayhub.app/eventhub/internal/outbound"
	"stayhub.app/eventhub/internal/schema"
	"stayhub.app/eventhub/internal/store"
	"stayhub.app/eventhub/internal/wire"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)
	slog.InfoContext(ctx, "eventhub starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	// Tenant discovery is a startup precondition: without tenants every
	// fanout would silently drop.
	directory := fanout.NewDirectoryClient(cfg.Directory.URL)
	tenants, err := directory.Discover(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "tenant discovery failed", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "tenants discovered", "count", len(tenants))

	fanoutOpts, err := redis.ParseURL(cfg.Broker.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	fanoutClient := redis.NewClient(fanoutOpts)
	if err := fanoutClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer fanoutClient.Close()

	registry := fanout.Build(tenants, func(t fanout.Tenant) fanout.Broadcaster {
		return fanout.NewRedisBroadcaster(fanoutClient, t.ID)
	})

	brokerClient, err := broker.NewRedisClient(broker.RedisConfig{
		URL:            cfg.Broker.RedisURL,
		PingInterval:   cfg.Broker.PingInterval,
		SessionTimeout: cfg.Broker.SessionTimeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to build broker client", "error", err)
		os.Exit(1)
	}
	defer brokerClient.Close()

	tracker := broker.NewTracker()
	queue := outbound.NewQueue(func(ctx context.Context, rec wire.Record) error {
		return brokerClient.Publish(ctx, cfg.Broker.InboundTopic, []byte(rec.Line()))
	})

	superviseBroker(ctx, brokerClient, tracker, queue, cfg.Broker.ReconnectDelay)

	var audit store.EventLogStore
	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		audit = store.NewEventLogStore(database.Pool())
		slog.InfoContext(ctx, "event audit log enabled")
	}

	dispatcher := dispatch.New(dispatch.Config{
		Registry: schema.Default(),
		Fanout:   registry,
		Tracker:  tracker,
		Queue:    queue,
		Pub:      brokerClient,
		Topic:    cfg.Broker.InboundTopic,
		Audit:    audit,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, dispatcher)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	tracker.Teardown()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// superviseBroker wires the broker lifecycle to the tracker and keeps the
// connection alive: drain on connected, teardown-and-reconnect on
// disconnected or expired. The retry policy is always-retry with a fixed
// delay and no backoff cap, a deliberate simplification.
func superviseBroker(ctx context.Context, client *broker.RedisClient, tracker *broker.Tracker, queue *outbound.Queue, reconnectDelay time.Duration) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-client.Lifecycle():
				tracker.Apply(ev)
			}
		}
	}()

	states := tracker.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-states:
				switch st {
				case broker.StateConnected:
					go queue.Drain(ctx)
				case broker.StateDisconnected, broker.StateExpired:
					_ = client.Close()
					select {
					case <-ctx.Done():
						return
					case <-time.After(reconnectDelay):
					}
					connect(ctx, client, tracker)
				}
			}
		}
	}()

	connect(ctx, client, tracker)
}

func connect(ctx context.Context, client *broker.RedisClient, tracker *broker.Tracker) {
	tracker.BeginConnect()
	if err := client.Connect(ctx); err != nil {
		slog.WarnContext(ctx, "broker connect failed", "error", err)
		tracker.Apply(broker.EventDisconnected)
	}
}

func setupRouter(cfg config.Config, dispatcher dispatch.Service) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span -> Recovery catches panics -> Logger
	// logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, dispatcher)

	return router
}

const banner = `
 _____                 _   _   _       _
| ____|_   _____ _ __ | |_| | | |_   _| |__
|  _| \ \ / / _ \ '_ \| __| |_| | | | | '_ \
| |___ \ V /  __/ | | | |_|  _  | |_| | |_) |
|_____| \_/ \___|_| |_|\__|_| |_|\__,_|_.__/
`
