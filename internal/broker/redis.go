package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotConnected = errors.New("broker not connected")

// RedisConfig configures the Redis Streams broker client.
type RedisConfig struct {
	URL            string
	PingInterval   time.Duration // health-check cadence for the monitor
	SessionTimeout time.Duration // unhealthy beyond this is reported as expired
	ReadBlock      time.Duration // XRead block duration for subscriptions
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.PingInterval <= 0 {
		c.PingInterval = 5 * time.Second
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.ReadBlock <= 0 {
		c.ReadBlock = 5 * time.Second
	}
	return c
}

// RedisClient is a broker Client backed by Redis streams. Topics map to
// stream keys; each published record is one stream entry carrying the flat
// line under the "value" field.
type RedisClient struct {
	cfg  RedisConfig
	opts *redis.Options

	mu      sync.Mutex
	client  *redis.Client
	monitor chan struct{}

	lifecycle chan LifecycleEvent
}

func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	cfg = cfg.withDefaults()
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing broker url: %w", err)
	}
	return &RedisClient{
		cfg:       cfg,
		opts:      opts,
		lifecycle: make(chan LifecycleEvent, 16),
	}, nil
}

// Connect dials the broker and starts the connection monitor. On success a
// connected lifecycle event is emitted.
func (c *RedisClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.teardownLocked()
	}

	client := redis.NewClient(c.opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connecting to broker: %w", err)
	}

	c.client = client
	c.monitor = make(chan struct{})
	go c.monitorConnection(c.client, c.monitor)

	c.emit(EventConnected)
	return nil
}

// monitorConnection pings the broker on a fixed cadence and converts
// failures into lifecycle events. It stops itself after reporting; the
// orchestrator tears down and reconnects.
func (c *RedisClient) monitorConnection(client *redis.Client, stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	lastHealthy := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PingInterval)
			err := client.Ping(ctx).Err()
			cancel()
			if err == nil {
				lastHealthy = time.Now()
				continue
			}

			if time.Since(lastHealthy) > c.cfg.SessionTimeout {
				slog.Warn("broker session expired", "error", err)
				c.emit(EventExpired)
			} else {
				slog.Warn("broker connection lost", "error", err)
				c.emit(EventDisconnected)
			}
			return
		}
	}
}

// Publish appends one record to the topic stream.
func (c *RedisClient) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return ErrNotConnected
	}

	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{
			"id":    uuid.NewString(),
			"value": string(payload),
		},
	}).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe tails the topic stream from its current tip. The returned
// channel closes when the context is done or the read loop hits an error.
func (c *RedisClient) Subscribe(ctx context.Context, topic string) (<-chan Message, error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return nil, ErrNotConnected
	}

	// Pin the tail to a concrete entry ID up front. Tailing with "$" would
	// re-resolve the tip on every blocking read, skipping entries that land
	// between two reads.
	lastID := "0"
	if entries, err := client.XRevRangeN(ctx, topic, "+", "-", 1).Result(); err != nil {
		return nil, fmt.Errorf("resolving tail of %s: %w", topic, err)
	} else if len(entries) > 0 {
		lastID = entries[0].ID
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			streams, err := client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{topic, lastID},
				Count:   64,
				Block:   c.cfg.ReadBlock,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() == nil {
					slog.ErrorContext(ctx, "subscription read failed", "topic", topic, "error", err)
					c.emit(EventDisconnected)
				}
				return
			}
			for _, stream := range streams {
				for _, msg := range stream.Messages {
					lastID = msg.ID
					value, _ := msg.Values["value"].(string)
					select {
					case out <- Message{ID: msg.ID, Topic: topic, Value: value}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

func (c *RedisClient) Lifecycle() <-chan LifecycleEvent {
	return c.lifecycle
}

// Close tears down the current connection. Safe to call repeatedly; the
// client can be reconnected with Connect afterwards.
func (c *RedisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	return nil
}

// teardownLocked must be called with c.mu held.
func (c *RedisClient) teardownLocked() {
	if c.monitor != nil {
		close(c.monitor)
		c.monitor = nil
	}
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}
}

func (c *RedisClient) emit(ev LifecycleEvent) {
	select {
	case c.lifecycle <- ev:
	default:
		slog.Warn("lifecycle event dropped", "event", ev.String())
	}
}
