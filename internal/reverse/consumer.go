// Package reverse consumes broker-originated flat records and forwards the
// derived mood to the downstream write-back endpoint.
package reverse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub.app/eventhub/common/logger"
	"stayhub.app/eventhub/internal/broker"
	"stayhub.app/eventhub/internal/wire"
)

// Subscriber mirrors the subscribe side of broker.Client.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan broker.Message, error)
}

// Connector mirrors the connection side of broker.Client.
type Connector interface {
	Connect(ctx context.Context) error
	Close() error
}

// MoodRecorder posts a derived mood against a tenant/booking resource.
type MoodRecorder interface {
	RecordMood(ctx context.Context, demozone string, bookingID int64, mood int) error
}

// Consumer tails the reverse-direction topic. Malformed lines are dropped
// and logged, never retried; write-back failures are logged and never block
// the next message.
type Consumer struct {
	sub      Subscriber
	recorder MoodRecorder
	topic    string
}

func New(sub Subscriber, recorder MoodRecorder, topic string) *Consumer {
	return &Consumer{sub: sub, recorder: recorder, topic: topic}
}

// Run processes messages until the subscription channel closes or the
// context is done.
func (c *Consumer) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "eventhub.reverse"})

	messages, err := c.sub.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "reverse consumer started", "topic", c.topic)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				slog.InfoContext(ctx, "reverse subscription closed")
				return nil
			}
			c.Process(ctx, msg)
		}
	}
}

// RunForever keeps the consumer alive across broker loss: connect, run,
// tear down, wait out the delay, reconnect. A closed subscription or a
// failed connect is never fatal; only context cancellation ends the loop.
func (c *Consumer) RunForever(ctx context.Context, conn Connector, delay time.Duration) {
	for {
		if err := conn.Connect(ctx); err != nil {
			slog.WarnContext(ctx, "broker connect failed, retrying", "error", err)
		} else {
			err := c.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "reverse consumer stopped, reconnecting", "error", err)
			_ = conn.Close()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// Process handles one message. Exported for direct use in tests and the
// worker entrypoint.
func (c *Consumer) Process(ctx context.Context, msg broker.Message) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(msg.ID)})

	sc := logger.StartSpan(ctx, "reverse.process_message")
	defer sc.End()
	ctx = sc.Context()

	decoded, err := wire.DecodeReverse(msg.Value)
	if err != nil {
		if errors.Is(err, wire.ErrMalformedRecord) {
			slog.ErrorContext(ctx, "dropping malformed record", "value", msg.Value, "error", err)
			return
		}
		slog.ErrorContext(ctx, "dropping undecodable record", "error", err)
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Demozone:  logger.Ptr(decoded.Demozone),
		BookingID: logger.Ptr(decoded.BookingID),
	})

	if err := c.recorder.RecordMood(ctx, decoded.Demozone, decoded.BookingID, decoded.Mood); err != nil {
		sc.RecordError(err)
		slog.WarnContext(ctx, "mood write-back failed", "mood", decoded.Mood, "error", err)
		return
	}

	slog.DebugContext(ctx, "mood recorded", "mood", decoded.Mood)
}
