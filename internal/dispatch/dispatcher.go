// Package dispatch orchestrates the event pipeline: schema validation,
// tenant fanout, and broker forwarding for broker-bound event types.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stayhub.app/eventhub/common/id"
	"stayhub.app/eventhub/common/logger"
	"stayhub.app/eventhub/internal/broker"
	"stayhub.app/eventhub/internal/schema"
	"stayhub.app/eventhub/internal/store"
	"stayhub.app/eventhub/internal/wire"
)

// TenantBroadcaster mirrors fanout.Registry.
type TenantBroadcaster interface {
	Broadcast(ctx context.Context, tenantID, namespace string, payload []byte) error
}

// Publisher is the immediate-publish side of the broker client.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// DeliveryQueue mirrors outbound.Queue.
type DeliveryQueue interface {
	Enqueue(rec wire.Record)
}

// StateSource mirrors broker.Tracker.
type StateSource interface {
	State() broker.State
}

// ValidatedEvent is an event that has passed schema validation.
type ValidatedEvent struct {
	TenantID  string
	EventName string
	Payload   map[string]any
}

// Result reports what happened to a dispatched event.
type Result struct {
	EventName   string
	TenantID    string
	Namespace   string
	BrokerBound bool
	Broadcast   bool
	Published   bool
	Enqueued    bool
}

// SensorReading is one element of a sensor batch, matched by format URN.
type SensorReading struct {
	Demozone string
	Format   string
	Data     map[string]any
}

// Recognized sensor format URNs. Readings with any other format are
// silently skipped.
const (
	FormatURNShower      = "urn:com:stayhub:iot:device:shower"
	FormatURNNoise       = "urn:com:stayhub:iot:device:noise"
	FormatURNTemperature = "urn:com:stayhub:iot:device:temperature"
)

// Service is the dispatching entry point used by the HTTP layer.
type Service interface {
	Dispatch(ctx context.Context, eventName string, payload map[string]any) (Result, error)
	DispatchSensors(ctx context.Context, readings []SensorReading) int
}

type dispatcher struct {
	registry *schema.Registry
	fanout   TenantBroadcaster
	tracker  StateSource
	queue    DeliveryQueue
	pub      Publisher
	topic    string
	audit    store.EventLogStore // nil when no database is configured
	now      func() time.Time
}

type Config struct {
	Registry *schema.Registry
	Fanout   TenantBroadcaster
	Tracker  StateSource
	Queue    DeliveryQueue
	Pub      Publisher
	Topic    string
	Audit    store.EventLogStore
}

func New(cfg Config) Service {
	return &dispatcher{
		registry: cfg.Registry,
		fanout:   cfg.Fanout,
		tracker:  cfg.Tracker,
		queue:    cfg.Queue,
		pub:      cfg.Pub,
		topic:    cfg.Topic,
		audit:    cfg.Audit,
		now:      time.Now,
	}
}

// Dispatch runs one event through validate -> fanout -> forward. Unknown
// names and schema violations are the only errors returned; everything past
// validation is best-effort and never fails the request.
func (d *dispatcher) Dispatch(ctx context.Context, eventName string, payload map[string]any) (Result, error) {
	def, ok := d.registry.Lookup(eventName)
	if !ok {
		return Result{}, schema.ErrUnknownEvent
	}

	tenantID, _ := payload["demozone"].(string)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "eventhub.dispatch",
		Demozone:  logger.Ptr(tenantID),
		EventName: logger.Ptr(def.Name),
	})

	if err := def.Schema.Validate(payload); err != nil {
		slog.InfoContext(ctx, "event rejected", "error", err)
		return Result{}, err
	}

	ev := ValidatedEvent{TenantID: tenantID, EventName: def.Name, Payload: payload}
	result := Result{
		EventName:   def.Name,
		TenantID:    tenantID,
		Namespace:   strings.ToLower(def.Name),
		BrokerBound: def.BrokerBound,
	}

	body, err := json.Marshal(ev.Payload)
	if err != nil {
		slog.ErrorContext(ctx, "payload re-marshal failed", "error", err)
		return result, nil
	}

	if err := d.fanout.Broadcast(ctx, ev.TenantID, result.Namespace, body); err != nil {
		// Fanout misses never fail the request.
		slog.WarnContext(ctx, "fanout skipped", "namespace", result.Namespace, "error", err)
	} else {
		result.Broadcast = true
	}

	d.recordAudit(ctx, ev, def.BrokerBound, body)

	if def.BrokerBound {
		rec, err := wire.EncodeEvent(ev.EventName, ev.TenantID, ev.Payload, d.now())
		if err != nil {
			// A malformed record never reaches the broker client; it is
			// discarded, not retried.
			slog.ErrorContext(ctx, "discarding unencodable event", "error", err)
			return result, nil
		}
		result.Published, result.Enqueued = d.forward(ctx, rec)
	}

	return result, nil
}

// DispatchSensors converts each recognized reading into a wire record and
// hands it to the same publish-or-enqueue path as event forwarding. Returns
// the number of readings accepted.
func (d *dispatcher) DispatchSensors(ctx context.Context, readings []SensorReading) int {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "eventhub.dispatch"})

	accepted := 0
	for _, r := range readings {
		var (
			rec wire.Record
			err error
		)
		switch r.Format {
		case FormatURNShower:
			rec, err = wire.EncodeShower(r.Demozone, r.Data, d.now())
		case FormatURNNoise:
			rec, err = wire.EncodeNoise(r.Demozone, r.Data, d.now())
		case FormatURNTemperature:
			rec, err = wire.EncodeTemperature(r.Demozone, r.Data, d.now())
		default:
			slog.DebugContext(ctx, "skipping unrecognized sensor format", "format", r.Format)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "discarding unencodable reading", "format", r.Format, "error", err)
			continue
		}
		d.forward(ctx, rec)
		accepted++
	}
	return accepted
}

// forward publishes immediately when connected, falling back to the delivery
// queue on any failure. This is the single retry-on-disconnect path for
// every broker-bound record.
func (d *dispatcher) forward(ctx context.Context, rec wire.Record) (published, enqueued bool) {
	if d.tracker.State() == broker.StateConnected {
		err := d.pub.Publish(ctx, d.topic, []byte(rec.Line()))
		if err == nil {
			return true, false
		}
		slog.WarnContext(ctx, "immediate publish failed, queueing", "error", err)
	}
	d.queue.Enqueue(rec)
	return false, true
}

func (d *dispatcher) recordAudit(ctx context.Context, ev ValidatedEvent, brokerBound bool, body []byte) {
	if d.audit == nil {
		return
	}
	entry := &store.EventLog{
		ID:          id.New(),
		Demozone:    ev.TenantID,
		EventName:   ev.EventName,
		BrokerBound: brokerBound,
		Payload:     body,
	}
	if err := d.audit.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "event audit write failed", "error", err)
	}
}

// IsRejection reports whether a Dispatch error maps to the 405 contract.
func IsRejection(err error) bool {
	var verr *schema.ValidationError
	return errors.Is(err, schema.ErrUnknownEvent) || errors.As(err, &verr)
}
