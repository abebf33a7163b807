package dispatch_test

import (
	"context"

	"stayhub.app/eventhub/internal/broker"
	"stayhub.app/eventhub/internal/wire"
)

type mockBroadcaster struct {
	broadcastFn func(ctx context.Context, tenantID, namespace string, payload []byte) error

	tenantIDs  []string
	namespaces []string
	payloads   [][]byte
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, tenantID, namespace string, payload []byte) error {
	m.tenantIDs = append(m.tenantIDs, tenantID)
	m.namespaces = append(m.namespaces, namespace)
	m.payloads = append(m.payloads, payload)
	if m.broadcastFn != nil {
		return m.broadcastFn(ctx, tenantID, namespace, payload)
	}
	return nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, topic string, payload []byte) error

	topics []string
	lines  []string
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	m.topics = append(m.topics, topic)
	m.lines = append(m.lines, string(payload))
	if m.publishFn != nil {
		return m.publishFn(ctx, topic, payload)
	}
	return nil
}

type mockQueue struct {
	records []wire.Record
}

func (m *mockQueue) Enqueue(rec wire.Record) {
	m.records = append(m.records, rec)
}

type mockTracker struct {
	state broker.State
}

func (m *mockTracker) State() broker.State {
	return m.state
}
