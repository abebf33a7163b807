package broker

import "context"

// LifecycleEvent is a connection lifecycle notification emitted by a broker
// client. The connection state tracker is driven exclusively by these.
type LifecycleEvent int

const (
	EventConnected LifecycleEvent = iota
	EventDisconnected
	EventExpired
)

func (e LifecycleEvent) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Message is one flat-record message read from a broker topic.
type Message struct {
	ID    string
	Topic string
	Value string
}

// Client is the message-broker connection. Publish and Subscribe operate on
// named topics; Lifecycle surfaces connection transitions for the tracker.
type Client interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (<-chan Message, error)
	Lifecycle() <-chan LifecycleEvent
	Close() error
}
