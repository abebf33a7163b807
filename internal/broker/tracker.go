package broker

import (
	"context"
	"log/slog"
	"sync"
)

// State is the broker connection state owned by the Tracker.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Tracker owns the broker connection lifecycle. Transitions are driven by
// lifecycle events from the client and by BeginConnect from the owning
// process; subscribers are notified on every state change.
//
// Allowed transitions:
//
//	DISCONNECTED -> CONNECTING -> CONNECTED
//	CONNECTED    -> EXPIRED
//	EXPIRED      -> CONNECTING
//	any          -> DISCONNECTED (explicit teardown)
type Tracker struct {
	mu    sync.Mutex
	state State
	subs  []chan State
}

func NewTracker() *Tracker {
	return &Tracker{state: StateDisconnected}
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// BeginConnect marks the start of a connect attempt. Only valid from
// DISCONNECTED or EXPIRED; a no-op otherwise.
func (t *Tracker) BeginConnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateDisconnected && t.state != StateExpired {
		return
	}
	t.transition(StateConnecting)
}

// Apply folds a broker lifecycle event into the state machine.
func (t *Tracker) Apply(ev LifecycleEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev {
	case EventConnected:
		// CONNECTED is only reachable through an announced connect attempt.
		if t.state != StateConnecting {
			slog.LogAttrs(context.Background(), slog.LevelWarn, "connected event outside a connect attempt ignored",
				slog.String("state", t.state.String()))
			return
		}
		t.transition(StateConnected)
	case EventDisconnected:
		t.transition(StateDisconnected)
	case EventExpired:
		// EXPIRED only exists as a degradation of a live connection.
		if t.state == StateConnected {
			t.transition(StateExpired)
		} else {
			t.transition(StateDisconnected)
		}
	}
}

// Teardown forces DISCONNECTED from any state.
func (t *Tracker) Teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transition(StateDisconnected)
}

// Subscribe returns a channel receiving every state change from now on.
// The channel is buffered; a slow subscriber loses intermediate transitions
// but always observes the most recent one.
func (t *Tracker) Subscribe() <-chan State {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan State, 16)
	t.subs = append(t.subs, ch)
	return ch
}

// transition must be called with t.mu held.
func (t *Tracker) transition(next State) {
	if t.state == next {
		return
	}
	prev := t.state
	t.state = next
	slog.LogAttrs(context.Background(), slog.LevelDebug, "broker state changed",
		slog.String("from", prev.String()),
		slog.String("to", next.String()))
	for _, ch := range t.subs {
		select {
		case ch <- next:
		default:
			// drop the oldest so the latest state always lands
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}
