package broker_test

import (
	"testing"

	"stayhub.app/eventhub/internal/broker"
)

func TestTrackerInitialState(t *testing.T) {
	tr := broker.NewTracker()
	if tr.State() != broker.StateDisconnected {
		t.Fatalf("initial state = %s, want disconnected", tr.State())
	}
}

func TestTrackerConnectCycle(t *testing.T) {
	tr := broker.NewTracker()

	tr.BeginConnect()
	if tr.State() != broker.StateConnecting {
		t.Fatalf("after BeginConnect: %s", tr.State())
	}

	tr.Apply(broker.EventConnected)
	if tr.State() != broker.StateConnected {
		t.Fatalf("after connected event: %s", tr.State())
	}

	tr.Apply(broker.EventExpired)
	if tr.State() != broker.StateExpired {
		t.Fatalf("after expired event: %s", tr.State())
	}

	// EXPIRED -> CONNECTING is a legal retry path
	tr.BeginConnect()
	if tr.State() != broker.StateConnecting {
		t.Fatalf("reconnect from expired: %s", tr.State())
	}
}

func TestTrackerBeginConnectIgnoredWhileConnected(t *testing.T) {
	tr := broker.NewTracker()
	tr.BeginConnect()
	tr.Apply(broker.EventConnected)

	tr.BeginConnect()
	if tr.State() != broker.StateConnected {
		t.Fatalf("BeginConnect from connected should be a no-op, got %s", tr.State())
	}
}

func TestTrackerConnectedEventWithoutConnectAttemptIgnored(t *testing.T) {
	tr := broker.NewTracker()

	tr.Apply(broker.EventConnected)
	if tr.State() != broker.StateDisconnected {
		t.Fatalf("connected event from disconnected should be ignored, got %s", tr.State())
	}

	tr.BeginConnect()
	tr.Apply(broker.EventConnected)
	tr.Apply(broker.EventExpired)
	tr.Apply(broker.EventConnected)
	if tr.State() != broker.StateExpired {
		t.Fatalf("connected event from expired should be ignored, got %s", tr.State())
	}
}

func TestTrackerExpiredWithoutConnectionMeansDisconnected(t *testing.T) {
	tr := broker.NewTracker()
	tr.BeginConnect()
	tr.Apply(broker.EventExpired)
	if tr.State() != broker.StateDisconnected {
		t.Fatalf("expired while connecting should land on disconnected, got %s", tr.State())
	}
}

func TestTrackerTeardownFromAnyState(t *testing.T) {
	tr := broker.NewTracker()
	tr.BeginConnect()
	tr.Apply(broker.EventConnected)
	tr.Teardown()
	if tr.State() != broker.StateDisconnected {
		t.Fatalf("after teardown: %s", tr.State())
	}
}

func TestTrackerNotifiesSubscribers(t *testing.T) {
	tr := broker.NewTracker()
	ch := tr.Subscribe()

	tr.BeginConnect()
	tr.Apply(broker.EventConnected)

	if got := <-ch; got != broker.StateConnecting {
		t.Fatalf("first notification = %s, want connecting", got)
	}
	if got := <-ch; got != broker.StateConnected {
		t.Fatalf("second notification = %s, want connected", got)
	}
}

func TestTrackerNoNotificationOnSameState(t *testing.T) {
	tr := broker.NewTracker()
	ch := tr.Subscribe()

	tr.Teardown() // already disconnected
	select {
	case st := <-ch:
		t.Fatalf("unexpected notification %s for no-op transition", st)
	default:
	}
}
