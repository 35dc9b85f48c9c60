package broker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

func drainOne(t *testing.T, sub *Subscription) types.SessionEvent {
	t.Helper()
	select {
	case evt := <-sub.Events():
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return types.SessionEvent{}
	}
}

func TestStartSessionAssignsIdentity(t *testing.T) {
	b := New(zerolog.Nop())

	session := &types.AttendanceSession{Faculty: "PSK", Subject: "DBMS"}
	b.StartSession(session)

	if session.ID == "" {
		t.Error("expected an assigned session ID")
	}
	if session.StartedAt.IsZero() {
		t.Error("expected an assigned start time")
	}

	got, ok := b.CurrentSession("PSK")
	if !ok || got.ID != session.ID {
		t.Errorf("CurrentSession = %+v, %v", got, ok)
	}
}

func TestStartSessionLastWriteWins(t *testing.T) {
	b := New(zerolog.Nop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	first := &types.AttendanceSession{Faculty: "PSK", Subject: "DBMS"}
	second := &types.AttendanceSession{Faculty: "PSK", Subject: "OS"}
	b.StartSession(first)
	b.StartSession(second)

	sessions := b.ActiveSessions()
	if len(sessions) != 1 {
		t.Fatalf("active sessions = %d, want 1", len(sessions))
	}
	if sessions[0].Subject != "OS" {
		t.Errorf("surviving session = %q, want OS", sessions[0].Subject)
	}

	// Both starts are announced, in order; the replacement does not emit an
	// ended event for the first session.
	evt1 := drainOne(t, sub)
	evt2 := drainOne(t, sub)
	if evt1.Type != types.EventSessionStarted || evt1.Session.Subject != "DBMS" {
		t.Errorf("first event = %s/%s", evt1.Type, evt1.Session.Subject)
	}
	if evt2.Type != types.EventSessionStarted || evt2.Session.Subject != "OS" {
		t.Errorf("second event = %s/%s", evt2.Type, evt2.Session.Subject)
	}
	select {
	case evt := <-sub.Events():
		t.Errorf("unexpected extra event %s", evt.Type)
	default:
	}
}

func TestEndSession(t *testing.T) {
	b := New(zerolog.Nop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.StartSession(&types.AttendanceSession{Faculty: "PSK", Subject: "DBMS"})
	drainOne(t, sub)

	if !b.EndSession("PSK") {
		t.Fatal("EndSession returned false for an active session")
	}
	evt := drainOne(t, sub)
	if evt.Type != types.EventSessionEnded || evt.Session.Faculty != "PSK" {
		t.Errorf("event = %s/%s", evt.Type, evt.Session.Faculty)
	}
	if len(b.ActiveSessions()) != 0 {
		t.Error("session still active after end")
	}
}

func TestEndSessionIdleFaculty(t *testing.T) {
	b := New(zerolog.Nop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	if b.EndSession("nobody") {
		t.Error("EndSession returned true for an idle faculty")
	}
	select {
	case evt := <-sub.Events():
		t.Errorf("idle end emitted event %s", evt.Type)
	default:
	}
}

func TestBroadcastOrderFollowsSubscriptionOrder(t *testing.T) {
	b := New(zerolog.Nop())
	first := b.Subscribe()
	second := b.Subscribe()
	defer b.Unsubscribe(first)
	defer b.Unsubscribe(second)

	b.StartSession(&types.AttendanceSession{Faculty: "PSK"})

	// Both subscribers see the event; the broker filled first's buffer
	// before second's. Buffered channels make the order observable only
	// via delivery, so assert both received it.
	e1 := drainOne(t, first)
	e2 := drainOne(t, second)
	if e1.Type != types.EventSessionStarted || e2.Type != types.EventSessionStarted {
		t.Errorf("events = %s, %s", e1.Type, e2.Type)
	}
}

func TestUnsubscribedClientStopsReceiving(t *testing.T) {
	b := New(zerolog.Nop())
	sub := b.Subscribe()

	b.Unsubscribe(sub)
	b.StartSession(&types.AttendanceSession{Faculty: "PSK"})

	// The channel is closed on unsubscribe; any receive yields the zero
	// value, not a real event.
	if evt, open := <-sub.Events(); open {
		t.Errorf("received event %s on unsubscribed channel", evt.Type)
	}

	// Unsubscribing again is harmless.
	b.Unsubscribe(sub)
}

func TestSlowSubscriberDropsEventsWithoutBlocking(t *testing.T) {
	b := New(zerolog.Nop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Overfill the buffer; the broker must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.StartSession(&types.AttendanceSession{Faculty: "PSK"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	// Exactly a buffer's worth of events is retained.
	received := 0
	for {
		select {
		case <-sub.Events():
			received++
			continue
		default:
		}
		break
	}
	if received != subscriberBuffer {
		t.Errorf("retained %d events, want %d", received, subscriberBuffer)
	}
}
