// Package broker maintains the set of open attendance sessions and fans out
// lifecycle events to subscribed clients.
package broker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/metrics"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// subscriberBuffer bounds each subscriber's event queue. Delivery is
// fire-and-forget telemetry: a subscriber that falls this far behind loses
// events rather than blocking the broker.
const subscriberBuffer = 16

// Subscription is one live client's view of the event stream. Events() only
// carries events published after Subscribe; there is no replay.
type Subscription struct {
	id string
	ch chan types.SessionEvent
}

// Events returns the receive side of the subscription.
func (s *Subscription) Events() <-chan types.SessionEvent {
	return s.ch
}

// Broker coordinates live attendance sessions. At most one session is
// active per faculty; a new start for the same faculty replaces the old
// session (last write wins on the faculty key).
type Broker struct {
	mu          sync.Mutex
	active      map[string]*types.AttendanceSession // faculty -> current session
	subscribers []*Subscription                     // broadcast order == subscription order
	logger      zerolog.Logger
}

// New creates an empty broker.
func New(logger zerolog.Logger) *Broker {
	return &Broker{
		active: make(map[string]*types.AttendanceSession),
		logger: logger.With().Str("component", "session_broker").Logger(),
	}
}

// StartSession opens (or replaces) the faculty's session and broadcasts a
// session-started event to every subscriber in subscription order.
func (b *Broker) StartSession(session *types.AttendanceSession) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	b.mu.Lock()
	replaced := b.active[session.Faculty]
	b.active[session.Faculty] = session
	b.broadcastLocked(types.EventSessionStarted, session)
	metrics.ActiveSessions.Set(float64(len(b.active)))
	b.mu.Unlock()

	evt := b.logger.Info().
		Str("faculty", session.Faculty).
		Str("subject", session.Subject).
		Str("time_slot", session.TimeSlot)
	if replaced != nil {
		evt = evt.Str("replaced", replaced.ID)
	}
	evt.Msg("session started")
}

// EndSession closes the faculty's current session, broadcasting a
// session-ended event. Ending an idle faculty is a no-op and returns false.
func (b *Broker) EndSession(faculty string) bool {
	b.mu.Lock()
	session, ok := b.active[faculty]
	if ok {
		delete(b.active, faculty)
		b.broadcastLocked(types.EventSessionEnded, session)
		metrics.ActiveSessions.Set(float64(len(b.active)))
	}
	b.mu.Unlock()

	if ok {
		b.logger.Info().Str("faculty", faculty).Msg("session ended")
	}
	return ok
}

// ActiveSessions returns a snapshot of all open sessions.
func (b *Broker) ActiveSessions() []*types.AttendanceSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*types.AttendanceSession, 0, len(b.active))
	for _, s := range b.active {
		out = append(out, s)
	}
	return out
}

// CurrentSession returns the faculty's open session, if any.
func (b *Broker) CurrentSession(faculty string) (*types.AttendanceSession, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.active[faculty]
	return s, ok
}

// Subscribe registers a new event subscriber. The caller owns the returned
// subscription and must Unsubscribe it when the connection goes away.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{
		id: uuid.New().String(),
		ch: make(chan types.SessionEvent, subscriberBuffer),
	}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	metrics.Subscribers.Set(float64(len(b.subscribers)))
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its event channel. Safe to
// call more than once.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	for i, s := range b.subscribers {
		if s.id == sub.id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(s.ch)
			break
		}
	}
	metrics.Subscribers.Set(float64(len(b.subscribers)))
	b.mu.Unlock()
}

// broadcastLocked delivers one event to every subscriber in order. Sends
// never block: a full subscriber buffer drops the event for that subscriber
// only. Callers must hold b.mu.
func (b *Broker) broadcastLocked(eventType string, session *types.AttendanceSession) {
	event := types.SessionEvent{
		Type:      eventType,
		Session:   session,
		Timestamp: time.Now(),
	}
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- event:
		default:
			metrics.EventsDropped.Inc()
			b.logger.Warn().Str("subscriber", sub.id).Str("type", eventType).
				Msg("subscriber buffer full, dropping event")
		}
	}
	metrics.SessionEvents.WithLabelValues(eventType).Inc()
}
