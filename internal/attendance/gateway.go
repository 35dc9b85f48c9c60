package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/metrics"
	"github.com/Liyanipatel27/attendance-new/pkg/interfaces"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// Mark outcome reasons reported back to the API layer.
const (
	ReasonMarked                  = "marked"
	ReasonFaceMismatch            = "face-mismatch"
	ReasonVerificationUnavailable = "verification-unavailable"
)

// Result describes what happened to a mark attempt.
type Result struct {
	Committed bool   `json:"committed"`
	Status    string `json:"status,omitempty"`
	Reason    string `json:"reason"`
}

// Gateway is the single path through which attendance reaches storage.
// Nothing is committed unless the identity check passed.
type Gateway struct {
	store    interfaces.AttendanceStore
	verifier *Verifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewGateway wires the gateway to its store and verifier. verifier may be
// nil when face verification is disabled; MarkWithImage then fails closed.
func NewGateway(store interfaces.AttendanceStore, verifier *Verifier, logger zerolog.Logger) *Gateway {
	return &Gateway{
		store:    store,
		verifier: verifier,
		logger:   logger.With().Str("component", "attendance").Logger(),
		now:      time.Now,
	}
}

// MarkWithImage verifies the captured image against the claimed student and
// commits a present record only on a confirmed match. A mismatch is not an
// error; the attempt is simply not committed.
func (g *Gateway) MarkWithImage(ctx context.Context, studentID, image string, slot *types.Slot) (*Result, error) {
	if g.verifier == nil {
		metrics.AttendanceCommits.WithLabelValues("rejected").Inc()
		return &Result{Committed: false, Reason: ReasonVerificationUnavailable}, nil
	}

	matched, err := g.verifier.Verify(ctx, studentID, image)
	if err != nil {
		g.logger.Warn().Err(err).Str("student_id", studentID).Msg("verification service unreachable")
		metrics.AttendanceCommits.WithLabelValues("rejected").Inc()
		return &Result{Committed: false, Reason: ReasonVerificationUnavailable}, nil
	}
	if !matched {
		metrics.AttendanceCommits.WithLabelValues("rejected").Inc()
		return &Result{Committed: false, Reason: ReasonFaceMismatch}, nil
	}

	return g.MarkVerified(ctx, studentID, slot)
}

// MarkVerified commits a present record for a student whose identity has
// already been confirmed upstream.
func (g *Gateway) MarkVerified(ctx context.Context, studentID string, slot *types.Slot) (*Result, error) {
	now := g.now()
	rec := &types.AttendanceRecord{
		StudentID:  studentID,
		Date:       now.Format("2006-01-02"),
		Subject:    slot.Subject,
		ClassGroup: slot.ClassGroup,
		TimeSlot:   slot.TimeSlot,
		Status:     types.StatusPresent,
		MarkedAt:   now,
	}
	if slot.Room != nil {
		rec.Room = *slot.Room
	}

	if err := g.store.UpsertAttendance(ctx, rec); err != nil {
		metrics.AttendanceCommits.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("committing attendance: %w", err)
	}

	metrics.AttendanceCommits.WithLabelValues("committed").Inc()
	g.logger.Info().
		Str("student_id", studentID).
		Str("subject", slot.Subject).
		Str("time_slot", slot.TimeSlot).
		Msg("attendance marked")
	return &Result{Committed: true, Status: types.StatusPresent, Reason: ReasonMarked}, nil
}

// Commit stores a fully specified record, used for manual corrections and
// absent marks entered by faculty.
func (g *Gateway) Commit(ctx context.Context, rec *types.AttendanceRecord) error {
	if rec.Status != types.StatusPresent && rec.Status != types.StatusAbsent {
		return fmt.Errorf("invalid attendance status %q", rec.Status)
	}
	if rec.MarkedAt.IsZero() {
		rec.MarkedAt = g.now()
	}
	if rec.Date == "" {
		rec.Date = rec.MarkedAt.Format("2006-01-02")
	}
	if err := g.store.UpsertAttendance(ctx, rec); err != nil {
		metrics.AttendanceCommits.WithLabelValues("error").Inc()
		return fmt.Errorf("committing attendance: %w", err)
	}
	metrics.AttendanceCommits.WithLabelValues("committed").Inc()
	return nil
}
