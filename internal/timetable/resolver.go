package timetable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/metrics"
	"github.com/Liyanipatel27/attendance-new/pkg/interfaces"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// Resolver answers "what class is happening right now" for an identity.
type Resolver struct {
	cache  interfaces.GridCache
	cutoff int
	logger zerolog.Logger
}

// NewResolver creates a resolver over the given grid cache. cutoff is the
// afternoon-inference hour for meridiem-less labels; pass a negative value
// to use the default.
func NewResolver(cache interfaces.GridCache, cutoff int, logger zerolog.Logger) *Resolver {
	if cutoff < 0 {
		cutoff = DefaultAfternoonCutoff
	}
	return &Resolver{
		cache:  cache,
		cutoff: cutoff,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// ResolveCurrentSlot finds the single slot active at now (minutes from
// midnight) on day for identity. A nil slot with nil error means nothing is
// scheduled; callers cannot distinguish "no schedule data" from "genuinely
// free". Only an exhausted provider chain is an error.
//
// A slot is active when start <= now < end; the end minute belongs to the
// next slot so adjacent slots never both claim the boundary. When malformed
// overlapping labels make several columns match, the earliest column wins.
func (r *Resolver) ResolveCurrentSlot(ctx context.Context, identity, day string, now int) (*types.Slot, error) {
	grid, err := r.cache.GetGrid(ctx, identity, day)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			metrics.SlotResolutions.WithLabelValues("none").Inc()
			return nil, nil
		}
		r.logger.Warn().Err(err).Str("identity", identity).Str("day", day).
			Msg("grid unavailable")
		metrics.SlotResolutions.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("current slot for %q: %w", identity, types.ErrResolutionUnavailable)
	}

	row, ok := grid.DayRow(day)
	if !ok {
		metrics.SlotResolutions.WithLabelValues("none").Inc()
		return nil, nil
	}
	canonical, _ := types.CanonicalDay(day)

	for i, label := range grid.Header {
		start, end, err := ParseLabel(label, r.cutoff)
		if err != nil {
			// Malformed labels are skipped, not fatal; the rest of the
			// header still resolves.
			r.logger.Debug().Err(err).Str("identity", identity).Msg("skipping label")
			continue
		}
		if now < start || now >= end {
			continue
		}
		if i >= len(row) {
			break
		}
		cell, ok := ParseCell(row[i])
		if !ok {
			// Time matched but the cell is empty or the placeholder
			// sentinel: the identity is free.
			metrics.SlotResolutions.WithLabelValues("none").Inc()
			return nil, nil
		}
		metrics.SlotResolutions.WithLabelValues("slot").Inc()
		return &types.Slot{
			Day:        canonical,
			TimeSlot:   strings.TrimSpace(label),
			Subject:    cell.Subject,
			ClassGroup: cell.ClassGroup,
			Batch:      cell.Batch,
			Room:       cell.Room,
		}, nil
	}

	metrics.SlotResolutions.WithLabelValues("none").Inc()
	return nil, nil
}
