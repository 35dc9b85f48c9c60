package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/metrics"
	"github.com/Liyanipatel27/attendance-new/internal/timetable"
	"github.com/Liyanipatel27/attendance-new/pkg/interfaces"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// StoreProvider synthesizes grids from the normalized schedule tables. An
// identity may be either a faculty display name or a class section; the
// faculty table is consulted first because faculty names are the more
// common lookup during attendance taking.
type StoreProvider struct {
	store  interfaces.ScheduleStore
	logger zerolog.Logger
}

// NewStoreProvider creates a provider over the relational schedule store.
func NewStoreProvider(store interfaces.ScheduleStore, logger zerolog.Logger) *StoreProvider {
	return &StoreProvider{
		store:  store,
		logger: logger.With().Str("component", "store_provider").Logger(),
	}
}

// FetchGrid implements interfaces.ScheduleSource.
func (p *StoreProvider) FetchGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error) {
	start := time.Now()
	grid, err := p.fetchGrid(ctx, identity, day)
	metrics.GridFetchDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GridFetches.WithLabelValues("store", "error").Inc()
		return nil, err
	}
	metrics.GridFetches.WithLabelValues("store", "ok").Inc()
	return grid, nil
}

func (p *StoreProvider) fetchGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error) {
	days := types.Days
	if day != "" {
		canonical, ok := types.CanonicalDay(day)
		if !ok {
			return nil, fmt.Errorf("unknown day %q: %w", day, types.ErrNotFound)
		}
		days = []string{canonical}
	}

	rowsByDay := make(map[string][]types.ScheduleRow)
	for _, d := range days {
		rows, err := p.lookupDay(ctx, identity, d)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			rowsByDay[d] = rows
		}
	}
	if len(rowsByDay) == 0 {
		return nil, fmt.Errorf("identity %q has no schedule rows: %w", identity, types.ErrNotFound)
	}

	if day != "" {
		canonical, _ := types.CanonicalDay(day)
		return oneDayGrid(identity, canonical, rowsByDay[canonical]), nil
	}
	return weekGrid(identity, rowsByDay)
}

// lookupDay queries the faculty table first, then the class table.
func (p *StoreProvider) lookupDay(ctx context.Context, identity, day string) ([]types.ScheduleRow, error) {
	rows, err := p.store.FacultySchedule(ctx, identity, day)
	if err != nil {
		return nil, fmt.Errorf("faculty schedule: %v: %w", err, types.ErrSourceUnavailable)
	}
	if len(rows) > 0 {
		return rows, nil
	}
	rows, err = p.store.ClassSchedule(ctx, identity, day)
	if err != nil {
		return nil, fmt.Errorf("class schedule: %v: %w", err, types.ErrSourceUnavailable)
	}
	return rows, nil
}

// oneDayGrid carries the rows over directly: the store already returns them
// in slot order, so no reconstruction is needed.
func oneDayGrid(identity, day string, rows []types.ScheduleRow) *types.ScheduleGrid {
	header := make([]string, 0, len(rows))
	cells := make([]string, 0, len(rows))
	for _, r := range rows {
		header = append(header, r.TimeSlot)
		cells = append(cells, composeCell(r))
	}
	return &types.ScheduleGrid{
		Identity:  identity,
		Header:    header,
		Days:      map[string][]string{day: cells},
		FetchedAt: time.Now(),
	}
}

// weekGrid unions the per-day slot labels into one header, ordered by
// parsed start time, and places each row's cell under its label column.
func weekGrid(identity string, rowsByDay map[string][]types.ScheduleRow) (*types.ScheduleGrid, error) {
	seen := make(map[string]int)
	var labels []string
	for _, rows := range rowsByDay {
		for _, r := range rows {
			if _, ok := seen[r.TimeSlot]; !ok {
				seen[r.TimeSlot] = 0
				labels = append(labels, r.TimeSlot)
			}
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		si, erri := labelStart(labels[i])
		sj, errj := labelStart(labels[j])
		if erri != nil || errj != nil {
			return erri == nil && errj != nil
		}
		return si < sj
	})
	for i, l := range labels {
		seen[l] = i
	}

	grid := &types.ScheduleGrid{
		Identity:  identity,
		Header:    labels,
		Days:      make(map[string][]string, len(rowsByDay)),
		FetchedAt: time.Now(),
	}
	for day, rows := range rowsByDay {
		cells := make([]string, len(labels))
		for _, r := range rows {
			cells[seen[r.TimeSlot]] = composeCell(r)
		}
		grid.Days[day] = cells
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return grid, nil
}

func labelStart(label string) (int, error) {
	start, _, err := timetable.ParseLabel(label, timetable.DefaultAfternoonCutoff)
	return start, err
}

// composeCell renders a schedule row back into the newline-delimited cell
// form the resolver parses, dropping trailing empty fields.
func composeCell(r types.ScheduleRow) string {
	fields := []string{r.Subject, r.ClassGroup, r.Room, r.Batch}
	end := len(fields)
	for end > 0 && strings.TrimSpace(fields[end-1]) == "" {
		end--
	}
	return strings.Join(fields[:end], "\n")
}
