// Package source provides the concrete schedule providers: the Google
// Sheets mirror and the relational store.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/sheets/v4"

	"github.com/Liyanipatel27/attendance-new/internal/metrics"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// sheetRange bounds the fetched region; real timetable tabs are far smaller.
const sheetRange = "A1:Z50"

// SheetProvider reads a week grid from one tab of a shared spreadsheet.
// Tabs are located by their numeric sheet ID, never by title: titles get
// renamed and duplicated by the people maintaining the sheet, the ID does
// not change.
type SheetProvider struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetIDs      map[string]int64 // identity -> numeric sheet ID
	logger        zerolog.Logger
}

// NewSheetProvider creates a provider over an authenticated Sheets service.
func NewSheetProvider(svc *sheets.Service, spreadsheetID string, sheetIDs map[string]int64, logger zerolog.Logger) *SheetProvider {
	return &SheetProvider{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      sheetIDs,
		logger:        logger.With().Str("component", "sheet_provider").Logger(),
	}
}

// FetchGrid implements interfaces.ScheduleSource.
func (p *SheetProvider) FetchGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error) {
	start := time.Now()
	grid, err := p.fetchGrid(ctx, identity, day)
	metrics.GridFetchDuration.WithLabelValues("sheet").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GridFetches.WithLabelValues("sheet", "error").Inc()
		return nil, err
	}
	metrics.GridFetches.WithLabelValues("sheet", "ok").Inc()
	return grid, nil
}

func (p *SheetProvider) fetchGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error) {
	sheetID, ok := p.sheetIDs[identity]
	if !ok {
		return nil, fmt.Errorf("identity %q has no sheet mapping: %w", identity, types.ErrNotFound)
	}

	meta, err := p.svc.Spreadsheets.Get(p.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet metadata: %v: %w", err, types.ErrSourceUnavailable)
	}

	var title string
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == sheetID {
			title = sh.Properties.Title
			break
		}
	}
	if title == "" {
		return nil, fmt.Errorf("no tab with sheet ID %d: %w", sheetID, types.ErrNotFound)
	}

	resp, err := p.svc.Spreadsheets.Values.Get(p.spreadsheetID, fmt.Sprintf("%s!%s", title, sheetRange)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheet values for %q: %v: %w", title, err, types.ErrSourceUnavailable)
	}

	grid, err := AssembleGrid(identity, resp.Values)
	if err != nil {
		return nil, err
	}
	grid.FetchedAt = time.Now()

	if day != "" {
		return filterDay(grid, day)
	}
	return grid, nil
}

// AssembleGrid builds a validated grid out of raw sheet rows. The timetable
// section starts at the first row whose leading cell contains "time"; that
// row's remaining cells are the slot labels. Each following row must lead
// with a known day name or it is discarded. Short rows are right-padded to
// the header width because the values API drops trailing blank cells; rows
// wider than the header mean the tab is malformed and the whole grid is
// rejected.
func AssembleGrid(identity string, values [][]interface{}) (*types.ScheduleGrid, error) {
	headerIdx := -1
	for i, row := range values {
		if len(row) > 0 && strings.Contains(strings.ToLower(cellString(row[0])), "time") {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("identity %q: sheet has no timetable section: %w", identity, types.ErrNotFound)
	}

	headerRow := values[headerIdx]
	header := make([]string, 0, len(headerRow)-1)
	for _, c := range headerRow[1:] {
		header = append(header, cellString(c))
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("identity %q: timetable header has no slot columns: %w", identity, types.ErrNotFound)
	}

	grid := &types.ScheduleGrid{
		Identity: identity,
		Header:   header,
		Days:     make(map[string][]string),
	}
	for _, row := range values[headerIdx+1:] {
		if len(row) == 0 {
			continue
		}
		day, ok := types.CanonicalDay(cellString(row[0]))
		if !ok {
			continue
		}
		if len(row)-1 > len(header) {
			return nil, fmt.Errorf("identity %q: day %s has %d cells for %d columns",
				identity, day, len(row)-1, len(header))
		}
		cells := make([]string, len(header))
		for i, c := range row[1:] {
			cells[i] = cellString(c)
		}
		grid.Days[day] = cells
	}

	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return grid, nil
}

// filterDay narrows a week grid to a single day row.
func filterDay(grid *types.ScheduleGrid, day string) (*types.ScheduleGrid, error) {
	cells, ok := grid.DayRow(day)
	if !ok {
		return nil, fmt.Errorf("identity %q has no row for %q: %w", grid.Identity, day, types.ErrNotFound)
	}
	canonical, _ := types.CanonicalDay(day)
	return &types.ScheduleGrid{
		Identity:  grid.Identity,
		Header:    grid.Header,
		Days:      map[string][]string{canonical: cells},
		FetchedAt: grid.FetchedAt,
	}, nil
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
