package types

import (
	"fmt"
	"strings"
)

// Days is the canonical teaching-week day set, in provider order. The sheet
// mirror carries Monday through Friday; the relational table also holds
// Saturday rows.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// CanonicalDay matches s against the canonical day set, case-insensitively,
// and returns the canonical spelling.
func CanonicalDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Days {
		if strings.EqualFold(s, d) {
			return d, true
		}
	}
	return "", false
}

// Validate rejects structurally invalid grids before resolution runs.
// Every day row must have exactly one cell per header column; a mismatched
// grid is an error, never silently padded here.
func (g *ScheduleGrid) Validate() error {
	if len(g.Header) == 0 {
		return fmt.Errorf("grid for %q has an empty header", g.Identity)
	}
	for day, cells := range g.Days {
		if _, ok := CanonicalDay(day); !ok {
			return fmt.Errorf("grid for %q has unknown day %q", g.Identity, day)
		}
		if len(cells) != len(g.Header) {
			return fmt.Errorf("grid for %q: day %s has %d cells, header has %d columns",
				g.Identity, day, len(cells), len(g.Header))
		}
	}
	return nil
}

// DayRow returns the cell row for day, matching case-insensitively against
// the canonical day set. ok is false when the grid has no row for that day.
func (g *ScheduleGrid) DayRow(day string) ([]string, bool) {
	canonical, ok := CanonicalDay(day)
	if !ok {
		return nil, false
	}
	cells, ok := g.Days[canonical]
	return cells, ok
}

// Clone returns a deep copy so cache readers never share backing arrays with
// a grid that is about to be replaced.
func (g *ScheduleGrid) Clone() *ScheduleGrid {
	out := &ScheduleGrid{
		Identity:  g.Identity,
		Header:    append([]string(nil), g.Header...),
		Days:      make(map[string][]string, len(g.Days)),
		FetchedAt: g.FetchedAt,
	}
	for day, cells := range g.Days {
		out.Days[day] = append([]string(nil), cells...)
	}
	return out
}
