package source

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// mockScheduleStore serves canned rows keyed by (table, identity, day).
type mockScheduleStore struct {
	faculty map[string]map[string][]types.ScheduleRow
	class   map[string]map[string][]types.ScheduleRow
	err     error
}

func (m *mockScheduleStore) FacultySchedule(ctx context.Context, name, day string) ([]types.ScheduleRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.faculty[name][day], nil
}

func (m *mockScheduleStore) ClassSchedule(ctx context.Context, section, day string) ([]types.ScheduleRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.class[section][day], nil
}

func TestStoreProviderOneDayGrid(t *testing.T) {
	store := &mockScheduleStore{
		faculty: map[string]map[string][]types.ScheduleRow{
			"PSK": {
				"Monday": {
					{TimeSlot: "9:00 AM - 10:00 AM", Subject: "DBMS", ClassGroup: "CE", Batch: "B2", Room: "301"},
					{TimeSlot: "10:00 AM - 11:00 AM", Subject: "OS", ClassGroup: "CE"},
				},
			},
		},
	}
	p := NewStoreProvider(store, zerolog.Nop())

	grid, err := p.FetchGrid(context.Background(), "PSK", "monday")
	if err != nil {
		t.Fatalf("FetchGrid: %v", err)
	}
	if len(grid.Header) != 2 {
		t.Fatalf("header = %v", grid.Header)
	}
	cells := grid.Days["Monday"]
	if cells[0] != "DBMS\nCE\n301\nB2" {
		t.Errorf("cell[0] = %q", cells[0])
	}
	// Trailing empty fields are dropped from the composed cell.
	if cells[1] != "OS\nCE" {
		t.Errorf("cell[1] = %q", cells[1])
	}
}

func TestStoreProviderFallsBackToClassTable(t *testing.T) {
	store := &mockScheduleStore{
		class: map[string]map[string][]types.ScheduleRow{
			"CE-5": {
				"Tuesday": {
					{TimeSlot: "11:00 AM - 12:00 PM", Subject: "AI", ClassGroup: "CE"},
				},
			},
		},
	}
	p := NewStoreProvider(store, zerolog.Nop())

	grid, err := p.FetchGrid(context.Background(), "CE-5", "Tuesday")
	if err != nil {
		t.Fatalf("FetchGrid: %v", err)
	}
	if grid.Days["Tuesday"][0] != "AI\nCE" {
		t.Errorf("cell = %q", grid.Days["Tuesday"][0])
	}
}

func TestStoreProviderWeekGridUnionsLabels(t *testing.T) {
	store := &mockScheduleStore{
		faculty: map[string]map[string][]types.ScheduleRow{
			"PSK": {
				"Monday": {
					{TimeSlot: "10:00 AM - 11:00 AM", Subject: "OS", ClassGroup: "CE"},
				},
				"Tuesday": {
					{TimeSlot: "9:00 AM - 10:00 AM", Subject: "DBMS", ClassGroup: "CE"},
				},
			},
		},
	}
	p := NewStoreProvider(store, zerolog.Nop())

	grid, err := p.FetchGrid(context.Background(), "PSK", "")
	if err != nil {
		t.Fatalf("FetchGrid: %v", err)
	}
	// Labels are unioned across days and ordered by start time.
	if len(grid.Header) != 2 || grid.Header[0] != "9:00 AM - 10:00 AM" {
		t.Fatalf("header = %v", grid.Header)
	}
	mon := grid.Days["Monday"]
	if mon[0] != "" || mon[1] != "OS\nCE" {
		t.Errorf("monday = %v", mon)
	}
	tue := grid.Days["Tuesday"]
	if tue[0] != "DBMS\nCE" || tue[1] != "" {
		t.Errorf("tuesday = %v", tue)
	}
}

func TestStoreProviderUnknownIdentity(t *testing.T) {
	p := NewStoreProvider(&mockScheduleStore{}, zerolog.Nop())

	_, err := p.FetchGrid(context.Background(), "ghost", "")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStoreProviderUnknownDay(t *testing.T) {
	p := NewStoreProvider(&mockScheduleStore{}, zerolog.Nop())

	_, err := p.FetchGrid(context.Background(), "PSK", "Feastday")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStoreProviderDatabaseError(t *testing.T) {
	p := NewStoreProvider(&mockScheduleStore{err: errors.New("db locked")}, zerolog.Nop())

	_, err := p.FetchGrid(context.Background(), "PSK", "Monday")
	if !errors.Is(err, types.ErrSourceUnavailable) {
		t.Errorf("got %v, want ErrSourceUnavailable", err)
	}
}
