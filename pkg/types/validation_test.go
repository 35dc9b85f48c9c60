package types

import "testing"

func TestCanonicalDay(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "Monday", want: "Monday", wantOK: true},
		{in: "monday", want: "Monday", wantOK: true},
		{in: "  SATURDAY  ", want: "Saturday", wantOK: true},
		{in: "Sunday", wantOK: false},
		{in: "Mon", wantOK: false},
		{in: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := CanonicalDay(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("CanonicalDay(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func validGrid() *ScheduleGrid {
	return &ScheduleGrid{
		Identity: "CE-5",
		Header:   []string{"9:00 AM - 10:00 AM", "10:00 AM - 11:00 AM"},
		Days: map[string][]string{
			"Monday": {"Math", "OS"},
		},
	}
}

func TestGridValidate(t *testing.T) {
	if err := validGrid().Validate(); err != nil {
		t.Errorf("valid grid rejected: %v", err)
	}

	g := validGrid()
	g.Header = nil
	if err := g.Validate(); err == nil {
		t.Error("empty header accepted")
	}

	g = validGrid()
	g.Days["Funday"] = []string{"Math", "OS"}
	if err := g.Validate(); err == nil {
		t.Error("unknown day accepted")
	}

	g = validGrid()
	g.Days["Monday"] = []string{"Math"}
	if err := g.Validate(); err == nil {
		t.Error("cell count mismatch accepted")
	}
}

func TestDayRow(t *testing.T) {
	g := validGrid()

	row, ok := g.DayRow("monday")
	if !ok || row[0] != "Math" {
		t.Errorf("DayRow(monday) = %v, %v", row, ok)
	}
	if _, ok := g.DayRow("Tuesday"); ok {
		t.Error("DayRow returned a row for a day the grid lacks")
	}
	if _, ok := g.DayRow("Funday"); ok {
		t.Error("DayRow returned a row for an unknown day")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := validGrid()
	c := g.Clone()

	c.Header[0] = "changed"
	c.Days["Monday"][0] = "changed"

	if g.Header[0] == "changed" || g.Days["Monday"][0] == "changed" {
		t.Error("Clone shares backing arrays with the original")
	}
}
