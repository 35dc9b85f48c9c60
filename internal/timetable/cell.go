package timetable

import "strings"

// noLoadSentinel marks a time match that carries no class. The sheet uses it
// in faculty rows for free periods.
const noLoadSentinel = "no teaching load"

// CellFields is the parsed payload of one grid cell. Cells are free text of
// up to four newline-delimited fields, positionally {subject, class-group,
// room, batch}, but sources populate a varying number of them. Room and
// Batch stay nil when the source never specified them.
type CellFields struct {
	Subject    string
	ClassGroup string
	Batch      *string
	Room       *string
}

// ParseCell parses a cell payload. ok is false for an empty cell or the
// "no teaching load" placeholder, both meaning no active class even when the
// time range matched.
//
// Fields are extracted positionally from the non-empty trimmed lines. A
// class-group token with two or more hyphen-delimited segments is split into
// a coarse group and a specific batch; otherwise group and batch collapse to
// the same value. An explicit fourth field overrides the derived batch.
func ParseCell(raw string) (*CellFields, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, noLoadSentinel) {
		return nil, false
	}

	var fields []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fields = append(fields, line)
		}
	}
	if len(fields) == 0 {
		return nil, false
	}

	cf := &CellFields{Subject: fields[0]}
	if len(fields) > 1 {
		cf.ClassGroup, cf.Batch = splitGroup(fields[1])
	}
	if len(fields) > 2 {
		room := fields[2]
		cf.Room = &room
	}
	if len(fields) > 3 {
		batch := fields[3]
		cf.Batch = &batch
	}
	return cf, true
}

// splitGroup separates a compound class-group token like "CE-B2" into group
// "CE" and batch "B2". Without a hyphen both collapse to the whole token.
func splitGroup(token string) (string, *string) {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		batch := strings.TrimSpace(parts[1])
		return strings.TrimSpace(parts[0]), &batch
	}
	batch := token
	return token, &batch
}
