// Package timetable implements slot-label parsing, cell parsing and the
// current-slot resolver over a schedule grid.
package timetable

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultAfternoonCutoff is the hour below which a meridiem-less endpoint is
// assumed to be afternoon. Sheet maintainers write "2 - 3" for 2 PM but
// never for 2 AM; anything from 8 upward is taken literally as morning.
// The assumption is institution-specific, so callers can override it.
const DefaultAfternoonCutoff = 8

var endpointRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([AaPp][Mm])?$`)

// ParseLabel parses a time-slot label into start and end minutes from
// midnight. Labels use either "-" or "to" between the endpoints
// ("9:00 AM - 10:00 AM", "2 to 3"). Endpoints are 12-hour clock with an
// optional meridiem; a missing meridiem on an hour below cutoff means
// afternoon. Overnight ranges (start >= end) are malformed.
func ParseLabel(label string, cutoff int) (start, end int, err error) {
	first, second, ok := splitRange(label)
	if !ok {
		return 0, 0, fmt.Errorf("label %q has no range separator", label)
	}
	start, err = parseEndpoint(first, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("label %q: %w", label, err)
	}
	end, err = parseEndpoint(second, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("label %q: %w", label, err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("label %q: start %d is not before end %d", label, start, end)
	}
	return start, end, nil
}

// ParseClock parses a wall-clock string in "H:MM AM|PM" form into minutes
// from midnight. Unlike slot-label endpoints the meridiem is required, so no
// afternoon inference applies.
func ParseClock(s string) (int, error) {
	m := endpointRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || m[2] == "" || m[3] == "" {
		return 0, fmt.Errorf("clock time %q is not in H:MM AM|PM form", s)
	}
	return assemble(m, -1)
}

// MinutesOfDay converts a time.Time to minutes from midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// splitRange splits a label on the first "-", then on the first "to"
// (case-insensitive). The "-" convention is tried first because it is the
// dominant one in both sources.
func splitRange(s string) (string, string, bool) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "-"); i >= 0 {
		return s[:i], s[i+1:], true
	}
	if i := strings.Index(strings.ToLower(s), " to "); i >= 0 {
		return s[:i], s[i+4:], true
	}
	return "", "", false
}

func parseEndpoint(s string, cutoff int) (int, error) {
	m := endpointRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("endpoint %q is not a clock time", s)
	}
	return assemble(m, cutoff)
}

// assemble turns a matched endpoint into minutes from midnight. A negative
// cutoff disables the afternoon heuristic.
func assemble(m []string, cutoff int) (int, error) {
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, fmt.Errorf("minute %d out of range", minute)
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour %d out of range for 12-hour clock", hour)
		}
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour %d out of range for 12-hour clock", hour)
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return 0, fmt.Errorf("hour %d out of range", hour)
		}
		if cutoff >= 0 && hour < cutoff {
			hour += 12
		}
	}
	if hour > 23 {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	return hour*60 + minute, nil
}
