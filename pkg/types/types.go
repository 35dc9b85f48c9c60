package types

import (
	"time"
)

// Session lifecycle event types carried over the subscribe channel.
const (
	EventSessionStarted = "session-started"
	EventSessionEnded   = "session-ended"
)

// Attendance record statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// ScheduleGrid is the week-slice schedule matrix for one identity.
// Header holds the time-slot labels; Days maps a canonical day name to the
// cell contents for that day, one cell per header column.
type ScheduleGrid struct {
	Identity  string              `json:"identity"`
	Header    []string            `json:"header"`
	Days      map[string][]string `json:"days"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Slot is one resolved (time-range, subject, class-group, room) tuple.
// Room and Batch are pointers because sources commonly omit trailing cell
// fields; nil means the source never specified the value.
type Slot struct {
	Day        string  `json:"day"`
	TimeSlot   string  `json:"time_slot"`
	Subject    string  `json:"subject"`
	ClassGroup string  `json:"class_group"`
	Batch      *string `json:"batch,omitempty"`
	Room       *string `json:"room,omitempty"`
}

// AttendanceSession is a live, faculty-initiated attendance-taking event.
// At most one session is active per faculty; a newer session for the same
// faculty replaces the older one.
type AttendanceSession struct {
	ID         string    `json:"id"`
	Faculty    string    `json:"faculty"`
	Subject    string    `json:"subject"`
	ClassGroup string    `json:"class_group"`
	TimeSlot   string    `json:"time_slot"`
	Room       string    `json:"room"`
	StartedAt  time.Time `json:"started_at"`
}

// SessionEvent is the payload broadcast to every subscriber on session
// lifecycle changes. Delivery is fire-and-forget; there is no replay.
type SessionEvent struct {
	Type      string             `json:"type"`
	Session   *AttendanceSession `json:"session"`
	Timestamp time.Time          `json:"timestamp"`
}

// ScheduleRow is one normalized schedule-table row, already in slot order
// when read through the storage layer.
type ScheduleRow struct {
	ID         int64  `json:"id"`
	Identity   string `json:"identity"`
	Day        string `json:"day"`
	TimeSlot   string `json:"time_slot"`
	Subject    string `json:"subject"`
	ClassGroup string `json:"class_group"`
	Batch      string `json:"batch"`
	Room       string `json:"room"`
}

// TimetableEntry is one row of a schedule upload. SlotIndex preserves the
// column order of the source sheet so reads come back in slot order without
// re-parsing time labels. IsTeachingLoad is only meaningful for faculty
// rows; free or administrative slots carry false.
type TimetableEntry struct {
	Day            string `json:"day"`
	SlotIndex      int    `json:"slot_index"`
	TimeSlot       string `json:"time_slot"`
	Subject        string `json:"subject"`
	ClassGroup     string `json:"class_group"`
	Batch          string `json:"batch"`
	Room           string `json:"room"`
	IsTeachingLoad bool   `json:"is_teaching_load"`
}

// AttendanceRecord is the persisted attendance commit. Uniqueness key is
// (StudentID, Date, Subject, TimeSlot); a second commit for the same key
// overwrites Status instead of duplicating.
type AttendanceRecord struct {
	ID          int64     `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	Date        string    `json:"date"`
	Subject     string    `json:"subject"`
	ClassGroup  string    `json:"class_group"`
	TimeSlot    string    `json:"time_slot"`
	Room        string    `json:"room"`
	Status      string    `json:"status"`
	MarkedAt    time.Time `json:"marked_at"`
}

// Student mirrors the students directory table.
type Student struct {
	ID           int64  `json:"id"`
	EnrollmentNo string `json:"enrollment_no"`
	Name         string `json:"name"`
	Class        string `json:"class"`
	Batch        string `json:"batch"`
	Email        string `json:"email,omitempty"`
}

// Faculty mirrors the faculty directory table.
type Faculty struct {
	ID         int64  `json:"id"`
	ShortName  string `json:"short_name"`
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
}
