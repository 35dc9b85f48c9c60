// Package interfaces defines the contracts between the resolution core and
// its collaborators. Components accept these interfaces and return concrete
// structs, so each can be exercised against mocks in isolation.
package interfaces

import (
	"context"

	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// ScheduleSource is a read-only provider of a schedule grid for an identity
// (a class section or a faculty display name). An empty day returns the full
// week; a non-empty day narrows the grid to that single day row.
//
// Implementations fail with types.ErrNotFound when the identity or day has
// no matching data, and types.ErrSourceUnavailable when the provider cannot
// be reached at all. The distinction lets the caller decide between falling
// back and propagating an empty result.
type ScheduleSource interface {
	FetchGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error)
}

// GridCache serves schedule grids with a freshness policy and a fallback
// chain behind it.
type GridCache interface {
	GetGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error)
	Invalidate(identity string)
	RefreshAll(ctx context.Context)
}

// SessionBroker coordinates live attendance sessions across clients.
type SessionBroker interface {
	StartSession(session *types.AttendanceSession)
	EndSession(faculty string) bool
	ActiveSessions() []*types.AttendanceSession
}

// AttendanceStore is the persistence boundary for attendance commits.
// Upsert is idempotent per (student, date, subject, time slot).
type AttendanceStore interface {
	UpsertAttendance(ctx context.Context, rec *types.AttendanceRecord) error
}

// ScheduleStore reads the normalized schedule tables, rows already in slot
// order for the requested day.
type ScheduleStore interface {
	FacultySchedule(ctx context.Context, facultyName, day string) ([]types.ScheduleRow, error)
	ClassSchedule(ctx context.Context, classSection, day string) ([]types.ScheduleRow, error)
}
