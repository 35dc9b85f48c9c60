package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

const (
	writeQueueSize = 100
	writeTimeout   = 30 * time.Second
	writeRetryWait = 5 * time.Second
)

// Manager owns the SQLite database. Reads run concurrently against the
// connection pool; all writes are funneled through a single goroutine to
// avoid SQLite write contention.
type Manager struct {
	db           *sql.DB
	logger       zerolog.Logger
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens the database at path, applies migrations, and starts the
// writer goroutine.
func NewManager(path string, logger zerolog.Logger) (*Manager, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m := &Manager{
		db:           db,
		logger:       logger.With().Str("component", "storage").Logger(),
		writeChannel: make(chan writeOperation, writeQueueSize),
		shutdown:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.writeLoop()

	return m, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %s: %w", pragma, err)
		}
	}
	return nil
}

func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			err := op.operation(m.db)
			if err != nil && retryable(err) {
				m.logger.Warn().Err(err).Dur("retry_in", writeRetryWait).Msg("write failed, retrying once")
				time.Sleep(writeRetryWait)
				err = op.operation(m.db)
				if err != nil {
					m.logger.Error().Err(err).Msg("write failed after retry")
				}
			}
			op.result <- err

		case <-m.shutdown:
			m.logger.Debug().Msg("write loop shutting down")
			return
		}
	}
}

// retryable reports whether a failed write is worth one more attempt.
// Contention errors are; constraint violations and the like are not.
func retryable(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("storage manager is closed")
	}
	m.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(writeTimeout):
		return fmt.Errorf("write operation timeout")
	case <-m.shutdown:
		return fmt.Errorf("storage manager is shutting down")
	}
}

// FacultySchedule returns the faculty member's rows for a day in slot order.
// Rows flagged as non-teaching load are excluded.
func (m *Manager) FacultySchedule(ctx context.Context, name, day string) ([]types.ScheduleRow, error) {
	query := `
		SELECT time_slot, subject, class_group, batch, room
		FROM faculty_timetable
		WHERE faculty_name = ? AND day = ? AND is_teaching_load = 1
		ORDER BY slot_index ASC
	`
	return m.queryScheduleRows(ctx, query, name, day)
}

// ClassSchedule returns the class section's rows for a day in slot order.
func (m *Manager) ClassSchedule(ctx context.Context, section, day string) ([]types.ScheduleRow, error) {
	query := `
		SELECT time_slot, subject, class_group, batch, room
		FROM class_timetable
		WHERE class_section = ? AND day = ?
		ORDER BY slot_index ASC
	`
	return m.queryScheduleRows(ctx, query, section, day)
}

func (m *Manager) queryScheduleRows(ctx context.Context, query string, args ...any) ([]types.ScheduleRow, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.ScheduleRow
	for rows.Next() {
		var r types.ScheduleRow
		if err := rows.Scan(&r.TimeSlot, &r.Subject, &r.ClassGroup, &r.Batch, &r.Room); err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule rows: %w", err)
	}
	return out, nil
}

// ReplaceFacultySchedule replaces all rows for one faculty member atomically.
func (m *Manager) ReplaceFacultySchedule(ctx context.Context, name string, rows []types.TimetableEntry) error {
	return m.executeWrite(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM faculty_timetable WHERE faculty_name = ?`, name); err != nil {
			return fmt.Errorf("clearing faculty schedule: %w", err)
		}
		insert := `
			INSERT INTO faculty_timetable
				(faculty_name, day, slot_index, time_slot, subject, class_group, batch, room, is_teaching_load)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		for _, r := range rows {
			load := 0
			if r.IsTeachingLoad {
				load = 1
			}
			if _, err := tx.ExecContext(ctx, insert,
				name, r.Day, r.SlotIndex, r.TimeSlot, r.Subject, r.ClassGroup, r.Batch, r.Room, load); err != nil {
				return fmt.Errorf("inserting faculty schedule row: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing faculty schedule: %w", err)
		}
		return nil
	})
}

// ReplaceClassSchedule replaces all rows for one class section atomically.
func (m *Manager) ReplaceClassSchedule(ctx context.Context, section string, rows []types.TimetableEntry) error {
	return m.executeWrite(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM class_timetable WHERE class_section = ?`, section); err != nil {
			return fmt.Errorf("clearing class schedule: %w", err)
		}
		insert := `
			INSERT INTO class_timetable
				(class_section, day, slot_index, time_slot, subject, class_group, batch, room)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, insert,
				section, r.Day, r.SlotIndex, r.TimeSlot, r.Subject, r.ClassGroup, r.Batch, r.Room); err != nil {
				return fmt.Errorf("inserting class schedule row: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing class schedule: %w", err)
		}
		return nil
	})
}

// UpsertAttendance records attendance. Re-marking the same student for the
// same date, subject, and time slot overwrites the previous status instead
// of creating a duplicate row.
func (m *Manager) UpsertAttendance(ctx context.Context, rec *types.AttendanceRecord) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO attendance_records
				(student_id, date, subject, class_group, time_slot, room, status, marked_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (student_id, date, subject, time_slot) DO UPDATE SET
				status = excluded.status,
				class_group = excluded.class_group,
				room = excluded.room,
				marked_at = excluded.marked_at
		`
		_, err := db.ExecContext(ctx, query,
			rec.StudentID, rec.Date, rec.Subject, rec.ClassGroup,
			rec.TimeSlot, rec.Room, rec.Status, rec.MarkedAt)
		if err != nil {
			return fmt.Errorf("upserting attendance: %w", err)
		}
		return nil
	})
}

// AttendanceByDate returns all records for a date joined with the student
// directory, newest first.
func (m *Manager) AttendanceByDate(ctx context.Context, date string) ([]types.AttendanceRecord, error) {
	query := `
		SELECT a.student_id, COALESCE(s.name, ''), a.date, a.subject, a.class_group,
		       a.time_slot, a.room, a.status, a.marked_at
		FROM attendance_records a
		LEFT JOIN students s ON s.enrollment_no = a.student_id
		WHERE a.date = ?
		ORDER BY a.marked_at DESC
	`
	return m.queryAttendance(ctx, query, date)
}

// SearchAttendance looks records up by exact enrollment number or by a
// partial, case-insensitive student name match.
func (m *Manager) SearchAttendance(ctx context.Context, term string) ([]types.AttendanceRecord, error) {
	query := `
		SELECT a.student_id, COALESCE(s.name, ''), a.date, a.subject, a.class_group,
		       a.time_slot, a.room, a.status, a.marked_at
		FROM attendance_records a
		LEFT JOIN students s ON s.enrollment_no = a.student_id
		WHERE a.student_id = ? OR s.name LIKE ?
		ORDER BY a.date DESC, a.marked_at DESC
	`
	return m.queryAttendance(ctx, query, term, "%"+strings.TrimSpace(term)+"%")
}

func (m *Manager) queryAttendance(ctx context.Context, query string, args ...any) ([]types.AttendanceRecord, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attendance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.AttendanceRecord
	for rows.Next() {
		var r types.AttendanceRecord
		if err := rows.Scan(&r.StudentID, &r.StudentName, &r.Date, &r.Subject,
			&r.ClassGroup, &r.TimeSlot, &r.Room, &r.Status, &r.MarkedAt); err != nil {
			return nil, fmt.Errorf("scanning attendance row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendance rows: %w", err)
	}
	return out, nil
}

// ListStudents returns the student directory ordered by enrollment number.
func (m *Manager) ListStudents(ctx context.Context) ([]types.Student, error) {
	query := `
		SELECT enrollment_no, name, class, batch, email
		FROM students
		ORDER BY enrollment_no ASC
	`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying students: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Student
	for rows.Next() {
		var s types.Student
		if err := rows.Scan(&s.EnrollmentNo, &s.Name, &s.Class, &s.Batch, &s.Email); err != nil {
			return nil, fmt.Errorf("scanning student row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student rows: %w", err)
	}
	return out, nil
}

// AddStudent inserts a student into the directory.
func (m *Manager) AddStudent(ctx context.Context, s *types.Student) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO students (enrollment_no, name, class, batch, email)
			VALUES (?, ?, ?, ?, ?)
		`
		if _, err := db.ExecContext(ctx, query, s.EnrollmentNo, s.Name, s.Class, s.Batch, s.Email); err != nil {
			return fmt.Errorf("inserting student: %w", err)
		}
		return nil
	})
}

// ListFaculty returns the faculty directory ordered by full name.
func (m *Manager) ListFaculty(ctx context.Context) ([]types.Faculty, error) {
	query := `
		SELECT short_name, employee_id, full_name, email
		FROM faculty
		ORDER BY full_name ASC
	`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying faculty: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Faculty
	for rows.Next() {
		var f types.Faculty
		if err := rows.Scan(&f.ShortName, &f.EmployeeID, &f.FullName, &f.Email); err != nil {
			return nil, fmt.Errorf("scanning faculty row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating faculty rows: %w", err)
	}
	return out, nil
}

// AddFaculty inserts a faculty member into the directory.
func (m *Manager) AddFaculty(ctx context.Context, f *types.Faculty) error {
	return m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO faculty (short_name, employee_id, full_name, email)
			VALUES (?, ?, ?, ?)
		`
		if _, err := db.ExecContext(ctx, query, f.ShortName, f.EmployeeID, f.FullName, f.Email); err != nil {
			return fmt.Errorf("inserting faculty: %w", err)
		}
		return nil
	})
}

// HealthCheck validates database connectivity and read access.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}
	return nil
}

// Close drains the writer goroutine and closes the connection pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
