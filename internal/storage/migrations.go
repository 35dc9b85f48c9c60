package storage

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order; schema_migrations records the current
// version.
var migrations = []string{
	// 1: directory tables
	`CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		enrollment_no TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		class TEXT NOT NULL DEFAULT '',
		batch TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS faculty (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		short_name TEXT NOT NULL,
		employee_id TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_students_name ON students(name);
	CREATE INDEX IF NOT EXISTS idx_faculty_full_name ON faculty(full_name);`,

	// 2: normalized schedule tables, rows kept in slot order per (identity, day)
	`CREATE TABLE IF NOT EXISTS class_timetable (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_section TEXT NOT NULL,
		day TEXT NOT NULL,
		slot_index INTEGER NOT NULL,
		time_slot TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		class_group TEXT NOT NULL DEFAULT '',
		batch TEXT NOT NULL DEFAULT '',
		room TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS faculty_timetable (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		faculty_name TEXT NOT NULL,
		day TEXT NOT NULL,
		slot_index INTEGER NOT NULL,
		time_slot TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		class_group TEXT NOT NULL DEFAULT '',
		batch TEXT NOT NULL DEFAULT '',
		room TEXT NOT NULL DEFAULT '',
		is_teaching_load INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_class_timetable_lookup ON class_timetable(class_section, day, slot_index);
	CREATE INDEX IF NOT EXISTS idx_faculty_timetable_lookup ON faculty_timetable(faculty_name, day, slot_index);`,

	// 3: attendance records, idempotent per (student, date, subject, time slot)
	`CREATE TABLE IF NOT EXISTS attendance_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL,
		date TEXT NOT NULL,
		subject TEXT NOT NULL,
		class_group TEXT NOT NULL DEFAULT '',
		time_slot TEXT NOT NULL,
		room TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('present', 'absent')),
		marked_at DATETIME NOT NULL,
		UNIQUE (student_id, date, subject, time_slot)
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance_records(date);
	CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance_records(student_id);`,
}

// applyMigrations brings the schema up to the latest version.
func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i, stmt := range migrations {
		version := i + 1
		if version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}
