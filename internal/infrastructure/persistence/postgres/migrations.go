package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION SUPPORT
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations and returns how many were applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range Pending(m.migrations, applied) {
		if mig.UpSQL == "" {
			return count, fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			insertQuery := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		count++
	}

	return count, nil
}

// Pending returns the migrations not present in applied, in version order.
func Pending(all []Migration, applied map[int]time.Time) []Migration {
	var out []Migration
	for _, mig := range all {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		out = append(out, mig)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_academic_core",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_grading",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_materials_and_reports",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// 001: users, programs, sessions, courses, enrollments
// Идентификаторы - 24 hex-символа. seq задаёт порядок вставки.
// ─────────────────────────────────────────────────────────────────────────────

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL,
    college_id CHAR(24),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('student', 'teacher', 'admin'))
);

CREATE TABLE IF NOT EXISTS programs (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    name VARCHAR(200) NOT NULL DEFAULT '',
    level VARCHAR(50) NOT NULL DEFAULT '',
    code VARCHAR(50) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sessions (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    name VARCHAR(100) NOT NULL DEFAULT '',
    code VARCHAR(50) NOT NULL DEFAULT '',
    state VARCHAR(20) NOT NULL DEFAULT 'PLANNED',
    start_date TIMESTAMP WITH TIME ZONE,
    end_date TIMESTAMP WITH TIME ZONE,
    college_id CHAR(24),

    CONSTRAINT valid_state CHECK (state IN ('PLANNED', 'ACTIVE', 'FINISHED'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state);
CREATE INDEX IF NOT EXISTS idx_sessions_college_state ON sessions(college_id, state);

CREATE TABLE IF NOT EXISTS courses (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    title VARCHAR(200) NOT NULL DEFAULT '',
    code VARCHAR(50) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    program_id CHAR(24) REFERENCES programs(id) ON DELETE SET NULL,
    teacher_id CHAR(24) REFERENCES users(id) ON DELETE SET NULL,
    session_id CHAR(24) REFERENCES sessions(id) ON DELETE SET NULL,
    college_id CHAR(24)
);

CREATE INDEX IF NOT EXISTS idx_courses_session ON courses(session_id);

CREATE TABLE IF NOT EXISTS enrollments (
    seq BIGSERIAL PRIMARY KEY,
    student_id CHAR(24) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    course_id CHAR(24) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(student_id, seq);
`

const migration001Down = `
DROP TABLE IF EXISTS enrollments;
DROP TABLE IF EXISTS courses;
DROP TABLE IF EXISTS sessions;
DROP TABLE IF EXISTS programs;
DROP TABLE IF EXISTS users;
`

// ─────────────────────────────────────────────────────────────────────────────
// 002: grade categories, items, grades
// ─────────────────────────────────────────────────────────────────────────────

const migration002Up = `
CREATE TABLE IF NOT EXISTS grade_categories (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    course_id CHAR(24) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL DEFAULT '',
    weight DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_grade_categories_course ON grade_categories(course_id, seq);

CREATE TABLE IF NOT EXISTS grade_items (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    course_id CHAR(24) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    category_id CHAR(24),
    title VARCHAR(200) NOT NULL DEFAULT '',
    max_points DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_grade_items_course ON grade_items(course_id, seq);

CREATE TABLE IF NOT EXISTS grades (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    student_id CHAR(24) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    course_id CHAR(24) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    item_id CHAR(24),
    score DOUBLE PRECISION,
    max_points DOUBLE PRECISION,
    teacher_id CHAR(24)
);

CREATE INDEX IF NOT EXISTS idx_grades_student_course ON grades(student_id, course_id, seq);
`

const migration002Down = `
DROP TABLE IF EXISTS grades;
DROP TABLE IF EXISTS grade_items;
DROP TABLE IF EXISTS grade_categories;
`

// ─────────────────────────────────────────────────────────────────────────────
// 003: documents, student reports
// ─────────────────────────────────────────────────────────────────────────────

const migration003Up = `
CREATE TABLE IF NOT EXISTS documents (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    course_id CHAR(24) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_course ON documents(course_id, seq);

CREATE TABLE IF NOT EXISTS student_reports (
    id CHAR(24) PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    student_id CHAR(24) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    course_id CHAR(24),
    teacher_id CHAR(24),
    report TEXT NOT NULL DEFAULT '',
    ai_used BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_student_reports_student ON student_reports(student_id, seq);
`

const migration003Down = `
DROP TABLE IF EXISTS student_reports;
DROP TABLE IF EXISTS documents;
`
