package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AcademicRepository implements academic.Repository for PostgreSQL.
// Set queries use "= ANY($1)" and keep insertion order via the seq column.
type AcademicRepository struct {
	db Querier
}

// NewAcademicRepository creates a new AcademicRepository.
func NewAcademicRepository(db Querier) *AcademicRepository {
	return &AcademicRepository{db: db}
}

var _ academic.Repository = (*AcademicRepository)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// Users & programs
// ─────────────────────────────────────────────────────────────────────────────

const userColumns = `id, first_name, last_name, email, role, college_id`

// GetUser returns a user by ID.
func (r *AcademicRepository) GetUser(ctx context.Context, id academic.ID) (*academic.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, notFound("GetUser", "user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// FindUsersByIDs returns users whose IDs are in ids.
func (r *AcademicRepository) FindUsersByIDs(ctx context.Context, ids []academic.ID) ([]academic.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY seq`

	rows, err := r.db.Query(ctx, query, academic.Strings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return academic.User{}, err
		}
		return *u, nil
	})
}

func scanUser(row pgx.Row) (*academic.User, error) {
	var (
		u         academic.User
		id, role  string
		collegeID *string
	)
	if err := row.Scan(&id, &u.FirstName, &u.LastName, &u.Email, &role, &collegeID); err != nil {
		return nil, err
	}
	u.ID = academic.ID(id)
	u.Role = academic.Role(role)
	u.CollegeID = optionalID(collegeID)
	return &u, nil
}

// GetProgram returns a program by ID.
func (r *AcademicRepository) GetProgram(ctx context.Context, id academic.ID) (*academic.Program, error) {
	query := `SELECT id, name, level, code FROM programs WHERE id = $1`

	var (
		p   academic.Program
		pid string
	)
	err := r.db.QueryRow(ctx, query, id.String()).Scan(&pid, &p.Name, &p.Level, &p.Code)
	if err != nil {
		if IsNoRows(err) {
			return nil, notFound("GetProgram", "program", id)
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	p.ID = academic.ID(pid)
	return &p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Sessions, enrollments, courses
// ─────────────────────────────────────────────────────────────────────────────

const sessionColumns = `id, name, code, state, start_date, end_date, college_id`

// FindActiveSessions returns ACTIVE sessions, optionally scoped to a college.
func (r *AcademicRepository) FindActiveSessions(ctx context.Context, collegeID *academic.ID) ([]academic.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE state = $1`
	args := []any{string(academic.SessionActive)}
	if collegeID != nil {
		query += ` AND college_id = $2`
		args = append(args, collegeID.String())
	}
	query += ` ORDER BY seq`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sessions: %w", err)
	}
	return collect(rows, scanSession)
}

// FindSessionsByIDs returns sessions whose IDs are in ids.
func (r *AcademicRepository) FindSessionsByIDs(ctx context.Context, ids []academic.ID) ([]academic.Session, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ANY($1) ORDER BY seq`

	rows, err := r.db.Query(ctx, query, academic.Strings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	return collect(rows, scanSession)
}

func scanSession(row pgx.Row) (academic.Session, error) {
	var (
		s         academic.Session
		id, state string
		collegeID *string
	)
	if err := row.Scan(&id, &s.Name, &s.Code, &state, &s.StartDate, &s.EndDate, &collegeID); err != nil {
		return academic.Session{}, err
	}
	s.ID = academic.ID(id)
	s.State = academic.SessionState(state)
	s.CollegeID = optionalID(collegeID)
	return s, nil
}

// FindEnrollmentsByStudent returns the student's enrollments.
func (r *AcademicRepository) FindEnrollmentsByStudent(ctx context.Context, studentID academic.ID) ([]academic.Enrollment, error) {
	query := `SELECT student_id, course_id FROM enrollments WHERE student_id = $1 ORDER BY seq`

	rows, err := r.db.Query(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.Enrollment, error) {
		var sid, cid string
		if err := row.Scan(&sid, &cid); err != nil {
			return academic.Enrollment{}, err
		}
		return academic.Enrollment{StudentID: academic.ID(sid), CourseID: academic.ID(cid)}, nil
	})
}

// FindCoursesByIDs returns courses in ids whose session is in sessionIDs.
func (r *AcademicRepository) FindCoursesByIDs(ctx context.Context, ids []academic.ID, sessionIDs []academic.ID) ([]academic.Course, error) {
	if len(ids) == 0 || len(sessionIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, title, code, description, program_id, teacher_id, session_id, college_id
		FROM courses
		WHERE id = ANY($1) AND session_id = ANY($2)
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, academic.Strings(ids), academic.Strings(sessionIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.Course, error) {
		var (
			c                                       academic.Course
			id                                      string
			programID, teacherID, sessID, collegeID *string
		)
		if err := row.Scan(&id, &c.Title, &c.Code, &c.Description, &programID, &teacherID, &sessID, &collegeID); err != nil {
			return academic.Course{}, err
		}
		c.ID = academic.ID(id)
		c.ProgramID = optionalID(programID)
		c.TeacherID = optionalID(teacherID)
		c.SessionID = optionalID(sessID)
		c.CollegeID = optionalID(collegeID)
		return c, nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Grading
// ─────────────────────────────────────────────────────────────────────────────

// FindCategoriesByCourses returns grade categories of the given courses.
func (r *AcademicRepository) FindCategoriesByCourses(ctx context.Context, courseIDs []academic.ID) ([]academic.GradeCategory, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, course_id, name, weight FROM grade_categories WHERE course_id = ANY($1) ORDER BY seq`

	rows, err := r.db.Query(ctx, query, academic.Strings(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query grade categories: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.GradeCategory, error) {
		var (
			c       academic.GradeCategory
			id, cid string
		)
		if err := row.Scan(&id, &cid, &c.Name, &c.Weight); err != nil {
			return academic.GradeCategory{}, err
		}
		c.ID = academic.ID(id)
		c.CourseID = academic.ID(cid)
		return c, nil
	})
}

// FindItemsByCourses returns grade items of the given courses.
func (r *AcademicRepository) FindItemsByCourses(ctx context.Context, courseIDs []academic.ID) ([]academic.GradeItem, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, course_id, category_id, title, max_points FROM grade_items WHERE course_id = ANY($1) ORDER BY seq`

	rows, err := r.db.Query(ctx, query, academic.Strings(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query grade items: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.GradeItem, error) {
		var (
			i          academic.GradeItem
			id, cid    string
			categoryID *string
		)
		if err := row.Scan(&id, &cid, &categoryID, &i.Title, &i.MaxPoints); err != nil {
			return academic.GradeItem{}, err
		}
		i.ID = academic.ID(id)
		i.CourseID = academic.ID(cid)
		i.CategoryID = optionalID(categoryID)
		return i, nil
	})
}

// FindGradesByStudent returns the student's grades in the given courses.
func (r *AcademicRepository) FindGradesByStudent(ctx context.Context, studentID academic.ID, courseIDs []academic.ID) ([]academic.Grade, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, student_id, course_id, item_id, score, max_points, teacher_id
		FROM grades
		WHERE student_id = $1 AND course_id = ANY($2)
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, studentID.String(), academic.Strings(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.Grade, error) {
		var (
			g                 academic.Grade
			id, sid, cid      string
			itemID, teacherID *string
		)
		if err := row.Scan(&id, &sid, &cid, &itemID, &g.Score, &g.MaxPoints, &teacherID); err != nil {
			return academic.Grade{}, err
		}
		g.ID = academic.ID(id)
		g.StudentID = academic.ID(sid)
		g.CourseID = academic.ID(cid)
		g.ItemID = optionalID(itemID)
		g.TeacherID = optionalID(teacherID)
		return g, nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Documents & reports
// ─────────────────────────────────────────────────────────────────────────────

// FindDocumentsByCourses returns documents attached to the given courses.
func (r *AcademicRepository) FindDocumentsByCourses(ctx context.Context, courseIDs []academic.ID) ([]academic.Document, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, course_id, name, url FROM documents WHERE course_id = ANY($1) ORDER BY seq`

	rows, err := r.db.Query(ctx, query, academic.Strings(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.Document, error) {
		var (
			d       academic.Document
			id, cid string
		)
		if err := row.Scan(&id, &cid, &d.Name, &d.URL); err != nil {
			return academic.Document{}, err
		}
		d.ID = academic.ID(id)
		d.CourseID = academic.ID(cid)
		return d, nil
	})
}

// FindReportsByStudent returns reports about the student. A nil courseIDs
// returns every report, including ones without a course.
func (r *AcademicRepository) FindReportsByStudent(ctx context.Context, studentID academic.ID, courseIDs []academic.ID) ([]academic.Report, error) {
	query := `
		SELECT id, student_id, course_id, teacher_id, report, ai_used, created_at
		FROM student_reports
		WHERE student_id = $1
	`
	args := []any{studentID.String()}
	if courseIDs != nil {
		if len(courseIDs) == 0 {
			return nil, nil
		}
		query += ` AND course_id = ANY($2)`
		args = append(args, academic.Strings(courseIDs))
	}
	query += ` ORDER BY seq`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	return collect(rows, func(row pgx.Row) (academic.Report, error) {
		var (
			rep                 academic.Report
			id, sid             string
			courseID, teacherID *string
		)
		if err := row.Scan(&id, &sid, &courseID, &teacherID, &rep.Text, &rep.AIUsed, &rep.CreatedAt); err != nil {
			return academic.Report{}, err
		}
		rep.ID = academic.ID(id)
		rep.StudentID = academic.ID(sid)
		rep.CourseID = optionalID(courseID)
		rep.TeacherID = optionalID(teacherID)
		return rep, nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func optionalID(s *string) *academic.ID {
	if s == nil || *s == "" {
		return nil
	}
	id := academic.ID(*s)
	return &id
}

func notFound(op, entity string, id academic.ID) error {
	return shared.NewDomainError("postgres", op, shared.ErrNotFound,
		fmt.Sprintf("%s %s not found", entity, id))
}
