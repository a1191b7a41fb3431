package query

import (
	"context"
	"strings"
	"sync"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

const (
	studentHex = "aaaaaaaaaaaaaaaaaaaaaaaa"
	teacherHex = "bbbbbbbbbbbbbbbbbbbbbbbb"
	collegeHex = "cccccccccccccccccccccccc"
)

func ptrID(s string) *academic.ID {
	v := academic.ID(s)
	return &v
}

func ptrF(v float64) *float64 { return &v }

// memoryRepo - хранилище в памяти; порядок выборок - порядок вставки.
type memoryRepo struct {
	users       []academic.User
	sessions    []academic.Session
	enrollments []academic.Enrollment
	courses     []academic.Course
	categories  []academic.GradeCategory
	items       []academic.GradeItem
	grades      []academic.Grade
	documents   []academic.Document
	reports     []academic.Report
	programs    []academic.Program

	mu    sync.Mutex
	calls map[string]int
}

func (r *memoryRepo) track(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[op]++
}

func (r *memoryRepo) callCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func idSet(ids []academic.ID) map[academic.ID]bool {
	m := make(map[academic.ID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func (r *memoryRepo) GetUser(_ context.Context, id academic.ID) (*academic.User, error) {
	r.track("GetUser")
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, shared.NewDomainError("academic", "GetUser", shared.ErrNotFound, "user not found")
}

func (r *memoryRepo) FindUsersByIDs(_ context.Context, ids []academic.ID) ([]academic.User, error) {
	r.track("FindUsersByIDs")
	want := idSet(ids)
	var out []academic.User
	for _, u := range r.users {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindActiveSessions(_ context.Context, collegeID *academic.ID) ([]academic.Session, error) {
	r.track("FindActiveSessions")
	var out []academic.Session
	for _, s := range r.sessions {
		if s.State != academic.SessionActive {
			continue
		}
		if collegeID != nil && (s.CollegeID == nil || *s.CollegeID != *collegeID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryRepo) FindSessionsByIDs(_ context.Context, ids []academic.ID) ([]academic.Session, error) {
	r.track("FindSessionsByIDs")
	want := idSet(ids)
	var out []academic.Session
	for _, s := range r.sessions {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindEnrollmentsByStudent(_ context.Context, studentID academic.ID) ([]academic.Enrollment, error) {
	r.track("FindEnrollmentsByStudent")
	var out []academic.Enrollment
	for _, e := range r.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindCoursesByIDs(_ context.Context, ids []academic.ID, sessionIDs []academic.ID) ([]academic.Course, error) {
	r.track("FindCoursesByIDs")
	want, sessions := idSet(ids), idSet(sessionIDs)
	var out []academic.Course
	for _, c := range r.courses {
		if want[c.ID] && c.SessionID != nil && sessions[*c.SessionID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindCategoriesByCourses(_ context.Context, courseIDs []academic.ID) ([]academic.GradeCategory, error) {
	r.track("FindCategoriesByCourses")
	want := idSet(courseIDs)
	var out []academic.GradeCategory
	for _, c := range r.categories {
		if want[c.CourseID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindItemsByCourses(_ context.Context, courseIDs []academic.ID) ([]academic.GradeItem, error) {
	r.track("FindItemsByCourses")
	want := idSet(courseIDs)
	var out []academic.GradeItem
	for _, i := range r.items {
		if want[i.CourseID] {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindGradesByStudent(_ context.Context, studentID academic.ID, courseIDs []academic.ID) ([]academic.Grade, error) {
	r.track("FindGradesByStudent")
	want := idSet(courseIDs)
	var out []academic.Grade
	for _, g := range r.grades {
		if g.StudentID == studentID && want[g.CourseID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindDocumentsByCourses(_ context.Context, courseIDs []academic.ID) ([]academic.Document, error) {
	r.track("FindDocumentsByCourses")
	want := idSet(courseIDs)
	var out []academic.Document
	for _, d := range r.documents {
		if want[d.CourseID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindReportsByStudent(_ context.Context, studentID academic.ID, courseIDs []academic.ID) ([]academic.Report, error) {
	r.track("FindReportsByStudent")
	want := idSet(courseIDs)
	var out []academic.Report
	for _, rep := range r.reports {
		if rep.StudentID != studentID {
			continue
		}
		if courseIDs != nil && (rep.CourseID == nil || !want[*rep.CourseID]) {
			continue
		}
		out = append(out, rep)
	}
	return out, nil
}

func (r *memoryRepo) GetProgram(_ context.Context, id academic.ID) (*academic.Program, error) {
	r.track("GetProgram")
	for i := range r.programs {
		if r.programs[i].ID == id {
			p := r.programs[i]
			return &p, nil
		}
	}
	return nil, shared.NewDomainError("academic", "GetProgram", shared.ErrNotFound, "program not found")
}

// ─────────────────────────────────────────────────────────────────────────────

type reasonerFunc func(ctx context.Context, prompt string) (string, error)

func (f reasonerFunc) Judge(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

type chatFunc func(ctx context.Context, messages []ChatMessage) (string, error)

func (f chatFunc) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	return f(ctx, messages)
}

type extractorFunc func(ctx context.Context, doc academic.Document) (string, error)

func (f extractorFunc) Extract(ctx context.Context, doc academic.Document) (string, error) {
	return f(ctx, doc)
}

// promptHasCourse сообщает, что промпт относится к курсу с этим названием.
func promptHasCourse(prompt, title string) bool {
	return strings.Contains(prompt, `"title":"`+title+`"`)
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture: один студент, одна активная и одна завершённая сессия.
// ─────────────────────────────────────────────────────────────────────────────

func newFixture() *memoryRepo {
	return &memoryRepo{
		users: []academic.User{
			{ID: studentHex, FirstName: "Ada", LastName: "Lovelace", Role: academic.RoleStudent},
			{ID: teacherHex, FirstName: "Charles", LastName: "Babbage", Role: academic.RoleTeacher},
		},
		sessions: []academic.Session{
			{ID: "sess-active", Name: "Fall 2026", State: academic.SessionActive, CollegeID: ptrID(collegeHex)},
			{ID: "sess-old", Name: "Spring 2025", State: academic.SessionFinished},
		},
		programs: []academic.Program{{ID: "prog-cs", Name: "Computer Science"}},
	}
}

func (r *memoryRepo) addCourse(id, title, sessionID string) {
	r.courses = append(r.courses, academic.Course{
		ID:        academic.ID(id),
		Title:     title,
		Code:      strings.ToUpper(id),
		TeacherID: ptrID(teacherHex),
		SessionID: ptrID(sessionID),
		ProgramID: ptrID("prog-cs"),
	})
	r.enrollments = append(r.enrollments, academic.Enrollment{StudentID: studentHex, CourseID: academic.ID(id)})
	r.categories = append(r.categories, academic.GradeCategory{
		ID: academic.ID(id + "-cat"), CourseID: academic.ID(id), Name: "Exams", Weight: 100,
	})
}

func (r *memoryRepo) addItem(courseID, itemID string, maxPoints float64) {
	r.items = append(r.items, academic.GradeItem{
		ID:         academic.ID(itemID),
		CourseID:   academic.ID(courseID),
		CategoryID: ptrID(courseID + "-cat"),
		Title:      itemID,
		MaxPoints:  ptrF(maxPoints),
	})
}

func (r *memoryRepo) addGrade(courseID, itemID string, score float64) {
	r.grades = append(r.grades, academic.Grade{
		ID:        academic.ID("g-" + itemID),
		StudentID: studentHex,
		CourseID:  academic.ID(courseID),
		ItemID:    ptrID(itemID),
		Score:     ptrF(score),
	})
}
