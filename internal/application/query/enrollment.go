package query

import (
	"context"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT JOINER
// Соединяет записи студента на курсы с курсами активных сессий и
// подтягивает имена преподавателей и сессий пакетными запросами.
// ══════════════════════════════════════════════════════════════════════════════

// UnknownInstructor подставляется, если преподаватель курса не найден.
const UnknownInstructor = "Unknown Instructor"

// EnrolledCourse - курс активной сессии с отображаемыми данными.
type EnrolledCourse struct {
	academic.Course

	// TeacherName - "Имя Фамилия" преподавателя или UnknownInstructor.
	TeacherName string

	// SessionName - название сессии; пусто, если сессия не найдена.
	SessionName string
}

// EnrollmentJoiner собирает курсы студента.
type EnrollmentJoiner struct {
	repo academic.Repository
}

// NewEnrollmentJoiner создаёт joiner.
func NewEnrollmentJoiner(repo academic.Repository) *EnrollmentJoiner {
	return &EnrollmentJoiner{repo: repo}
}

// Join возвращает курсы, на которые записан студент и чья сессия активна.
// Порядок - порядок записей в хранилище; повторные записи на один курс
// схлопываются. Курсы неактивных сессий молча отбрасываются.
func (j *EnrollmentJoiner) Join(ctx context.Context, studentID academic.ID, activeSessionIDs []academic.ID) ([]EnrolledCourse, error) {
	if len(activeSessionIDs) == 0 {
		return []EnrolledCourse{}, nil
	}

	enrollments, err := j.repo.FindEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, joinError("FindEnrollmentsByStudent", err)
	}

	enrolledIDs := make([]academic.ID, 0, len(enrollments))
	for _, e := range enrollments {
		enrolledIDs = append(enrolledIDs, e.CourseID)
	}
	enrolledIDs = academic.UniqueIDs(enrolledIDs)
	if len(enrolledIDs) == 0 {
		return []EnrolledCourse{}, nil
	}

	courses, err := j.repo.FindCoursesByIDs(ctx, enrolledIDs, activeSessionIDs)
	if err != nil {
		return nil, joinError("FindCoursesByIDs", err)
	}

	byID := make(map[academic.ID]academic.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	ordered := make([]academic.Course, 0, len(courses))
	for _, id := range enrolledIDs {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}

	teachers, err := j.teacherNames(ctx, ordered)
	if err != nil {
		return nil, err
	}
	sessions, err := j.sessionNames(ctx, ordered)
	if err != nil {
		return nil, err
	}

	out := make([]EnrolledCourse, 0, len(ordered))
	for _, c := range ordered {
		ec := EnrolledCourse{Course: c, TeacherName: UnknownInstructor}
		if c.TeacherID != nil {
			if name, ok := teachers[*c.TeacherID]; ok {
				ec.TeacherName = name
			}
		}
		if c.SessionID != nil {
			ec.SessionName = sessions[*c.SessionID]
		}
		out = append(out, ec)
	}
	return out, nil
}

func (j *EnrollmentJoiner) teacherNames(ctx context.Context, courses []academic.Course) (map[academic.ID]string, error) {
	ids := make([]academic.ID, 0, len(courses))
	for _, c := range courses {
		if c.TeacherID != nil {
			ids = append(ids, *c.TeacherID)
		}
	}
	ids = academic.UniqueIDs(ids)

	names := make(map[academic.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	users, err := j.repo.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, joinError("FindUsersByIDs", err)
	}
	for i := range users {
		names[users[i].ID] = users[i].DisplayName()
	}
	return names, nil
}

func (j *EnrollmentJoiner) sessionNames(ctx context.Context, courses []academic.Course) (map[academic.ID]string, error) {
	ids := make([]academic.ID, 0, len(courses))
	for _, c := range courses {
		if c.SessionID != nil {
			ids = append(ids, *c.SessionID)
		}
	}
	ids = academic.UniqueIDs(ids)

	names := make(map[academic.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	sessions, err := j.repo.FindSessionsByIDs(ctx, ids)
	if err != nil {
		return nil, joinError("FindSessionsByIDs", err)
	}
	for _, s := range sessions {
		names[s.ID] = s.Name
	}
	return names, nil
}

func joinError(op string, err error) error {
	return shared.WrapError("academic", op, shared.ErrExternalService, "enrollment join failed", err)
}

// CourseIDs возвращает ID курсов в исходном порядке.
func CourseIDs(courses []EnrolledCourse) []academic.ID {
	ids := make([]academic.ID, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return ids
}
