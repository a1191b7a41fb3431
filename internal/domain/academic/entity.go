package academic

import (
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// Типизированные записи внешнего хранилища. Необязательные поля - указатели:
// nil означает "поле отсутствует", а не нулевое значение.
// ══════════════════════════════════════════════════════════════════════════════

// Role - роль пользователя.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// User - пользователь платформы (студент или преподаватель).
type User struct {
	ID        ID    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role  `json:"role"`
	CollegeID *ID   `json:"collegeId,omitempty"`
}

// DisplayName возвращает "Имя Фамилия".
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsStudent сообщает, что пользователь - студент.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// SessionState - состояние учебной сессии.
type SessionState string

const (
	SessionPlanned  SessionState = "PLANNED"
	SessionActive   SessionState = "ACTIVE"
	SessionFinished SessionState = "FINISHED"
)

// Session - учебная сессия (семестр).
type Session struct {
	ID        ID           `json:"id"`
	Name      string       `json:"name"`
	Code      string       `json:"code"`
	State     SessionState `json:"state"`
	StartDate *time.Time   `json:"startDate,omitempty"`
	EndDate   *time.Time   `json:"endDate,omitempty"`
	CollegeID *ID          `json:"collegeId,omitempty"`
}

// IsActive сообщает, что сессия идёт сейчас.
func (s *Session) IsActive() bool {
	return s.State == SessionActive
}

// Course - курс, привязанный к сессии.
type Course struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	ProgramID   *ID    `json:"programId,omitempty"`
	TeacherID   *ID    `json:"teacherId,omitempty"`
	SessionID   *ID    `json:"sessionId,omitempty"`
	CollegeID   *ID    `json:"collegeId,omitempty"`
}

// Enrollment - связь студент → курс.
type Enrollment struct {
	StudentID ID `json:"studentId"`
	CourseID  ID `json:"courseId"`
}

// GradeCategory - категория рубрики курса. Weight - отображаемый процент,
// движок его не перенормирует.
type GradeCategory struct {
	ID       ID      `json:"id"`
	CourseID ID      `json:"courseId"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
}

// GradeItem - оцениваемая работа курса.
type GradeItem struct {
	ID         ID       `json:"id"`
	CourseID   ID       `json:"courseId"`
	CategoryID *ID      `json:"categoryId,omitempty"`
	Title      string   `json:"title"`
	MaxPoints  *float64 `json:"maxPoints,omitempty"`
}

// Points возвращает максимальный балл или 0, если он не задан.
func (i *GradeItem) Points() float64 {
	if i.MaxPoints == nil {
		return 0
	}
	return *i.MaxPoints
}

// Grade - оценка студента за работу. Отсутствие записи означает
// "работа не оценена".
type Grade struct {
	ID        ID       `json:"id"`
	StudentID ID       `json:"studentId"`
	CourseID  ID       `json:"courseId"`
	ItemID    *ID      `json:"itemId,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	MaxPoints *float64 `json:"maxPoints,omitempty"`
	TeacherID *ID      `json:"teacherId,omitempty"`
}

// ScoreValue возвращает балл или 0, если он не задан.
func (g *Grade) ScoreValue() float64 {
	if g.Score == nil {
		return 0
	}
	return *g.Score
}

// Document - материал курса. Текст извлекается отдельным сервисом по ID.
type Document struct {
	ID       ID     `json:"id"`
	CourseID ID     `json:"courseId"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
}

// Report - отзыв преподавателя о студенте.
type Report struct {
	ID        ID        `json:"id"`
	StudentID ID        `json:"studentId"`
	CourseID  *ID       `json:"courseId,omitempty"`
	TeacherID *ID       `json:"teacherId,omitempty"`
	Text      string    `json:"report"`
	AIUsed    bool      `json:"aiUsed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Program - учебная программа, к которой относится курс.
type Program struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
	Code  string `json:"code,omitempty"`
}
