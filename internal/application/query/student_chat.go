package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/grading"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT CHAT QUERY
// Текстовый контекст студента (Variant A) и ответ чат-ассистента,
// основанный только на этом контексте.
// ══════════════════════════════════════════════════════════════════════════════

// Значения по умолчанию для текстового контекста.
const (
	UnknownProgram   = "Unknown Program"
	UnknownCourse    = "Unknown Course"
	GeneralReport    = "General"
	ChatHistoryLimit = 5
)

// Роли сообщений чата.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage - одно сообщение переписки.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponder - внешняя модель в режиме свободного ответа.
// Возвращает shared.ErrReasoningNotConfigured, если модель не настроена.
type ChatResponder interface {
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}

// StudentChatQuery содержит параметры запроса чата.
type StudentChatQuery struct {
	StudentID string
	Message   string
	History   []ChatMessage
}

// Validate проверяет корректность параметров запроса.
func (q *StudentChatQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewDomainError("chat", "Validate", shared.ErrEmptyValue, "studentId is required")
	}
	if strings.TrimSpace(q.Message) == "" {
		return shared.NewDomainError("chat", "Validate", shared.ErrEmptyValue, "message is required")
	}
	return nil
}

// StudentChatResult - ответ ассистента.
type StudentChatResult struct {
	Reply string `json:"reply"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Narrative builder
// ─────────────────────────────────────────────────────────────────────────────

// NarrativeBuilder собирает текстовый контекст студента.
type NarrativeBuilder struct {
	repo     academic.Repository
	sessions *SessionFilter
	joiner   *EnrollmentJoiner
}

// NewNarrativeBuilder создаёт builder.
func NewNarrativeBuilder(repo academic.Repository) *NarrativeBuilder {
	return &NarrativeBuilder{
		repo:     repo,
		sessions: NewSessionFilter(repo),
		joiner:   NewEnrollmentJoiner(repo),
	}
}

// Build возвращает контекст: студент, программа, курсы активных сессий
// (без фильтра организации) с преподавателем, средним, разбивкой по
// категориям и материалами, затем отзывы преподавателей.
func (b *NarrativeBuilder) Build(ctx context.Context, student *academic.User) (string, error) {
	activeSessions, err := b.sessions.ActiveSessionIDs(ctx, nil)
	if err != nil {
		return "", err
	}
	courses, err := b.joiner.Join(ctx, student.ID, activeSessions)
	if err != nil {
		return "", err
	}
	courseIDs := CourseIDs(courses)

	var (
		grades     []academic.Grade
		items      []academic.GradeItem
		categories []academic.GradeCategory
		documents  []academic.Document
	)
	if len(courseIDs) > 0 {
		if grades, err = b.repo.FindGradesByStudent(ctx, student.ID, courseIDs); err != nil {
			return "", loadError("FindGradesByStudent", err)
		}
		if items, err = b.repo.FindItemsByCourses(ctx, courseIDs); err != nil {
			return "", loadError("FindItemsByCourses", err)
		}
		if categories, err = b.repo.FindCategoriesByCourses(ctx, courseIDs); err != nil {
			return "", loadError("FindCategoriesByCourses", err)
		}
		if documents, err = b.repo.FindDocumentsByCourses(ctx, courseIDs); err != nil {
			return "", loadError("FindDocumentsByCourses", err)
		}
	}
	reports, err := b.repo.FindReportsByStudent(ctx, student.ID, nil)
	if err != nil {
		return "", loadError("FindReportsByStudent", err)
	}

	itemIndex := grading.ItemIndex(items)
	gradesBy := groupBy(grades, func(g academic.Grade) academic.ID { return g.CourseID })
	itemsBy := groupBy(items, func(i academic.GradeItem) academic.ID { return i.CourseID })
	categoriesBy := groupBy(categories, func(c academic.GradeCategory) academic.ID { return c.CourseID })
	documentsBy := groupBy(documents, func(d academic.Document) academic.ID { return d.CourseID })

	blocks := make([]string, 0, len(courses))
	for _, c := range courses {
		cats := categoriesBy[c.ID]
		valid := grading.ValidItems(itemsBy[c.ID], cats)
		overall := grading.OverallAverage(gradesBy[c.ID], itemIndex)
		breakdown := grading.CategoryBreakdown(cats, valid, gradesBy[c.ID])
		blocks = append(blocks, courseBlock(c, overall, breakdown, documentsBy[c.ID]))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, "No active courses found.")
	}

	program, err := b.programName(ctx, courses)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Student: %s\n", student.DisplayName())
	fmt.Fprintf(&sb, "Program: %s\n", program)
	fmt.Fprintf(&sb, "Total Active Courses: %d\n\n", len(courses))
	sb.WriteString("=== ENROLLED COURSES & MATERIALS ===\n")
	sb.WriteString(strings.Join(blocks, "\n"))
	sb.WriteString("\n\n=== TEACHER REPORTS ===\n")
	sb.WriteString(reportLines(reports, courses))
	sb.WriteString("\n")
	return sb.String(), nil
}

func courseBlock(c EnrolledCourse, overall grading.Average, breakdown []grading.CategoryAverage, docs []academic.Document) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Course: %s (%s)\n", c.Title, c.SessionName)
	fmt.Fprintf(&sb, "  - Professor: %s\n", c.TeacherName)
	fmt.Fprintf(&sb, "  - Overall Average: %s\n", overall.String())
	if len(breakdown) > 0 {
		parts := make([]string, len(breakdown))
		for i, ca := range breakdown {
			parts[i] = ca.String()
		}
		fmt.Fprintf(&sb, "  - Breakdown: %s\n", strings.Join(parts, ", "))
	}

	materials := "No documents"
	if len(docs) > 0 {
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = d.Name
		}
		materials = strings.Join(names, ", ")
	}
	fmt.Fprintf(&sb, "  - Materials: %s", materials)
	return sb.String()
}

func reportLines(reports []academic.Report, courses []EnrolledCourse) string {
	if len(reports) == 0 {
		return "No teacher reports available."
	}
	titles := make(map[academic.ID]string, len(courses))
	for _, c := range courses {
		title := c.Title
		if title == "" {
			title = UnknownCourse
		}
		titles[c.ID] = title
	}

	lines := make([]string, len(reports))
	for i, r := range reports {
		label := GeneralReport
		if r.CourseID != nil {
			if t, ok := titles[*r.CourseID]; ok {
				label = t
			}
		}
		lines[i] = fmt.Sprintf("- [%s]: %s", label, r.Text)
	}
	return strings.Join(lines, "\n")
}

// programName берёт программу первого курса.
func (b *NarrativeBuilder) programName(ctx context.Context, courses []EnrolledCourse) (string, error) {
	if len(courses) == 0 || courses[0].ProgramID == nil {
		return UnknownProgram, nil
	}
	p, err := b.repo.GetProgram(ctx, *courses[0].ProgramID)
	if err != nil {
		if shared.IsNotFound(err) {
			return UnknownProgram, nil
		}
		return "", loadError("GetProgram", err)
	}
	if p.Name == "" {
		return UnknownProgram, nil
	}
	return p.Name, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// chatSystemPrompt задаёт правила ответа; %s - контекст студента.
const chatSystemPrompt = `You are the academic assistant of the student described below.
Answer using ONLY the information in this context. Do not invent grades, courses or documents.
If the context says no teacher reports are available, state explicitly that no teacher reports exist yet.
If a question cannot be answered from the context, say so.

%s`

// StudentChatHandler обрабатывает сообщение чата.
type StudentChatHandler struct {
	identity  *IdentityResolver
	narrative *NarrativeBuilder
	responder ChatResponder
	logger    *slog.Logger
}

// NewStudentChatHandler создаёт новый обработчик.
func NewStudentChatHandler(repo academic.Repository, responder ChatResponder, logger *slog.Logger) *StudentChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudentChatHandler{
		identity:  NewIdentityResolver(repo),
		narrative: NewNarrativeBuilder(repo),
		responder: responder,
		logger:    logger.With("component", "student_chat"),
	}
}

// Handle выполняет запрос. Ненастроенная модель даёт
// shared.ErrReasoningNotConfigured.
func (h *StudentChatHandler) Handle(ctx context.Context, query StudentChatQuery) (*StudentChatResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if h.responder == nil {
		return nil, shared.ErrReasoningNotConfigured
	}

	student, err := h.identity.ResolveStudent(ctx, query.StudentID)
	if err != nil {
		return nil, err
	}

	narrative, err := h.narrative.Build(ctx, student)
	if err != nil {
		return nil, err
	}

	reply, err := h.responder.Chat(ctx, ChatMessages(narrative, query.History, query.Message))
	if err != nil {
		h.logger.Warn("chat reply failed", "student_id", student.ID.String(), "error", err)
		return nil, err
	}
	return &StudentChatResult{Reply: reply}, nil
}

// ChatMessages собирает переписку: системный промпт, последние
// ChatHistoryLimit сообщений истории и сообщение пользователя.
func ChatMessages(narrative string, history []ChatMessage, message string) []ChatMessage {
	if len(history) > ChatHistoryLimit {
		history = history[len(history)-ChatHistoryLimit:]
	}

	msgs := make([]ChatMessage, 0, len(history)+2)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: fmt.Sprintf(chatSystemPrompt, narrative)})
	for _, m := range history {
		role := m.Role
		if role != RoleAssistant {
			role = RoleUser
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, ChatMessage{Role: RoleUser, Content: message})
	return msgs
}
