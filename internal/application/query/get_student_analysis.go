package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/analysis"
	"github.com/eduplatform/insight-hub/internal/domain/grading"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT ANALYSIS QUERY
// Анализ всех активных курсов студента: статистика, выбор контекста,
// суждение модели и детерминированное переопределение риска.
// Сбой одного курса не ломает ответ по остальным.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultMaxConcurrentCourses - сколько курсов анализируется одновременно.
const DefaultMaxConcurrentCourses = 4

// Reasoner - внешний шаг рассуждения: текст на входе, JSON (возможно, в
// обёртке из текста) на выходе. Возвращает shared.ErrReasoningNotConfigured,
// если модель не настроена.
type Reasoner interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

// GetStudentAnalysisQuery содержит параметры запроса анализа.
type GetStudentAnalysisQuery struct {
	// StudentID - идентификатор студента (24 hex).
	StudentID string

	// CollegeID - необязательная организация для фильтра сессий.
	CollegeID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetStudentAnalysisQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewDomainError("analysis", "Validate", shared.ErrEmptyValue, "studentId is required")
	}
	return nil
}

// CourseAnalysis - результат по одному курсу.
type CourseAnalysis struct {
	Course      academic.Course          `json:"course"`
	Grades      []academic.Grade         `json:"grades"`
	Items       []academic.GradeItem     `json:"items"`
	Categories  []academic.GradeCategory `json:"categories"`
	Documents   []academic.Document      `json:"documents"`
	Reports     []academic.Report        `json:"reports"`
	Stats       grading.CourseStats      `json:"stats"`
	ContextType analysis.ContextType     `json:"contextType"`
	Analysis    analysis.Judgment        `json:"analysis"`

	// Error заполнен, если анализ курса деградировал.
	Error string `json:"error,omitempty"`
}

// Degraded сообщает, что курс получил резервный результат.
func (c *CourseAnalysis) Degraded() bool { return c.Error != "" }

// StudentAnalysisResult - ответ анализа.
type StudentAnalysisResult struct {
	Success bool             `json:"success"`
	Courses []CourseAnalysis `json:"courses"`
}

// AnalysisConfig настраивает обработчик.
type AnalysisConfig struct {
	MaxConcurrentCourses int
}

// GetStudentAnalysisHandler обрабатывает запрос анализа.
type GetStudentAnalysisHandler struct {
	repo     academic.Repository
	identity *IdentityResolver
	sessions *SessionFilter
	joiner   *EnrollmentJoiner
	selector *ContextSelector
	reasoner Reasoner
	config   AnalysisConfig
	logger   *slog.Logger
}

// NewGetStudentAnalysisHandler создаёт новый обработчик.
func NewGetStudentAnalysisHandler(
	repo academic.Repository,
	selector *ContextSelector,
	reasoner Reasoner,
	config AnalysisConfig,
	logger *slog.Logger,
) *GetStudentAnalysisHandler {
	if config.MaxConcurrentCourses <= 0 {
		config.MaxConcurrentCourses = DefaultMaxConcurrentCourses
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GetStudentAnalysisHandler{
		repo:     repo,
		identity: NewIdentityResolver(repo),
		sessions: NewSessionFilter(repo),
		joiner:   NewEnrollmentJoiner(repo),
		selector: selector,
		reasoner: reasoner,
		config:   config,
		logger:   logger.With("component", "student_analysis"),
	}
}

// courseSnapshot - данные одного курса, собранные за один проход.
type courseSnapshot struct {
	course     academic.Course
	grades     []academic.Grade
	validItems []academic.GradeItem
	categories []academic.GradeCategory
	documents  []academic.Document
	reports    []academic.Report
}

// Handle выполняет запрос. Ошибки идентификации и чтения хранилища
// прерывают весь запрос; ошибки отдельных курсов превращаются в
// деградированный результат этого курса.
func (h *GetStudentAnalysisHandler) Handle(ctx context.Context, query GetStudentAnalysisQuery) (*StudentAnalysisResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	student, err := h.identity.ResolveStudent(ctx, query.StudentID)
	if err != nil {
		return nil, err
	}
	collegeID, err := h.identity.ResolveOrganization(query.CollegeID)
	if err != nil {
		return nil, err
	}

	empty := &StudentAnalysisResult{Success: true, Courses: []CourseAnalysis{}}

	activeSessions, err := h.sessions.ActiveSessionIDs(ctx, collegeID)
	if err != nil {
		return nil, err
	}
	if len(activeSessions) == 0 {
		return empty, nil
	}

	courses, err := h.joiner.Join(ctx, student.ID, activeSessions)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return empty, nil
	}

	snapshots, err := h.loadSnapshots(ctx, student.ID, courses)
	if err != nil {
		return nil, err
	}

	results := make([]CourseAnalysis, len(snapshots))
	var g errgroup.Group
	g.SetLimit(h.config.MaxConcurrentCourses)
	for i, snap := range snapshots {
		g.Go(func() error {
			results[i] = h.analyzeCourse(ctx, snap)
			return nil
		})
	}
	_ = g.Wait()

	return &StudentAnalysisResult{Success: true, Courses: results}, nil
}

// loadSnapshots загружает связанные данные пакетами, строит индексы по курсу
// и отбрасывает полностью оценённые курсы.
func (h *GetStudentAnalysisHandler) loadSnapshots(ctx context.Context, studentID academic.ID, courses []EnrolledCourse) ([]courseSnapshot, error) {
	courseIDs := CourseIDs(courses)

	grades, err := h.repo.FindGradesByStudent(ctx, studentID, courseIDs)
	if err != nil {
		return nil, loadError("FindGradesByStudent", err)
	}
	items, err := h.repo.FindItemsByCourses(ctx, courseIDs)
	if err != nil {
		return nil, loadError("FindItemsByCourses", err)
	}
	categories, err := h.repo.FindCategoriesByCourses(ctx, courseIDs)
	if err != nil {
		return nil, loadError("FindCategoriesByCourses", err)
	}
	documents, err := h.repo.FindDocumentsByCourses(ctx, courseIDs)
	if err != nil {
		return nil, loadError("FindDocumentsByCourses", err)
	}
	reports, err := h.repo.FindReportsByStudent(ctx, studentID, courseIDs)
	if err != nil {
		return nil, loadError("FindReportsByStudent", err)
	}

	gradesBy := groupBy(grades, func(g academic.Grade) academic.ID { return g.CourseID })
	itemsBy := groupBy(items, func(i academic.GradeItem) academic.ID { return i.CourseID })
	categoriesBy := groupBy(categories, func(c academic.GradeCategory) academic.ID { return c.CourseID })
	documentsBy := groupBy(documents, func(d academic.Document) academic.ID { return d.CourseID })
	reportsBy := make(map[academic.ID][]academic.Report)
	for _, r := range reports {
		if r.CourseID != nil {
			reportsBy[*r.CourseID] = append(reportsBy[*r.CourseID], r)
		}
	}

	snapshots := make([]courseSnapshot, 0, len(courses))
	for _, c := range courses {
		valid := grading.ValidItems(itemsBy[c.ID], categoriesBy[c.ID])
		completion := grading.Classify(valid, gradesBy[c.ID])
		if !completion.Active {
			h.logger.Debug("course fully evaluated, skipping",
				"course_id", c.ID.String(),
				"evaluated_ratio", completion.Ratio(),
			)
			continue
		}
		snapshots = append(snapshots, courseSnapshot{
			course:     c.Course,
			grades:     orEmpty(gradesBy[c.ID]),
			validItems: valid,
			categories: orEmpty(categoriesBy[c.ID]),
			documents:  orEmpty(documentsBy[c.ID]),
			reports:    orEmpty(reportsBy[c.ID]),
		})
	}
	return snapshots, nil
}

// analyzeCourse никогда не паникует наружу и не возвращает ошибку.
func (h *GetStudentAnalysisHandler) analyzeCourse(ctx context.Context, snap courseSnapshot) (res CourseAnalysis) {
	start := time.Now()
	log := h.logger.With("course_id", snap.course.ID.String())

	res = CourseAnalysis{
		Course:      snap.course,
		Grades:      snap.grades,
		Items:       snap.validItems,
		Categories:  snap.categories,
		Documents:   snap.documents,
		Reports:     snap.reports,
		ContextType: analysis.ContextNone,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("course analysis panicked", "panic", r, "stack", string(debug.Stack()))
			res.Analysis = analysis.DegradedJudgment(res.ContextType, snap.course.Title)
			res.Error = shared.ErrCourseAnalysisFailed.Message
		}
	}()

	res.Stats = grading.ComputeStats(snap.validItems, snap.grades)

	summary := CourseSummary{
		Title:       snap.course.Title,
		Code:        snap.course.Code,
		Description: snap.course.Description,
		Average:     res.Stats.Average,
		Completion:  res.Stats.Completion,
		HasGrades:   res.Stats.HasGrades,
	}

	sel := h.selector.Select(ctx, res.Stats.HasGrades, snap.reports, snap.documents)
	res.ContextType = sel.Type

	judgment, err := h.judge(ctx, summary, sel)
	if err != nil {
		log.Warn("course analysis degraded",
			"context_type", string(sel.Type),
			"error", err,
			"latency", time.Since(start).String(),
		)
		res.Analysis = analysis.DegradedJudgment(sel.Type, snap.course.Title)
		res.Error = fmt.Sprintf("%s: %v", shared.ErrCourseAnalysisFailed.Message, err)
		return res
	}

	res.Analysis = analysis.ApplyRiskOverride(judgment, res.Stats)
	log.Debug("course analyzed",
		"context_type", string(sel.Type),
		"risk", res.Analysis.RiskValue(),
		"latency", time.Since(start).String(),
	)
	return res
}

// judge вызывает модель и разбирает ответ. Ненастроенная модель даёт
// фиксированное суждение, а не ошибку.
func (h *GetStudentAnalysisHandler) judge(ctx context.Context, summary CourseSummary, sel SelectedContext) (analysis.Judgment, error) {
	if h.reasoner == nil {
		return analysis.UnconfiguredJudgment(), nil
	}

	prompt, err := BuildAnalysisPrompt(summary, sel)
	if err != nil {
		return analysis.Judgment{}, err
	}

	raw, err := h.reasoner.Judge(ctx, prompt)
	if err != nil {
		if errors.Is(err, shared.ErrReasoningNotConfigured) {
			return analysis.UnconfiguredJudgment(), nil
		}
		return analysis.Judgment{}, err
	}

	judgment, perr := analysis.ParseJudgment(raw)
	if perr != nil {
		h.logger.Warn("reasoning output not parseable, using fallback", "error", perr)
	}
	return judgment, nil
}

func loadError(op string, err error) error {
	return shared.WrapError("academic", op, shared.ErrExternalService, "failed to load course data", err)
}

func groupBy[T any](records []T, key func(T) academic.ID) map[academic.ID][]T {
	out := make(map[academic.ID][]T)
	for _, r := range records {
		k := key(r)
		out[k] = append(out[k], r)
	}
	return out
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
