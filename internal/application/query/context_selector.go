package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/analysis"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT SELECTOR
// Выбирает контекст для модели и собирает текст отзывов и документов.
// ══════════════════════════════════════════════════════════════════════════════

// Лимиты контекста.
const (
	MaxContextReports    = 3
	MaxReportsChars      = 1000
	MaxContentDocuments  = 3
	MaxDocumentChars     = 2000
	MaxDocumentNames     = 5
	DefaultFetchParallel = 3
)

// TextExtractor извлекает текст документа. Ошибка означает, что текст
// получить не удалось; пустая строка без ошибки - документ пуст.
type TextExtractor interface {
	Extract(ctx context.Context, doc academic.Document) (string, error)
}

// DocumentFetch - типизированный результат загрузки текста одного документа.
type DocumentFetch struct {
	Document academic.Document
	Content  string
	Err      error
}

// OK сообщает, что текст получен (возможно, пустой).
func (f DocumentFetch) OK() bool { return f.Err == nil }

// Block возвращает блок документа для промпта или "", если загрузка не удалась.
func (f DocumentFetch) Block() string {
	if !f.OK() {
		return ""
	}
	return "\n--- Document: " + f.Document.Name + " ---\n" + truncateRunes(f.Content, MaxDocumentChars)
}

// SelectedContext - выбранный контекст курса.
type SelectedContext struct {
	Type            analysis.ContextType
	ReportsText     string
	DocumentNames   []string
	DocumentContent string
	Fetches         []DocumentFetch
}

// ContextSelectorConfig настраивает ContextSelector.
type ContextSelectorConfig struct {
	// MaxParallelFetches ограничивает одновременные загрузки текста.
	MaxParallelFetches int
	// DocumentsEnabled выключает использование документов целиком.
	DocumentsEnabled bool
}

// ContextSelector выбирает контекст анализа курса.
type ContextSelector struct {
	extractor TextExtractor
	config    ContextSelectorConfig
	logger    *slog.Logger
}

// NewContextSelector создаёт селектор. extractor может быть nil: тогда
// тексты документов не загружаются, но их названия используются.
func NewContextSelector(extractor TextExtractor, config ContextSelectorConfig, logger *slog.Logger) *ContextSelector {
	if config.MaxParallelFetches <= 0 {
		config.MaxParallelFetches = DefaultFetchParallel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextSelector{extractor: extractor, config: config, logger: logger}
}

// Select применяет приоритет both > with_reports > with_documents > graded > none
// и собирает тексты. Никогда не возвращает ошибку: сбой загрузки документа
// даёт пустой блок только для этого документа.
func (s *ContextSelector) Select(ctx context.Context, hasGrades bool, reports []academic.Report, documents []academic.Document) SelectedContext {
	if !s.config.DocumentsEnabled {
		documents = nil
	}

	sel := SelectedContext{
		Type: analysis.SelectContext(len(reports) > 0, len(documents) > 0, hasGrades),
	}

	if sel.Type.UsesReports() {
		sel.ReportsText = ReportsText(reports)
	}
	if sel.Type.UsesDocuments() {
		sel.DocumentNames = DocumentNames(documents)
		sel.Fetches = s.FetchDocuments(ctx, headDocuments(documents, MaxContentDocuments))

		var b strings.Builder
		for _, f := range sel.Fetches {
			b.WriteString(f.Block())
		}
		sel.DocumentContent = b.String()
	}
	return sel
}

// FetchDocuments загружает тексты параллельно (не больше MaxParallelFetches
// одновременно). Результаты идут в порядке входных документов.
func (s *ContextSelector) FetchDocuments(ctx context.Context, documents []academic.Document) []DocumentFetch {
	results := make([]DocumentFetch, len(documents))
	if len(documents) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(s.config.MaxParallelFetches)
	for i, doc := range documents {
		g.Go(func() error {
			results[i] = s.fetchOne(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *ContextSelector) fetchOne(ctx context.Context, doc academic.Document) (res DocumentFetch) {
	res.Document = doc
	defer func() {
		if r := recover(); r != nil {
			res.Content = ""
			res.Err = fmt.Errorf("extract document %s: panic: %v", doc.ID, r)
			s.logger.Error("document extraction panicked", "document_id", doc.ID.String(), "panic", r)
		}
	}()

	if s.extractor == nil {
		res.Err = fmt.Errorf("extract document %s: no extractor configured", doc.ID)
		return res
	}

	content, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		s.logger.Warn("document extraction failed",
			"document_id", doc.ID.String(),
			"document", doc.Name,
			"error", err,
		)
		res.Err = err
		return res
	}
	res.Content = content
	return res
}

// ReportsText склеивает первые MaxContextReports отзывов через пробел и
// обрезает до MaxReportsChars символов.
func ReportsText(reports []academic.Report) string {
	n := min(len(reports), MaxContextReports)
	parts := make([]string, 0, n)
	for _, r := range reports[:n] {
		parts = append(parts, r.Text)
	}
	return truncateRunes(strings.Join(parts, " "), MaxReportsChars)
}

// DocumentNames возвращает названия первых MaxDocumentNames документов.
func DocumentNames(documents []academic.Document) []string {
	head := headDocuments(documents, MaxDocumentNames)
	names := make([]string, len(head))
	for i, d := range head {
		names[i] = d.Name
	}
	return names
}

func headDocuments(documents []academic.Document, n int) []academic.Document {
	if len(documents) <= n {
		return documents
	}
	return documents[:n]
}

// truncateRunes обрезает строку до n символов (не байт).
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
