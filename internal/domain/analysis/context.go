package analysis

// ContextType выбирает, какие данные обогащают запрос к модели.
type ContextType string

const (
	ContextBoth          ContextType = "both"
	ContextWithReports   ContextType = "with_reports"
	ContextWithDocuments ContextType = "with_documents"
	ContextGraded        ContextType = "graded"
	ContextNone          ContextType = "none"
)

// SelectContext применяет строгий приоритет:
// both > with_reports > with_documents > graded > none.
func SelectContext(hasReports, hasDocuments, hasGrades bool) ContextType {
	switch {
	case hasReports && hasDocuments:
		return ContextBoth
	case hasReports:
		return ContextWithReports
	case hasDocuments:
		return ContextWithDocuments
	case hasGrades:
		return ContextGraded
	default:
		return ContextNone
	}
}

// UsesReports сообщает, что контекст включает отзывы преподавателя.
func (c ContextType) UsesReports() bool {
	return c == ContextBoth || c == ContextWithReports
}

// UsesDocuments сообщает, что контекст включает документы курса.
func (c ContextType) UsesDocuments() bool {
	return c == ContextBoth || c == ContextWithDocuments
}
