package analysis

import "strings"

// DefaultCourseTitle подставляется, когда у курса нет названия.
const DefaultCourseTitle = "this course"

// UnparseableJudgment - ответ модели не удалось разобрать.
func UnparseableJudgment() Judgment {
	return Judgment{
		Risk:         RiskPtr(RiskUnknown),
		ShortSummary: "Analysis unavailable",
		Advice:       "Service temporarily unavailable",
		FocusPoints:  []string{},
		Quiz:         []QuizQuestion{},
	}
}

// UnconfiguredJudgment - модель не настроена (нет ключа API).
func UnconfiguredJudgment() Judgment {
	return Judgment{
		Risk:         RiskPtr(RiskUnknown),
		ShortSummary: "AI not configured",
		Advice:       "Contact the administrator",
		FocusPoints:  []string{},
		Quiz:         []QuizQuestion{},
	}
}

// FallbackJudgment - нейтральный ответ для типа контекста, когда модель
// недоступна.
func FallbackJudgment(ctx ContextType, courseTitle string) Judgment {
	if strings.TrimSpace(courseTitle) == "" {
		courseTitle = DefaultCourseTitle
	}
	if ctx == ContextGraded {
		return Judgment{
			ShortSummary: "Keep up your efforts in " + courseTitle,
			Advice:       "Keep up your current pace.",
			FocusPoints:  []string{"Review"},
			Quiz:         []QuizQuestion{},
		}
	}
	return Judgment{
		ShortSummary: "Information unavailable",
		Advice:       "Please try again later.",
		FocusPoints:  []string{},
		Quiz:         []QuizQuestion{},
	}
}

// DegradedJudgment - анализ курса не удался; риск "unknown", совет резервный.
// Переопределение риска к нему не применяется.
func DegradedJudgment(ctx ContextType, courseTitle string) Judgment {
	j := FallbackJudgment(ctx, courseTitle)
	j.Risk = RiskPtr(RiskUnknown)
	return j
}
