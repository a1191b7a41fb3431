package grading

import "github.com/eduplatform/insight-hub/internal/domain/academic"

// CompletionThreshold - доля оценённых баллов, начиная с которой курс
// считается полностью оценённым. Допуск в 1% покрывает одну мелкую
// неоценённую работу.
const CompletionThreshold = 0.99

// Completion - результат классификации курса.
type Completion struct {
	// TotalPoints - сумма maxPoints всех валидных работ.
	TotalPoints float64
	// EvaluatedPoints - сумма maxPoints валидных работ, у которых есть оценка.
	EvaluatedPoints float64
	// NotStarted - у курса нет ни одной валидной работы.
	NotStarted bool
	// Active - курс ещё идёт и участвует в анализе.
	Active bool
}

// Ratio возвращает долю оценённых баллов (0, если баллов нет).
func (c Completion) Ratio() float64 {
	if c.TotalPoints <= 0 {
		return 0
	}
	return c.EvaluatedPoints / c.TotalPoints
}

// Classify решает, активен ли курс для анализа. validItems должны быть уже
// отфильтрованы через ValidItems.
func Classify(validItems []academic.GradeItem, grades []academic.Grade) Completion {
	if len(validItems) == 0 {
		return Completion{NotStarted: true, Active: true}
	}

	graded := GradesByItem(grades)
	var c Completion
	for _, item := range validItems {
		c.TotalPoints += item.Points()
		if _, ok := graded[item.ID]; ok {
			c.EvaluatedPoints += item.Points()
		}
	}

	c.Active = !(c.TotalPoints > 0 && c.Ratio() >= CompletionThreshold)
	return c
}
