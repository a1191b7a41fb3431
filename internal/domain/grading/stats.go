package grading

import "github.com/eduplatform/insight-hub/internal/domain/academic"

// ══════════════════════════════════════════════════════════════════════════════
// VARIANT B - STRUCTURED STATS
// ══════════════════════════════════════════════════════════════════════════════

// CourseStats - статистика курса для структурированного анализа.
type CourseStats struct {
	// Average - средний балл в процентах, округлённый; nil, если оценок нет.
	Average *float64 `json:"average"`
	// Completion - доля оценённых баллов в процентах, округлённая.
	Completion float64 `json:"completion"`
	// TotalPoints - сумма maxPoints всех валидных работ.
	TotalPoints float64 `json:"totalPoints"`
	// EvaluatedPoints - сумма maxPoints оценённых валидных работ.
	EvaluatedPoints float64 `json:"evaluatedPoints"`
	// EarnedPoints - сумма набранных баллов по оценённым валидным работам.
	EarnedPoints float64 `json:"earnedPoints"`
	HasGrades    bool    `json:"hasGrades"`

	// rawAverage хранит неокруглённое значение для правил риска.
	rawAverage *float64
}

// RawAverage возвращает неокруглённый средний балл.
func (s CourseStats) RawAverage() (float64, bool) {
	if s.rawAverage == nil {
		return 0, false
	}
	return *s.rawAverage, true
}

// ComputeStats считает Variant B по валидным работам курса.
// Работы без оценки не учитываются ни в заработанных, ни в оценённых баллах.
// Completion взвешен по баллам, а не по количеству работ.
func ComputeStats(validItems []academic.GradeItem, grades []academic.Grade) CourseStats {
	graded := GradesByItem(grades)

	var s CourseStats
	for _, item := range validItems {
		s.TotalPoints += item.Points()
		g, ok := graded[item.ID]
		if !ok {
			continue
		}
		s.EvaluatedPoints += item.Points()
		s.EarnedPoints += g.ScoreValue()
	}

	if s.EvaluatedPoints > 0 {
		raw := percent(s.EarnedPoints, s.EvaluatedPoints)
		rounded := Round1(raw)
		s.rawAverage = &raw
		s.Average = &rounded
		s.HasGrades = true
	}
	if s.TotalPoints > 0 {
		s.Completion = Round1(percent(s.EvaluatedPoints, s.TotalPoints))
	}
	return s
}
