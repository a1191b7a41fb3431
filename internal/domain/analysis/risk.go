package analysis

import "github.com/eduplatform/insight-hub/internal/domain/grading"

// Пороги переопределения риска, в процентах среднего балла.
const (
	HighRiskBelow   = 60.0
	MediumRiskBelow = 75.0
)

// RiskForAverage сопоставляет средний балл уровню риска.
func RiskForAverage(average float64) Risk {
	switch {
	case average < HighRiskBelow:
		return RiskHigh
	case average < MediumRiskBelow:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ApplyRiskOverride заменяет риск, выставленный моделью, на риск по
// неокруглённому среднему баллу. Без оценок риск всегда nil.
func ApplyRiskOverride(j Judgment, stats grading.CourseStats) Judgment {
	avg, ok := stats.RawAverage()
	if !stats.HasGrades || !ok {
		j.Risk = nil
		return j
	}
	j.Risk = RiskPtr(RiskForAverage(avg))
	return j
}
