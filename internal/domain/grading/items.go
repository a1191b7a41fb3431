package grading

import (
	"math"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
)

// ValidItems возвращает работы с maxPoints > 0, чья категория есть среди
// категорий курса. Порядок сохраняется.
func ValidItems(items []academic.GradeItem, categories []academic.GradeCategory) []academic.GradeItem {
	known := make(map[academic.ID]struct{}, len(categories))
	for _, c := range categories {
		known[c.ID] = struct{}{}
	}

	valid := make([]academic.GradeItem, 0, len(items))
	for _, item := range items {
		if IsValidItem(item, known) {
			valid = append(valid, item)
		}
	}
	return valid
}

// IsValidItem проверяет правило валидности для одной работы.
func IsValidItem(item academic.GradeItem, categoryIDs map[academic.ID]struct{}) bool {
	if item.Points() <= 0 || item.CategoryID == nil {
		return false
	}
	_, ok := categoryIDs[*item.CategoryID]
	return ok
}

// GradesByItem индексирует оценки по работе. При дубликатах побеждает
// первая оценка: расхождения в данных не сверяются.
func GradesByItem(grades []academic.Grade) map[academic.ID]*academic.Grade {
	idx := make(map[academic.ID]*academic.Grade, len(grades))
	for i := range grades {
		g := &grades[i]
		if g.ItemID == nil {
			continue
		}
		if _, exists := idx[*g.ItemID]; !exists {
			idx[*g.ItemID] = g
		}
	}
	return idx
}

// Round1 округляет до одного знака после запятой.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(part, whole float64) float64 {
	return part / whole * 100
}
