package grading

import (
	"fmt"
	"strconv"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
)

// ══════════════════════════════════════════════════════════════════════════════
// VARIANT A - NARRATIVE AVERAGES
// ══════════════════════════════════════════════════════════════════════════════

// DefaultPossiblePoints - максимум для оценки, у которой ни работа, ни сама
// оценка не задают maxPoints.
const DefaultPossiblePoints = 100.0

// Average - заработанные и возможные баллы.
type Average struct {
	Earned   float64
	Possible float64
}

// Percent возвращает процент; false означает "оценок ещё нет".
func (a Average) Percent() (float64, bool) {
	if a.Possible <= 0 {
		return 0, false
	}
	return percent(a.Earned, a.Possible), true
}

// String форматирует среднее для текстового контекста.
func (a Average) String() string {
	p, ok := a.Percent()
	if !ok {
		return "No grades yet"
	}
	return fmt.Sprintf("%.1f%%", p)
}

// OverallAverage считает общий средний балл курса по всем оценкам курса.
// Возможные баллы: maxPoints работы, если работа найдена и задаёт его;
// иначе maxPoints оценки; иначе DefaultPossiblePoints.
func OverallAverage(grades []academic.Grade, itemsByID map[academic.ID]*academic.GradeItem) Average {
	var a Average
	for i := range grades {
		g := &grades[i]
		a.Earned += g.ScoreValue()
		a.Possible += possiblePoints(g, itemsByID)
	}
	return a
}

func possiblePoints(g *academic.Grade, itemsByID map[academic.ID]*academic.GradeItem) float64 {
	if g.ItemID != nil {
		if item, ok := itemsByID[*g.ItemID]; ok && item.MaxPoints != nil {
			return *item.MaxPoints
		}
	}
	if g.MaxPoints != nil {
		return *g.MaxPoints
	}
	return DefaultPossiblePoints
}

// CategoryAverage - средний балл по одной категории рубрики.
type CategoryAverage struct {
	Category academic.GradeCategory
	Average
}

// String форматирует строку вида "Exams (40%): 72.5%".
func (c CategoryAverage) String() string {
	weight := strconv.FormatFloat(c.Category.Weight, 'f', -1, 64)
	p, ok := c.Percent()
	if !ok {
		return fmt.Sprintf("%s (%s%%): No grades", c.Category.Name, weight)
	}
	return fmt.Sprintf("%s (%s%%): %.1f%%", c.Category.Name, weight, p)
}

// CategoryBreakdown считает средние по категориям курса. Учитываются только
// валидные работы категории и оценки, ссылающиеся на них. Порядок категорий
// сохраняется.
func CategoryBreakdown(categories []academic.GradeCategory, validItems []academic.GradeItem, grades []academic.Grade) []CategoryAverage {
	itemsByCategory := make(map[academic.ID]map[academic.ID]float64, len(categories))
	for _, item := range validItems {
		if item.CategoryID == nil {
			continue
		}
		m, ok := itemsByCategory[*item.CategoryID]
		if !ok {
			m = make(map[academic.ID]float64)
			itemsByCategory[*item.CategoryID] = m
		}
		m[item.ID] = item.Points()
	}

	out := make([]CategoryAverage, 0, len(categories))
	for _, cat := range categories {
		ca := CategoryAverage{Category: cat}
		items := itemsByCategory[cat.ID]
		for i := range grades {
			g := &grades[i]
			if g.ItemID == nil {
				continue
			}
			if maxPoints, ok := items[*g.ItemID]; ok {
				ca.Earned += g.ScoreValue()
				ca.Possible += maxPoints
			}
		}
		out = append(out, ca)
	}
	return out
}

// ItemIndex строит индекс работ по ID.
func ItemIndex(items []academic.GradeItem) map[academic.ID]*academic.GradeItem {
	idx := make(map[academic.ID]*academic.GradeItem, len(items))
	for i := range items {
		idx[items[i].ID] = &items[i]
	}
	return idx
}
