package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
)

func f(v float64) *float64 { return &v }

func id(s string) *academic.ID {
	v := academic.ID(s)
	return &v
}

func item(itemID, categoryID string, maxPoints float64) academic.GradeItem {
	return academic.GradeItem{ID: academic.ID(itemID), CourseID: "c1", CategoryID: id(categoryID), MaxPoints: f(maxPoints)}
}

func grade(itemID string, score float64) academic.Grade {
	return academic.Grade{ID: academic.ID("g-" + itemID), CourseID: "c1", StudentID: "s1", ItemID: id(itemID), Score: f(score)}
}

var categories = []academic.GradeCategory{
	{ID: "cat-exam", CourseID: "c1", Name: "Exams", Weight: 60},
	{ID: "cat-hw", CourseID: "c1", Name: "Homework", Weight: 40},
}

func TestValidItems(t *testing.T) {
	items := []academic.GradeItem{
		item("i1", "cat-exam", 50),
		item("i2", "cat-missing", 50),
		item("i3", "cat-hw", 0),
		{ID: "i4", CourseID: "c1", MaxPoints: f(10)},
		{ID: "i5", CourseID: "c1", CategoryID: id("cat-hw")},
		item("i6", "cat-hw", 20),
	}

	valid := ValidItems(items, categories)

	require.Len(t, valid, 2)
	assert.Equal(t, academic.ID("i1"), valid[0].ID)
	assert.Equal(t, academic.ID("i6"), valid[1].ID)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		items      []academic.GradeItem
		grades     []academic.Grade
		wantActive bool
		notStarted bool
	}{
		{
			name:       "no valid items is not started",
			items:      nil,
			wantActive: true,
			notStarted: true,
		},
		{
			name:       "exactly 0.99 evaluated is excluded",
			items:      []academic.GradeItem{item("a", "cat-exam", 99), item("b", "cat-hw", 1)},
			grades:     []academic.Grade{grade("a", 80)},
			wantActive: false,
		},
		{
			name:       "0.989 evaluated is included",
			items:      []academic.GradeItem{item("a", "cat-exam", 98.9), item("b", "cat-hw", 1.1)},
			grades:     []academic.Grade{grade("a", 80)},
			wantActive: true,
		},
		{
			name:       "0.995 evaluated is excluded",
			items:      []academic.GradeItem{item("a", "cat-exam", 199), item("b", "cat-hw", 1)},
			grades:     []academic.Grade{grade("a", 150)},
			wantActive: false,
		},
		{
			name:       "fully graded is excluded",
			items:      []academic.GradeItem{item("a", "cat-exam", 50), item("b", "cat-hw", 50)},
			grades:     []academic.Grade{grade("a", 40), grade("b", 30)},
			wantActive: false,
		},
		{
			name:       "nothing graded is included",
			items:      []academic.GradeItem{item("a", "cat-exam", 50)},
			wantActive: true,
		},
		{
			name:       "grades for unknown items do not count",
			items:      []academic.GradeItem{item("a", "cat-exam", 50)},
			grades:     []academic.Grade{grade("zzz", 50)},
			wantActive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.items, tt.grades)
			assert.Equal(t, tt.wantActive, got.Active)
			assert.Equal(t, tt.notStarted, got.NotStarted)
		})
	}
}

func TestComputeStats_CompletionWeightedByPoints(t *testing.T) {
	items := []academic.GradeItem{item("small", "cat-hw", 10), item("big", "cat-exam", 90)}
	grades := []academic.Grade{grade("small", 7)}

	s := ComputeStats(items, grades)

	assert.Equal(t, 10.0, s.Completion)
	require.NotNil(t, s.Average)
	assert.Equal(t, 70.0, *s.Average)
	assert.True(t, s.HasGrades)
	assert.Equal(t, 100.0, s.TotalPoints)
	assert.Equal(t, 10.0, s.EvaluatedPoints)
	assert.Equal(t, 7.0, s.EarnedPoints)
}

func TestComputeStats_NullAverageWithoutMatchingGrades(t *testing.T) {
	items := []academic.GradeItem{item("a", "cat-hw", 10), item("b", "cat-exam", 90)}
	grades := []academic.Grade{grade("not-a-valid-item", 5)}

	s := ComputeStats(items, grades)

	assert.Nil(t, s.Average)
	assert.False(t, s.HasGrades)
	assert.Equal(t, 0.0, s.Completion)
	_, ok := s.RawAverage()
	assert.False(t, ok)
}

func TestComputeStats_NoValidItems(t *testing.T) {
	s := ComputeStats(nil, []academic.Grade{grade("a", 5)})

	assert.Nil(t, s.Average)
	assert.Equal(t, 0.0, s.Completion)
}

func TestComputeStats_FirstGradeWinsAndRounding(t *testing.T) {
	items := []academic.GradeItem{item("a", "cat-hw", 3)}
	grades := []academic.Grade{grade("a", 2), grade("a", 3)}

	s := ComputeStats(items, grades)

	require.NotNil(t, s.Average)
	assert.Equal(t, 66.7, *s.Average)
	raw, ok := s.RawAverage()
	require.True(t, ok)
	assert.InDelta(t, 66.6666, raw, 0.001)
}

func TestOverallAverage_PossiblePointsFallbacks(t *testing.T) {
	items := []academic.GradeItem{item("a", "cat-hw", 20)}
	grades := []academic.Grade{
		grade("a", 10),
		{ItemID: id("unknown"), Score: f(5), MaxPoints: f(10)},
		{ItemID: id("unknown-2"), Score: f(50)},
		{ItemID: id("unknown-3")},
	}

	avg := OverallAverage(grades, ItemIndex(items))

	assert.Equal(t, 65.0, avg.Earned)
	assert.Equal(t, 230.0, avg.Possible)
	assert.Equal(t, "28.3%", avg.String())
}

func TestOverallAverage_NoGrades(t *testing.T) {
	avg := OverallAverage(nil, nil)

	_, ok := avg.Percent()
	assert.False(t, ok)
	assert.Equal(t, "No grades yet", avg.String())
}

func TestCategoryBreakdown(t *testing.T) {
	items := []academic.GradeItem{
		item("e1", "cat-exam", 100),
		item("h1", "cat-hw", 10),
		item("h2", "cat-hw", 10),
	}
	valid := ValidItems(items, categories)
	grades := []academic.Grade{grade("h1", 9), grade("h2", 6)}

	breakdown := CategoryBreakdown(categories, valid, grades)

	require.Len(t, breakdown, 2)
	assert.Equal(t, "Exams (60%): No grades", breakdown[0].String())
	assert.Equal(t, "Homework (40%): 75.0%", breakdown[1].String())
}

func TestCategoryBreakdown_FractionalWeight(t *testing.T) {
	cats := []academic.GradeCategory{{ID: "cat-lab", Name: "Labs", Weight: 12.5}}
	valid := []academic.GradeItem{item("l1", "cat-lab", 4)}

	breakdown := CategoryBreakdown(cats, valid, []academic.Grade{grade("l1", 1)})

	require.Len(t, breakdown, 1)
	assert.Equal(t, "Labs (12.5%): 25.0%", breakdown[0].String())
}
