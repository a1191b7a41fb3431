package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/insight-hub/internal/domain/academic"
	"github.com/eduplatform/insight-hub/internal/domain/grading"
	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

const validPayload = `{
  "risk": "low",
  "shortSummary": "Solid progress",
  "advice": "Practice past exams",
  "focusPoints": ["Recursion", "Complexity"],
  "quiz": [{"question": "What is O(1)?", "options": ["Constant", "Linear"], "correctAnswer": 0, "explanation": "Constant time"}]
}`

func TestParseJudgment_DirectJSON(t *testing.T) {
	j, err := ParseJudgment(validPayload)

	require.NoError(t, err)
	assert.Equal(t, "low", j.RiskValue())
	assert.Equal(t, "Solid progress", j.ShortSummary)
	assert.Equal(t, []string{"Recursion", "Complexity"}, j.FocusPoints)
	require.Len(t, j.Quiz, 1)
	assert.Equal(t, 0, j.Quiz[0].CorrectAnswer)
	assert.Equal(t, []string{"Constant", "Linear"}, j.Quiz[0].Options)
}

func TestParseJudgment_SalvagesEmbeddedObject(t *testing.T) {
	raw := "Sure! Here is the analysis you asked for:\n```json\n" + validPayload + "\n```\nHope this helps."

	j, err := ParseJudgment(raw)

	require.NoError(t, err)
	assert.Equal(t, "Solid progress", j.ShortSummary)
	assert.Len(t, j.Quiz, 1)
}

func TestParseJudgment_FallsBackWithoutBraces(t *testing.T) {
	j, err := ParseJudgment("I cannot produce JSON today, sorry.")

	assert.ErrorIs(t, err, shared.ErrReasoningParse)
	assert.Equal(t, UnparseableJudgment(), j)
	assert.Equal(t, "unknown", j.RiskValue())
	assert.Empty(t, j.FocusPoints)
	assert.NotNil(t, j.Quiz)
}

func TestParseJudgment_FallsBackOnBrokenObject(t *testing.T) {
	j, err := ParseJudgment(`prefix {"risk": "low", "advice": } suffix`)

	assert.Error(t, err)
	assert.Equal(t, UnparseableJudgment(), j)
}

func TestParseJudgment_LenientFields(t *testing.T) {
	raw := `{"risk": null, "shortSummary": "s", "quiz": [{"question": "q", "correctAnswer": "2"}]}`

	j, err := ParseJudgment(raw)

	require.NoError(t, err)
	assert.Nil(t, j.Risk)
	assert.Equal(t, []string{}, j.FocusPoints)
	require.Len(t, j.Quiz, 1)
	assert.Equal(t, 2, j.Quiz[0].CorrectAnswer)
	assert.Equal(t, []string{}, j.Quiz[0].Options)
}

func TestParseJudgment_NonStringRiskIsDropped(t *testing.T) {
	j, err := ParseJudgment(`{"risk": 3, "shortSummary": "s"}`)

	require.NoError(t, err)
	assert.Nil(t, j.Risk)
}

func statsFor(t *testing.T, earned, possible float64) grading.CourseStats {
	t.Helper()
	cat := academic.ID("cat")
	itemID := academic.ID("item")
	items := []academic.GradeItem{{ID: itemID, CategoryID: &cat, MaxPoints: &possible}}
	grades := []academic.Grade{{ItemID: &itemID, Score: &earned}}
	return grading.ComputeStats(items, grades)
}

func TestApplyRiskOverride(t *testing.T) {
	tests := []struct {
		name   string
		earned float64
		want   Risk
	}{
		{name: "40 is high", earned: 40, want: RiskHigh},
		{name: "59.99 is high", earned: 59.99, want: RiskHigh},
		{name: "60 is medium", earned: 60, want: RiskMedium},
		{name: "74.9 is medium", earned: 74.9, want: RiskMedium},
		{name: "75 is low", earned: 75, want: RiskLow},
		{name: "100 is low", earned: 100, want: RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := Judgment{Risk: RiskPtr(RiskLow)}
			if tt.want == RiskLow {
				j.Risk = RiskPtr(RiskHigh)
			}

			got := ApplyRiskOverride(j, statsFor(t, tt.earned, 100))

			require.NotNil(t, got.Risk)
			assert.Equal(t, tt.want, *got.Risk)
		})
	}
}

func TestApplyRiskOverride_UsesUnroundedAverage(t *testing.T) {
	stats := statsFor(t, 59.96, 100)
	require.NotNil(t, stats.Average)
	assert.Equal(t, 60.0, *stats.Average)

	got := ApplyRiskOverride(Judgment{}, stats)

	assert.Equal(t, "high", got.RiskValue())
}

func TestApplyRiskOverride_NoGradesForcesNull(t *testing.T) {
	got := ApplyRiskOverride(Judgment{Risk: RiskPtr(RiskHigh)}, grading.CourseStats{})

	assert.Nil(t, got.Risk)
}

func TestSelectContext(t *testing.T) {
	assert.Equal(t, ContextBoth, SelectContext(true, true, true))
	assert.Equal(t, ContextWithReports, SelectContext(true, false, true))
	assert.Equal(t, ContextWithDocuments, SelectContext(false, true, false))
	assert.Equal(t, ContextGraded, SelectContext(false, false, true))
	assert.Equal(t, ContextNone, SelectContext(false, false, false))

	assert.True(t, ContextBoth.UsesDocuments())
	assert.False(t, ContextWithReports.UsesDocuments())
}

func TestFallbackJudgments(t *testing.T) {
	graded := FallbackJudgment(ContextGraded, "Algebra")
	assert.Nil(t, graded.Risk)
	assert.Equal(t, "Keep up your efforts in Algebra", graded.ShortSummary)
	assert.Equal(t, []string{"Review"}, graded.FocusPoints)

	other := FallbackJudgment(ContextBoth, "")
	assert.Equal(t, "Information unavailable", other.ShortSummary)

	degraded := DegradedJudgment(ContextGraded, "")
	assert.Equal(t, "unknown", degraded.RiskValue())
	assert.Equal(t, "Keep up your efforts in this course", degraded.ShortSummary)
}
