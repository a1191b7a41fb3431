package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eduplatform/insight-hub/internal/domain/analysis"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMPTS
// Один шаблон на тип контекста. Все шаблоны требуют один и тот же JSON.
// ══════════════════════════════════════════════════════════════════════════════

// MaxPromptDocumentChars - лимит текста документов внутри промпта.
const MaxPromptDocumentChars = 3000

// CourseSummary - компактное описание курса, которое видит модель.
type CourseSummary struct {
	Title       string   `json:"title"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Average     *float64 `json:"average"`
	Completion  float64  `json:"completion"`
	HasGrades   bool     `json:"hasGrades"`
}

const judgmentShape = `{
  "risk": %s,
  "shortSummary": "%s",
  "advice": "%s",
  "focusPoints": ["...", "...", "..."],
  "quiz": [
    {
      "question": "%s",
      "options": ["A", "B", "C"],
      "correctAnswer": 0,
      "explanation": "short explanation"
    }
  ]
}`

const promptHeader = "You are an expert teaching assistant. %s\n\nReturn EXACTLY this JSON, with no markdown:\n\n%s\n\nCourse: %s\n"

// BuildAnalysisPrompt собирает промпт для выбранного контекста.
func BuildAnalysisPrompt(summary CourseSummary, sel SelectedContext) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal course summary: %w", err)
	}
	course := string(data)
	docs := strings.Join(sel.DocumentNames, ", ")
	content := truncateRunes(sel.DocumentContent, MaxPromptDocumentChars)

	var b strings.Builder
	switch sel.Type {
	case analysis.ContextGraded:
		fmt.Fprintf(&b, promptHeader, "Analyse this course from the student's grades.",
			fmt.Sprintf(judgmentShape, `"high" | "medium" | "low"`,
				"one sentence on performance, max 15 words",
				"actionable advice to improve the grades",
				"question about the course content"),
			course)
		b.WriteString("\nRules: average < 60% -> \"high\", 60-75% -> \"medium\", > 75% -> \"low\". Generate 3 relevant quiz questions.\n")

	case analysis.ContextWithReports:
		fmt.Fprintf(&b, promptHeader, "Analyse this course using the teacher's reports.",
			fmt.Sprintf(judgmentShape, "null",
				"one sentence on what the teacher expects, max 15 words",
				"advice based on the teacher's expectations",
				"general question on the course subject"),
			course)
		fmt.Fprintf(&b, "\nTeacher reports: %s\n", sel.ReportsText)
		b.WriteString("\nRules:\n1. Ignore whether grades exist when giving advice.\n2. Base the advice ONLY on the reports.\n3. Generate 5 quiz questions on the general course subject.\n")

	case analysis.ContextWithDocuments:
		fmt.Fprintf(&b, promptHeader, "Analyse this course using the available documents.",
			fmt.Sprintf(judgmentShape, "null",
				"summary based on the document content, max 15 words",
				"3 PRECISE pieces of advice based on the actual document content",
				"question based on the document content"),
			course)
		fmt.Fprintf(&b, "\nAvailable documents: %s\n\nExtracted document content: %s\n", docs, content)
		b.WriteString("\nRules:\n1. Ignore whether grades exist when giving advice.\n2. Base the advice ONLY on the document content.\n3. Generate 5 precise questions from the extracted content.\n4. Be SPECIFIC to the content, avoid generic advice.\n")

	case analysis.ContextBoth:
		fmt.Fprintf(&b, promptHeader, "Analyse this course using the teacher's reports AND the documents.",
			fmt.Sprintf(judgmentShape, "null",
				"summary combining documents and teacher feedback, max 15 words",
				"3 precise pieces of advice combining document content AND teacher expectations",
				"question based on the actual documents or reports"),
			course)
		fmt.Fprintf(&b, "\nTeacher reports: %s\n\nDocuments: %s\n\nExtracted document content: %s\n", sel.ReportsText, docs, content)
		b.WriteString("\nRules:\n1. Ignore whether grades exist when giving advice.\n2. Use both the document content AND the teacher's comments.\n3. Advice must COMBINE both sources.\n4. Generate 5 questions from the REAL content.\n5. Be specific, not generic.\n")

	default:
		fmt.Fprintf(&b, promptHeader, "Analyse this course.",
			fmt.Sprintf(judgmentShape, "null",
				"summary of the likely course subject",
				"advice specific to the course SUBJECT (e.g. maths -> exercises, programming -> write code)",
				"general knowledge question on the course SUBJECT"),
			course)
	}
	return b.String(), nil
}
