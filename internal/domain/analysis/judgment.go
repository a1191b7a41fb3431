// Package analysis описывает результат внешнего шага рассуждения по курсу:
// структуру суждения, разбор ответа модели, детерминированное
// переопределение риска и резервные ответы.
package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Risk - уровень риска по курсу.
type Risk string

const (
	RiskHigh    Risk = "high"
	RiskMedium  Risk = "medium"
	RiskLow     Risk = "low"
	RiskUnknown Risk = "unknown"
)

// RiskPtr возвращает указатель на значение риска.
func RiskPtr(r Risk) *Risk { return &r }

// QuizQuestion - вопрос квиза с вариантами ответа.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Judgment - структурированное суждение по курсу.
// Risk == nil означает, что риск не определён (например, нет оценок).
type Judgment struct {
	Risk         *Risk          `json:"risk"`
	ShortSummary string         `json:"shortSummary"`
	Advice       string         `json:"advice"`
	FocusPoints  []string       `json:"focusPoints"`
	Quiz         []QuizQuestion `json:"quiz"`
}

// RiskValue возвращает риск строкой ("" для nil).
func (j Judgment) RiskValue() string {
	if j.Risk == nil {
		return ""
	}
	return string(*j.Risk)
}

// normalize гарантирует пустые списки вместо null в ответе.
func (j Judgment) normalize() Judgment {
	if j.FocusPoints == nil {
		j.FocusPoints = []string{}
	}
	if j.Quiz == nil {
		j.Quiz = []QuizQuestion{}
	}
	for i := range j.Quiz {
		if j.Quiz[i].Options == nil {
			j.Quiz[i].Options = []string{}
		}
	}
	return j
}

// ─────────────────────────────────────────────────────────────────────────────
// Wire format
// Модель иногда отдаёт риск не строкой, а correctAnswer строкой "1".
// ─────────────────────────────────────────────────────────────────────────────

type wireJudgment struct {
	Risk         json.RawMessage `json:"risk"`
	ShortSummary string          `json:"shortSummary"`
	Advice       string          `json:"advice"`
	FocusPoints  []string        `json:"focusPoints"`
	Quiz         []wireQuiz      `json:"quiz"`
}

type wireQuiz struct {
	Question      string      `json:"question"`
	Options       []string    `json:"options"`
	CorrectAnswer flexibleInt `json:"correctAnswer"`
	Explanation   string      `json:"explanation"`
}

type flexibleInt int

func (n *flexibleInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = flexibleInt(v)
	return nil
}

func (w wireJudgment) toJudgment() Judgment {
	j := Judgment{
		ShortSummary: w.ShortSummary,
		Advice:       w.Advice,
		FocusPoints:  w.FocusPoints,
		Quiz:         make([]QuizQuestion, 0, len(w.Quiz)),
	}

	var risk string
	if len(w.Risk) > 0 && json.Unmarshal(w.Risk, &risk) == nil && risk != "" {
		j.Risk = RiskPtr(Risk(strings.ToLower(risk)))
	}

	for _, q := range w.Quiz {
		j.Quiz = append(j.Quiz, QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: int(q.CorrectAnswer),
			Explanation:   q.Explanation,
		})
	}
	return j.normalize()
}
