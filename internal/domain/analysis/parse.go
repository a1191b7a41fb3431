package analysis

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

var errNotObject = errors.New("payload is not a JSON object")

// ParseJudgment разбирает сырой ответ модели.
//
// Порядок: весь текст как JSON; затем подстрока от первой '{' до последней
// '}'; затем резервный объект UnparseableJudgment. Возвращаемое суждение
// всегда пригодно к использованию; ошибка (вида shared.ErrReasoningParse)
// только сообщает, что сработал резервный объект.
func ParseJudgment(raw string) (Judgment, error) {
	j, err := decodeObject(raw)
	if err == nil {
		return j, nil
	}

	if salvaged, ok := braceSpan(raw); ok {
		if j, serr := decodeObject(salvaged); serr == nil {
			return j, nil
		}
	}

	return UnparseableJudgment(), shared.WrapError("reasoning", "Parse", shared.ErrReasoningParse,
		"falling back to canned judgment", err)
}

func decodeObject(s string) (Judgment, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return Judgment{}, errNotObject
	}
	var w wireJudgment
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return Judgment{}, err
	}
	return w.toJudgment(), nil
}

// braceSpan возвращает жадный фрагмент от первой '{' до последней '}'.
func braceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
