package academic

import (
	"fmt"
	"strings"

	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

// IDLength - длина идентификатора записи (12 байт в hex).
const IDLength = 24

// ID - идентификатор записи во внешнем хранилище: 24 hex-символа
// в нижнем регистре.
type ID string

// ParseID проверяет и нормализует внешний идентификатор.
// Возвращает ошибку с видом shared.ErrInvalidIdentifier.
func ParseID(raw string) (ID, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != IDLength {
		return "", invalidID(raw)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", invalidID(raw)
		}
	}
	return ID(s), nil
}

// MustParseID - как ParseID, но паникует. Только для тестов и констант.
func MustParseID(raw string) ID {
	id, err := ParseID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseOptionalID разбирает необязательный идентификатор: пустая строка даёт nil.
func ParseOptionalID(raw string) (*ID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func invalidID(raw string) error {
	return shared.WrapError("academic", "ParseID", shared.ErrInvalidIdentifier,
		fmt.Sprintf("identifier %q is not a %d-character hex token", raw, IDLength), nil)
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// IsZero сообщает, что идентификатор пуст.
func (id ID) IsZero() bool { return id == "" }

// Strings конвертирует срез идентификаторов для драйверов хранилища.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// UniqueIDs убирает дубликаты и пустые значения, сохраняя порядок.
func UniqueIDs(ids []ID) []ID {
	seen := make(map[ID]struct{}, len(ids))
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
