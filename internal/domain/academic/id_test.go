package academic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/insight-hub/internal/domain/shared"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ID
		wantErr bool
	}{
		{name: "lowercase hex", raw: "65a1b2c3d4e5f60718293a4b", want: "65a1b2c3d4e5f60718293a4b"},
		{name: "uppercase normalized", raw: "65A1B2C3D4E5F60718293A4B", want: "65a1b2c3d4e5f60718293a4b"},
		{name: "surrounding spaces", raw: "  65a1b2c3d4e5f60718293a4b ", want: "65a1b2c3d4e5f60718293a4b"},
		{name: "empty", raw: "", wantErr: true},
		{name: "too short", raw: "65a1b2c3", wantErr: true},
		{name: "too long", raw: "65a1b2c3d4e5f60718293a4b00", wantErr: true},
		{name: "non hex", raw: "65a1b2c3d4e5f60718293a4z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrInvalidIdentifier))
				assert.True(t, errors.Is(err, shared.ErrInvalidID))
				assert.True(t, shared.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOptionalID(t *testing.T) {
	id, err := ParseOptionalID("")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = ParseOptionalID("65a1b2c3d4e5f60718293a4b")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, ID("65a1b2c3d4e5f60718293a4b"), *id)

	_, err = ParseOptionalID("nope")
	assert.ErrorIs(t, err, shared.ErrInvalidIdentifier)
}

func TestUniqueIDs(t *testing.T) {
	got := UniqueIDs([]ID{"b", "a", "", "b", "c", "a"})
	assert.Equal(t, []ID{"b", "a", "c"}, got)
}
