package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher_CostRange(t *testing.T) {
	tests := []struct {
		name    string
		cost    int
		wantErr bool
	}{
		{"min", bcrypt.MinCost, false},
		{"below min", bcrypt.MinCost - 1, true},
		{"above max", bcrypt.MaxCost + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewBcryptHasher(tt.cost)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.cost, h.Cost())
		})
	}
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	require.NotEqual(t, "secret123", hash)
	require.True(t, strings.HasPrefix(hash, "$2a$04$"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)

	require.NoError(t, h.Compare(hash, "secret123"))
	require.ErrorIs(t, h.Compare(hash, "secret124"), ErrPasswordMismatch)
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestBcryptHasher_CorruptHash(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	err = h.Compare("garbage", "secret123")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = h.Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)

	// 40 runes, 80 bytes.
	_, err = h.Hash(strings.Repeat("é", 40))
	require.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := h.Hash(strings.Repeat("é", 36))
	require.NoError(t, err)
	require.NoError(t, h.Compare(hash, strings.Repeat("é", 36)))
}

func TestBcryptHasher_CompareTooLongIsMismatch(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	pw := strings.Repeat("x", MaxPasswordBytes)
	hash, err := h.Hash(pw)
	require.NoError(t, err)

	require.ErrorIs(t, h.Compare(hash, pw+"x"), ErrPasswordMismatch)
	require.ErrorIs(t, h.Compare(hash, strings.Repeat("é", 40)), ErrPasswordMismatch)
}

func TestBcryptHasher_CompareDummy(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	require.NotPanics(t, func() { h.CompareDummy("anything") })
}
