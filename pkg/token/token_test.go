package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResetCodeShape(t *testing.T) {
	code, err := NewResetCode()
	require.NoError(t, err)
	assert.Len(t, code, ResetCodeLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}
}

func TestNewResetCodeVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := NewResetCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// 20 kali generate harus menghasilkan lebih dari satu nilai
	assert.Greater(t, len(seen), 1)
}

func TestNewResetCodeCoversAlphabet(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 2000; i++ {
		code, err := NewResetCode()
		require.NoError(t, err)
		for _, r := range code {
			seen[r] = true
		}
	}
	// 12000 karakter seragam: setiap karakter alphabet harus pernah muncul
	assert.Len(t, seen, len(alphabet))
}
