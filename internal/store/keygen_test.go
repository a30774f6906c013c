package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewKeeperCode(t *testing.T) {
	year := time.Now().Format("06")

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewKeeperCode()

		assert.Len(t, code, 9)
		assert.True(t, strings.HasPrefix(code, "SK"+year), "code %q", code)
		for _, r := range code[4:] {
			assert.Contains(t, keeperCodeChars, string(r))
		}
		seen[code] = true
	}
	// 36^5 combinations: 100 draws colliding would mean a broken generator
	assert.Greater(t, len(seen), 95)
}

func TestNewAPIKey(t *testing.T) {
	key := NewAPIKey()

	assert.Len(t, key, 64)
	assert.NotContains(t, key, "-")
	assert.NotEqual(t, key, NewAPIKey())
}

func TestNewActivationCode(t *testing.T) {
	code := NewActivationCode()

	assert.NotEmpty(t, code)
	// single-use codes must never repeat across issues
	assert.NotEqual(t, code, NewActivationCode())
}
