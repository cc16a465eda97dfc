package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_LengthAndCharset(t *testing.T) {
	for range 100 {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "code must contain only digits, got %q", code)
		}
	}
}

func TestGenerateCode_NotConstant(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	// 50 одинаковых кодов подряд — признак сломанного источника случайности.
	assert.Greater(t, len(seen), 1)
}
