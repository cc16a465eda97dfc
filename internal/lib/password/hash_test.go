package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash_HashVerifiesAgainstSource(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "typical password", password: "subscr1ption-p@ss"},
		{name: "short password set after otp reset", password: "abc123"},
		{name: "cyrillic password", password: "пароль-подписки"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, CompareHash(hash, tt.password))
		})
	}
}

func TestGetHash_SaltMakesHashesDistinct(t *testing.T) {
	first, err := GetHash("same-password")
	require.NoError(t, err)
	second, err := GetHash("same-password")
	require.NoError(t, err)

	// bcrypt солит каждый хэш, поэтому повторное хэширование дает другую строку,
	// но оба хэша проверяются исходным паролем.
	assert.NotEqual(t, first, second)
	assert.NoError(t, CompareHash(first, "same-password"))
	assert.NoError(t, CompareHash(second, "same-password"))
}

func TestCompareHash(t *testing.T) {
	hash, err := GetHash("correct-password")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  bool
	}{
		{name: "matching password", hash: hash, password: "correct-password", wantErr: false},
		{name: "mismatching password", hash: hash, password: "wrong-password", wantErr: true},
		{name: "empty password", hash: hash, password: "", wantErr: true},
		{name: "malformed hash", hash: "not-a-bcrypt-hash", password: "correct-password", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(tt.hash, tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
