package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	HashCost = 4
	h, err := HashPassword("Secret#123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret#123", h)
	assert.True(t, CheckPassword("Secret#123", h))
	assert.False(t, CheckPassword("secret#123", h))
}

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Secret#123":         true,
		"Ab!defgh":           true,
		"secret#123":         false, // 无大写
		"Secret1234":         false, // 无特殊字符
		"S#1":                false, // 太短
		"Secret#1234567890x": false, // 太长
	}
	for pw, want := range cases {
		assert.Equal(t, want, StrongPassword(pw), pw)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
