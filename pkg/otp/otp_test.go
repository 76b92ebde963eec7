package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestStoreVerifyConsumesCode(t *testing.T) {
	s := NewStore(time.Minute)
	s.Put("a@example.com", "123456")

	assert.False(t, s.Verify("a@example.com", "654321"))
	assert.True(t, s.Verify("a@example.com", "123456"))
	// Consumed on success: a replay fails.
	assert.False(t, s.Verify("a@example.com", "123456"))
}

func TestStorePutReplacesCode(t *testing.T) {
	s := NewStore(time.Minute)
	s.Put("a@example.com", "111111")
	s.Put("a@example.com", "222222")

	assert.False(t, s.Verify("a@example.com", "111111"))
	assert.True(t, s.Verify("a@example.com", "222222"))
}

func TestStoreUnknownKey(t *testing.T) {
	s := NewStore(time.Minute)
	assert.False(t, s.Verify("nobody@example.com", "123456"))
}
