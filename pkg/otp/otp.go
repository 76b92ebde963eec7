package otp

import (
	"fmt"
	"math/rand/v2"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Generate returns a 6-digit numeric one-time password.
func Generate() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}

// Store is an expiring one-time-password store keyed by recipient. It replaces
// the process-global OTP map the login flow used to rely on: each consumer
// gets its own injected instance, so flows stay independently testable.
type Store struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewStore creates a store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		c:   cache.New(ttl, 2*ttl),
		ttl: ttl,
	}
}

// Put records the code for key, replacing any previous code.
func (s *Store) Put(key, code string) {
	s.c.Set(key, code, s.ttl)
}

// Verify consumes the code for key. A successful verification deletes the
// entry, so a second attempt with the same code fails.
func (s *Store) Verify(key, code string) bool {
	v, ok := s.c.Get(key)
	if !ok {
		return false
	}
	stored, ok := v.(string)
	if !ok || stored != code {
		return false
	}
	s.c.Delete(key)
	return true
}
