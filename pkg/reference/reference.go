package reference

import (
	"fmt"
	"math/rand/v2"

	"github.com/glowclinic/booking-api/pkg/clock"
)

// Prefixes used across the platform.
const (
	BookingPrefix = "GLW"
	OrderPrefix   = "ORD"
)

// Generator produces human-readable references of the form
// <prefix><YYYYMMDD><NNNN>, dated in the clinic timezone. References are not
// checked for collisions here; callers rely on the database UNIQUE constraint
// and retry on conflict.
type Generator struct {
	clk  clock.Clock
	intn func(n int) int
}

func NewGenerator(clk clock.Clock) *Generator {
	return &Generator{clk: clk, intn: rand.IntN}
}

// NewGeneratorWithRand allows tests to pin the random suffix.
func NewGeneratorWithRand(clk clock.Clock, intn func(n int) int) *Generator {
	return &Generator{clk: clk, intn: intn}
}

// Generate returns a new reference with a 4-digit suffix in [1000, 9999].
func (g *Generator) Generate(prefix string) string {
	now := g.clk.Now()
	suffix := 1000 + g.intn(9000)
	return fmt.Sprintf("%s%s%d", prefix, now.Format("20060102"), suffix)
}
