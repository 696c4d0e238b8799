// Package backoff computes retry delays for failed event-processing tasks.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Calculator computes exponential backoff with one second of uniform jitter.
// Delay = Base * 2^attempt + U[0, 1s).
type Calculator struct {
	Base time.Duration

	// jitter returns a value in [0, 1). Replaced in tests.
	jitter func() float64
}

// NewCalculator creates a calculator with the given base delay
func NewCalculator(base time.Duration) *Calculator {
	return &Calculator{Base: base, jitter: rand.Float64}
}

// Delay returns the countdown before retry attempt n (n >= 1)
func (c *Calculator) Delay(attempt int) time.Duration {
	exp := float64(c.Base) * math.Pow(2, float64(attempt))
	return time.Duration(exp + c.jitter()*float64(time.Second))
}
