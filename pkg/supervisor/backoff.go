package supervisor

import (
	"math/rand"
	"time"
)

// Backoff computes min(maxBackoff, minBackoff*2^attempt), scaled by a
// uniform jitter factor in [1-randomFactor, 1+randomFactor]: symmetric
// jitter around the ceiling rather than full jitter in [0, ceiling]. The
// attempt counter only grows; the Supervisor never calls Reset.
type Backoff struct {
	Min          time.Duration
	Max          time.Duration
	RandomFactor float64

	attempt int
}

// Next advances the attempt counter and returns the next delay.
func (b *Backoff) Next() time.Duration {
	exp := b.attempt
	if exp > 32 {
		exp = 32
	}
	ceiling := b.Min << uint(exp)
	if ceiling <= 0 || ceiling > b.Max {
		ceiling = b.Max
	}
	b.attempt++

	if b.RandomFactor <= 0 || ceiling <= 0 {
		return ceiling
	}
	jitter := 1 + b.RandomFactor*(2*rand.Float64()-1)
	return time.Duration(float64(ceiling) * jitter)
}

// Attempts reports how many times Next has been called since the last
// Reset.
func (b *Backoff) Attempts() int { return b.attempt }

// Reset restores the attempt counter to zero.
func (b *Backoff) Reset() { b.attempt = 0 }
