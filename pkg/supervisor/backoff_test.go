package supervisor

import (
	"testing"
	"time"
)

func TestBackoffCeilingGrowsAndCapsAtMax(t *testing.T) {
	b := Backoff{Min: time.Second, Max: 10 * time.Second}

	got := []time.Duration{b.Next(), b.Next(), b.Next(), b.Next(), b.Next()}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("attempt %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBackoffRandomFactorStaysWithinBounds(t *testing.T) {
	b := Backoff{Min: time.Second, Max: time.Minute, RandomFactor: 0.5}
	for i := 0; i < 100; i++ {
		d := b.Next()
		if d < 0 {
			t.Fatalf("negative backoff: %v", d)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := Backoff{Min: time.Second, Max: time.Minute}
	b.Next()
	b.Next()
	if b.Attempts() != 2 {
		t.Fatalf("expected 2 attempts, got %d", b.Attempts())
	}
	b.Reset()
	if b.Attempts() != 0 {
		t.Fatalf("expected reset to zero attempts, got %d", b.Attempts())
	}
}
