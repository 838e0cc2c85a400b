package classifier

import (
	"context"
	"errors"
	"image"
	"math/rand/v2"
	"sync"
)

// ErrNoImage is returned when a nil image is submitted.
var ErrNoImage = errors.New("image is required")

// Fake claims a cat is present half of the time, whatever the threshold.
type Fake struct {
	// rng is the source of answers.
	rng *rand.Rand
	// mu serializes access to rng.
	mu sync.Mutex
}

// NewFake creates a fake classifier with a fixed seed so runs are repeatable.
func NewFake(seed uint64) *Fake {
	return &Fake{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // Not used for security.
	}
}

// ContainsCat returns a random answer.
func (f *Fake) ContainsCat(ctx context.Context, img image.Image, _ float32) (bool, error) {
	if img == nil {
		return false, ErrNoImage
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.rng.IntN(2) == 1, nil
}
