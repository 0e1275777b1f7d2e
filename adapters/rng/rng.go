package rng

import (
	"math/rand"
	"sync"
	"time"

	"futureweaver/ports"
)

// SeededAdapter implements ports.RNGPort over a single seeded source.
// math/rand.Rand is not safe for concurrent use, so draws are serialized.
type SeededAdapter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

var _ ports.RNGPort = (*SeededAdapter)(nil)

// NewSeeded creates an adapter seeded with seed. A zero seed uses the wall clock.
func NewSeeded(seed int64) *SeededAdapter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeededAdapter{rnd: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random integer in [0, n)
func (a *SeededAdapter) Intn(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rnd.Intn(n)
}

// Sequence replays a fixed list of draws, wrapping around. Each draw is taken modulo n.
type Sequence struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSequence creates a replaying RNG
func NewSequence(values ...int) *Sequence {
	if len(values) == 0 {
		values = []int{0}
	}
	return &Sequence{values: values}
}

// Intn returns the next scripted value reduced into [0, n)
func (s *Sequence) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.pos%len(s.values)]
	s.pos++
	if v < 0 {
		v = -v
	}
	return v % n
}
