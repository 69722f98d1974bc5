package game

import "math/rand"

// RandSource supplies the chance used for shuffles and priority coin
// flips. It is injected at engine construction so tests can force
// deterministic outcomes. Cryptographic quality is not required.
type RandSource interface {
	// CoinFlip returns true or false with equal probability.
	CoinFlip() bool
	// Shuffle randomizes n elements using the swap function.
	Shuffle(n int, swap func(i, j int))
}

type mathRand struct {
	r *rand.Rand
}

// NewRandSource returns a RandSource backed by math/rand with the given
// seed.
func NewRandSource(seed int64) RandSource {
	return &mathRand{r: rand.New(rand.NewSource(seed))}
}

func (m *mathRand) CoinFlip() bool {
	return m.r.Intn(2) == 0
}

func (m *mathRand) Shuffle(n int, swap func(i, j int)) {
	m.r.Shuffle(n, swap)
}
