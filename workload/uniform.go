package workload

import (
	"math"
	"math/rand"
)

// Uniform draws every rank with equal probability.
type Uniform struct {
	n   int
	rng *rand.Rand
}

func NewUniform(n int, seed int64) *Uniform {
	return &Uniform{
		n:   n,
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (u *Uniform) Next() int {
	return u.rng.Intn(u.n)
}

func (u *Uniform) N() int {
	return u.n
}

func (u *Uniform) Entropy() float64 {
	return math.Log2(float64(u.n))
}
