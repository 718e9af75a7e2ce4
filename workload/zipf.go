package workload

import (
	"math"
	"math/rand"
)

// Zipf draws ranks from a Zipf distribution with weights 1/(i+b)^a. The
// weights are shuffled once at construction so the hot ranks are not
// clustered at the low end of the key space.
type Zipf struct {
	n       int
	weights []float64
	cdf     []float64
	rng     *rand.Rand
}

func NewZipf(n int, a, b float64, seed int64) *Zipf {
	rng := rand.New(rand.NewSource(seed))

	weights := make([]float64, n)
	var sum float64
	for i := 1; i <= n; i++ {
		weights[i-1] = 1.0 / math.Pow(float64(i)+b, a)
		sum += weights[i-1]
	}
	for i := range weights {
		weights[i] /= sum
	}
	rng.Shuffle(len(weights), func(i, j int) {
		weights[i], weights[j] = weights[j], weights[i]
	})

	cdf := make([]float64, n)
	cdf[0] = weights[0]
	for i := 1; i < n; i++ {
		cdf[i] = cdf[i-1] + weights[i]
	}

	return &Zipf{
		n:       n,
		weights: weights,
		cdf:     cdf,
		rng:     rng,
	}
}

// Next draws one rank by binary-searching the CDF.
func (z *Zipf) Next() int {
	r := z.rng.Float64()
	lo, hi := 0, z.n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if r > z.cdf[mid] {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (z *Zipf) N() int {
	return z.n
}

// Weight returns the probability of rank i.
func (z *Zipf) Weight(i int) float64 {
	return z.weights[i]
}

func (z *Zipf) Entropy() float64 {
	h := 0.0
	for _, p := range z.weights {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}
