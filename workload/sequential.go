package workload

import "math"

// Sequential cycles through the ranks 0..n-1 in order.
type Sequential struct {
	n   int
	pos int
}

func NewSequential(n int) *Sequential {
	return &Sequential{n: n}
}

func (s *Sequential) Next() int {
	rank := s.pos % s.n
	s.pos++
	return rank
}

func (s *Sequential) N() int {
	return s.n
}

func (s *Sequential) Entropy() float64 {
	return math.Log2(float64(s.n))
}
