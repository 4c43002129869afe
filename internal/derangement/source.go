package derangement

import "math/rand/v2"

// Source produces uniform deviates in [0, n).
type Source interface {
	IntN(n int) int
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(n int) int

func (f SourceFunc) IntN(n int) int { return f(n) }

// DefaultSource returns a Source backed by the math/rand/v2 global generator,
// which is safe for concurrent use.
func DefaultSource() Source {
	return SourceFunc(rand.IntN)
}
