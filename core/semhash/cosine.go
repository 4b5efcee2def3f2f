package semhash

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Cosine returns the cosine similarity of a and b over their common prefix.
// Entries past min(len(a), len(b)) are ignored. If either prefix is all
// zeros (or empty) the result is 0.
func Cosine(a, b []float32) float32 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	a, b = a[:n], b[:n]

	dot := vek32.Dot(a, b)
	asq := vek32.Dot(a, a)
	bsq := vek32.Dot(b, b)
	if asq == 0 || bsq == 0 {
		return 0
	}

	return dot / float32(math.Sqrt(float64(asq))*math.Sqrt(float64(bsq)))
}
