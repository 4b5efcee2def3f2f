// Package semhash turns text into fixed-size hashed character n-gram vectors
// and compares them with cosine similarity.
package semhash

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/viterin/vek/vek32"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Dimension is the length of every vector produced by HashNgrams.
	Dimension = 256

	// NgramSize is the width, in bytes, of the sliding window.
	NgramSize = 4

	// FNV-1a 32-bit offset basis and prime.
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

// HashNgrams lowercases input, hashes every 4-byte window into one of
// Dimension buckets and returns the L2-normalized bucket counts.
// Inputs shorter than NgramSize bytes yield an all-zero vector.
//
// Lowercasing uses full Unicode case mapping, so a word-final capital sigma
// becomes final sigma and dotted capital I becomes i plus a combining dot.
// Bytes that are not valid UTF-8 are hashed unchanged.
func HashNgrams(input string) []float32 {
	vec := make([]float32, Dimension)
	lower := lowercase(input)

	for i := 0; i+NgramSize <= len(lower); i++ {
		vec[bucket(lower[i:i+NgramSize])] += 1.0
	}

	normalize(vec)
	return vec
}

// lowercase applies full Unicode lowercasing to each valid UTF-8 run of s
// and copies invalid bytes through.
func lowercase(s string) string {
	caser := cases.Lower(language.Und)
	if utf8.ValidString(s) {
		return caser.String(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		n := 0
		for n < len(s) {
			r, size := utf8.DecodeRuneInString(s[n:])
			if r == utf8.RuneError && size == 1 {
				break
			}
			n += size
		}
		if n > 0 {
			b.WriteString(caser.String(s[:n]))
		}
		if n < len(s) {
			b.WriteByte(s[n])
			n++
		}
		s = s[n:]
	}
	return b.String()
}

// bucket returns the FNV-1a hash of gram reduced modulo Dimension.
// uint32 arithmetic wraps modulo 2^32.
func bucket(gram string) int {
	hash := fnvOffset32
	for i := 0; i < len(gram); i++ {
		hash ^= uint32(gram[i])
		hash *= fnvPrime32
	}
	return int(hash % Dimension)
}

func normalize(vec []float32) {
	norm := math.Sqrt(float64(vek32.Dot(vec, vec)))
	if norm > 0 {
		vek32.MulNumber_Inplace(vec, float32(1.0/norm))
	}
}
