// Package suggest proposes existing frame names that resemble a frame key
// the locator could not resolve.
package suggest

import (
	"hash/fnv"
	"math"

	"design-localizer/internal/textutil"
)

// Dimensions is the length of every name vector.
const Dimensions = 64

// Vectorize embeds a frame name as hashed character trigrams, L2
// normalized, so cosine similarity tracks shared spelling.
func Vectorize(name string) []float32 {
	vec := make([]float32, Dimensions)
	runes := []rune(" " + textutil.Fold(textutil.Normalize(name)) + " ")
	if len(runes) < 3 {
		return vec
	}

	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%Dimensions]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Cosine returns the cosine similarity of two normalized vectors.
func Cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
