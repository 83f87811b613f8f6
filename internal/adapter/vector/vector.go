// Package vector holds the brute-force nearest-neighbour search shared by
// the embedded corpus stores.
package vector

import (
	"math"
	"sort"
)

type Hit struct {
	Index int
	Score float64
}

// TopK scores every vector against query and returns the best k, highest
// score first. Ties keep insertion order.
func TopK(query []float32, vectors [][]float32, k int) []Hit {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}

	hits := make([]Hit, len(vectors))
	for i, v := range vectors {
		hits[i] = Hit{Index: i, Score: Cosine(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// Cosine returns 0 for vectors of different length or zero norm.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
