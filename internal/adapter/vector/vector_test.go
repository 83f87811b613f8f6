package vector

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{[]float32{1, 0}, []float32{1, 0, 0}, 0},
		{[]float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Cosine(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTopK(t *testing.T) {
	vectors := [][]float32{{0, 1}, {1, 0}, {1, 1}, {1, 0}}

	hits := TopK([]float32{1, 0}, vectors, 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	// Indexes 1 and 3 tie; insertion order wins.
	if hits[0].Index != 1 || hits[1].Index != 3 || hits[2].Index != 2 {
		t.Errorf("unexpected order %+v", hits)
	}

	if got := TopK([]float32{1, 0}, vectors, 10); len(got) != 4 {
		t.Errorf("k larger than corpus should return everything, got %d", len(got))
	}
	if got := TopK([]float32{1, 0}, nil, 3); got != nil {
		t.Errorf("empty corpus should return nil, got %v", got)
	}
}
