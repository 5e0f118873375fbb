package domain

import "sort"

// Chunk is a contiguous slice of source text produced by the chunker.
type Chunk struct {
	Text     string
	Position int
}

// EmbeddedChunk is a stored chunk together with its vector.
// Seq is assigned by the store at insert time and orders ties in nearest-neighbor results.
type EmbeddedChunk struct {
	Seq    int64
	Source string
	Text   string
	Vector []float32
}

// Neighbor is a single nearest-neighbor hit.
type Neighbor struct {
	Seq      int64
	Text     string
	Distance float64
}

// SortNeighbors orders hits by ascending distance, then by insertion sequence.
func SortNeighbors(ns []Neighbor) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].Seq < ns[j].Seq
	})
}
