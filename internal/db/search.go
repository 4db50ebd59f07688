package db

import (
	"encoding/binary"
	"math"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // attribute name used in the [KNN k @field $BLOB] clause
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a KNN search.
// Distance is the raw __vector_score reported by the engine; for a COSINE
// index that is 1 - cos(a, b), in [0, 2].
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}

// VectorToBytes encodes a vector as little-endian FLOAT32, the layout of the
// HASH vector field and of the KNN query blob.
func VectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
