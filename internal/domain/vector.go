package domain

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Metric selects the distance function used for nearest-neighbor lookup.
type Metric string

const (
	// MetricL2 is Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is cosine distance (1 - cosine similarity).
	MetricCosine Metric = "cosine"
	// MetricIP is inner-product distance (1 - dot product).
	MetricIP Metric = "ip"
)

// ParseMetric maps a config value to a Metric. Empty means L2.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricL2:
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	case MetricIP:
		return MetricIP, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// Distance returns the distance between a and b under m. Smaller is closer.
// Callers must ensure len(a) == len(b).
func (m Metric) Distance(a, b []float32) float64 {
	switch m {
	case MetricCosine:
		var dot, na, nb float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			na += float64(a[i]) * float64(a[i])
			nb += float64(b[i]) * float64(b[i])
		}
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	case MetricIP:
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return 1 - dot
	default:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}

// VectorToBytes encodes a vector as little-endian float32 bytes.
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// BytesToVector decodes little-endian float32 bytes.
func BytesToVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob: len=%d (not multiple of 4)", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
