// Package stats implements the numeric primitives behind the insight engine:
// descriptive summaries, least-squares trend fitting, Pearson correlation,
// leave-one-out outlier flagging, and a deterministic k-means.
//
// All functions are pure and operate on plain float slices. Callers are
// responsible for extracting and coercing column values; CoerceFloat is the
// shared coercion rule.
package stats

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// Summary holds descriptive statistics for one numeric series.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes descriptive statistics over values. It returns ok=false
// for an empty series. For a single value the standard deviation is 0, not
// undefined; for n >= 2 the sample standard deviation is used.
func Describe(values []float64) (Summary, bool) {
	n := len(values)
	if n == 0 {
		return Summary{}, false
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	stdDev := 0.0
	if n > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		stdDev = math.Sqrt(ss / float64(n-1))
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		Median: Median(values),
		StdDev: stdDev,
		Min:    min,
		Max:    max,
	}, true
}

// Median returns the middle value of the series (average of the two middle
// values for even lengths). The input slice is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// CoerceFloat converts a cell value from a store row into a float64.
// Integers, floats, bools and numeric strings are accepted; time values
// convert to their Unix-second ordinal so datetime columns can feed trend
// fitting. Anything else, including nil, reports ok=false.
func CoerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case time.Time:
		return float64(x.Unix()), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case []byte:
		return CoerceFloat(string(x))
	default:
		return 0, false
	}
}

// FloatColumn coerces a column of row cells into the float values it holds,
// dropping cells that are null or non-numeric. The second return value maps
// each kept value back to its original row index.
func FloatColumn(cells []any) ([]float64, []int) {
	values := make([]float64, 0, len(cells))
	indices := make([]int, 0, len(cells))
	for i, c := range cells {
		if f, ok := CoerceFloat(c); ok {
			values = append(values, f)
			indices = append(indices, i)
		}
	}
	return values, indices
}
