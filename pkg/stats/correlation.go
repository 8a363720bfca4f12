package stats

import "math"

// Pearson computes the Pearson correlation coefficient between two series.
// It reports ok=false when the series are shorter than 2, differ in length,
// or either has zero variance; a zero-variance pair has no defined
// correlation and must be excluded by callers rather than reported as 0.
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	sxx := 0.0
	syy := 0.0
	sxy := 0.0
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}

	r := sxy / math.Sqrt(sxx*syy)
	// Guard against float drift pushing |r| past 1.
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r, true
}
