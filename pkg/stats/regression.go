package stats

// Fit is an ordinary least-squares line over one predictor.
type Fit struct {
	Slope     float64
	Intercept float64
	// R2 is the coefficient of determination of the fit, in [0,1].
	R2 float64
}

// LinearFit fits y = slope*x + intercept by least squares. It reports
// ok=false when fewer than 2 points are given, when the series lengths
// differ, or when x has zero variance (vertical line, slope undefined).
//
// For a perfectly constant y the fit is the horizontal line through the
// mean with R2 = 1: the model explains all (zero) variance.
func LinearFit(xs, ys []float64) (Fit, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return Fit{}, false
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	sxx := 0.0
	sxy := 0.0
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return Fit{}, false
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	// R2 = 1 - SSres/SStot, clipped into [0,1] against float drift.
	ssTot := 0.0
	ssRes := 0.0
	for i := 0; i < n; i++ {
		dy := ys[i] - meanY
		ssTot += dy * dy
		res := ys[i] - (slope*xs[i] + intercept)
		ssRes += res * res
	}
	r2 := 1.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	if r2 < 0 {
		r2 = 0
	}
	if r2 > 1 {
		r2 = 1
	}

	return Fit{Slope: slope, Intercept: intercept, R2: r2}, true
}
