package stats

import "math"

// OutlierIndices flags positions whose value deviates from the rest of the
// series by more than sigma standard deviations. The deviation of each value
// is measured against the mean and sample standard deviation of the OTHER
// values: a single extreme point cannot mask itself by inflating the spread
// it is judged against. When the rest of the series has zero spread, any
// differing value is flagged.
//
// Returned positions index into values in ascending order. Series shorter
// than 3 have no outliers.
func OutlierIndices(values []float64, sigma float64) []int {
	n := len(values)
	if n < 3 || sigma <= 0 {
		return nil
	}

	sum := 0.0
	sumSq := 0.0
	for _, v := range values {
		sum += v
		sumSq += v * v
	}

	var flagged []int
	for i, v := range values {
		restSum := sum - v
		restSumSq := sumSq - v*v
		restN := float64(n - 1)

		restMean := restSum / restN
		// Sum of squared deviations of the rest, clamped against float drift.
		ss := restSumSq - restSum*restSum/restN
		if ss < 0 {
			ss = 0
		}
		restDev := math.Sqrt(ss / (restN - 1))

		diff := math.Abs(v - restMean)
		if restDev == 0 {
			if diff > 1e-12*math.Max(1, math.Abs(restMean)) {
				flagged = append(flagged, i)
			}
			continue
		}
		if diff/restDev > sigma {
			flagged = append(flagged, i)
		}
	}
	return flagged
}
