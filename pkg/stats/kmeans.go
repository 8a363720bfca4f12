package stats

import "math"

// KMeansResult is a flat partition of the input points.
type KMeansResult struct {
	// Assignments[i] is the cluster id of points[i].
	Assignments []int
	// Centroids are the cluster centers in the original feature units.
	Centroids [][]float64
	// K is the effective cluster count, which may be lower than requested
	// when the input has fewer distinct points.
	K int
}

// KMeans partitions points into at most k clusters. The whole procedure is
// deterministic for identical input: features are standardized, the first
// centroid is the first point, subsequent centroids are chosen by the
// farthest-point rule with lowest-index tie-breaking, and assignment ties
// go to the lowest cluster id. Identical input therefore always yields
// identical assignments.
//
// Returns ok=false when points is empty, k < 1, or rows have inconsistent
// widths.
func KMeans(points [][]float64, k, maxIterations int) (KMeansResult, bool) {
	n := len(points)
	if n == 0 || k < 1 {
		return KMeansResult{}, false
	}
	dims := len(points[0])
	if dims == 0 {
		return KMeansResult{}, false
	}
	for _, p := range points {
		if len(p) != dims {
			return KMeansResult{}, false
		}
	}
	if maxIterations < 1 {
		maxIterations = 1
	}

	scaled, means, devs := standardize(points)

	if distinct := countDistinct(scaled); k > distinct {
		k = distinct
	}

	centroids := seedCentroids(scaled, k)
	assignments := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range scaled {
			best := nearestCentroid(p, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Recompute centroids; an emptied cluster is reseeded with the
		// point farthest from its current centroid.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range scaled {
			c := assignments[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				centroids[c] = append([]float64(nil), scaled[farthestPoint(scaled, centroids, assignments)]...)
				continue
			}
			for d := 0; d < dims; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	// Report centroids in original units.
	original := make([][]float64, k)
	for c := 0; c < k; c++ {
		original[c] = make([]float64, dims)
		for d := 0; d < dims; d++ {
			original[c][d] = centroids[c][d]*devs[d] + means[d]
		}
	}

	return KMeansResult{Assignments: assignments, Centroids: original, K: k}, true
}

// standardize z-scores each feature. Zero-variance features map to zero so
// they cannot dominate distances.
func standardize(points [][]float64) (scaled [][]float64, means, devs []float64) {
	n := len(points)
	dims := len(points[0])
	means = make([]float64, dims)
	devs = make([]float64, dims)

	for d := 0; d < dims; d++ {
		sum := 0.0
		for _, p := range points {
			sum += p[d]
		}
		means[d] = sum / float64(n)

		ss := 0.0
		for _, p := range points {
			diff := p[d] - means[d]
			ss += diff * diff
		}
		devs[d] = math.Sqrt(ss / float64(n))
		if devs[d] == 0 {
			devs[d] = 1
		}
	}

	scaled = make([][]float64, n)
	for i, p := range points {
		scaled[i] = make([]float64, dims)
		for d := 0; d < dims; d++ {
			scaled[i][d] = (p[d] - means[d]) / devs[d]
		}
	}
	return scaled, means, devs
}

func countDistinct(points [][]float64) int {
	distinct := 0
	for i, p := range points {
		dup := false
		for j := 0; j < i; j++ {
			if equalPoint(p, points[j]) {
				dup = true
				break
			}
		}
		if !dup {
			distinct++
		}
	}
	return distinct
}

func equalPoint(a, b []float64) bool {
	for d := range a {
		if a[d] != b[d] {
			return false
		}
	}
	return true
}

// seedCentroids picks k starting centers with the maximin rule: the first
// point seeds cluster 0, then each next centroid is the point farthest from
// its nearest already-chosen centroid, lowest index winning ties.
func seedCentroids(points [][]float64, k int) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), points[0]...))

	for len(centroids) < k {
		bestIdx := -1
		bestDist := -1.0
		for i, p := range points {
			d := distanceToNearest(p, centroids)
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		centroids = append(centroids, append([]float64(nil), points[bestIdx]...))
	}
	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := squaredDistance(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := squaredDistance(p, centroids[c]); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func distanceToNearest(p []float64, centroids [][]float64) float64 {
	best := squaredDistance(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := squaredDistance(p, centroids[c]); d < best {
			best = d
		}
	}
	return best
}

func farthestPoint(points, centroids [][]float64, assignments []int) int {
	bestIdx := 0
	bestDist := -1.0
	for i, p := range points {
		d := squaredDistance(p, centroids[assignments[i]])
		if d > bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return bestIdx
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}
