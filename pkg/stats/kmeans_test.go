package stats

import (
	"reflect"
	"testing"
)

// threeBlobs is three well-separated groups of 2D points.
func threeBlobs() [][]float64 {
	return [][]float64{
		{1, 1}, {1.2, 0.9}, {0.8, 1.1}, {1.1, 1},
		{10, 10}, {10.2, 9.8}, {9.9, 10.1}, {10.1, 10},
		{-8, 5}, {-8.2, 5.1}, {-7.9, 4.9}, {-8.1, 5},
	}
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	result, ok := KMeans(threeBlobs(), 3, 25)
	if !ok {
		t.Fatal("expected ok")
	}
	if result.K != 3 {
		t.Fatalf("K = %d, want 3", result.K)
	}
	if len(result.Assignments) != 12 {
		t.Fatalf("got %d assignments, want 12", len(result.Assignments))
	}

	// Every blob must land in a single cluster, and the three clusters
	// must be distinct.
	blobCluster := make([]int, 3)
	for blob := 0; blob < 3; blob++ {
		first := result.Assignments[blob*4]
		for i := 1; i < 4; i++ {
			if result.Assignments[blob*4+i] != first {
				t.Fatalf("blob %d split across clusters: %v", blob, result.Assignments)
			}
		}
		blobCluster[blob] = first
	}
	if blobCluster[0] == blobCluster[1] || blobCluster[1] == blobCluster[2] || blobCluster[0] == blobCluster[2] {
		t.Errorf("blobs merged: %v", blobCluster)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	first, ok := KMeans(threeBlobs(), 3, 25)
	if !ok {
		t.Fatal("expected ok")
	}
	for i := 0; i < 5; i++ {
		again, ok := KMeans(threeBlobs(), 3, 25)
		if !ok {
			t.Fatal("expected ok")
		}
		if !reflect.DeepEqual(first.Assignments, again.Assignments) {
			t.Fatalf("run %d diverged: %v vs %v", i, first.Assignments, again.Assignments)
		}
	}
}

func TestKMeansCapsKAtDistinctPoints(t *testing.T) {
	points := [][]float64{{1, 1}, {1, 1}, {2, 2}, {2, 2}}
	result, ok := KMeans(points, 3, 25)
	if !ok {
		t.Fatal("expected ok")
	}
	if result.K != 2 {
		t.Errorf("K = %d, want 2 (only 2 distinct points)", result.K)
	}
	if result.Assignments[0] != result.Assignments[1] {
		t.Error("identical points assigned to different clusters")
	}
	if result.Assignments[0] == result.Assignments[2] {
		t.Error("distinct points collapsed into one cluster")
	}
}

func TestKMeansRejectsBadInput(t *testing.T) {
	if _, ok := KMeans(nil, 3, 25); ok {
		t.Error("expected ok=false for empty input")
	}
	if _, ok := KMeans([][]float64{{1, 2}, {3}}, 2, 25); ok {
		t.Error("expected ok=false for ragged rows")
	}
	if _, ok := KMeans([][]float64{{1, 2}}, 0, 25); ok {
		t.Error("expected ok=false for k=0")
	}
}
