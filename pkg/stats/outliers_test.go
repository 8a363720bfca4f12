package stats

import (
	"reflect"
	"testing"
)

func TestOutlierIndicesFlagsExtremeValue(t *testing.T) {
	flagged := OutlierIndices([]float64{10, 10, 10, 10, 100}, 3)
	if !reflect.DeepEqual(flagged, []int{4}) {
		t.Errorf("flagged = %v, want [4]", flagged)
	}
}

func TestOutlierIndicesCleanSeries(t *testing.T) {
	if flagged := OutlierIndices([]float64{1, 2, 3, 4, 5}, 3); flagged != nil {
		t.Errorf("flagged = %v, want none", flagged)
	}
}

func TestOutlierIndicesConstantSeries(t *testing.T) {
	if flagged := OutlierIndices([]float64{4, 4, 4, 4}, 3); flagged != nil {
		t.Errorf("flagged = %v, want none for constant series", flagged)
	}
}

func TestOutlierIndicesShortSeries(t *testing.T) {
	if flagged := OutlierIndices([]float64{1, 100}, 3); flagged != nil {
		t.Errorf("flagged = %v, want none below 3 values", flagged)
	}
}

func TestOutlierIndicesOrderedAscending(t *testing.T) {
	// Two extremes on either side of a tight center.
	values := []float64{-500, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 500}
	flagged := OutlierIndices(values, 3)
	if len(flagged) != 2 || flagged[0] != 0 || flagged[1] != 11 {
		t.Errorf("flagged = %v, want [0 11]", flagged)
	}
}
