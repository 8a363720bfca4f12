package stats

import (
	"math"
	"testing"
)

func TestPearsonExactLinear(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10} // y = 2x

	r, ok := Pearson(xs, ys)
	if !ok {
		t.Fatal("expected ok")
	}
	if math.Abs(r-1) > 1e-9 {
		t.Errorf("r = %v, want 1", r)
	}
}

func TestPearsonNegative(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{8, 6, 4, 2}

	r, ok := Pearson(xs, ys)
	if !ok {
		t.Fatal("expected ok")
	}
	if math.Abs(r+1) > 1e-9 {
		t.Errorf("r = %v, want -1", r)
	}
}

func TestPearsonZeroVarianceExcluded(t *testing.T) {
	if _, ok := Pearson([]float64{5, 5, 5}, []float64{1, 2, 3}); ok {
		t.Error("constant x: expected ok=false, not r=0")
	}
	if _, ok := Pearson([]float64{1, 2, 3}, []float64{7, 7, 7}); ok {
		t.Error("constant y: expected ok=false, not r=0")
	}
}

func TestPearsonTooShort(t *testing.T) {
	if _, ok := Pearson([]float64{1}, []float64{2}); ok {
		t.Error("expected ok=false below 2 points")
	}
}
