package stats

import (
	"math"
	"testing"
)

func TestLinearFitPerfectLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{3, 5, 7, 9, 11} // y = 2x + 1

	fit, ok := LinearFit(xs, ys)
	if !ok {
		t.Fatal("expected ok for well-formed input")
	}
	if math.Abs(fit.Slope-2) > 1e-9 {
		t.Errorf("slope = %v, want 2", fit.Slope)
	}
	if math.Abs(fit.Intercept-1) > 1e-9 {
		t.Errorf("intercept = %v, want 1", fit.Intercept)
	}
	if math.Abs(fit.R2-1) > 1e-9 {
		t.Errorf("R2 = %v, want 1", fit.R2)
	}
}

func TestLinearFitConstantY(t *testing.T) {
	fit, ok := LinearFit([]float64{1, 2, 3}, []float64{4, 4, 4})
	if !ok {
		t.Fatal("expected ok for constant y")
	}
	if fit.Slope != 0 {
		t.Errorf("slope = %v, want 0", fit.Slope)
	}
	if fit.R2 != 1 {
		t.Errorf("R2 = %v, want 1 for a perfectly explained constant", fit.R2)
	}
}

func TestLinearFitNoisy(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []float64{2.1, 3.9, 6.2, 7.8, 10.3, 11.7}

	fit, ok := LinearFit(xs, ys)
	if !ok {
		t.Fatal("expected ok")
	}
	if fit.Slope <= 0 {
		t.Errorf("slope = %v, want positive", fit.Slope)
	}
	if fit.R2 <= 0.9 || fit.R2 > 1 {
		t.Errorf("R2 = %v, want in (0.9, 1]", fit.R2)
	}
}

func TestLinearFitDegenerate(t *testing.T) {
	if _, ok := LinearFit([]float64{1}, []float64{2}); ok {
		t.Error("expected ok=false for a single point")
	}
	if _, ok := LinearFit([]float64{3, 3, 3}, []float64{1, 2, 3}); ok {
		t.Error("expected ok=false for zero x variance")
	}
	if _, ok := LinearFit([]float64{1, 2}, []float64{1, 2, 3}); ok {
		t.Error("expected ok=false for mismatched lengths")
	}
}
