package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRegressionMetrics(t *testing.T) {
	yTrue := vec(3, -0.5, 2, 7)
	yPred := vec(2.5, 0.0, 2, 8)

	tests := []struct {
		name string
		fn   func(yTrue, yPred *mat.VecDense) (float64, error)
		want float64
	}{
		// (0.25 + 0.25 + 0 + 1) / 4
		{"mse", MSE, 0.375},
		{"mae", MAE, 0.5},
		{"r2", R2Score, 0.9486081370449679},
		{"explained variance", ExplainedVarianceScore, 0.9571734475374732},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerfectRegression(t *testing.T) {
	y := vec(1, 2, 3, 4)
	for name, fn := range map[string]func(a, b *mat.VecDense) (float64, error){
		"mse": MSE,
		"mae": MAE,
	} {
		got, err := fn(y, y)
		if err != nil || got != 0 {
			t.Errorf("%s = %v, %v; want 0", name, got, err)
		}
	}
	if got, _ := R2Score(y, y); got != 1 {
		t.Errorf("R2Score = %v, want 1", got)
	}
}

func TestMAPE(t *testing.T) {
	// yTrue がゼロの行は除外される
	got, err := MAPE(vec(100, 200, 0), vec(110, 150, 5))
	if err != nil {
		t.Fatal(err)
	}
	// (10% + 25%) / 2
	if math.Abs(got-17.5) > 1e-9 {
		t.Errorf("MAPE() = %v, want 17.5", got)
	}
	if _, err := MAPE(vec(0, 0), vec(1, 1)); err == nil {
		t.Error("expected error when every yTrue is zero")
	}
}

func TestRegressionErrors(t *testing.T) {
	constant := vec(2, 2, 2)
	if _, err := R2Score(constant, vec(1, 2, 3)); err == nil {
		t.Error("R2Score should reject a constant yTrue")
	}
	if _, err := ExplainedVarianceScore(constant, vec(1, 2, 3)); err == nil {
		t.Error("ExplainedVarianceScore should reject a constant yTrue")
	}
	if _, err := MSE(vec(1, 2), vec(1)); err == nil {
		t.Error("MSE should reject a length mismatch")
	}
	if _, err := MAE(nil, vec(1)); err == nil {
		t.Error("MAE should reject nil input")
	}
}

func BenchmarkMSE(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.5)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
