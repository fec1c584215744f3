package linear

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// createData は y = 1 + Σ (j+1)*0.5*x_j + ノイズ のデータを生成する
func createData(rows, cols int, noise float64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))
	X := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			v := rng.Float64()*2.0 - 1.0
			X.Set(i, j, v)
			sum += v * float64(j+1) * 0.5
		}
		sum += (rng.Float64() - 0.5) * noise
		y.Set(i, 0, sum)
	}
	return X, y
}

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	X, y := createData(200, 3, 0)
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if math.Abs(lr.Intercept()-1) > 1e-8 {
		t.Errorf("intercept = %v, want 1", lr.Intercept())
	}
	for j, w := range lr.Weights() {
		want := float64(j+1) * 0.5
		if math.Abs(w-want) > 1e-8 {
			t.Errorf("weight %d = %v, want %v", j, w, want)
		}
	}
	score, err := lr.Score(X, y)
	if err != nil || math.Abs(score-1) > 1e-10 {
		t.Errorf("Score = %v, %v", score, err)
	}
}

func TestLinearRegressionCollinearColumns(t *testing.T) {
	// 2 列目は 1 列目の複製。最小ノルム解なら両者に等分される
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})
	lr := NewLinearRegression()
	lr.FitIntercept = false
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("collinear fit failed: %v", err)
	}
	w := lr.Weights()
	if math.Abs(w[0]-1) > 1e-8 || math.Abs(w[1]-1) > 1e-8 {
		t.Errorf("weights = %v, want [1 1]", w)
	}
}

func TestLinearRegressionErrors(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	X, y := createData(10, 2, 0.1)
	if err := lr.Fit(X, mat.NewDense(9, 1, nil)); err == nil {
		t.Error("expected dimension error")
	}
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	_, err = lr.Predict(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	if !errors.As(err, &dim) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestLinearRegressionStateRoundTrip(t *testing.T) {
	X, y := createData(50, 2, 0.1)
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	data, err := lr.ExportState()
	if err != nil {
		t.Fatal(err)
	}
	restored := NewLinearRegression()
	if err := restored.ImportState(data); err != nil {
		t.Fatal(err)
	}
	p1, _ := lr.Predict(X)
	p2, err := restored.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(p1, p2, 1e-12) {
		t.Error("restored model predicts differently")
	}
}

func BenchmarkLinearRegressionFit(b *testing.B) {
	sizes := []struct {
		name       string
		rows, cols int
	}{
		{"Small_500x10", 500, 10},
		{"Medium_2000x10", 2000, 10}, // 並列処理の閾値を超える
		{"Large_10000x20", 10000, 20},
	}
	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createData(size.rows, size.cols, 0.1)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
