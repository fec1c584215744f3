package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

func vec(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestAUC(t *testing.T) {
	tests := []struct {
		name  string
		yTrue *mat.VecDense
		score *mat.VecDense
		want  float64
	}{
		{"separated", vec(0, 0, 1, 1), vec(0.1, 0.2, 0.7, 0.9), 1},
		{"reversed", vec(1, 1, 0, 0), vec(0.1, 0.2, 0.7, 0.9), 0},
		// 正例 0.35 が負例 0.4 より下: 3/4
		{"one swap", vec(0, 0, 1, 1), vec(0.1, 0.4, 0.35, 0.8), 0.75},
		// 同点は半分として数える
		{"all tied", vec(0, 1, 0, 1), vec(0.5, 0.5, 0.5, 0.5), 0.5},
		{"single class", vec(1, 1, 1), vec(0.2, 0.5, 0.9), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.yTrue, tt.score)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUCErrors(t *testing.T) {
	if _, err := AUC(vec(0, 2), vec(0.1, 0.9)); err == nil {
		t.Error("labels other than 0/1 should be rejected")
	}
	_, err := AUC(vec(0, 1, 1), vec(0.1, 0.9))
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Errorf("expected DimensionError, got %v", err)
	}
	if _, err := AUC(&mat.VecDense{}, &mat.VecDense{}); err == nil {
		t.Error("empty input should be rejected")
	}
}

func TestBinaryLogLoss(t *testing.T) {
	got, err := BinaryLogLoss(vec(1, 0), vec(0.8, 0.25))
	if err != nil {
		t.Fatal(err)
	}
	want := -(math.Log(0.8) + math.Log(0.75)) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("BinaryLogLoss() = %v, want %v", got, want)
	}

	// 0 と 1 はクリップされて有限になる
	got, err = BinaryLogLoss(vec(1, 0), vec(0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) || got < 30 {
		t.Errorf("clipped loss = %v", got)
	}

	if _, err := BinaryLogLoss(vec(1, 0.5), vec(0.5, 0.5)); err == nil {
		t.Error("expected error for non-binary labels")
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		yTrue *mat.VecDense
		yPred *mat.VecDense
		want  float64
	}{
		{"binary", vec(1, 0, 1, 1), vec(1, 0, 0, 1), 0.75},
		{"multiclass", vec(0, 1, 2, 2, 1), vec(0, 2, 2, 2, 0), 0.6},
		{"none right", vec(0, 0), vec(1, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkAUC(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	score := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i%2))
		score.SetVec(i, math.Mod(float64(i)*0.618, 1))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yTrue, score)
	}
}

func TestBinaryRates(t *testing.T) {
	yTrue := mat.NewVecDense(8, []float64{1, 1, 1, 1, 0, 0, 0, 0})
	yPred := mat.NewVecDense(8, []float64{1, 1, 1, 0, 1, 0, 0, 0})

	tests := []struct {
		name string
		fn   func(yTrue, yPred *mat.VecDense) (float64, error)
		want float64
	}{
		{"precision", Precision, 0.75},
		{"recall", Recall, 0.75},
		{"f1", F1, 0.75},
		{"balanced accuracy", BalancedAccuracy, 0.75},
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

func TestBinaryRatesZeroDenominator(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{0, 0, 0})
	yPred := mat.NewVecDense(3, []float64{0, 0, 0})

	for name, fn := range map[string]func(a, b *mat.VecDense) (float64, error){
		"precision": Precision,
		"recall":    Recall,
		"f1":        F1,
	} {
		got, err := fn(yTrue, yPred)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != 0 {
			t.Errorf("%s = %v, want 0", name, got)
		}
	}
}

func TestBalancedAccuracyMulticlass(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 2, 2})
	yPred := mat.NewVecDense(6, []float64{0, 0, 1, 0, 0, 0})

	got, err := BalancedAccuracy(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	// (1 + 0.5 + 0) / 3
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("BalancedAccuracy() = %v, want 0.5", got)
	}
}

func TestMulticlassLogLoss(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{0, 2})
	proba := mat.NewDense(2, 3, []float64{
		0.8, 0.1, 0.1,
		0.2, 0.3, 0.5,
	})
	got, err := MulticlassLogLoss(yTrue, proba)
	if err != nil {
		t.Fatal(err)
	}
	want := -(math.Log(0.8) + math.Log(0.5)) / 2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("MulticlassLogLoss() = %v, want %v", got, want)
	}

	if _, err := MulticlassLogLoss(mat.NewVecDense(1, []float64{3}), mat.NewDense(1, 3, nil)); err == nil {
		t.Error("expected error for out of range label")
	}
}
