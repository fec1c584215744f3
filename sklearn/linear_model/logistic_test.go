package linear_model

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

func separableBinary() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestLogisticRegression_FitPredict_Binary(t *testing.T) {
	X, y := separableBinary()
	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRC(100))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	predictions, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	for i := 0; i < 6; i++ {
		if predictions.At(i, 0) != y.At(i, 0) {
			t.Errorf("Sample %d: expected %v, got %v", i, y.At(i, 0), predictions.At(i, 0))
		}
	}

	XTest := mat.NewDense(2, 2, []float64{1.0, 1.0, 3.0, 3.0})
	testPreds, err := lr.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict on test data: %v", err)
	}
	if testPreds.At(0, 0) != 0 || testPreds.At(1, 0) != 1 {
		t.Errorf("unexpected test predictions %v", mat.Formatted(testPreds))
	}
	if got := lr.Classes(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("Classes = %v", got)
	}
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X, y := separableBinary()
	lr := NewLogisticRegression(WithLRMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}
	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}
	rows, cols := probas.Dims()
	if rows != 6 || cols != 2 {
		t.Fatalf("Expected probas shape (6, 2), got (%d, %d)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		sum := probas.At(i, 0) + probas.At(i, 1)
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}
	// 正例側の確率は陽性サンプルで高い
	if probas.At(5, 1) <= probas.At(0, 1) {
		t.Errorf("expected P(1|x5) > P(1|x0), got %v <= %v", probas.At(5, 1), probas.At(0, 1))
	}
}

func TestLogisticRegression_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0, 0.2, 0.1, 0.1, 0.3,
		5, 0, 5.2, 0.1, 4.9, 0.2,
		0, 5, 0.1, 5.1, 0.2, 4.8,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	lr := NewLogisticRegression(WithLRMaxIter(2000), WithLRC(100), WithLRNJobs(2))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(lr.Coef()) != 3 {
		t.Fatalf("expected one coefficient row per class, got %d", len(lr.Coef()))
	}
	pred, err := lr.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 9; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: got %v want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
	proba, _ := lr.PredictProba(X)
	for i := 0; i < 9; i++ {
		sum := 0.0
		for c := 0; c < 3; c++ {
			sum += proba.At(i, c)
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d sums to %v", i, sum)
		}
	}
}

func TestLogisticRegression_Errors(t *testing.T) {
	lr := NewLogisticRegression()
	_, err := lr.Predict(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	X, _ := separableBinary()
	oneClass := mat.NewDense(6, 1, []float64{1, 1, 1, 1, 1, 1})
	if err := lr.Fit(X, oneClass); err == nil {
		t.Error("expected error for a single class")
	}
	if err := lr.Fit(X, mat.NewDense(5, 1, nil)); err == nil {
		t.Error("expected dimension error")
	}
	if err := NewLogisticRegression(WithLRC(0)).Fit(X, mat.NewDense(6, 1, []float64{0, 1, 0, 1, 0, 1})); err == nil {
		t.Error("expected validation error for C=0")
	}
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	X, y := separableBinary()
	a := NewLogisticRegression(WithLRRandomState(3))
	b := NewLogisticRegression(WithLRRandomState(3))
	if err := a.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	ca, cb := a.Coef(), b.Coef()
	for j := range ca[0] {
		if ca[0][j] != cb[0][j] {
			t.Fatalf("coefficients differ with equal seeds: %v vs %v", ca, cb)
		}
	}
}

func TestLogisticRegression_StateRoundTrip(t *testing.T) {
	X, y := separableBinary()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	data, err := lr.ExportState()
	if err != nil {
		t.Fatal(err)
	}
	restored := NewLogisticRegression()
	if err := restored.ImportState(data); err != nil {
		t.Fatal(err)
	}
	p1, _ := lr.PredictProba(X)
	p2, err := restored.PredictProba(X)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(p1, p2) {
		t.Error("restored model predicts differently")
	}
}
