package model

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

func TestParseProblemType(t *testing.T) {
	tests := []struct {
		in      string
		want    ProblemType
		wantErr bool
	}{
		{"binary", Binary, false},
		{"BINARY", Binary, false},
		{"Multiclass Classification", Multiclass, false},
		{"time_series_regression", TimeSeriesRegression, false},
		{"Time Series Binary", TimeSeriesBinary, false},
		{"Multi", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProblemType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProblemType(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseProblemType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestProblemTypePredicates(t *testing.T) {
	for _, p := range AllProblemTypes() {
		if p.IsClassification() == p.IsRegression() {
			t.Errorf("%v must be exactly one of classification/regression", p)
		}
	}
	if !TimeSeriesBinary.IsBinary() || !TimeSeriesBinary.IsTimeSeries() {
		t.Error("time series binary predicates")
	}
	if got := JoinProblemTypes([]ProblemType{Binary, Multiclass}); got != "Binary Classification, Multiclass Classification" {
		t.Errorf("JoinProblemTypes = %q", got)
	}

	var p ProblemType
	if err := p.UnmarshalText([]byte("regression")); err != nil || p != Regression {
		t.Errorf("UnmarshalText: %v %v", p, err)
	}
	text, _ := TimeSeriesMulticlass.MarshalText()
	if string(text) != "time series multiclass" {
		t.Errorf("MarshalText = %q", text)
	}
}

func TestModelFamily(t *testing.T) {
	f, err := ParseModelFamily("Linear Model")
	if err != nil || f != LinearModel {
		t.Fatalf("ParseModelFamily = %v, %v", f, err)
	}
	if f.String() != "Linear Model" || f.Key() != "linear_model" {
		t.Errorf("names: %q %q", f.String(), f.Key())
	}
	if _, err := ParseModelFamily("random_forest"); err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestTarget(t *testing.T) {
	var none Target
	if !none.IsNil() || none.Len() != 0 {
		t.Error("zero Target must be nil")
	}

	num := Floats([]float64{1, 0, 2.5})
	if num.IsNil() || !num.IsNumeric() || num.Len() != 3 {
		t.Fatal("numeric target")
	}
	if num.Label(2) != "2.5" {
		t.Errorf("Label = %q", num.Label(2))
	}
	sub := num.Subset([]int{2, 0})
	if sub.Float(0) != 2.5 || sub.Float(1) != 1 {
		t.Errorf("Subset = %v", sub.Values())
	}

	lab := Labels([]string{"cat", "dog", "3"})
	if lab.IsNumeric() {
		t.Error("label target is not numeric")
	}
	if !math.IsNaN(lab.Float(0)) || lab.Float(2) != 3 {
		t.Error("Float on labels")
	}
	if lab.Values() != nil {
		t.Error("Values on labels must be nil")
	}
	if v := num.Vector(); v.Len() != 3 || v.AtVec(1) != 0 {
		t.Error("Vector")
	}
}

func TestParameters(t *testing.T) {
	p := Parameters{"C": 1, "penalty": "l2", "columns": []int{1, 2}, "nested": Parameters{"a": 1}}
	c := p.Clone()
	c["columns"].([]int)[0] = 9
	c["nested"].(Parameters)["a"] = 2
	if p["columns"].([]int)[0] != 1 || p["nested"].(Parameters)["a"] != 1 {
		t.Error("Clone must not share slices or nested maps")
	}

	if v, err := p.Float("C", 0); err != nil || v != 1 {
		t.Errorf("Float = %v, %v", v, err)
	}
	if _, err := p.Int("penalty", 0); err == nil {
		t.Error("expected type error")
	}
	if v, _ := p.Int("missing", 7); v != 7 {
		t.Error("default not used")
	}
	if _, err := (Parameters{"n": 1.5}).Int("n", 0); err == nil {
		t.Error("fractional int accepted")
	}
	ints, err := Parameters{"cols": []interface{}{1, 2.0}}.Ints("cols")
	if err != nil || len(ints) != 2 || ints[1] != 2 {
		t.Errorf("Ints = %v, %v", ints, err)
	}
	m := p.Merge(Parameters{"C": 0.5})
	if m["C"] != 0.5 || p["C"] != 1 {
		t.Error("Merge")
	}
	if keys := p.Keys(); keys[0] != "C" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("Linear Regressor", "Predict")
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	s.SetDimensions(3, 10)
	s.SetFitted()
	if err := s.RequireFitted("Linear Regressor", "Predict"); err != nil {
		t.Fatal(err)
	}
	var dim *errors.DimensionError
	if !errors.As(s.RequireFeatures("Predict", 2), &dim) {
		t.Error("expected DimensionError")
	}
	st := s.GetState()
	other := NewStateManager()
	other.SetState(st)
	if nfeat, nsamp := other.GetDimensions(); nfeat != 3 || nsamp != 10 || !other.IsFitted() {
		t.Error("SetState round trip")
	}
}

func TestGobHelpers(t *testing.T) {
	type snapshot struct {
		Name   string
		Params Parameters
	}
	in := snapshot{Name: "Logistic Regression Classifier", Params: Parameters{"C": 1.0, "max_iter": 100}}

	data, err := EncodeGob(in)
	if err != nil {
		t.Fatal(err)
	}
	var out snapshot
	if err := DecodeGob(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != in.Name || out.Params["max_iter"] != 100 {
		t.Errorf("DecodeGob = %+v", out)
	}

	path := filepath.Join(t.TempDir(), "snap.gob")
	if err := SaveModel(in, path); err != nil {
		t.Fatal(err)
	}
	var loaded snapshot
	if err := LoadModel(&loaded, path); err != nil {
		t.Fatal(err)
	}
	if loaded.Params["C"] != 1.0 {
		t.Errorf("LoadModel = %+v", loaded)
	}
	if err := LoadModel(&loaded, filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error for missing file")
	}
}
