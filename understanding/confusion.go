// Package understanding inspects fitted pipelines. Its main entry point,
// FindConfusionMatrixPerThresholds, sweeps the decision threshold of a
// binary pipeline over histogram bin edges and reports, per edge, the
// confusion matrix and the best threshold for a fixed set of objectives.
package understanding

import (
	"encoding/json"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// ConfusionMatrix holds counts in the order tp, tn, fp, fn.
type ConfusionMatrix [4]int

func (c ConfusionMatrix) TP() int    { return c[0] }
func (c ConfusionMatrix) TN() int    { return c[1] }
func (c ConfusionMatrix) FP() int    { return c[2] }
func (c ConfusionMatrix) FN() int    { return c[3] }
func (c ConfusionMatrix) Total() int { return c[0] + c[1] + c[2] + c[3] }

// ratio は分母 0 のとき 0 を返す
func ratio(num, den int) float64 {
	return errors.SafeDivide(float64(num), float64(den))
}

// Accuracy is (tp+tn)/total.
func Accuracy(c ConfusionMatrix) float64 {
	return ratio(c.TP()+c.TN(), c.Total())
}

// BalancedAccuracy is the mean of tp/(tp+fn) and tn/(tn+fp). A term whose
// denominator is zero contributes 0.
func BalancedAccuracy(c ConfusionMatrix) float64 {
	return (ratio(c.TP(), c.TP()+c.FN()) + ratio(c.TN(), c.TN()+c.FP())) / 2
}

func Precision(c ConfusionMatrix) float64 {
	return ratio(c.TP(), c.TP()+c.FP())
}

func Recall(c ConfusionMatrix) float64 {
	return ratio(c.TP(), c.TP()+c.FN())
}

// F1 is the harmonic mean of Precision and Recall, 0 when both are 0.
func F1(c ConfusionMatrix) float64 {
	p, r := Precision(c), Recall(c)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// SweepObjective is one objective maximised by the sweep.
type SweepObjective struct {
	Name string
	Fn   func(ConfusionMatrix) float64
}

// SweepObjectives are evaluated in this order.
var SweepObjectives = []SweepObjective{
	{"accuracy", Accuracy},
	{"balanced_accuracy", BalancedAccuracy},
	{"precision", Precision},
	{"recall", Recall},
	{"f1", F1},
}

// ObjectiveBest is the best value of an objective and the threshold where
// it was first reached. It marshals as [value, threshold].
type ObjectiveBest struct {
	Value     float64
	Threshold float64
}

func (o ObjectiveBest) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{o.Value, o.Threshold})
}

func (o *ObjectiveBest) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	o.Value, o.Threshold = pair[0], pair[1]
	return nil
}
