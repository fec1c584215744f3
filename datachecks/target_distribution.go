package datachecks

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goautoml/core/model"
)

// NormalityAlpha is the p-value at or above which a target counts as normal.
const NormalityAlpha = 0.05

// TargetDistributionDataCheck warns when a numeric target looks lognormal,
// suggesting a log transform of the target.
type TargetDistributionDataCheck struct{}

func (TargetDistributionDataCheck) Name() string { return "TargetDistributionDataCheck" }

func (c TargetDistributionDataCheck) Validate(_ mat.Matrix, y model.Target) Results {
	results := newResults()
	if y.IsNil() {
		results.addError(c.Name(), CodeTargetIsNone, "Target is None", nil)
		return results
	}
	if !requireType(&results, c.Name(), y, Integer, Double) {
		return results
	}

	values := finite(y)
	if _, p, err := NormalityTest(values); err != nil || p >= NormalityAlpha {
		return results
	}

	shifted := append([]float64(nil), values...)
	if lo := floats.Min(shifted); lo <= 0 {
		floats.AddConst(math.Abs(lo)+1, shifted)
	}
	// 平均 + 3σ を超える値は外れ値として除く
	limit := stat.Mean(shifted, nil) + 3*round3(stat.StdDev(values, nil))
	var kept, logged []float64
	for _, v := range shifted {
		if v < limit {
			kept = append(kept, v)
			logged = append(logged, math.Log(v))
		}
	}

	ogStat, ogP, err := NormalityTest(kept)
	if err != nil {
		return results
	}
	_, logP, err := NormalityTest(logged)
	if err != nil || logP < ogP {
		return results
	}

	results.addWarning(c.Name(), CodeTargetLognormalDistribution, "Target may have a lognormal distribution.",
		map[string]interface{}{
			"jarque-bera-statistic/pvalue": formatRound3(ogStat) + "/" + formatRound3(ogP),
		})
	results.Actions = append(results.Actions, Action{
		Code: ActionTransformTarget,
		Metadata: map[string]interface{}{
			"column":                  nil,
			"is_target":               true,
			"transformation_strategy": "lognormal",
		},
	})
	return results
}

// requireType adds an unsupported-type error unless y is one of allowed.
func requireType(results *Results, check string, y model.Target, allowed ...LogicalType) bool {
	lt := InferLogicalType(y)
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if lt == a {
			return true
		}
		names[i] = a.String()
	}
	results.addError(check, CodeTargetUnsupportedType,
		fmt.Sprintf("Target is unsupported %s type. Valid logical types include: %s", lt, strings.Join(names, ", ")),
		map[string]interface{}{"unsupported_type": lt.String()})
	return false
}

func finite(y model.Target) []float64 {
	out := make([]float64, 0, y.Len())
	for i := 0; i < y.Len(); i++ {
		if v := y.Float(i); !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func formatRound3(v float64) string {
	return strconv.FormatFloat(round3(v), 'f', -1, 64)
}
