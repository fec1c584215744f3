package datachecks

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// NormalityTest runs the Jarque-Bera test on values and returns the
// statistic and its p-value under a chi-squared distribution with two
// degrees of freedom. Small p-values reject normality.
func NormalityTest(values []float64) (statistic, pvalue float64, err error) {
	const op = "datachecks.NormalityTest"
	if len(values) < 3 {
		return 0, 0, errors.NewValueError(op, "at least 3 values are required")
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, errors.NewValueError(op, "values must be finite")
		}
	}
	// 偏りのある (1/n) 中心モーメント
	m2 := stat.Moment(2, values, nil)
	if m2 == 0 {
		return 0, 0, errors.NewValueError(op, "values are constant")
	}
	skew := stat.Moment(3, values, nil) / math.Pow(m2, 1.5)
	kurt := stat.Moment(4, values, nil) / (m2 * m2)

	n := float64(len(values))
	statistic = n / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)
	pvalue = distuv.ChiSquared{K: 2}.Survival(statistic)
	return statistic, pvalue, nil
}
