package datachecks

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
)

// EqualIntervalDataCheck reports a datetime target whose consecutive
// values are not evenly spaced, which time series pipelines require.
type EqualIntervalDataCheck struct{}

func (EqualIntervalDataCheck) Name() string { return "EqualIntervalDataCheck" }

func (c EqualIntervalDataCheck) Validate(_ mat.Matrix, y model.Target) Results {
	results := newResults()
	if y.IsNil() {
		results.addError(c.Name(), CodeTargetIsNone, "Target is None", nil)
		return results
	}
	if !requireType(&results, c.Name(), y, Datetime) {
		return results
	}
	times, err := ParseDatetimes(y)
	if err != nil || len(times) < 3 {
		return results
	}
	step := times[1].Sub(times[0])
	for i := 2; i < len(times); i++ {
		if d := times[i].Sub(times[i-1]); d != step {
			results.addError(c.Name(), CodeDatetimeUnevenIntervals,
				"Datetime values are not evenly spaced.",
				map[string]interface{}{
					"first_uneven_index": i,
					"expected_interval":  step.String(),
					"found_interval":     d.String(),
				})
			break
		}
	}
	if len(results.Errors) > 0 {
		return results
	}
	if step <= 0 {
		results.addError(c.Name(), CodeDatetimeUnevenIntervals,
			fmt.Sprintf("Datetime values must be strictly increasing, got interval %s.", step), nil)
	}
	return results
}
