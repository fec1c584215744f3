package datachecks

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// quantiles は分布から決定的に n 点を取る
func quantiles(q func(float64) float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = q((float64(i) + 0.5) / float64(n))
	}
	return out
}

func TestInferLogicalType(t *testing.T) {
	tests := []struct {
		name string
		y    model.Target
		want LogicalType
	}{
		{"integers", model.Floats([]float64{1, 2, 3}), Integer},
		{"doubles", model.Floats([]float64{1, 2.5, 3}), Double},
		{"integer labels", model.Labels([]string{"1", "2", "3"}), Integer},
		{"double labels", model.Labels([]string{"1.5", "2", ""}), Double},
		{"booleans", model.Labels([]string{"true", "False", "TRUE"}), Boolean},
		{"dates", model.Labels([]string{"2021-01-01", "2021-01-02"}), Datetime},
		{"categories", model.Labels([]string{"a", "b", "a"}), Categorical},
		{"free text", model.Labels([]string{"a cat", "a dog"}), Unknown},
		{"empty", model.Target{}, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferLogicalType(tt.y))
		})
	}
}

func TestNormalityTest(t *testing.T) {
	normal := quantiles(distuv.Normal{Mu: 10, Sigma: 2}.Quantile, 200)
	_, p, err := NormalityTest(normal)
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)

	skewed := quantiles(distuv.LogNormal{Mu: 0, Sigma: 1}.Quantile, 200)
	stat, p, err := NormalityTest(skewed)
	require.NoError(t, err)
	assert.Greater(t, stat, 100.0)
	assert.Less(t, p, 1e-6)

	_, _, err = NormalityTest([]float64{1, 2})
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
	_, _, err = NormalityTest([]float64{3, 3, 3, 3})
	assert.True(t, errors.As(err, &ve))
}

func TestTargetDistributionLognormal(t *testing.T) {
	y := model.Floats(quantiles(distuv.LogNormal{Mu: 0, Sigma: 1}.Quantile, 200))
	res := TargetDistributionDataCheck{}.Validate(nil, y)

	require.Len(t, res.Warnings, 1)
	assert.Empty(t, res.Errors)
	w := res.Warnings[0]
	assert.Equal(t, "Target may have a lognormal distribution.", w.Message)
	assert.Equal(t, CodeTargetLognormalDistribution, w.Code)
	assert.Equal(t, LevelWarning, w.Level)
	assert.Equal(t, "TargetDistributionDataCheck", w.DataCheckName)
	assert.Contains(t, w.Details, "jarque-bera-statistic/pvalue")

	require.Len(t, res.Actions, 1)
	assert.Equal(t, ActionTransformTarget, res.Actions[0].Code)
	assert.Equal(t, "lognormal", res.Actions[0].Metadata["transformation_strategy"])
	assert.Equal(t, true, res.Actions[0].Metadata["is_target"])
	assert.Nil(t, res.Actions[0].Metadata["column"])
}

func TestTargetDistributionShiftsNonPositive(t *testing.T) {
	values := quantiles(distuv.LogNormal{Mu: 0, Sigma: 1}.Quantile, 200)
	for i := range values {
		values[i] -= 5
	}
	res := TargetDistributionDataCheck{}.Validate(nil, model.Floats(values))
	assert.Empty(t, res.Errors)
	assert.Len(t, res.Warnings, 1)
}

func TestTargetDistributionNormal(t *testing.T) {
	y := model.Floats(quantiles(distuv.Normal{Mu: 50, Sigma: 5}.Quantile, 200))
	res := TargetDistributionDataCheck{}.Validate(nil, y)
	assert.True(t, res.Empty())
}

func TestTargetDistributionErrors(t *testing.T) {
	res := TargetDistributionDataCheck{}.Validate(nil, model.Target{})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeTargetIsNone, res.Errors[0].Code)
	assert.Equal(t, "Target is None", res.Errors[0].Message)

	res = TargetDistributionDataCheck{}.Validate(nil, model.Labels([]string{"a", "b", "a"}))
	require.Len(t, res.Errors, 1)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, CodeTargetUnsupportedType, res.Errors[0].Code)
	assert.Equal(t, "Target is unsupported categorical type. Valid logical types include: integer, double", res.Errors[0].Message)
	assert.Equal(t, "categorical", res.Errors[0].Details["unsupported_type"])
}

func dailyDates(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("2021-01-%02d", i+1)
	}
	return out
}

func TestEqualInterval(t *testing.T) {
	dates := dailyDates(10)
	res := EqualIntervalDataCheck{}.Validate(nil, model.Labels(dates))
	assert.True(t, res.Empty())

	dates[7] = "2021-01-09"
	res = EqualIntervalDataCheck{}.Validate(nil, model.Labels(dates))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeDatetimeUnevenIntervals, res.Errors[0].Code)
	assert.Equal(t, 7, res.Errors[0].Details["first_uneven_index"])

	res = EqualIntervalDataCheck{}.Validate(nil, model.Floats([]float64{1, 2, 3}))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeTargetUnsupportedType, res.Errors[0].Code)

	res = EqualIntervalDataCheck{}.Validate(nil, model.Target{})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeTargetIsNone, res.Errors[0].Code)
}

func TestDataChecksMerge(t *testing.T) {
	checks := DataChecks{TargetDistributionDataCheck{}, EqualIntervalDataCheck{}}
	y := model.Floats(quantiles(distuv.LogNormal{Mu: 0, Sigma: 1}.Quantile, 100))
	res := checks.Validate(nil, y)
	assert.Len(t, res.Warnings, 1)
	assert.Len(t, res.Errors, 1) // numeric target is not a datetime
	assert.Len(t, res.Actions, 1)

	assert.Len(t, DefaultChecks(model.Regression), 1)
	assert.Empty(t, DefaultChecks(model.Binary))
}
