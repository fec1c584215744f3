package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pipeline"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/pkg/log"
)

func quiet() pipeline.Option {
	l, _ := log.NewTestLogger(log.LevelError)
	return pipeline.WithLogger(l)
}

func fittedPipeline(t *testing.T) (*pipeline.Pipeline, *mat.Dense, model.Target) {
	t.Helper()
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y[i] = 2*float64(i) + 1
	}
	p, err := pipeline.Build(model.Regression,
		pipeline.Linear(pipeline.Key(components.StandardScalerName), pipeline.Key(components.LinearRegressorName)), quiet())
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, model.Floats(y)))
	return p, X, model.Floats(y)
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pipelines.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openStore(t)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	p, X, y := fittedPipeline(t)
	scores, err := p.Score(X, y)
	require.NoError(t, err)

	require.NoError(t, s.Put("linear", p, scores))

	loaded, err := s.Get("linear", quiet())
	require.NoError(t, err)
	assert.True(t, loaded.IsFitted())
	got, err := loaded.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, scores, got)

	e, err := s.Entry("linear")
	require.NoError(t, err)
	assert.Equal(t, "linear", e.Name)
	assert.Equal(t, p.ID(), e.PipelineID)
	assert.Equal(t, p.Name(), e.Pipeline)
	assert.Equal(t, "regression", e.ProblemType)
	assert.Equal(t, p.Objective().Name(), e.Objective)
	assert.True(t, e.Fitted)
	assert.Equal(t, scores, e.Scores)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), e.SavedAt)
}

func TestListBestDelete(t *testing.T) {
	s := openStore(t)
	p, _, _ := fittedPipeline(t)
	require.NoError(t, s.Put("b", p, map[string]float64{"R2": 0.7, "MAE": 2}))
	require.NoError(t, s.Put("a", p, map[string]float64{"R2": 0.9, "MAE": 3}))
	require.NoError(t, s.Put("c", p, nil))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{entries[0].Name, entries[1].Name, entries[2].Name})

	best, err := s.Best("R2", true)
	require.NoError(t, err)
	assert.Equal(t, "a", best.Name)
	best, err = s.Best("MAE", false)
	require.NoError(t, err)
	assert.Equal(t, "b", best.Name)
	_, err = s.Best("AUC", true)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Delete("a"))
	_, err = s.Get("a")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Entry("a")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete("a"), ErrNotFound))

	entries, err = s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPutValidation(t *testing.T) {
	s := openStore(t)
	p, _, _ := fittedPipeline(t)
	var ve *errors.ValidationError
	assert.True(t, errors.As(s.Put("", p, nil), &ve))
	assert.Error(t, s.Put("x", nil, nil))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.db")
	s, err := Open(path)
	require.NoError(t, err)
	p, _, _ := fittedPipeline(t)
	require.NoError(t, s.Put("kept", p, nil))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Name)
}
