package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/objectives"
	"github.com/YuminosukeSato/goautoml/pipeline"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

const linearYAML = `
data:
  path: data/churn.csv
  target: churn
problem_type: binary
pipeline:
  name: churn model
  components:
    - component: Simple Imputer
    - component: One Hot Encoder
      parameters:
        features_to_encode: [1]
    - component: Standard Scaler
    - component: Logistic Regression Classifier
      parameters:
        C: 2
objective:
  name: F1
random_seed: 7
threshold: 0.4
sweep:
  bins: auto
  top_k: -1
output:
  model_path: out/model.bin
log_level: debug
`

// chdir moves into dir so Load sees only the .env written there.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestParseLinear(t *testing.T) {
	cfg, err := Parse([]byte(linearYAML))
	require.NoError(t, err)

	assert.Equal(t, "churn", cfg.Data.Target)
	assert.Equal(t, model.Binary, cfg.ParsedProblemType())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, int64(7), cfg.RandomSeed)
	assert.Equal(t, -1, cfg.NJobs, "n_jobs defaults to -1")
	assert.True(t, cfg.Sweep.Enabled)
	assert.Equal(t, BinCount(0), cfg.Sweep.Bins)
	assert.Equal(t, -1, cfg.Sweep.TopK)
	require.NotNil(t, cfg.Threshold)
	assert.InDelta(t, 0.4, *cfg.Threshold, 1e-12)
	assert.False(t, cfg.isGraph())
}

func TestBuildFromConfig(t *testing.T) {
	cfg, err := Parse([]byte(linearYAML))
	require.NoError(t, err)
	opts, err := cfg.PipelineOptions()
	require.NoError(t, err)

	p, err := pipeline.Build(cfg.ParsedProblemType(), cfg.PipelineSpec(), opts...)
	require.NoError(t, err)
	assert.Equal(t, "churn model", p.Name())
	assert.Equal(t, objectives.F1Name, p.Objective().Name())
	assert.Equal(t, int64(7), p.RandomSeed())
	th, ok := p.Threshold()
	assert.True(t, ok)
	assert.InDelta(t, 0.4, th, 1e-12)

	params := p.Parameters()
	assert.Equal(t, []int{1}, params["One Hot Encoder"]["features_to_encode"])
	c, err := params["Logistic Regression Classifier"].Float("C", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, c)
}

func TestBuildGraphFromConfig(t *testing.T) {
	data := `
data: {path: d.csv, target: y}
problem_type: regression
pipeline:
  components:
    - name: scale
      component: Standard Scaler
      inputs: [X, y]
    - name: model
      component: Linear Regressor
      inputs: [scale.x, y]
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.True(t, cfg.isGraph())
	opts, err := cfg.PipelineOptions()
	require.NoError(t, err)
	p, err := pipeline.Build(cfg.ParsedProblemType(), cfg.PipelineSpec(), opts...)
	require.NoError(t, err)
	assert.Equal(t, []string{"scale", "model"}, p.Graph().Order())
}

func TestDuplicateComponentParameters(t *testing.T) {
	cfg := Default()
	cfg.Data = DataConfig{Path: "d.csv", Target: "y"}
	cfg.ProblemType = "regression"
	cfg.Pipeline.Components = []ComponentConfig{
		{Component: "Standard Scaler"},
		{Component: "Standard Scaler"},
		{Component: "Linear Regressor"},
	}
	assert.Equal(t, []string{"Standard Scaler_0", "Standard Scaler_1", "Linear Regressor"}, cfg.nodeNames())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Data = DataConfig{Path: "d.csv", Target: "y"}
		cfg.Pipeline.Components = []ComponentConfig{{Component: "Logistic Regression Classifier"}}
		return cfg
	}
	require.NoError(t, valid().Validate())

	half := 1.5
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no path", func(c *Config) { c.Data.Path = "" }},
		{"no target", func(c *Config) { c.Data.Target = "" }},
		{"problem type", func(c *Config) { c.ProblemType = "clustering" }},
		{"no components", func(c *Config) { c.Pipeline.Components = nil }},
		{"unknown component", func(c *Config) { c.Pipeline.Components[0].Component = "Random Forest" }},
		{"n_jobs", func(c *Config) { c.NJobs = 0 }},
		{"threshold", func(c *Config) { c.Threshold = &half }},
		{"bins", func(c *Config) { c.Sweep.Bins = -3 }},
		{"top_k zero", func(c *Config) { c.Sweep.TopK = 0 }},
		{"top_k", func(c *Config) { c.Sweep.TopK = -2 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"partial graph", func(c *Config) {
			c.Pipeline.Components = []ComponentConfig{
				{Name: "s", Component: "Standard Scaler"},
				{Component: "Logistic Regression Classifier", Inputs: []string{"s.x", "y"}},
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			var ve *errors.ValidationError
			assert.True(t, errors.As(cfg.Validate(), &ve), "expected ValidationError")
		})
	}

	cfg := valid()
	cfg.Objective.Name = "Nope"
	var ue *errors.UnregisteredTypeError
	assert.True(t, errors.As(cfg.Validate(), &ue))
}

func TestBinCountYAML(t *testing.T) {
	var s SweepConfig
	require.NoError(t, yaml.Unmarshal([]byte("bins: 25"), &s))
	assert.Equal(t, BinCount(25), s.Bins)
	require.NoError(t, yaml.Unmarshal([]byte("bins: AUTO"), &s))
	assert.Equal(t, BinCount(0), s.Bins)
	assert.Error(t, yaml.Unmarshal([]byte("bins: lots"), &s))

	out, err := yaml.Marshal(SweepConfig{Bins: 0, TopK: 5})
	require.NoError(t, err)
	assert.Contains(t, string(out), "bins: auto")
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "automl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(linearYAML), 0o600))

	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUTOML_STORE_PATH=from-dotenv.db\n"), 0o600))
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvRandomSeed, "99")
	t.Setenv(EnvNJobs, "2")
	t.Setenv(EnvStorePath, "")
	os.Unsetenv(EnvStorePath)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, int64(99), cfg.RandomSeed)
	assert.Equal(t, 2, cfg.NJobs)
	assert.Equal(t, "from-dotenv.db", cfg.Output.StorePath)
}

func TestLoadErrors(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvConfig, "")

	_, err := Load("")
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(linearYAML), 0o600))
	t.Setenv(EnvRandomSeed, "seven")
	_, err = Load(path)
	assert.Error(t, err)
}
