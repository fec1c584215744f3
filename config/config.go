// Package config loads the YAML run file of the automl command. Values may
// be overridden from the environment, which is first populated from a
// .env file when one exists.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/objectives"
	"github.com/YuminosukeSato/goautoml/pipeline"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/pkg/log"
)

// Environment overrides.
const (
	EnvConfig     = "AUTOML_CONFIG"
	EnvLogLevel   = "AUTOML_LOG_LEVEL"
	EnvStorePath  = "AUTOML_STORE_PATH"
	EnvRandomSeed = "AUTOML_RANDOM_SEED"
	EnvNJobs      = "AUTOML_N_JOBS"
)

type Config struct {
	Data        DataConfig     `yaml:"data"`
	ProblemType string         `yaml:"problem_type"`
	Pipeline    PipelineConfig `yaml:"pipeline"`
	Objective   ObjectiveSpec  `yaml:"objective"`
	RandomSeed  int64          `yaml:"random_seed"`
	NJobs       int            `yaml:"n_jobs"`
	Threshold   *float64       `yaml:"threshold"`
	Sweep       SweepConfig    `yaml:"sweep"`
	Output      OutputConfig   `yaml:"output"`
	LogLevel    string         `yaml:"log_level"`
}

type DataConfig struct {
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
}

// PipelineConfig lists the components. When no component names its inputs
// the list is a linear chain in the given order; otherwise every component
// must name its inputs and the list describes a graph.
type PipelineConfig struct {
	Name       string            `yaml:"name"`
	Components []ComponentConfig `yaml:"components"`
}

type ComponentConfig struct {
	// Name is the node name in a graph; it defaults to Component.
	Name       string                 `yaml:"name"`
	Component  string                 `yaml:"component"`
	Inputs     []string               `yaml:"inputs"`
	Parameters map[string]interface{} `yaml:"parameters"`
}

type ObjectiveSpec struct {
	Name       string                 `yaml:"name"`
	Parameters map[string]interface{} `yaml:"parameters"`
}

type SweepConfig struct {
	Enabled bool     `yaml:"enabled"`
	Bins    BinCount `yaml:"bins"`
	TopK    int      `yaml:"top_k"`
}

// BinCount is a positive number of bins, or 0 for "auto".
type BinCount int

func (b *BinCount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && strings.EqualFold(value.Value, "auto") {
		*b = 0
		return nil
	}
	var n int
	if err := value.Decode(&n); err != nil {
		return errors.NewValidationError("sweep.bins", "must be a positive integer or \"auto\"", value.Value)
	}
	*b = BinCount(n)
	return nil
}

func (b BinCount) MarshalYAML() (interface{}, error) {
	if b == 0 {
		return "auto", nil
	}
	return int(b), nil
}

type OutputConfig struct {
	ModelPath   string `yaml:"model_path"`
	StorePath   string `yaml:"store_path"`
	StoreName   string `yaml:"store_name"`
	PlotPath    string `yaml:"plot_path"`
	MetricsPath string `yaml:"metrics_path"`
}

// Default returns the settings used for keys missing from the file.
func Default() Config {
	return Config{
		ProblemType: "binary",
		NJobs:       -1,
		Sweep:       SweepConfig{Enabled: true, TopK: 5},
		LogLevel:    "info",
	}
}

// Load reads .env (if present), then the YAML file at path, or at
// $AUTOML_CONFIG when path is empty, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "config: load .env")
	}
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		return Config{}, errors.NewValueError("config.Load", "no config file given and "+EnvConfig+" is not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	cfg, err := parse(data)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "config: validation failed")
	}
	return cfg, nil
}

// Parse decodes and validates YAML without looking at the environment.
func Parse(data []byte) (Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "config: validation failed")
	}
	return cfg, nil
}

func parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: parse yaml")
	}
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Config) applyEnv() error {
	c.LogLevel = getEnvOrDefault(EnvLogLevel, c.LogLevel)
	c.Output.StorePath = getEnvOrDefault(EnvStorePath, c.Output.StorePath)
	if v := os.Getenv(EnvRandomSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.NewValidationError(EnvRandomSeed, "must be an integer", v)
		}
		c.RandomSeed = seed
	}
	if v := os.Getenv(EnvNJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvNJobs, "must be an integer", v)
		}
		c.NJobs = n
	}
	return nil
}

// Validate checks every field that can be checked without the data.
func (c Config) Validate() error {
	if c.Data.Path == "" {
		return errors.NewValidationError("data.path", "is required", c.Data.Path)
	}
	if c.Data.Target == "" {
		return errors.NewValidationError("data.target", "is required", c.Data.Target)
	}
	if _, err := model.ParseProblemType(c.ProblemType); err != nil {
		return errors.NewValidationError("problem_type", err.Error(), c.ProblemType)
	}
	if len(c.Pipeline.Components) == 0 {
		return errors.NewValidationError("pipeline.components", "at least one component is required", nil)
	}
	graph := c.isGraph()
	for i, comp := range c.Pipeline.Components {
		if !components.IsRegistered(comp.Component) {
			return errors.NewValidationError(fmt.Sprintf("pipeline.components[%d].component", i), "unknown component", comp.Component)
		}
		if graph && len(comp.Inputs) == 0 {
			return errors.NewValidationError(fmt.Sprintf("pipeline.components[%d].inputs", i),
				"every component needs inputs when any component names them", comp.Component)
		}
	}
	if c.Objective.Name != "" {
		if _, err := objectives.Get(c.Objective.Name, c.Objective.Parameters); err != nil {
			return err
		}
	}
	if c.NJobs == 0 {
		return errors.NewValidationError("n_jobs", "must be a non-zero integer", c.NJobs)
	}
	if c.Threshold != nil && (*c.Threshold < 0 || *c.Threshold > 1) {
		return errors.NewValidationError("threshold", "must be within [0, 1]", *c.Threshold)
	}
	if c.Sweep.Bins < 0 {
		return errors.NewValidationError("sweep.bins", "must be a positive integer or \"auto\"", int(c.Sweep.Bins))
	}
	if c.Sweep.TopK == 0 || c.Sweep.TopK < -1 {
		return errors.NewValidationError("sweep.top_k", "must be positive or -1", c.Sweep.TopK)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	return nil
}

func (c Config) isGraph() bool {
	for _, comp := range c.Pipeline.Components {
		if len(comp.Inputs) > 0 {
			return true
		}
	}
	return false
}

// ParsedProblemType returns the validated problem type.
func (c Config) ParsedProblemType() model.ProblemType {
	pt, _ := model.ParseProblemType(c.ProblemType)
	return pt
}

// Level returns the validated log level.
func (c Config) Level() slog.Level {
	l, _ := log.ParseLevel(c.LogLevel)
	return l
}

func nodeName(comp ComponentConfig) string {
	if comp.Name != "" {
		return comp.Name
	}
	return comp.Component
}

// PipelineSpec turns the component list into a pipeline.Spec.
func (c Config) PipelineSpec() pipeline.Spec {
	if !c.isGraph() {
		items := make([]pipeline.Item, len(c.Pipeline.Components))
		for i, comp := range c.Pipeline.Components {
			items[i] = pipeline.Key(comp.Component)
		}
		return pipeline.Linear(items...)
	}
	nodes := make([]pipeline.Node, len(c.Pipeline.Components))
	for i, comp := range c.Pipeline.Components {
		nodes[i] = pipeline.Node{Name: nodeName(comp), Component: pipeline.Key(comp.Component), Inputs: comp.Inputs}
	}
	return pipeline.Graph(nodes...)
}

// PipelineOptions builds the options for pipeline.Build. Parameters of a
// linear chain are keyed by node name, which for a repeated component is
// "<component>_<position>".
func (c Config) PipelineOptions() ([]pipeline.Option, error) {
	opts := []pipeline.Option{
		pipeline.WithRandomSeed(c.RandomSeed),
		pipeline.WithNJobs(c.NJobs),
	}
	if c.Pipeline.Name != "" {
		opts = append(opts, pipeline.WithCustomName(c.Pipeline.Name))
	}
	if c.Objective.Name != "" {
		o, err := objectives.Get(c.Objective.Name, c.Objective.Parameters)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithObjective(o))
	}
	if c.Threshold != nil {
		opts = append(opts, pipeline.WithThreshold(*c.Threshold))
	}

	names := c.nodeNames()
	params := make(map[string]model.Parameters)
	for i, comp := range c.Pipeline.Components {
		if len(comp.Parameters) > 0 {
			params[names[i]] = normalize(comp.Parameters)
		}
	}
	if len(params) > 0 {
		opts = append(opts, pipeline.WithParameters(params))
	}
	return opts, nil
}

// nodeNames mirrors the names pipeline.Build gives the configured nodes.
func (c Config) nodeNames() []string {
	names := make([]string, len(c.Pipeline.Components))
	if c.isGraph() {
		for i, comp := range c.Pipeline.Components {
			names[i] = nodeName(comp)
		}
		return names
	}
	count := make(map[string]int)
	for _, comp := range c.Pipeline.Components {
		count[comp.Component]++
	}
	for i, comp := range c.Pipeline.Components {
		names[i] = comp.Component
		if count[comp.Component] > 1 {
			names[i] = comp.Component + "_" + strconv.Itoa(i)
		}
	}
	return names
}

// normalize converts YAML lists of integers to []int so saved pipelines
// keep concrete slice types.
func normalize(in map[string]interface{}) model.Parameters {
	out := make(model.Parameters, len(in))
	for k, v := range in {
		list, ok := v.([]interface{})
		if !ok {
			out[k] = v
			continue
		}
		ints := make([]int, 0, len(list))
		for _, item := range list {
			n, isInt := item.(int)
			if !isInt {
				ints = nil
				break
			}
			ints = append(ints, n)
		}
		if ints != nil {
			out[k] = ints
		} else {
			out[k] = v
		}
	}
	return out
}
