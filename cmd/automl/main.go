// Command automl fits the pipeline described by a YAML config on a CSV
// file, reports its scores and, for binary problems, sweeps the decision
// threshold.
//
//	automl -config automl.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/goautoml/config"
	"github.com/YuminosukeSato/goautoml/datachecks"
	"github.com/YuminosukeSato/goautoml/dataset"
	"github.com/YuminosukeSato/goautoml/pipeline"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/pkg/log"
	"github.com/YuminosukeSato/goautoml/pkg/monitor"
	"github.com/YuminosukeSato/goautoml/store"
	"github.com/YuminosukeSato/goautoml/understanding"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("automl failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

// run is main without the exit; logs go to logOut, reports to out.
func run(args []string, out, logOut io.Writer) error {
	fs := flag.NewFlagSet("automl", flag.ContinueOnError)
	fs.SetOutput(logOut)
	configPath := fs.String("config", "", "YAML config file (default $"+config.EnvConfig+")")
	skipChecks := fs.Bool("skip-checks", false, "fit even when data checks report errors")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// ログのセットアップ
	log.SetupLoggerTo(logOut, cfg.LogLevel)
	logger := log.GetLoggerWithName("automl")

	frame, err := dataset.ReadCSVFile(cfg.Data.Path, cfg.Data.Target)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", log.SamplesKey, frame.Y.Len(), log.FeaturesKey, len(frame.Columns))

	problemType := cfg.ParsedProblemType()
	results := datachecks.DefaultChecks(problemType).Validate(frame.X, frame.Y)
	reportChecks(out, results)
	if len(results.Errors) > 0 && !*skipChecks {
		return errors.NewValueError("automl", fmt.Sprintf("data checks reported %d error(s)", len(results.Errors)))
	}

	registry := prometheus.NewRegistry()
	metrics := monitor.NewWithRegistry(registry)
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	opts = append(opts, pipeline.WithLogger(logger), pipeline.WithMetrics(metrics))

	p, err := pipeline.Build(problemType, cfg.PipelineSpec(), opts...)
	if err != nil {
		return err
	}
	if err := p.Fit(frame.X, frame.Y); err != nil {
		return err
	}
	if err := p.DescribeTo(out); err != nil {
		return err
	}

	scores, err := p.Score(frame.X, frame.Y)
	if err != nil {
		return err
	}
	reportScores(out, scores)

	if problemType.IsBinary() && cfg.Sweep.Enabled {
		if err := sweep(out, cfg, p, frame, logger, metrics); err != nil {
			return err
		}
	}

	if cfg.Output.ModelPath != "" {
		if err := pipeline.Save(p, cfg.Output.ModelPath); err != nil {
			return err
		}
		logger.Info("model saved", "path", cfg.Output.ModelPath)
	}
	if cfg.Output.StorePath != "" {
		if err := saveToStore(cfg, p, scores); err != nil {
			return err
		}
		logger.Info("model stored", "path", cfg.Output.StorePath)
	}
	if cfg.Output.MetricsPath != "" {
		if err := monitor.WriteTextfile(cfg.Output.MetricsPath, registry); err != nil {
			return err
		}
	}
	return nil
}

func sweep(out io.Writer, cfg config.Config, p *pipeline.Pipeline, frame *dataset.Frame, logger log.Logger, m *monitor.Metrics) error {
	opts := []understanding.Option{
		understanding.WithTopK(cfg.Sweep.TopK),
		understanding.WithLogger(logger),
		understanding.WithMetrics(m),
	}
	if cfg.Sweep.Bins > 0 {
		opts = append(opts, understanding.WithBins(int(cfg.Sweep.Bins)))
	}
	result, err := understanding.FindConfusionMatrixPerThresholds(p, frame.X, frame.Y, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Threshold sweep")
	fmt.Fprintln(out, "===============")
	if err := result.WriteTable(out); err != nil {
		return err
	}
	if cfg.Output.PlotPath != "" {
		if err := understanding.PlotBins(result, cfg.Output.PlotPath); err != nil {
			return err
		}
		logger.Info("sweep plot saved", "path", cfg.Output.PlotPath)
	}
	return nil
}

func saveToStore(cfg config.Config, p *pipeline.Pipeline, scores map[string]float64) error {
	s, err := store.Open(cfg.Output.StorePath)
	if err != nil {
		return err
	}
	defer s.Close()
	name := cfg.Output.StoreName
	if name == "" {
		name = p.Name()
	}
	return s.Put(name, p, scores)
}

func reportChecks(out io.Writer, r datachecks.Results) {
	if r.Empty() {
		return
	}
	fmt.Fprintln(out, "Data checks")
	fmt.Fprintln(out, "===========")
	for _, m := range r.Errors {
		fmt.Fprintf(out, "error   [%s] %s\n", m.Code, m.Message)
	}
	for _, m := range r.Warnings {
		fmt.Fprintf(out, "warning [%s] %s\n", m.Code, m.Message)
	}
	for _, a := range r.Actions {
		fmt.Fprintf(out, "action  %s %v\n", a.Code, a.Metadata)
	}
	fmt.Fprintln(out)
}

func reportScores(out io.Writer, scores map[string]float64) {
	names := make([]string, 0, len(scores))
	for k := range scores {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Scores")
	fmt.Fprintln(out, "======")
	for _, k := range names {
		fmt.Fprintf(out, "%s: %.6f\n", k, scores[k])
	}
}
