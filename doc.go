// Package goautoml builds, fits and inspects machine learning pipelines
// described as component graphs.
//
// A pipeline is either a linear chain of components or an explicit graph
// whose nodes read "X", "y" or another node's ".x"/".y" output. The last
// node is an estimator; everything before it is a transformer or sampler.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/goautoml/components"
//	    "github.com/YuminosukeSato/goautoml/core/model"
//	    "github.com/YuminosukeSato/goautoml/pipeline"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	    y := model.Floats([]float64{2, 4, 6, 8})
//
//	    p, err := pipeline.Build(model.Regression, pipeline.Linear(
//	        pipeline.Key(components.StandardScalerName),
//	        pipeline.Key(components.LinearRegressorName),
//	    ))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := p.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//	    scores, _ := p.Score(X, y)
//	    fmt.Println(scores)
//	}
//
// # Packages
//
//   - pipeline: graph resolution, fit/predict/score, stacking, persistence
//   - understanding: confusion matrices per decision threshold
//   - components: registered transformers, samplers and estimators
//   - objectives: scoring objectives and their registry
//   - datachecks: advisory checks on the target
//   - dataset, config, store: CSV input, YAML run files, saved pipelines
//   - metrics, preprocessing, linear, sklearn/linear_model: numeric kernels
//   - core/model, core/parallel: shared types and n_jobs handling
//   - pkg/errors, pkg/log, pkg/monitor: errors, logging, prometheus metrics
//
// The automl command under cmd/automl runs a whole fit from a YAML file.
package goautoml
