package understanding

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/pkg/log"
	"github.com/YuminosukeSato/goautoml/pkg/monitor"
)

const binaryPipelineMessage = "Expected a fitted binary classification pipeline"

// DefaultTopK is the number of row indices kept per bin.
const DefaultTopK = 5

// BinaryPipeline is what the sweep needs from a pipeline.
// *pipeline.Pipeline implements it.
type BinaryPipeline interface {
	Name() string
	ProblemType() model.ProblemType
	IsFitted() bool
	// PredictProba の最後の列を正例の確率として扱う
	PredictProba(X mat.Matrix) (*mat.Dense, error)
	// EncodeTargets maps y to 0/1 with 1 for the positive class.
	EncodeTargets(y model.Target) (*mat.VecDense, error)
}

type sweepConfig struct {
	bins    int // 0 = auto
	topK    int
	logger  log.Logger
	metrics *monitor.Metrics
}

// Option configures FindConfusionMatrixPerThresholds.
type Option func(*sweepConfig)

// WithBins sets the number of equal-width bins. Without it the count is
// chosen by AutoBinCount over the positive-class probabilities of the
// truly positive rows.
func WithBins(n int) Option { return func(c *sweepConfig) { c.bins = n } }

// WithTopK sets how many row indices are kept per bin; -1 keeps all.
func WithTopK(k int) Option { return func(c *sweepConfig) { c.topK = k } }

func WithLogger(l log.Logger) Option { return func(c *sweepConfig) { c.logger = l } }

func WithMetrics(m *monitor.Metrics) Option { return func(c *sweepConfig) { c.metrics = m } }

// FindConfusionMatrixPerThresholds bins the predicted positive-class
// probability of every row of X separately for positive and negative rows,
// then treats each bin edge as a candidate threshold. Labels only matter
// through p.EncodeTargets, so renaming the classes leaves the result
// unchanged.
func FindConfusionMatrixPerThresholds(p BinaryPipeline, X mat.Matrix, y model.Target, opts ...Option) (*SweepResult, error) {
	const op = "understanding.FindConfusionMatrixPerThresholds"
	cfg := sweepConfig{topK: DefaultTopK}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("understanding")
	}

	if p == nil || !p.IsFitted() || !p.ProblemType().IsBinary() {
		return nil, errors.NewValueError(op, binaryPipelineMessage)
	}
	if cfg.bins < 0 {
		return nil, errors.NewValidationError("n_bins", "must be a positive integer", cfg.bins)
	}
	if cfg.topK == 0 || cfg.topK < -1 {
		return nil, errors.NewValidationError("top_k", "must be positive or -1", cfg.topK)
	}
	start := time.Now()

	proba, err := p.PredictProba(X)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	yEnc, err := p.EncodeTargets(y)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	rows, cols := proba.Dims()
	if yEnc.Len() != rows {
		return nil, errors.NewDimensionError(op, rows, yEnc.Len(), 0)
	}

	probs := make([]float64, rows)
	var pos, neg []float64
	for i := range probs {
		probs[i] = proba.At(i, cols-1)
		if yEnc.AtVec(i) == 1 {
			pos = append(pos, probs[i])
		} else {
			neg = append(neg, probs[i])
		}
	}

	bins := cfg.bins
	if bins == 0 {
		bins = AutoBinCount(pos)
	}
	edges, err := BinEdges(bins)
	if err != nil {
		return nil, err
	}
	posBins, err := Histogram(pos, edges)
	if err != nil {
		return nil, err
	}
	negBins, err := Histogram(neg, edges)
	if err != nil {
		return nil, err
	}
	matrices, best, err := ConfusionMatrixObjectiveThreshold(posBins, negBins, edges)
	if err != nil {
		return nil, err
	}
	data, err := FindDataBetweenRanges(probs, edges, cfg.topK)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Objectives: best, Rows: make([]BinRecord, bins)}
	for i := range result.Rows {
		result.Rows[i] = BinRecord{
			LowerEdge:       edges[i],
			PosBins:         posBins[i],
			NegBins:         negBins[i],
			ConfusionMatrix: matrices[i],
			DataInBins:      data[i],
		}
	}

	cfg.metrics.ObserveSweep(bins)
	cfg.logger.Info("threshold sweep finished",
		log.OperationKey, log.OperationSweep,
		log.PipelineNameKey, p.Name(),
		log.SamplesKey, rows,
		log.BinsKey, bins,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// ConfusionMatrixObjectiveThreshold walks the bins from the lowest edge
// and, after adding bin i to the running counts, builds the confusion
// matrix for a threshold at that point: rows still above count as
// predicted positive. Each objective keeps the first edge where it reaches
// its maximum; the search starts from a value of 0 at threshold 0.
func ConfusionMatrixObjectiveThreshold(posBins, negBins []int, edges []float64) ([]ConfusionMatrix, map[string]ObjectiveBest, error) {
	const op = "understanding.ConfusionMatrixObjectiveThreshold"
	if len(posBins) != len(negBins) || len(edges) != len(posBins)+1 {
		return nil, nil, errors.NewValueError(op,
			fmt.Sprintf("got %d positive bins, %d negative bins and %d edges", len(posBins), len(negBins), len(edges)))
	}
	var totalPos, totalNeg int
	for i := range posBins {
		totalPos += posBins[i]
		totalNeg += negBins[i]
	}

	best := make(map[string]ObjectiveBest, len(SweepObjectives))
	for _, o := range SweepObjectives {
		best[o.Name] = ObjectiveBest{}
	}
	matrices := make([]ConfusionMatrix, len(posBins))
	var cumPos, cumNeg int
	for i := range posBins {
		cumPos += posBins[i]
		cumNeg += negBins[i]
		cm := ConfusionMatrix{totalPos - cumPos, cumNeg, totalNeg - cumNeg, cumPos}
		matrices[i] = cm
		for _, o := range SweepObjectives {
			if v := o.Fn(cm); v > best[o.Name].Value {
				best[o.Name] = ObjectiveBest{Value: v, Threshold: edges[i]}
			}
		}
	}
	return matrices, best, nil
}
