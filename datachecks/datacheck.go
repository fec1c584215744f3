// Package datachecks runs advisory checks over input data. Checks never
// fail: problems come back as warnings and errors in Results, together
// with suggested actions.
package datachecks

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/log"
)

// Level is the severity of a Message.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// MessageCode identifies the kind of problem found.
type MessageCode string

const (
	CodeTargetIsNone                MessageCode = "TARGET_IS_NONE"
	CodeTargetUnsupportedType       MessageCode = "TARGET_UNSUPPORTED_TYPE"
	CodeTargetLognormalDistribution MessageCode = "TARGET_LOGNORMAL_DISTRIBUTION"
	CodeDatetimeUnevenIntervals     MessageCode = "DATETIME_HAS_UNEVEN_INTERVALS"
)

// ActionCode names a suggested fix.
type ActionCode string

const ActionTransformTarget ActionCode = "TRANSFORM_TARGET"

// Message is one finding of a data check.
type Message struct {
	Message       string                 `json:"message"`
	DataCheckName string                 `json:"data_check_name"`
	Level         Level                  `json:"level"`
	Code          MessageCode            `json:"code"`
	Details       map[string]interface{} `json:"details"`
}

// Action is a suggested fix for a finding.
type Action struct {
	Code     ActionCode             `json:"code"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Results collects what a check found.
type Results struct {
	Warnings []Message `json:"warnings"`
	Errors   []Message `json:"errors"`
	Actions  []Action  `json:"actions"`
}

func newResults() Results {
	return Results{Warnings: []Message{}, Errors: []Message{}, Actions: []Action{}}
}

func (r *Results) addError(check string, code MessageCode, msg string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	r.Errors = append(r.Errors, Message{Message: msg, DataCheckName: check, Level: LevelError, Code: code, Details: details})
}

func (r *Results) addWarning(check string, code MessageCode, msg string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	r.Warnings = append(r.Warnings, Message{Message: msg, DataCheckName: check, Level: LevelWarning, Code: code, Details: details})
}

// Empty reports whether nothing was found.
func (r Results) Empty() bool {
	return len(r.Warnings) == 0 && len(r.Errors) == 0 && len(r.Actions) == 0
}

// DataCheck inspects X and y. X may be nil for target-only checks.
type DataCheck interface {
	Name() string
	Validate(X mat.Matrix, y model.Target) Results
}

// DataChecks runs several checks and merges their results.
type DataChecks []DataCheck

// DefaultChecks returns the checks that apply to problemType.
func DefaultChecks(problemType model.ProblemType) DataChecks {
	if problemType.IsRegression() {
		return DataChecks{TargetDistributionDataCheck{}}
	}
	return DataChecks{}
}

// Validate runs every check in order.
func (dc DataChecks) Validate(X mat.Matrix, y model.Target) Results {
	logger := log.GetLoggerWithName("datachecks")
	out := newResults()
	for _, c := range dc {
		r := c.Validate(X, y)
		out.Warnings = append(out.Warnings, r.Warnings...)
		out.Errors = append(out.Errors, r.Errors...)
		out.Actions = append(out.Actions, r.Actions...)
		logger.Debug("data check finished", "data_check", c.Name(),
			"warnings", len(r.Warnings), "errors", len(r.Errors))
	}
	return out
}
