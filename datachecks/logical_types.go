package datachecks

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// LogicalType is the inferred kind of a column, named by its type string.
type LogicalType string

const (
	Integer     LogicalType = "integer"
	Double      LogicalType = "double"
	Boolean     LogicalType = "boolean"
	Datetime    LogicalType = "datetime"
	Categorical LogicalType = "categorical"
	Unknown     LogicalType = "unknown"
)

func (l LogicalType) String() string { return string(l) }

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
}

func parseDatetime(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferLogicalType guesses the logical type of y. Missing values (NaN or
// empty labels) are ignored. Numeric values that are all whole numbers are
// Integer. Labels are tried as booleans, numbers and datetimes in that
// order; other labels are Categorical when at least one value repeats and
// Unknown otherwise.
func InferLogicalType(y model.Target) LogicalType {
	if y.Len() == 0 {
		return Unknown
	}
	if y.IsNumeric() {
		return numericType(y.Values())
	}

	var present []string
	for _, s := range y.Strings() {
		if s = strings.TrimSpace(s); s != "" {
			present = append(present, s)
		}
	}
	if len(present) == 0 {
		return Unknown
	}

	allBool, allNum, allTime := true, true, true
	nums := make([]float64, 0, len(present))
	for _, s := range present {
		if allBool {
			switch strings.ToLower(s) {
			case "true", "false":
			default:
				allBool = false
			}
		}
		if allNum {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				allNum = false
			} else {
				nums = append(nums, f)
			}
		}
		if allTime {
			if _, ok := parseDatetime(s); !ok {
				allTime = false
			}
		}
	}
	switch {
	case allBool:
		return Boolean
	case allNum:
		return numericType(nums)
	case allTime:
		return Datetime
	}

	unique := make(map[string]struct{}, len(present))
	for _, s := range present {
		unique[s] = struct{}{}
	}
	if len(unique) < len(present) {
		return Categorical
	}
	return Unknown
}

func numericType(values []float64) LogicalType {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsInf(v, 0) || v != math.Trunc(v) {
			return Double
		}
	}
	return Integer
}

// ParseDatetimes parses every label of y as a datetime.
func ParseDatetimes(y model.Target) ([]time.Time, error) {
	out := make([]time.Time, y.Len())
	for i, s := range y.Strings() {
		t, ok := parseDatetime(strings.TrimSpace(s))
		if !ok {
			return nil, errors.NewValueError("datachecks.ParseDatetimes", "cannot parse "+strconv.Quote(s)+" as a datetime")
		}
		out[i] = t
	}
	return out, nil
}
