// Package dataset reads tabular training data.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// Frame is a feature matrix plus target. Non-numeric feature columns are
// ordinal coded; their indices are listed in Categorical and their levels
// in Levels.
type Frame struct {
	Columns     []string
	X           *mat.Dense
	Y           model.Target
	Categorical []int
	Levels      map[int][]string
}

// missing cells become NaN
var missing = map[string]bool{"": true, "NA": true, "NaN": true, "nan": true, "null": true}

// ReadCSVFile opens path and calls ReadCSV.
func ReadCSVFile(path, target string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()
	return ReadCSV(f, target)
}

// ReadCSV reads a CSV with a header row. The target column becomes Y:
// numeric when every non-missing value parses as a float, labels
// otherwise. An empty target name reads features only.
func ReadCSV(r io.Reader, target string) (*Frame, error) {
	const op = "dataset.ReadCSV"
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	if len(records) < 2 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	header, rows := records[0], records[1:]

	targetCol := -1
	var features []int
	for i, name := range header {
		if name == target && target != "" {
			targetCol = i
			continue
		}
		features = append(features, i)
	}
	if target != "" && targetCol < 0 {
		return nil, errors.NewValueError(op, fmt.Sprintf("target column %q not found", target))
	}
	if len(features) == 0 {
		return nil, errors.NewValueError(op, "no feature columns")
	}

	frame := &Frame{X: mat.NewDense(len(rows), len(features), nil), Levels: make(map[int][]string)}
	for j, col := range features {
		frame.Columns = append(frame.Columns, header[col])
		values, levels := parseColumn(rows, col)
		frame.X.SetCol(j, values)
		if levels != nil {
			frame.Categorical = append(frame.Categorical, j)
			frame.Levels[j] = levels
			errors.Warn(errors.NewDataConversionWarning("string", "ordinal",
				fmt.Sprintf("column %q has %d non-numeric levels", header[col], len(levels))))
		}
	}
	if targetCol >= 0 {
		frame.Y = parseTarget(rows, targetCol)
	}
	return frame, nil
}

// parseColumn returns the column as floats, or ordinal codes plus the
// sorted levels when any present value is not numeric.
func parseColumn(rows [][]string, col int) ([]float64, []string) {
	values := make([]float64, len(rows))
	numeric := true
	for i, row := range rows {
		s := strings.TrimSpace(row[col])
		if missing[s] {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			numeric = false
			break
		}
		values[i] = v
	}
	if numeric {
		return values, nil
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		if s := strings.TrimSpace(row[col]); !missing[s] {
			seen[s] = true
		}
	}
	levels := make([]string, 0, len(seen))
	for s := range seen {
		levels = append(levels, s)
	}
	sort.Strings(levels)
	code := make(map[string]int, len(levels))
	for i, s := range levels {
		code[s] = i
	}
	for i, row := range rows {
		s := strings.TrimSpace(row[col])
		if missing[s] {
			values[i] = math.NaN()
		} else {
			values[i] = float64(code[s])
		}
	}
	return values, levels
}

func parseTarget(rows [][]string, col int) model.Target {
	values := make([]float64, len(rows))
	labels := make([]string, len(rows))
	numeric := true
	for i, row := range rows {
		s := strings.TrimSpace(row[col])
		labels[i] = s
		if !numeric {
			continue
		}
		if missing[s] {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			numeric = false
			continue
		}
		values[i] = v
	}
	if numeric {
		return model.Floats(values)
	}
	return model.Labels(labels)
}
