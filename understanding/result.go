package understanding

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// BinRecord is one row of the sweep table, keyed by the bin's lower edge.
type BinRecord struct {
	LowerEdge       float64         `json:"lower_edge"`
	PosBins         int             `json:"pos_bins"`
	NegBins         int             `json:"neg_bins"`
	ConfusionMatrix ConfusionMatrix `json:"confusion_matrix"`
	DataInBins      []int           `json:"data_in_bins"`
}

// SweepResult is the output of FindConfusionMatrixPerThresholds.
type SweepResult struct {
	Rows       []BinRecord              `json:"rows"`
	Objectives map[string]ObjectiveBest `json:"objectives"`
}

// Edges returns the lower edge of every bin.
func (r *SweepResult) Edges() []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.LowerEdge
	}
	return out
}

// ToJSON encodes the result; objectives become [value, threshold] pairs.
func (r *SweepResult) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// WriteTable renders the bins followed by the objective summary.
func (r *SweepResult) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "threshold\tpos_bins\tneg_bins\tconfusion_matrix [tp tn fp fn]\tdata_in_bins")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%.4f\t%d\t%d\t%v\t%v\n", row.LowerEdge, row.PosBins, row.NegBins, [4]int(row.ConfusionMatrix), row.DataInBins)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "objective\tbest\tthreshold")
	for _, o := range SweepObjectives {
		best, ok := r.Objectives[o.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%.4f\n", o.Name, best.Value, best.Threshold)
	}
	return tw.Flush()
}

// Table is WriteTable into a string.
func (r *SweepResult) Table() string {
	var b strings.Builder
	_ = r.WriteTable(&b)
	return b.String()
}
