package understanding

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// PlotBins draws positive and negative counts per bin as grouped bars and
// saves the figure to path. The format follows the extension (.png, .svg,
// .pdf, ...).
func PlotBins(r *SweepResult, path string) error {
	if r == nil || len(r.Rows) == 0 {
		return errors.NewValueError("understanding.PlotBins", "empty sweep result")
	}
	pos := make(plotter.Values, len(r.Rows))
	neg := make(plotter.Values, len(r.Rows))
	labels := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		pos[i] = float64(row.PosBins)
		neg[i] = float64(row.NegBins)
		labels[i] = fmt.Sprintf("%.2f", row.LowerEdge)
	}

	p := plot.New()
	p.Title.Text = "Predicted probability of the positive class"
	p.X.Label.Text = "bin lower edge"
	p.Y.Label.Text = "rows"

	w := vg.Points(8)
	posBars, err := plotter.NewBarChart(pos, w)
	if err != nil {
		return errors.Wrap(err, "understanding.PlotBins")
	}
	posBars.Color = plotutil.Color(0)
	posBars.LineStyle.Width = vg.Length(0)
	posBars.Offset = -w / 2

	negBars, err := plotter.NewBarChart(neg, w)
	if err != nil {
		return errors.Wrap(err, "understanding.PlotBins")
	}
	negBars.Color = plotutil.Color(1)
	negBars.LineStyle.Width = vg.Length(0)
	negBars.Offset = w / 2

	p.Add(posBars, negBars)
	p.Legend.Add("positive", posBars)
	p.Legend.Add("negative", negBars)
	p.Legend.Top = true
	p.NominalX(labels...)

	width := vg.Length(len(r.Rows)) * 2 * w
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "understanding.PlotBins: save %s", path)
	}
	return nil
}
