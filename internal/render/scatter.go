package render

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"spatialbench/internal/overlap"
)

var (
	gray = color.NRGBA{R: 128, G: 128, B: 128, A: 200}
	red  = color.NRGBA{R: 220, G: 20, B: 20, A: 255}
)

// Axis names one side of a two-method plot.
type Axis struct {
	Method string
	Stat   string
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func points(pairs []overlap.Pair, xy func(overlap.Pair) (float64, float64)) plotter.XYs {
	out := make(plotter.XYs, 0, len(pairs))
	for _, p := range pairs {
		x, y := xy(p)
		if finite(x, y) {
			out = append(out, plotter.XY{X: x, Y: y})
		}
	}
	return out
}

func addScatter(p *plot.Plot, xys plotter.XYs, c color.Color, legend string) error {
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)
	if legend != "" {
		p.Legend.Add(legend, s)
	}
	return nil
}

// Scatter plots method A's statistic against method B's for every gene in
// both tables, highlighting genes significant for both methods.
func Scatter(path string, pairs []overlap.Pair, x, y Axis) error {
	shared := lo.Filter(pairs, func(p overlap.Pair, _ int) bool { return p.Shared })
	rest := lo.Filter(pairs, func(p overlap.Pair, _ int) bool { return !p.Shared })
	value := func(p overlap.Pair) (float64, float64) { return p.A, p.B }

	p := plot.New()
	p.Title.Text = "Scatter: " + x.Method + " vs " + y.Method + " statistics"
	p.X.Label.Text = x.Method + " statistic (" + x.Stat + ")"
	p.Y.Label.Text = y.Method + " statistic (" + y.Stat + ")"
	if err := addScatter(p, points(rest, value), gray, "other"); err != nil {
		return errors.Wrap(err, "scatter")
	}
	if err := addScatter(p, points(shared, value), red, "significant in both"); err != nil {
		return errors.Wrap(err, "scatter")
	}
	return save(p, path, 7*vg.Inch, 6*vg.Inch)
}

// RankRank plots descending ranks of both statistics against each other with
// both axes inverted, so the top-ranked genes sit in the upper right.
func RankRank(path string, pairs []overlap.Pair, x, y Axis) error {
	p := plot.New()
	p.Title.Text = "Rank-Rank Plot (" + x.Method + " vs " + y.Method + ")"
	p.X.Label.Text = x.Method + " rank"
	p.Y.Label.Text = y.Method + " rank"
	xys := points(pairs, func(p overlap.Pair) (float64, float64) { return p.RankA, p.RankB })
	if err := addScatter(p, xys, color.NRGBA{R: 31, G: 119, B: 180, A: 150}, ""); err != nil {
		return errors.Wrap(err, "rank-rank")
	}
	p.X.Scale = plot.InvertedScale{Normalizer: p.X.Scale}
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	return save(p, path, 7*vg.Inch, 6*vg.Inch)
}

func save(p *plot.Plot, path string, w, h vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
