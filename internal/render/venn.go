package render

import (
	"image/color"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"spatialbench/internal/overlap"
)

var (
	colorA = color.NRGBA{R: 31, G: 119, B: 180, A: 110}
	colorB = color.NRGBA{R: 214, G: 39, B: 40, A: 110}
)

// circle is a filled disc in data coordinates.
type circle struct {
	X, Y, R float64
	Fill    color.Color
	Line    draw.LineStyle
}

const circleSegments = 180

// Plot implements plot.Plotter.
func (c circle) Plot(canvas draw.Canvas, plt *plot.Plot) {
	if c.R <= 0 {
		return
	}
	trX, trY := plt.Transforms(&canvas)
	pts := make([]vg.Point, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		theta := 2 * math.Pi * float64(i) / circleSegments
		pts = append(pts, vg.Point{
			X: trX(c.X + c.R*math.Cos(theta)),
			Y: trY(c.Y + c.R*math.Sin(theta)),
		})
	}
	canvas.FillPolygon(c.Fill, pts)
	canvas.StrokeLines(c.Line, pts)
}

// DataRange implements plot.DataRanger.
func (c circle) DataRange() (xmin, xmax, ymin, ymax float64) {
	return c.X - c.R, c.X + c.R, c.Y - c.R, c.Y + c.R
}

// lensArea is the intersection area of two circles whose centres are d apart.
func lensArea(r1, r2, d float64) float64 {
	switch {
	case d >= r1+r2:
		return 0
	case d <= math.Abs(r1-r2):
		r := math.Min(r1, r2)
		return math.Pi * r * r
	}
	a1 := r1 * r1 * math.Acos((d*d+r1*r1-r2*r2)/(2*d*r1))
	a2 := r2 * r2 * math.Acos((d*d+r2*r2-r1*r1)/(2*d*r2))
	k := 0.5 * math.Sqrt((-d+r1+r2)*(d+r1-r2)*(d-r1+r2)*(d+r1+r2))
	return a1 + a2 - k
}

// vennLayout returns radii and centre distance of two area-proportional
// circles. The larger circle has radius 1.
func vennLayout(onlyA, onlyB, both int) (ra, rb, d float64) {
	sizeA, sizeB := float64(onlyA+both), float64(onlyB+both)
	largest := math.Max(sizeA, sizeB)
	if largest == 0 {
		return 0, 0, 0
	}
	ra, rb = math.Sqrt(sizeA/largest), math.Sqrt(sizeB/largest)
	target := math.Pi * float64(both) / largest

	lo, hi := math.Abs(ra-rb), ra+rb
	if both == 0 {
		return ra, rb, hi * 1.05
	}
	for i := 0; i < 64; i++ {
		mid := (lo + hi) / 2
		if lensArea(ra, rb, mid) > target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return ra, rb, (lo + hi) / 2
}

// Venn renders the two significant-gene sets as an area-proportional
// two-circle diagram labelled with the exclusive and shared counts.
func Venn(path, title string, r overlap.Result) error {
	ra, rb, d := vennLayout(len(r.OnlyA), len(r.OnlyB), len(r.Both))
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	outline := draw.LineStyle{Color: color.Black, Width: vg.Points(1)}
	a := circle{X: 0, Y: 0, R: ra, Fill: colorA, Line: outline}
	b := circle{X: d, Y: 0, R: rb, Fill: colorB, Line: outline}
	p.Add(a, b)

	// Pad the range so the diagram stays round on a square canvas.
	span := math.Max(d+rb+ra, 2*math.Max(ra, rb))
	if span == 0 {
		span = 1
	}
	mid := (d + rb - ra) / 2
	p.X.Min, p.X.Max = mid-span*0.6, mid+span*0.6
	p.Y.Min, p.Y.Max = -span*0.6, span*0.6

	left, right := -ra/2, d+rb/2
	if d < math.Abs(ra-rb) {
		left, right = -ra*0.8, d+rb*0.8
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs: plotter.XYs{
			{X: left, Y: 0},
			{X: right, Y: 0},
			{X: (d + ra - rb) / 2, Y: 0},
			{X: 0, Y: ra * 1.08},
			{X: d, Y: rb * 1.08},
		},
		Labels: []string{
			strconv.Itoa(len(r.OnlyA)),
			strconv.Itoa(len(r.OnlyB)),
			strconv.Itoa(len(r.Both)),
			r.NameA,
			r.NameB,
		},
	})
	if err != nil {
		return errors.Wrap(err, "venn labels")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
	}
	p.Add(labels)
	return save(p, path, 6*vg.Inch, 6*vg.Inch)
}
