package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/linuxmatters/barrace/internal/chart"
	"github.com/linuxmatters/barrace/internal/config"
	"github.com/linuxmatters/barrace/internal/race"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ErrNoColumns is returned when a renderer is built for a table without
// categories.
var ErrNoColumns = errors.New("renderer: no columns to colour")

// Options style a race frame beyond what the figure and theme carry.
type Options struct {
	Title       chart.TitleSpec
	Ticks       chart.TickFormatter // Value axis labels, nil for the defaults
	Values      chart.TickFormatter // Bar end labels, nil for "{x:,.0f}"
	Orientation string              // "h" or "v"
	Slots       int                 // Category positions on the axis, at least the bars per frame
	Colors      []string
	PeriodFmt   string // Go time layout applied to date-like period labels

	BarLabelSize    float64 // points, 0 uses the theme size
	TickLabelSize   float64
	PeriodLabelSize float64
}

// Frame draws race frames onto the figure's canvas.
type Frame struct {
	fig    *chart.Figure
	opts   Options
	colors []color.Color

	width  int
	height int
}

var framePool = sync.Pool{
	New: func() any { return new(image.RGBA) },
}

// NewFrame prepares a renderer for a table of columns categories. Colours
// are resolved once per column so a category keeps its colour as it
// moves through the ranking.
func NewFrame(fig *chart.Figure, columns int, opts Options) (*Frame, error) {
	if columns <= 0 {
		return nil, ErrNoColumns
	}
	if opts.Orientation == "" {
		opts.Orientation = config.Orientation
	}
	if opts.Orientation != "h" && opts.Orientation != "v" {
		return nil, fmt.Errorf("renderer: orientation must be \"h\" or \"v\", got %q", opts.Orientation)
	}
	if opts.Values == nil {
		values, err := chart.TickTemplate("{x:,.0f}")
		if err != nil {
			return nil, err
		}
		opts.Values = values
	}

	colors := make([]color.Color, columns)
	for i := range colors {
		c, err := chart.ParseColor(config.PaletteColor(opts.Colors, i))
		if err != nil {
			return nil, fmt.Errorf("bar colour for column %d: %w", i, err)
		}
		colors[i] = c
	}

	width, height := fig.Spec.Pixels()
	return &Frame{
		fig:    fig,
		opts:   opts,
		colors: colors,
		width:  width,
		height: height,
	}, nil
}

// Bounds returns the pixel size of every rendered frame.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// Plot lays out one race frame on a fresh plot.
func (f *Frame) Plot(rf race.Frame) (*plot.Plot, error) {
	p := f.fig.NewPlot()
	theme := f.fig.Theme
	f.applyTitle(p)

	slots := f.opts.Slots
	if slots < len(rf.Bars) {
		slots = len(rf.Bars)
	}
	if slots < 1 {
		slots = 1
	}

	horizontal := f.opts.Orientation == "h"
	half := config.BarSize / 2

	// Grid lines sit beneath the bars.
	grid := plotter.NewGrid()
	grid.Horizontal.Color = color.Gray{Y: 0xdd}
	grid.Vertical.Color = color.Gray{Y: 0xdd}
	if horizontal {
		grid.Horizontal.Color = nil
	} else {
		grid.Vertical.Color = nil
	}
	p.Add(grid)

	lo, hi := 0.0, rf.Max
	ticks := make([]plot.Tick, 0, len(rf.Bars))
	ends := make(plotter.XYs, 0, len(rf.Bars))
	labels := make([]string, 0, len(rf.Bars))

	for _, b := range rf.Bars {
		// Rank 0 sits at the top of a horizontal chart and the left of a
		// vertical one.
		pos := float64(b.Rank)
		if horizontal {
			pos = float64(slots - 1 - b.Rank)
		}

		var pts plotter.XYs
		var end plotter.XY
		if horizontal {
			pts = plotter.XYs{{X: 0, Y: pos - half}, {X: b.Value, Y: pos - half}, {X: b.Value, Y: pos + half}, {X: 0, Y: pos + half}}
			end = plotter.XY{X: b.Value, Y: pos}
		} else {
			pts = plotter.XYs{{X: pos - half, Y: 0}, {X: pos + half, Y: 0}, {X: pos + half, Y: b.Value}, {X: pos - half, Y: b.Value}}
			end = plotter.XY{X: pos, Y: b.Value}
		}

		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return nil, fmt.Errorf("bar %q: %w", b.Name, err)
		}
		poly.Color = f.colors[b.Column%len(f.colors)]
		poly.LineStyle.Width = 0
		p.Add(poly)

		ticks = append(ticks, plot.Tick{Value: pos, Label: b.Name})
		ends = append(ends, end)
		labels = append(labels, f.opts.Values(b.Value, b.Rank))
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}

	if len(ends) > 0 {
		values, err := plotter.NewLabels(plotter.XYLabels{XYs: ends, Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("bar labels: %w", err)
		}
		for i := range values.TextStyle {
			style := &values.TextStyle[i]
			style.Font = theme.FontAt(f.opts.BarLabelSize)
			style.Color = theme.TextColor
			if horizontal {
				style.XAlign, style.YAlign = text.XLeft, text.YCenter
			} else {
				style.XAlign, style.YAlign = text.XCenter, text.YBottom
			}
		}
		if horizontal {
			values.Offset = vg.Point{X: vg.Points(config.LabelPad)}
		} else {
			values.Offset = vg.Point{Y: vg.Points(config.LabelPad)}
		}
		p.Add(values)
	}

	if hi <= lo {
		hi = lo + 1
	}
	hi *= 1.05

	period, err := f.periodLabel(rf.Label, slots, hi, horizontal)
	if err != nil {
		return nil, err
	}
	p.Add(period)

	valueAxis, categoryAxis := &p.X, &p.Y
	if !horizontal {
		valueAxis, categoryAxis = &p.Y, &p.X
	}

	valueAxis.Min, valueAxis.Max = lo, hi
	valueAxis.Tick.Marker = chart.Ticker(f.opts.Ticks, plot.DefaultTicks{})
	categoryAxis.Min, categoryAxis.Max = -0.5, float64(slots)-0.5
	categoryAxis.Tick.Marker = plot.ConstantTicks(ticks)
	categoryAxis.Tick.Length = 0
	if f.opts.TickLabelSize > 0 {
		categoryAxis.Tick.Label.Font = theme.FontAt(f.opts.TickLabelSize)
	}
	if !horizontal {
		categoryAxis.Tick.Label.Rotation = math.Pi / 2
		categoryAxis.Tick.Label.XAlign = text.XRight
		categoryAxis.Tick.Label.YAlign = text.YCenter
	}

	return p, nil
}

// periodLabel places the period name in the bottom right of a horizontal
// chart or the top right of a vertical one.
func (f *Frame) periodLabel(label string, slots int, valueMax float64, horizontal bool) (*plotter.Labels, error) {
	at := plotter.XY{X: valueMax, Y: -0.5}
	if !horizontal {
		at = plotter.XY{X: float64(slots) - 0.5, Y: valueMax}
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{at},
		Labels: []string{FormatPeriod(label, f.opts.PeriodFmt)},
	})
	if err != nil {
		return nil, fmt.Errorf("period label: %w", err)
	}

	size := f.opts.PeriodLabelSize
	if size == 0 {
		size = f.fig.Theme.Font.Size.Points() * 2.5
	}
	grey, err := chart.ParseColor(config.PeriodColor)
	if err != nil {
		return nil, err
	}

	style := &labels.TextStyle[0]
	style.Font = f.fig.Theme.FontAt(size)
	style.Color = grey
	style.XAlign = text.XRight
	if horizontal {
		style.YAlign = text.YBottom
		labels.Offset = vg.Point{X: -vg.Points(config.LabelPad), Y: vg.Points(config.LabelPad)}
	} else {
		style.YAlign = text.YTop
		labels.Offset = vg.Point{X: -vg.Points(config.LabelPad), Y: -vg.Points(config.LabelPad)}
	}
	return labels, nil
}

// applyTitle copies the title settings onto p. Left and right aligned
// titles keep their space in the layout but are drawn by drawTitle.
func (f *Frame) applyTitle(p *plot.Plot) {
	t := f.opts.Title
	if !t.HasLabel() {
		p.Title.Text = ""
		return
	}

	p.Title.Text = t.Label
	style := &p.Title.TextStyle
	if t.Size > 0 {
		style.Font.Size = vg.Points(t.Size)
	}
	if t.Weight != "" {
		if w, err := chart.ParseWeight(t.Weight); err == nil {
			style.Font.Weight = w
		}
	}
	if t.Color != "" {
		if c, err := chart.ParseColor(t.Color); err == nil {
			style.Color = c
		}
	}
	if t.Pad != 0 {
		p.Title.Padding = vg.Points(t.Pad)
	}
	if t.Loc == "left" || t.Loc == "right" {
		style.Color = color.Transparent
	}
}

// drawTitle draws a left or right aligned title across the top of c.
func (f *Frame) drawTitle(c draw.Canvas, p *plot.Plot) {
	t := f.opts.Title
	if t.Loc != "left" && t.Loc != "right" || !t.HasLabel() {
		return
	}

	style := p.Title.TextStyle
	style.Color = f.fig.Theme.TextColor
	if t.Color != "" {
		if col, err := chart.ParseColor(t.Color); err == nil {
			style.Color = col
		}
	}
	style.YAlign = text.YTop

	pad := vg.Points(config.LabelPad)
	at := vg.Point{X: c.Min.X + pad, Y: c.Max.Y}
	style.XAlign = text.XLeft
	if t.Loc == "right" {
		at.X = c.Max.X - pad
		style.XAlign = text.XRight
	}
	c.FillText(style, at, t.Label)
}

// Draw renders rf to an RGBA image of Bounds size. Return the image with
// Release once the writer is done with it.
func (f *Frame) Draw(rf race.Frame) (*image.RGBA, error) {
	p, err := f.Plot(rf)
	if err != nil {
		return nil, err
	}

	w, h := f.fig.Spec.Size()
	canvas := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(f.fig.Spec.RasterDPI()),
		vgimg.UseBackgroundColor(f.fig.Spec.Background()),
	)
	dc := draw.New(canvas)
	p.Draw(dc)
	f.drawTitle(dc, p)

	// The canvas rounds its own size; copy into an exact frame so every
	// frame matches the encoder's video size.
	src := canvas.Image()
	img := framePool.Get().(*image.RGBA)
	if img.Rect != f.Bounds() {
		*img = *image.NewRGBA(f.Bounds())
	}
	xdraw.Draw(img, img.Rect, src, src.Bounds().Min, xdraw.Src)
	return img, nil
}

// Snapshot draws rf and writes it to path as a PNG.
func (f *Frame) Snapshot(path string, rf race.Frame) error {
	img, err := f.Draw(rf)
	if err != nil {
		return err
	}
	defer f.Release(img)

	if err := savePNG(img, path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Release returns a frame image to the pool.
func (f *Frame) Release(img *image.RGBA) {
	if img != nil && img.Rect == f.Bounds() {
		framePool.Put(img)
	}
}

var periodLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
}

// FormatPeriod formats a date-like period label with layout. Labels that
// are not dates, or an empty layout, come back unchanged; a layout holding
// %s is applied with Sprintf instead.
func FormatPeriod(label, layout string) string {
	if layout == "" {
		return label
	}
	if strings.Contains(layout, "%s") {
		return fmt.Sprintf(layout, label)
	}
	for _, l := range periodLayouts {
		if t, err := time.Parse(l, label); err == nil {
			return t.Format(layout)
		}
	}
	return label
}
