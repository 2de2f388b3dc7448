// Package chart normalises bar chart race configuration before any drawing
// happens: the output file and writer, figure size and resolution, title,
// shared font settings and tick label templates. Values arrive loosely typed
// (as decoded from YAML or set by callers) and leave as concrete specs the
// renderer can use without further checks.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/linuxmatters/barrace/internal/config"
	"github.com/linuxmatters/barrace/internal/writer"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

var (
	ErrInvalidType  = errors.New("invalid type")
	ErrInvalidKey   = errors.New("invalid key")
	ErrInvalidValue = errors.New("invalid value")
	ErrMissingLabel = errors.New(`you must use the key "label" in the title dictionary to supply the name of the title`)
	ErrNoAxes       = errors.New("the figure passed to fig must have an axes")
)

// CommonChart holds the normalised settings shared by every chart type.
type CommonChart struct {
	Filename  string
	Extension string
	Fig       FigureSpec
	Title     TitleSpec
	Theme     Theme
	Tools     Tools
}

// Tools locates the external encoders and the optional video codec.
type Tools struct {
	FFmpeg  string
	Convert string
	Codec   string
}

// New validates the output filename, figure settings and title.
func New(filename string, figKwargs any, title any) (*CommonChart, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename cannot be empty", ErrInvalidValue)
	}

	fig, err := FigKwargs(figKwargs)
	if err != nil {
		return nil, err
	}

	t, err := Title(title)
	if err != nil {
		return nil, err
	}

	return &CommonChart{
		Filename:  filename,
		Extension: Extension(filename),
		Fig:       fig,
		Title:     t,
		Theme:     DefaultTheme(),
	}, nil
}

// Extension returns the lower-cased text after the last dot of filename, or
// the whole filename when it has none.
func Extension(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		filename = filename[i+1:]
	}
	return strings.ToLower(filename)
}

// Writer selects the animation writer for the output extension: GIFs go
// through ImageMagick, everything else through ffmpeg as yuv420p.
func (c *CommonChart) Writer(metadata map[string]string, fps float64) writer.Writer {
	if c.Extension == "gif" {
		w := writer.NewImageMagickWriter(fps)
		if c.Tools.Convert != "" {
			w.Binary = c.Tools.Convert
		}
		return w
	}

	w := writer.NewFFMpegWriter(fps, metadata, "-pix_fmt", "yuv420p")
	if c.Tools.FFmpeg != "" {
		w.Binary = c.Tools.FFmpeg
	}
	w.Codec = c.Tools.Codec
	return w
}

// SetSharedFont applies fontdict over the chart's theme and returns the
// theme that was active before, so callers can restore it.
func (c *CommonChart) SetSharedFont(fontdict map[string]any) (Theme, error) {
	orig := c.Theme
	theme, err := SharedFont(orig, fontdict)
	if err != nil {
		return orig, err
	}
	c.Theme = theme
	return orig, nil
}

// TickTemplate builds a tick label formatter; see the package level
// TickTemplate.
func (c *CommonChart) TickTemplate(v any) (TickFormatter, error) {
	return TickTemplate(v)
}

// TitleSpec is a normalised title. An empty Label means no title.
type TitleSpec struct {
	Label  string
	Size   float64 // points, 0 keeps the theme size
	Color  string
	Loc    string // left, center or right
	Pad    float64
	Weight string
}

// HasLabel reports whether a title should be drawn.
func (t TitleSpec) HasLabel() bool {
	return t.Label != ""
}

var titleKeys = []string{"color", "fontsize", "label", "loc", "pad", "size", "weight"}

// Title normalises a title given as a string, a map with a "label" key, a
// TitleSpec, or nil.
func Title(v any) (TitleSpec, error) {
	switch title := v.(type) {
	case nil:
		return TitleSpec{}, nil
	case string:
		return TitleSpec{Label: title}, nil
	case TitleSpec:
		return checkTitle(title)
	case *TitleSpec:
		if title == nil {
			return TitleSpec{}, nil
		}
		return checkTitle(*title)
	case map[string]any:
		return titleFromMap(title)
	case map[string]string:
		m := make(map[string]any, len(title))
		for k, s := range title {
			m[k] = s
		}
		return titleFromMap(m)
	default:
		return TitleSpec{}, fmt.Errorf("%w: title must be either a string or dictionary, got %T", ErrInvalidType, v)
	}
}

func titleFromMap(m map[string]any) (TitleSpec, error) {
	label, ok := m["label"]
	if !ok {
		return TitleSpec{}, ErrMissingLabel
	}

	var t TitleSpec
	if label != nil {
		s, ok := label.(string)
		if !ok {
			return t, fmt.Errorf("%w: title label must be a string, got %T", ErrInvalidType, label)
		}
		t.Label = s
	}

	for k, v := range m {
		var err error
		switch k {
		case "label":
		case "size", "fontsize":
			t.Size, err = positive("title "+k, v)
		case "pad":
			t.Pad, err = number("title pad", v)
		case "color":
			t.Color, err = str("title color", v)
			if err == nil {
				_, err = ParseColor(t.Color)
			}
		case "weight":
			t.Weight, err = str("title weight", v)
			if err == nil {
				_, err = ParseWeight(t.Weight)
			}
		case "loc":
			t.Loc, err = str("title loc", v)
			if err == nil && t.Loc != "left" && t.Loc != "center" && t.Loc != "right" {
				err = fmt.Errorf("%w: title loc must be left, center or right, got %q", ErrInvalidValue, t.Loc)
			}
		default:
			err = fmt.Errorf("%w: %q is not a valid title key, must be one of %s", ErrInvalidKey, k, quoteList(titleKeys))
		}
		if err != nil {
			return TitleSpec{}, err
		}
	}

	return t, nil
}

// checkTitle applies the map form's rules to a ready-made TitleSpec. The zero
// value stands for no title; any styling needs a label to style.
func checkTitle(t TitleSpec) (TitleSpec, error) {
	if t == (TitleSpec{}) {
		return t, nil
	}
	if t.Label == "" {
		return TitleSpec{}, ErrMissingLabel
	}
	if t.Size < 0 {
		return TitleSpec{}, fmt.Errorf("%w: title size must be positive, got %v", ErrInvalidValue, t.Size)
	}
	if t.Color != "" {
		if _, err := ParseColor(t.Color); err != nil {
			return TitleSpec{}, err
		}
	}
	if t.Weight != "" {
		if _, err := ParseWeight(t.Weight); err != nil {
			return TitleSpec{}, err
		}
	}
	switch t.Loc {
	case "", "left", "center", "right":
	default:
		return TitleSpec{}, fmt.Errorf("%w: title loc must be left, center or right, got %q", ErrInvalidValue, t.Loc)
	}
	return t, nil
}

// FigureSpec is the normalised figure construction configuration.
type FigureSpec struct {
	Width     float64 // inches
	Height    float64 // inches
	DPI       float64
	FaceColor string
}

// DefaultFigure returns the default 6x3.5 inch figure at 144 dpi.
func DefaultFigure() FigureSpec {
	return FigureSpec{
		Width:  config.FigWidth,
		Height: config.FigHeight,
		DPI:    config.FigDPI,
	}
}

// Pixels returns the raster size of the figure, rounded down to even
// numbers as yuv420p output requires.
func (f FigureSpec) Pixels() (width, height int) {
	dpi := float64(f.RasterDPI())
	width = int(math.Floor(f.Width*dpi)) &^ 1
	height = int(math.Floor(f.Height*dpi)) &^ 1
	return width, height
}

// RasterDPI is the whole-number resolution frames are rasterised at.
func (f FigureSpec) RasterDPI() int {
	return int(math.Round(f.DPI))
}

// Size returns the figure size as canvas lengths matching Pixels at
// RasterDPI.
func (f FigureSpec) Size() (width, height vg.Length) {
	w, h := f.Pixels()
	dpi := float64(f.RasterDPI())
	return vg.Length(float64(w)/dpi) * vg.Inch, vg.Length(float64(h)/dpi) * vg.Inch
}

// Background returns the figure face colour, white when unset.
func (f FigureSpec) Background() color.Color {
	if f.FaceColor == "" {
		return color.White
	}
	c, err := ParseColor(f.FaceColor)
	if err != nil {
		return color.White
	}
	return c
}

var figKeys = []string{"dpi", "facecolor", "figsize"}

// FigKwargs overlays user figure settings on the defaults. nil yields the
// defaults; anything other than a map or FigureSpec is a type error.
func FigKwargs(v any) (FigureSpec, error) {
	fig := DefaultFigure()

	var m map[string]any
	switch kw := v.(type) {
	case nil:
		return fig, nil
	case FigureSpec:
		fig = kw
		return fig, validateFigure(fig)
	case map[string]any:
		m = kw
	default:
		return fig, fmt.Errorf("%w: fig_kwargs must be a dict or nil, got %T", ErrInvalidType, v)
	}

	for k, val := range m {
		var err error
		switch k {
		case "figsize":
			fig.Width, fig.Height, err = pair("figsize", val)
		case "dpi":
			fig.DPI, err = positive("dpi", val)
		case "facecolor":
			fig.FaceColor, err = str("facecolor", val)
			if err == nil {
				_, err = ParseColor(fig.FaceColor)
			}
		default:
			err = fmt.Errorf("%w: %q is not a valid fig_kwargs key, must be one of %s", ErrInvalidKey, k, quoteList(figKeys))
		}
		if err != nil {
			return DefaultFigure(), err
		}
	}

	return fig, validateFigure(fig)
}

func validateFigure(f FigureSpec) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: figsize must be positive, got (%v, %v)", ErrInvalidValue, f.Width, f.Height)
	}
	if f.DPI <= 0 {
		return fmt.Errorf("%w: dpi must be positive, got %v", ErrInvalidValue, f.DPI)
	}
	if w, h := f.Pixels(); w < 2 || h < 2 {
		return fmt.Errorf("%w: figure is only %dx%d pixels", ErrInvalidValue, w, h)
	}
	return nil
}

// Figure couples a figure spec with the styled axes frames are drawn on.
type Figure struct {
	Spec  FigureSpec
	Theme Theme
	Axes  *plot.Plot
}

// NewPlot returns an empty plot carrying the axes styling of the figure.
func (f *Figure) NewPlot() *plot.Plot {
	p := plot.New()
	p.Title = f.Axes.Title
	p.BackgroundColor = f.Axes.BackgroundColor
	p.X = f.Axes.X
	p.Y = f.Axes.Y
	p.Legend = f.Axes.Legend
	return p
}

// Figure validates a caller supplied figure or creates one from the
// chart's settings when fig is nil.
func (c *CommonChart) Figure(fig *Figure) (*Figure, error) {
	if fig == nil {
		return c.CreateFigure(), nil
	}
	if fig.Axes == nil {
		return nil, ErrNoAxes
	}
	if err := validateFigure(fig.Spec); err != nil {
		return nil, err
	}
	return fig, nil
}

// CreateFigure builds a figure from the chart's spec and theme.
func (c *CommonChart) CreateFigure() *Figure {
	p := plot.New()
	p.BackgroundColor = c.Fig.Background()
	c.Theme.Apply(p)

	return &Figure{
		Spec:  c.Fig,
		Theme: c.Theme,
		Axes:  p,
	}
}

func number(name string, v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidType, name, v)
	}
}

func positive(name string, v any) (float64, error) {
	n, err := number(name, v)
	if err != nil {
		return 0, err
	}
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidValue, name, n)
	}
	return n, nil
}

func pair(name string, v any) (float64, float64, error) {
	var items []any
	switch p := v.(type) {
	case []any:
		items = p
	case []float64:
		for _, f := range p {
			items = append(items, f)
		}
	case [2]float64:
		items = []any{p[0], p[1]}
	case []int:
		for _, i := range p {
			items = append(items, i)
		}
	default:
		return 0, 0, fmt.Errorf("%w: %s must be a pair of numbers, got %T", ErrInvalidType, name, v)
	}
	if len(items) != 2 {
		return 0, 0, fmt.Errorf("%w: %s must have 2 values, got %d", ErrInvalidValue, name, len(items))
	}

	w, err := positive(name+" width", items[0])
	if err != nil {
		return 0, 0, err
	}
	h, err := positive(name+" height", items[1])
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func str(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidType, name, v)
	}
	return s, nil
}

func quoteList(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	quoted := make([]string, len(sorted))
	for i, k := range sorted {
		quoted[i] = "'" + k + "'"
	}
	return strings.Join(quoted, ", ")
}
