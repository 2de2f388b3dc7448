package chart

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/linuxmatters/barrace/internal/config"
	"golang.org/x/image/colornames"
	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
)

// DefaultFontSize is the base text size in points.
const DefaultFontSize = 10

// Typeface registered in gonum's default font cache.
const typeface font.Typeface = "Liberation"

// Theme is the shared text styling applied to every element of a chart.
type Theme struct {
	Font       font.Font
	TextColor  color.Color
	XTickColor color.Color
	YTickColor color.Color

	// Family lists candidate names, generic or concrete, in preference
	// order. Generics resolves generic names to concrete candidates.
	Family   []string
	Generics map[string][]string

	Stretch string
	Variant string
}

// genericFamilies are the keys that name the candidates for a generic
// family.
var genericFamilies = []string{"cursive", "fantasy", "monospace", "sans-serif", "serif"}

// faces are the concrete families the renderer can draw with.
var faces = map[string]font.Variant{
	"liberation serif": "Serif",
	"liberation sans":  "Sans",
	"liberation mono":  "Mono",
	"times new roman":  "Serif",
	"times":            "Serif",
	"dejavu serif":     "Serif",
	"arial":            "Sans",
	"helvetica":        "Sans",
	"dejavu sans":      "Sans",
	"courier new":      "Mono",
	"courier":          "Mono",
	"dejavu sans mono": "Mono",
}

// DefaultTheme is black Liberation Sans at DefaultFontSize.
func DefaultTheme() Theme {
	return Theme{
		Font: font.Font{
			Typeface: typeface,
			Variant:  "Sans",
			Size:     vg.Points(DefaultFontSize),
		},
		TextColor:  color.Black,
		XTickColor: color.Black,
		YTickColor: color.Black,
		Family:     []string{"sans-serif"},
		Generics: map[string][]string{
			"serif":      {"Liberation Serif"},
			"sans-serif": {"Liberation Sans"},
			"monospace":  {"Liberation Mono"},
			"cursive":    {"Liberation Serif"},
			"fantasy":    {"Liberation Sans"},
		},
		Stretch: "normal",
		Variant: "normal",
	}
}

var fontKeys = []string{"color", "cursive", "family", "fantasy", "monospace", "sans-serif", "serif", "stretch", "style", "variant", "weight"}

// SharedFont returns base with fontdict applied. base is never modified.
// The size keys are skipped because they only apply per element; family
// style keys accept a single name or a list.
func SharedFont(base Theme, fontdict map[string]any) (Theme, error) {
	if fontdict == nil {
		return base, nil
	}

	t := base
	t.Family = append([]string(nil), base.Family...)
	t.Generics = make(map[string][]string, len(base.Generics))
	for k, v := range base.Generics {
		t.Generics[k] = append([]string(nil), v...)
	}

	for k, v := range fontdict {
		var err error
		switch k {
		case "fontsize", "size":
			continue
		case "family":
			t.Family, err = names(k, v)
		case "cursive", "fantasy", "monospace", "sans-serif", "serif":
			t.Generics[k], err = names(k, v)
		case "color":
			var c color.Color
			c, err = colorValue(v)
			if err == nil {
				t.TextColor, t.XTickColor, t.YTickColor = c, c, c
			}
		case "style":
			var s string
			if s, err = str("style", v); err == nil {
				t.Font.Style, err = parseStyle(s)
			}
		case "weight":
			t.Font.Weight, err = weightValue(v)
		case "stretch":
			t.Stretch, err = fontProperty(k, v)
		case "variant":
			t.Variant, err = str("variant", v)
			if err == nil && t.Variant != "normal" && t.Variant != "small-caps" {
				err = fmt.Errorf("%w: variant must be normal or small-caps, got %q", ErrInvalidValue, t.Variant)
			}
		default:
			err = fmt.Errorf("%w: %s is not a valid key in shared_fontdict. It must be one of %s",
				ErrInvalidKey, k, quoteList(fontKeys))
		}
		if err != nil {
			return base, err
		}
	}

	t.Font.Variant = t.resolveVariant()
	return t, nil
}

// resolveVariant walks Family, expanding generic names, and returns the
// variant of the first concrete family the renderer knows.
func (t Theme) resolveVariant() font.Variant {
	for _, name := range t.Family {
		key := strings.ToLower(strings.TrimSpace(name))
		candidates := []string{key}
		if generic, ok := t.Generics[key]; ok {
			candidates = generic
		}
		for _, c := range candidates {
			if v, ok := faces[strings.ToLower(strings.TrimSpace(c))]; ok {
				return v
			}
		}
	}
	return t.Font.Variant
}

// FontAt returns the theme font at size points, or the theme size when
// size is zero.
func (t Theme) FontAt(size float64) font.Font {
	f := t.Font
	if size > 0 {
		f.Size = vg.Points(size)
	}
	return f
}

// Apply styles the title, axis labels and tick labels of p.
func (t Theme) Apply(p *plot.Plot) {
	p.Title.TextStyle.Font = t.FontAt(t.Font.Size.Points() * 1.2)
	p.Title.TextStyle.Color = t.TextColor

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Font = t.Font
		ax.Label.TextStyle.Color = t.TextColor
		ax.Tick.Label.Font = t.Font
	}
	p.X.Tick.Label.Color = t.XTickColor
	p.Y.Tick.Label.Color = t.YTickColor
}

func names(key string, v any) ([]string, error) {
	switch n := v.(type) {
	case string:
		return []string{n}, nil
	case []string:
		return append([]string(nil), n...), nil
	case []any:
		out := make([]string, 0, len(n))
		for _, item := range n {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s entries must be strings, got %T", ErrInvalidType, key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a string or list of strings, got %T", ErrInvalidType, key, v)
	}
}

func fontProperty(key string, v any) (string, error) {
	switch p := v.(type) {
	case string:
		return p, nil
	case int, int64, float64:
		n, _ := number(key, p)
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %s must be a string or number, got %T", ErrInvalidType, key, v)
	}
}

// parseStyle maps font styles onto the faces available; oblique is drawn
// italic.
func parseStyle(s string) (xfont.Style, error) {
	switch strings.ToLower(s) {
	case "normal":
		return xfont.StyleNormal, nil
	case "italic", "oblique":
		return xfont.StyleItalic, nil
	default:
		return xfont.StyleNormal, fmt.Errorf("%w: style must be normal, italic or oblique, got %q", ErrInvalidValue, s)
	}
}

var namedWeights = map[string]int{
	"ultralight": 100, "light": 300, "normal": 400, "regular": 400, "book": 400,
	"medium": 500, "roman": 400, "semibold": 600, "demibold": 600, "demi": 600,
	"bold": 700, "heavy": 800, "extra bold": 800, "black": 900,
}

func weightValue(v any) (xfont.Weight, error) {
	if s, ok := v.(string); ok {
		return ParseWeight(s)
	}
	n, err := number("weight", v)
	if err != nil {
		return xfont.WeightNormal, err
	}
	return numericWeight(int(n))
}

// ParseWeight maps a named or numeric weight onto a face weight.
func ParseWeight(s string) (xfont.Weight, error) {
	if n, ok := namedWeights[strings.ToLower(s)]; ok {
		return numericWeight(n)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return xfont.WeightNormal, fmt.Errorf("%w: unknown font weight %q", ErrInvalidValue, s)
	}
	return numericWeight(n)
}

// numericWeight maps CSS style weights onto regular or bold, the only
// weights the bundled faces ship.
func numericWeight(n int) (xfont.Weight, error) {
	if n < 100 || n > 900 {
		return xfont.WeightNormal, fmt.Errorf("%w: font weight must be within 100-900, got %d", ErrInvalidValue, n)
	}
	if n >= 600 {
		return xfont.WeightBold, nil
	}
	return xfont.WeightNormal, nil
}

func colorValue(v any) (color.Color, error) {
	s, err := str("color", v)
	if err != nil {
		return nil, err
	}
	return ParseColor(s)
}

// ParseColor accepts "#RRGGBB", "RRGGBB" or an SVG colour name.
func ParseColor(s string) (color.Color, error) {
	if c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	r, g, b, err := config.ParseHexColor(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
