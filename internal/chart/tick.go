package chart

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
)

// TickFormatter labels the tick at value x, the pos'th labelled tick.
type TickFormatter func(x float64, pos int) string

// TickTemplate builds a formatter from a template string or a function.
//
// Template strings use replacement fields: {x} is the tick value and {pos}
// its position, and {x:,.0f} style specs support a sign, a thousands comma,
// a precision and the f, %, e, g and d types. A template with no fields but
// a % verb is handed to fmt.Sprintf instead. nil returns a nil formatter,
// meaning the default tick labels.
func TickTemplate(v any) (TickFormatter, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return compileTemplate(t)
	case TickFormatter:
		return t, nil
	case func(float64, int) string:
		return t, nil
	case func(float64) string:
		return func(x float64, _ int) string { return t(x) }, nil
	default:
		return nil, fmt.Errorf("%w: tick_template must be a string or function, got %T", ErrInvalidType, v)
	}
}

// Ticker relabels the major ticks of base with format. A nil format returns
// base unchanged.
func Ticker(format TickFormatter, base plot.Ticker) plot.Ticker {
	if format == nil {
		return base
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		ticks := append([]plot.Tick(nil), base.Ticks(min, max)...)
		pos := 0
		for i := range ticks {
			if ticks[i].Label == "" {
				continue
			}
			ticks[i].Label = format(ticks[i].Value, pos)
			pos++
		}
		return ticks
	})
}

// maxPrecision caps the digits a format spec may ask for.
const maxPrecision = 50

type segment struct {
	literal string
	field   string // "x" or "pos"; empty for literals
	spec    formatSpec
}

type formatSpec struct {
	sign      bool
	comma     bool
	precision int // -1 when unset
	verb      byte
}

func compileTemplate(tmpl string) (TickFormatter, error) {
	if !strings.ContainsAny(tmpl, "{}") && strings.Contains(tmpl, "%") {
		return func(x float64, _ int) string { return fmt.Sprintf(tmpl, x) }, nil
	}

	segments, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}

	return func(x float64, pos int) string {
		var sb strings.Builder
		for _, s := range segments {
			switch s.field {
			case "":
				sb.WriteString(s.literal)
			case "pos":
				sb.WriteString(strconv.Itoa(pos))
			default:
				sb.WriteString(s.spec.format(x))
			}
		}
		return sb.String()
	}, nil
}

func parseTemplate(tmpl string) ([]segment, error) {
	var (
		segments []segment
		literal  strings.Builder
	)

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			literal.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			literal.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed field in tick template %q", ErrInvalidValue, tmpl)
			}
			if literal.Len() > 0 {
				segments = append(segments, segment{literal: literal.String()})
				literal.Reset()
			}
			seg, err := parseField(tmpl[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("tick template %q: %w", tmpl, err)
			}
			segments = append(segments, seg)
			i += end
		case c == '}':
			return nil, fmt.Errorf("%w: single '}' in tick template %q", ErrInvalidValue, tmpl)
		default:
			literal.WriteByte(c)
		}
	}

	if literal.Len() > 0 {
		segments = append(segments, segment{literal: literal.String()})
	}
	return segments, nil
}

func parseField(field string) (segment, error) {
	name, spec, _ := strings.Cut(field, ":")
	switch name {
	case "x", "":
		fs, err := parseSpec(spec)
		return segment{field: "x", spec: fs}, err
	case "pos":
		if spec != "" {
			return segment{}, fmt.Errorf("%w: {pos} takes no format spec", ErrInvalidValue)
		}
		return segment{field: "pos"}, nil
	default:
		return segment{}, fmt.Errorf("%w: unknown field {%s}, use {x} or {pos}", ErrInvalidValue, name)
	}
}

func parseSpec(spec string) (formatSpec, error) {
	fs := formatSpec{precision: -1}
	i := 0
	if i < len(spec) && spec[i] == '+' {
		fs.sign = true
		i++
	}
	if i < len(spec) && spec[i] == ',' {
		fs.comma = true
		i++
	}
	if i < len(spec) && spec[i] == '.' {
		j := i + 1
		for j < len(spec) && spec[j] >= '0' && spec[j] <= '9' {
			j++
		}
		if j == i+1 {
			return fs, fmt.Errorf("%w: missing precision in format spec %q", ErrInvalidValue, spec)
		}
		prec, err := strconv.Atoi(spec[i+1 : j])
		if err != nil || prec > maxPrecision {
			return fs, fmt.Errorf("%w: precision in format spec %q exceeds %d", ErrInvalidValue, spec, maxPrecision)
		}
		fs.precision = prec
		i = j
	}
	if i < len(spec) {
		fs.verb = spec[i]
		i++
		if !strings.ContainsRune("fF%eEgGd", rune(fs.verb)) {
			return fs, fmt.Errorf("%w: unsupported format type %q", ErrInvalidValue, fs.verb)
		}
	}
	if i != len(spec) {
		return fs, fmt.Errorf("%w: unsupported format spec %q", ErrInvalidValue, spec)
	}
	return fs, nil
}

func (fs formatSpec) format(x float64) string {
	var s string
	suffix := ""

	switch fs.verb {
	case '%':
		x *= 100
		suffix = "%"
		s = fs.fixed(x, fs.prec(6))
	case 'f', 'F':
		s = fs.fixed(x, fs.prec(6))
	case 'd':
		s = fs.fixed(math.Round(x), 0)
	case 'e', 'E':
		s = strconv.FormatFloat(x, fs.verb, fs.prec(6), 64)
	case 'g', 'G':
		s = strconv.FormatFloat(x, fs.verb, fs.precision, 64)
	default:
		if fs.precision >= 0 {
			s = strconv.FormatFloat(x, 'g', fs.precision, 64)
		} else {
			s = fs.fixed(x, -1)
			if !strings.ContainsAny(s, ".eEnN") {
				s += ".0"
			}
		}
	}

	if fs.sign && x >= 0 {
		s = "+" + s
	}
	return s + suffix
}

func (fs formatSpec) prec(def int) int {
	if fs.precision < 0 {
		return def
	}
	return fs.precision
}

// fixed formats x with prec decimals, or the shortest exact form for -1,
// grouping thousands when the format has a comma.
func (fs formatSpec) fixed(x float64, prec int) string {
	s := strconv.FormatFloat(x, 'f', prec, 64)
	if !fs.comma || math.IsNaN(x) || math.IsInf(x, 0) {
		return s
	}

	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	digits, frac, hasFrac := strings.Cut(s, ".")
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return sign + s
	}
	s = sign + humanize.BigComma(n)
	if hasFrac {
		s += "." + frac
	}
	return s
}
