package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Figure defaults
const (
	FigWidth  = 6.0   // inches
	FigHeight = 3.5   // inches
	FigDPI    = 144.0 // dots per inch
)

// Animation defaults
const (
	FPS          = 20
	PeriodLength = 500 * time.Millisecond
)

// Layout defaults
const (
	Orientation = "h"
	Sort        = "desc"
	BarSize     = 0.95 // Fraction of the category slot a bar fills
	LabelPad    = 4.0  // Points between bar end and value label
)

// Encoder defaults
const (
	FFmpegBinary  = "ffmpeg"
	ConvertBinary = "convert"
	HWAccel       = "none"
)

// Appearance
const (
	// Period label colour, a muted grey drawn bottom right of the axes
	PeriodColor = "#777777"

	// Poster banner text colour
	PosterTextColor = "#F8B31D"

	// Poster layout, same resolution as a 720p video thumbnail
	PosterWidth  = 1280
	PosterHeight = 720
	PosterMargin = 30 // Margin in pixels from edges for poster text
)

// Palette is the default bar colour cycle, assigned by column order.
var Palette = []string{
	"#1F77B4", "#FF7F0E", "#2CA02C", "#D62728", "#9467BD",
	"#8C564B", "#E377C2", "#7F7F7F", "#BCBD22", "#17BECF",
}

// Chart mirrors the keyword arguments of a bar chart race call. Fields typed
// as any keep whatever shape the YAML document gave them so the chart
// package can validate them.
type Chart struct {
	Title          any               `yaml:"title"`
	FigKwargs      any               `yaml:"fig_kwargs"`
	SharedFontdict map[string]any    `yaml:"shared_fontdict"`
	TickTemplate   any               `yaml:"tick_template"`
	NBars          int               `yaml:"n_bars"`
	Orientation    string            `yaml:"orientation"`
	Sort           string            `yaml:"sort"`
	FixedMax       bool              `yaml:"fixed_max"`
	PeriodLength   time.Duration     `yaml:"period_length"`
	PeriodFmt      string            `yaml:"period_fmt"`
	FPS            float64           `yaml:"fps"`
	Colors         []string          `yaml:"colors"`
	Metadata       map[string]string `yaml:"metadata"`
	BarLabelSize   float64           `yaml:"bar_label_size"`
	TickLabelSize  float64           `yaml:"tick_label_size"`
	PeriodSize     float64           `yaml:"period_label_size"`
}

// Env holds tool locations and defaults read from BARRACE_* variables.
type Env struct {
	FFmpeg  string `envconfig:"FFMPEG" desc:"ffmpeg binary used for video output"`
	Convert string `envconfig:"CONVERT" desc:"ImageMagick convert binary used for GIF output"`
	HWAccel string `envconfig:"HWACCEL" desc:"Hardware encoder when --hwaccel is not given"`
	Config  string `envconfig:"CONFIG" desc:"Chart file when --config is not given"`
}

// EnvPrefix prefixes every variable Env reads.
const EnvPrefix = "BARRACE"

// EnvVar is one documented environment variable.
type EnvVar struct {
	Key         string
	Description string
}

// EnvVars lists the variables LoadEnv reads, in declaration order.
func EnvVars() ([]EnvVar, error) {
	var buf bytes.Buffer
	err := envconfig.Usagef(EnvPrefix, &Env{}, &buf, "{{range .}}{{usage_key .}}\t{{usage_description .}}\n{{end}}")
	if err != nil {
		return nil, fmt.Errorf("listing environment: %w", err)
	}

	var vars []EnvVar
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		key, desc, _ := strings.Cut(line, "\t")
		vars = append(vars, EnvVar{Key: key, Description: desc})
	}
	return vars, nil
}

// DefaultChart returns a chart configuration with every default filled in.
func DefaultChart() *Chart {
	return &Chart{
		Orientation:  Orientation,
		Sort:         Sort,
		PeriodLength: PeriodLength,
		FPS:          FPS,
	}
}

// Load reads a YAML chart file over the defaults. An empty path returns the
// defaults untouched.
func Load(path string) (*Chart, error) {
	cfg := DefaultChart()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chart config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing chart config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnv reads BARRACE_* environment overrides for external tools.
func LoadEnv() (*Env, error) {
	env := &Env{
		FFmpeg:  FFmpegBinary,
		Convert: ConvertBinary,
		HWAccel: HWAccel,
	}
	if err := envconfig.Process(EnvPrefix, env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// PaletteColor returns the hex colour for column i, cycling through colors
// or the default palette when colors is empty.
func PaletteColor(colors []string, i int) string {
	if len(colors) == 0 {
		colors = Palette
	}
	return colors[i%len(colors)]
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB" into its components.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: want 6 hex digits", s)
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}

	return raw[0], raw[1], raw[2], nil
}
