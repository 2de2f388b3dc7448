package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseHexColor_ValidInputs covers case handling, the optional hash
// prefix and byte ordering.
func TestParseHexColor_ValidInputs(t *testing.T) {
	testCases := []struct {
		name                string
		input               string
		wantR, wantG, wantB uint8
	}{
		{"uppercase red, no hash", "FF0000", 255, 0, 0},
		{"lowercase red, no hash", "ff0000", 255, 0, 0},
		{"uppercase red, with hash", "#FF0000", 255, 0, 0},
		{"mixed case magenta", "Ff00fF", 255, 0, 255},
		{"palette blue", "#1F77B4", 0x1F, 0x77, 0xB4},
		{"distinct channels", "010203", 1, 2, 3},
		{"black", "000000", 0, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b, err := ParseHexColor(tc.input)
			if err != nil {
				t.Fatalf("ParseHexColor(%q) returned error: %v", tc.input, err)
			}
			if r != tc.wantR || g != tc.wantG || b != tc.wantB {
				t.Errorf("ParseHexColor(%q) = (%d, %d, %d), want (%d, %d, %d)",
					tc.input, r, g, b, tc.wantR, tc.wantG, tc.wantB)
			}
		})
	}
}

// TestParseHexColor_InvalidInputs verifies malformed colours are rejected.
func TestParseHexColor_InvalidInputs(t *testing.T) {
	inputs := []string{
		"FFF",
		"#FFF",
		"FFFFFFF",
		"GGGGGG",
		"FF00GG",
		"",
		"#",
		"FF 000",
		"FF#000",
		"##FF0000",
		"FF0000\n",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if _, _, _, err := ParseHexColor(input); err == nil {
				t.Errorf("ParseHexColor(%q) expected error, got nil", input)
			}
		})
	}
}

func TestPaletteColor_Cycles(t *testing.T) {
	assert.Equal(t, Palette[0], PaletteColor(nil, 0))
	assert.Equal(t, Palette[1], PaletteColor(nil, len(Palette)+1))

	custom := []string{"#000000", "#FFFFFF"}
	assert.Equal(t, "#FFFFFF", PaletteColor(custom, 3))
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Orientation, cfg.Orientation)
	assert.Equal(t, Sort, cfg.Sort)
	assert.Equal(t, PeriodLength, cfg.PeriodLength)
	assert.Equal(t, float64(FPS), cfg.FPS)
	assert.Nil(t, cfg.Title)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	doc := `
title:
  label: COVID-19 Deaths by Country
  size: 16
fig_kwargs:
  figsize: [8, 4.5]
  dpi: 120
shared_fontdict:
  family: sans-serif
  color: "#333333"
tick_template: "{x:,.0f}"
n_bars: 6
sort: asc
period_length: 750ms
fps: 24
colors: ["#FF0000", "#00FF00"]
metadata:
  artist: barrace
`
	path := filepath.Join(t.TempDir(), "chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	title, ok := cfg.Title.(map[string]any)
	require.True(t, ok, "title should decode as a map, got %T", cfg.Title)
	assert.Equal(t, "COVID-19 Deaths by Country", title["label"])

	fig, ok := cfg.FigKwargs.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 120, fig["dpi"])

	assert.Equal(t, "sans-serif", cfg.SharedFontdict["family"])
	assert.Equal(t, "{x:,.0f}", cfg.TickTemplate)
	assert.Equal(t, 6, cfg.NBars)
	assert.Equal(t, "asc", cfg.Sort)
	assert.Equal(t, Orientation, cfg.Orientation)
	assert.Equal(t, 750*time.Millisecond, cfg.PeriodLength)
	assert.Equal(t, 24.0, cfg.FPS)
	assert.Equal(t, []string{"#FF0000", "#00FF00"}, cfg.Colors)
	assert.Equal(t, "barrace", cfg.Metadata["artist"])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n_bars: [not, an, int]"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("BARRACE_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("BARRACE_HWACCEL", "auto")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", env.FFmpeg)
	assert.Equal(t, ConvertBinary, env.Convert)
	assert.Equal(t, "auto", env.HWAccel)
}

func TestEnvVars(t *testing.T) {
	vars, err := EnvVars()
	require.NoError(t, err)
	require.Len(t, vars, 4)

	assert.Equal(t, "BARRACE_FFMPEG", vars[0].Key)
	assert.Contains(t, vars[0].Description, "ffmpeg")
	assert.Equal(t, "BARRACE_CONVERT", vars[1].Key)
	assert.Equal(t, "BARRACE_HWACCEL", vars[2].Key)
	assert.Equal(t, "BARRACE_CONFIG", vars[3].Key)
	for _, v := range vars {
		assert.NotEmpty(t, v.Description, v.Key)
	}
}
