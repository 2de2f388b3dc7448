package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/linuxmatters/barrace/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type helpCommand struct {
	Input   string `arg:"" help:"Input table" optional:""`
	Title   string `help:"Chart title" group:"chart"`
	NBars   int    `name:"n-bars" help:"Bars per period" default:"-1" group:"chart"`
	FPS     int    `help:"Frames per second" default:"20" group:"chart"`
	Verbose bool   `short:"v" help:"Log more" group:"run"`
	Secret  bool   `hidden:""`
	Version bool   `help:"Show version"`
}

func renderHelp(t *testing.T) string {
	t.Helper()
	var out bytes.Buffer
	env := []config.EnvVar{{Key: "BARRACE_FFMPEG", Description: "ffmpeg binary"}}

	parser, err := kong.New(&helpCommand{},
		kong.Name("barrace"),
		kong.Writers(&out, &out),
		kong.Exit(func(int) {}),
		kong.ExplicitGroups([]kong.Group{
			{Key: "chart", Title: "Chart Flags:"},
			{Key: "run", Title: "Run Flags:"},
		}),
		kong.Help(StyledHelpPrinter(env)),
	)
	require.NoError(t, err)
	_, _ = parser.Parse([]string{"--help"})
	return out.String()
}

func TestStyledHelpPrinter(t *testing.T) {
	help := renderHelp(t)

	assert.Contains(t, help, "barrace <input> <output> [flags]")
	assert.Contains(t, help, "Input table")
	assert.Contains(t, help, "-v, --verbose")
	assert.Contains(t, help, "--title=STRING")
	assert.Contains(t, help, "(default: 20)")
	assert.NotContains(t, help, "(default: -1)", "unset sentinels are not shown")
	assert.NotContains(t, help, "secret")
	assert.Contains(t, help, "BARRACE_FFMPEG")
	assert.Contains(t, help, "Examples:")

	// Sections appear in order: general flags, then each group.
	general := strings.Index(help, "Flags:")
	chartAt := strings.Index(help, "Chart Flags:")
	runAt := strings.Index(help, "Run Flags:")
	envAt := strings.Index(help, "Environment:")
	require.True(t, general >= 0 && chartAt >= 0 && runAt >= 0 && envAt >= 0)
	assert.Less(t, strings.Index(help, "--version"), chartAt)
	assert.Less(t, chartAt, strings.Index(help, "--n-bars"))
	assert.Less(t, chartAt, runAt)
	assert.Less(t, runAt, envAt)
}

func TestWriteHelpSection_Aligns(t *testing.T) {
	var sb strings.Builder
	writeHelpSection(&sb, "Flags:", []helpRow{
		{name: "--a", help: "first"},
		{name: "--longer", help: "second"},
	}, helpFlagStyle)

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Index(lines[1], "first"), strings.Index(lines[2], "second"))

	sb.Reset()
	writeHelpSection(&sb, "Empty:", nil, helpFlagStyle)
	assert.Empty(t, sb.String())
}
