package renderer

import (
	"image/color"
	"testing"

	"github.com/linuxmatters/barrace/internal/chart"
	"github.com/linuxmatters/barrace/internal/race"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFigure(t *testing.T, title any) *chart.Figure {
	t.Helper()
	c, err := chart.New("race.mp4", nil, title)
	require.NoError(t, err)
	return c.CreateFigure()
}

func testFrame() race.Frame {
	return race.Frame{
		Index: 3,
		Label: "2020-06-01",
		Bars: []race.Bar{
			{Name: "Beta", Column: 1, Value: 900, Rank: 0},
			{Name: "Alpha", Column: 0, Value: 400, Rank: 1},
			{Name: "Gamma", Column: 2, Value: 100, Rank: 2},
		},
		Max: 900,
	}
}

func TestNewFrame_Errors(t *testing.T) {
	fig := testFigure(t, nil)

	_, err := NewFrame(fig, 0, Options{})
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = NewFrame(fig, 3, Options{Orientation: "diagonal"})
	assert.Error(t, err)

	_, err = NewFrame(fig, 3, Options{Colors: []string{"#12345"}})
	assert.ErrorIs(t, err, chart.ErrInvalidValue)
}

func TestFrame_PlotHorizontal(t *testing.T) {
	f, err := NewFrame(testFigure(t, "Race"), 3, Options{Slots: 4})
	require.NoError(t, err)

	p, err := f.Plot(testFrame())
	require.NoError(t, err)

	assert.Equal(t, "Race", p.Title.Text)
	assert.Equal(t, 0.0, p.X.Min)
	assert.InDelta(t, 945.0, p.X.Max, 1e-9)
	assert.Equal(t, -0.5, p.Y.Min)
	assert.Equal(t, 3.5, p.Y.Max)

	ticks := p.Y.Tick.Marker.Ticks(p.Y.Min, p.Y.Max)
	require.Len(t, ticks, 3)
	assert.Equal(t, "Beta", ticks[0].Label)
	assert.Equal(t, 3.0, ticks[0].Value, "the leader sits in the top slot")
	assert.Equal(t, "Gamma", ticks[2].Label)
	assert.Equal(t, 1.0, ticks[2].Value)
}

func TestFrame_PlotVertical(t *testing.T) {
	f, err := NewFrame(testFigure(t, nil), 3, Options{Orientation: "v"})
	require.NoError(t, err)

	p, err := f.Plot(testFrame())
	require.NoError(t, err)

	assert.Equal(t, "", p.Title.Text)
	assert.Equal(t, 2.5, p.X.Max)
	assert.InDelta(t, 945.0, p.Y.Max, 1e-9)

	ticks := p.X.Tick.Marker.Ticks(p.X.Min, p.X.Max)
	require.Len(t, ticks, 3)
	assert.Equal(t, "Beta", ticks[0].Label)
	assert.Equal(t, 0.0, ticks[0].Value, "the leader sits in the left slot")
}

func TestFrame_PlotTickTemplate(t *testing.T) {
	format, err := chart.TickTemplate("${x:,.0f}")
	require.NoError(t, err)

	f, err := NewFrame(testFigure(t, nil), 3, Options{Ticks: format})
	require.NoError(t, err)

	p, err := f.Plot(testFrame())
	require.NoError(t, err)

	for _, tick := range p.X.Tick.Marker.Ticks(p.X.Min, p.X.Max) {
		if tick.Label != "" {
			assert.Equal(t, "$", tick.Label[:1])
		}
	}
}

func TestFrame_PlotEmptyFrame(t *testing.T) {
	f, err := NewFrame(testFigure(t, nil), 2, Options{})
	require.NoError(t, err)

	p, err := f.Plot(race.Frame{Label: "empty"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.X.Min)
	assert.Greater(t, p.X.Max, p.X.Min)
}

func TestFrame_Draw(t *testing.T) {
	f, err := NewFrame(testFigure(t, nil), 3, Options{Colors: []string{"#FF0000", "#00FF00", "#0000FF"}})
	require.NoError(t, err)

	img, err := f.Draw(testFrame())
	require.NoError(t, err)
	defer f.Release(img)

	assert.Equal(t, 864, img.Rect.Dx())
	assert.Equal(t, 504, img.Rect.Dy())
	assert.Equal(t, f.Bounds(), img.Rect)

	// The leader is column 1, so green fills the longest bar.
	found := false
	for y := 0; y < img.Rect.Dy() && !found; y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			if img.RGBAAt(x, y) == (color.RGBA{G: 255, A: 255}) {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "expected a solid green bar")
}

func TestFrame_DrawSideTitle(t *testing.T) {
	title := map[string]any{"label": "Left Title", "loc": "left", "color": "red"}
	f, err := NewFrame(testFigure(t, title), 3, Options{Title: chart.TitleSpec{Label: "Left Title", Loc: "left", Color: "red"}})
	require.NoError(t, err)

	p, err := f.Plot(testFrame())
	require.NoError(t, err)
	assert.Equal(t, color.Transparent, p.Title.TextStyle.Color)

	img, err := f.Draw(testFrame())
	require.NoError(t, err)
	assert.Equal(t, f.Bounds(), img.Rect)
}

func TestFrame_DrawOddDPI(t *testing.T) {
	c, err := chart.New("race.mp4", map[string]any{"figsize": []any{4.1, 2.3}, "dpi": 99.6}, nil)
	require.NoError(t, err)

	f, err := NewFrame(c.CreateFigure(), 3, Options{})
	require.NoError(t, err)

	img, err := f.Draw(testFrame())
	require.NoError(t, err)

	w, h := c.Fig.Pixels()
	assert.Equal(t, w, img.Rect.Dx())
	assert.Equal(t, h, img.Rect.Dy())
	assert.Zero(t, w%2)
	assert.Zero(t, h%2)
}

func TestFormatPeriod(t *testing.T) {
	testCases := []struct {
		label  string
		layout string
		want   string
	}{
		{"2020-06-01", "", "2020-06-01"},
		{"2020-06-01", "Jan 2006", "Jun 2020"},
		{"2020-06-01T12:00:00Z", "2 Jan 2006", "1 Jun 2020"},
		{"2021-03", "January 2006", "March 2021"},
		{"Week 4", "Jan 2006", "Week 4"},
		{"1999", "Year %s", "Year 1999"},
	}

	for _, tc := range testCases {
		t.Run(tc.label+"/"+tc.layout, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatPeriod(tc.label, tc.layout))
		})
	}
}
