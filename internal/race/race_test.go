package race

import (
	"math"
	"testing"
	"time"

	"github.com/linuxmatters/barrace/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *data.Table {
	return &data.Table{
		IndexName: "year",
		Index:     []string{"2001", "2002", "2003"},
		Columns:   []string{"alpha", "bravo", "charlie", "delta"},
		Values: [][]float64{
			{10, 30, 20, math.NaN()},
			{40, 30, 20, 5},
			{40, 40, 90, 50},
		},
	}
}

func names(bars []Bar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Name
	}
	return out
}

func TestRank_Descending(t *testing.T) {
	bars := Rank(sampleTable(), 0, 0, false)

	assert.Equal(t, []string{"bravo", "charlie", "alpha"}, names(bars), "NaN values are dropped")
	for i, b := range bars {
		assert.Equal(t, i, b.Rank)
	}
}

func TestRank_AscendingAndLimit(t *testing.T) {
	bars := Rank(sampleTable(), 1, 2, true)
	assert.Equal(t, []string{"delta", "charlie"}, names(bars))
}

func TestRank_TiesKeepColumnOrder(t *testing.T) {
	bars := Rank(sampleTable(), 2, 0, false)
	assert.Equal(t, []string{"charlie", "delta", "alpha", "bravo"}, names(bars))
}

func TestBuild(t *testing.T) {
	frames, err := Build(sampleTable(), Options{NBars: 2})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, "2002", frames[1].Label)
	assert.Equal(t, 1, frames[1].Index)
	assert.Len(t, frames[1].Bars, 2)
	assert.Equal(t, 40.0, frames[1].Max, "per-frame max without fixed_max")
}

func TestBuild_FixedMax(t *testing.T) {
	frames, err := Build(sampleTable(), Options{FixedMax: true})
	require.NoError(t, err)

	for _, f := range frames {
		assert.Equal(t, 90.0, f.Max)
	}
}

func TestBuild_InvalidOptions(t *testing.T) {
	testCases := []struct {
		name string
		opts Options
	}{
		{"negative bars", Options{NBars: -1}},
		{"bad orientation", Options{Orientation: "diagonal"}},
		{"bad sort", Options{Sort: "random"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(sampleTable(), tc.opts)
			assert.ErrorIs(t, err, ErrOptions)
		})
	}
}

func TestBuild_EmptyTable(t *testing.T) {
	_, err := Build(&data.Table{}, Options{})
	assert.ErrorIs(t, err, data.ErrEmpty)
}

func TestHoldFrames(t *testing.T) {
	testCases := []struct {
		period time.Duration
		fps    float64
		want   int
	}{
		{500 * time.Millisecond, 20, 10},
		{1 * time.Second, 30, 30},
		{10 * time.Millisecond, 20, 1},
		{250 * time.Millisecond, 10, 3},
	}

	for _, tc := range testCases {
		opts := Options{PeriodLength: tc.period, FPS: tc.fps}
		assert.Equal(t, tc.want, opts.HoldFrames(), "period %v at %v fps", tc.period, tc.fps)
	}
}

func TestWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	assert.Equal(t, "h", opts.Orientation)
	assert.Equal(t, "desc", opts.Sort)
	assert.Equal(t, 500*time.Millisecond, opts.PeriodLength)
	assert.Equal(t, 20.0, opts.FPS)
	assert.NoError(t, opts.Validate())
}
