// Package race turns a period table into the ranked frames of a bar chart
// race.
package race

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/linuxmatters/barrace/internal/config"
	"github.com/linuxmatters/barrace/internal/data"
)

var ErrOptions = errors.New("race: invalid options")

// Options control ranking and timing.
type Options struct {
	NBars        int    // Bars shown per frame, 0 shows every category
	Orientation  string // "h" or "v"
	Sort         string // "desc" or "asc"
	FixedMax     bool   // Use the table maximum as the value axis limit on every frame
	PeriodLength time.Duration
	FPS          float64
}

// Bar is one ranked category within a frame. Rank 0 is the leader.
type Bar struct {
	Name   string
	Column int
	Value  float64
	Rank   int
}

// Frame is the chart state for one period.
type Frame struct {
	Index int
	Label string
	Bars  []Bar
	Max   float64
}

// WithDefaults fills zero fields with the package defaults.
func (o Options) WithDefaults() Options {
	if o.Orientation == "" {
		o.Orientation = config.Orientation
	}
	if o.Sort == "" {
		o.Sort = config.Sort
	}
	if o.PeriodLength <= 0 {
		o.PeriodLength = config.PeriodLength
	}
	if o.FPS <= 0 {
		o.FPS = config.FPS
	}
	return o
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if o.NBars < 0 {
		return fmt.Errorf("%w: n_bars must not be negative, got %d", ErrOptions, o.NBars)
	}
	if o.Orientation != "h" && o.Orientation != "v" {
		return fmt.Errorf("%w: orientation must be \"h\" or \"v\", got %q", ErrOptions, o.Orientation)
	}
	if o.Sort != "desc" && o.Sort != "asc" {
		return fmt.Errorf("%w: sort must be \"desc\" or \"asc\", got %q", ErrOptions, o.Sort)
	}
	return nil
}

// HoldFrames is the number of output frames each period is shown for.
func (o Options) HoldFrames() int {
	n := int(math.Round(o.PeriodLength.Seconds() * o.FPS))
	if n < 1 {
		return 1
	}
	return n
}

// Rank orders the non-missing values of one period and keeps the top
// nBars. Ties keep column order.
func Rank(t *data.Table, period int, nBars int, ascending bool) []Bar {
	row := t.Values[period]
	bars := make([]Bar, 0, len(row))
	for i, v := range row {
		if math.IsNaN(v) {
			continue
		}
		bars = append(bars, Bar{Name: t.Columns[i], Column: i, Value: v})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		if ascending {
			return bars[i].Value < bars[j].Value
		}
		return bars[i].Value > bars[j].Value
	})

	if nBars > 0 && len(bars) > nBars {
		bars = bars[:nBars]
	}
	for i := range bars {
		bars[i].Rank = i
	}
	return bars
}

// Build ranks every period of the table.
func Build(t *data.Table, opts Options) ([]Frame, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if t.Periods() == 0 {
		return nil, data.ErrEmpty
	}

	globalMax := t.Max()
	frames := make([]Frame, t.Periods())
	for p := range frames {
		bars := Rank(t, p, opts.NBars, opts.Sort == "asc")

		max := globalMax
		if !opts.FixedMax {
			max = 0
			for _, b := range bars {
				if b.Value > max {
					max = b.Value
				}
			}
		}

		frames[p] = Frame{
			Index: p,
			Label: t.Index[p],
			Bars:  bars,
			Max:   max,
		}
	}

	return frames, nil
}
