package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/linuxmatters/barrace/internal/chart"
	"github.com/linuxmatters/barrace/internal/race"
	"github.com/linuxmatters/barrace/internal/writer"
)

// ErrNoFrames is returned when there is nothing to animate.
var ErrNoFrames = errors.New("renderer: no frames to animate")

// Job describes one animation render.
type Job struct {
	Output  string
	Figure  *chart.Figure
	Columns int
	Frames  []race.Frame
	Hold    int // Output frames each period is shown for
	Style   Options

	Thumbnail bool   // Write a poster next to Output
	Title     string // Poster banner text
	Preview   bool   // Attach a copy of each period's image to progress reports

	Logger     *slog.Logger
	OnProgress func(Progress)
}

// Progress is reported after every written output frame.
type Progress struct {
	Frame       int // 1-based count of frames written
	TotalFrames int
	Period      int
	Label       string
	Bars        []race.Bar
	Image       *image.RGBA // Only on the first frame of a period, and only with Preview
	Elapsed     time.Duration
}

// Stats break down where a render spent its time.
type Stats struct {
	Frames        int
	Periods       int
	Thumbnail     string
	DrawTime      time.Duration
	EncodeTime    time.Duration
	FinalizeTime  time.Duration
	ThumbnailTime time.Duration
	TotalTime     time.Duration
}

// Animate draws every period of job and streams it through w, holding each
// period for job.Hold frames, then writes the poster.
func Animate(ctx context.Context, w writer.Writer, job Job) (Stats, error) {
	var stats Stats
	if len(job.Frames) == 0 {
		return stats, ErrNoFrames
	}
	hold := max(job.Hold, 1)
	logger := job.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	frame, err := NewFrame(job.Figure, job.Columns, job.Style)
	if err != nil {
		return stats, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bounds := frame.Bounds()
	if err := w.Setup(ctx, job.Output, bounds.Dx(), bounds.Dy()); err != nil {
		return stats, fmt.Errorf("starting %s: %w", w.Name(), err)
	}
	logger.Info("encoder started",
		"writer", w.Name(),
		"output", job.Output,
		"size", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"periods", len(job.Frames),
		"hold", hold)

	// abort stops the encoder and reaps it; the render error wins.
	abort := func(err error) (Stats, error) {
		cancel()
		_ = w.Finish()
		return stats, err
	}

	start := time.Now()
	total := len(job.Frames) * hold
	var last *image.RGBA

	for _, rf := range job.Frames {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		t0 := time.Now()
		img, err := frame.Draw(rf)
		if err != nil {
			return abort(fmt.Errorf("drawing period %d (%s): %w", rf.Index, rf.Label, err))
		}
		stats.DrawTime += time.Since(t0)

		var preview *image.RGBA
		if job.Preview {
			preview = cloneRGBA(img)
		}

		for k := 0; k < hold; k++ {
			t0 = time.Now()
			if err := w.WriteFrame(img); err != nil {
				return abort(fmt.Errorf("writing frame %d: %w", stats.Frames, err))
			}
			stats.EncodeTime += time.Since(t0)
			stats.Frames++

			if job.OnProgress != nil {
				p := Progress{
					Frame:       stats.Frames,
					TotalFrames: total,
					Period:      rf.Index,
					Label:       rf.Label,
					Bars:        rf.Bars,
					Elapsed:     time.Since(start),
				}
				if k == 0 {
					p.Image = preview
				}
				job.OnProgress(p)
			}
		}

		if last != nil {
			frame.Release(last)
		}
		last = img
		stats.Periods++
		logger.Debug("period written", "period", rf.Index, "label", rf.Label, "bars", len(rf.Bars))
	}

	t0 := time.Now()
	if err := w.Finish(); err != nil {
		return stats, fmt.Errorf("finishing %s: %w", w.Name(), err)
	}
	stats.FinalizeTime = time.Since(t0)

	if job.Thumbnail {
		t0 = time.Now()
		path := ThumbnailPath(job.Output)
		if err := GenerateThumbnail(path, last, job.Figure.Spec.Background(), job.Title); err != nil {
			return stats, fmt.Errorf("generating thumbnail: %w", err)
		}
		stats.Thumbnail = path
		stats.ThumbnailTime = time.Since(t0)
		logger.Info("thumbnail written", "path", path)
	}
	frame.Release(last)

	stats.TotalTime = time.Since(start)
	logger.Info("render complete",
		"frames", stats.Frames,
		"draw", stats.DrawTime,
		"encode", stats.EncodeTime,
		"total", stats.TotalTime)

	return stats, nil
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	c := image.NewRGBA(img.Rect)
	copy(c.Pix, img.Pix)
	return c
}
