package writer

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/linuxmatters/barrace/internal/config"
)

// ImageMagickWriter assembles frames into an animated GIF with convert.
type ImageMagickWriter struct {
	FPS    float64
	Binary string

	pipe *pipe
}

// NewImageMagickWriter returns a GIF writer at the given frame rate.
func NewImageMagickWriter(fps float64) *ImageMagickWriter {
	return &ImageMagickWriter{FPS: fps, Binary: config.ConvertBinary}
}

func (w *ImageMagickWriter) Name() string { return "imagemagick" }

// Delay is the per-frame delay in GIF centiseconds.
func (w *ImageMagickWriter) Delay() int {
	d := int(math.Round(100 / w.FPS))
	if d < 1 {
		return 1
	}
	return d
}

// Args builds the convert command line for outfile.
func (w *ImageMagickWriter) Args(outfile string, width, height int) []string {
	return []string{
		"-size", fmt.Sprintf("%dx%d", width, height),
		"-depth", "8",
		"-delay", strconv.Itoa(w.Delay()),
		"-loop", "0",
		"rgba:-",
		outfile,
	}
}

func (w *ImageMagickWriter) Setup(ctx context.Context, outfile string, width, height int) error {
	if w.FPS <= 0 {
		return fmt.Errorf("invalid framerate: %v", w.FPS)
	}
	if outfile == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	binary := w.Binary
	if binary == "" {
		binary = config.ConvertBinary
	}

	p, err := startPipe(ctx, binary, w.Args(outfile, width, height), width, height)
	if err != nil {
		return err
	}
	w.pipe = p
	return nil
}

func (w *ImageMagickWriter) WriteFrame(img *image.RGBA) error {
	return w.pipe.write(img)
}

func (w *ImageMagickWriter) Finish() error {
	return w.pipe.finish()
}

// Frames returns how many frames have been written.
func (w *ImageMagickWriter) Frames() int {
	if w.pipe == nil {
		return 0
	}
	return w.pipe.frames
}
