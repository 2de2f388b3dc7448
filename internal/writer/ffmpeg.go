package writer

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strconv"

	"github.com/linuxmatters/barrace/internal/config"
)

// FFMpegWriter encodes frames to any container ffmpeg understands, chosen
// by the output file extension.
type FFMpegWriter struct {
	FPS       float64
	Metadata  map[string]string
	ExtraArgs []string
	Codec     string // Video encoder, empty lets ffmpeg pick for the container
	Binary    string

	pipe *pipe
}

// NewFFMpegWriter returns a writer with the given frame rate and metadata.
func NewFFMpegWriter(fps float64, metadata map[string]string, extraArgs ...string) *FFMpegWriter {
	return &FFMpegWriter{
		FPS:       fps,
		Metadata:  metadata,
		ExtraArgs: extraArgs,
		Binary:    config.FFmpegBinary,
	}
}

func (w *FFMpegWriter) Name() string {
	if w.Codec != "" {
		return "ffmpeg (" + w.Codec + ")"
	}
	return "ffmpeg"
}

// Args builds the ffmpeg command line for outfile.
func (w *FFMpegWriter) Args(outfile string, width, height int) []string {
	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.FormatFloat(w.FPS, 'f', -1, 64),
		"-i", "pipe:0",
	}

	if w.Codec != "" {
		args = append(args, "-c:v", w.Codec)
	}

	keys := make([]string, 0, len(w.Metadata))
	for k := range w.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-metadata", k+"="+w.Metadata[k])
	}

	args = append(args, w.ExtraArgs...)
	return append(args, outfile)
}

func (w *FFMpegWriter) Setup(ctx context.Context, outfile string, width, height int) error {
	if w.FPS <= 0 {
		return fmt.Errorf("invalid framerate: %v", w.FPS)
	}
	if outfile == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	binary := w.Binary
	if binary == "" {
		binary = config.FFmpegBinary
	}

	p, err := startPipe(ctx, binary, w.Args(outfile, width, height), width, height)
	if err != nil {
		return err
	}
	w.pipe = p
	return nil
}

func (w *FFMpegWriter) WriteFrame(img *image.RGBA) error {
	return w.pipe.write(img)
}

func (w *FFMpegWriter) Finish() error {
	return w.pipe.finish()
}

// Frames returns how many frames have been written.
func (w *FFMpegWriter) Frames() int {
	if w.pipe == nil {
		return 0
	}
	return w.pipe.frames
}
