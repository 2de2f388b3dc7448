package writer

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEncoder writes a shell script that copies stdin to its last argument,
// standing in for ffmpeg or convert.
func fakeEncoder(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake encoder needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-encoder")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

const copyToLastArg = `for last; do :; done
cat > "$last"`

func TestFFMpegWriter_Args(t *testing.T) {
	w := NewFFMpegWriter(24, map[string]string{"title": "Race", "artist": "me"}, "-pix_fmt", "yuv420p")
	w.Codec = "h264_nvenc"

	args := w.Args("out.mp4", 864, 504)

	assert.Equal(t, "out.mp4", args[len(args)-1])
	assert.Contains(t, args, "864x504")
	assert.Contains(t, args, "rgba")
	assert.Subset(t, args, []string{"-c:v", "h264_nvenc"})

	joined := ""
	for _, a := range args {
		joined += a + " "
	}
	assert.Contains(t, joined, "-framerate 24 ")
	assert.Contains(t, joined, "-metadata artist=me -metadata title=Race -pix_fmt yuv420p out.mp4")
	assert.Equal(t, "ffmpeg (h264_nvenc)", w.Name())
}

func TestImageMagickWriter_Args(t *testing.T) {
	w := NewImageMagickWriter(20)
	assert.Equal(t, 5, w.Delay())
	assert.Equal(t, []string{
		"-size", "10x6", "-depth", "8", "-delay", "5", "-loop", "0", "rgba:-", "race.gif",
	}, w.Args("race.gif", 10, 6))

	assert.Equal(t, 1, NewImageMagickWriter(500).Delay())
	assert.Equal(t, "imagemagick", w.Name())
}

func TestFFMpegWriter_StreamsFrames(t *testing.T) {
	w := NewFFMpegWriter(10, nil)
	w.Binary = fakeEncoder(t, copyToLastArg)

	out := filepath.Join(t.TempDir(), "race.raw")
	require.NoError(t, w.Setup(context.Background(), out, 4, 2))

	frame := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range frame.Pix {
		frame.Pix[i] = byte(i)
	}
	require.NoError(t, w.WriteFrame(frame))
	require.NoError(t, w.WriteFrame(frame))

	// A sub-image with a wider stride goes through the row-by-row path.
	big := image.NewRGBA(image.Rect(0, 0, 8, 4))
	sub := big.SubImage(image.Rect(2, 1, 6, 3)).(*image.RGBA)
	require.NoError(t, w.WriteFrame(sub))

	err := w.WriteFrame(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	assert.ErrorIs(t, err, ErrFrameSize)

	require.NoError(t, w.Finish())
	assert.Equal(t, 3, w.Frames())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, data, 3*4*2*4)
	assert.Equal(t, frame.Pix, data[:len(frame.Pix)])

	assert.ErrorIs(t, w.WriteFrame(frame), ErrClosed)
	assert.ErrorIs(t, w.Finish(), ErrClosed)
}

func TestImageMagickWriter_StreamsFrames(t *testing.T) {
	w := NewImageMagickWriter(20)
	w.Binary = fakeEncoder(t, copyToLastArg)

	out := filepath.Join(t.TempDir(), "race.gif")
	require.NoError(t, w.Setup(context.Background(), out, 2, 2))
	require.NoError(t, w.WriteFrame(image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, w.Finish())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(16), info.Size())
}

func TestWriter_EncoderFailure(t *testing.T) {
	w := NewFFMpegWriter(10, nil)
	w.Binary = fakeEncoder(t, "echo 'Unknown encoder' >&2\nexit 3")

	require.NoError(t, w.Setup(context.Background(), filepath.Join(t.TempDir(), "x.mp4"), 2, 2))
	err := w.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown encoder")
}

func TestWriter_EncoderExitsMidStream(t *testing.T) {
	w := NewFFMpegWriter(10, nil)
	w.Binary = fakeEncoder(t, `i=0
while [ $i -lt 200 ]; do echo "frame error $i" >&2; i=$((i+1)); done
exit 1`)

	require.NoError(t, w.Setup(context.Background(), filepath.Join(t.TempDir(), "x.mp4"), 128, 128))

	frame := image.NewRGBA(image.Rect(0, 0, 128, 128))
	var err error
	for i := 0; i < 1000 && err == nil; i++ {
		err = w.WriteFrame(frame)
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame error 199")
	assert.Contains(t, err.Error(), "exit status 1")

	assert.ErrorIs(t, w.WriteFrame(frame), ErrClosed)
	assert.ErrorIs(t, w.Finish(), ErrClosed)
}

func TestWriter_Misuse(t *testing.T) {
	w := NewFFMpegWriter(10, nil)
	assert.ErrorIs(t, w.WriteFrame(image.NewRGBA(image.Rect(0, 0, 1, 1))), ErrNotSetup)
	assert.ErrorIs(t, w.Finish(), ErrNotSetup)

	assert.Error(t, NewFFMpegWriter(0, nil).Setup(context.Background(), "x.mp4", 2, 2))
	assert.Error(t, NewImageMagickWriter(10).Setup(context.Background(), "", 2, 2))

	w.Binary = "/nonexistent/ffmpeg"
	assert.Error(t, w.Setup(context.Background(), "x.mp4", 2, 2))
	assert.Error(t, w.Setup(context.Background(), "x.mp4", 0, 2))
}
