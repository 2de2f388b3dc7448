// Package writer serialises rendered animation frames by streaming raw RGBA
// pixels into an external encoder process.
package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
)

var (
	ErrFrameSize = errors.New("writer: frame size does not match output size")
	ErrClosed    = errors.New("writer: already finished")
	ErrNotSetup  = errors.New("writer: Setup has not been called")
)

// Writer is the animation writer abstraction: Setup once, WriteFrame for
// every frame in order, then Finish to flush and close the output.
type Writer interface {
	Setup(ctx context.Context, outfile string, width, height int) error
	WriteFrame(img *image.RGBA) error
	Finish() error
	Name() string
}

// stderrTail bounds how much encoder output is kept for error reports.
const stderrTail = 2048

// pipe is an encoder child process reading rgba frames on stdin.
type pipe struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int
	frames int
	done   bool
}

func startPipe(ctx context.Context, binary string, args []string, width, height int) (*pipe, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}

	p := &pipe{width: width, height: height}
	p.cmd = exec.CommandContext(ctx, binary, args...)
	p.cmd.Stderr = &p.stderr

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating %s pipe: %w", binary, err)
	}
	p.stdin = stdin

	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", binary, err)
	}

	return p, nil
}

func (p *pipe) write(img *image.RGBA) error {
	if p == nil {
		return ErrNotSetup
	}
	if p.done {
		return ErrClosed
	}

	b := img.Bounds()
	if b.Dx() != p.width || b.Dy() != p.height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), p.width, p.height)
	}

	rowBytes := p.width * 4
	if img.Stride == rowBytes && b.Min == (image.Point{}) {
		if _, err := p.stdin.Write(img.Pix[:rowBytes*p.height]); err != nil {
			return p.abort(err)
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			offset := img.PixOffset(b.Min.X, y)
			if _, err := p.stdin.Write(img.Pix[offset : offset+rowBytes]); err != nil {
				return p.abort(err)
			}
		}
	}

	p.frames++
	return nil
}

func (p *pipe) finish() error {
	if p == nil {
		return ErrNotSetup
	}
	if p.done {
		return ErrClosed
	}
	p.done = true

	closeErr := p.stdin.Close()
	waitErr := p.cmd.Wait()
	switch {
	case waitErr != nil:
		return p.failure(waitErr)
	case closeErr != nil:
		return p.failure(closeErr)
	}
	return nil
}

// abort reaps an encoder that stopped reading mid-stream. stderr is only
// read once Wait has drained it.
func (p *pipe) abort(err error) error {
	p.done = true
	_ = p.stdin.Close()
	if waitErr := p.cmd.Wait(); waitErr != nil {
		err = fmt.Errorf("%w (encoder %v)", err, waitErr)
	}
	return p.failure(err)
}

// failure wraps err with the tail of the encoder's stderr. Call it only
// after cmd.Wait has returned.
func (p *pipe) failure(err error) error {
	out := strings.TrimSpace(p.stderr.String())
	if len(out) > stderrTail {
		out = out[len(out)-stderrTail:]
	}
	if out == "" {
		return fmt.Errorf("%s: %w", p.cmd.Path, err)
	}
	return fmt.Errorf("%s: %w\n%s", p.cmd.Path, err, out)
}
