package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/barrace/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

// posterFont parses the bundled Go Bold face used for poster text.
func posterFont() (*truetype.Font, error) {
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse poster font: %w", err)
	}
	return f, nil
}

// LoadFont returns the poster face at size points.
func LoadFont(size float64) (font.Face, error) {
	f, err := posterFont()
	if err != nil {
		return nil, err
	}

	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// ScaleToFit draws src centred on a width x height canvas filled with bg,
// scaled to fit while keeping its aspect ratio.
func ScaleToFit(src image.Image, width, height int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}

	scale := float64(width) / float64(sb.Dx())
	if s := float64(height) / float64(sb.Dy()); s < scale {
		scale = s
	}
	w := int(float64(sb.Dx())*scale + 0.5)
	h := int(float64(sb.Dy())*scale + 0.5)
	x := (width - w) / 2
	y := (height - h) / 2

	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), src, sb, draw.Over, nil)
	return dst
}

// posterTextColor returns the banner text colour.
func posterTextColor() color.RGBA {
	r, g, b, err := config.ParseHexColor(config.PosterTextColor)
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// savePNG writes img to path.
func savePNG(img image.Image, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
