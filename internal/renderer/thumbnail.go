package renderer

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/barrace/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// ThumbnailPath returns the poster path written alongside output.
func ThumbnailPath(output string) string {
	if i := strings.LastIndexByte(output, '.'); i > strings.LastIndexByte(output, '/') {
		output = output[:i]
	}
	return output + ".png"
}

// GenerateThumbnail writes a poster of the final race frame with the title
// across a banner at the top. The poster is PosterWidth x PosterHeight
// whatever the figure size.
func GenerateThumbnail(outputPath string, frame image.Image, bg color.Color, title string) error {
	poster := ScaleToFit(frame, config.PosterWidth, config.PosterHeight, bg)

	line1, line2 := splitTitle(title)
	if line1 != "" {
		parsedFont, err := posterFont()
		if err != nil {
			return err
		}

		fontSize := findOptimalFontSize(parsedFont, line1, line2)
		face := truetype.NewFace(parsedFont, &truetype.Options{
			Size: fontSize,
			DPI:  72,
		})
		defer face.Close()

		drawBanner(poster, face, fontSize, line1, line2)
	}

	if err := savePNG(poster, outputPath); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// splitTitle splits the title into 2 roughly equal lines
func splitTitle(title string) (string, string) {
	words := strings.Fields(title)
	if len(words) == 0 {
		return "", ""
	}
	if len(words) == 1 {
		return words[0], ""
	}

	mid := len(words) / 2
	return strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")
}

// bannerHeight is the band across the top of the poster that holds the
// title.
func bannerHeight() int {
	return config.PosterHeight / 3
}

// findOptimalFontSize finds the largest font size where both lines fit
// inside the banner with PosterMargin on every side.
func findOptimalFontSize(parsedFont *truetype.Font, line1, line2 string) float64 {
	maxWidth := config.PosterWidth - 2*config.PosterMargin
	maxHeight := bannerHeight() - 2*config.PosterMargin

	for size := 120.0; size > 10.0; size -= 2.0 {
		face := truetype.NewFace(parsedFont, &truetype.Options{
			Size: size,
			DPI:  72,
		})

		width1, bounds1 := measureText(face, line1)
		width2, bounds2 := measureText(face, line2)
		face.Close()

		if width1 > maxWidth || width2 > maxWidth {
			continue
		}
		if blockHeight(size, bounds1, bounds2, line2 != "") <= maxHeight {
			return size
		}
	}

	return 10.0
}

// blockHeight is the height of the title block, with a line gap of a third
// of the font size between the two lines.
func blockHeight(size float64, bounds1, bounds2 fixed.Rectangle26_6, twoLines bool) int {
	h := (bounds1.Max.Y - bounds1.Min.Y).Ceil()
	if twoLines {
		h += int(size/3) + (bounds2.Max.Y - bounds2.Min.Y).Ceil()
	}
	return h
}

// measureText returns the width and bounds of rendered text. Min.Y is
// negative for the ascent.
func measureText(face font.Face, text string) (int, fixed.Rectangle26_6) {
	d := &font.Drawer{Face: face}
	bounds, _ := d.BoundString(text)
	return (bounds.Max.X - bounds.Min.X).Ceil(), bounds
}

// drawBanner darkens the top of the poster and centres the title block in
// it.
func drawBanner(img *image.RGBA, face font.Face, size float64, line1, line2 string) {
	band := image.Rect(0, 0, img.Bounds().Dx(), bannerHeight())
	shade := image.NewUniform(color.NRGBA{A: 200})
	draw.Draw(img, band, shade, image.Point{}, draw.Over)

	_, bounds1 := measureText(face, line1)
	_, bounds2 := measureText(face, line2)
	height1 := (bounds1.Max.Y - bounds1.Min.Y).Ceil()
	total := blockHeight(size, bounds1, bounds2, line2 != "")

	top := (band.Dy() - total) / 2
	drawCenteredLine(img, face, line1, top-bounds1.Min.Y.Ceil())
	if line2 != "" {
		top += height1 + int(size/3)
		drawCenteredLine(img, face, line2, top-bounds2.Min.Y.Ceil())
	}
}

// drawCenteredLine draws a line of text centred horizontally on img
func drawCenteredLine(img *image.RGBA, face font.Face, text string, baselineY int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(posterTextColor()),
		Face: face,
	}

	bounds, _ := d.BoundString(text)
	textWidth := (bounds.Max.X - bounds.Min.X).Ceil()
	x := (img.Bounds().Dx() - textWidth) / 2

	d.Dot = freetype.Pt(x, baselineY)
	d.DrawString(text)
}
