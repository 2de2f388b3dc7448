package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PreviewConfig holds configuration for the frame preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig returns a 72x20 preview, close to the default
// figure's aspect once cells are taken as twice as tall as wide.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  72,
		Height: 20,
	}
}

// PreviewConfigFor sizes a preview width cells wide that keeps the aspect
// ratio of bounds.
func PreviewConfigFor(bounds image.Rectangle, width int) PreviewConfig {
	if width <= 0 || bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return DefaultPreviewConfig()
	}
	height := int(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()) / 2)
	if height < 1 {
		height = 1
	}
	return PreviewConfig{Width: width, Height: height}
}

// DownsampleFrame averages each cell sized region of frame into one colour.
func DownsampleFrame(frame *image.RGBA, config PreviewConfig) [][]color.RGBA {
	bounds := frame.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	cellWidth := max(srcWidth/config.Width, 1)
	cellHeight := max(srcHeight/config.Height, 1)

	preview := make([][]color.RGBA, config.Height)
	for row := 0; row < config.Height; row++ {
		preview[row] = make([]color.RGBA, config.Width)
		for col := 0; col < config.Width; col++ {
			srcX := col * cellWidth
			srcY := row * cellHeight

			var sumR, sumG, sumB uint32
			pixelCount := 0

			for y := srcY; y < srcY+cellHeight && y < srcHeight; y++ {
				for x := srcX; x < srcX+cellWidth && x < srcWidth; x++ {
					c := frame.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
					sumR += uint32(c.R)
					sumG += uint32(c.G)
					sumB += uint32(c.B)
					pixelCount++
				}
			}

			if pixelCount > 0 {
				preview[row][col] = color.RGBA{
					R: uint8(sumR / uint32(pixelCount)),
					G: uint8(sumG / uint32(pixelCount)),
					B: uint8(sumB / uint32(pixelCount)),
					A: 255,
				}
			}
		}
	}

	return preview
}

// RenderPreview draws a preview grid with ANSI 24-bit background colours,
// one space per cell.
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	var result strings.Builder
	border := strings.Repeat("─", len(preview[0]))

	result.WriteString("  Frame Preview:\n")
	result.WriteString("  ┌" + border + "┐\n")

	for _, row := range preview {
		result.WriteString("  │")
		for _, pixel := range row {
			fmt.Fprintf(&result, "\x1b[48;2;%d;%d;%dm \x1b[0m", pixel.R, pixel.G, pixel.B)
		}
		result.WriteString("│\n")
	}

	result.WriteString("  └" + border + "┘\n")

	return result.String()
}
