package renderer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/barrace/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateThumbnail(t *testing.T) {
	fig := testFigure(t, nil)
	f, err := NewFrame(fig, 3, Options{})
	require.NoError(t, err)

	frame, err := f.Draw(testFrame())
	require.NoError(t, err)

	testCases := []struct {
		name  string
		title string
	}{
		{"no title", ""},
		{"one word", "Populations"},
		{"long title", "Most Populous Cities of the World Since Nineteen Fifty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "poster.png")
			require.NoError(t, GenerateThumbnail(out, frame, color.White, tc.title))

			file, err := os.Open(out)
			require.NoError(t, err)
			defer file.Close()

			img, err := png.Decode(file)
			require.NoError(t, err)
			assert.Equal(t, config.PosterWidth, img.Bounds().Dx())
			assert.Equal(t, config.PosterHeight, img.Bounds().Dy())
		})
	}
}

func TestThumbnailPath(t *testing.T) {
	assert.Equal(t, "out/race.png", ThumbnailPath("out/race.mp4"))
	assert.Equal(t, "race.png", ThumbnailPath("race.gif"))
	assert.Equal(t, "dir.v2/race.png", ThumbnailPath("dir.v2/race"))
}

func TestSplitTitle(t *testing.T) {
	testCases := []struct {
		title string
		line1 string
		line2 string
	}{
		{"", "", ""},
		{"Solo", "Solo", ""},
		{"Two Words", "Two", "Words"},
		{"GDP by Country Since 1960", "GDP by", "Country Since 1960"},
	}

	for _, tc := range testCases {
		line1, line2 := splitTitle(tc.title)
		assert.Equal(t, tc.line1, line1)
		assert.Equal(t, tc.line2, line2)
	}
}

func TestFindOptimalFontSize_FitsBanner(t *testing.T) {
	f, err := posterFont()
	require.NoError(t, err)

	size := findOptimalFontSize(f, "A Considerably Long Line", "Of Title Text Here")
	assert.Greater(t, size, 10.0)

	face, err := LoadFont(size)
	require.NoError(t, err)
	defer face.Close()

	width, _ := measureText(face, "A Considerably Long Line")
	assert.LessOrEqual(t, width, config.PosterWidth-2*config.PosterMargin)
}

func TestScaleToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	dst := ScaleToFit(src, 400, 400, color.Black)
	assert.Equal(t, image.Rect(0, 0, 400, 400), dst.Bounds())
	assert.Equal(t, color.RGBA{A: 255}, dst.RGBAAt(0, 0), "letterbox uses the background")
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, dst.RGBAAt(200, 200))
}
