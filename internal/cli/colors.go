package cli

import "github.com/charmbracelet/lipgloss"

// Podium colour palette shared by the CLI and TUI
var (
	Gold   = lipgloss.Color("#FFD700")
	Silver = lipgloss.Color("#C0C0C0")
	Bronze = lipgloss.Color("#CD7F32")
	Track  = lipgloss.Color("#1F77B4") // Default first bar colour

	Muted = lipgloss.Color("#8A8A8A")
)

// Tagline describes the program in help and banners.
const Tagline = "Race the columns of a CSV table as an animated bar chart, encoded with ffmpeg or ImageMagick."
