package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	successColor = lipgloss.Color("#2CA02C")
	errorColor   = lipgloss.Color("#D62728")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Gold).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Bronze).
			MarginTop(1).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Gold)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Bronze).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// PrintBanner prints the application banner
func PrintBanner() {
	fmt.Println(TitleStyle.Render("Bar Race 🏁"))
	fmt.Println(SubtitleStyle.Render(Tagline))
	fmt.Println()
}

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Bar Race 🏁"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("%s %s\n", HighlightStyle.Render("Warning:"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("✓"), message)
}

// PrintInfo prints an informational message
func PrintInfo(key, value string) {
	fmt.Printf("%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Println(HeaderStyle.Render(title))
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatSpeed formats encoding speed
func FormatSpeed(speed float64) string {
	return fmt.Sprintf("%.1fx realtime", speed)
}

// FormatBytes formats a file size in SI units
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

// PrintBox prints content in a styled box
func PrintBox(content string) {
	fmt.Println(BoxStyle.Render(content))
}

// Summary is the plain completion report printed when the TUI is off.
type Summary struct {
	Output   string
	Poster   string
	Encoder  string
	Frames   int
	Periods  int
	Duration time.Duration // Video length
	Elapsed  time.Duration
	Size     int64
}

// FormatSummary renders s as the body of the completion box.
func FormatSummary(s Summary) string {
	var b strings.Builder

	b.WriteString(SuccessStyle.Render("✓ Race Complete!"))
	b.WriteString("\n\n")

	row := func(key, value string) {
		b.WriteString(KeyStyle.Render(fmt.Sprintf("%-11s", key+":")))
		b.WriteString(ValueStyle.Render(value))
		b.WriteString("\n")
	}

	row("Output", s.Output)
	if s.Poster != "" {
		row("Poster", s.Poster)
	}
	if s.Encoder != "" {
		row("Encoder", s.Encoder)
	}
	row("Video", fmt.Sprintf("%d frames from %d periods", s.Frames, s.Periods))
	row("Duration", FormatDuration(s.Duration))
	if s.Elapsed > 0 {
		row("Speed", FormatSpeed(s.Duration.Seconds()/s.Elapsed.Seconds()))
	}
	row("File Size", FormatBytes(s.Size))

	return strings.TrimSuffix(b.String(), "\n")
}

// PrintProgressSummary prints a completion summary in a box
func PrintProgressSummary(s Summary) {
	PrintBox(FormatSummary(s))
}
