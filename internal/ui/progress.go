package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Podium colour palette
var (
	gold   = lipgloss.Color("#FFD700")
	silver = lipgloss.Color("#C0C0C0")
	bronze = lipgloss.Color("#CD7F32")
	track  = lipgloss.Color("#1F77B4") // Leader board blue
	lane   = lipgloss.Color("#3A3A3A") // Empty lane

	mutedText = lipgloss.Color("#8A8A8A")
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseRendering
	PhaseComplete
)

// Standing is one category's place in the current period.
type Standing struct {
	Name  string
	Value float64
}

// LoadComplete signals the table was read and ranked.
type LoadComplete struct {
	Periods     int
	Columns     int
	TotalFrames int
	FPS         float64
	EncoderName string
	LoadTime    time.Duration
}

// RenderProgress reports each written output frame.
type RenderProgress struct {
	Frame       int
	TotalFrames int
	Period      int
	PeriodLabel string
	Elapsed     time.Duration
	FileSize    int64
	Standings   []Standing
	FrameData   *image.RGBA
}

// RenderComplete signals the animation and poster are written.
type RenderComplete struct {
	OutputFile    string
	ThumbnailFile string
	EncoderName   string
	FileSize      int64
	TotalFrames   int
	Periods       int
	FPS           float64
	DrawTime      time.Duration // Laying out and rasterising periods
	EncodeTime    time.Duration // Piping frames to the encoder
	FinalizeTime  time.Duration // Waiting for the encoder to exit
	ThumbnailTime time.Duration
	TotalTime     time.Duration
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

// Model implements the Bubbletea model for a render
type Model struct {
	progressBar progress.Model
	phase       Phase

	load        *LoadComplete
	renderState RenderProgress
	complete    *RenderComplete

	startTime      time.Time
	renderStart    time.Time
	completionTime time.Time

	width           int
	height          int
	noPreview       bool
	cachedPreview   string
	cachedFrameNum  int
	completionDelay time.Duration
	quitting        bool
}

// NewModel creates a new progress UI model
func NewModel(noPreview bool) *Model {
	p := progress.New(
		progress.WithGradient(string(bronze), string(gold)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		phase:           PhaseLoading,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
		noPreview:       noPreview,
		cachedFrameNum:  -1,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(msg.Width-30, 50)
		return m, nil

	case LoadComplete:
		m.load = &msg
		m.phase = PhaseRendering
		m.renderStart = time.Now()
		return m, nil

	case RenderProgress:
		m.renderState = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		m.phase = PhaseComplete
		m.completionTime = time.Now()
		m.quitting = true

		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// Phase returns the current processing phase.
func (m *Model) Phase() Phase {
	return m.phase
}

// View renders the UI
func (m *Model) View() string {
	if m.phase == PhaseComplete {
		return m.CompletionSummary()
	}
	return m.renderProgress()
}

// CompletionSummary returns the final summary, which View shows once the
// render completes and which stays on screen after the program exits.
// Returns an empty string until then.
func (m *Model) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderFinalProgress() + "\n" + m.renderComplete()
}

func (m *Model) header(s *strings.Builder, phaseLabel string) {
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(gold).Render("Bar Race 🏁"))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(bronze).Render(phaseLabel))
	s.WriteString("\n\n")
}

// renderFinalProgress renders the progress UI in its final completed state
func (m *Model) renderFinalProgress() string {
	var s strings.Builder
	m.header(&s, "Rendering & Encoding")

	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(1.0))
	s.WriteString("  100%\n\n")

	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("Time: %s  │  Speed: %.1fx realtime  │  Complete",
			formatDuration(m.complete.TotalTime),
			speed(m.complete.TotalFrames, m.complete.FPS, m.complete.TotalTime))))
	s.WriteString("\n\n")
	m.renderDataProfile(&s)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(bronze).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	if m.phase == PhaseLoading {
		m.header(&s, "Loading & Ranking")
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Reading table..."))
		s.WriteString("\n\n")
	} else {
		m.header(&s, "Rendering & Encoding")
		m.renderRenderingProgress(&s)
	}

	s.WriteString("\n")
	m.renderDataProfile(&s)

	if m.phase == PhaseRendering && len(m.renderState.Standings) > 0 {
		s.WriteString("\n\n")
		m.renderStandingsAndStats(&s)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(track).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderRenderingProgress(s *strings.Builder) {
	if m.renderState.TotalFrames == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting render..."))
		s.WriteString("\n\n")
		return
	}

	percent := float64(m.renderState.Frame) / float64(m.renderState.TotalFrames)
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n\n")

	elapsed := m.renderState.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(m.renderStart)
	}

	var estimatedTotal, eta time.Duration
	if percent > 0 {
		estimatedTotal = time.Duration(float64(elapsed) / percent)
		eta = estimatedTotal - elapsed
	}

	fps := 0.0
	if m.load != nil {
		fps = m.load.FPS
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("Time: %s / %s  │  Speed: %.1fx realtime  │  ETA: %s",
			formatDuration(elapsed),
			formatDuration(estimatedTotal),
			speed(m.renderState.Frame, fps, elapsed),
			formatDuration(eta))))
	s.WriteString("\n")

	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(
		fmt.Sprintf("Frame %d of %d  │  Period %d: %s",
			m.renderState.Frame, m.renderState.TotalFrames,
			m.renderState.Period+1, m.renderState.PeriodLabel)))
}

func (m *Model) renderDataProfile(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Data"))
	s.WriteString(" │ ")

	if m.load == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("Loading..."))
		return
	}

	s.WriteString(fmt.Sprintf("%d periods", m.load.Periods))
	s.WriteString("  ")
	s.WriteString(labelStyle.Render("Categories:"))
	s.WriteString(fmt.Sprintf(" %d", m.load.Columns))
	s.WriteString("  ")
	s.WriteString(labelStyle.Render("Frames:"))
	s.WriteString(fmt.Sprintf(" %d @ %g fps", m.load.TotalFrames, m.load.FPS))
	if m.load.EncoderName != "" {
		s.WriteString("  ")
		s.WriteString(labelStyle.Render("Encoder:"))
		s.WriteString(" " + m.load.EncoderName)
	}
}

func (m *Model) renderStandingsAndStats(s *strings.Builder) {
	s.WriteString(lipgloss.NewStyle().Foreground(bronze).Render("Standings:"))
	s.WriteString("\n")

	width := 40
	if m.width > 40 {
		width = min(m.width-40, 50)
	}
	standings := renderStandings(m.renderState.Standings, 5, width)

	var rightCol strings.Builder
	if m.renderState.FileSize > 0 {
		rightCol.WriteString(lipgloss.NewStyle().Foreground(mutedText).Render("File:  "))
		rightCol.WriteString(lipgloss.NewStyle().Bold(true).Render(humanize.Bytes(uint64(m.renderState.FileSize))))
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, standings, "  ", rightCol.String()))

	if !m.noPreview {
		if m.renderState.FrameData != nil && m.renderState.Frame != m.cachedFrameNum {
			config := PreviewConfigFor(m.renderState.FrameData.Bounds(), DefaultPreviewConfig().Width)
			m.cachedPreview = RenderPreview(DownsampleFrame(m.renderState.FrameData, config))
			m.cachedFrameNum = m.renderState.Frame
		}

		if m.cachedPreview != "" {
			s.WriteString("\n")
			s.WriteString(m.cachedPreview)
		}
	}
}

func (m *Model) renderComplete() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(gold).Render("✓ Race Complete!"))
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	c := m.complete

	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Output:   "), c.OutputFile))
	if c.ThumbnailFile != "" {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Poster:   "), c.ThumbnailFile))
	}
	if c.EncoderName != "" {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Encoder:  "), c.EncoderName))
	}
	s.WriteString(fmt.Sprintf("%s%d frames from %d periods at %g fps\n",
		dimLabel.Render("Video:    "), c.TotalFrames, c.Periods, c.FPS))
	s.WriteString(fmt.Sprintf("%s%.1fs video in %.1fs\n",
		dimLabel.Render("Duration: "), videoDuration(c.TotalFrames, c.FPS).Seconds(), c.TotalTime.Seconds()))
	s.WriteString(fmt.Sprintf("%s%s\n\n", dimLabel.Render("Size:     "), humanize.Bytes(uint64(max(c.FileSize, 0)))))

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(bronze).Render("Performance"))
	s.WriteString("\n")
	s.WriteString(StageTable(c))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(bronze).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

// StageTable tabulates where the render time went.
func StageTable(c *RenderComplete) string {
	totalMs := c.TotalTime.Milliseconds()
	if totalMs == 0 {
		totalMs = 1
	}

	stages := []struct {
		name string
		d    time.Duration
	}{
		{"Drawing", c.DrawTime},
		{"Encoding", c.EncodeTime},
		{"Finalising", c.FinalizeTime},
		{"Poster", c.ThumbnailTime},
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"Stage", "Time", "Share", ""})

	accounted := time.Duration(0)
	for _, st := range stages {
		if st.d <= 0 {
			continue
		}
		accounted += st.d
		tbl.AppendRow(stageRow(st.name, st.d, totalMs))
	}
	if other := c.TotalTime - accounted; other > 0 {
		tbl.AppendRow(stageRow("Runtime", other, totalMs))
	}
	tbl.AppendFooter(table.Row{"Total", formatDuration(c.TotalTime)})

	return tbl.Render()
}

func stageRow(name string, d time.Duration, totalMs int64) table.Row {
	ratio := float64(d.Milliseconds()) / float64(totalMs)
	return table.Row{name, "~" + formatDuration(d), fmt.Sprintf("%2d%%", int(ratio*100)), makeSparkline(ratio, 20)}
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func videoDuration(frames int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / fps * float64(time.Second))
}

// speed is how many seconds of video were produced per second of work.
func speed(frames int, fps float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(videoDuration(frames, fps)) / float64(elapsed)
}

func makeSparkline(ratio float64, width int) string {
	filled := int(ratio * float64(width))
	filled = max(0, min(filled, width))

	var result strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			pos := float64(i) / float64(width)
			var color lipgloss.Color
			switch {
			case pos < 0.33:
				color = bronze
			case pos < 0.66:
				color = silver
			default:
				color = gold
			}
			result.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		} else {
			result.WriteString(lipgloss.NewStyle().Foreground(lane).Render("░"))
		}
	}

	return result.String()
}

// renderStandings draws the leading n categories as horizontal bars
// scaled to the leader, gold, silver and bronze for the podium.
func renderStandings(standings []Standing, n, width int) string {
	if len(standings) == 0 || width <= 0 {
		return ""
	}
	if len(standings) > n {
		standings = standings[:n]
	}

	nameWidth := 0
	maxValue := 0.0
	for _, st := range standings {
		nameWidth = max(nameWidth, len([]rune(st.Name)))
		if st.Value > maxValue {
			maxValue = st.Value
		}
	}
	nameWidth = min(nameWidth, 16)
	if maxValue <= 0 {
		maxValue = 1
	}

	podium := []lipgloss.Color{gold, silver, bronze}
	lines := make([]string, 0, len(standings))
	for i, st := range standings {
		color := track
		if i < len(podium) {
			color = podium[i]
		}

		name := []rune(st.Name)
		if len(name) > nameWidth {
			name = name[:nameWidth]
		}

		filled := int(st.Value / maxValue * float64(width))
		filled = max(0, min(filled, width))

		lines = append(lines, fmt.Sprintf("%-*s %s%s %s",
			nameWidth, string(name),
			lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)),
			strings.Repeat(" ", width-filled),
			lipgloss.NewStyle().Faint(true).Render(humanize.Commaf(st.Value))))
	}

	return strings.Join(lines, "\n")
}
