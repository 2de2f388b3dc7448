package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/barrace/internal/chart"
	"github.com/linuxmatters/barrace/internal/cli"
	"github.com/linuxmatters/barrace/internal/config"
	"github.com/linuxmatters/barrace/internal/data"
	"github.com/linuxmatters/barrace/internal/race"
	"github.com/linuxmatters/barrace/internal/renderer"
	"github.com/linuxmatters/barrace/internal/ui"
	"github.com/linuxmatters/barrace/internal/writer"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// Flags is the command line. Zero values leave the chart file setting alone.
type Flags struct {
	Input  string `arg:"" name:"input" help:"Input CSV table, one row per period" optional:""`
	Output string `arg:"" name:"output" help:"Output animation (.mp4, .mov, .webm, .gif) or .png for a snapshot" optional:""`

	Config       string            `help:"YAML chart configuration" type:"path" group:"chart"`
	Title        string            `help:"Chart title" group:"chart"`
	NBars        int               `name:"n-bars" help:"Bars shown per period, 0 for every category" default:"-1" group:"chart"`
	Orientation  string            `help:"Bar orientation: h or v" group:"chart"`
	Sort         string            `help:"Ranking order: desc or asc" group:"chart"`
	FixedMax     bool              `name:"fixed-max" help:"Fix the value axis to the table maximum" group:"chart"`
	FPS          float64           `name:"fps" help:"Output frames per second" group:"chart"`
	PeriodLength time.Duration     `name:"period-length" help:"How long each period is shown" group:"chart"`
	TickTemplate string            `name:"tick-template" help:"Value axis label template, e.g. {x:,.0f}" group:"chart"`
	Metadata     map[string]string `help:"Container metadata as key=value" group:"chart"`
	HWAccel      string            `name:"hwaccel" help:"Hardware encoder: none, auto, nvenc, qsv, vaapi, vulkan, videotoolbox" group:"chart"`
	Snapshot     int               `help:"Render only this period to the .png output" default:"-1" group:"chart"`

	NoThumbnail   bool   `name:"no-thumbnail" help:"Skip the poster image" group:"run"`
	NoProgress    bool   `name:"no-progress" help:"Disable the progress UI and log to stderr" group:"run"`
	NoPreview     bool   `name:"no-preview" help:"Disable the frame preview in the progress UI" group:"run"`
	ProbeEncoders bool   `name:"probe-encoders" help:"List hardware encoders and exit" group:"run"`
	LogFile       string `name:"log-file" help:"Write logs to this file" type:"path" group:"run"`
	Verbose       bool   `short:"v" help:"Log every period" group:"run"`
	Version       bool   `help:"Show version information"`
}

var flagGroups = []kong.Group{
	{Key: "chart", Title: "Chart Flags:"},
	{Key: "run", Title: "Run Flags:"},
}

func main() {
	envVars, err := config.EnvVars()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	var flags Flags
	kong.Parse(&flags,
		kong.Name("barrace"),
		kong.Description(cli.Tagline),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.ExplicitGroups(flagGroups),
		kong.Help(cli.StyledHelpPrinter(envVars)),
	)

	if flags.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env, err := config.LoadEnv()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if flags.ProbeEncoders {
		encoders, err := writer.DetectHWEncoders(ctx, env.FFmpeg)
		if err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		fmt.Print(writer.EncoderStatus(encoders))
		os.Exit(0)
	}

	if flags.Input == "" || flags.Output == "" {
		cli.PrintError("<input> and <output> are required")
		os.Exit(1)
	}
	if _, err := os.Stat(flags.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", flags.Input))
		os.Exit(1)
	}

	if err := run(ctx, flags, env); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// setup is everything resolved before the first frame is drawn.
type setup struct {
	chart   *chart.CommonChart
	figure  *chart.Figure
	table   *data.Table
	frames  []race.Frame
	options race.Options
	style   renderer.Options
	cfg     *config.Chart
}

func run(ctx context.Context, flags Flags, env *config.Env) error {
	logger, closeLog, err := newLogger(flags)
	if err != nil {
		return err
	}
	defer closeLog()

	if flags.NoProgress {
		cli.PrintBanner()
	}

	start := time.Now()
	s, err := prepare(flags, env)
	if err != nil {
		return err
	}
	logger.Info("table loaded",
		"input", flags.Input,
		"periods", s.table.Periods(),
		"columns", len(s.table.Columns),
		"elapsed", time.Since(start))

	if chart.Extension(flags.Output) == "png" {
		return snapshot(flags, s, logger)
	}

	if err := selectEncoder(ctx, flags, env, s.chart, logger); err != nil {
		return err
	}

	w := s.chart.Writer(s.cfg.Metadata, s.options.FPS)
	job := renderer.Job{
		Output:    flags.Output,
		Figure:    s.figure,
		Columns:   len(s.table.Columns),
		Frames:    s.frames,
		Hold:      s.options.HoldFrames(),
		Style:     s.style,
		Thumbnail: !flags.NoThumbnail,
		Title:     s.chart.Title.Label,
		Preview:   !flags.NoProgress && !flags.NoPreview,
		Logger:    logger,
	}
	load := ui.LoadComplete{
		Periods:     s.table.Periods(),
		Columns:     len(s.table.Columns),
		TotalFrames: len(s.frames) * job.Hold,
		FPS:         s.options.FPS,
		EncoderName: w.Name(),
		LoadTime:    time.Since(start),
	}

	if flags.NoProgress {
		stats, err := renderer.Animate(ctx, w, job)
		if err != nil {
			return err
		}
		cli.PrintProgressSummary(cli.Summary{
			Output:   flags.Output,
			Poster:   stats.Thumbnail,
			Encoder:  w.Name(),
			Frames:   stats.Frames,
			Periods:  stats.Periods,
			Duration: time.Duration(float64(stats.Frames) / s.options.FPS * float64(time.Second)),
			Elapsed:  stats.TotalTime,
			Size:     fileSize(flags.Output),
		})
		return nil
	}

	return animateWithUI(ctx, w, job, load, flags.NoPreview)
}

// animateWithUI renders in a goroutine while Bubbletea draws progress.
func animateWithUI(ctx context.Context, w writer.Writer, job renderer.Job, load ui.LoadComplete, noPreview bool) error {
	model := ui.NewModel(noPreview)
	p := tea.NewProgram(model)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var renderErr error
	done := make(chan struct{})

	go func() {
		defer close(done)
		p.Send(load)

		job.OnProgress = func(pr renderer.Progress) {
			// Throttle to every third frame, always reporting new periods.
			if pr.Frame%3 != 0 && pr.Image == nil && pr.Frame != pr.TotalFrames {
				return
			}
			standings := make([]ui.Standing, len(pr.Bars))
			for i, b := range pr.Bars {
				standings[i] = ui.Standing{Name: b.Name, Value: b.Value}
			}
			p.Send(ui.RenderProgress{
				Frame:       pr.Frame,
				TotalFrames: pr.TotalFrames,
				Period:      pr.Period,
				PeriodLabel: pr.Label,
				Elapsed:     pr.Elapsed,
				FileSize:    fileSize(job.Output),
				Standings:   standings,
				FrameData:   pr.Image,
			})
		}

		stats, err := renderer.Animate(ctx, w, job)
		if err != nil {
			renderErr = err
			p.Quit()
			return
		}

		p.Send(ui.RenderComplete{
			OutputFile:    job.Output,
			ThumbnailFile: stats.Thumbnail,
			EncoderName:   w.Name(),
			FileSize:      fileSize(job.Output),
			TotalFrames:   stats.Frames,
			Periods:       stats.Periods,
			FPS:           load.FPS,
			DrawTime:      stats.DrawTime,
			EncodeTime:    stats.EncodeTime,
			FinalizeTime:  stats.FinalizeTime,
			ThumbnailTime: stats.ThumbnailTime,
			TotalTime:     stats.TotalTime,
		})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("running UI: %w", err)
	}

	// The UI can exit early on ctrl+c; stop the render and wait for it.
	cancel()
	<-done

	if renderErr != nil {
		if errors.Is(renderErr, context.Canceled) {
			return errors.New("interrupted")
		}
		return renderErr
	}

	// The final frame bubbletea leaves on screen is the completion summary.
	return nil
}

// prepare loads configuration, the table and the ranked frames.
func prepare(flags Flags, env *config.Env) (*setup, error) {
	path := flags.Config
	if path == "" {
		path = env.Config
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, flags)

	c, err := chart.New(flags.Output, cfg.FigKwargs, cfg.Title)
	if err != nil {
		return nil, err
	}
	c.Tools = chart.Tools{FFmpeg: env.FFmpeg, Convert: env.Convert}

	if _, err := c.SetSharedFont(cfg.SharedFontdict); err != nil {
		return nil, err
	}
	ticks, err := c.TickTemplate(cfg.TickTemplate)
	if err != nil {
		return nil, err
	}
	fig, err := c.Figure(nil)
	if err != nil {
		return nil, err
	}

	table, err := data.LoadFile(flags.Input)
	if err != nil {
		return nil, err
	}

	opts := race.Options{
		NBars:        cfg.NBars,
		Orientation:  cfg.Orientation,
		Sort:         cfg.Sort,
		FixedMax:     cfg.FixedMax,
		PeriodLength: cfg.PeriodLength,
		FPS:          cfg.FPS,
	}.WithDefaults()
	frames, err := race.Build(table, opts)
	if err != nil {
		return nil, err
	}

	slots := opts.NBars
	if slots == 0 || slots > len(table.Columns) {
		slots = len(table.Columns)
	}

	return &setup{
		chart:   c,
		figure:  fig,
		table:   table,
		frames:  frames,
		options: opts,
		cfg:     cfg,
		style: renderer.Options{
			Title:           c.Title,
			Ticks:           ticks,
			Orientation:     opts.Orientation,
			Slots:           slots,
			Colors:          cfg.Colors,
			PeriodFmt:       cfg.PeriodFmt,
			BarLabelSize:    cfg.BarLabelSize,
			TickLabelSize:   cfg.TickLabelSize,
			PeriodLabelSize: cfg.PeriodSize,
		},
	}, nil
}

// applyFlags overlays the flags a user actually set on the chart file.
func applyFlags(cfg *config.Chart, flags Flags) {
	if flags.Title != "" {
		cfg.Title = flags.Title
	}
	if flags.NBars >= 0 {
		cfg.NBars = flags.NBars
	}
	if flags.Orientation != "" {
		cfg.Orientation = flags.Orientation
	}
	if flags.Sort != "" {
		cfg.Sort = flags.Sort
	}
	if flags.FixedMax {
		cfg.FixedMax = true
	}
	if flags.FPS > 0 {
		cfg.FPS = flags.FPS
	}
	if flags.PeriodLength > 0 {
		cfg.PeriodLength = flags.PeriodLength
	}
	if flags.TickTemplate != "" {
		cfg.TickTemplate = flags.TickTemplate
	}
	if len(flags.Metadata) > 0 {
		if cfg.Metadata == nil {
			cfg.Metadata = make(map[string]string, len(flags.Metadata))
		}
		for k, v := range flags.Metadata {
			cfg.Metadata[k] = v
		}
	}
}

// selectEncoder resolves --hwaccel (or BARRACE_HWACCEL) to an ffmpeg codec.
// GIF output and software encoding leave the codec to the writer.
func selectEncoder(ctx context.Context, flags Flags, env *config.Env, c *chart.CommonChart, logger *slog.Logger) error {
	requested := flags.HWAccel
	if requested == "" {
		requested = env.HWAccel
	}
	accel, err := writer.ParseHWAccel(requested)
	if err != nil {
		return err
	}
	if accel == writer.HWAccelNone || !h264Container(c.Extension) {
		return nil
	}

	encoders, err := writer.DetectHWEncoders(ctx, env.FFmpeg)
	if err != nil {
		return err
	}
	enc := writer.SelectEncoder(accel, encoders)
	if enc == nil {
		logger.Warn("no hardware encoder available, using software", "requested", accel)
		if flags.NoProgress {
			cli.PrintWarning(fmt.Sprintf("%s encoder not available, using software encoding", accel))
		}
		return nil
	}

	c.Tools.Codec = enc.Name
	logger.Info("hardware encoder selected", "encoder", enc.Name, "description", enc.Description)
	return nil
}

func h264Container(ext string) bool {
	switch ext {
	case "mp4", "m4v", "mov", "mkv":
		return true
	}
	return false
}

// snapshot renders a single period to a PNG.
func snapshot(flags Flags, s *setup, logger *slog.Logger) error {
	period := flags.Snapshot
	if period < 0 {
		period = len(s.frames) - 1
	}
	if period >= len(s.frames) {
		return fmt.Errorf("snapshot period %d out of range, table has %d periods", period, len(s.frames))
	}

	frame, err := renderer.NewFrame(s.figure, len(s.table.Columns), s.style)
	if err != nil {
		return err
	}
	if err := frame.Snapshot(flags.Output, s.frames[period]); err != nil {
		return err
	}

	logger.Info("snapshot written", "output", flags.Output, "period", s.frames[period].Label)
	cli.PrintSuccess(fmt.Sprintf("Snapshot of %s written to %s", s.frames[period].Label, flags.Output))
	return nil
}

// newLogger sends logs to --log-file, to stderr without the progress UI,
// or nowhere.
func newLogger(flags Flags) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer
	closeLog := func() {}
	switch {
	case flags.LogFile != "":
		f, err := os.OpenFile(flags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeLog = func() { _ = f.Close() }
	case flags.NoProgress:
		out = os.Stderr
	default:
		return slog.New(slog.DiscardHandler), closeLog, nil
	}

	return slog.New(slog.NewTextHandler(out, opts)), closeLog, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
