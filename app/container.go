package app

import (
	"image"
	"log/slog"
	"slices"
	"sync"

	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/domain/capture"
	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/domain/compositor"
	"github.com/soocke/invisicam-go/domain/encode"
	"github.com/soocke/invisicam-go/domain/recording"
	"github.com/soocke/invisicam-go/export"
	"github.com/soocke/invisicam-go/ui/model"
)

// AppContainer assembles the capture pipeline and the models shared with the UI.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger

	Region     *model.RegionModel
	Session    *model.SessionModel
	Preview    *model.PreviewModel
	Status     *StatusBoard
	Source     *capture.ScreenSource
	Compositor *compositor.Compositor
	Palette    *chroma.Palette
	Recorder   *encode.MJPEGRecorder
	Exporter   *export.Writer
	Cloak      *Cloak

	states stateFanout
}

// ContainerOptions overrides collaborators, mainly for tests and the
// headless runner.
type ContainerOptions struct {
	Grabber  capture.Grabber
	Audio    recording.AudioTrack
	Notifier Notifier // added next to the status board
	// NoPreview skips the preview model as display sink.
	NoPreview bool
}

// BuildContainer constructs all components. Nothing is started.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger, opts ContainerOptions) *AppContainer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger}
	c.Region = model.NewRegionModel(cfg.SelectionX, cfg.SelectionY, cfg.SelectionW, cfg.SelectionH)
	c.Session = model.NewSessionModel()
	c.Status = NewStatusBoard(nil)

	c.Source = capture.NewScreenSource(capture.Options{
		Grabber:   opts.Grabber,
		FrameRate: cfg.CaptureHz,
		Selection: c.Region.SelectionRect,
		Logger:    logger,
	})
	c.Compositor = compositor.New(compositor.Options{
		Workers:      cfg.Workers,
		LookupTable:  cfg.LookupTable,
		LUTCacheSize: cfg.LUTCacheSize,
	}, logger)
	c.Palette = chroma.NewPalette()
	c.Palette.SetCustom(cfg.Custom)
	if err := c.Palette.Select(cfg.Preset); err != nil && logger != nil {
		logger.Warn("configured preset rejected", "preset", cfg.Preset, "error", err)
	}
	c.Recorder = encode.NewMJPEGRecorder(encode.MJPEGOptions{
		FPS:     cfg.RecordFPS,
		Quality: cfg.JPEGQuality,
		Running: c.Source.Running,
		Audio:   opts.Audio,
		Logger:  logger,
	})
	c.Exporter = export.NewWriter(cfg.ExportDir, cfg.FilenamePattern, logger)

	var sink DisplaySink
	if !opts.NoPreview {
		c.Preview = &model.PreviewModel{}
		sink = c.Preview
	}
	notifier := multiNotifier{c.Status, LogNotifier{Logger: logger}}
	if opts.Notifier != nil {
		notifier = append(notifier, opts.Notifier)
	}
	c.states.add(c.Session.OnState)
	c.Cloak = NewCloak(Options{
		Source:     c.Source,
		Compositor: c.Compositor,
		Palette:    c.Palette,
		Recorder:   c.Recorder,
		Audio:      opts.Audio,
		Sink:       sink,
		Notifier:   notifier,
		Exporter:   c.Exporter,
		RefreshHz:  cfg.RefreshHz,
		Countdown:  cfg.CountdownSeconds,
		OnElapsed:  c.Session.OnElapsed,
		OnState:    c.states.emit,
		Logger:     logger,
	})
	return c
}

// OnState registers an additional session transition listener.
func (c *AppContainer) OnState(fn func(prev, next recording.State)) { c.states.add(fn) }

// ApplyConfig hands a reloaded configuration to the running components.
// Only the color selection and capture region take effect without restart.
func (c *AppContainer) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	c.Cloak.ApplyConfig(cfg)
	if cfg.SelectionW > 0 && cfg.SelectionH > 0 {
		c.Region.Set(image.Rect(cfg.SelectionX, cfg.SelectionY, cfg.SelectionX+cfg.SelectionW, cfg.SelectionY+cfg.SelectionH))
	} else {
		c.Region.Clear()
	}
}

// PipelineAttrs snapshots pipeline counters for the debug stats logger.
func (c *AppContainer) PipelineAttrs() []slog.Attr {
	st := c.Cloak.Stats()
	rec := c.Recorder.Stats()
	return []slog.Attr{
		slog.Uint64("captures", st.Capture.Captures),
		slog.Uint64("capture_failures", st.Capture.Failures),
		slog.Uint64("displayed", st.Displayed),
		slog.Uint64("passthrough", st.Passthrough),
		slog.Uint64("composited", st.Compositor.Frames),
		slog.Duration("avg_composite", st.Compositor.AvgComposite),
		slog.Float64("coverage", st.Compositor.LastCoverage),
		slog.Uint64("encoded", rec.Encoded),
		slog.Uint64("dropped", rec.Dropped),
		slog.String("session", c.Cloak.Session().State().String()),
	}
}

// stateFanout forwards session transitions to several listeners.
type stateFanout struct {
	mu  sync.Mutex
	fns []func(prev, next recording.State)
}

func (f *stateFanout) add(fn func(prev, next recording.State)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	f.fns = append(f.fns, fn)
	f.mu.Unlock()
}

func (f *stateFanout) emit(prev, next recording.State) {
	f.mu.Lock()
	fns := slices.Clone(f.fns)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(prev, next)
	}
}
