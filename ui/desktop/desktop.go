// Package desktop hosts the Tk window around the cloak pipeline.
package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/soocke/invisicam-go/app"
	"github.com/soocke/invisicam-go/domain/capture"
	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/ui/presenter"
	"github.com/soocke/invisicam-go/ui/theme"
	"github.com/soocke/invisicam-go/ui/view"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const (
	uiTick     = 33 * time.Millisecond
	previewFPS = 30
)

// Desktop is the main window: the root view, its presenters and the update
// loop driven from the Tk event loop.
type Desktop struct {
	c       *app.AppContainer
	title   string
	width   int
	height  int
	root    *view.RootView
	loop    *presenter.Loop
	afterID string
	cancel  context.CancelFunc
}

func NewDesktop(title string, width, height int, c *app.AppContainer) *Desktop {
	return &Desktop{c: c, title: title, width: width, height: height}
}

// Start builds the window, starts the capture pipeline and blocks until
// the window is closed.
func (a *Desktop) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	defer a.Stop()
	c := a.c
	logger := c.Logger

	theme.SetDark(c.Config.DarkMode)
	App.WmTitle(a.title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", a.width, a.height))

	ctrl := restartingController{Cloak: c.Cloak, ctx: ctx}
	a.root = view.NewRootView(c.Config, c.ConfigPath, c.Region, capture.ScreenBounds(), logger)
	rec := presenter.NewRecordingPresenter(ctx, ctrl, a.root, logger)
	color := presenter.NewColorPresenter(c.Cloak, c.Palette, a.root, c.Config, c.ConfigPath, logger)
	a.root.Build(view.Handlers{
		CaptureBackground: rec.CaptureBackground,
		ToggleRecording:   rec.Toggle,
		Finish:            rec.Finish,
		Discard:           rec.Discard,
		Export:            rec.Export,
		Exit:              a.exitHandler,
		PresetChanged:     color.SelectPreset,
		ApplyCustom:       color.ApplyCustom,
	})

	state := presenter.NewStatePresenter(c.Cloak, a.root)
	c.OnState(state.OnState)
	a.loop = &presenter.Loop{
		State:     state,
		Recording: rec,
		Session:   presenter.NewSessionPresenter(c.Session, a.root),
		Preview:   presenter.NewPreviewPresenter(c.Preview, a.root, c.Config.PreviewWidth, c.Config.PreviewHeight, previewFPS, c.Config.MirrorPreview),
		Status:    presenter.NewStatusPresenter(c.Status, a.root),
		Color:     color,
		Schedule:  a.scheduleUpdate,
	}

	if err := c.Cloak.Start(ctx); err != nil && logger != nil {
		logger.Warn("camera not started; use Capture Background to retry", "error", err)
	}
	a.scheduleUpdate()
	App.Wait()
}

// Stop tears the pipeline down. Safe to call more than once.
func (a *Desktop) Stop() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.c.Cloak.Stop()
}

func (a *Desktop) exitHandler() {
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
		a.afterID = ""
	}
	a.Stop()
	Destroy(App)
}

func (a *Desktop) scheduleUpdate() {
	// TclAfter keeps updates on Tk's event loop thread.
	a.afterID = TclAfter(uiTick, func() { a.loop.Tick() })
}

// restartingController restarts a stopped pipeline before capturing a
// background, so the window recovers after the capture source was lost.
type restartingController struct {
	*app.Cloak
	ctx context.Context
}

func (r restartingController) CaptureBackground(ctx context.Context) error {
	if !r.Cloak.Running() {
		if err := r.Cloak.Start(r.ctx); err != nil {
			return err
		}
	}
	return r.Cloak.CaptureBackground(ctx)
}

var _ presenter.RecordingController = restartingController{}
var _ presenter.ColorController = (*app.Cloak)(nil)
var _ presenter.PaletteSource = (*chroma.Palette)(nil)
