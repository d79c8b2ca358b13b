// Package ui is the gocui front end of makerapi. All data lives in
// session.State; the App only keeps what is on screen and the inputs typed
// for each route.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jroimartin/gocui"

	"makerapi/internal/logging"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

type screen int

const (
	screenLoading screen = iota
	screenError
	screenRoutes
	screenRoute
)

type App struct {
	st     *session.State
	log    *slog.Logger
	editor string
	ctx    context.Context

	g *gocui.Gui

	// Set from loader and executor goroutines.
	mu      sync.Mutex
	busy    string
	msg     string
	initErr error
	ready   bool

	scr screen

	filterText string
	method     string
	rows       []row
	selected   int

	route    model.Route
	tabs     []session.Tab
	tab      int
	inputs   map[string]*routeInput
	paramSel int

	editing bool
	editKey string

	suspendEditorFile string
}

// New creates the TUI for st. editor is the configured editor command;
// empty falls back to $EDITOR and vi.
func New(st *session.State, editor string, log *slog.Logger) *App {
	return &App{
		st:     st,
		log:    logging.OrNop(log),
		editor: editor,
		scr:    screenLoading,
		inputs: map[string]*routeInput{},
	}
}

// Run loads the server configuration in the background and runs the main
// loop until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	a.startInit()

	// gocui has no suspend; the loop is left and the GUI recreated around
	// the external editor.
	for {
		g, err := gocui.NewGui(gocui.OutputNormal)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.g = g
		a.mu.Unlock()

		g.BgColor = gocui.ColorBlack
		g.FgColor = gocui.ColorWhite
		g.Cursor = true
		g.InputEsc = true
		g.SetManagerFunc(a.layout)

		if err := a.bindKeys(); err != nil {
			g.Close()
			return err
		}

		stop := context.AfterFunc(ctx, func() {
			g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		})
		err = g.MainLoop()
		stop()
		g.Close()
		a.mu.Lock()
		a.g = nil
		a.mu.Unlock()

		if a.suspendEditorFile != "" && ctx.Err() == nil {
			file := a.suspendEditorFile
			a.suspendEditorFile = ""
			if err := a.runExternalEditor(file); err != nil {
				a.setMsg(err.Error())
			}
			continue
		}

		if err != nil && !errors.Is(err, gocui.ErrQuit) {
			return err
		}
		return nil
	}
}

// redraw wakes the main loop so the layout picks up state changed by a
// goroutine.
func (a *App) redraw() {
	a.mu.Lock()
	g := a.g
	a.mu.Unlock()
	if g != nil {
		g.Update(func(*gocui.Gui) error { return nil })
	}
}

func (a *App) setMsg(msg string) {
	a.mu.Lock()
	a.msg = msg
	a.mu.Unlock()
}

func (a *App) status() (busy, msg string, initErr error, ready bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy, a.msg, a.initErr, a.ready
}

// async runs fn off the main loop with a busy label shown in the footer.
func (a *App) async(label string, fn func(ctx context.Context) error, done func(err error)) {
	a.mu.Lock()
	a.busy = label
	a.mu.Unlock()

	go func() {
		err := fn(a.ctx)
		a.mu.Lock()
		if a.busy == label {
			a.busy = ""
		}
		a.mu.Unlock()
		if done != nil {
			done(err)
		}
		a.redraw()
	}()
}

func (a *App) startInit() {
	a.async("loading API configuration", a.st.Init, func(err error) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.initErr = err
		a.ready = err == nil
		if err != nil {
			a.log.Warn("init failed", "err", err)
		}
	})
}

// loadSpec switches to spec id. A load overtaken by a newer one reports
// nothing.
func (a *App) loadSpec(id string) {
	a.async("loading "+id+" specification", func(ctx context.Context) error {
		return a.st.SelectSpec(ctx, id)
	}, func(err error) {
		switch {
		case err == nil:
			a.setMsg("")
		case errors.Is(err, model.ErrStaleLoad):
		default:
			a.setMsg(err.Error())
		}
	})
}

func (a *App) refresh() {
	a.async("refreshing", a.st.Refresh, func(err error) {
		if err != nil && !errors.Is(err, model.ErrStaleLoad) {
			a.setMsg(err.Error())
			return
		}
		a.setMsg("")
	})
}

func (a *App) input(r model.Route) *routeInput {
	in, ok := a.inputs[r.ID()]
	if !ok {
		in = newRouteInput(r)
		a.inputs[r.ID()] = in
	}
	return in
}
