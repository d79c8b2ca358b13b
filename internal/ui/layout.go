package ui

import (
	"fmt"

	"github.com/jroimartin/gocui"

	"makerapi/internal/session"
)

var mainViews = []string{"status", "filter", "routes", "selected", "params", "result", "panel", "edit"}

func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	_, _, initErr, ready := a.status()
	switch {
	case a.scr == screenLoading && initErr != nil:
		a.scr = screenError
	case a.scr == screenLoading && ready:
		a.scr = screenRoutes
	case a.scr == screenError && ready:
		a.scr = screenRoutes
	}

	if v, err := g.SetView("header", 0, 0, maxX-1, 2); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.BgColor = gocui.ColorBlack
		v.FgColor = gocui.ColorWhite
	}
	a.renderHeader()

	if v, err := g.SetView("footer", 0, maxY-2, maxX-1, maxY); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.BgColor = gocui.ColorBlack
		v.FgColor = gocui.ColorWhite
	}
	a.renderFooter()

	switch a.scr {
	case screenLoading, screenError:
		return a.layoutStatus(maxX, maxY)
	case screenRoutes:
		return a.layoutRoutes(maxX, maxY)
	case screenRoute:
		return a.layoutRoute(maxX, maxY)
	}
	return nil
}

func (a *App) layoutStatus(maxX, maxY int) error {
	a.clearMainViews([]string{"status"})
	if v, err := a.g.SetView("status", 0, 2, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Wrap = true
	}
	a.renderStatus()
	_, err := a.g.SetCurrentView("status")
	return err
}

func (a *App) layoutRoutes(maxX, maxY int) error {
	a.clearMainViews([]string{"filter", "routes"})

	if v, err := a.g.SetView("filter", 0, 2, maxX-1, 4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Editable = false
	}
	if v, err := a.g.SetView("routes", 0, 4, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Highlight = true
		v.SelFgColor = gocui.ColorBlack
		v.SelBgColor = gocui.ColorGreen
	}
	a.recomputeRows()
	a.renderFilter()
	a.renderRoutes()
	_, err := a.g.SetCurrentView("routes")
	return err
}

func (a *App) layoutRoute(maxX, maxY int) error {
	// The route may have gone away with a spec switch.
	if _, err := a.st.Route(a.route.ID()); err != nil {
		a.scr = screenRoutes
		return a.layoutRoutes(maxX, maxY)
	}

	tab := a.currentTab()
	keep := []string{"selected"}
	if tab == session.TabTry {
		keep = append(keep, "params", "result")
	} else {
		keep = append(keep, "panel")
	}
	if a.editing {
		keep = append(keep, "edit")
	}
	a.clearMainViews(keep)

	if _, err := a.g.SetView("selected", 0, 2, maxX-1, 6); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
	}
	a.renderSelected()

	top, bottom := 6, maxY-3
	if tab == session.TabTry {
		split := top + (bottom-top)/3
		if v, err := a.g.SetView("params", 0, top, maxX-1, split); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Highlight = true
			v.SelFgColor = gocui.ColorBlack
			v.SelBgColor = gocui.ColorGreen
		}
		if _, err := a.g.SetView("result", 0, split, maxX-1, bottom); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
		}
		a.renderParams()
		a.renderResult()
	} else {
		if v, err := a.g.SetView("panel", 0, top, maxX-1, bottom); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Wrap = true
		}
		a.renderPanel()
	}

	if a.editing {
		a.g.SetViewOnTop("edit")
		_, err := a.g.SetCurrentView("edit")
		return err
	}
	focus := "panel"
	if tab == session.TabTry {
		focus = "params"
	}
	_, err := a.g.SetCurrentView(focus)
	return err
}

func (a *App) clearMainViews(keep []string) {
	keepSet := map[string]bool{}
	for _, k := range keep {
		keepSet[k] = true
	}
	for _, n := range mainViews {
		if keepSet[n] {
			continue
		}
		if v, err := a.g.View(n); err == nil {
			v.Clear()
			a.g.DeleteView(n)
		}
	}
}

func (a *App) currentTab() session.Tab {
	if a.tab < 0 || a.tab >= len(a.tabs) {
		return session.TabTry
	}
	return a.tabs[a.tab]
}

// openEditModal shows a one-line editor for key seeded with value.
func (a *App) openEditModal(key, title, value string) error {
	maxX, maxY := a.g.Size()
	width := 60
	if width > maxX-4 {
		width = maxX - 4
	}
	x0 := (maxX - width) / 2
	y0 := (maxY - 3) / 2

	a.editing = true
	a.editKey = key
	ev, err := a.g.SetView("edit", x0, y0, x0+width, y0+2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	ev.Title = fmt.Sprintf(" %s (enter=ok, esc=cancel) ", title)
	ev.Editable = true
	ev.Editor = singleLineEditor{}
	ev.BgColor = gocui.ColorBlack
	ev.FgColor = gocui.ColorWhite
	ev.Clear()
	fmt.Fprint(ev, value)
	ev.SetCursor(len(value), 0)
	a.g.SetViewOnTop("edit")
	_, err = a.g.SetCurrentView("edit")
	return err
}

func (a *App) closeEdit() {
	if v, err := a.g.View("edit"); err == nil {
		v.Clear()
		a.g.DeleteView("edit")
	}
	a.editing = false
	a.editKey = ""
}
