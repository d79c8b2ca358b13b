package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jroimartin/gocui"

	"makerapi/internal/auth"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (a *App) bindKeys() error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, a.quit},
		{"", gocui.KeyEsc, a.back},
		{"status", 'r', a.retry},
		{"status", 'q', a.quit},

		{"routes", gocui.KeyArrowDown, a.moveSel(1)},
		{"routes", gocui.KeyArrowUp, a.moveSel(-1)},
		{"routes", gocui.KeyPgdn, a.moveSel(10)},
		{"routes", gocui.KeyPgup, a.moveSel(-10)},
		{"routes", gocui.KeyEnter, a.openRow},
		{"routes", gocui.KeyBackspace, a.filterBackspace},
		{"routes", gocui.KeyBackspace2, a.filterBackspace},
		{"routes", gocui.KeySpace, a.appendFilterRune(' ')},
		{"routes", gocui.KeyCtrlU, a.clearFilter},
		{"routes", gocui.KeyCtrlF, a.cycleMethod},
		{"routes", gocui.KeyCtrlN, a.nextSpec},
		{"routes", gocui.KeyCtrlR, a.refreshSpec},
		{"routes", gocui.KeyCtrlD, a.saveSpec(session.FormatJSON)},
		{"routes", gocui.KeyCtrlE, a.saveSpec(session.FormatYAML)},

		{"params", gocui.KeyArrowDown, a.moveParam(1)},
		{"params", gocui.KeyArrowUp, a.moveParam(-1)},
		{"params", gocui.KeyEnter, a.editParam},
		{"params", 'e', a.editBody},
		{"params", 'd', a.resetParam},
		{"params", gocui.KeyCtrlR, a.send},

		{"panel", gocui.KeyArrowDown, a.scroll(1)},
		{"panel", gocui.KeyArrowUp, a.scroll(-1)},

		{"edit", gocui.KeyEnter, a.confirmEdit},
	}

	for _, view := range []string{"params", "panel"} {
		bindings = append(bindings,
			binding{view, gocui.KeyArrowRight, a.switchTab(1)},
			binding{view, gocui.KeyArrowLeft, a.switchTab(-1)},
			binding{view, gocui.KeyTab, a.switchTab(1)},
			binding{view, 'a', a.cycleAuth},
			binding{view, 't', a.cycleToken},
			binding{view, 'T', a.discoverTokens},
			binding{view, 'k', a.enterToken},
			binding{view, 'c', a.copy},
			binding{view, 'q', a.quit},
		)
	}

	// Printable input on the route list goes to the filter.
	for r := rune(33); r <= rune(126); r++ {
		bindings = append(bindings, binding{"routes", r, a.appendFilterRune(r)})
	}

	for _, b := range bindings {
		if err := a.g.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) quit(*gocui.Gui, *gocui.View) error { return gocui.ErrQuit }

func (a *App) back(*gocui.Gui, *gocui.View) error {
	if a.editing {
		a.closeEdit()
		return nil
	}
	switch a.scr {
	case screenRoute:
		a.scr = screenRoutes
	case screenRoutes:
		a.filterText, a.method = "", ""
	}
	a.setMsg("")
	return nil
}

func (a *App) retry(*gocui.Gui, *gocui.View) error {
	if a.scr != screenError {
		return nil
	}
	a.mu.Lock()
	a.initErr = nil
	a.mu.Unlock()
	a.scr = screenLoading
	a.startInit()
	return nil
}

func (a *App) moveSel(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		if len(a.rows) == 0 {
			return nil
		}
		a.selected += delta
		if a.selected < 0 {
			a.selected = 0
		}
		if a.selected >= len(a.rows) {
			a.selected = len(a.rows) - 1
		}
		scrollTo(v, a.selected)
		return nil
	}
}

// scrollTo puts the cursor on line y, moving the origin when y is outside
// the visible area.
func scrollTo(v *gocui.View, y int) {
	if v == nil {
		return
	}
	_, h := v.Size()
	ox, oy := v.Origin()
	switch {
	case y < oy:
		oy = y
	case h > 0 && y >= oy+h:
		oy = y - h + 1
	}
	v.SetOrigin(ox, oy)
	v.SetCursor(0, y-oy)
}

func (a *App) openRow(*gocui.Gui, *gocui.View) error {
	if a.selected < 0 || a.selected >= len(a.rows) {
		return nil
	}
	r := a.rows[a.selected]
	if r.isSection() {
		if _, err := a.st.ToggleSection(r.section); err != nil {
			a.setMsg("could not save section state: " + err.Error())
		}
		return nil
	}

	tabs, err := a.st.Tabs(r.route.ID())
	if err != nil {
		a.setMsg(err.Error())
		return nil
	}
	a.route = *r.route
	a.tabs = tabs
	a.tab = 0
	a.paramSel = 0
	a.scr = screenRoute
	a.setMsg("")
	return nil
}

func (a *App) appendFilterRune(r rune) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		a.filterText += string(r)
		a.selected = 0
		return nil
	}
}

func (a *App) filterBackspace(*gocui.Gui, *gocui.View) error {
	if a.filterText == "" {
		return nil
	}
	rs := []rune(a.filterText)
	a.filterText = string(rs[:len(rs)-1])
	return nil
}

func (a *App) clearFilter(*gocui.Gui, *gocui.View) error {
	a.filterText = ""
	a.selected = 0
	return nil
}

func (a *App) cycleMethod(*gocui.Gui, *gocui.View) error {
	a.method = nextMethod(a.st.View().Methods, a.method)
	a.selected = 0
	return nil
}

func (a *App) nextSpec(*gocui.Gui, *gocui.View) error {
	st := a.st.Status()
	if len(st.Specs) < 2 {
		a.setMsg("only one specification is available")
		return nil
	}
	a.loadSpec(nextSpec(st.Specs, st.Current))
	return nil
}

func (a *App) refreshSpec(*gocui.Gui, *gocui.View) error {
	a.refresh()
	return nil
}

func (a *App) saveSpec(f session.Format) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		name := a.st.DownloadName(f)
		file, err := os.Create(name)
		if err != nil {
			a.setMsg(err.Error())
			return nil
		}
		err = a.st.Download(file, f)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(name)
			a.setMsg("download failed: " + err.Error())
			return nil
		}
		a.setMsg("saved " + name)
		return nil
	}
}

func (a *App) moveParam(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		n := len(paramRows(a.route))
		if n == 0 {
			return nil
		}
		a.paramSel += delta
		if a.paramSel < 0 {
			a.paramSel = 0
		}
		if a.paramSel >= n {
			a.paramSel = n - 1
		}
		scrollTo(v, a.paramSel)
		return nil
	}
}

func (a *App) selectedParam() (paramRow, bool) {
	rows := paramRows(a.route)
	if a.paramSel < 0 || a.paramSel >= len(rows) {
		return paramRow{}, false
	}
	return rows[a.paramSel], true
}

func (a *App) editParam(g *gocui.Gui, v *gocui.View) error {
	p, ok := a.selectedParam()
	if !ok {
		return nil
	}
	if p.body {
		return a.editBody(g, v)
	}
	current, _ := a.input(a.route).params.Get(p.param.Name)
	return a.openEditModal("param:"+p.param.Name, p.param.Name, current)
}

func (a *App) resetParam(*gocui.Gui, *gocui.View) error {
	p, ok := a.selectedParam()
	if !ok {
		return nil
	}
	in := a.input(a.route)
	if p.body {
		tmpl := a.st.BodyTemplate(a.route.ID())
		in.body = &tmpl
		return nil
	}
	in.params = in.params.Delete(p.param.Name)
	return nil
}

func (a *App) enterToken(*gocui.Gui, *gocui.View) error {
	value, name := a.st.Tokens().Current()
	if name != "" {
		value = ""
	}
	return a.openEditModal("token", "API token", value)
}

func (a *App) confirmEdit(g *gocui.Gui, v *gocui.View) error {
	if !a.editing {
		return nil
	}
	val := strings.TrimSpace(viewText(v))
	key := a.editKey
	a.closeEdit()

	switch {
	case key == "token":
		a.st.Tokens().SetManual(val)
	case strings.HasPrefix(key, "param:"):
		in := a.input(a.route)
		in.params = in.params.Set(strings.TrimPrefix(key, "param:"), val)
	}
	return nil
}

func (a *App) switchTab(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		if len(a.tabs) == 0 {
			return nil
		}
		a.tab = (a.tab + delta + len(a.tabs)) % len(a.tabs)
		return nil
	}
}

func (a *App) cycleAuth(*gocui.Gui, *gocui.View) error {
	in := a.input(a.route)
	current, err := auth.Resolve(a.route, string(in.auth))
	if err != nil {
		current = auth.Default(a.route)
	}
	in.auth = auth.Next(a.route, current)
	return nil
}

func (a *App) cycleToken(*gocui.Gui, *gocui.View) error {
	store := a.st.Tokens()
	_, current := store.Current()
	name := nextToken(store.Tokens(), current)
	if name == "" {
		a.setMsg("no tokens discovered (T to search again, k to enter one)")
		return nil
	}
	store.SelectToken(name)
	a.setMsg("")
	return nil
}

func (a *App) discoverTokens(*gocui.Gui, *gocui.View) error {
	a.async("discovering tokens", func(ctx context.Context) error {
		if n := len(a.st.DiscoverTokens(ctx)); n == 0 {
			return errors.New("no tokens found")
		}
		return nil
	}, func(err error) {
		if err != nil {
			a.setMsg(err.Error())
			return
		}
		a.setMsg(fmt.Sprintf("%d tokens available", len(a.st.Tokens().Tokens())))
	})
	return nil
}

// send executes the route with a snapshot of its inputs. The outcome is
// stored per route and shown by renderResult.
func (a *App) send(*gocui.Gui, *gocui.View) error {
	in := a.input(a.route)
	snapshot := session.Input{Params: in.params.Clone(), Auth: string(in.auth)}
	if in.body != nil {
		body := *in.body
		snapshot.Body = &body
	}
	id := a.route.ID()
	a.async("sending "+a.route.Method+" "+a.route.Path, func(ctx context.Context) error {
		_, err := a.st.Execute(ctx, id, snapshot)
		return err
	}, func(err error) {
		if errors.Is(err, model.ErrRouteNotFound) {
			a.setMsg(err.Error())
		}
	})
	return nil
}

func (a *App) copy(*gocui.Gui, *gocui.View) error {
	var text string
	if a.currentTab() == session.TabTry {
		c, err := a.st.Curl(a.route.ID(), a.input(a.route).session())
		if err != nil {
			a.setMsg(err.Error())
			return nil
		}
		text = c.String()
	} else {
		var err error
		if text, _, err = a.panelText(); err != nil {
			a.setMsg(err.Error())
			return nil
		}
	}

	if err := a.st.Copy(text); err != nil {
		if a.currentTab() == session.TabTry {
			a.showTab(session.TabCurl)
		}
		a.setMsg("clipboard unavailable; copy the text from the panel")
		return nil
	}
	a.setMsg("copied to clipboard")
	return nil
}

func (a *App) showTab(t session.Tab) {
	for i, tab := range a.tabs {
		if tab == t {
			a.tab = i
		}
	}
}

func (a *App) scroll(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		if v == nil {
			return nil
		}
		ox, oy := v.Origin()
		if delta > 0 {
			v.SetOrigin(ox, oy+1)
		} else if oy > 0 {
			v.SetOrigin(ox, oy-1)
		}
		return nil
	}
}

func viewText(v *gocui.View) string {
	return strings.TrimSuffix(v.Buffer(), "\n")
}
