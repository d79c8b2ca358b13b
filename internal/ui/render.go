package ui

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"makerapi/internal/auth"
	"makerapi/internal/catalog"
	"makerapi/internal/highlight"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

const (
	colorDim     = "\033[90m"
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

func (a *App) renderHeader() {
	v, err := a.g.View("header")
	if err != nil {
		return
	}
	v.Clear()
	st := a.st.Status()
	fmt.Fprint(v, colorGreen+"makerapi"+colorReset)
	if st.Title != "" {
		fmt.Fprintf(v, "  %s %sv%s%s", st.Title, colorDim, st.Version, colorReset)
	}
	if st.Current != "" {
		fmt.Fprintf(v, "  [%s]", st.Current)
	}
	fmt.Fprintf(v, "  %s%s%s", colorDim, st.BaseURL, colorReset)
}

func (a *App) renderFooter() {
	v, err := a.g.View("footer")
	if err != nil {
		return
	}
	v.Clear()
	busy, msg, _, _ := a.status()
	switch {
	case busy != "":
		fmt.Fprintf(v, "%s%s...%s", colorCyan, busy, colorReset)
		return
	case msg != "":
		fmt.Fprintf(v, "%s%s%s", colorYellow, msg, colorReset)
		return
	}

	switch a.scr {
	case screenError:
		fmt.Fprint(v, "r: retry   ctrl+c: quit")
	case screenRoutes:
		fmt.Fprint(v, "type: filter (#tag)   enter: open/toggle   ctrl+f: method   ctrl+n: spec   ctrl+r: refresh   ctrl+d/ctrl+e: save json/yaml   ctrl+c: quit")
	case screenRoute:
		if a.editing {
			fmt.Fprint(v, "enter: ok   esc: cancel")
			return
		}
		help := "left/right: tab   a: auth   t: token   k: enter token   "
		switch a.currentTab() {
		case session.TabTry:
			help += "enter: edit   e: body in $EDITOR   d: reset   ctrl+r: send   "
		default:
			help += "c: copy   up/down: scroll   "
		}
		fmt.Fprint(v, help+"esc: back   q: quit")
	}
}

func (a *App) renderStatus() {
	v, err := a.g.View("status")
	if err != nil {
		return
	}
	v.Clear()
	busy, _, initErr, _ := a.status()
	switch {
	case busy != "":
		v.Title = "Loading"
		fmt.Fprintf(v, "%s...\n", busy)
	case errors.Is(initErr, model.ErrNoSpecsAvailable):
		v.Title = "Not configured"
		fmt.Fprintln(v, session.NotConfiguredMessage)
	case initErr != nil:
		v.Title = "Error"
		fmt.Fprintf(v, "%s%v%s\n\nPress r to retry.\n", colorRed, initErr, colorReset)
	}
}

func (a *App) recomputeRows() {
	a.st.SetFilter(parseFilter(a.filterText, a.method))
	a.rows = buildRows(a.st.View())
	if a.selected >= len(a.rows) {
		a.selected = len(a.rows) - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

func (a *App) renderFilter() {
	v, err := a.g.View("filter")
	if err != nil {
		return
	}
	v.Title = "Filter"
	if a.method != "" {
		v.Title = "Filter [" + a.method + "]"
	}
	if partial, ok := tagInput(a.filterText); ok {
		if ranked := catalog.RankTags(a.st.View().Tags, partial); len(ranked) > 0 {
			if len(ranked) > 3 {
				ranked = ranked[:3]
			}
			v.Title += " tags: " + strings.Join(ranked, ", ")
		}
	}
	v.Clear()
	fmt.Fprint(v, a.filterText)
}

func (a *App) renderRoutes() {
	v, err := a.g.View("routes")
	if err != nil {
		return
	}
	v.Clear()

	view := a.st.View()
	s := view.Stats
	v.Title = fmt.Sprintf("Routes %d/%d   modules %d   public %d   protected %d",
		len(view.Filtered), s.TotalRoutes, s.TotalModules, s.PublicRoutes, s.ProtectedRoutes)

	if len(a.rows) == 0 {
		fmt.Fprintln(v, "(no routes match)")
		return
	}
	for _, r := range a.rows {
		if r.isSection() {
			marker := "▾"
			if r.collapsed {
				marker = "▸"
			}
			fmt.Fprintf(v, "%s %s %s(%d)%s\n", marker, r.section, colorDim, r.count, colorReset)
			continue
		}
		fmt.Fprintf(v, "  %s %s  %s%s\n", colorizeMethod(r.route.Method), highlightPathParams(r.route.Path),
			authBadge(r.route.AuthType()), labelSuffix(*r.route))
	}
	scrollTo(v, a.selected)
}

func (a *App) renderSelected() {
	v, err := a.g.View("selected")
	if err != nil {
		return
	}
	v.Clear()

	var tabs []string
	for i, t := range a.tabs {
		if i == a.tab {
			tabs = append(tabs, "["+string(t)+"]")
		} else {
			tabs = append(tabs, " "+string(t)+" ")
		}
	}
	v.Title = strings.Join(tabs, "")

	r := a.route
	in := a.input(r)
	fmt.Fprintf(v, "%s %s%s\n", colorizeMethod(r.Method), highlightPathParams(r.Path), labelSuffix(r))

	mode, err := auth.Resolve(r, string(in.auth))
	if err != nil {
		fmt.Fprintf(v, "%sauth: %v%s\n", colorRed, err, colorReset)
		return
	}
	fmt.Fprintf(v, "auth: %s", authBadge(mode))
	if modes := auth.Modes(r); len(modes) > 1 {
		fmt.Fprintf(v, " %s(a to switch)%s", colorDim, colorReset)
	}
	if note := auth.Advisory(mode); note != "" {
		fmt.Fprintf(v, "  %s%s%s", colorYellow, note, colorReset)
	}
	fmt.Fprintln(v)
	if mode == model.AuthToken {
		value, name := a.st.Tokens().Current()
		switch {
		case name != "":
			fmt.Fprintf(v, "token: %s\n", name)
		case value != "":
			fmt.Fprintln(v, "token: manual")
		default:
			fmt.Fprintf(v, "%stoken: none (t to pick, k to enter)%s\n", colorYellow, colorReset)
		}
	}
}

func (a *App) renderParams() {
	v, err := a.g.View("params")
	if err != nil {
		return
	}
	v.Title = "Parameters"
	v.Clear()

	rows := paramRows(a.route)
	if len(rows) == 0 {
		fmt.Fprintln(v, "(no parameters)")
		return
	}
	in := a.input(a.route)
	for _, p := range rows {
		if p.body {
			lines := 0
			if in.body != nil {
				lines = strings.Count(strings.TrimRight(*in.body, "\n"), "\n") + 1
			}
			fmt.Fprintf(v, "body = %s%d lines of JSON (enter to edit)%s\n", colorCyan, lines, colorReset)
			continue
		}
		val, ok := in.params.Get(p.param.Name)
		switch {
		case ok:
			fmt.Fprintf(v, "%s = %s%s%s\n", p.label(), colorGreen, val, colorReset)
		case p.param.Description != "":
			fmt.Fprintf(v, "%s = %s%s%s\n", p.label(), colorDim, p.param.Description, colorReset)
		default:
			fmt.Fprintf(v, "%s = %s%s%s\n", p.label(), colorDim, p.param.Type, colorReset)
		}
	}
	if a.paramSel >= len(rows) {
		a.paramSel = len(rows) - 1
	}
	scrollTo(v, a.paramSel)
}

func (a *App) renderResult() {
	v, err := a.g.View("result")
	if err != nil {
		return
	}
	v.Title = "Response"
	v.Clear()

	rr, ok := a.st.LastResult(a.route.ID())
	if !ok {
		fmt.Fprintf(v, "%sctrl+r sends the request%s\n", colorDim, colorReset)
		return
	}
	if rr.Err != nil {
		fmt.Fprintf(v, "%s%s%s\n", colorRed, rr.Error, colorReset)
		if rr.Request.URL == "" {
			return
		}
	}
	res := rr.Result
	if res.StatusCode != 0 {
		fmt.Fprintf(v, "%s  %s%d ms%s\n", colorizeStatus(res.StatusCode, res.StatusText), colorDim, res.ElapsedMs, colorReset)
	}
	if res.Note != "" {
		fmt.Fprintf(v, "%s%s%s\n", colorYellow, res.Note, colorReset)
	}
	for _, h := range res.Headers {
		if h.Name == "content-type" {
			fmt.Fprintf(v, "content-type: %s\n", h.Value)
		}
	}
	fmt.Fprintln(v)
	lang := highlight.Auto
	if res.Parsed != nil {
		lang = highlight.JSON
	}
	fmt.Fprintln(v, highlight.Text(res.Body, lang, highlight.Palette8))
}

// panelText is the plain text of the current non-try tab, used both for
// display and for copying.
func (a *App) panelText() (string, highlight.Lang, error) {
	id := a.route.ID()
	switch tab := a.currentTab(); tab {
	case session.TabCurl:
		c, err := a.st.Curl(id, a.input(a.route).session())
		if err != nil {
			return "", highlight.Auto, err
		}
		return c.String(), highlight.Shell, nil
	case session.TabDisable, session.TabOverride:
		s, err := a.st.AdminSnippet(id, tab)
		return s, highlight.Auto, err
	default:
		return routeDetails(a.route), highlight.Auto, nil
	}
}

func (a *App) renderPanel() {
	v, err := a.g.View("panel")
	if err != nil {
		return
	}
	v.Clear()
	v.Title = strings.ToUpper(string(a.currentTab()[:1])) + string(a.currentTab()[1:])

	text, lang, err := a.panelText()
	if err != nil {
		fmt.Fprintf(v, "%s%v%s\n", colorRed, err, colorReset)
		return
	}
	fmt.Fprint(v, highlight.Text(text, lang, highlight.Palette8))
}

func routeDetails(r model.Route) string {
	var b strings.Builder
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Description)
	}
	fmt.Fprintf(&b, "ID:          %s\n", r.ID())
	if r.OperationID != "" {
		fmt.Fprintf(&b, "Operation:   %s\n", r.OperationID)
	}
	fmt.Fprintf(&b, "Module:      %s\n", r.Module)
	fmt.Fprintf(&b, "Tags:        %s\n", strings.Join(r.Tags, ", "))
	modes := make([]string, len(r.AuthTypes))
	for i, m := range r.AuthTypes {
		modes[i] = m.Label()
	}
	fmt.Fprintf(&b, "Auth:        %s\n", strings.Join(modes, ", "))
	for _, p := range r.Parameters {
		req := ""
		if p.Required {
			req = ", required"
		}
		fmt.Fprintf(&b, "Param:       %s (%s, %s%s) %s\n", p.Name, p.In, p.Type, req, p.Description)
	}
	if r.Body != nil {
		fmt.Fprintf(&b, "\nRequest body (%s):\n%s\n", r.Body.ContentType, r.Body.Template)
	}
	return b.String()
}

func labelSuffix(r model.Route) string {
	if l := r.Label(); l != "" {
		return " - " + l
	}
	return ""
}

func authBadge(m model.AuthMode) string {
	color := colorDim
	switch m {
	case model.AuthToken, model.AuthSession, model.AuthMixed:
		color = colorYellow
	case model.AuthLocalOnly:
		color = colorMagenta
	}
	return color + m.Label() + colorReset
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func colorizeMethod(method string) string {
	var color string
	switch strings.ToUpper(method) {
	case "GET":
		color = colorBlue
	case "POST":
		color = colorGreen
	case "PUT":
		color = colorYellow
	case "DELETE":
		color = colorRed
	case "PATCH":
		color = colorCyan
	case "HEAD":
		color = colorMagenta
	default:
		color = colorReset
	}
	return color + padRight(method, 6) + colorReset
}

func colorizeStatus(code int, text string) string {
	status := fmt.Sprintf("%d %s", code, text)
	var color string
	switch {
	case code >= 200 && code < 300:
		color = colorGreen
	case code >= 400 && code < 500:
		color = colorYellow
	case code >= 500:
		color = colorRed
	default:
		color = colorReset
	}
	return color + status + colorReset
}

var pathParamRe = regexp.MustCompile(`\{([^}]+)\}`)

func highlightPathParams(path string) string {
	return pathParamRe.ReplaceAllString(path, colorCyan+"{$1}"+colorReset)
}
