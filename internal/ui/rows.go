package ui

import (
	"fmt"
	"strings"

	"makerapi/internal/catalog"
	"makerapi/internal/httpclient"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

// row is one line of the route list: a section header or a route.
type row struct {
	section   string
	collapsed bool
	count     int
	route     *model.Route
}

func (r row) isSection() bool { return r.route == nil }

// buildRows flattens the grouped view. Routes of collapsed sections are
// left out.
func buildRows(v session.View) []row {
	var rows []row
	for _, g := range v.Groups {
		rows = append(rows, row{section: g.Name, collapsed: g.Collapsed, count: len(g.Routes)})
		if g.Collapsed {
			continue
		}
		for i := range g.Routes {
			rows = append(rows, row{section: g.Name, route: &g.Routes[i]})
		}
	}
	return rows
}

// parseFilter reads the filter line. A word starting with # selects a tag;
// the rest is free-text search.
func parseFilter(text, method string) catalog.Filter {
	f := catalog.Filter{Method: method}
	var words []string
	for _, w := range strings.Fields(text) {
		if strings.HasPrefix(w, "#") && f.Tag == "" {
			f.Tag = strings.TrimPrefix(w, "#")
			continue
		}
		words = append(words, w)
	}
	f.Search = strings.Join(words, " ")
	return f
}

// tagInput is the partial tag typed after #, if any.
func tagInput(text string) (string, bool) {
	for _, w := range strings.Fields(text) {
		if strings.HasPrefix(w, "#") {
			return strings.TrimPrefix(w, "#"), true
		}
	}
	return "", false
}

// nextMethod cycles "" -> methods[0] -> ... -> "".
func nextMethod(methods []string, current string) string {
	if current == "" {
		if len(methods) == 0 {
			return ""
		}
		return methods[0]
	}
	for i, m := range methods {
		if m == current && i+1 < len(methods) {
			return methods[i+1]
		}
	}
	return ""
}

// nextSpec is the spec after current in discovery order, wrapping.
func nextSpec(specs []model.SpecDescriptor, current string) string {
	for i, d := range specs {
		if d.ID == current {
			return specs[(i+1)%len(specs)].ID
		}
	}
	if len(specs) > 0 {
		return specs[0].ID
	}
	return ""
}

// nextToken is the discovered token after current, wrapping.
func nextToken(tokens []model.Token, current string) string {
	if len(tokens) == 0 {
		return ""
	}
	for i, t := range tokens {
		if t.Name == current {
			return tokens[(i+1)%len(tokens)].Name
		}
	}
	return tokens[0].Name
}

// routeInput is what the user has entered for one route.
type routeInput struct {
	params httpclient.ParamValues
	body   *string
	auth   model.AuthMode
}

func newRouteInput(r model.Route) *routeInput {
	in := &routeInput{}
	if r.Body != nil {
		tmpl := r.Body.Template
		in.body = &tmpl
	}
	return in
}

func (in *routeInput) session() session.Input {
	return session.Input{Params: in.params, Auth: string(in.auth), Body: in.body}
}

// paramRow is one editable line of the try panel.
type paramRow struct {
	param model.Parameter
	body  bool
}

func paramRows(r model.Route) []paramRow {
	rows := make([]paramRow, 0, len(r.Parameters)+1)
	for _, p := range r.Parameters {
		rows = append(rows, paramRow{param: p})
	}
	if r.Body != nil {
		rows = append(rows, paramRow{body: true})
	}
	return rows
}

func (p paramRow) label() string {
	if p.body {
		return "body"
	}
	req := " "
	if p.param.Required {
		req = "*"
	}
	return fmt.Sprintf("%s%s (%s)", req, p.param.Name, p.param.In)
}
