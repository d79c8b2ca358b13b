// Package catalog filters and groups the route list for display.
//
// Everything here is a pure function of its inputs; callers own the route
// slice and the filter state.
package catalog

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"makerapi/internal/model"
)

type Filter struct {
	Search string `json:"search,omitempty" yaml:"search,omitempty"`
	Tag    string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Tag == "" && f.Method == ""
}

type Group struct {
	Name   string        `json:"name" yaml:"name"`
	Key    string        `json:"key" yaml:"key"`
	Routes []model.Route `json:"routes" yaml:"routes"`
}

type Stats struct {
	TotalRoutes     int `json:"totalRoutes" yaml:"totalRoutes"`
	TotalModules    int `json:"totalModules" yaml:"totalModules"`
	PublicRoutes    int `json:"publicRoutes" yaml:"publicRoutes"`
	ProtectedRoutes int `json:"protectedRoutes" yaml:"protectedRoutes"`
}

// Apply returns the routes matching every non-empty criterion of f, in
// their original order. Applying the same filter to its own output is a
// no-op.
func Apply(routes []model.Route, f Filter) []model.Route {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Route, 0, len(routes))
	for _, r := range routes {
		if search != "" && !strings.Contains(searchText(r), search) {
			continue
		}
		if f.Tag != "" && !hasTag(r, f.Tag) {
			continue
		}
		if f.Method != "" && !strings.EqualFold(r.Method, f.Method) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func searchText(r model.Route) string {
	text := r.Summary
	if text == "" {
		text = r.Description
	}
	parts := []string{r.Path, r.Method, text, r.Module}
	parts = append(parts, r.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func hasTag(r model.Route, tag string) bool {
	for _, t := range routeTags(r) {
		if FormatName(t) == tag || strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func routeTags(r model.Route) []string {
	if len(r.Tags) > 0 {
		return r.Tags
	}
	return []string{moduleOf(r)}
}

func moduleOf(r model.Route) string {
	if r.Module == "" {
		return model.DefaultModule
	}
	return r.Module
}

// FormatName turns a tag or module identifier into a display name: every
// run of non-alphanumeric characters becomes one space and the first
// character of each word is upper-cased, so "user-management" becomes
// "User Management" and "2fa" stays "2fa". The rest of each word is kept.
func FormatName(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		_, size := utf8.DecodeRuneInString(w)
		// Casers keep state and are not shared.
		words[i] = cases.Upper(language.Und).String(w[:size]) + w[size:]
	}
	return strings.Join(words, " ")
}

// SectionKey is the stable identifier of a group, used for collapse state.
func SectionKey(name string) string {
	var b strings.Builder
	b.WriteString("section-")
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// GroupRoutes buckets routes by display module name. Buckets appear in the
// order their first route appears; routes keep their relative order.
func GroupRoutes(routes []model.Route) []Group {
	var groups []Group
	index := map[string]int{}
	for _, r := range routes {
		name := FormatName(moduleOf(r))
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name, Key: SectionKey(name)})
		}
		groups[i].Routes = append(groups[i].Routes, r)
	}
	return groups
}

// TagVocabulary lists the distinct display tags across routes, sorted.
func TagVocabulary(routes []model.Route) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range routes {
		for _, t := range routeTags(r) {
			name := FormatName(t)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func ComputeStats(routes []model.Route) Stats {
	modules := map[string]bool{}
	st := Stats{TotalRoutes: len(routes)}
	for _, r := range routes {
		modules[moduleOf(r)] = true
		if r.AuthType() == model.AuthNone {
			st.PublicRoutes++
		} else {
			st.ProtectedRoutes++
		}
	}
	st.TotalModules = len(modules)
	return st
}

// Methods lists the distinct HTTP methods present, in first-seen order.
func Methods(routes []model.Route) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range routes {
		if !seen[r.Method] {
			seen[r.Method] = true
			out = append(out, r.Method)
		}
	}
	return out
}
