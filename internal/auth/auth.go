// Package auth decides which authentication mode a route is exercised with
// and holds the credentials those modes need.
package auth

import (
	"strings"

	"makerapi/internal/model"
)

// Credentials is the snapshot of secrets handed to the request composer.
type Credentials struct {
	Token     string
	CSRFToken string
}

// Modes lists the modes a route can be exercised with.
func Modes(r model.Route) []model.AuthMode {
	if len(r.AuthTypes) == 0 {
		return []model.AuthMode{model.AuthNone}
	}
	return r.AuthTypes
}

// Default prefers session when the route accepts it, else its first mode.
func Default(r model.Route) model.AuthMode {
	modes := Modes(r)
	for _, m := range modes {
		if m == model.AuthSession {
			return m
		}
	}
	return modes[0]
}

// Resolve validates requested against the route. An empty request selects
// Default.
func Resolve(r model.Route, requested string) (model.AuthMode, error) {
	if strings.TrimSpace(requested) == "" {
		return Default(r), nil
	}
	m, ok := model.ParseAuthMode(requested)
	if !ok || m == model.AuthMixed {
		return "", model.NewError(model.KindInvalidAuthMode, nil, "invalid auth mode %q", requested)
	}
	for _, allowed := range Modes(r) {
		if allowed == m {
			return m, nil
		}
	}
	return "", model.NewError(model.KindInvalidAuthMode, nil,
		"%s %s does not accept %s auth (accepts %s)", r.Method, r.Path, m, joinModes(Modes(r)))
}

// Next cycles to the mode after current, wrapping around.
func Next(r model.Route, current model.AuthMode) model.AuthMode {
	modes := Modes(r)
	for i, m := range modes {
		if m == current {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// Advisory returns the note shown next to a request in mode m, if any.
func Advisory(m model.AuthMode) string {
	if m == model.AuthLocalOnly {
		return "This route only answers requests from the local network; remote calls will be rejected."
	}
	return ""
}

func joinModes(modes []model.AuthMode) string {
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = string(m)
	}
	return strings.Join(parts, ", ")
}
