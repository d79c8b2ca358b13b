package model

import "strings"

type AuthMode string

type ParamType string

const (
	AuthNone      AuthMode = "none"
	AuthSession   AuthMode = "session"
	AuthToken     AuthMode = "token"
	AuthLocalOnly AuthMode = "local_only"
	// AuthMixed is a display-only aggregate and is never sent on the wire.
	AuthMixed AuthMode = "mixed"

	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// DefaultModule groups routes whose operation carries no tags.
const DefaultModule = "Platform"

// Label is the human-readable name shown next to a route.
func (m AuthMode) Label() string {
	switch m {
	case AuthNone, "":
		return "Public"
	case AuthSession:
		return "Session"
	case AuthToken:
		return "Token"
	case AuthLocalOnly:
		return "Local Only"
	case AuthMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

func ParseAuthMode(s string) (AuthMode, bool) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case AuthNone:
		return AuthNone, true
	case AuthSession:
		return AuthSession, true
	case AuthToken:
		return AuthToken, true
	case AuthLocalOnly, "local-only", "local":
		return AuthLocalOnly, true
	case AuthMixed:
		return AuthMixed, true
	}
	return "", false
}

type SpecDescriptor struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"name" yaml:"name"`
	URL         string `json:"url" yaml:"url"`
}

type Parameter struct {
	Name        string    `json:"name" yaml:"name"`
	In          string    `json:"in,omitempty" yaml:"in,omitempty"`
	Required    bool      `json:"required" yaml:"required"`
	Type        ParamType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// RequestBody describes the editable body of a mutation route.
type RequestBody struct {
	Required    bool   `json:"required" yaml:"required"`
	ContentType string `json:"contentType" yaml:"contentType"`
	Template    string `json:"template" yaml:"template"`
}

type Route struct {
	Path        string       `json:"path" yaml:"path"`
	Method      string       `json:"method" yaml:"method"`
	Summary     string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	AuthTypes   []AuthMode   `json:"authTypes" yaml:"authTypes"`
	Module      string       `json:"module" yaml:"module"`
	Tags        []string     `json:"tags" yaml:"tags"`
	OperationID string       `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Parameters  []Parameter  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Body        *RequestBody `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
}

// AuthType is the sole auth mode of the route, or AuthMixed when it accepts
// several.
func (r Route) AuthType() AuthMode {
	switch len(r.AuthTypes) {
	case 0:
		return AuthNone
	case 1:
		return r.AuthTypes[0]
	default:
		return AuthMixed
	}
}

// ID derives a stable identifier from (method, path).
func (r Route) ID() string {
	return RouteID(r.Method, r.Path)
}

func RouteID(method, path string) string {
	var b strings.Builder
	b.WriteString("route-")
	b.WriteString(strings.ToLower(method))
	b.WriteByte('-')
	for _, c := range path {
		if isAlnum(c) {
			b.WriteRune(c)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Label is the summary, falling back to the description and operation id.
func (r Route) Label() string {
	for _, s := range []string{r.Summary, r.Description, r.OperationID} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (r Route) Param(name string) (Parameter, bool) {
	for _, p := range r.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

type Token struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Value       string `json:"value" yaml:"value"`
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
