package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"makerapi/internal/auth"
	"makerapi/internal/model"
)

// CredentialsPolicy says whether the ambient session cookie travels with a
// request.
type CredentialsPolicy string

const (
	CredentialsInclude CredentialsPolicy = "include"
	CredentialsOmit    CredentialsPolicy = "omit"
)

type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ParamValue is one user-supplied input. Order is significant: it decides
// the order of query pairs and body keys.
type ParamValue struct {
	Name  string
	Value string
}

type ParamValues []ParamValue

// ParseParams reads "name=value" pairs as typed on the command line.
func ParseParams(pairs []string) (ParamValues, error) {
	out := make(ParamValues, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid parameter %q (want name=value)", p)
		}
		out = append(out, ParamValue{Name: strings.TrimSpace(name), Value: value})
	}
	return out, nil
}

// Get returns the last value supplied for name.
func (p ParamValues) Get(name string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Name == name {
			return p[i].Value, true
		}
	}
	return "", false
}

// Set replaces the value for name in place, or appends it.
func (p ParamValues) Set(name, value string) ParamValues {
	for i := range p {
		if p[i].Name == name {
			p[i].Value = value
			return p
		}
	}
	return append(p, ParamValue{Name: name, Value: value})
}

// Delete drops every value supplied for name.
func (p ParamValues) Delete(name string) ParamValues {
	out := p[:0:0]
	for _, v := range p {
		if v.Name != name {
			out = append(out, v)
		}
	}
	return out
}

// Clone copies p so it can be handed to another goroutine.
func (p ParamValues) Clone() ParamValues {
	return append(ParamValues(nil), p...)
}

// ComposedRequest is everything needed to issue one request. URL is
// relative to the server origin.
type ComposedRequest struct {
	URL         string            `json:"url" yaml:"url"`
	Method      string            `json:"method" yaml:"method"`
	Headers     []Header          `json:"headers" yaml:"headers"`
	Body        *string           `json:"body,omitempty" yaml:"body,omitempty"`
	Credentials CredentialsPolicy `json:"credentials" yaml:"credentials"`
	Auth        model.AuthMode    `json:"auth" yaml:"auth"`
}

func (c ComposedRequest) Header(name string) (string, bool) {
	for _, h := range c.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// resolved is the outcome of the shared path, query and body steps.
type resolved struct {
	url string
	// body is the text to send; nil means no body.
	body *string
	// bodyErr is set when explicit body text is not JSON. body then holds
	// the raw text for renderers that still want to show it.
	bodyErr error
}

// isQueryMethod reports methods whose leftover parameters go to the query
// string. They never carry a body.
func isQueryMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func isBodyMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func resolve(r model.Route, params ParamValues, bodyText *string) resolved {
	path := r.Path
	consumed := map[string]bool{}
	var rest ParamValues

	for _, p := range params {
		if strings.TrimSpace(p.Value) == "" {
			continue
		}
		placeholder := "{" + p.Name + "}"
		if strings.Contains(path, placeholder) {
			path = strings.Replace(path, placeholder, url.PathEscape(p.Value), 1)
			consumed[p.Name] = true
			continue
		}
		if consumed[p.Name] {
			continue
		}
		rest = append(rest, p)
	}

	out := resolved{url: path}

	switch {
	case isQueryMethod(r.Method):
		if len(rest) > 0 {
			pairs := make([]string, len(rest))
			for i, p := range rest {
				pairs[i] = url.QueryEscape(p.Name) + "=" + url.QueryEscape(p.Value)
			}
			sep := "?"
			if strings.Contains(path, "?") {
				sep = "&"
			}
			out.url = path + sep + strings.Join(pairs, "&")
		}

	case isBodyMethod(r.Method):
		if bodyText != nil && strings.TrimSpace(*bodyText) != "" {
			raw := strings.TrimSpace(*bodyText)
			var buf bytes.Buffer
			if err := json.Compact(&buf, []byte(raw)); err != nil {
				out.body = &raw
				out.bodyErr = model.NewError(model.KindInvalidRequestBody, err, "invalid JSON in request body")
				return out
			}
			s := buf.String()
			out.body = &s
			return out
		}
		if len(rest) > 0 {
			s := paramsObject(r, rest)
			out.body = &s
		}
	}
	return out
}

// paramsObject encodes leftover inputs as a JSON object, keys in supplied
// order, values coerced by their declared type.
func paramsObject(r model.Route, params ParamValues) string {
	var b strings.Builder
	b.WriteByte('{')
	seen := map[string]bool{}
	first := true
	for _, p := range params {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		v, _ := params.Get(p.Name)
		k, _ := json.Marshal(p.Name)
		val, _ := json.Marshal(coerce(r, p.Name, v))
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.Write(k)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}

func coerce(r model.Route, name, v string) any {
	typ := model.TypeString
	if p, ok := r.Param(name); ok {
		typ = p.Type
	}
	switch typ {
	case model.TypeInteger:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case model.TypeNumber:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case model.TypeBoolean:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// Compose builds the request for route r in auth mode. bodyText, when
// non-blank, must be JSON and takes precedence over leftover parameters.
func Compose(r model.Route, params ParamValues, mode model.AuthMode, creds auth.Credentials, bodyText *string) (ComposedRequest, error) {
	if mode == "" {
		mode = auth.Default(r)
	}
	if mode == model.AuthMixed {
		return ComposedRequest{}, model.NewError(model.KindInvalidAuthMode, nil, "mixed is not a request auth mode")
	}

	res := resolve(r, params, bodyText)
	if res.bodyErr != nil {
		return ComposedRequest{}, res.bodyErr
	}

	headers, policy := authHeaders(mode, creds)
	req := ComposedRequest{
		URL:         res.url,
		Method:      strings.ToUpper(r.Method),
		Headers:     headers,
		Body:        res.body,
		Credentials: policy,
		Auth:        mode,
	}
	if res.body != nil {
		req.Headers = append(req.Headers, Header{Name: "Content-Type", Value: "application/json"})
	}
	return req, nil
}

func authHeaders(mode model.AuthMode, creds auth.Credentials) ([]Header, CredentialsPolicy) {
	h := []Header{
		{Name: "Accept", Value: "application/json"},
		{Name: "X-Requested-With", Value: "XMLHttpRequest"},
	}
	switch mode {
	case model.AuthToken:
		// Sent even when the token is empty.
		h = append(h, Header{Name: "Authorization", Value: "Bearer " + strings.TrimSpace(creds.Token)})
		return h, CredentialsOmit
	case model.AuthSession:
		if creds.CSRFToken != "" {
			h = append(h, Header{Name: "X-CSRF-TOKEN", Value: creds.CSRFToken})
		}
	}
	return h, CredentialsInclude
}
