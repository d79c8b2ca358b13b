package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"makerapi/internal/auth"
	"makerapi/internal/httpclient"
	"makerapi/internal/model"
	"makerapi/internal/openapi"
)

type Tab string

const (
	TabTry      Tab = "try"
	TabCurl     Tab = "curl"
	TabDisable  Tab = "disable"
	TabOverride Tab = "override"
	TabDetails  Tab = "details"
)

// Input is what the user supplied for one route.
type Input struct {
	Params httpclient.ParamValues
	// Auth is a mode name; empty selects the route default.
	Auth string
	// Body is the edited body text; nil leaves the body to Params.
	Body *string
}

// RouteResult is the outcome of the last execution of a route.
type RouteResult struct {
	Request  httpclient.ComposedRequest `json:"request" yaml:"request"`
	Result   httpclient.TestResult      `json:"result" yaml:"result"`
	Err      error                      `json:"-" yaml:"-"`
	Error    string                     `json:"error,omitempty" yaml:"error,omitempty"`
	Finished time.Time                  `json:"finished" yaml:"finished"`
}

// Route looks up a route of the loaded spec by ID.
func (s *State) Route(id string) (model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route(id)
}

func (s *State) route(id string) (model.Route, error) {
	for _, r := range s.routes {
		if r.ID() == id {
			return r, nil
		}
	}
	return model.Route{}, model.NewError(model.KindRouteNotFound, nil, "route %q not found", id)
}

// FindRoute resolves "METHOD /path" or a route ID.
func (s *State) FindRoute(method, path string) (model.Route, error) {
	if path == "" {
		return s.Route(method)
	}
	return s.Route(model.RouteID(method, path))
}

// Tabs lists the panels available for a route. The admin snippet tabs only
// apply to the full platform spec.
func (s *State) Tabs(id string) ([]Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.route(id); err != nil {
		return nil, err
	}
	tabs := []Tab{TabTry, TabCurl}
	if s.current == openapi.SpecFull {
		tabs = append(tabs, TabDisable, TabOverride)
	}
	return append(tabs, TabDetails), nil
}

// Compose builds the request for route id without sending it.
func (s *State) Compose(id string, in Input) (httpclient.ComposedRequest, error) {
	r, mode, err := s.prepare(id, in)
	if err != nil {
		return httpclient.ComposedRequest{}, err
	}
	return httpclient.Compose(r, in.Params, mode, s.Credentials(), in.Body)
}

// Execute composes and sends a request for route id. The outcome, failure
// included, is kept as that route's last result and touches nothing else.
func (s *State) Execute(ctx context.Context, id string, in Input) (RouteResult, error) {
	req, err := s.Compose(id, in)
	if err != nil {
		if errors.Is(err, model.ErrRouteNotFound) {
			return RouteResult{}, err
		}
		return s.record(id, RouteResult{Err: err}), err
	}
	if s.exec == nil {
		return RouteResult{}, model.NewError(model.KindExecutionFailed, nil, "no executor configured")
	}

	res, err := s.exec.Execute(ctx, req)
	return s.record(id, RouteResult{Request: req, Result: res, Err: err}), err
}

func (s *State) record(id string, rr RouteResult) RouteResult {
	rr.Finished = time.Now()
	if rr.Err != nil {
		rr.Error = rr.Err.Error()
	}
	s.mu.Lock()
	s.results[id] = rr
	s.mu.Unlock()
	return rr
}

func (s *State) LastResult(id string) (RouteResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rr, ok := s.results[id]
	return rr, ok
}

// Curl renders the shell equivalent of what Execute would send.
func (s *State) Curl(id string, in Input) (httpclient.CurlCommand, error) {
	r, mode, err := s.prepare(id, in)
	if err != nil {
		return httpclient.CurlCommand{}, err
	}
	return httpclient.Curl(s.cfg.BaseURL, r, in.Params, mode, s.Credentials(), in.Body)
}

func (s *State) prepare(id string, in Input) (model.Route, model.AuthMode, error) {
	r, err := s.Route(id)
	if err != nil {
		return model.Route{}, "", err
	}
	mode, err := auth.Resolve(r, in.Auth)
	if err != nil {
		return model.Route{}, "", err
	}
	return r, mode, nil
}

// BodyTemplate is the initial body text for a route, or "" when the route
// takes no body.
func (s *State) BodyTemplate(id string) string {
	r, err := s.Route(id)
	if err != nil || r.Body == nil {
		return ""
	}
	return r.Body.Template
}

// AdminSnippet returns the firmware code that disables or overrides a route.
func (s *State) AdminSnippet(id string, tab Tab) (string, error) {
	tabs, err := s.Tabs(id)
	if err != nil {
		return "", err
	}
	allowed := false
	for _, t := range tabs {
		if t == tab && (t == TabDisable || t == TabOverride) {
			allowed = true
		}
	}
	if !allowed {
		return "", fmt.Errorf("no %s snippet for this route in the current specification", tab)
	}

	r, _ := s.Route(id)
	registered := strings.Replace(r.Path, "/api", "", 1)
	if tab == TabDisable {
		return fmt.Sprintf("// This will disable %s by deregistering it\n"+
			"webPlatform.registerApiRoute(%q, nullptr);\n", r.Path, registered), nil
	}
	return fmt.Sprintf("// Override route: %s %s\n"+
		"webPlatform.registerApiRoute(%q, customHandler, {AuthType::NONE});\n\n"+
		"// Implement your custom handler:\n"+
		"void customHandler(WebRequest& req, WebResponse& res) {\n"+
		"  res.setContent(\"Custom response\", \"text/plain\");\n"+
		"}\n", r.Method, r.Path, registered), nil
}
