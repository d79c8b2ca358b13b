package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makerapi/internal/model"
	"makerapi/internal/session"
)

const testSpec = `{
  "openapi": "3.0.3",
  "info": {"title": "Maker API", "version": "1.2.0"},
  "paths": {
    "/api/status": {"get": {"summary": "Device status", "responses": {"200": {"description": "ok"}}}},
    "/api/led/{id}": {
      "post": {
        "tags": ["gpio-control"],
        "summary": "Set LED",
        "security": [{"bearerAuth": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "integer"}}],
        "requestBody": {"content": {"application/json": {"example": {"on": true}}}},
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func newDevice(t *testing.T, makerSpec bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /maker_api/api/config", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"OpenApiConfig": map[string]bool{"fullSpec": false, "makerSpec": makerSpec},
		})
	})
	mux.HandleFunc("GET /maker/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testSpec))
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uptime":42}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// run executes the CLI and returns its ExitResult; a nil error is an empty
// result with code 0.
func run(t *testing.T, srv *httptest.Server, args ...string) ExitResult {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)

	if srv != nil {
		args = append([]string{"--base-url", srv.URL, "--state-dir", t.TempDir()}, args...)
	}
	root := NewRoot()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitResult{}
	}
	var ex ExitResult
	require.True(t, errors.As(err, &ex), "unexpected error type: %v", err)
	return ex
}

func TestSpecs(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv, "specs")
	assert.Equal(t, 0, res.Code)
	assert.Contains(t, res.Message, "Maker API 1.2.0")
	assert.Contains(t, res.Message, "* maker")
}

func TestNoSpecsExitCode(t *testing.T) {
	srv := newDevice(t, false)
	res := run(t, srv, "routes")
	assert.Equal(t, exitNoSpecs, res.Code)
	assert.True(t, res.ToStderr)
	assert.Equal(t, session.NotConfiguredMessage, res.Message)
}

func TestMissingBaseURL(t *testing.T) {
	t.Setenv("MAKERAPI_BASE_URL", "")
	res := run(t, nil, "specs")
	assert.Equal(t, exitUsage, res.Code)
	assert.Contains(t, res.Message, "base URL required")
}

func TestRoutesJSON(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv, "routes", "-F", "json")
	require.Equal(t, 0, res.Code, res.Message)

	var v struct {
		Groups []struct {
			Name   string `json:"name"`
			Routes []struct {
				Path string `json:"path"`
			} `json:"routes"`
		} `json:"groups"`
		Stats struct {
			TotalRoutes int `json:"totalRoutes"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Message), &v))
	assert.Equal(t, 2, v.Stats.TotalRoutes)
	require.Len(t, v.Groups, 2)
	assert.Equal(t, "Platform", v.Groups[0].Name)
	assert.Equal(t, "Gpio Control", v.Groups[1].Name)
}

func TestRoutesTagFilter(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv, "routes", "--tag", "gpio")
	require.Equal(t, 0, res.Code, res.Message)
	assert.Contains(t, res.Message, "Tag: Gpio Control")
	assert.Contains(t, res.Message, "/api/led/{id}")
	assert.NotContains(t, res.Message, "/api/status")
	assert.Contains(t, res.Message, "1 of 2 routes")
}

func TestStatsYAML(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv, "stats", "-F", "yaml")
	require.Equal(t, 0, res.Code, res.Message)
	assert.Contains(t, res.Message, "totalRoutes: 2")
	assert.Contains(t, res.Message, "protectedRoutes: 1")
}

func TestShow(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv, "show", "POST /api/led/{id}")
	require.Equal(t, 0, res.Code, res.Message)
	assert.Contains(t, res.Message, "Auth:    token (default token)")
	assert.Contains(t, res.Message, "Tabs:    try | curl | details")

	res = run(t, srv, "show", "--snippet", "disable", "POST", "/api/led/{id}")
	assert.Equal(t, exitUsage, res.Code)

	res = run(t, srv, "show", "GET", "/api/nope")
	assert.Equal(t, exitUsage, res.Code)
	assert.Contains(t, res.Message, "makerapi routes")
}

func TestTry(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv, "try", "GET", "/api/status")
	require.Equal(t, 0, res.Code, res.Message)
	assert.Contains(t, res.Message, "200 OK")
	assert.Contains(t, res.Message, `"uptime": 42`)

	res = run(t, srv, "try", "route-post--api-led--id-", "-p", "id=1", "--body", "{bad")
	assert.Equal(t, exitFailure, res.Code)
	assert.Contains(t, res.Message, "JSON")

	res = run(t, srv, "try", "GET", "/api/status", "--auth", "token")
	assert.Equal(t, exitUsage, res.Code)

	res = run(t, srv, "try", "GET", "/api/status", "-p", "novalue")
	assert.Equal(t, exitUsage, res.Code)
}

func TestCurl(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv, "curl", "POST", "/api/led/{id}", "-p", "id=4", "--token", "abc", "--body", `{"on": false}`)
	require.Equal(t, 0, res.Code, res.Message)
	assert.Contains(t, res.Message, "# Note: this command does not send cookies, only the token header")
	assert.Contains(t, res.Message, "curl -X POST "+srv.URL+"/api/led/4")
	assert.Contains(t, res.Message, "'Authorization: Bearer abc'")
	assert.Contains(t, res.Message, `-d '{"on":false}'`)
}

func TestDownload(t *testing.T) {
	srv := newDevice(t, true)
	out := filepath.Join(t.TempDir(), "spec.yaml")
	res := run(t, srv, "download", "-o", out)
	require.Equal(t, 0, res.Code, res.Message)
	assert.Equal(t, "Wrote "+out, res.Message)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "openapi: 3.0.3\n"), string(b))

	res = run(t, srv, "download", "-F", "json")
	require.Equal(t, 0, res.Code, res.Message)
	assert.JSONEq(t, testSpec, res.Message)
}

func TestSection(t *testing.T) {
	srv := newDevice(t, true)
	state := t.TempDir()

	res := run(t, srv, "--state-dir", state, "section", "gpio", "--collapse")
	require.Equal(t, 0, res.Code, res.Message)
	assert.Equal(t, "Gpio Control: collapsed", res.Message)

	res = run(t, srv, "--state-dir", state, "routes")
	require.Equal(t, 0, res.Code, res.Message)
	assert.Contains(t, res.Message, "▸ Gpio Control (1)")
	assert.NotContains(t, res.Message, "/api/led/{id}")

	res = run(t, srv, "--state-dir", state, "section", "gpio")
	assert.Equal(t, "Gpio Control: expanded", res.Message)
}

func TestTUINeedsTerminal(t *testing.T) {
	srv := newDevice(t, true)
	res := run(t, srv)
	assert.Equal(t, exitUsage, res.Code)
	assert.Contains(t, res.Message, "terminal")
}

func TestFailureMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{model.NewError(model.KindConfigUnavailable, nil, "down"), exitFailure},
		{model.NewError(model.KindNoSpecsAvailable, nil, "none"), exitNoSpecs},
		{model.NewError(model.KindRouteNotFound, nil, "nope"), exitUsage},
		{model.NewError(model.KindInvalidAuthMode, nil, "mixed"), exitUsage},
		{model.NewError(model.KindExecutionFailed, nil, "refused"), exitFailure},
		{ExitResult{Code: 7, Message: "x"}, 7},
	}
	for _, tt := range tests {
		var ex ExitResult
		require.ErrorAs(t, failure(tt.err), &ex)
		assert.Equal(t, tt.code, ex.Code, tt.err.Error())
	}
	assert.NoError(t, failure(nil))
}

func TestOutputFormats(t *testing.T) {
	f, err := parseOutputFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, formatYAML, f)
	_, err = parseOutputFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, formatYAML, formatForPath("out.yml", formatText))
	assert.Equal(t, formatJSON, formatForPath("out.json", formatText))
	assert.Equal(t, formatText, formatForPath("out.txt", formatText))
	assert.Equal(t, formatJSON, formatForPath("out.yaml", formatJSON))

	assert.Equal(t, "abcd********", mask("abcdefgh"))
	assert.Equal(t, "***", mask("abc"))
}
