package openapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makerapi/internal/model"
)

const statusDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Maker API", "version": "1.2.0"},
  "paths": {
    "/api/status": {
      "get": {"summary": "Device status", "responses": {"200": {"description": "ok"}}}
    }
  }
}`

const mixedDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Full", "version": "2"},
  "paths": {
    "/api/users/{id}": {
      "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
      "get": {
        "tags": ["user-management"],
        "summary": "Get user",
        "parameters": [
          {"name": "id", "in": "path", "required": true, "schema": {"type": "integer"}},
          {"name": "verbose", "in": "query", "schema": {"type": "boolean"}}
        ],
        "security": [{"cookieAuth": []}],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/api/tokens": {
      "post": {
        "tags": ["tokens", "auth"],
        "summary": "Create token",
        "security": [{"bearerAuth": []}, {"cookieAuth": []}, {"bearerAuth": []}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {
            "type": "object",
            "properties": {
              "name": {"type": "string", "description": "token name"},
              "ttl": {"type": "integer"},
              "admin": {"type": "boolean"},
              "scopes": {"type": "array", "items": {"type": "string"}}
            }
          }}}
        },
        "responses": {"200": {"description": "ok"}}
      },
      "get": {
        "tags": ["tokens"],
        "description": "List tokens",
        "security": [{"apiKey": []}],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/api/wifi": {
      "put": {
        "security": [{"localAuth": []}],
        "requestBody": {"content": {"application/json": {"example": {"ssid": "lab"}}}},
        "responses": {"200": {"description": "ok"}}
      },
      "patch": {
        "requestBody": {"content": {"text/plain": {}}},
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func parse(t *testing.T, raw string) []model.Route {
	t.Helper()
	doc, err := Parse(context.Background(), []byte(raw), "")
	require.NoError(t, err)
	return BuildRoutes(doc, PathOrder([]byte(raw)))
}

func findRoute(t *testing.T, routes []model.Route, method, path string) model.Route {
	t.Helper()
	for _, r := range routes {
		if r.Method == method && r.Path == path {
			return r
		}
	}
	t.Fatalf("route %s %s not found", method, path)
	return model.Route{}
}

func TestBuildRoutesPublicStatus(t *testing.T) {
	routes := parse(t, statusDoc)
	require.Len(t, routes, 1)

	r := routes[0]
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "/api/status", r.Path)
	assert.Equal(t, []model.AuthMode{model.AuthNone}, r.AuthTypes)
	assert.Equal(t, model.AuthNone, r.AuthType())
	assert.Equal(t, model.DefaultModule, r.Module)
	assert.Equal(t, []string{model.DefaultModule}, r.Tags)
	assert.Equal(t, "Device status", r.Description)
	assert.Nil(t, r.Body)
}

func TestBuildRoutesSecurity(t *testing.T) {
	routes := parse(t, mixedDoc)

	create := findRoute(t, routes, "POST", "/api/tokens")
	assert.Equal(t, []model.AuthMode{model.AuthToken, model.AuthSession}, create.AuthTypes)
	assert.Equal(t, model.AuthMixed, create.AuthType())
	assert.Equal(t, "tokens", create.Module)
	assert.Equal(t, []string{"tokens", "auth"}, create.Tags)

	list := findRoute(t, routes, "GET", "/api/tokens")
	assert.Equal(t, []model.AuthMode{model.AuthNone}, list.AuthTypes, "unknown schemes fall back to public")
	assert.Equal(t, "List tokens", list.Label())

	wifi := findRoute(t, routes, "PUT", "/api/wifi")
	assert.Equal(t, model.AuthLocalOnly, wifi.AuthType())
}

func TestBuildRoutesParameters(t *testing.T) {
	routes := parse(t, mixedDoc)
	r := findRoute(t, routes, "GET", "/api/users/{id}")

	require.Len(t, r.Parameters, 2)
	assert.Equal(t, model.Parameter{Name: "id", In: "path", Required: true, Type: model.TypeInteger}, r.Parameters[0])
	assert.Equal(t, "verbose", r.Parameters[1].Name)
	assert.Equal(t, model.TypeBoolean, r.Parameters[1].Type)
}

func TestBuildRoutesBodyTemplates(t *testing.T) {
	routes := parse(t, mixedDoc)

	create := findRoute(t, routes, "POST", "/api/tokens")
	require.NotNil(t, create.Body)
	assert.True(t, create.Body.Required)
	var skel map[string]any
	require.NoError(t, json.Unmarshal([]byte(create.Body.Template), &skel))
	assert.Equal(t, map[string]any{
		"name":   "example_name",
		"ttl":    float64(0),
		"admin":  false,
		"scopes": []any{},
	}, skel)

	wifi := findRoute(t, routes, "PUT", "/api/wifi")
	require.NotNil(t, wifi.Body)
	assert.Equal(t, "{\n  \"ssid\": \"lab\"\n}", wifi.Body.Template)

	patch := findRoute(t, routes, "PATCH", "/api/wifi")
	require.NotNil(t, patch.Body)
	assert.Equal(t, "{\n  \n}", patch.Body.Template)

	assert.Nil(t, findRoute(t, routes, "GET", "/api/tokens").Body)
}

func TestBuildRoutesDeterministic(t *testing.T) {
	first := parse(t, mixedDoc)
	for range 5 {
		assert.Equal(t, first, parse(t, mixedDoc))
	}

	var order []string
	for _, r := range first {
		order = append(order, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"GET /api/users/{id}",
		"GET /api/tokens",
		"POST /api/tokens",
		"PUT /api/wifi",
		"PATCH /api/wifi",
	}, order)
}

func TestBuildRoutesWithoutOrderSortsPaths(t *testing.T) {
	doc, err := Parse(context.Background(), []byte(mixedDoc), "")
	require.NoError(t, err)

	var paths []string
	for _, r := range BuildRoutes(doc, []string{"/api/wifi", "/api/nope"}) {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/api/wifi", "/api/wifi", "/api/tokens", "/api/tokens", "/api/users/{id}"}, paths)
}

func TestPathOrder(t *testing.T) {
	assert.Equal(t, []string{"/api/users/{id}", "/api/tokens", "/api/wifi"}, PathOrder([]byte(mixedDoc)))
	assert.Equal(t, []string{"/b", "/a"}, PathOrder([]byte("openapi: 3.0.3\npaths:\n  /b: {}\n  /a: {}\n")))
	assert.Nil(t, PathOrder([]byte(`{"openapi": "3.0.3"}`)))
	assert.Nil(t, PathOrder([]byte(`[`)))
}

const danglingRefDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Maker API", "version": "1"},
  "paths": {
    "/api/a": {
      "post": {
        "parameters": [{"$ref": "#/components/parameters/Verbose"}],
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Missing"}}}},
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/api/b": {
      "get": {
        "parameters": [{"$ref": "#/components/parameters/Verbose"}],
        "responses": {"200": {"description": "ok"}}
      }
    }
  },
  "components": {
    "parameters": {
      "Verbose": {"name": "verbose", "in": "query", "schema": {"type": "boolean"}}
    }
  }
}`

func TestParseDanglingRefKeepsRoutes(t *testing.T) {
	doc, unresolved, err := parse(context.Background(), []byte(danglingRefDoc), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/a"}, unresolved)

	routes := BuildRoutes(doc, PathOrder([]byte(danglingRefDoc)))
	require.Len(t, routes, 2)

	post := findRoute(t, routes, "POST", "/api/a")
	require.NotNil(t, post.Body)
	assert.Equal(t, "{\n  \n}", post.Body.Template)

	get := findRoute(t, routes, "GET", "/api/b")
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "verbose", get.Parameters[0].Name)
	assert.Equal(t, model.TypeBoolean, get.Parameters[0].Type)
}

func TestFetchSpecDanglingRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(danglingRefDoc))
	}))
	defer srv.Close()

	l := &Loader{BaseURL: srv.URL}
	doc, err := l.FetchSpec(context.Background(), model.SpecDescriptor{ID: SpecMaker, URL: "/maker/openapi.json"})
	require.NoError(t, err)
	assert.Len(t, doc.Routes(), 2)
	assert.Equal(t, "/api/a", doc.Routes()[0].Path)
}

func TestBodyTemplateJSONMediaVariants(t *testing.T) {
	routes := parse(t, `{
  "openapi": "3.0.3",
  "info": {"title": "x", "version": "1"},
  "paths": {
    "/api/cfg": {
      "patch": {
        "requestBody": {"content": {"application/merge-patch+json": {"example": {"mode": "auto"}}}},
        "responses": {"200": {"description": "ok"}}
      },
      "put": {
        "requestBody": {"content": {"application/json; charset=utf-8": {"example": {"mode": "off"}}}},
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`)
	assert.Equal(t, "{\n  \"mode\": \"auto\"\n}", findRoute(t, routes, "PATCH", "/api/cfg").Body.Template)
	assert.Equal(t, "{\n  \"mode\": \"off\"\n}", findRoute(t, routes, "PUT", "/api/cfg").Body.Template)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(context.Background(), []byte(`{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}}`), "")
	assert.ErrorIs(t, err, model.ErrInvalidSpec)

	_, err = Parse(context.Background(), []byte(`not json {`), "")
	assert.ErrorIs(t, err, model.ErrInvalidSpec)
}

func TestBuildRoutesNil(t *testing.T) {
	assert.Empty(t, BuildRoutes(nil, nil))
}

func newServer(t *testing.T, fullSpec, makerSpec bool, specHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /maker_api/api/config", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"OpenApiConfig": map[string]bool{"fullSpec": fullSpec, "makerSpec": makerSpec},
		})
	})
	mux.HandleFunc("GET /maker/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		specHits.Add(1)
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_, _ = w.Write([]byte(statusDoc))
	})
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		specHits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchConfigAndSpec(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, true, true, &hits)
	l := &Loader{BaseURL: srv.URL, ConfigPath: "/maker_api/api/config"}

	specs, err := l.FetchConfig(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, SpecFull, specs[0].ID)
	assert.Equal(t, SpecMaker, specs[1].ID)
	assert.Equal(t, "/maker/openapi.json", specs[1].URL)

	doc, err := l.FetchSpec(context.Background(), specs[1])
	require.NoError(t, err)
	assert.Equal(t, "Maker API", doc.Title())
	assert.Equal(t, "1.2.0", doc.Version())
	assert.JSONEq(t, statusDoc, string(doc.Raw))

	_, err = l.FetchSpec(context.Background(), specs[0])
	assert.ErrorIs(t, err, model.ErrInvalidSpec)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchConfigNoSpecs(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, false, false, &hits)
	l := &Loader{BaseURL: srv.URL, ConfigPath: "/maker_api/api/config"}

	_, err := l.FetchConfig(context.Background())
	assert.ErrorIs(t, err, model.ErrNoSpecsAvailable)
	assert.Zero(t, hits.Load())
}

func TestFetchConfigUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	l := &Loader{BaseURL: srv.URL, ConfigPath: "/maker_api/api/config"}
	_, err := l.FetchConfig(context.Background())
	assert.ErrorIs(t, err, model.ErrConfigUnavailable)

	srv.Close()
	_, err = l.FetchConfig(context.Background())
	assert.ErrorIs(t, err, model.ErrConfigUnavailable)
}

func TestSelectDefault(t *testing.T) {
	full := model.SpecDescriptor{ID: SpecFull}
	maker := model.SpecDescriptor{ID: SpecMaker}

	tests := []struct {
		name      string
		specs     []model.SpecDescriptor
		preferred string
		current   string
		want      string
	}{
		{"empty", nil, "", "", ""},
		{"single", []model.SpecDescriptor{full}, SpecMaker, "", SpecFull},
		{"prefer maker", []model.SpecDescriptor{full, maker}, "", "", SpecMaker},
		{"prefer full", []model.SpecDescriptor{full, maker}, SpecFull, "", SpecFull},
		{"keep current", []model.SpecDescriptor{full, maker}, SpecMaker, SpecFull, SpecFull},
		{"current gone", []model.SpecDescriptor{maker}, SpecFull, SpecFull, SpecMaker},
		{"unknown preferred", []model.SpecDescriptor{full, maker}, "other", "", SpecFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectDefault(tt.specs, tt.preferred, tt.current))
		})
	}
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "http://h/openapi.json", resolveURL("http://h/", "openapi.json"))
	assert.Equal(t, "http://h/openapi.json", resolveURL("http://h", "/openapi.json"))
	assert.Equal(t, "https://other/x.json", resolveURL("http://h", "https://other/x.json"))
}
