package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/yaml"

	"makerapi/internal/logging"
	"makerapi/internal/model"
)

const defaultTimeout = 10 * time.Second

const (
	SpecFull  = "full"
	SpecMaker = "maker"
)

// Loader discovers and fetches the API description documents a server
// advertises through its configuration endpoint.
type Loader struct {
	BaseURL      string
	ConfigPath   string
	FullSpecURL  string
	MakerSpecURL string

	Client *http.Client
	Logger *slog.Logger
}

// Document is one fetched description, kept raw for download.
type Document struct {
	Descriptor model.SpecDescriptor
	Raw        []byte
	Doc        *openapi3.T
}

// Routes builds the route list in document order.
func (d *Document) Routes() []model.Route {
	if d == nil {
		return nil
	}
	return BuildRoutes(d.Doc, PathOrder(d.Raw))
}

func (d *Document) Title() string {
	if d == nil || d.Doc == nil || d.Doc.Info == nil || d.Doc.Info.Title == "" {
		return "API"
	}
	return d.Doc.Info.Title
}

func (d *Document) Version() string {
	if d == nil || d.Doc == nil || d.Doc.Info == nil || d.Doc.Info.Version == "" {
		return "Unknown"
	}
	return d.Doc.Info.Version
}

type configResponse struct {
	Success       bool `json:"success"`
	OpenAPIConfig struct {
		FullSpec  bool `json:"fullSpec"`
		MakerSpec bool `json:"makerSpec"`
	} `json:"OpenApiConfig"`
}

// FetchConfig asks the server which description documents are enabled and
// returns their descriptors in discovery order (full, then maker).
func (l *Loader) FetchConfig(ctx context.Context) ([]model.SpecDescriptor, error) {
	target := resolveURL(l.BaseURL, l.ConfigPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, model.NewError(model.KindConfigUnavailable, err, "POST %s", target)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := l.client().Do(req)
	if err != nil {
		return nil, model.NewError(model.KindConfigUnavailable, err, "POST %s", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewError(model.KindConfigUnavailable, nil, "POST %s: %s", target, resp.Status)
	}

	var cr configResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, model.NewError(model.KindConfigUnavailable, err, "decode %s", target)
	}

	var specs []model.SpecDescriptor
	if cr.OpenAPIConfig.FullSpec {
		specs = append(specs, model.SpecDescriptor{ID: SpecFull, DisplayName: "Full API Specification", URL: or(l.FullSpecURL, "/openapi.json")})
	}
	if cr.OpenAPIConfig.MakerSpec {
		specs = append(specs, model.SpecDescriptor{ID: SpecMaker, DisplayName: "Maker API Specification", URL: or(l.MakerSpecURL, "/maker/openapi.json")})
	}
	l.logger().Debug("openapi config", "url", target, "specs", len(specs))
	if len(specs) == 0 {
		return nil, model.NewError(model.KindNoSpecsAvailable, nil, "no API description documents are enabled on %s", l.BaseURL)
	}
	return specs, nil
}

// SelectDefault keeps current when it is still available; otherwise picks the
// only spec, the preferred one, or the first in discovery order.
func SelectDefault(specs []model.SpecDescriptor, preferred, current string) string {
	if len(specs) == 0 {
		return ""
	}
	if current != "" {
		if _, ok := FindSpec(specs, current); ok {
			return current
		}
	}
	if len(specs) == 1 {
		return specs[0].ID
	}
	if _, ok := FindSpec(specs, or(preferred, SpecMaker)); ok {
		return or(preferred, SpecMaker)
	}
	return specs[0].ID
}

func FindSpec(specs []model.SpecDescriptor, id string) (model.SpecDescriptor, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
	}
	return model.SpecDescriptor{}, false
}

// FetchSpec downloads and parses one description document.
func (l *Loader) FetchSpec(ctx context.Context, desc model.SpecDescriptor) (*Document, error) {
	target := resolveURL(l.BaseURL, desc.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, model.NewError(model.KindInvalidSpec, err, "GET %s", target)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.client().Do(req)
	if err != nil {
		return nil, model.NewError(model.KindInvalidSpec, err, "failed to load API specification")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewError(model.KindInvalidSpec, nil, "failed to load API specification: GET %s: %s", target, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewError(model.KindInvalidSpec, err, "read %s", target)
	}

	doc, unresolved, err := parse(ctx, raw, target)
	if err != nil {
		return nil, err
	}
	if len(unresolved) > 0 {
		l.logger().Warn("openapi spec has unresolved references", "spec", desc.ID, "paths", unresolved)
	}
	l.logger().Debug("openapi spec loaded", "spec", desc.ID, "url", target, "bytes", len(raw), "paths", doc.Paths.Len())
	return &Document{Descriptor: desc, Raw: raw, Doc: doc}, nil
}

// Parse loads a description from raw bytes. location, when set, anchors
// relative external refs. Only the root paths collection is required; a
// $ref that cannot be resolved leaves the routes using it with unresolved
// schemas instead of rejecting the document.
func Parse(ctx context.Context, raw []byte, location string) (*openapi3.T, error) {
	doc, _, err := parse(ctx, raw, location)
	return doc, err
}

// parse is Parse that also reports the paths whose refs did not resolve.
func parse(ctx context.Context, raw []byte, location string) (*openapi3.T, []string, error) {
	var u *url.URL
	if pu, err := url.Parse(location); err == nil && location != "" {
		u = pu
	}

	var (
		doc        *openapi3.T
		unresolved []string
		err        error
	)
	if u != nil {
		doc, err = refLoader(ctx).LoadFromDataWithPath(raw, u)
	} else {
		doc, err = refLoader(ctx).LoadFromData(raw)
	}
	if err != nil {
		var derr error
		if doc, unresolved, derr = decodeUnresolved(ctx, raw, u); derr != nil {
			return nil, nil, model.NewError(model.KindInvalidSpec, err, "invalid API specification")
		}
	}
	if doc.Paths == nil {
		return nil, nil, model.NewError(model.KindInvalidSpec, nil, `invalid API specification: missing "paths" property`)
	}
	return doc, unresolved, nil
}

func refLoader(ctx context.Context) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true
	return loader
}

// decodeUnresolved decodes raw without resolving refs, then resolves each
// path on its own so a dangling $ref only affects the routes under it.
func decodeUnresolved(ctx context.Context, raw []byte, location *url.URL) (*openapi3.T, []string, error) {
	doc := &openapi3.T{}
	if err := json.Unmarshal(raw, doc); err != nil {
		if yerr := yaml.Unmarshal(raw, doc); yerr != nil {
			return nil, nil, fmt.Errorf("decode: %w", err)
		}
	}
	if doc.Paths == nil {
		return doc, nil, nil
	}

	items := doc.Paths.Map()
	paths := make([]string, 0, len(items))
	for p := range items {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var unresolved []string
	for _, p := range paths {
		if items[p] == nil {
			continue
		}
		sub := &openapi3.T{
			OpenAPI:    doc.OpenAPI,
			Info:       doc.Info,
			Components: doc.Components,
			Paths:      openapi3.NewPaths(openapi3.WithPath(p, items[p])),
		}
		if err := refLoader(ctx).ResolveRefsIn(sub, location); err != nil {
			unresolved = append(unresolved, p)
		}
	}
	return doc, unresolved, nil
}

func (l *Loader) client() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (l *Loader) logger() *slog.Logger {
	return logging.OrNop(l.Logger)
}

// resolveURL joins a server-relative reference onto base. Absolute refs pass
// through unchanged.
func resolveURL(base, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// String renders a descriptor for menus and logs.
func String(d model.SpecDescriptor) string {
	return fmt.Sprintf("%s (%s)", d.DisplayName, d.ID)
}
