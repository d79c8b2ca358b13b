// Package session owns the application state shared by the CLI and the TUI:
// the discovered specs, the loaded route catalog, filters, credentials and
// per-route results. All mutation goes through State's methods.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"makerapi/internal/auth"
	"makerapi/internal/catalog"
	"makerapi/internal/config"
	"makerapi/internal/httpclient"
	"makerapi/internal/logging"
	"makerapi/internal/model"
	"makerapi/internal/openapi"
	"makerapi/internal/viewstate"
)

// NotConfiguredMessage explains an empty spec list. It is shown instead of a
// retry prompt.
const NotConfiguredMessage = `No OpenAPI specifications are available.

API documentation is not enabled on this device. Rebuild the firmware with
one or both of these build flags:

  Full Platform API:  -DWEB_PLATFORM_OPENAPI=1
  Maker API only:     -DWEB_PLATFORM_MAKERAPI=1

Add them to build_flags in platformio.ini and recompile.`

// Deps are the collaborators State drives. Loader and Executor are
// required; the rest are optional.
type Deps struct {
	Loader     *openapi.Loader
	Executor   *httpclient.Executor
	Discoverer *auth.Discoverer
	ViewState  *viewstate.Store
	Clipboard  Clipboard
	Logger     *slog.Logger
}

type State struct {
	mu sync.Mutex

	cfg    *config.Config
	loader *openapi.Loader
	exec   *httpclient.Executor
	disc   *auth.Discoverer
	views  *viewstate.Store
	clip   Clipboard
	log    *slog.Logger

	tokens *auth.TokenStore
	csrf   string

	specs   []model.SpecDescriptor
	current string
	doc     *openapi.Document
	routes  []model.Route
	tags    []string
	loading bool
	loadErr error
	gen     uint64

	filter  catalog.Filter
	results map[string]RouteResult
}

func New(cfg *config.Config, deps Deps) *State {
	if cfg == nil {
		cfg = config.Default()
	}
	clip := deps.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}
	return &State{
		cfg:     cfg,
		loader:  deps.Loader,
		exec:    deps.Executor,
		disc:    deps.Discoverer,
		views:   deps.ViewState,
		clip:    clip,
		log:     logging.OrNop(deps.Logger),
		tokens:  auth.NewTokenStore(cfg.Token),
		csrf:    cfg.CSRFToken,
		results: map[string]RouteResult{},
	}
}

// Open wires the default collaborators for cfg. A view-state file that
// cannot be read is logged and ignored.
func Open(cfg *config.Config, log *slog.Logger) (*State, error) {
	log = logging.OrNop(log)
	exec, err := httpclient.NewExecutor(httpclient.ExecutorOptions{
		BaseURL:       cfg.BaseURL,
		SessionCookie: cfg.SessionCookie,
		Timeout:       cfg.Timeout,
		Logger:        log.With("component", "executor"),
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	deps := Deps{
		Loader: &openapi.Loader{
			BaseURL:      cfg.BaseURL,
			ConfigPath:   cfg.ConfigPath,
			FullSpecURL:  cfg.FullSpecURL,
			MakerSpecURL: cfg.MakerSpecURL,
			Client:       exec.SessionClient(),
			Logger:       log.With("component", "loader"),
		},
		Executor: exec,
		Discoverer: &auth.Discoverer{
			BaseURL: cfg.BaseURL,
			Client:  exec.SessionClient(),
			Logger:  log.With("component", "auth"),
		},
		Logger: log,
	}

	if dir, err := cfg.ResolveStateDir(); err == nil {
		vs, err := viewstate.Open(dir, cfg.Origin())
		if err != nil {
			log.Warn("view state unavailable", "err", err)
		}
		deps.ViewState = vs
	}
	return New(cfg, deps), nil
}

// Init discovers the enabled specs and loads the default one. Token and
// CSRF discovery run alongside and never fail Init.
func (s *State) Init(ctx context.Context) error {
	var specs []model.SpecDescriptor

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		specs, err = s.loader.FetchConfig(gctx)
		return err
	})
	g.Go(func() error {
		s.discoverCredentials(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.specs = specs
	s.current = openapi.SelectDefault(specs, s.cfg.DefaultSpec, s.current)
	s.mu.Unlock()

	return s.Load(ctx)
}

func (s *State) discoverCredentials(ctx context.Context) {
	if s.disc != nil {
		if toks := s.disc.Discover(ctx); len(toks) > 0 {
			s.tokens.SetTokens(toks)
		}
	}
	s.mu.Lock()
	known := s.csrf != ""
	s.mu.Unlock()
	if known || s.exec == nil {
		return
	}
	if token := auth.DiscoverCSRF(ctx, s.exec.SessionClient(), s.cfg.BaseURL, s.log); token != "" {
		s.mu.Lock()
		s.csrf = token
		s.mu.Unlock()
	}
}

// DiscoverTokens refreshes the token list on demand.
func (s *State) DiscoverTokens(ctx context.Context) []model.Token {
	if s.disc != nil {
		s.tokens.SetTokens(s.disc.Discover(ctx))
	}
	return s.tokens.Tokens()
}

// SelectSpec switches to spec id and loads it.
func (s *State) SelectSpec(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := openapi.FindSpec(s.specs, id); !ok {
		s.mu.Unlock()
		return model.NewError(model.KindInvalidSpec, nil, "unknown specification %q", id)
	}
	s.current = id
	s.mu.Unlock()
	return s.Load(ctx)
}

// Refresh re-reads the server configuration and reloads the current spec,
// keeping the selection when it is still offered.
func (s *State) Refresh(ctx context.Context) error {
	specs, err := s.loader.FetchConfig(ctx)
	if err != nil {
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.specs = specs
	s.current = openapi.SelectDefault(specs, s.cfg.DefaultSpec, s.current)
	s.mu.Unlock()
	return s.Load(ctx)
}

// Load fetches the current spec and rebuilds the catalog. Every call takes a
// new generation; a load that finishes after a newer one started is
// discarded and returns ErrStaleLoad.
func (s *State) Load(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	desc, ok := openapi.FindSpec(s.specs, s.current)
	if !ok {
		s.mu.Unlock()
		return model.NewError(model.KindNoSpecsAvailable, nil, "no specification selected")
	}
	s.loading = true
	s.mu.Unlock()

	s.log.Debug("loading spec", "spec", desc.ID, "generation", gen)
	doc, err := s.loader.FetchSpec(ctx, desc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug("discarding stale load", "spec", desc.ID, "generation", gen, "latest", s.gen)
		return model.NewError(model.KindStaleLoad, nil, "load of %s superseded", desc.ID)
	}
	s.loading = false
	s.results = map[string]RouteResult{}
	if err != nil {
		s.loadErr = err
		s.doc, s.routes, s.tags = nil, nil, nil
		return err
	}
	s.loadErr = nil
	s.doc = doc
	s.routes = doc.Routes()
	s.tags = catalog.TagVocabulary(s.routes)
	if s.filter.Tag != "" {
		s.filter.Tag = s.normalizeTag(s.filter.Tag)
	}
	s.log.Info("spec loaded", "spec", desc.ID, "routes", len(s.routes), "title", doc.Title(), "version", doc.Version())
	return nil
}

// Status is a read-only snapshot for headers and status lines.
type Status struct {
	Specs   []model.SpecDescriptor `json:"specs" yaml:"specs"`
	Current string                 `json:"current" yaml:"current"`
	Title   string                 `json:"title,omitempty" yaml:"title,omitempty"`
	Version string                 `json:"version,omitempty" yaml:"version,omitempty"`
	BaseURL string                 `json:"baseUrl" yaml:"baseUrl"`
	Loading bool                   `json:"loading" yaml:"loading"`
	Err     error                  `json:"-" yaml:"-"`
}

func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Specs:   append([]model.SpecDescriptor(nil), s.specs...),
		Current: s.current,
		BaseURL: s.cfg.BaseURL,
		Loading: s.loading,
		Err:     s.loadErr,
	}
	if s.doc != nil {
		st.Title, st.Version = s.doc.Title(), s.doc.Version()
	}
	return st
}

func (s *State) Routes() []model.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Route(nil), s.routes...)
}

func (s *State) Tokens() *auth.TokenStore { return s.tokens }

func (s *State) Credentials() auth.Credentials {
	v, _ := s.tokens.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	return auth.Credentials{Token: v, CSRFToken: s.csrf}
}

// Config returns the configuration State was created with.
func (s *State) Config() *config.Config { return s.cfg }
