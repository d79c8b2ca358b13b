package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"makerapi/internal/auth"
	"makerapi/internal/config"
	"makerapi/internal/httpclient"
	"makerapi/internal/logging"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

// getOutputFlags returns the global --format and -o/--output from the root command.
func getOutputFlags(c *cobra.Command) (format string, outputPath string) {
	format, _ = c.Root().PersistentFlags().GetString("format")
	outputPath, _ = c.Root().PersistentFlags().GetString("output")
	return format, outputPath
}

// Persistent flags that override a config key.
var flagKeys = map[string]string{
	"base-url":       "base_url",
	"spec":           "default_spec",
	"token":          "token",
	"session-cookie": "session_cookie",
	"csrf-token":     "csrf_token",
	"timeout":        "timeout",
	"state-dir":      "state_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-file":       "log_file",
}

// loadConfig layers defaults, config files and env, then the flags set on
// the command line.
func loadConfig(c *cobra.Command) (*config.Config, error) {
	pf := c.Root().PersistentFlags()
	path, _ := pf.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, ExitResult{Code: exitFailure, Message: err.Error(), ToStderr: true}
	}
	for flag, key := range flagKeys {
		if !pf.Changed(flag) {
			continue
		}
		v, _ := pf.GetString(flag)
		if err := cfg.Set(key, v); err != nil {
			return nil, usageExit("--%s: %v", flag, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageExit("%v", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: os.Stderr,
	})
}

// openState builds the session for c. With load set, the server config is
// read and the default spec loaded; otherwise only credentials are
// discovered.
func openState(c *cobra.Command, load bool) (*session.State, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	st, err := session.Open(cfg, newLogger(cfg))
	if err != nil {
		return nil, failure(err)
	}
	if !load {
		st.DiscoverTokens(c.Context())
		return st, nil
	}
	if err := st.Init(c.Context()); err != nil {
		return nil, failure(err)
	}
	return st, nil
}

// routeArgs accepts a route ID, "METHOD /path" as one argument, or METHOD
// and path as two.
func routeArgs(st *session.State, args []string) (model.Route, error) {
	var r model.Route
	var err error
	switch len(args) {
	case 1:
		if method, path, ok := strings.Cut(strings.TrimSpace(args[0]), " "); ok {
			r, err = st.FindRoute(strings.ToUpper(method), strings.TrimSpace(path))
		} else {
			r, err = st.Route(args[0])
		}
	case 2:
		r, err = st.FindRoute(strings.ToUpper(args[0]), args[1])
	default:
		return r, usageExit("expected a route ID or METHOD PATH")
	}
	if err != nil {
		return r, failure(err)
	}
	return r, nil
}

// requestFlags are the inputs shared by try and curl.
type requestFlags struct {
	params    []string
	auth      string
	body      string
	bodyFile  string
	tokenName string
}

func (f *requestFlags) register(c *cobra.Command) {
	c.Flags().StringArrayVarP(&f.params, "param", "p", nil, "parameter as name=value (repeatable)")
	c.Flags().StringVar(&f.auth, "auth", "", "auth mode: none|session|token|local_only (default: route default)")
	c.Flags().StringVar(&f.body, "body", "", "request body JSON")
	c.Flags().StringVar(&f.bodyFile, "body-file", "", "read the request body from a file (- for stdin)")
	c.Flags().StringVar(&f.tokenName, "token-name", "", "use a discovered token by name")
}

func (f *requestFlags) input(c *cobra.Command, st *session.State) (session.Input, error) {
	params, err := httpclient.ParseParams(f.params)
	if err != nil {
		return session.Input{}, usageExit("%v", err)
	}
	in := session.Input{Params: params, Auth: f.auth}

	switch {
	case c.Flags().Changed("body") && f.bodyFile != "":
		return in, usageExit("--body and --body-file are mutually exclusive")
	case c.Flags().Changed("body"):
		in.Body = &f.body
	case f.bodyFile != "":
		text, err := readBodyFile(f.bodyFile)
		if err != nil {
			return in, ExitResult{Code: exitFailure, Message: err.Error(), ToStderr: true}
		}
		in.Body = &text
	}

	if f.tokenName != "" && !st.Tokens().SelectToken(f.tokenName) {
		return in, usageExit("no discovered token named %q (see `makerapi tokens`)", f.tokenName)
	}
	return in, nil
}

func readBodyFile(path string) (string, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

func modeList(modes []model.AuthMode) string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// authNote is the advisory shown for a route's effective auth mode.
func authNote(r model.Route, requested string) string {
	mode, err := auth.Resolve(r, requested)
	if err != nil {
		return ""
	}
	return auth.Advisory(mode)
}
