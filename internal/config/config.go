// Package config holds makerapi's layered configuration.
//
// Precedence, highest first: command-line flags, MAKERAPI_* environment
// variables, the file named by --config, the global file
// (~/.config/makerapi/config.yaml), built-in defaults. Sources records where
// each non-default value came from.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	GlobalConfigDir      = "makerapi"
	GlobalConfigFileName = "config.yaml"

	DefaultConfigPath   = "/maker_api/api/config"
	DefaultFullSpecURL  = "/openapi.json"
	DefaultMakerSpecURL = "/maker/openapi.json"
	DefaultSpec         = "maker"
	DefaultTimeout      = 10 * time.Second
)

const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

type Config struct {
	BaseURL       string        `yaml:"base_url"`
	ConfigPath    string        `yaml:"config_path"`
	FullSpecURL   string        `yaml:"full_spec_url"`
	MakerSpecURL  string        `yaml:"maker_spec_url"`
	DefaultSpec   string        `yaml:"default_spec"`
	Token         string        `yaml:"token"`
	SessionCookie string        `yaml:"session_cookie"`
	CSRFToken     string        `yaml:"csrf_token"`
	Timeout       time.Duration `yaml:"timeout"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	LogFile       string        `yaml:"log_file"`
	StateDir      string        `yaml:"state_dir"`
	Editor        string        `yaml:"editor"`

	Sources map[string]string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		ConfigPath:   DefaultConfigPath,
		FullSpecURL:  DefaultFullSpecURL,
		MakerSpecURL: DefaultMakerSpecURL,
		DefaultSpec:  DefaultSpec,
		Timeout:      DefaultTimeout,
		LogLevel:     "warn",
		LogFormat:    "text",
		Sources:      map[string]string{},
	}
}

// FileError reports a config file that exists but cannot be used.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("config %s: %v", e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// Load builds a Config from defaults, the global file, path (optional) and
// the environment. Flags are applied afterwards by the caller via Set.
func Load(path string) (*Config, error) {
	cfg := Default()

	if global, err := GlobalPath(); err == nil {
		if err := cfg.mergeFile(global, SourceGlobal, true); err != nil {
			return nil, err
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path, SourceFile, false); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func GlobalPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, GlobalConfigDir, GlobalConfigFileName), nil
}

func (c *Config) mergeFile(path, source string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &FileError{Path: path, Err: err}
	}
	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &FileError{Path: path, Err: err}
	}
	c.merge(&fc, source)
	return nil
}

func (c *Config) merge(o *Config, source string) {
	set := func(key string, dst *string, v string) {
		if v != "" {
			*dst = v
			c.Sources[key] = source
		}
	}
	set("base_url", &c.BaseURL, NormalizeBaseURL(o.BaseURL))
	set("config_path", &c.ConfigPath, o.ConfigPath)
	set("full_spec_url", &c.FullSpecURL, o.FullSpecURL)
	set("maker_spec_url", &c.MakerSpecURL, o.MakerSpecURL)
	set("default_spec", &c.DefaultSpec, o.DefaultSpec)
	set("token", &c.Token, o.Token)
	set("session_cookie", &c.SessionCookie, o.SessionCookie)
	set("csrf_token", &c.CSRFToken, o.CSRFToken)
	set("log_level", &c.LogLevel, o.LogLevel)
	set("log_format", &c.LogFormat, o.LogFormat)
	set("log_file", &c.LogFile, o.LogFile)
	set("state_dir", &c.StateDir, o.StateDir)
	set("editor", &c.Editor, o.Editor)
	if o.Timeout > 0 {
		c.Timeout = o.Timeout
		c.Sources["timeout"] = source
	}
}

// Env variable names, keyed by config field.
var envNames = map[string]string{
	"base_url":       "MAKERAPI_BASE_URL",
	"config_path":    "MAKERAPI_CONFIG_PATH",
	"full_spec_url":  "MAKERAPI_FULL_SPEC_URL",
	"maker_spec_url": "MAKERAPI_MAKER_SPEC_URL",
	"default_spec":   "MAKERAPI_DEFAULT_SPEC",
	"token":          "MAKERAPI_TOKEN",
	"session_cookie": "MAKERAPI_SESSION_COOKIE",
	"csrf_token":     "MAKERAPI_CSRF_TOKEN",
	"timeout":        "MAKERAPI_TIMEOUT",
	"log_level":      "MAKERAPI_LOG_LEVEL",
	"log_format":     "MAKERAPI_LOG_FORMAT",
	"log_file":       "MAKERAPI_LOG_FILE",
	"state_dir":      "MAKERAPI_STATE_DIR",
	"editor":         "MAKERAPI_EDITOR",
}

// ApplyEnv overlays environment variables. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for key, name := range envNames {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := c.Set(key, v); err == nil {
			c.Sources[key] = SourceEnv
		}
	}
}

// Set assigns a field by its YAML key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "base_url":
		c.BaseURL = NormalizeBaseURL(value)
	case "config_path":
		c.ConfigPath = value
	case "full_spec_url":
		c.FullSpecURL = value
	case "maker_spec_url":
		c.MakerSpecURL = value
	case "default_spec":
		c.DefaultSpec = value
	case "token":
		c.Token = value
	case "session_cookie":
		c.SessionCookie = value
	case "csrf_token":
		c.CSRFToken = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}
		c.Timeout = d
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "log_file":
		c.LogFile = value
	case "state_dir":
		c.StateDir = value
	case "editor":
		c.Editor = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if c.Sources == nil {
		c.Sources = map[string]string{}
	}
	c.Sources[key] = SourceFlag
	return nil
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL required (use --base-url or set MAKERAPI_BASE_URL)")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid base URL %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// Origin is scheme://host[:port] of the base URL.
func (c *Config) Origin() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return c.BaseURL
	}
	return u.Scheme + "://" + u.Host
}

// ResolveStateDir returns StateDir or the default under the user config dir.
func (c *Config) ResolveStateDir() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, GlobalConfigDir), nil
}

func NormalizeBaseURL(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	if !strings.HasPrefix(in, "http://") && !strings.HasPrefix(in, "https://") {
		in = "http://" + in
	}
	return strings.TrimRight(in, "/")
}
