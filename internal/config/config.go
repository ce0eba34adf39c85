// Package config resolves the server's runtime settings.
//
// Credentials come from the environment only: DATADOG_API_KEY and
// DATADOG_APP_KEY must both be present or FromEnv fails before any
// client is constructed. Everything else carries a default and may be
// overridden by an optional YAML settings file named in
// DATADOG_MCP_CONFIG; environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultSite is the Datadog site queried when DATADOG_SITE is unset.
	DefaultSite = "datadoghq.com"

	// DefaultTimeout bounds each Datadog API call.
	DefaultTimeout = 30 * time.Second

	// DefaultAuditRetention is how long journal entries are kept.
	DefaultAuditRetention = 30 * 24 * time.Hour

	// auditDirName is the per-user state directory under $HOME.
	auditDirName = ".datadog-mcp"
)

// ErrMissingCredentials reports absent Datadog credentials. FromEnv
// returns it unwrapped so the text reaches the operator verbatim.
var ErrMissingCredentials = errors.New("DATADOG_API_KEY and DATADOG_APP_KEY environment variables are required")

// Config carries everything the composition root needs to wire the
// server: API credentials, the target site, the per-request timeout,
// and the audit journal location.
type Config struct {
	APIKey   string
	AppKey   string
	Site     string
	Timeout  time.Duration
	AuditDir string
	// AuditRetention prunes journal entries older than this on startup.
	// Zero keeps everything.
	AuditRetention time.Duration
	AuditDisabled  bool
}

// fileSettings is the shape of the optional YAML settings file.
// Durations are strings ("45s", "2m") parsed with time.ParseDuration.
type fileSettings struct {
	Site           string `yaml:"site"`
	Timeout        string `yaml:"timeout"`
	AuditDir       string `yaml:"audit_dir"`
	AuditRetention string `yaml:"audit_retention"`
	AuditDisabled  bool   `yaml:"audit_disabled"`
}

// FromEnv builds the runtime configuration. It fails fast when either
// credential is missing, before the settings file is even opened.
func FromEnv() (Config, error) {
	apiKey := os.Getenv("DATADOG_API_KEY")
	appKey := os.Getenv("DATADOG_APP_KEY")
	if apiKey == "" || appKey == "" {
		return Config{}, ErrMissingCredentials
	}

	cfg, err := AuditSettings()
	if err != nil {
		return Config{}, err
	}
	cfg.APIKey = apiKey
	cfg.AppKey = appKey

	// Environment wins over the settings file.
	if site := os.Getenv("DATADOG_SITE"); site != "" {
		cfg.Site = site
	}

	return cfg, nil
}

// AuditSettings resolves the journal location and the non-credential
// defaults. The audit CLI subcommand reads the journal offline, so it
// must work when the API keys are absent.
func AuditSettings() (Config, error) {
	cfg := Config{
		Site:           DefaultSite,
		Timeout:        DefaultTimeout,
		AuditDir:       defaultAuditDir(),
		AuditRetention: DefaultAuditRetention,
	}

	if path := os.Getenv("DATADOG_MCP_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// applyFile overlays settings from the YAML file at path. Fields left
// empty in the file keep their current values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading settings file: %w", err)
	}

	var f fileSettings
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	if f.Site != "" {
		c.Site = f.Site
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("parsing %s: timeout %q: %w", filepath.Base(path), f.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("parsing %s: timeout must be positive, got %q", filepath.Base(path), f.Timeout)
		}
		c.Timeout = d
	}
	if f.AuditDir != "" {
		c.AuditDir = f.AuditDir
	}
	if f.AuditRetention != "" {
		d, err := time.ParseDuration(f.AuditRetention)
		if err != nil {
			return fmt.Errorf("parsing %s: audit_retention %q: %w", filepath.Base(path), f.AuditRetention, err)
		}
		if d < 0 {
			return fmt.Errorf("parsing %s: audit_retention must not be negative, got %q", filepath.Base(path), f.AuditRetention)
		}
		c.AuditRetention = d
	}
	if f.AuditDisabled {
		c.AuditDisabled = true
	}

	return nil
}

// defaultAuditDir places the journal under the user's home directory,
// falling back to the working directory when home cannot be resolved.
func defaultAuditDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return auditDirName
	}
	return filepath.Join(home, auditDirName)
}
