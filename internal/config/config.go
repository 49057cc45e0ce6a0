// Package config loads pagecheck settings from YAML
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jzx17/pagecheck/pkg/retry"
	"github.com/jzx17/pagecheck/pkg/visual"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable overriding the config file path
const EnvConfigPath = "PAGECHECK_CONFIG"

// DefaultConfigFile is looked up in the working directory when no path is given
const DefaultConfigFile = "pagecheck.yaml"

// Browsers lists the engines a session can launch
var Browsers = []string{"chromium", "firefox", "webkit"}

// Config holds all configuration for pagecheck
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Retry   RetryConfig   `yaml:"retry"`
	Visual  VisualConfig  `yaml:"visual"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// BrowserConfig selects and configures the browser under test
type BrowserConfig struct {
	Name     string `yaml:"name"` // chromium, firefox, webkit
	Headless bool   `yaml:"headless"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// RetryConfig is the default retry policy for browser interactions
type RetryConfig struct {
	MaxAttempts     int      `yaml:"max_attempts"`
	InitialDelay    string   `yaml:"initial_delay"`
	MaxDelay        string   `yaml:"max_delay"`
	RetryableFaults []string `yaml:"retryable_faults"`
}

// VisualConfig configures the visual regression engine
type VisualConfig struct {
	BaselineRoot                    string  `yaml:"baseline_root"`
	AutoCreateBaselineIfMissing     bool    `yaml:"auto_create_baseline_if_missing"`
	WarnOnAutomaticBaselineCreation bool    `yaml:"warn_on_automatic_baseline_creation"`
	DefaultTolerancePercent         float64 `yaml:"default_tolerance_percent"`
}

// OutputConfig sets where test artifacts go
type OutputConfig struct {
	Root string `yaml:"root"`
}

// LoggingConfig sets the log level and handler format
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	vis := visual.DefaultConfig()
	return &Config{
		Browser: BrowserConfig{
			Name:     "chromium",
			Headless: true,
			BaseURL:  "https://www.saucedemo.com",
			Timeout:  "30s",
		},
		Retry: RetryConfig{
			MaxAttempts:  retry.DefaultMaxAttempts,
			InitialDelay: retry.DefaultInitialDelay.String(),
			MaxDelay:     retry.DefaultMaxDelay.String(),
		},
		Visual: VisualConfig{
			BaselineRoot:                    vis.BaselineRoot,
			AutoCreateBaselineIfMissing:     vis.AutoCreateBaselineIfMissing,
			WarnOnAutomaticBaselineCreation: vis.WarnOnAutomaticBaselineCreation,
			DefaultTolerancePercent:         vis.DefaultTolerancePercent,
		},
		Output: OutputConfig{
			Root: "TestOutput",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads configuration from path over the defaults. An empty path
// falls back to $PAGECHECK_CONFIG and then ./pagecheck.yaml; a missing default
// file is not an error, a missing explicit one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to path
func (c *Config) SaveConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error

	if !isBrowser(c.Browser.Name) {
		errs = append(errs, fmt.Errorf("browser.name %q must be one of %s", c.Browser.Name, strings.Join(Browsers, ", ")))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	for _, f := range []struct{ name, value string }{
		{"browser.timeout", c.Browser.Timeout},
		{"retry.initial_delay", c.Retry.InitialDelay},
		{"retry.max_delay", c.Retry.MaxDelay},
	} {
		if f.value == "" {
			continue
		}
		if d, err := time.ParseDuration(f.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		} else if d < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative", f.name))
		}
	}
	if _, err := retry.NewFaultClassifier(c.Retry.RetryableFaults); err != nil {
		errs = append(errs, err)
	}
	if tol := c.Visual.DefaultTolerancePercent; tol < 0 || tol > 100 {
		errs = append(errs, fmt.Errorf("visual.default_tolerance_percent must be within 0..100, got %g", tol))
	}
	if strings.TrimSpace(c.Visual.BaselineRoot) == "" {
		errs = append(errs, errors.New("visual.baseline_root cannot be empty"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// GetBrowserTimeout returns the parsed per-action browser timeout
func (c *Config) GetBrowserTimeout() time.Duration {
	return parseDuration(c.Browser.Timeout, 30*time.Second)
}

// GetInitialDelay returns the parsed initial retry delay
func (c *Config) GetInitialDelay() time.Duration {
	return parseDuration(c.Retry.InitialDelay, retry.DefaultInitialDelay)
}

// GetMaxDelay returns the parsed retry delay cap; zero disables it
func (c *Config) GetMaxDelay() time.Duration {
	return parseDuration(c.Retry.MaxDelay, retry.DefaultMaxDelay)
}

// RetryPolicy builds the executor policy from the retry section
func (c *Config) RetryPolicy() (retry.Policy, error) {
	classifier, err := retry.NewFaultClassifier(c.Retry.RetryableFaults)
	if err != nil {
		return retry.Policy{}, err
	}
	return retry.Policy{
		MaxAttempts:  c.Retry.MaxAttempts,
		InitialDelay: c.GetInitialDelay(),
		MaxDelay:     c.GetMaxDelay(),
		RetryOn:      classifier,
	}, nil
}

// EngineConfig converts the visual section into engine settings
func (c *Config) EngineConfig() visual.Config {
	return visual.Config{
		BaselineRoot:                    c.Visual.BaselineRoot,
		AutoCreateBaselineIfMissing:     c.Visual.AutoCreateBaselineIfMissing,
		WarnOnAutomaticBaselineCreation: c.Visual.WarnOnAutomaticBaselineCreation,
		DefaultTolerancePercent:         c.Visual.DefaultTolerancePercent,
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}

func isBrowser(name string) bool {
	for _, b := range Browsers {
		if b == name {
			return true
		}
	}
	return false
}
