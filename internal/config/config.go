package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. UIVERIFY_TARGET_BASE_URL.
const EnvPrefix = "UIVERIFY"

// Config represents the verification run configuration
type Config struct {
	Target   TargetConfig   `mapstructure:"target"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Strict   bool           `mapstructure:"strict"`
}

type TargetConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Preflight bool   `mapstructure:"preflight"`
}

type BrowserConfig struct {
	Engine        string `mapstructure:"engine"`
	Device        string `mapstructure:"device"`
	Headless      bool   `mapstructure:"headless"`
	SlowMo        int    `mapstructure:"slow_mo"`
	InstallDriver bool   `mapstructure:"install_driver"`
}

// TimeoutsConfig bounds each wait of the scenario.
type TimeoutsConfig struct {
	Loading    time.Duration `mapstructure:"loading"`
	ListView   time.Duration `mapstructure:"list_view"`
	ChatView   time.Duration `mapstructure:"chat_view"`
	BackToList time.Duration `mapstructure:"back_to_list"`
}

type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Report      bool   `mapstructure:"report"`
	MetricsFile string `mapstructure:"metrics_file"`
}

type LoggingConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// SetDefaults registers the values the fixed verification script used.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("target.base_url", "http://localhost:3000/")
	v.SetDefault("target.preflight", true)

	v.SetDefault("browser.engine", "chromium")
	v.SetDefault("browser.device", "iPhone 11")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo", 0)
	v.SetDefault("browser.install_driver", true)

	v.SetDefault("timeouts.loading", 30*time.Second)
	v.SetDefault("timeouts.list_view", 15*time.Second)
	v.SetDefault("timeouts.chat_view", 10*time.Second)
	v.SetDefault("timeouts.back_to_list", 10*time.Second)

	v.SetDefault("output.dir", "jules-scratch/verification")
	v.SetDefault("output.report", true)
	v.SetDefault("output.metrics_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_paths", []string{"stderr"})

	v.SetDefault("watch.schedule", "@every 5m")
	v.SetDefault("strict", false)
}

// NewViper returns a viper instance with defaults and environment overrides wired.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (optional) into v and returns the validated configuration.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return Unmarshal(v)
}

// Unmarshal decodes and validates the current state of v.
func Unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OnChange watches the loaded config file and hands every successful
// reload to fn. Reload errors are passed through with a nil config.
func OnChange(v *viper.Viper, fn func(*Config, error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(Unmarshal(v))
	})
	v.WatchConfig()
}

// Validate checks the configuration for values the runner cannot work with
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid target.base_url %q: %w", c.Target.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid target.base_url %q: must be an absolute http(s) URL", c.Target.BaseURL)
	}

	switch c.Browser.Engine {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("invalid browser.engine %q: must be chromium, firefox or webkit", c.Browser.Engine)
	}
	if strings.TrimSpace(c.Browser.Device) == "" {
		return fmt.Errorf("browser.device is required")
	}
	if c.Browser.SlowMo < 0 {
		return fmt.Errorf("browser.slow_mo must not be negative")
	}

	for name, d := range map[string]time.Duration{
		"timeouts.loading":      c.Timeouts.Loading,
		"timeouts.list_view":    c.Timeouts.ListView,
		"timeouts.chat_view":    c.Timeouts.ChatView,
		"timeouts.back_to_list": c.Timeouts.BackToList,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}

	return nil
}

// ArtifactPath returns the location of a named artifact inside the output directory.
func (c *OutputConfig) ArtifactPath(name string) string {
	return filepath.Join(c.Dir, name)
}
