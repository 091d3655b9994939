package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Unmarshal(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/", cfg.Target.BaseURL)
	assert.Equal(t, "chromium", cfg.Browser.Engine)
	assert.Equal(t, "iPhone 11", cfg.Browser.Device)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Loading)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.ListView)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.ChatView)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.BackToList)
	assert.Equal(t, "jules-scratch/verification", cfg.Output.Dir)
	assert.False(t, cfg.Strict)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.OutputPaths)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("UIVERIFY_TARGET_BASE_URL", "http://127.0.0.1:4173/")
	t.Setenv("UIVERIFY_TIMEOUTS_LOADING", "2s")
	t.Setenv("UIVERIFY_STRICT", "true")

	cfg, err := Unmarshal(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:4173/", cfg.Target.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Loading)
	assert.True(t, cfg.Strict)
}

func TestLoad(t *testing.T) {
	t.Run("Load valid YAML config file", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "uiverify.yaml")
		configContent := `
target:
  base_url: http://archive.local:8080/
browser:
  device: Pixel 5
  headless: false
timeouts:
  chat_view: 20s
output:
  dir: artifacts
`
		require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0o644))

		cfg, err := Load(NewViper(), configFile)
		require.NoError(t, err)

		assert.Equal(t, "http://archive.local:8080/", cfg.Target.BaseURL)
		assert.Equal(t, "Pixel 5", cfg.Browser.Device)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 20*time.Second, cfg.Timeouts.ChatView)
		assert.Equal(t, 15*time.Second, cfg.Timeouts.ListView, "unset keys keep defaults")
		assert.Equal(t, "artifacts", cfg.Output.Dir)
	})

	t.Run("Error on non-existent file", func(t *testing.T) {
		_, err := Load(NewViper(), "/non/existent/uiverify.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("Error on invalid YAML", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("target:\n  base_url: [oops\n"), 0o644))

		_, err := Load(NewViper(), configFile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Unmarshal(NewViper())
		require.NoError(t, err)
		return cfg
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"relative base url", func(c *Config) { c.Target.BaseURL = "/chat" }, "absolute http(s) URL"},
		{"unsupported scheme", func(c *Config) { c.Target.BaseURL = "file:///tmp/index.html" }, "absolute http(s) URL"},
		{"unknown engine", func(c *Config) { c.Browser.Engine = "netscape" }, "browser.engine"},
		{"empty device", func(c *Config) { c.Browser.Device = "" }, "browser.device"},
		{"blank device", func(c *Config) { c.Browser.Device = "   " }, "browser.device"},
		{"negative slow mo", func(c *Config) { c.Browser.SlowMo = -1 }, "slow_mo"},
		{"zero timeout", func(c *Config) { c.Timeouts.ChatView = 0 }, "timeouts.chat_view"},
		{"empty output dir", func(c *Config) { c.Output.Dir = "  " }, "output.dir"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestArtifactPath(t *testing.T) {
	out := OutputConfig{Dir: "jules-scratch/verification"}
	assert.Equal(t, filepath.Join("jules-scratch", "verification", "error.png"), out.ArtifactPath("error.png"))
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# comment
UIVERIFY_DOTENV_PLAIN=plain
export UIVERIFY_DOTENV_EXPORTED="quoted value"
UIVERIFY_DOTENV_PRESET=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("UIVERIFY_DOTENV_PRESET", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("UIVERIFY_DOTENV_PLAIN")
		os.Unsetenv("UIVERIFY_DOTENV_EXPORTED")
	})

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "plain", os.Getenv("UIVERIFY_DOTENV_PLAIN"))
	assert.Equal(t, "quoted value", os.Getenv("UIVERIFY_DOTENV_EXPORTED"))
	assert.Equal(t, "from-env", os.Getenv("UIVERIFY_DOTENV_PRESET"))
}
