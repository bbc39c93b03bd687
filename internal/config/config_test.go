package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LoadConfig works on the global viper instance, so every test starts from a
// clean slate.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://httpbin.org/get", cfg.Probe.EchoURL)
	assert.Equal(t, "https://api.ipify.org", cfg.Probe.HTTPSURL)
	assert.Equal(t, "zen.spamhaus.org", cfg.Probe.DNSBLZone)
	assert.Equal(t, "8.8.8.8:80", cfg.Probe.SOCKS4Target)
	assert.Equal(t, 15*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 10, cfg.Checker.MaxWorkers)
	assert.True(t, cfg.Geo.CacheEnabled)
	assert.Equal(t, 168*time.Hour, cfg.Database.MaxAge)
	assert.Equal(t, ":8089", cfg.Judge.ListenAddr)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("PROXYPROBE_CHECKER_MAX_WORKERS", "33")
	t.Setenv("PROXYPROBE_OUTPUT_FORMAT", "json")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 33, cfg.Checker.MaxWorkers)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadConfigFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
probe:
  timeout: 30s
  echo_url: http://judge.internal:8089/get
checker:
  max_workers: 50
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, "http://judge.internal:8089/get", cfg.Probe.EchoURL)
	assert.Equal(t, 50, cfg.Checker.MaxWorkers)
	// Unset keys keep their defaults.
	assert.Equal(t, "zen.spamhaus.org", cfg.Probe.DNSBLZone)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad output format", "output:\n  format: xml\n"},
		{"zero workers", "checker:\n  max_workers: 0\n"},
		{"socks4 target missing port", "probe:\n  socks4_target: 8.8.8.8\n"},
		{"geo url without placeholder", "geo:\n  api_url: http://ip-api.com/json/\n"},
		{"timeout below minimum", "probe:\n  timeout: 10ms\n"},
		{"bad log level", "log:\n  level: loud\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resetViper(t)

			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))

			_, err := LoadConfig(path)
			assert.ErrorContains(t, err, "validation")
		})
	}
}

func TestSaveConfigTemplate(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfigTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echo_url")
	assert.Contains(t, string(data), "max_workers")

	// The template is generated once; an existing file is not clobbered.
	assert.Error(t, SaveConfigTemplate(path))

	// The generated template loads back cleanly.
	viper.Reset()
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Checker.MaxWorkers)
}
