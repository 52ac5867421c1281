package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t, "--config", writeConfig(t, "")))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, AuthTypeNone, cfg.Client.AuthType)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
client:
  timeout: 10s
  rate_limit: 2.5
  rate_burst: 3
  auth_type: bearer
  auth_config:
    token: abc
  headers:
    X-Env: test
`)

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 2.5, cfg.Client.RateLimit)
	assert.Equal(t, 3, cfg.Client.RateBurst)
	assert.Equal(t, AuthTypeBearer, cfg.Client.AuthType)
	assert.Equal(t, "abc", cfg.Client.AuthConfig["token"])
	// viper lower-cases keys; HTTP header names are case-insensitive
	assert.Equal(t, "test", cfg.Client.Headers["x-env"])
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\nclient:\n  timeout: 10s\n")

	cfg, err := Load(newFlags(t, "--config", path, "--log-level", "error", "--timeout", "2s"))
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Client.Timeout)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("NETCALL_LOGGING_LEVEL", "info")
	t.Setenv("NETCALL_CLIENT_AUTH_TYPE", "basic")

	cfg, err := Load(newFlags(t, "--config", writeConfig(t, "")))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, AuthTypeBasic, cfg.Client.AuthType)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "Unsupported Auth", content: "client:\n  auth_type: oauth\n"},
		{name: "Malformed", content: "client: [\n"},
		{name: "Bad Duration", content: "client:\n  timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, "--config", writeConfig(t, tt.content)))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Client.RateLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Client.Timeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestGetVersionInfo(t *testing.T) {
	assert.Contains(t, GetVersionInfo(), "netcall version dev")
}
