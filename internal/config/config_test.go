package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "/dev/input/js0", cfg.Device)
	assert.Equal(t, "0.0.0.0:10987", cfg.Listen)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, time.Second, cfg.WaitTimeout)
	assert.Equal(t, "any", cfg.SendPolicy)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.Equal(t, 2*time.Second, cfg.Relay.Ping)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PEDALPROXY_DEVICE", "/dev/input/js3")
	t.Setenv("PEDALPROXY_RETRY_DELAY", "250ms")
	t.Setenv("PEDALPROXY_RELAY_WS", "ws://example:9/ws")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/dev/input/js3", cfg.Device)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "ws://example:9/ws", cfg.Relay.WS)
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Setenv("PEDALPROXY_LISTEN", "127.0.0.1:1")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyListen, "", "")
	require.NoError(t, fs.Parse([]string{"--listen", "127.0.0.1:2"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag(KeyListen, fs.Lookup(KeyListen)))
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2", cfg.Listen)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedalproxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device: /dev/input/js1
send-policy: axes
relay:
  server: 10.0.0.2:10987
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/input/js1", cfg.Device)
	assert.Equal(t, "axes", cfg.SendPolicy)
	assert.Equal(t, "10.0.0.2:10987", cfg.Relay.Server)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PEDALPROXY_SEND_POLICY=axes\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PEDALPROXY_SEND_POLICY") })

	LoadEnvFiles(path)
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "axes", cfg.SendPolicy)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	bad := cfg
	bad.RetryDelay = 0
	bad.SendPolicy = "sometimes"
	bad.Listen = "nope"
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry-delay")
	assert.Contains(t, err.Error(), "send-policy")
	assert.Contains(t, err.Error(), "listen")

	bad = cfg
	bad.Relay.PongTimeout = bad.Relay.Ping
	assert.Error(t, bad.Validate())
}
