package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (*app, string, error) {
	t.Helper()
	a := newApp()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return a, out.String(), err
}

func TestSubcommands(t *testing.T) {
	root := newRootCmd(newApp())
	for _, name := range []string{"serve", "dump", "devices", "relay"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestDevicesLoadsConfig(t *testing.T) {
	a, _, err := execute(t, "devices", "--max", "0", "--log-format", "json")
	require.NoError(t, err)
	assert.Equal(t, "json", a.cfg.LogFormat)
	assert.Equal(t, "/dev/input/js0", a.cfg.Device)
}

func TestRelayFlagsMapToRelayKeys(t *testing.T) {
	a := newApp()
	root := newRootCmd(a)
	cmd, _, err := root.Find([]string{"relay"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--server", "10.1.1.1:10987", "--ping", "1s", "--pong-timeout", "3s"}))
	require.NoError(t, a.setup(cmd, nil))

	assert.Equal(t, "10.1.1.1:10987", a.cfg.Relay.Server)
	assert.Equal(t, time.Second, a.cfg.Relay.Ping)
	assert.Equal(t, 3*time.Second, a.cfg.Relay.PongTimeout)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "serve", "--retry-delay", "0s", "--device", "/nonexistent/js0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry-delay")
}

func TestServeFailsWithoutDevice(t *testing.T) {
	_, _, err := execute(t, "serve", "--device", "/nonexistent/js0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/js0")
}

func TestDefaultArgs(t *testing.T) {
	assert.Equal(t, []string{"serve"}, defaultArgs(nil))
	assert.Equal(t, []string{"serve", "--device", "/dev/input/js1"}, defaultArgs([]string{"--device", "/dev/input/js1"}))
	assert.Equal(t, []string{"relay", "--ws", "ws://x"}, defaultArgs([]string{"relay", "--ws", "ws://x"}))
	assert.Equal(t, []string{"--help"}, defaultArgs([]string{"--help"}))
}

func TestBareFlagsReachServe(t *testing.T) {
	_, _, err := execute(t, defaultArgs([]string{"--device", "/nonexistent/js1"})...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/js1")
}
