// Package config resolves runtime settings from flags, PEDALPROXY_*
// environment variables, .env files and an optional yaml file.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PEDALPROXY_DEVICE.
const EnvPrefix = "PEDALPROXY"

// Keys shared by flags, env and config file.
const (
	KeyDevice      = "device"
	KeyListen      = "listen"
	KeyRetryDelay  = "retry-delay"
	KeyWaitTimeout = "wait-timeout"
	KeySendPolicy  = "send-policy"
	KeyMetricsAddr = "metrics-addr"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"

	KeyRelayServer      = "relay.server"
	KeyRelayWS          = "relay.ws"
	KeyRelayPing        = "relay.ping"
	KeyRelayPongTimeout = "relay.pong-timeout"
)

type Config struct {
	Device      string
	Listen      string
	RetryDelay  time.Duration
	WaitTimeout time.Duration
	SendPolicy  string
	MetricsAddr string
	LogLevel    string
	LogFormat   string

	Relay RelayConfig
}

type RelayConfig struct {
	Server      string
	WS          string
	Ping        time.Duration
	PongTimeout time.Duration
}

// SetDefaults installs the built-in values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDevice, "/dev/input/js0")
	v.SetDefault(KeyListen, "0.0.0.0:10987")
	v.SetDefault(KeyRetryDelay, 5*time.Second)
	v.SetDefault(KeyWaitTimeout, time.Second)
	v.SetDefault(KeySendPolicy, "any")
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")

	v.SetDefault(KeyRelayServer, "127.0.0.1:10987")
	v.SetDefault(KeyRelayWS, "ws://127.0.0.1:8000/ws/pedals")
	v.SetDefault(KeyRelayPing, 2*time.Second)
	v.SetDefault(KeyRelayPongTimeout, 8*time.Second)
}

// LoadEnvFiles loads .env then .env.local. Missing files are ignored and
// variables already set in the environment win.
func LoadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads configFile (if set) and the environment into v and returns
// the validated result. Flags must already be bound to v.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		Device:      v.GetString(KeyDevice),
		Listen:      v.GetString(KeyListen),
		RetryDelay:  v.GetDuration(KeyRetryDelay),
		WaitTimeout: v.GetDuration(KeyWaitTimeout),
		SendPolicy:  v.GetString(KeySendPolicy),
		MetricsAddr: v.GetString(KeyMetricsAddr),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		Relay: RelayConfig{
			Server:      v.GetString(KeyRelayServer),
			WS:          v.GetString(KeyRelayWS),
			Ping:        v.GetDuration(KeyRelayPing),
			PongTimeout: v.GetDuration(KeyRelayPongTimeout),
		},
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Device == "" {
		errs = append(errs, errors.New("device must not be empty"))
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen %q: %w", c.Listen, err))
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry-delay must be positive, got %s", c.RetryDelay))
	}
	if c.WaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("wait-timeout must be positive, got %s", c.WaitTimeout))
	}
	switch strings.ToLower(c.SendPolicy) {
	case "any", "axes":
	default:
		errs = append(errs, fmt.Errorf("send-policy %q: want any or axes", c.SendPolicy))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log-format %q: want console or json", c.LogFormat))
	}
	if c.Relay.Ping <= 0 || c.Relay.PongTimeout <= c.Relay.Ping {
		errs = append(errs, fmt.Errorf("relay.pong-timeout (%s) must exceed relay.ping (%s)", c.Relay.PongTimeout, c.Relay.Ping))
	}
	return errors.Join(errs...)
}
