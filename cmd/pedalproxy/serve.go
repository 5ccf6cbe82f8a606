package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pedalproxy/internal/config"
	"pedalproxy/internal/joydev"
	"pedalproxy/internal/metrics"
	"pedalproxy/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pedal proxy (default)",
		RunE:  a.serve,
	}
	f := cmd.Flags()
	f.String(config.KeyDevice, "/dev/input/js0", "joystick device path")
	f.String(config.KeyListen, server.DefaultAddr, "TCP listen address")
	f.Duration(config.KeyRetryDelay, server.DefaultRetryDelay, "wait after a teardown before listening again")
	f.Duration(config.KeyWaitTimeout, server.DefaultWaitTimeout, "device poll timeout")
	f.String(config.KeySendPolicy, "any", "which events send a record: any|axes")
	f.String(config.KeyMetricsAddr, "", "serve prometheus /metrics on this address (disabled if empty)")
	return cmd
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// A write to a closed peer must come back as EPIPE, not kill the process.
	signal.Ignore(syscall.SIGPIPE)

	dev, err := joydev.Open(a.cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()

	info, err := dev.Info()
	if err != nil {
		return err
	}
	a.log.Info().
		Str("device", dev.Path()).
		Str("driver", info.VersionString()).
		Str("name", info.Name).
		Int("axes", info.Axes).
		Strs("axis_names", info.AxisNames()).
		Int("buttons", info.Buttons).
		Strs("button_names", info.ButtonNames()).
		Msg("joystick ready")

	policy, err := server.ParseSendPolicy(a.cfg.SendPolicy)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if a.cfg.MetricsAddr != "" {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, a.cfg.MetricsAddr, a.log); err != nil {
				a.log.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	loop := server.New(dev, server.Options{
		Addr:        a.cfg.Listen,
		RetryDelay:  a.cfg.RetryDelay,
		WaitTimeout: a.cfg.WaitTimeout,
		SendPolicy:  policy,
		Logger:      a.log,
		Metrics:     m,
	})
	a.log.Info().
		Str("listen", a.cfg.Listen).
		Stringer("send_policy", policy).
		Stringer("retry_delay", a.cfg.RetryDelay).
		Msg("working (interrupt to exit)")
	return loop.Run(ctx)
}
