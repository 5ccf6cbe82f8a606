package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pedalproxy/internal/config"
	"pedalproxy/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        config.Config
	log        zerolog.Logger
}

func newApp() *app {
	return &app{v: viper.New(), log: zerolog.Nop()}
}

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"server":       config.KeyRelayServer,
	"ws":           config.KeyRelayWS,
	"ping":         config.KeyRelayPing,
	"pong-timeout": config.KeyRelayPongTimeout,
}

// unbound flags are command-local and never reach viper.
var unbound = map[string]bool{"config": true, "help": true, "max": true}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pedalproxy",
		Short: "Stream a pedal unit's state to a single TCP client",
		Long: `pedalproxy reads a two-axis pedal unit from the Linux joystick
interface and pushes a 4-byte state record to one connected TCP client
per device event. Any failure drops the client, waits, and listens again.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "yaml config file")
	pf.String(config.KeyLogLevel, "info", "log level (debug|info|warn|error)")
	pf.String(config.KeyLogFormat, "console", "log format (console|json)")

	root.AddCommand(
		newServeCmd(a),
		newDumpCmd(a),
		newDevicesCmd(a),
		newRelayCmd(a),
	)
	return root
}

// setup runs before every subcommand: .env files, flag binding, config
// validation and the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.LoadEnvFiles()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if unbound[f.Name] || bindErr != nil {
			return
		}
		key := f.Name
		if k, ok := flagKeys[f.Name]; ok {
			key = k
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}
