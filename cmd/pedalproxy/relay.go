package main

import (
	"time"

	"github.com/spf13/cobra"

	"pedalproxy/internal/relay"
)

func newRelayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Forward a proxy's pedal stream to a WebSocket as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := relay.New(relay.Config{
				Server:   a.cfg.Relay.Server,
				WSURL:    a.cfg.Relay.WS,
				Ping:     a.cfg.Relay.Ping,
				PongWait: a.cfg.Relay.PongTimeout,
				Logger:   a.log,
			})
			return r.Run(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("server", "127.0.0.1:10987", "pedal proxy address")
	f.String("ws", "ws://127.0.0.1:8000/ws/pedals", "WebSocket URL to publish to")
	f.Duration("ping", 2*time.Second, "WebSocket ping interval")
	f.Duration("pong-timeout", 8*time.Second, "reconnect if no pong arrives in this window")
	return cmd
}
