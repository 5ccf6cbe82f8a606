package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pedalproxy/internal/joydev"
)

func newDevicesCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List joystick devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, js := range joydev.List(limit) {
				fmt.Fprintf(out, "%s name=%q axes=%d buttons=%d\n", js.Path, js.Name, js.Axes, js.Buttons)
			}
			procs, err := joydev.ListProc()
			if err != nil {
				a.log.Warn().Err(err).Msg("cannot read input device list")
				return nil
			}
			for _, d := range procs {
				fmt.Fprintf(out, "/dev/input/%s name=%q handlers=%v\n", d.JoystickHandler(), d.Name, d.Handlers)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", 8, "probe /dev/input/js0 .. js<max-1>")
	return cmd
}
