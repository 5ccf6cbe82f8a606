package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pedalproxy/internal/config"
	"pedalproxy/internal/joydev"
	"pedalproxy/internal/pedal"
)

func newDumpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print decoded device events and the resulting pedal state",
		RunE:  a.dump,
	}
	f := cmd.Flags()
	f.String(config.KeyDevice, "/dev/input/js0", "joystick device path")
	f.Duration(config.KeyWaitTimeout, time.Second, "device poll timeout")
	return cmd
}

func (a *app) dump(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	dev, err := joydev.Open(a.cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()

	info, err := dev.Info()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, info)

	var st pedal.State
	for ctx.Err() == nil {
		ready, err := dev.Wait(a.cfg.WaitTimeout)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}
		ev, err := dev.ReadEvent()
		if err != nil {
			return err
		}
		st.Apply(ev)
		fmt.Fprintf(out, "%s state=%s\n", ev, st)
	}
	return nil
}
