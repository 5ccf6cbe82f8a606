// Command pedalproxy samples a two-axis pedal unit on the Linux joystick
// interface and streams its state to one TCP client at a time.
//
// Code is split across:
// - root.go: cobra root, config + logger setup shared by subcommands
// - serve.go: the proxy itself (default command)
// - dump.go: print decoded device events
// - devices.go: list joystick devices
// - relay.go: forward a proxy stream to a WebSocket
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(newApp())
	root.SetArgs(defaultArgs(os.Args[1:]))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// defaultArgs runs serve when no subcommand is named, so bare flags such
// as `pedalproxy --device /dev/input/js1` reach the serve command.
func defaultArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"serve"}
	}
	switch args[0] {
	case "-h", "--help":
		return args
	}
	if strings.HasPrefix(args[0], "-") {
		return append([]string{"serve"}, args...)
	}
	return args
}
