package joydev

// Device enumeration for the `devices` command.
//
// Joysticks show up twice: as /dev/input/jsN (probed through the joystick
// library) and as blocks in /proc/bus/input/devices with a jsN handler.

import (
	"fmt"
	"os"
	"strings"

	"github.com/0xcafed00d/joystick"
)

// Joystick summarizes one openable /dev/input/jsN node.
type Joystick struct {
	Path    string
	Name    string
	Axes    int
	Buttons int
}

// opener matches joystick.Open; swapped in tests.
var opener = joystick.Open

// List probes js0 .. js(limit-1) and returns the ones that open.
func List(limit int) []Joystick {
	var out []Joystick
	for id := 0; id < limit; id++ {
		js, err := opener(id)
		if err != nil {
			continue
		}
		out = append(out, Joystick{
			Path:    fmt.Sprintf("/dev/input/js%d", id),
			Name:    js.Name(),
			Axes:    js.AxisCount(),
			Buttons: js.ButtonCount(),
		})
		js.Close()
	}
	return out
}

// InputDevice is one block of /proc/bus/input/devices.
type InputDevice struct {
	Name     string
	Handlers []string
}

// JoystickHandler returns the jsN handler name, if any.
func (d InputDevice) JoystickHandler() string {
	for _, h := range d.Handlers {
		if strings.HasPrefix(h, "js") {
			return h
		}
	}
	return ""
}

// ListProc reads /proc/bus/input/devices and keeps the joystick entries.
func ListProc() ([]InputDevice, error) {
	b, err := os.ReadFile("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	var out []InputDevice
	for _, d := range parseProcDevices(string(b)) {
		if d.JoystickHandler() != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

func parseProcDevices(s string) []InputDevice {
	var out []InputDevice
	for _, blk := range strings.Split(s, "\n\n") {
		info := InputDevice{}
		for _, line := range strings.Split(blk, "\n") {
			if strings.HasPrefix(line, "N: Name=") {
				parts := strings.SplitN(line, "=", 2)
				if len(parts) == 2 {
					info.Name = strings.Trim(parts[1], " \"")
				}
			}
			if strings.HasPrefix(line, "H: Handlers=") {
				parts := strings.SplitN(line, "=", 2)
				if len(parts) == 2 {
					info.Handlers = strings.Fields(parts[1])
				}
			}
		}
		if info.Name != "" || len(info.Handlers) > 0 {
			out = append(out, info)
		}
	}
	return out
}
