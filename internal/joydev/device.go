// Package joydev reads the Linux joystick interface (/dev/input/jsN).
//
// A Device is opened once and reused for the life of the process. The
// caller polls with Wait and, when it reports ready, pulls exactly one
// record with ReadEvent.
package joydev

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	// ErrShortRead is returned when the device yields less than one full js_event.
	ErrShortRead = errors.New("joydev: short read")
	// ErrTooFewAxes is returned by Info for devices exposing fewer than two axes.
	ErrTooFewAxes = errors.New("joydev: device has fewer than two axes")
)

// DefaultName is reported when the driver does not answer JSIOCGNAME.
const DefaultName = "Pedals"

type Device struct {
	f    *os.File
	fd   int
	path string
	buf  [EventSize]byte
}

// Open opens path read-only.
func Open(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return NewDevice(f), nil
}

// NewDevice wraps an already open file. The file is switched to blocking
// mode; Wait is what bounds the time spent in ReadEvent.
func NewDevice(f *os.File) *Device {
	return &Device{f: f, fd: int(f.Fd()), path: f.Name()}
}

func (d *Device) Path() string { return d.path }

func (d *Device) Close() error { return d.f.Close() }

// Wait blocks until an event is readable or timeout elapses. An
// interrupted poll is reported as a timeout.
func (d *Device) Wait(timeout time.Duration) (bool, error) {
	pfd := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, fmt.Errorf("poll %s: %w", d.path, err)
	}
	if n == 0 {
		return false, nil
	}
	if pfd[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("poll %s: revents=%#x", d.path, pfd[0].Revents)
	}
	// POLLHUP with no POLLIN still goes to ReadEvent, which reports the short read.
	return true, nil
}

// ReadEvent reads exactly one js_event.
func (d *Device) ReadEvent() (Event, error) {
	n, err := unix.Read(d.fd, d.buf[:])
	if err != nil {
		return Event{}, fmt.Errorf("read %s: %w", d.path, err)
	}
	if n != EventSize {
		return Event{}, fmt.Errorf("read %s: %w: got %d of %d bytes", d.path, ErrShortRead, n, EventSize)
	}
	return DecodeEvent(d.buf[:])
}

// Info describes the device as reported by the JSIOCG* ioctls.
type Info struct {
	Version   uint32
	Name      string
	Axes      int
	Buttons   int
	AxisMap   []uint8
	ButtonMap []uint16
}

func (i Info) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", i.Version>>16, (i.Version>>8)&0xff, i.Version&0xff)
}

// AxisNames lists the display names of the mapped axes in index order.
func (i Info) AxisNames() []string {
	out := make([]string, 0, i.Axes)
	for n := 0; n < i.Axes && n < len(i.AxisMap); n++ {
		out = append(out, AxisName(i.AxisMap[n]))
	}
	return out
}

// ButtonNames lists the display names of the mapped buttons in index order.
func (i Info) ButtonNames() []string {
	out := make([]string, 0, i.Buttons)
	for n := 0; n < i.Buttons && n < len(i.ButtonMap); n++ {
		out = append(out, ButtonName(i.ButtonMap[n]))
	}
	return out
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Driver version is %s.\n", i.VersionString())
	fmt.Fprintf(&b, "Joystick (%s) has %d axes (%s)\n", i.Name, i.Axes, strings.Join(i.AxisNames(), ", "))
	fmt.Fprintf(&b, "and %d buttons (%s).", i.Buttons, strings.Join(i.ButtonNames(), ", "))
	return b.String()
}

func (d *Device) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Info queries the driver. Version, axis and button counts are required;
// the name and the maps are best effort.
func (d *Device) Info() (Info, error) {
	var (
		version uint32
		axes    uint8
		buttons uint8
		name    [nameLimit]byte
		axmap   [absCount]uint8
		btnmap  [btnCount]uint16
	)
	if err := d.ioctl(jsiocgVersion, unsafe.Pointer(&version)); err != nil {
		return Info{}, fmt.Errorf("JSIOCGVERSION %s: %w", d.path, err)
	}
	if err := d.ioctl(jsiocgAxes, unsafe.Pointer(&axes)); err != nil {
		return Info{}, fmt.Errorf("JSIOCGAXES %s: %w", d.path, err)
	}
	if err := d.ioctl(jsiocgButtons, unsafe.Pointer(&buttons)); err != nil {
		return Info{}, fmt.Errorf("JSIOCGBUTTONS %s: %w", d.path, err)
	}

	info := Info{Version: version, Axes: int(axes), Buttons: int(buttons), Name: DefaultName}
	if err := d.ioctl(jsiocgName, unsafe.Pointer(&name[0])); err == nil {
		raw := name[:]
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		if len(raw) > 0 {
			info.Name = string(raw)
		}
	}
	if err := d.ioctl(jsiocgAxmap, unsafe.Pointer(&axmap[0])); err == nil {
		info.AxisMap = append([]uint8(nil), axmap[:min(info.Axes, absCount)]...)
	}
	if err := d.ioctl(jsiocgBtnmap, unsafe.Pointer(&btnmap[0])); err == nil {
		info.ButtonMap = append([]uint16(nil), btnmap[:info.Buttons]...)
	}

	if info.Axes < 2 {
		return info, fmt.Errorf("%s: %w (%d)", d.path, ErrTooFewAxes, info.Axes)
	}
	return info, nil
}
