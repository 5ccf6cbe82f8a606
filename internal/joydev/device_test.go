package joydev

import (
	"os"
	"testing"
	"time"

	"github.com/0xcafed00d/joystick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A pipe polls and reads like the character device for these purposes.
func pipeDevice(t *testing.T) (*Device, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	d := NewDevice(r)
	t.Cleanup(func() {
		d.Close()
		w.Close()
	})
	return d, w
}

func TestWaitTimesOut(t *testing.T) {
	d, _ := pipeDevice(t)

	start := time.Now()
	ready, err := d.Wait(50 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitAndRead(t *testing.T) {
	d, w := pipeDevice(t)

	_, err := w.Write(append(rawEvent(7, -300, typeAxis, 1), rawEvent(8, 1, typeButton, 0)...))
	require.NoError(t, err)

	ready, err := d.Wait(time.Second)
	require.NoError(t, err)
	require.True(t, ready)

	ev, err := d.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, Event{Time: 7, Value: -300, Type: typeAxis, Number: 1}, ev)

	// Second record is still queued.
	ready, err = d.Wait(time.Second)
	require.NoError(t, err)
	require.True(t, ready)
	ev, err = d.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, KindButton, ev.Kind())
}

func TestReadEventShort(t *testing.T) {
	d, w := pipeDevice(t)

	_, err := w.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	ready, err := d.Wait(time.Second)
	require.NoError(t, err)
	require.True(t, ready)

	_, err = d.ReadEvent()
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestReadEventEOF(t *testing.T) {
	d, w := pipeDevice(t)
	require.NoError(t, w.Close())

	ready, err := d.Wait(time.Second)
	require.NoError(t, err)
	require.True(t, ready)

	_, err = d.ReadEvent()
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open("/nonexistent/js0")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInfoOnNonJoystick(t *testing.T) {
	d, _ := pipeDevice(t)
	_, err := d.Info()
	assert.Error(t, err)
}

func TestParseProcDevices(t *testing.T) {
	proc := `I: Bus=0003 Vendor=1a86 Product=e026 Version=0110
N: Name="HID 1a86:e026"
H: Handlers=event11 js0

I: Bus=0011 Vendor=0001 Product=0001 Version=ab41
N: Name="AT Translated Set 2 keyboard"
H: Handlers=sysrq kbd event0 leds
`
	devs := parseProcDevices(proc)
	require.Len(t, devs, 2)
	assert.Equal(t, "HID 1a86:e026", devs[0].Name)
	assert.Equal(t, "js0", devs[0].JoystickHandler())
	assert.Equal(t, "", devs[1].JoystickHandler())
}

type fakeJoystick struct{ name string }

func (f fakeJoystick) AxisCount() int { return 2 }
func (f fakeJoystick) ButtonCount() int { return 0 }
func (f fakeJoystick) Name() string { return f.name }
func (f fakeJoystick) Read() (joystick.State, error) { return joystick.State{}, nil }
func (f fakeJoystick) Close() {}

func TestList(t *testing.T) {
	orig := opener
	t.Cleanup(func() { opener = orig })
	opener = func(id int) (joystick.Joystick, error) {
		if id == 1 {
			return fakeJoystick{name: "Pedals"}, nil
		}
		return nil, os.ErrNotExist
	}

	got := List(4)
	assert.Equal(t, []Joystick{{Path: "/dev/input/js1", Name: "Pedals", Axes: 2, Buttons: 0}}, got)
}
