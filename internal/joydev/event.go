package joydev

// Joystick interface plumbing:
// - js_event record layout (linux/joystick.h)
// - ioctl request encoding for the JSIOCG* capability queries

import (
	"encoding/binary"
	"fmt"
)

// EventSize is sizeof(struct js_event).
const EventSize = 8

// js_event type bits
const (
	typeButton = 0x01
	typeAxis   = 0x02
	typeInit   = 0x80
)

// Kind is the event class with the init flag masked off.
type Kind uint8

const (
	KindUnknown Kind = 0
	KindButton  Kind = typeButton
	KindAxis    Kind = typeAxis
)

func (k Kind) String() string {
	switch k {
	case KindButton:
		return "button"
	case KindAxis:
		return "axis"
	default:
		return "unknown"
	}
}

// Event is one decoded js_event.
type Event struct {
	Time   uint32 // driver timestamp in ms, opaque
	Value  int16
	Type   uint8
	Number uint8
}

func (e Event) Kind() Kind {
	switch e.Type &^ typeInit {
	case typeButton:
		return KindButton
	case typeAxis:
		return KindAxis
	default:
		return KindUnknown
	}
}

// Init reports whether the driver synthesized this event to describe
// the initial device state.
func (e Event) Init() bool { return e.Type&typeInit != 0 }

func (e Event) String() string {
	suffix := ""
	if e.Init() {
		suffix = "+init"
	}
	return fmt.Sprintf("type=%s%s time=%d number=%d value=%d", e.Kind(), suffix, e.Time, e.Number, e.Value)
}

// DecodeEvent parses one js_event. The kernel writes it in host byte order.
func DecodeEvent(b []byte) (Event, error) {
	if len(b) < EventSize {
		return Event{}, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, len(b), EventSize)
	}
	return Event{
		Time:   binary.NativeEndian.Uint32(b[0:4]),
		Value:  int16(binary.NativeEndian.Uint16(b[4:6])),
		Type:   b[6],
		Number: b[7],
	}, nil
}

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead = 2
)

func ioc(dir uint32, typ uint32, nr uint32, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// Capability map sizes: ABS_CNT and KEY_MAX - BTN_MISC + 1.
const (
	absCount  = 0x40
	btnMisc   = 0x100
	keyMax    = 0x2ff
	btnCount  = keyMax - btnMisc + 1
	nameLimit = 128
)

var (
	jsiocgVersion = ioc(iocRead, 'j', 0x01, 4)
	jsiocgAxes    = ioc(iocRead, 'j', 0x11, 1)
	jsiocgButtons = ioc(iocRead, 'j', 0x12, 1)
	jsiocgName    = ioc(iocRead, 'j', 0x13, nameLimit)
	jsiocgAxmap   = ioc(iocRead, 'j', 0x32, absCount)
	jsiocgBtnmap  = ioc(iocRead, 'j', 0x34, btnCount*2)
)
