// Package pedal holds the two-pedal state record, the rule that folds
// joystick events into it, and its 4-byte wire encoding.
package pedal

import (
	"encoding/binary"
	"fmt"
	"io"

	"pedalproxy/internal/joydev"
)

// RecordSize is the length of one encoded State on the wire.
const RecordSize = 4

// State is the last known position of both pedals.
type State struct {
	Primary   uint16
	Secondary uint16
}

// Apply folds ev into s. Only indices 0 and 1 are meaningful; anything
// else leaves s untouched and Apply reports false. Only travel below
// the axis center counts: non-positive values become their magnitude,
// positive values collapse to zero.
func (s *State) Apply(ev joydev.Event) bool {
	switch ev.Number {
	case 0:
		s.Primary = depression(ev.Value)
	case 1:
		s.Secondary = depression(ev.Value)
	default:
		return false
	}
	return true
}

func depression(v int16) uint16 {
	if v > 0 {
		return 0
	}
	// -(-32768) does not fit int16.
	return uint16(-int32(v))
}

func (s State) String() string {
	return fmt.Sprintf("(%d,%d)", s.Primary, s.Secondary)
}

// AppendBinary appends the wire record: Primary then Secondary, each a
// uint16 in host byte order.
func (s State) AppendBinary(b []byte) ([]byte, error) {
	b = binary.NativeEndian.AppendUint16(b, s.Primary)
	b = binary.NativeEndian.AppendUint16(b, s.Secondary)
	return b, nil
}

func (s State) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, RecordSize))
}

func (s *State) UnmarshalBinary(b []byte) error {
	if len(b) != RecordSize {
		return fmt.Errorf("pedal: record is %d bytes, want %d", len(b), RecordSize)
	}
	s.Primary = binary.NativeEndian.Uint16(b[0:2])
	s.Secondary = binary.NativeEndian.Uint16(b[2:4])
	return nil
}

// ReadState reads one record from r.
func ReadState(r io.Reader) (State, error) {
	var buf [RecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return State{}, err
	}
	var s State
	err := s.UnmarshalBinary(buf[:])
	return s, err
}
