package server

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"pedalproxy/internal/pedal"
)

// ErrPeerClosed marks a write that failed because the client went away.
var ErrPeerClosed = errors.New("server: peer closed connection")

// Session is one accepted client. It is owned by the listener loop and
// is closed on the first write failure.
type Session struct {
	conn net.Conn
	buf  [pedal.RecordSize]byte
	sent int
}

func newSession(conn net.Conn) (*Session, error) {
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			return nil, fmt.Errorf("set TCP_NODELAY: %w", err)
		}
	}
	return &Session{conn: conn}, nil
}

func (s *Session) Peer() net.Addr { return s.conn.RemoteAddr() }

// Sent is the number of records written so far.
func (s *Session) Sent() int { return s.sent }

// Send writes one 4-byte record. There is no write deadline; a client
// that stops reading eventually blocks the loop.
func (s *Session) Send(st pedal.State) error {
	b, _ := st.AppendBinary(s.buf[:0])
	if _, err := s.conn.Write(b); err != nil {
		if errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ECONNRESET) {
			return fmt.Errorf("%w: %w", ErrPeerClosed, err)
		}
		return fmt.Errorf("write: %w", err)
	}
	s.sent++
	return nil
}

func (s *Session) Close() error { return s.conn.Close() }
