package server

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenTCP4 binds an IPv4 listening socket with an explicit backlog.
// net.Listen always uses the system maximum, so the socket is built by
// hand and handed to the runtime poller afterwards.
func listenTCP4(addr string, backlog int) (net.Listener, error) {
	ta, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, err
	}
	sa := &unix.SockaddrInet4{Port: ta.Port}
	if ip4 := ta.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	} else if ta.IP != nil && !ta.IP.IsUnspecified() {
		return nil, fmt.Errorf("listen %s: not an IPv4 address", addr)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	// FileListener dups the descriptor; the original is released here.
	f := os.NewFile(uintptr(fd), "tcp4:"+addr)
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}
