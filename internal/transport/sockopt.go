package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr is a net.ListenConfig.Control callback that sets
// SO_REUSEADDR before bind, so a restarted reader can rebind the same
// TCP address immediately (§4.3).
func setReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
