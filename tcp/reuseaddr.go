//go:build !windows

package tcp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrControl sets SO_REUSEADDR on the listening socket before bind,
// the way other VSock/TCP servers in the reference corpus configure a
// listening fd directly via golang.org/x/sys/unix.SetsockoptInt rather than
// through anything exposed on net.TCPConn (SO_REUSEADDR has no net package
// accessor; it must be set pre-bind on the raw fd).
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
