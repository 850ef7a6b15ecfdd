//go:build windows

package tcp

import "syscall"

// reuseAddrControl is a no-op on windows: golang.org/x/sys/unix is unix-only,
// and Start still succeeds without SO_REUSEADDR (it only affects how fast a
// restart can rebind a just-closed address).
func reuseAddrControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
