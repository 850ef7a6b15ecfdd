package rpc

import (
	"errors"
	"net"
	"time"
)

// IdleReader wraps a net.Conn so that every Read resets a read-idle
// deadline: the timer tracks inbound bytes, not frame completion (spec
// §5). A Read that hits the deadline returns ErrTimeout instead of the
// underlying deadline-exceeded error.
type IdleReader struct {
	conn    net.Conn
	timeout time.Duration
}

// NewIdleReader returns a reader that fails with ErrTimeout after timeout
// elapses with no inbound bytes on conn.
func NewIdleReader(conn net.Conn, timeout time.Duration) *IdleReader {
	return &IdleReader{conn: conn, timeout: timeout}
}

func (r *IdleReader) Read(p []byte) (int, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
		return 0, err
	}
	n, err := r.conn.Read(p)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return n, ErrTimeout
		}
		return n, err
	}
	return n, nil
}
