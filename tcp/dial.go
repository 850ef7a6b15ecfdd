package tcp

import (
	"context"
	"net"
	"time"

	"github.com/go-jsonrpc2/tcp/log"
	"github.com/go-jsonrpc2/tcp/rpc"
)

// Dial connects to addr and wraps the resulting connection as an
// rpc.Client. timeout is the client's read-idle timeout (spec §5); zero
// selects rpc.DefaultTimeout.
func Dial(ctx context.Context, addr string, framing rpc.FramingMode, timeout time.Duration, logger *log.Logger) (*rpc.Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return rpc.NewClient(conn, framing, timeout, logger), nil
}
