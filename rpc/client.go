package rpc

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-jsonrpc2/tcp/log"
)

type clientState int

const (
	clientInitializing clientState = iota
	clientConnected
	clientDisconnected
)

// errClientClosed marks a deliberate Close, as opposed to a transport
// failure or peer-initiated reset.
var errClientClosed = errors.New("rpc: client closed")

type pendingOutcome struct {
	resp *JSONResponse
	err  error
}

type pendingCall struct {
	ch chan pendingOutcome
}

// Client is the per-connection client endpoint handler (spec §4.4). It owns
// one TCP connection end-to-end: Call submits a request and correlates its
// response, by id, against a map of pending calls; a FIFO of ids is kept
// alongside the map purely to drain calls in submission order on teardown
// and to resolve the "no id available" error paths (spec §9 Open Question:
// positional matching is replaced with id-keyed matching here).
type Client struct {
	conn    net.Conn
	codec   *Codec
	timeout time.Duration
	logger  *log.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	state    clientState
	pending  map[string]*pendingCall
	order    []string
	closeErr error
	closed   chan struct{}
}

// NewClient wraps an already-connected net.Conn as a Client and starts its
// background read loop. Callers obtain conn from tcp.Dial (or any other
// connector) and must call Close exactly once when done.
func NewClient(conn net.Conn, framing FramingMode, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		conn:    conn,
		codec:   NewCodec(responseFramer(framing)),
		timeout: timeout,
		logger:  logger,
		state:   clientInitializing,
		pending: make(map[string]*pendingCall),
		closed:  make(chan struct{}),
	}
	c.state = clientConnected
	go c.readLoop()
	runtime.SetFinalizer(c, finalizeClient)
	return c
}

// finalizeClient implements the "destructor requires the terminal state"
// invariant of spec §3: a Client garbage-collected without Close is a
// programming error, surfaced here as best-effort since Go has no
// synchronous destructors to fail loudly at.
func finalizeClient(c *Client) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != clientDisconnected && c.logger != nil {
		c.logger.Errorf("client garbage collected without Close", nil)
	}
}

func (c *Client) logf(level, msg string, fields log.Fields) {
	if c.logger == nil {
		return
	}
	if level == "error" {
		c.logger.Errorf(msg, fields)
	} else {
		c.logger.Infof(msg, fields)
	}
}

// Call sends method/params as a request and blocks until the correlated
// response arrives, the connection is closed, or the write itself fails.
//
// ctx is accepted for signature consistency and future tracing use, but
// per spec §5 there is no support for caller-initiated cancellation of a
// pending call: Call does not return early when ctx is done.
func (c *Client) Call(ctx context.Context, method string, params RPCObject) (Result, error) {
	_ = ctx
	c.mu.Lock()
	if c.state != clientConnected {
		c.mu.Unlock()
		return Result{}, ErrNotReady
	}
	c.mu.Unlock()

	id := uuid.NewString()
	req, err := NewJSONRequest(id, method, params)
	if err != nil {
		return Result{}, err
	}
	data, err := EncodeMessage(req)
	if err != nil {
		return Result{}, err
	}
	framed := c.codec.EncodeFrame(data)

	pc := &pendingCall{ch: make(chan pendingOutcome, 1)}
	c.mu.Lock()
	c.pending[id] = pc
	c.order = append(c.order, id)
	c.mu.Unlock()

	c.writeMu.Lock()
	_, werr := c.conn.Write(framed)
	c.writeMu.Unlock()
	if werr != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.removeOrderLocked(id)
		c.mu.Unlock()
		return Result{}, werr
	}

	select {
	case out := <-pc.ch:
		if out.err != nil {
			return Result{}, out.err
		}
		return resultFromResponse(out.resp), nil
	case <-c.closed:
		c.mu.Lock()
		cerr := c.closeErr
		c.mu.Unlock()
		if cerr == nil {
			cerr = ErrConnectionResetByPeer
		}
		return Result{}, cerr
	}
}

// Close disconnects the client. It is a programming error to call it more
// than once or to omit it; a second call is a harmless no-op.
func (c *Client) Close() error {
	c.teardown(errClientClosed)
	return nil
}

func (c *Client) removeOrderLocked(id string) {
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// deliverByID correlates a fully-decoded response against the pending map
// by its wire id (id-keyed matching, spec §9).
func (c *Client) deliverByID(resp *JSONResponse) {
	c.mu.Lock()
	pc, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
		c.removeOrderLocked(resp.ID)
	}
	c.mu.Unlock()
	if !ok {
		c.logf("error", "response for unknown or already-resolved id, dropping", log.Fields{"id": resp.ID})
		return
	}
	pc.ch <- pendingOutcome{resp: resp}
}

// completeHeadWithSynthetic implements the badJson/notJson tolerance of
// spec §4.4: a frame that failed to decode at all carries no id to
// correlate by, so the head of the FIFO is resolved instead, with a
// synthetic parseError response rather than a raw error -- this lets the
// caller distinguish a malformed response frame from a transport failure
// while still completing the call it most likely belonged to.
func (c *Client) completeHeadWithSynthetic() bool {
	c.mu.Lock()
	if len(c.order) == 0 {
		c.mu.Unlock()
		return false
	}
	id := c.order[0]
	pc := c.pending[id]
	delete(c.pending, id)
	c.order = c.order[1:]
	c.mu.Unlock()
	if pc == nil {
		return false
	}
	pc.ch <- pendingOutcome{resp: NewErrorResponse(id, CodeParseError, "malformed response frame")}
	return true
}

// teardown fails every pending call, in FIFO submission order, with err,
// then closes the connection. It is idempotent.
func (c *Client) teardown(err error) {
	c.mu.Lock()
	if c.state == clientDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = clientDisconnected
	c.closeErr = err
	order := c.order
	pending := c.pending
	c.order = nil
	c.pending = make(map[string]*pendingCall)
	c.mu.Unlock()

	for _, id := range order {
		if pc, ok := pending[id]; ok {
			pc.ch <- pendingOutcome{err: err}
		}
	}
	close(c.closed)
	_ = c.conn.Close()
}

func (c *Client) readLoop() {
	idle := NewIdleReader(c.conn, c.timeout)
	buf := make([]byte, 32*1024)
	for {
		n, err := idle.Read(buf)
		if n > 0 {
			c.codec.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				// The JsonCodec client variant (spec §9) raises notJson
				// rather than a plain timeout when the idle event lands
				// mid-frame: a partial response was read but never
				// completed, as opposed to no bytes at all arriving.
				if c.codec.Pending() {
					c.logf("error", "closing: idle timeout with partial response frame", nil)
					c.teardown(ErrNotJSON)
					return
				}
				c.logf("error", "closing: idle read timeout", nil)
				c.teardown(ErrTimeout)
				return
			}
			if errors.Is(err, io.EOF) {
				c.logf("info", "closing: connection reset by peer", nil)
				c.teardown(ErrConnectionResetByPeer)
				return
			}
			c.logf("error", "closing: transport error", log.Fields{"err": err})
			c.teardown(err)
			return
		}

		for {
			frame, ok, ferr := c.codec.NextFrame()
			if ferr != nil {
				c.logf("error", "closing: framing error", log.Fields{"err": ferr})
				c.teardown(ferr)
				return
			}
			if !ok {
				break
			}
			resp, derr := DecodeResponse(frame)
			if derr != nil {
				var badJSON *BadJSONError
				if errors.As(derr, &badJSON) {
					c.completeHeadWithSynthetic()
					continue
				}
				c.logf("error", "closing: undecodable response", log.Fields{"err": derr})
				c.teardown(derr)
				return
			}
			c.deliverByID(resp)
		}
	}
}
