package rpc

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-jsonrpc2/tcp/log"
)

// ReplyFunc delivers exactly one reply to the request it was handed for.
// Calling it more than once is a programming error in the handler.
type ReplyFunc func(result RPCObject, failure *RPCError)

// Handler is invoked once per inbound request (spec §4.3). It may call
// reply synchronously or hand it off to another goroutine; the dispatch
// loop does not wait for it before reading the next frame.
type Handler func(ctx context.Context, method string, params RPCObject, reply ReplyFunc)

// Server is the per-connection server endpoint handler: it decodes inbound
// requests, invokes Handler, and writes back the JSONResponse each reply
// produces. One Server value can be reused to serve any number of
// connections concurrently; it holds no per-connection state itself.
type Server struct {
	// Framing selects the wire framer. Zero value is FramingNewline.
	Framing FramingMode
	// Timeout is the inbound-read idle timeout. Zero means DefaultTimeout.
	Timeout time.Duration
	// Handler is invoked for every inbound request. Required.
	Handler Handler
	// Logger receives one line per connection closed on an idle timeout, a
	// transport error or a codec error, and per failed response write; a
	// clean close by the peer is not logged. Nil disables logging.
	Logger *log.Logger
}

func (s *Server) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

func (s *Server) logf(level string, msg string, fields log.Fields) {
	if s.Logger == nil {
		return
	}
	if level == "error" {
		s.Logger.Errorf(msg, fields)
	} else {
		s.Logger.Infof(msg, fields)
	}
}

// Serve runs the dispatch loop for one connection until the connection is
// closed or a fatal codec/transport error occurs. It always returns after
// conn is closed; the in-flight handler goroutines it spawned are not
// awaited (spec §5: stop does not await in-flight handler callbacks).
func (s *Server) Serve(ctx context.Context, conn net.Conn) error {
	codec := NewCodec(requestFramer(s.Framing))
	idle := NewIdleReader(conn, s.timeout())
	var writeMu sync.Mutex

	write := func(resp *JSONResponse) error {
		data, err := EncodeMessage(resp)
		if err != nil {
			return err
		}
		framed := codec.EncodeFrame(data)
		writeMu.Lock()
		defer writeMu.Unlock()
		_, err = conn.Write(framed)
		return err
	}

	closeWith := func(code int64, message string) error {
		writeErr := write(NewErrorResponse(UnknownID, code, message))
		closeErr := conn.Close()
		if writeErr != nil {
			return writeErr
		}
		return closeErr
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := idle.Read(buf)
		if n > 0 {
			codec.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				if codec.Pending() {
					s.logf("error", "connection closed: partial frame at idle timeout", nil)
					return closeWith(CodeParseError, ErrBadFraming.Error())
				}
				s.logf("info", "connection closed: idle timeout", nil)
				return closeWith(CodeInternalError, ErrTimeout.Error())
			}
			if errors.Is(err, io.EOF) {
				_ = conn.Close()
				return nil
			}
			s.logf("error", "connection closed: transport error", log.Fields{"err": err})
			_ = conn.Close()
			return err
		}

		for {
			frame, ok, ferr := codec.NextFrame()
			if ferr != nil {
				s.logf("error", "connection closed: framing error", log.Fields{"err": ferr})
				if errors.Is(ferr, ErrRequestTooLarge) {
					return closeWith(CodeInvalidRequest, ErrRequestTooLarge.Error())
				}
				return closeWith(CodeParseError, ErrBadFraming.Error())
			}
			if !ok {
				break
			}
			req, derr := DecodeRequest(frame)
			if derr != nil {
				s.logf("error", "connection closed: malformed request", log.Fields{"err": derr})
				return closeWith(CodeParseError, derr.Error())
			}
			s.dispatch(ctx, req, write)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req *JSONRequest, write func(*JSONResponse) error) {
	params, err := req.ParamsObject()
	if err != nil {
		_ = write(NewErrorResponse(req.ID, CodeInvalidParams, err.Error()))
		return
	}
	go func() {
		var once sync.Once
		reply := func(result RPCObject, failure *RPCError) {
			once.Do(func() {
				var resp *JSONResponse
				if failure != nil {
					resp = NewErrorResponse(req.ID, codeFromKind(failure.Kind), failure.Description)
				} else {
					r, merr := NewResultResponse(req.ID, result)
					if merr != nil {
						resp = NewErrorResponse(req.ID, CodeInternalError, merr.Error())
					} else {
						resp = r
					}
				}
				if werr := write(resp); werr != nil {
					s.logf("error", "write response failed", log.Fields{"id": req.ID, "err": werr})
				}
			})
		}
		s.Handler(ctx, req.Method, params, reply)
	}()
}

// codeFromKind is the inverse of kindFromCode, used when a handler reports
// a failure the server must encode onto the wire.
func codeFromKind(k ResultKind) int64 {
	switch k {
	case KindInvalidRequest:
		return CodeInvalidRequest
	case KindInvalidMethod:
		return CodeMethodNotFound
	case KindInvalidParams:
		return CodeInvalidParams
	case KindInvalidServerResponse:
		return CodeParseError
	default:
		return CodeInternalError
	}
}
