// Package tcp is the one concrete transport this library ships: a TCP
// acceptor handing each accepted connection to an rpc.Server, and a dialer
// producing an rpc.Client. Raw net.Conn is all either endpoint needs, so
// nothing here is required to use the rpc package against some other
// transport -- this package exists purely as the shipped default, the way
// golang.org/x/tools/internal/lsp.RunServerOnAddress wraps net.Listen
// around the jsonrpc2 package without the jsonrpc2 package depending on it.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/go-jsonrpc2/tcp/log"
	"github.com/go-jsonrpc2/tcp/rpc"
)

type serverState int

const (
	stateInitializing serverState = iota
	stateStarting
	stateStarted
	stateStopping
	stateStopped
)

// ErrAlreadyStarted is returned by Start when the server is not in its
// initializing state.
var ErrAlreadyStarted = errors.New("tcp: server already started")

// ErrNotStarted is returned by Stop when the server was never started.
var ErrNotStarted = errors.New("tcp: server not started")

// Server accepts TCP connections and dispatches each one to an rpc.Server.
// It carries the richer {initializing, starting, started, stopping,
// stopped} lifecycle (spec §3/§9's Open Question, resolved in favor of the
// richer machine): Start and Stop are safe to call from arbitrary
// goroutines and are guarded by a mutex.
type Server struct {
	// Addr is the "host:port" address to listen on, passed to net.Listen.
	Addr string
	// Backlog bounds the number of connections served concurrently; once
	// reached, the next accepted connection is held unserved, and Accept is
	// not called again, until a connection finishes. Zero means
	// DefaultBacklog.
	Backlog int
	// NoDelay disables Nagle's algorithm on accepted connections when true.
	NoDelay bool
	// ReuseAddr sets SO_REUSEADDR on the listening socket before bind when
	// true, letting Start rebind an address still in TIME_WAIT.
	ReuseAddr bool
	// Handler serves one accepted connection. Required.
	Handler *rpc.Server
	// Logger receives one line per Start/Stop transition and per
	// connection-level error. Nil disables logging.
	Logger *log.Logger

	mu    sync.Mutex
	state serverState
	ln    net.Listener
	group *errgroup.Group
	sem   chan struct{}
	stop  context.CancelFunc
	conns map[net.Conn]struct{}
}

// DefaultBacklog bounds concurrently-served connections when Backlog is
// left at zero.
const DefaultBacklog = 256

func (s *Server) backlog() int {
	if s.Backlog <= 0 {
		return DefaultBacklog
	}
	return s.Backlog
}

func (s *Server) logf(level, msg string, fields log.Fields) {
	if s.Logger == nil {
		return
	}
	if level == "error" {
		s.Logger.Errorf(msg, fields)
	} else {
		s.Logger.Infof(msg, fields)
	}
}

// Start binds the listening socket and begins accepting connections in the
// background. It returns once the socket is bound; Accept runs in its own
// goroutine until Stop is called or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != stateInitializing {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = stateStarting
	s.mu.Unlock()

	lc := net.ListenConfig{}
	if s.ReuseAddr {
		lc.Control = reuseAddrControl
	}
	ln, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		s.mu.Lock()
		s.state = stateInitializing
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", rpc.ErrCantBind, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	s.mu.Lock()
	s.ln = ln
	s.group = group
	s.sem = make(chan struct{}, s.backlog())
	s.stop = cancel
	s.conns = make(map[net.Conn]struct{})
	s.state = stateStarted
	s.mu.Unlock()

	s.logf("info", "listening", log.Fields{"addr": ln.Addr().String()})
	go s.acceptLoop(groupCtx, ln)
	runtime.SetFinalizer(s, finalizeServer)
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logf("error", "accept failed", log.Fields{"err": err})
			return
		}
		if s.NoDelay {
			if tc, ok := conn.(*net.TCPConn); ok {
				_ = tc.SetNoDelay(true)
			}
		}
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
		s.trackConn(conn, true)
		s.group.Go(func() error {
			defer func() { <-s.sem }()
			defer s.trackConn(conn, false)
			err := s.Handler.Serve(ctx, conn)
			if err != nil {
				s.logf("error", "connection ended", log.Fields{"err": err})
			}
			return nil
		})
	}
}

func (s *Server) trackConn(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// Stop closes the listener, forces every currently-accepted connection
// closed so its Serve loop unblocks (an idle connection would otherwise
// keep group.Wait blocked until its own idle timeout fired), and waits
// for every per-connection goroutine to return. It does not wait for
// in-flight request handlers spawned by rpc.Server.dispatch to finish
// (spec §5: stop does not await handler callbacks) -- only for Serve
// itself to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.state != stateStarted {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = stateStopping
	ln := s.ln
	stop := s.stop
	group := s.group
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	stop()
	err := ln.Close()
	for _, c := range conns {
		_ = c.Close()
	}
	_ = group.Wait()

	s.mu.Lock()
	s.state = stateStopped
	s.mu.Unlock()
	s.logf("info", "stopped", nil)
	return err
}

func finalizeServer(s *Server) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == stateStarted && s.Logger != nil {
		s.Logger.Errorf("tcp server garbage collected without Stop", nil)
	}
}
