package localserver

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// DefaultIdleTimeout closes connections that send nothing for this long.
const DefaultIdleTimeout = 5 * time.Minute

const maxLineSize = 64 * 1024

// Server represents the local entry-point server.
type Server struct {
	path        string
	handler     *Handler
	log         logger.Logger
	idleTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	running  atomic.Bool
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithIdleTimeout sets the per-connection idle timeout. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// New creates a new local server.
func New(socketPath string, handler *Handler, opts ...Option) *Server {
	s := &Server{
		path:        socketPath,
		handler:     handler,
		log:         logger.Discard(),
		idleTimeout: DefaultIdleTimeout,
		conns:       make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "localserver")
	return s
}

// Listen binds the socket. A stale socket file left by a previous run is
// removed first.
func (s *Server) Listen() error {
	if fi, err := os.Lstat(s.path); err == nil {
		if fi.Mode()&os.ModeSocket == 0 {
			return domain.ErrConfiguration.WithDetailsf("%s exists and is not a socket", s.path)
		}
		if err := os.Remove(s.path); err != nil {
			return domain.ErrFilesystem.WithDetails("remove stale socket").WithCause(err)
		}
	}
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return domain.ErrFilesystem.WithDetailsf("listen on %s", s.path).WithCause(err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		return domain.ErrFilesystem.WithDetails("chmod socket").WithCause(err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.running.Store(true)
	return nil
}

// Addr returns the socket path.
func (s *Server) Addr() string { return s.path }

// ListenAndServe binds the socket and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve accepts connections on a bound listener until Shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return domain.ErrInternal.WithDetails("serve called before listen")
	}
	s.log.Info("local server listening", "path", s.path)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if !s.admit(conn) {
			conn.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(conn)
		}()
	}
}

// admit registers conn with the wait group unless Shutdown has begun. Both
// happen under mu so Shutdown never waits while a connection is being added.
func (s *Server) admit(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

// rearm pushes the idle deadline forward. It reports false once Shutdown
// has begun, so a connection cannot undo the deadline Shutdown set.
func (s *Server) rearm(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	if s.idleTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
	}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// Shutdown stops accepting connections, closes idle ones and waits for
// in-flight requests to finish or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running.Store(false)
	var closeErr error
	if s.listener != nil {
		closeErr = s.listener.Close()
		s.listener = nil
	}
	for conn := range s.conns {
		// Unblock readers; a request already being executed still completes.
		_ = conn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		_ = os.Remove(s.path)
		if errors.Is(closeErr, net.ErrClosed) {
			closeErr = nil
		}
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineSize)
	for {
		if !s.rearm(conn) {
			return
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && s.running.Load() {
				s.log.Debug("connection closed", "error", err)
			}
			return
		}
		ctx := logger.WithOp(context.Background(), "entry")
		if err := s.handler.Execute(ctx, conn, scanner.Text()); err != nil {
			s.log.Warn("write response failed", "error", err)
			return
		}
	}
}
