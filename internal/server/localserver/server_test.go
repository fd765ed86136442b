package localserver

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/server/entrypoint"
)

type stubCaller struct {
	mu    sync.Mutex
	calls []string
}

func (c *stubCaller) Call(_ context.Context, name string, args []string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, strings.Join(append([]string{name}, args...), " "))
	c.mu.Unlock()
	switch name {
	case entrypoint.Ping:
		return entrypoint.StatusPong, nil
	case entrypoint.Save:
		return entrypoint.StatusFailed, nil
	case entrypoint.Init:
		return entrypoint.StatusOK, nil
	}
	return "", domain.ErrInvalidArgument.WithDetailsf("unknown entry %q", name)
}

func TestHandler_Execute(t *testing.T) {
	caller := &stubCaller{}
	h := NewHandler(caller)

	tests := []struct {
		line string
		want string
	}{
		{"ping", "pong\n"},
		{"  init_world_save   path=/tmp/x ", "ok\n"},
		{"save_world_save", "failed\n"},
		{"", "error: empty request\n"},
		{"explode", "error: "},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := h.Execute(context.Background(), &buf, tt.line); err != nil {
			t.Fatalf("Execute(%q): %v", tt.line, err)
		}
		if !strings.HasPrefix(buf.String(), tt.want) {
			t.Errorf("Execute(%q) = %q, want prefix %q", tt.line, buf.String(), tt.want)
		}
	}
	if caller.calls[1] != "init_world_save path=/tmp/x" {
		t.Errorf("call = %q, want args split on spaces", caller.calls[1])
	}
}

func startServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ws.sock")
	srv := New(path, NewHandler(&stubCaller{}), opts...)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		if err := <-errCh; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return srv
}

func TestServer_RequestResponse(t *testing.T) {
	srv := startServer(t)

	conn, err := net.Dial("unix", srv.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	for _, tt := range []struct{ req, want string }{
		{"ping", "pong"},
		{"init_world_save", "ok"},
		{"ping", "pong"},
	} {
		if _, err := conn.Write([]byte(tt.req + "\n")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		if got := strings.TrimSpace(line); got != tt.want {
			t.Errorf("%s -> %q, want %q", tt.req, got, tt.want)
		}
	}
}

func TestServer_SocketMode(t *testing.T) {
	srv := startServer(t)
	fi, err := os.Stat(srv.Addr())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("socket mode = %o, want 600", perm)
	}
}

func TestServer_StaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	// Leave the file behind as a crashed process would.
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	srv := New(path, NewHandler(&stubCaller{}))
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen over stale socket: %v", err)
	}
	_ = srv.Shutdown(context.Background())
}

func TestServer_NotASocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	srv := New(path, NewHandler(&stubCaller{}))
	if err := srv.Listen(); err == nil {
		t.Error("Listen over a regular file should fail")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	srv := New(filepath.Join(t.TempDir(), "ws.sock"), NewHandler(&stubCaller{}))
	if err := srv.Serve(); err == nil {
		t.Error("Serve before Listen should fail")
	}
}

func TestServer_ShutdownClosesIdleConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.sock")
	srv := New(path, NewHandler(&stubCaller{}))
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Serve()

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("ping\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := bufio.NewReader(conn).ReadString('\n'); err != nil {
		t.Fatalf("ReadString: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket file should be removed, stat err = %v", err)
	}
}

func TestServer_ShutdownUnderLoad(t *testing.T) {
	for round := 0; round < 5; round++ {
		path := filepath.Join(t.TempDir(), "ws.sock")
		srv := New(path, NewHandler(&stubCaller{}), WithIdleTimeout(time.Hour))
		if err := srv.Listen(); err != nil {
			t.Fatalf("Listen: %v", err)
		}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve() }()

		// Clients keep dialing and sending so that Shutdown races both new
		// connections and deadline updates on live ones.
		var clients sync.WaitGroup
		for i := 0; i < 4; i++ {
			clients.Add(1)
			go func() {
				defer clients.Done()
				for {
					conn, err := net.Dial("unix", path)
					if err != nil {
						return
					}
					r := bufio.NewReader(conn)
					for j := 0; j < 10; j++ {
						if _, err := conn.Write([]byte("ping\n")); err != nil {
							break
						}
						if _, err := r.ReadString('\n'); err != nil {
							break
						}
					}
					conn.Close()
				}
			}()
		}
		time.Sleep(20 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := srv.Shutdown(ctx)
		cancel()
		if err != nil {
			t.Fatalf("round %d: Shutdown: %v", round, err)
		}
		if err := <-errCh; err != nil {
			t.Errorf("round %d: Serve: %v", round, err)
		}
		clients.Wait()
	}
}
