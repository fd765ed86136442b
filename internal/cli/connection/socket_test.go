package connection

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/service"
	"github.com/yndnr/worldsave-go/internal/server/entrypoint"
	"github.com/yndnr/worldsave-go/internal/server/localserver"
)

type fakeSaver struct{ saveErr error }

func (fakeSaver) Initialize(context.Context, []string) error { return nil }

func (f fakeSaver) Save(context.Context) (*service.SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &service.SaveResult{Summary: &domain.SaveSummary{}}, nil
}

func (fakeSaver) Load(context.Context) (*domain.World, error) { return &domain.World{}, nil }

func startServer(t *testing.T, saver entrypoint.WorldSaver) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ws.sock")
	srv := localserver.New(path, localserver.NewHandler(entrypoint.New(saver, nil)))
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return path
}

func TestSocketClient_Close_NoConnection(t *testing.T) {
	client := NewSocketClient("/tmp/nonexistent.sock")
	if err := client.Close(); err != nil {
		t.Errorf("Close without connection should not error: %v", err)
	}
}

func TestSocketClient_Connect_NonexistentSocket(t *testing.T) {
	client := NewSocketClient(filepath.Join(t.TempDir(), "missing.sock"))
	err := client.Connect(context.Background())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("Connect error = %v, want ErrConfiguration", err)
	}
}

func TestSocketClient_Call(t *testing.T) {
	path := startServer(t, fakeSaver{saveErr: domain.ErrFilesystem})
	client := NewSocketClient(path)
	defer client.Close()
	ctx := context.Background()

	tests := []struct {
		entry string
		args  []string
		want  string
	}{
		{entrypoint.Ping, nil, entrypoint.StatusPong},
		{entrypoint.Init, []string{"path=/tmp/save"}, entrypoint.StatusOK},
		{entrypoint.Save, nil, entrypoint.StatusFailed},
		{entrypoint.Load, nil, entrypoint.StatusOK},
	}
	for _, tt := range tests {
		got, err := client.Call(ctx, tt.entry, tt.args...)
		if err != nil {
			t.Fatalf("Call(%s): %v", tt.entry, err)
		}
		if got != tt.want {
			t.Errorf("Call(%s) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func TestSocketClient_Call_Errors(t *testing.T) {
	path := startServer(t, fakeSaver{})
	client := NewSocketClient(path)
	defer client.Close()
	ctx := context.Background()

	if _, err := client.Call(ctx, "drop_world"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("unknown entry error = %v, want ErrInvalidArgument", err)
	}
	if _, err := client.Call(ctx, "ping pong"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("entry with space error = %v, want ErrInvalidArgument", err)
	}
	if _, err := client.Call(ctx, entrypoint.Init, "a b"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("argument with space error = %v, want ErrInvalidArgument", err)
	}

	// The connection survives a rejected request.
	if got, err := client.Call(ctx, entrypoint.Ping); err != nil || got != entrypoint.StatusPong {
		t.Errorf("ping after error = %q, %v", got, err)
	}
}

func TestSocketClient_Execute_Raw(t *testing.T) {
	path := startServer(t, fakeSaver{})
	client := NewSocketClient(path)
	defer client.Close()

	got, err := client.Execute(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "error: empty request" {
		t.Errorf("Execute(blank) = %q", got)
	}
}
