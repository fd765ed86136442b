package entrypoint

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/host/memory"
	"github.com/yndnr/worldsave-go/internal/core/service"
	"github.com/yndnr/worldsave-go/internal/storage/partition"
)

func newTable(t *testing.T, w *memory.World) *Table {
	t.Helper()
	files, err := partition.NewManager(partition.DefaultConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = files.Close() })
	ws, err := service.New(w, service.Options{Files: files})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	return New(ws, nil)
}

func call(t *testing.T, tbl *Table, name string, args ...string) string {
	t.Helper()
	got, err := tbl.Call(context.Background(), name, args)
	if err != nil {
		t.Fatalf("Call(%s): %v", name, err)
	}
	return got
}

func TestTable_Names(t *testing.T) {
	tbl := New(stubSaver{}, nil)
	want := []string{Init, Load, Ping, Save}
	got := tbl.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTable_Ping(t *testing.T) {
	tbl := New(stubSaver{}, nil)
	if got := call(t, tbl, Ping); got != StatusPong {
		t.Errorf("ping = %q, want %q", got, StatusPong)
	}
}

func TestTable_UnknownEntry(t *testing.T) {
	tbl := New(stubSaver{}, nil)
	if _, err := tbl.Call(context.Background(), "delete_world", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Call(unknown) error = %v, want ErrInvalidArgument", err)
	}
}

func TestTable_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "save")
	w := memory.NewWorld(domain.Bounds{X: 2, Y: 2, Layers: 1}, dir)
	crate := memory.NewInstance(domain.KindObj, domain.TextIdentity("crate"), "/obj/crate")
	w.Add(memory.NewCell(0, "/turf/floor").Set("thing", crate), crate)
	tbl := newTable(t, w)

	if got := call(t, tbl, Init); got != StatusOK {
		t.Fatalf("init = %q, want ok", got)
	}
	if got := call(t, tbl, Save); got != StatusOK {
		t.Fatalf("save = %q, want ok", got)
	}
	if got := call(t, tbl, Load); got != StatusOK {
		t.Fatalf("load = %q, want ok", got)
	}
	if n := len(w.Roots()); n != 2 {
		t.Errorf("restored roots = %d, want 2", n)
	}
}

func TestTable_Failures(t *testing.T) {
	w := memory.NewWorld(domain.Bounds{X: 2, Y: 2, Layers: 1}, "")
	tbl := newTable(t, w)

	tests := []struct {
		entry string
		args  []string
	}{
		{Init, nil},
		{Init, []string{"bogus"}},
		{Save, nil},
		{Load, nil},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			if got := call(t, tbl, tt.entry, tt.args...); got != StatusFailed {
				t.Errorf("%s = %q, want %q", tt.entry, got, StatusFailed)
			}
		})
	}
}

func TestTable_LoadMissingSnapshot(t *testing.T) {
	w := memory.NewWorld(domain.Bounds{X: 1, Y: 1, Layers: 1}, t.TempDir())
	tbl := newTable(t, w)
	if got := call(t, tbl, Load); got != StatusFailed {
		t.Errorf("load = %q, want %q", got, StatusFailed)
	}
}

type stubSaver struct{}

func (stubSaver) Initialize(context.Context, []string) error { return nil }

func (stubSaver) Save(context.Context) (*service.SaveResult, error) {
	return &service.SaveResult{Summary: &domain.SaveSummary{}}, nil
}

func (stubSaver) Load(context.Context) (*domain.World, error) { return nil, nil }
