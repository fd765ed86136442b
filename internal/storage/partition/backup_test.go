package partition

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

func TestBackup(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "save")
	m := newManager(t, DefaultConfig())

	got, err := m.Backup(dir, "R0")
	if err != nil || got != "" {
		t.Fatalf("Backup(missing dir) = %q, %v; want no backup", got, err)
	}

	save(t, m, dir, "R1", [][]byte{[]byte("v1")}, []byte("v1"))
	if err := os.MkdirAll(filepath.Join(dir, "extra"), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "extra", "note.txt"), []byte("hi"), 0640); err != nil {
		t.Fatal(err)
	}

	got, err = m.Backup(dir, "R2")
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	want := filepath.Join(root, DefaultBackupDir)
	if got != want {
		t.Fatalf("Backup() = %q, want %q", got, want)
	}
	f, err := m.ReadLayer(got, 0)
	if err != nil {
		t.Fatalf("ReadLayer(backup): %v", err)
	}
	if string(f.Payload) != "v1" {
		t.Errorf("backup payload = %q, want v1", f.Payload)
	}
	if b, err := os.ReadFile(filepath.Join(got, "extra", "note.txt")); err != nil || string(b) != "hi" {
		t.Errorf("nested file = %q, %v", b, err)
	}

	// A second backup replaces the first.
	save(t, m, dir, "R3", [][]byte{[]byte("v2")}, []byte("v2"))
	if _, err := m.Backup(dir, "R4"); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	f, err = m.ReadLayer(got, 0)
	if err != nil {
		t.Fatalf("ReadLayer(backup): %v", err)
	}
	if string(f.Payload) != "v2" {
		t.Errorf("backup payload = %q, want v2", f.Payload)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 2 {
		t.Errorf("root has %d entries, want save and backup only", len(entries))
	}
}

func TestBackup_SkipsEmptyAndTemps(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "save")
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".z0.spsf.X.tmp"), []byte("partial"), 0640); err != nil {
		t.Fatal(err)
	}
	m := newManager(t, DefaultConfig())

	got, err := m.Backup(dir, "R")
	if err != nil || got != "" {
		t.Fatalf("Backup() = %q, %v; want no backup", got, err)
	}
	if _, err := os.Stat(m.BackupPath(dir)); !os.IsNotExist(err) {
		t.Errorf("backup dir created: %v", err)
	}
}

func TestBackup_AbsoluteDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "save")
	abs := filepath.Join(root, "elsewhere", "bk")
	if err := os.MkdirAll(filepath.Dir(abs), 0750); err != nil {
		t.Fatal(err)
	}
	m := newManager(t, Config{BackupDir: abs})
	save(t, m, dir, "R", nil, []byte("x"))

	got, err := m.Backup(dir, "R2")
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if got != abs {
		t.Errorf("Backup() = %q, want %q", got, abs)
	}
	if _, err := os.Stat(filepath.Join(abs, "instances.spsf")); err != nil {
		t.Errorf("backup missing instances file: %v", err)
	}
}

func TestBackup_CopyFailureKeepsPrevious(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "save")
	m := newManager(t, DefaultConfig())

	save(t, m, dir, "R1", [][]byte{[]byte("old")}, []byte("old"))
	if _, err := m.Backup(dir, "R2"); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	save(t, m, dir, "R3", [][]byte{[]byte("new")}, []byte("new"))

	// Copy everything, then fail, so the staging tree exists when
	// Backup has to clean it up.
	orig := copyTree
	t.Cleanup(func() { copyTree = orig })
	copyTree = func(src, dst string) error {
		if err := orig(src, dst); err != nil {
			return err
		}
		return errors.New("no space left on device")
	}

	got, err := m.Backup(dir, "R4")
	if !errors.Is(err, domain.ErrFilesystem) {
		t.Fatalf("Backup() = %q, %v; want ErrFilesystem", got, err)
	}

	f, err := m.ReadLayer(m.BackupPath(dir), 0)
	if err != nil {
		t.Fatalf("ReadLayer(backup): %v", err)
	}
	if string(f.Payload) != "old" {
		t.Errorf("backup payload = %q, want old", f.Payload)
	}
	f, err = m.ReadLayer(dir, 0)
	if err != nil {
		t.Fatalf("ReadLayer(live): %v", err)
	}
	if string(f.Payload) != "new" {
		t.Errorf("live payload = %q, want new", f.Payload)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), tempSuffix) {
			t.Errorf("staging directory left behind: %s", e.Name())
		}
	}
	if len(entries) != 2 {
		t.Errorf("root has %d entries, want save and backup only", len(entries))
	}
}

func TestBackup_UnwritableDestination(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "save")
	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0640); err != nil {
		t.Fatal(err)
	}
	m := newManager(t, Config{BackupDir: filepath.Join(blocker, "bk")})
	save(t, m, dir, "R1", [][]byte{[]byte("v1")}, []byte("v1"))

	if _, err := m.Backup(dir, "R2"); !errors.Is(err, domain.ErrFilesystem) {
		t.Fatalf("Backup() error = %v, want ErrFilesystem", err)
	}
	if b, err := os.ReadFile(blocker); err != nil || string(b) != "not a directory" {
		t.Errorf("blocker = %q, %v", b, err)
	}
}
