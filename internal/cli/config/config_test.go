package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table", cfg.Output)
	}
	if cfg.Socket == "" || cfg.Server == "" {
		t.Error("Socket and Server should have defaults")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".worldsave", "cli.yaml")) {
		t.Errorf("Path = %q, should end with .worldsave/cli.yaml", path)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load should not error for nonexistent file: %v", err)
	}
	if cfg.Output != "table" {
		t.Error("Should return default config for nonexistent file")
	}
}

func TestLoad_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("output: yaml\nsocket: /tmp/ws.sock\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "yaml" || cfg.Socket != "/tmp/ws.sock" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server != Default().Server {
		t.Errorf("Server = %q, want default kept", cfg.Server)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown key": "colour: always\n",
		"bad yaml":    "output: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cli.yaml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("Load error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load(empty) = %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")
	cfg := Default()
	cfg.Output = "json"
	cfg.ServerConfig = "/etc/worldsave/server.yaml"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %o, want 600", fi.Mode().Perm())
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("Load = %+v, want %+v", got, cfg)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := Default()
	if !strings.HasSuffix(cfg.HistoryPath(), filepath.Join(".worldsave", "history")) {
		t.Errorf("HistoryPath() = %q", cfg.HistoryPath())
	}
	cfg.HistoryFile = "/tmp/h"
	if cfg.HistoryPath() != "/tmp/h" {
		t.Errorf("HistoryPath() = %q, want /tmp/h", cfg.HistoryPath())
	}
}
