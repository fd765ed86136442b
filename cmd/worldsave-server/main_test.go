package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/worldsave-go/internal/infra/shutdown"
	"github.com/yndnr/worldsave-go/internal/server/config"
	"github.com/yndnr/worldsave-go/internal/storage/catalog"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

func TestStart_FailureReleasesCatalog(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Catalog.Dir = filepath.Join(root, "catalog")
	cfg.Snapshot.Path = filepath.Join(root, "save")
	cfg.Server.Local.Path = filepath.Join(root, "ws.sock")
	cfg.Metrics.Enabled = false
	cfg.World.Fixture = filepath.Join(root, "missing.yaml")

	log := logger.Discard()
	h := shutdown.NewHandler(time.Second, log)
	if err := start(cfg, "", log, h); err == nil {
		t.Fatal("start() with a missing fixture should fail")
	}
	if err := h.Abort("startup failed"); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	// Badger holds a directory lock until closed.
	cat, err := catalog.Open(cfg.Catalog.CatalogConfig(), log)
	if err != nil {
		t.Fatalf("catalog still locked after failed start: %v", err)
	}
	if err := cat.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
