package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

func openMemory(t *testing.T, retain int) *Catalog {
	t.Helper()
	c, err := Open(Config{InMemory: true, Retain: retain}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func summary(runID string, instances int) *domain.SaveSummary {
	return &domain.SaveSummary{
		RunID:     runID,
		Path:      "/srv/save",
		Codec:     "proto",
		Layers:    2,
		Instances: instances,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestCatalog_RecordList(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t, 0)

	if _, err := c.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest(empty) error = %v, want ErrNotFound", err)
	}

	for i, id := range []string{"01HA", "01HB", "01HC"} {
		if err := c.Record(ctx, summary(id, i)); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}

	list, err := c.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, s := range list {
		ids = append(ids, s.RunID)
	}
	if len(ids) != 3 || ids[0] != "01HC" || ids[2] != "01HA" {
		t.Errorf("List() ids = %v, want newest first", ids)
	}

	list, err = c.List(ctx, 2)
	if err != nil || len(list) != 2 {
		t.Fatalf("List(2) = %d records, %v", len(list), err)
	}

	latest, err := c.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.RunID != "01HC" || latest.Instances != 2 {
		t.Errorf("Latest() = %+v", latest)
	}

	got, err := c.Get(ctx, "01HB")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.CreatedAt.Equal(summary("", 0).CreatedAt) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if _, err := c.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCatalog_Retention(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t, 2)

	reg := prometheus.NewRegistry()
	if err := c.RegisterMetrics(reg); err != nil {
		t.Fatalf("RegisterMetrics: %v", err)
	}

	for _, id := range []string{"01HA", "01HB", "01HC", "01HD"} {
		if err := c.Record(ctx, summary(id, 0)); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}

	list, err := c.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].RunID != "01HD" || list[1].RunID != "01HC" {
		t.Errorf("List() after retention = %d records", len(list))
	}
	if got := testutil.ToFloat64(c.records); got != 2 {
		t.Errorf("records gauge = %v, want 2", got)
	}
}

func TestCatalog_RecordInvalid(t *testing.T) {
	c := openMemory(t, 0)
	if err := c.Record(context.Background(), &domain.SaveSummary{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Record(no run id) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCatalog_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	c, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Record(ctx, summary("01HA", 5)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c, err = Open(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	got, err := c.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Instances != 5 {
		t.Errorf("Instances = %d, want 5", got.Instances)
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(Config{}, nil); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("Open() error = %v, want ErrConfiguration", err)
	}
}
