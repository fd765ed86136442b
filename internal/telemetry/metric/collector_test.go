package metric

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

func TestCollector(t *testing.T) {
	var last *domain.SaveSummary
	c := NewCollector(func() (*domain.SaveSummary, bool) { return last, last != nil })

	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("metrics before any save = %d, want 0", n)
	}

	last = &domain.SaveSummary{
		Codec:     "proto",
		Layers:    3,
		Bytes:     2048,
		CreatedAt: time.Unix(1700000000, 0),
		Duration:  1500 * time.Millisecond,
	}
	expected := `
# HELP worldsave_last_save_layers Layer files written by the most recent save
# TYPE worldsave_last_save_layers gauge
worldsave_last_save_layers 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "worldsave_last_save_layers"); err != nil {
		t.Error(err)
	}
	if n := testutil.CollectAndCount(c); n != 4 {
		t.Errorf("metrics after save = %d, want 4", n)
	}
}
