package metric

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

func TestRegistry_ObserveSave(t *testing.T) {
	r, err := NewRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	warnings := domain.Warnings{
		domain.NewWarning(domain.ErrSkipped, "root[0].icon", domain.KindImage, "x"),
		domain.NewWarning(domain.ErrSkipped, "root[1].icon", domain.KindImage, "x"),
		domain.NewWarning(domain.ErrIdentity, "root[2]", domain.KindObj, "x"),
	}
	s := &domain.SaveSummary{Instances: 7, Cells: 3, Bytes: 512}
	r.ObserveSave(s, warnings, nil, 20*time.Millisecond)
	r.ObserveSave(nil, nil, errors.New("boom"), time.Millisecond)

	if got := testutil.ToFloat64(r.SavesTotal.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("saves ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.SavesTotal.WithLabelValues(ResultFailed)); got != 1 {
		t.Errorf("saves failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.WarningsTotal.WithLabelValues(domain.ErrSkipped.Code)); got != 2 {
		t.Errorf("skipped warnings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.InstancesEncoded); got != 7 {
		t.Errorf("instances = %v, want 7", got)
	}
	if got := testutil.ToFloat64(r.BytesWritten); got != 512 {
		t.Errorf("bytes = %v, want 512", got)
	}
}

func TestRegistry_ObserveLoad(t *testing.T) {
	r, err := NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.ObserveLoad(nil, time.Millisecond)
	r.ObserveLoad(domain.ErrCorruptData, time.Millisecond)
	r.ObserveLoad(domain.ErrCorruptData, time.Millisecond)

	if got := testutil.ToFloat64(r.LoadsTotal.WithLabelValues(ResultFailed)); got != 2 {
		t.Errorf("loads failed = %v, want 2", got)
	}
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	r.ObserveSave(nil, nil, nil, 0)
	r.ObserveLoad(nil, 0)
	if r.Gatherer() == nil {
		t.Error("nil registry Gatherer() returned nil")
	}
}

func TestNewRegistry_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRegistry(reg); err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := NewRegistry(reg); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("second NewRegistry() error = %v, want ErrConfiguration", err)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRegistry(reg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.ObserveLoad(nil, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(r.Gatherer()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `worldsave_loads_total{result="ok"} 1`) {
		t.Errorf("metrics output missing loads counter:\n%s", body)
	}
}
