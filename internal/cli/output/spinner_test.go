package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StartStop(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "saving")
	s.interval = time.Millisecond
	s.Start()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "saving") {
		t.Errorf("output = %q, want message", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("output = %q, want cleared line at end", out)
	}
}

func TestSpinner_SuccessFail(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "loading")
	s.Start()
	s.Success("loaded")
	s.Fail("ignored")

	if out := buf.String(); !strings.HasSuffix(out, "✓ loaded\n") || strings.Contains(out, "ignored") {
		t.Errorf("output = %q", out)
	}

	var buf2 syncBuffer
	f := NewSpinner(&buf2, "loading")
	f.Start()
	f.Fail("corrupt")
	if out := buf2.String(); !strings.HasSuffix(out, "✗ corrupt\n") {
		t.Errorf("output = %q", out)
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "idle")
	s.Stop()
	s.Start()
	if out := buf.String(); strings.Contains(out, "idle") {
		t.Errorf("Start after Stop should not animate, got %q", out)
	}
}
