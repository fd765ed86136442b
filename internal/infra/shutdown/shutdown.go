package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	log     logger.Logger

	mu    sync.Mutex
	hooks []hook

	trigger     chan string
	triggerOnce sync.Once
	runOnce     sync.Once
	runErr      error
	done        chan struct{}
}

// NewHandler creates a shutdown handler. A nil logger discards.
func NewHandler(timeout time.Duration, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		timeout: timeout,
		log:     log.With("component", "shutdown"),
		trigger: make(chan string, 1),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a named hook.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Trigger starts shutdown without a signal. Only the first call counts.
func (h *Handler) Trigger(reason string) {
	h.triggerOnce.Do(func() {
		h.trigger <- reason
	})
}

// Wait blocks until SIGINT, SIGTERM, Trigger or ctx is done, then runs
// the hooks. It returns the joined hook errors.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var reason string
	select {
	case sig := <-sigCh:
		reason = sig.String()
	case reason = <-h.trigger:
	case <-ctx.Done():
		reason = "context done"
	}
	return h.run(reason)
}

// Abort runs the hooks registered so far without waiting. It unwinds a
// startup that failed part way. Hooks run at most once, so a later Wait
// returns the same result.
func (h *Handler) Abort(reason string) error {
	return h.run(reason)
}

func (h *Handler) run(reason string) error {
	h.runOnce.Do(func() { h.runErr = h.runHooks(reason) })
	return h.runErr
}

func (h *Handler) runHooks(reason string) error {
	h.log.Info("shutting down", "reason", reason, "timeout", h.timeout)
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		start := time.Now()
		if err := hooks[i].fn(ctx); err != nil {
			h.log.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			errs = append(errs, err)
			continue
		}
		h.log.Debug("shutdown hook done", "hook", hooks[i].name, "duration", time.Since(start))
	}

	close(h.done)
	return errors.Join(errs...)
}

// Done returns a channel closed once every hook has run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
