package entrypoint

import (
	"context"
	"sort"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/service"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// Entry names.
const (
	Init = "init_world_save"
	Save = "save_world_save"
	Load = "load_world_save"
	Ping = "ping"
)

// Status strings returned to the host.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusPong   = "pong"
)

// WorldSaver is the subset of service.WorldSave the table drives.
type WorldSaver interface {
	Initialize(ctx context.Context, args []string) error
	Save(ctx context.Context) (*service.SaveResult, error)
	Load(ctx context.Context) (*domain.World, error)
}

// Handler runs one entry and returns its status string.
type Handler func(ctx context.Context, args []string) string

// Table maps entry names to handlers. It is immutable after New.
type Table struct {
	handlers map[string]Handler
	log      logger.Logger
}

// New builds the entry table around ws.
func New(ws WorldSaver, log logger.Logger) *Table {
	if log == nil {
		log = logger.Discard()
	}
	t := &Table{log: log.With("component", "entrypoint")}
	t.handlers = map[string]Handler{
		Init: t.status(Init, func(ctx context.Context, args []string) error {
			return ws.Initialize(ctx, args)
		}),
		Save: t.status(Save, func(ctx context.Context, _ []string) error {
			res, err := ws.Save(ctx)
			if err == nil && len(res.Warnings) > 0 {
				t.log.Warn("save completed with warnings", "count", len(res.Warnings))
			}
			return err
		}),
		Load: t.status(Load, func(ctx context.Context, _ []string) error {
			_, err := ws.Load(ctx)
			return err
		}),
		Ping: func(context.Context, []string) string { return StatusPong },
	}
	return t
}

func (t *Table) status(name string, fn func(context.Context, []string) error) Handler {
	return func(ctx context.Context, args []string) string {
		if err := fn(ctx, args); err != nil {
			t.log.Error("entry failed", "entry", name, "error", err, "code", domain.GetErrorCode(err))
			return StatusFailed
		}
		return StatusOK
	}
}

// Call runs the named entry. An unknown name returns ErrInvalidArgument.
func (t *Table) Call(ctx context.Context, name string, args []string) (string, error) {
	h, ok := t.handlers[name]
	if !ok {
		return "", domain.ErrInvalidArgument.WithDetailsf("unknown entry %q", name)
	}
	t.log.Debug("entry called", "entry", name, "args", len(args))
	return h(ctx, args), nil
}

// Names returns the registered entry names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
