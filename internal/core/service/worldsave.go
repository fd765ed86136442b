package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/host"
	"github.com/yndnr/worldsave-go/internal/storage/codec"
	"github.com/yndnr/worldsave-go/internal/storage/partition"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
	"github.com/yndnr/worldsave-go/internal/telemetry/metric"
	"github.com/yndnr/worldsave-go/internal/telemetry/tracer"
)

// SaveHistory records completed saves.
type SaveHistory interface {
	Record(ctx context.Context, s *domain.SaveSummary) error
}

// Options configures a WorldSave.
type Options struct {
	// Files manages the snapshot directory. Required.
	Files *partition.Manager
	// Codec encodes blobs on Save. Load uses the codec named in each file
	// header. Defaults to proto.
	Codec codec.Codec

	MaxListDepth int
	Filter       *FieldFilter
	// WarnRate and WarnBurst limit warning log records per second. Zero
	// rate logs every warning.
	WarnRate  float64
	WarnBurst int

	// SkipRestore disables handing loaded worlds to hosts that implement
	// host.Restorer.
	SkipRestore bool

	Metrics *metric.Registry
	Tracer  trace.Tracer
	History SaveHistory
	Logger  logger.Logger
}

// SaveResult is the outcome of a successful Save.
type SaveResult struct {
	Summary  *domain.SaveSummary
	Warnings domain.Warnings
}

// WorldSave snapshots a host world to disk and loads it back.
//
// It is created once per process and passed to whatever exposes the entry
// points. Save and Load are serialized; every piece of per-call state (the
// reference table, pools and open files) is created fresh per call.
type WorldSave struct {
	host  host.Host
	opts  Options
	log   logger.Logger
	trace trace.Tracer

	mu          sync.Mutex
	pathMu      sync.RWMutex
	path        string
	initialized atomic.Bool
	last        atomic.Pointer[domain.SaveSummary]
}

// New returns a WorldSave for h.
func New(h host.Host, opts Options) (*WorldSave, error) {
	if h == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("host is required")
	}
	if opts.Files == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("file manager is required")
	}
	if opts.Codec == nil {
		opts.Codec = codec.Proto{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	t := opts.Tracer
	if t == nil {
		t = tracer.Noop()
	}
	return &WorldSave{
		host:  h,
		opts:  opts,
		log:   log.With("component", "worldsave"),
		trace: t,
	}, nil
}

// Initialize applies key=value arguments and checks the host is ready to be
// saved. The only key is "path", which overrides the host save path.
func (ws *WorldSave) Initialize(ctx context.Context, args []string) error {
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return domain.ErrInvalidArgument.WithDetailsf("argument %q is not key=value", arg)
		}
		switch k {
		case "path":
			ws.SetPath(v)
		default:
			return domain.ErrInvalidArgument.WithDetailsf("unknown argument %q", k)
		}
	}

	dir, err := ws.Path()
	if err != nil {
		return err
	}
	bounds, err := ws.host.WorldBounds()
	if err != nil {
		return hostError(err, "world bounds")
	}
	ws.initialized.Store(true)
	ws.log.WithContext(ctx).Info("world save initialized",
		"path", dir, "x", bounds.X, "y", bounds.Y, "layers", bounds.Layers, "codec", ws.opts.Codec.Name())
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (ws *WorldSave) Initialized() bool {
	return ws.initialized.Load()
}

// SetPath overrides the host save path. An empty path restores the host's.
func (ws *WorldSave) SetPath(dir string) {
	ws.pathMu.Lock()
	ws.path = dir
	ws.pathMu.Unlock()
}

// Path returns the directory Save writes to and Load reads from.
func (ws *WorldSave) Path() (string, error) {
	ws.pathMu.RLock()
	dir := ws.path
	ws.pathMu.RUnlock()
	if dir != "" {
		return dir, nil
	}
	dir, err := ws.host.SavePath()
	if err != nil {
		return "", hostError(err, "save path")
	}
	if dir == "" {
		return "", domain.ErrConfiguration.WithDetails("save path is empty")
	}
	return dir, nil
}

// LastSave returns the summary of the most recent successful Save.
func (ws *WorldSave) LastSave() (*domain.SaveSummary, bool) {
	s := ws.last.Load()
	return s, s != nil
}

// ============================================================================
// Save
// ============================================================================

// Save writes the host world to the save directory.
//
// The previous contents of the directory are copied to the backup location
// first. New files are staged and only renamed into place once every blob
// has been written, so a failed Save leaves the previous snapshot readable.
// Values that cannot be persisted are dropped and reported in the result's
// warnings; they do not fail the Save.
func (ws *WorldSave) Save(ctx context.Context) (res *SaveResult, err error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	start := time.Now()
	runID := ulid.Make().String()
	ctx = logger.WithRunID(logger.WithOp(ctx, "save"), runID)
	ctx, span := ws.trace.Start(ctx, "worldsave.save", trace.WithAttributes(attribute.String("run_id", runID)))
	log := ws.log.WithContext(ctx)

	var (
		summary  *domain.SaveSummary
		warnings domain.Warnings
	)
	defer func() {
		ws.opts.Metrics.ObserveSave(summary, warnings, err, time.Since(start))
		tracer.End(span, err)
		if err != nil {
			log.Error("save failed", "error", err)
		}
	}()

	// 1. Resolve the save path and world extent.
	dir, err := ws.Path()
	if err != nil {
		return nil, err
	}
	bounds, err := ws.host.WorldBounds()
	if err != nil {
		return nil, hostError(err, "world bounds")
	}
	if bounds.Layers < 0 {
		return nil, domain.ErrConfiguration.WithDetailsf("world reports %d layers", bounds.Layers)
	}

	// 2. Prepare the directory and back up what is there.
	files := ws.opts.Files
	if err := files.PrepareDirectory(dir); err != nil {
		return nil, err
	}
	backup, err := files.Backup(dir, runID)
	if err != nil {
		return nil, err
	}

	// 3. Stage one output per layer plus the instances file.
	out, err := files.OpenOutputs(dir, partition.Meta{
		RunID:     runID,
		Codec:     ws.opts.Codec.Name(),
		Layers:    bounds.Layers,
		Bounds:    bounds,
		CreatedAt: start,
	})
	if err != nil {
		return nil, err
	}
	published := false
	defer func() {
		if !published {
			_ = out.CloseAll(false)
		}
	}()

	// 4. Encode the root container.
	roots, err := ws.host.RootContainer()
	if err != nil {
		return nil, hostError(err, "root container")
	}
	enc, err := NewEncoder(bounds.Layers, EncoderOptions{
		MaxListDepth: ws.opts.MaxListDepth,
		Filter:       ws.opts.Filter,
		Logger:       log,
		WarnLimiter:  ws.warnLimiter(),
	})
	if err != nil {
		return nil, err
	}
	encoding := enc.Encode(roots)
	warnings = encoding.Warnings
	span.SetAttributes(
		attribute.Int("instances", len(encoding.Instances)),
		attribute.Int("cells", encoding.CellCount()),
		attribute.Int("warnings", len(warnings)),
	)

	// 5. Commit every blob, then publish.
	for i, cells := range encoding.Layers {
		if err := ws.commit(out, partition.Layer(i), cellRecords(cells)); err != nil {
			return nil, err
		}
	}
	if err := ws.commit(out, partition.Instances, instanceRecords(encoding.Instances, encoding.Roots)); err != nil {
		return nil, err
	}
	published = true
	if err := out.CloseAll(true); err != nil {
		return nil, err
	}

	summary = &domain.SaveSummary{
		RunID:      runID,
		Path:       dir,
		BackupPath: backup,
		Codec:      ws.opts.Codec.Name(),
		Layers:     bounds.Layers,
		Instances:  len(encoding.Instances),
		Cells:      encoding.CellCount(),
		Roots:      len(encoding.Roots),
		Warnings:   len(warnings),
		Bytes:      out.Bytes(),
		CreatedAt:  start.UTC(),
		Duration:   time.Since(start),
	}
	ws.last.Store(summary)

	if ws.opts.History != nil {
		if herr := ws.opts.History.Record(ctx, summary); herr != nil {
			log.Warn("record save history", "error", herr)
		}
	}

	log.Info("save complete",
		"path", dir,
		"instances", summary.Instances,
		"cells", summary.Cells,
		"layers", summary.Layers,
		"warnings", summary.Warnings,
		"bytes", summary.Bytes,
		"duration", summary.Duration)

	return &SaveResult{Summary: summary, Warnings: warnings}, nil
}

func (ws *WorldSave) commit(out *partition.Outputs, dest partition.Destination, records []domain.Node) error {
	data, err := ws.opts.Codec.Marshal(records)
	if err != nil {
		return err
	}
	_, err = out.Commit(dest, len(records), data)
	return err
}

func (ws *WorldSave) warnLimiter() *rate.Limiter {
	if ws.opts.WarnRate <= 0 {
		return nil
	}
	burst := ws.opts.WarnBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(ws.opts.WarnRate), burst)
}

// ============================================================================
// Load
// ============================================================================

// Load reads the snapshot in the save directory and returns the decoded
// world. Every reference in the world resolves; a snapshot that fails any
// integrity check yields domain.ErrCorruptData and no world. When the host
// implements host.Restorer it is handed the world before Load returns.
func (ws *WorldSave) Load(ctx context.Context) (w *domain.World, err error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	start := time.Now()
	ctx = logger.WithOp(ctx, "load")
	ctx, span := ws.trace.Start(ctx, "worldsave.load")
	log := ws.log.WithContext(ctx)

	defer func() {
		ws.opts.Metrics.ObserveLoad(err, time.Since(start))
		tracer.End(span, err)
		if err != nil {
			log.Error("load failed", "error", err)
		}
	}()

	dir, err := ws.Path()
	if err != nil {
		return nil, err
	}
	files := ws.opts.Files

	// 1. Instances file: records, roots and the save-wide header.
	inst, err := files.ReadInstances(dir)
	if err != nil {
		return nil, err
	}
	hdr := inst.Header
	log = log.With("run_id", hdr.RunID)
	span.SetAttributes(attribute.String("run_id", hdr.RunID))

	records, err := decodeFrame(inst)
	if err != nil {
		return nil, err
	}
	instances, roots, err := splitInstances(records)
	if err != nil {
		return nil, err
	}

	// 2. One file per layer, all from the same run.
	layers := make([][]*domain.Cell, hdr.Layers)
	for i := range layers {
		f, err := files.ReadLayer(dir, i)
		if err != nil {
			return nil, err
		}
		if f.Header.RunID != hdr.RunID {
			return nil, domain.ErrCorruptData.WithDetailsf("layer %d belongs to run %s, instances to run %s",
				i, f.Header.RunID, hdr.RunID)
		}
		recs, err := decodeFrame(f)
		if err != nil {
			return nil, err
		}
		if layers[i], err = cellsOf(recs, i); err != nil {
			return nil, err
		}
	}

	// 3. Assemble and verify every reference resolves.
	if err := checkIDs(instances, layers); err != nil {
		return nil, err
	}
	bounds := domain.Bounds{Layers: hdr.Layers}
	if hdr.Bounds != nil {
		bounds.X, bounds.Y = hdr.Bounds.X, hdr.Bounds.Y
	}
	world := domain.NewWorld(bounds, layers, roots, instances)
	if id, bad := world.Dangling(); bad {
		return nil, domain.ErrCorruptData.WithDetailsf("reference %d does not resolve", id)
	}

	// 4. Hand the world to the host.
	if r, ok := ws.host.(host.Restorer); ok && !ws.opts.SkipRestore {
		if err := r.Restore(world); err != nil {
			return nil, hostError(err, "restore")
		}
	}

	log.Info("load complete",
		"path", dir,
		"instances", len(instances),
		"cells", world.CellCount(),
		"layers", hdr.Layers,
		"duration", time.Since(start))
	return world, nil
}

func decodeFrame(f *partition.Frame) ([]domain.Node, error) {
	c, err := codec.Lookup(f.Header.Codec)
	if err != nil {
		return nil, domain.ErrCorruptData.WithDetailsf("%s: unknown codec %q", f.Path, f.Header.Codec)
	}
	records, err := c.Unmarshal(f.Payload)
	if err != nil {
		return nil, err
	}
	if len(records) != f.Header.Records {
		return nil, domain.ErrCorruptData.WithDetailsf("%s: %d records, header says %d", f.Path, len(records), f.Header.Records)
	}
	return records, nil
}

// hostError passes domain errors from the host through and classifies
// anything else as a configuration error.
func hostError(err error, what string) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrConfiguration.WithDetailsf("host %s", what).WithCause(err)
}
