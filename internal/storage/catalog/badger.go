package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = domain.NewDomainError("WS-CAT-4041", "catalog record not found")

var savePrefix = []byte("save/")

// Config configures the catalog store.
type Config struct {
	// Dir is the Badger directory. Ignored when InMemory is set.
	Dir      string
	InMemory bool

	// Retain is the number of records kept; older ones are pruned after
	// each Record. Zero keeps everything.
	Retain int

	GCInterval  time.Duration
	GCThreshold float64
}

// DefaultConfig returns a catalog config for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		Retain:      100,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// Catalog stores save summaries.
type Catalog struct {
	db     *badger.DB
	cfg    Config
	logger logger.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	records    prometheus.Gauge
	lsmSize    prometheus.Gauge
	vlogSize   prometheus.Gauge

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens or creates the catalog.
func Open(cfg Config, log logger.Logger) (*Catalog, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, domain.ErrConfiguration.WithDetails("catalog dir is required")
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "catalog")

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: log}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrFilesystem.WithDetails("open catalog").WithCause(err)
	}

	c := &Catalog{
		db:     db,
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go c.gcLoop()
	} else {
		close(c.doneCh)
	}

	log.Info("catalog opened", "dir", cfg.Dir, "in_memory", cfg.InMemory, "retain", cfg.Retain)
	return c, nil
}

func key(runID string) []byte {
	return append(append([]byte(nil), savePrefix...), runID...)
}

// Record stores s under its run ID and prunes beyond the retention limit.
func (c *Catalog) Record(ctx context.Context, s *domain.SaveSummary) error {
	if s == nil || s.RunID == "" {
		return domain.ErrInvalidArgument.WithDetails("summary without run id")
	}
	value, err := json.Marshal(s)
	if err != nil {
		return domain.ErrInternal.WithDetails("marshal summary").WithCause(err)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(s.RunID), value)
	}); err != nil {
		return domain.ErrFilesystem.WithDetails("write catalog").WithCause(err)
	}
	if c.records != nil {
		c.records.Inc()
	}
	if c.cfg.Retain > 0 {
		if _, err := c.Prune(ctx, c.cfg.Retain); err != nil {
			c.logger.Warn("catalog prune failed", "error", err)
		}
	}
	return nil
}

// Get returns the record of runID.
func (c *Catalog) Get(ctx context.Context, runID string) (*domain.SaveSummary, error) {
	var s domain.SaveSummary
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(runID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound.WithDetails(runID)
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &s)
		})
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (c *Catalog) List(ctx context.Context, limit int) ([]*domain.SaveSummary, error) {
	var out []*domain.SaveSummary
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = savePrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), savePrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(savePrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var s domain.SaveSummary
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &s)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, &s)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the newest record.
func (c *Catalog) Latest(ctx context.Context) (*domain.SaveSummary, error) {
	list, err := c.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// Prune deletes all but the newest keep records and returns how many were
// removed.
func (c *Catalog) Prune(ctx context.Context, keep int) (int, error) {
	var stale [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = savePrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seen := 0
		seek := append(append([]byte(nil), savePrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(savePrefix); it.Next() {
			seen++
			if seen > keep {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	if c.records != nil {
		c.records.Sub(float64(len(stale)))
	}
	c.logger.Debug("pruned catalog records", "deleted_count", len(stale))
	return len(stale), nil
}

// GC runs Badger value log garbage collection until nothing is reclaimed.
func (c *Catalog) GC(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.db.RunValueLogGC(c.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
	}
	c.lastGCTime.Store(time.Now().UnixMilli())
	return nil
}

// Close stops background work and closes the store.
func (c *Catalog) Close() error {
	select {
	case <-c.stopCh:
		return nil
	default:
	}
	close(c.stopCh)
	<-c.doneCh

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}
	c.logger.Info("catalog closed")
	return nil
}

// RegisterMetrics registers catalog gauges with reg and seeds the record
// count.
func (c *Catalog) RegisterMetrics(reg prometheus.Registerer) error {
	c.records = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "catalog",
		Name:      "records",
		Help:      "Number of save records in the catalog",
	})
	c.lsmSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "catalog",
		Name:      "lsm_size_bytes",
		Help:      "Catalog LSM tree size in bytes",
	})
	c.vlogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "catalog",
		Name:      "value_log_size_bytes",
		Help:      "Catalog value log size in bytes",
	})
	for _, col := range []prometheus.Collector{c.records, c.lsmSize, c.vlogSize} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}

	all, err := c.List(context.Background(), 0)
	if err != nil {
		return err
	}
	c.records.Set(float64(len(all)))
	c.updateSizes()
	return nil
}

func (c *Catalog) updateSizes() {
	if c.lsmSize == nil {
		return
	}
	lsm, vlog := c.db.Size()
	c.lsmSize.Set(float64(lsm))
	c.vlogSize.Set(float64(vlog))
}

// gcLoop runs periodic garbage collection.
func (c *Catalog) gcLoop() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := c.GC(ctx); err != nil {
				c.logger.Error("catalog gc failed", "error", err)
			}
			cancel()
			c.updateSizes()

		case <-c.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
