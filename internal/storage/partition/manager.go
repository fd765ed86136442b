package partition

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// Defaults for file naming.
const (
	DefaultExtension     = "spsf"
	DefaultLayerFormat   = "z%d"
	DefaultInstancesName = "instances"
	DefaultBackupDir     = "_save_backup"

	tempSuffix = ".tmp"
)

// Config configures the file manager.
type Config struct {
	// Extension is appended to every snapshot file name.
	Extension string
	// LayerFormat names layer files; it must contain exactly one %d verb.
	LayerFormat string
	// InstancesName is the base name of the instances file.
	InstancesName string
	// BackupDir names the backup directory. A relative name is placed next
	// to the save directory.
	BackupDir string

	// Compression is "none" or "zstd".
	Compression string
	// Passphrase enables payload encryption when non-empty.
	Passphrase []byte

	Logger logger.Logger
}

// DefaultConfig returns the default naming with no compression or
// encryption.
func DefaultConfig() Config {
	return Config{
		Extension:     DefaultExtension,
		LayerFormat:   DefaultLayerFormat,
		InstancesName: DefaultInstancesName,
		BackupDir:     DefaultBackupDir,
		Compression:   CompressionNone,
	}
}

// Manager creates, reads and backs up snapshot directories. It holds no
// per-save state; each Save opens its own Outputs.
type Manager struct {
	cfg    Config
	log    logger.Logger
	sealer *sealer
	zstd   zstdCodec
}

// NewManager validates cfg and returns a manager.
func NewManager(cfg Config) (*Manager, error) {
	def := DefaultConfig()
	if cfg.Extension == "" {
		cfg.Extension = def.Extension
	}
	if cfg.LayerFormat == "" {
		cfg.LayerFormat = def.LayerFormat
	}
	if cfg.InstancesName == "" {
		cfg.InstancesName = def.InstancesName
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = def.BackupDir
	}
	if cfg.Compression == "" {
		cfg.Compression = CompressionNone
	}

	if strings.Count(cfg.LayerFormat, "%d") != 1 || strings.Count(cfg.LayerFormat, "%") != 1 {
		return nil, domain.ErrConfiguration.WithDetailsf("layer format %q must contain exactly one %%d", cfg.LayerFormat)
	}
	if strings.ContainsRune(cfg.LayerFormat, filepath.Separator) || strings.ContainsRune(cfg.InstancesName, filepath.Separator) {
		return nil, domain.ErrConfiguration.WithDetails("file names must not contain path separators")
	}
	if fmt.Sprintf(cfg.LayerFormat, 0) == cfg.InstancesName {
		return nil, domain.ErrConfiguration.WithDetails("layer and instances file names collide")
	}
	switch cfg.Compression {
	case CompressionNone, CompressionZstd:
	default:
		return nil, domain.ErrConfiguration.WithDetailsf("unknown compression %q", cfg.Compression)
	}

	s, err := newSealer(cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		cfg:    cfg,
		log:    log.With("component", "partition"),
		sealer: s,
	}, nil
}

// Close releases compression resources.
func (m *Manager) Close() error {
	m.zstd.close()
	return nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// InstancesPath returns the instances file path in dir.
func (m *Manager) InstancesPath(dir string) string {
	return filepath.Join(dir, m.cfg.InstancesName+"."+m.cfg.Extension)
}

// LayerPath returns the file path of layer in dir.
func (m *Manager) LayerPath(dir string, layer int) string {
	return filepath.Join(dir, fmt.Sprintf(m.cfg.LayerFormat, layer)+"."+m.cfg.Extension)
}

// PrepareDirectory ensures dir exists and removes temp files left by
// interrupted saves.
func (m *Manager) PrepareDirectory(dir string) error {
	if dir == "" {
		return domain.ErrConfiguration.WithDetails("save path is empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return domain.ErrFilesystem.WithDetailsf("create %s", dir).WithCause(err)
	}
	stale, err := filepath.Glob(filepath.Join(dir, ".*"+tempSuffix))
	if err != nil {
		return domain.ErrFilesystem.WithCause(err)
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return domain.ErrFilesystem.WithDetailsf("remove stale %s", p).WithCause(err)
		}
		m.log.Warn("removed stale temp file", "path", p)
	}
	return nil
}

// Meta is the save-wide metadata stamped into every header.
type Meta struct {
	RunID     string
	Codec     string
	Layers    int
	Bounds    domain.Bounds
	CreatedAt time.Time
}

// Destination names one output file of a save.
type Destination struct {
	kind  string
	layer int
}

// Instances is the destination of the instances blob.
var Instances = Destination{kind: KindInstances}

// Layer returns the destination of a layer blob.
func Layer(i int) Destination {
	return Destination{kind: KindLayer, layer: i}
}

func (d Destination) String() string {
	if d.kind == KindInstances {
		return KindInstances
	}
	return fmt.Sprintf("%s/%d", KindLayer, d.layer)
}

type output struct {
	dest      Destination
	final     string
	temp      string
	file      *os.File
	committed bool
}

// Outputs is the set of staged files of one save.
type Outputs struct {
	m       *Manager
	dir     string
	meta    Meta
	salt    []byte
	outputs []*output // layers in order, then instances
	bytes   int64
	closed  bool
}

// OpenOutputs creates one temp file per destination. Nothing in dir is
// replaced until CloseAll(true).
func (m *Manager) OpenOutputs(dir string, meta Meta) (*Outputs, error) {
	if meta.Layers < 0 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("layer count %d", meta.Layers)
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	o := &Outputs{m: m, dir: dir, meta: meta}
	if m.sealer != nil {
		salt, err := newSalt()
		if err != nil {
			return nil, err
		}
		o.salt = salt
	}

	dests := make([]Destination, 0, meta.Layers+1)
	for i := 0; i < meta.Layers; i++ {
		dests = append(dests, Layer(i))
	}
	dests = append(dests, Instances)

	for _, d := range dests {
		final := m.path(dir, d)
		temp := filepath.Join(dir, "."+filepath.Base(final)+"."+meta.RunID+tempSuffix)
		f, err := os.OpenFile(temp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0640)
		if err != nil {
			_ = o.CloseAll(false)
			return nil, domain.ErrFilesystem.WithDetailsf("create %s", temp).WithCause(err)
		}
		o.outputs = append(o.outputs, &output{dest: d, final: final, temp: temp, file: f})
	}
	return o, nil
}

func (m *Manager) path(dir string, d Destination) string {
	if d.kind == KindInstances {
		return m.InstancesPath(dir)
	}
	return m.LayerPath(dir, d.layer)
}

func (o *Outputs) lookup(d Destination) (*output, error) {
	for _, out := range o.outputs {
		if out.dest == d {
			return out, nil
		}
	}
	return nil, domain.ErrInvalidArgument.WithDetailsf("no output for %s", d)
}

// Commit writes payload, the codec bytes of records records, as the frame
// of dest. Each destination is committed exactly once.
func (o *Outputs) Commit(dest Destination, records int, payload []byte) (int64, error) {
	if o.closed {
		return 0, domain.ErrInternal.WithDetails("outputs already closed")
	}
	out, err := o.lookup(dest)
	if err != nil {
		return 0, err
	}
	if out.committed {
		return 0, domain.ErrInternal.WithDetailsf("%s committed twice", dest)
	}

	hdr := Header{
		Version:     headerVersion,
		Kind:        dest.kind,
		Layer:       dest.layer,
		Layers:      o.meta.Layers,
		Records:     records,
		Codec:       o.meta.Codec,
		RunID:       o.meta.RunID,
		CreatedAt:   o.meta.CreatedAt.UnixMilli(),
		PayloadSize: len(payload),
		Compression: o.m.cfg.Compression,
		Encrypted:   o.m.sealer != nil,
		Salt:        o.salt,
	}
	if dest.kind == KindInstances {
		b := o.meta.Bounds
		hdr.Bounds = &b
	}
	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return 0, domain.ErrInternal.WithDetails("marshal header").WithCause(err)
	}

	data := payload
	if hdr.Compression == CompressionZstd {
		if data, err = o.m.zstd.compress(data); err != nil {
			return 0, err
		}
	}
	if o.m.sealer != nil {
		if data, err = o.m.sealer.seal(o.salt, dest.String(), data, hdrJSON); err != nil {
			return 0, err
		}
	}

	n, err := writeFrame(out.file, hdrJSON, data)
	if err != nil {
		return n, domain.ErrFilesystem.WithDetailsf("write %s", out.temp).WithCause(err)
	}
	out.committed = true
	o.bytes += n
	return n, nil
}

// Bytes returns the number of bytes committed so far.
func (o *Outputs) Bytes() int64 { return o.bytes }

// CloseAll closes every staged file. With commit set, each file is synced
// and renamed over its final name, then layer files beyond the new layer
// count are removed. Without commit, or on any failure, temp files are
// deleted and the previous snapshot files are left as they were, except
// for renames that already happened.
func (o *Outputs) CloseAll(commit bool) error {
	if o.closed {
		return nil
	}
	o.closed = true

	var errs []error
	if commit {
		for _, out := range o.outputs {
			if !out.committed {
				errs = append(errs, domain.ErrInternal.WithDetailsf("%s was never committed", out.dest))
			}
		}
	}
	for _, out := range o.outputs {
		if commit && len(errs) == 0 {
			if err := out.file.Sync(); err != nil {
				errs = append(errs, domain.ErrFilesystem.WithDetailsf("sync %s", out.temp).WithCause(err))
			}
		}
		if err := out.file.Close(); err != nil {
			errs = append(errs, domain.ErrFilesystem.WithDetailsf("close %s", out.temp).WithCause(err))
		}
	}

	if !commit || len(errs) > 0 {
		o.removeTemps()
		return errors.Join(errs...)
	}

	for i, out := range o.outputs {
		if err := os.Rename(out.temp, out.final); err != nil {
			for _, rest := range o.outputs[i:] {
				_ = os.Remove(rest.temp)
			}
			return domain.ErrFilesystem.WithDetailsf("rename %s", out.final).WithCause(err)
		}
	}
	syncDir(o.dir)

	for i := o.meta.Layers; ; i++ {
		p := o.m.LayerPath(o.dir, i)
		if err := os.Remove(p); err != nil {
			if !os.IsNotExist(err) {
				o.m.log.Warn("remove stale layer file", "path", p, "error", err)
			}
			break
		}
		o.m.log.Debug("removed stale layer file", "path", p)
	}
	return nil
}

func (o *Outputs) removeTemps() {
	for _, out := range o.outputs {
		if err := os.Remove(out.temp); err != nil && !os.IsNotExist(err) {
			o.m.log.Warn("remove temp file", "path", out.temp, "error", err)
		}
	}
}

// syncDir makes renames in dir durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// ReadInstances reads and opens the instances file of dir.
func (m *Manager) ReadInstances(dir string) (*Frame, error) {
	f, err := m.ReadFrame(m.InstancesPath(dir))
	if err != nil {
		return nil, err
	}
	if f.Header.Kind != KindInstances {
		return nil, domain.ErrCorruptData.WithDetailsf("%s: kind %q, want %q", f.Path, f.Header.Kind, KindInstances)
	}
	if f.Header.Layers < 0 {
		return nil, domain.ErrCorruptData.WithDetailsf("%s: layer count %d", f.Path, f.Header.Layers)
	}
	return f, nil
}

// ReadLayer reads and opens the file of layer in dir.
func (m *Manager) ReadLayer(dir string, layer int) (*Frame, error) {
	f, err := m.ReadFrame(m.LayerPath(dir, layer))
	if err != nil {
		return nil, err
	}
	if f.Header.Kind != KindLayer || f.Header.Layer != layer {
		return nil, domain.ErrCorruptData.WithDetailsf("%s: header names %s %d", f.Path, f.Header.Kind, f.Header.Layer)
	}
	return f, nil
}

// ReadFrame reads, verifies and opens the snapshot file at path, returning
// the codec payload.
func (m *Manager) ReadFrame(path string) (*Frame, error) {
	hdr, hdrJSON, data, size, err := readFrame(path)
	if err != nil {
		return nil, err
	}

	if hdr.Encrypted {
		if m.sealer == nil {
			return nil, domain.ErrConfiguration.WithDetailsf("%s is encrypted and no passphrase is configured", path)
		}
		info := Destination{kind: hdr.Kind, layer: hdr.Layer}.String()
		if data, err = m.sealer.open(hdr.Salt, info, data, hdrJSON); err != nil {
			return nil, err
		}
	}
	switch hdr.Compression {
	case "", CompressionNone:
	case CompressionZstd:
		if data, err = m.zstd.decompress(data, hdr.PayloadSize); err != nil {
			return nil, err
		}
	default:
		return nil, domain.ErrCorruptData.WithDetailsf("%s: unknown compression %q", path, hdr.Compression)
	}
	if len(data) != hdr.PayloadSize {
		return nil, domain.ErrCorruptData.WithDetailsf("%s: payload is %d bytes, header says %d", path, len(data), hdr.PayloadSize)
	}

	return &Frame{Path: path, Size: size, Header: hdr, Payload: data}, nil
}

// FileInfo describes one snapshot file without its payload.
type FileInfo struct {
	Path   string `json:"path" yaml:"path"`
	Size   int64  `json:"size" yaml:"size"`
	Header Header `json:"header" yaml:"header"`
}

// Inspect verifies and describes the files of the snapshot in dir. It
// does not decrypt payloads.
func (m *Manager) Inspect(dir string) ([]FileInfo, error) {
	hdr, _, _, size, err := readFrame(m.InstancesPath(dir))
	if err != nil {
		return nil, err
	}
	out := []FileInfo{{Path: m.InstancesPath(dir), Size: size, Header: hdr}}
	for i := 0; i < hdr.Layers; i++ {
		p := m.LayerPath(dir, i)
		lh, _, _, lsize, err := readFrame(p)
		if err != nil {
			return out, err
		}
		out = append(out, FileInfo{Path: p, Size: lsize, Header: lh})
	}
	return out, nil
}
