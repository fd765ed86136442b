package config

import "time"

// ServerConfig is the root configuration for worldsave-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Snapshot SnapshotSection `koanf:"snapshot"`
	Encoder  EncoderSection  `koanf:"encoder"`
	Catalog  CatalogSection  `koanf:"catalog"`
	World    WorldSection    `koanf:"world"`
	Metrics  MetricsSection  `koanf:"metrics"`
	Tracing  TracingSection  `koanf:"tracing"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Local LocalConfig `koanf:"local"`

	// ShutdownTimeout bounds the time spent in shutdown hooks.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LocalConfig configures the entry-point socket the host drives.
type LocalConfig struct {
	Path string `koanf:"path"`
}

// SnapshotSection configures snapshot files.
type SnapshotSection struct {
	// Path overrides the save directory reported by the host.
	Path string `koanf:"path"`

	Extension     string `koanf:"extension"`
	LayerFormat   string `koanf:"layer_format"`
	InstancesName string `koanf:"instances_name"`
	BackupDir     string `koanf:"backup_dir"`

	// Codec is "proto" or "msgpack".
	Codec string `koanf:"codec"`
	// Compression is "none" or "zstd".
	Compression string `koanf:"compression"`
	// Passphrase enables payload encryption when set.
	Passphrase string `koanf:"passphrase"`
}

// EncoderSection configures graph traversal.
type EncoderSection struct {
	MaxListDepth int `koanf:"max_list_depth"`

	// SkipFields are expr predicates over {type, name, kind}; matching
	// fields are not saved.
	SkipFields []string `koanf:"skip_fields"`

	// WarnRate and WarnBurst limit warning log records per second.
	WarnRate  float64 `koanf:"warn_rate"`
	WarnBurst int     `koanf:"warn_burst"`
}

// CatalogSection configures the save history store.
type CatalogSection struct {
	Enabled    bool          `koanf:"enabled"`
	Dir        string        `koanf:"dir"`
	Retain     int           `koanf:"retain"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// WorldSection configures the in-memory host world.
type WorldSection struct {
	// Fixture is a YAML world file. Empty starts an empty world.
	Fixture string `koanf:"fixture"`

	// Width, Height and Layers bound an empty world.
	Width  int `koanf:"width"`
	Height int `koanf:"height"`
	Layers int `koanf:"layers"`

	// SkipRestore keeps loaded worlds out of the host.
	SkipRestore bool `koanf:"skip_restore"`
}

// MetricsSection configures the HTTP metrics endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// TracingSection configures OpenTelemetry tracing.
type TracingSection struct {
	Enabled     bool    `koanf:"enabled"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
