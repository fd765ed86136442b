package config

import "time"

// Default configuration values.
const (
	DefaultLocalSocket     = "/var/run/worldsave-server/worldsave.sock"
	DefaultShutdownTimeout = 30 * time.Second

	DefaultExtension     = "spsf"
	DefaultLayerFormat   = "z%d"
	DefaultInstancesName = "instances"
	DefaultBackupDir     = "_save_backup"
	DefaultCodec         = "proto"
	DefaultCompression   = "none"

	DefaultMaxListDepth = 256
	DefaultWarnRate     = 50
	DefaultWarnBurst    = 20

	DefaultCatalogDir    = "/var/lib/worldsave-server/catalog"
	DefaultCatalogRetain = 100
	DefaultCatalogGC     = 10 * time.Minute

	DefaultWorldWidth  = 255
	DefaultWorldHeight = 255
	DefaultWorldLayers = 1

	DefaultMetricsAddr = "127.0.0.1:9464"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	minPassphraseLen = 8
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Local: LocalConfig{
				Path: DefaultLocalSocket,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Snapshot: SnapshotSection{
			Extension:     DefaultExtension,
			LayerFormat:   DefaultLayerFormat,
			InstancesName: DefaultInstancesName,
			BackupDir:     DefaultBackupDir,
			Codec:         DefaultCodec,
			Compression:   DefaultCompression,
		},
		Encoder: EncoderSection{
			MaxListDepth: DefaultMaxListDepth,
			WarnRate:     DefaultWarnRate,
			WarnBurst:    DefaultWarnBurst,
		},
		Catalog: CatalogSection{
			Enabled:    true,
			Dir:        DefaultCatalogDir,
			Retain:     DefaultCatalogRetain,
			GCInterval: DefaultCatalogGC,
		},
		World: WorldSection{
			Width:  DefaultWorldWidth,
			Height: DefaultWorldHeight,
			Layers: DefaultWorldLayers,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Addr:    DefaultMetricsAddr,
		},
		Tracing: TracingSection{
			SampleRatio: 1,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
