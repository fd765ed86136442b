package config

import (
	"strings"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/service"
	"github.com/yndnr/worldsave-go/internal/storage/codec"
	"github.com/yndnr/worldsave-go/internal/storage/partition"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySnapshot(&cfg.Snapshot); err != nil {
		return err
	}
	if err := verifyEncoder(&cfg.Encoder); err != nil {
		return err
	}
	if err := verifyCatalog(&cfg.Catalog); err != nil {
		return err
	}
	if err := verifyWorld(&cfg.World); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return invalid("metrics.addr is required when metrics are enabled")
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return invalid("tracing.sample_ratio must be within [0, 1]")
	}
	return verifyLog(&cfg.Log)
}

func invalid(msg string) error {
	return domain.ErrConfiguration.WithDetails(msg)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Local.Path == "" {
		return invalid("server.local.path is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		return invalid("server.shutdown_timeout must be positive")
	}
	return nil
}

func verifySnapshot(cfg *SnapshotSection) error {
	if _, err := codec.Lookup(cfg.Codec); err != nil {
		return domain.ErrConfiguration.WithDetailsf("snapshot.codec %q: expected one of %s",
			cfg.Codec, strings.Join(codec.Names(), ", "))
	}
	switch cfg.Compression {
	case partition.CompressionNone, partition.CompressionZstd:
	default:
		return domain.ErrConfiguration.WithDetailsf("snapshot.compression %q: expected none or zstd", cfg.Compression)
	}
	if cfg.Passphrase != "" && len(cfg.Passphrase) < minPassphraseLen {
		return domain.ErrConfiguration.WithDetailsf("snapshot.passphrase must be at least %d characters", minPassphraseLen)
	}
	if cfg.Extension == "" || strings.ContainsAny(cfg.Extension, `/\`) {
		return invalid("snapshot.extension must be a non-empty file extension")
	}
	if strings.Count(cfg.LayerFormat, "%d") != 1 {
		return invalid("snapshot.layer_format must contain exactly one %d")
	}
	if cfg.InstancesName == "" || cfg.BackupDir == "" {
		return invalid("snapshot.instances_name and snapshot.backup_dir are required")
	}
	return nil
}

func verifyEncoder(cfg *EncoderSection) error {
	if cfg.MaxListDepth < 1 {
		return invalid("encoder.max_list_depth must be at least 1")
	}
	if cfg.WarnRate < 0 || cfg.WarnBurst < 0 {
		return invalid("encoder.warn_rate and encoder.warn_burst must not be negative")
	}
	if _, err := service.NewFieldFilter(cfg.SkipFields); err != nil {
		return err
	}
	return nil
}

func verifyCatalog(cfg *CatalogSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return invalid("catalog.dir is required when the catalog is enabled")
	}
	if cfg.Retain < 0 {
		return invalid("catalog.retain must not be negative")
	}
	return nil
}

func verifyWorld(cfg *WorldSection) error {
	if cfg.Fixture != "" {
		return nil
	}
	if cfg.Width < 1 || cfg.Height < 1 || cfg.Layers < 1 {
		return invalid("world.width, world.height and world.layers must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return domain.ErrConfiguration.WithDetailsf("log.level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return domain.ErrConfiguration.WithDetailsf("log.format %q", cfg.Format)
	}
	return nil
}
