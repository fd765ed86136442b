package config

import (
	"github.com/yndnr/worldsave-go/internal/core/service"
	"github.com/yndnr/worldsave-go/internal/storage/catalog"
	"github.com/yndnr/worldsave-go/internal/storage/codec"
	"github.com/yndnr/worldsave-go/internal/storage/partition"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// PartitionConfig returns the file manager settings for this section.
func (s SnapshotSection) PartitionConfig(log logger.Logger) partition.Config {
	cfg := partition.Config{
		Extension:     s.Extension,
		LayerFormat:   s.LayerFormat,
		InstancesName: s.InstancesName,
		BackupDir:     s.BackupDir,
		Compression:   s.Compression,
		Logger:        log,
	}
	if s.Passphrase != "" {
		cfg.Passphrase = []byte(s.Passphrase)
	}
	return cfg
}

// CatalogConfig returns the catalog store settings for this section.
func (c CatalogSection) CatalogConfig() catalog.Config {
	cfg := catalog.DefaultConfig(c.Dir)
	cfg.Retain = c.Retain
	cfg.GCInterval = c.GCInterval
	return cfg
}

// ServiceOptions fills the encoder and codec settings of service.Options.
// Files, History and the telemetry fields are left to the caller.
func (cfg *ServerConfig) ServiceOptions(log logger.Logger) (service.Options, error) {
	c, err := codec.Lookup(cfg.Snapshot.Codec)
	if err != nil {
		return service.Options{}, err
	}
	filter, err := service.NewFieldFilter(cfg.Encoder.SkipFields)
	if err != nil {
		return service.Options{}, err
	}
	return service.Options{
		Codec:        c,
		MaxListDepth: cfg.Encoder.MaxListDepth,
		Filter:       filter,
		WarnRate:     cfg.Encoder.WarnRate,
		WarnBurst:    cfg.Encoder.WarnBurst,
		SkipRestore:  cfg.World.SkipRestore,
		Logger:       log,
	}, nil
}
