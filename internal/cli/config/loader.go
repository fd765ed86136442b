package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".worldsave", "cli.yaml")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults; keys absent from the file keep their default values.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, domain.ErrFilesystem.WithDetailsf("read %s", path).WithCause(err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.ErrConfiguration.WithDetailsf("parse %s", path).WithCause(err)
	}
	return cfg, nil
}

// Save saves CLI configuration to file with mode 0600.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return domain.ErrFilesystem.WithDetails("create config directory").WithCause(err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return domain.ErrInternal.WithDetails("encode cli config").WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return domain.ErrFilesystem.WithDetailsf("write %s", path).WithCause(err)
	}
	return nil
}

// HistoryPath returns the shell history file, defaulting to a file next
// to the CLI config.
func (c *CLIConfig) HistoryPath() string {
	if c.HistoryFile != "" {
		return c.HistoryFile
	}
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "history")
}
