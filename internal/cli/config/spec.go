package config

// CLIConfig is the configuration for worldsave-cli.
type CLIConfig struct {
	// Socket is the entry-point socket of a running server.
	Socket string `yaml:"socket"`
	// Server is the HTTP address of a running server.
	Server string `yaml:"server"`
	// Output is the default output format: table, json or yaml.
	Output string `yaml:"output"`
	// ServerConfig is the worldsave-server config file whose snapshot and
	// encoder settings offline commands use.
	ServerConfig string `yaml:"server_config"`
	// CatalogDir is the save history store read by the history command.
	CatalogDir string `yaml:"catalog_dir"`
	// HistoryFile stores shell history.
	HistoryFile string `yaml:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Socket:     "/var/run/worldsave-server/worldsave.sock",
		Server:     "http://127.0.0.1:9464",
		Output:     "table",
		CatalogDir: "/var/lib/worldsave-server/catalog",
	}
}
