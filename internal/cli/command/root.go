package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/worldsave-go/internal/cli/config"
	"github.com/yndnr/worldsave-go/internal/cli/output"
	"github.com/yndnr/worldsave-go/internal/infra/buildinfo"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

const (
	metaProfile = "profile"
	metaLogger  = "logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "worldsave-cli",
		Usage:   "Save, load and inspect world snapshots",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SaveCommand(),
			LoadCommand(),
			InspectCommand(),
			HistoryCommand(),
			CallCommand(),
			ShellCommand(),
			StatusCommand(),
		},
		Before: before,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "profile",
			Usage:   "CLI profile file",
			EnvVars: []string{"WORLDSAVE_CLI_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "worldsave-server config file for snapshot and encoder settings",
			EnvVars: []string{"WORLDSAVE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "socket",
			Usage:   "entry-point socket of a running server",
			EnvVars: []string{"WORLDSAVE_SOCKET"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "HTTP address of a running server",
			EnvVars: []string{"WORLDSAVE_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log debug output to stderr",
		},
	}
}

// before loads the profile and fills global flags the user did not set.
func before(c *cli.Context) error {
	profile, err := cliconfig.Load(c.String("profile"))
	if err != nil {
		return err
	}
	defaults := map[string]string{
		"config": profile.ServerConfig,
		"socket": profile.Socket,
		"server": profile.Server,
		"output": profile.Output,
	}
	for name, v := range defaults {
		if !c.IsSet(name) && v != "" {
			if err := c.Set(name, v); err != nil {
				return err
			}
		}
	}
	if _, err := output.ParseFormat(c.String("output")); err != nil {
		return err
	}

	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "text", Output: c.App.ErrWriter})
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metaProfile] = profile
	c.App.Metadata[metaLogger] = log
	return nil
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	Socket  string
	Server  string
	Output  output.Format
	Wide    bool
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Config:  c.String("config"),
		Socket:  c.String("socket"),
		Server:  c.String("server"),
		Output:  format,
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
}

func profileOf(c *cli.Context) *cliconfig.CLIConfig {
	if p, ok := c.App.Metadata[metaProfile].(*cliconfig.CLIConfig); ok {
		return p
	}
	return cliconfig.Default()
}

func loggerOf(c *cli.Context) logger.Logger {
	if l, ok := c.App.Metadata[metaLogger].(logger.Logger); ok {
		return l
	}
	return logger.Discard()
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// render prints data in the selected output format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	return output.NewFormatter(flags.Output, flags.Wide).Format(stdout(c), data)
}

// PrintError prints an error message to stderr.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}
