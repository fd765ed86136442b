package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/worldsave-go/internal/cli/connection"
	"github.com/yndnr/worldsave-go/internal/cli/repl"
	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/server/entrypoint"
)

// entryNames lists the entry points a server exposes, for completion.
var entryNames = []string{entrypoint.Init, entrypoint.Load, entrypoint.Ping, entrypoint.Save}

func dialSocket(c *cli.Context) (*connection.SocketClient, error) {
	path := ParseGlobalFlags(c).Socket
	if path == "" {
		return nil, domain.ErrConfiguration.WithDetails("no server socket: pass --socket or set socket in the profile")
	}
	client := connection.NewSocketClient(path)
	if err := client.Connect(c.Context); err != nil {
		return nil, err
	}
	loggerOf(c).Debug("connected", "socket", path)
	return client, nil
}

// CallCommand invokes one entry point on a running server.
func CallCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Invoke a server entry point and print its status",
		ArgsUsage: "<entry> [args...]",
		Description: fmt.Sprintf("Entries: %s, %s, %s, %s.\n   Example: worldsave-cli call %s path=/srv/world",
			entrypoint.Init, entrypoint.Save, entrypoint.Load, entrypoint.Ping, entrypoint.Init),
		Action: runCall,
	}
}

func runCall(c *cli.Context) error {
	if c.NArg() < 1 {
		return domain.ErrInvalidArgument.WithDetails("entry name required")
	}
	client, err := dialSocket(c)
	if err != nil {
		return err
	}
	defer client.Close()

	args := c.Args().Slice()
	status, err := client.Call(c.Context, args[0], args[1:]...)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout(c), status)
	if status == entrypoint.StatusFailed {
		return cli.Exit("", 2)
	}
	return nil
}

// ShellCommand starts an interactive session against a running server.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive session with a running server",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-history", Usage: "do not read or write the history file"},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	client, err := dialSocket(c)
	if err != nil {
		return err
	}
	defer client.Close()

	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}
	opts := []repl.Option{repl.WithIO(in, stdout(c))}
	if !c.Bool("no-history") {
		opts = append(opts, repl.WithHistory(repl.NewHistory(profileOf(c).HistoryPath())))
	}
	return repl.New(client, entryNames, opts...).Run(c.Context)
}

// StatusCommand reports server health and the last save.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show server health and the most recent save",
		Action: runStatus,
	}
}

type statusReport struct {
	Server   string        `json:"server" yaml:"server"`
	Status   string        `json:"status" yaml:"status"`
	Version  string        `json:"version" yaml:"version"`
	RunID    string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Path     string        `json:"path,omitempty" yaml:"path,omitempty"`
	SavedAt  time.Time     `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty" table:"wide"`
	Warnings int           `json:"warnings" yaml:"warnings"`
}

func runStatus(c *cli.Context) error {
	server := ParseGlobalFlags(c).Server
	if server == "" {
		return domain.ErrConfiguration.WithDetails("no server address: pass --server or set server in the profile")
	}
	client := connection.NewHTTPClient(server)

	health, err := client.Health(c.Context)
	if err != nil {
		return err
	}
	report := statusReport{Server: client.BaseURL()}
	report.Status, _ = health["status"].(string)
	report.Version, _ = health["version"].(string)

	last, err := client.LastSave(c.Context)
	if err != nil {
		loggerOf(c).Debug("no last save", "error", err)
	} else {
		report.RunID = last.RunID
		report.Path = last.Path
		report.SavedAt = last.CreatedAt
		report.Duration = last.Duration
		report.Warnings = last.Warnings
	}
	return render(c, report)
}
