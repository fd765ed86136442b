package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/worldsave-go/internal/cli/output"
	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/host"
	"github.com/yndnr/worldsave-go/internal/core/host/memory"
	"github.com/yndnr/worldsave-go/internal/core/service"
	"github.com/yndnr/worldsave-go/internal/infra/confloader"
	"github.com/yndnr/worldsave-go/internal/server/config"
	"github.com/yndnr/worldsave-go/internal/storage/catalog"
	"github.com/yndnr/worldsave-go/internal/storage/partition"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
)

// offline carries what the snapshot commands share: the effective server
// configuration and a file manager built from it.
type offline struct {
	cfg   *config.ServerConfig
	files *partition.Manager
	log   logger.Logger
}

func openOffline(c *cli.Context) (*offline, error) {
	cfg := config.Default()
	var opts []confloader.Option
	if path := ParseGlobalFlags(c).Config; path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, domain.ErrConfiguration.WithDetails("load config").WithCause(err)
	}
	if c.IsSet("codec") {
		cfg.Snapshot.Codec = c.String("codec")
	}
	if c.IsSet("compression") {
		cfg.Snapshot.Compression = c.String("compression")
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}

	log := loggerOf(c)
	files, err := partition.NewManager(cfg.Snapshot.PartitionConfig(log))
	if err != nil {
		return nil, err
	}
	return &offline{cfg: cfg, files: files, log: log}, nil
}

func (o *offline) Close() error { return o.files.Close() }

func (o *offline) worldSave(h host.Host, history service.SaveHistory) (*service.WorldSave, error) {
	opts, err := o.cfg.ServiceOptions(o.log)
	if err != nil {
		return nil, err
	}
	opts.Files = o.files
	opts.History = history
	return service.New(h, opts)
}

// dir resolves the snapshot directory from --dir, then snapshot.path.
func (o *offline) dir(c *cli.Context) (string, error) {
	if d := c.String("dir"); d != "" {
		return d, nil
	}
	if o.cfg.Snapshot.Path != "" {
		return o.cfg.Snapshot.Path, nil
	}
	return "", domain.ErrInvalidArgument.WithDetails("no snapshot directory: pass --dir or set snapshot.path")
}

var (
	dirFlag = &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Usage:   "snapshot directory",
	}
	catalogFlag = &cli.StringFlag{
		Name:  "catalog",
		Usage: "save history directory (default from profile)",
	}
)

func catalogDir(c *cli.Context) string {
	if d := c.String("catalog"); d != "" {
		return d
	}
	return profileOf(c).CatalogDir
}

func openCatalog(c *cli.Context) (*catalog.Catalog, error) {
	cfg := catalog.DefaultConfig(catalogDir(c))
	cfg.GCInterval = 0
	return catalog.Open(cfg, loggerOf(c))
}

// SaveCommand encodes a fixture world into a snapshot.
func SaveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Encode a YAML world fixture into a snapshot directory",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "world",
				Usage:    "world fixture file",
				Required: true,
			},
			dirFlag,
			&cli.StringFlag{Name: "codec", Usage: "proto or msgpack"},
			&cli.StringFlag{Name: "compression", Usage: "none or zstd"},
			&cli.BoolFlag{Name: "record", Usage: "record the save in the catalog"},
			catalogFlag,
			&cli.BoolFlag{Name: "show-warnings", Usage: "list every dropped node"},
		},
		Action: runSave,
	}
}

type saveReport struct {
	Summary  *domain.SaveSummary `json:"summary" yaml:"summary"`
	Warnings domain.Warnings     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func runSave(c *cli.Context) error {
	off, err := openOffline(c)
	if err != nil {
		return err
	}
	defer off.Close()

	world, err := memory.LoadFixture(c.String("world"))
	if err != nil {
		return domain.ErrConfiguration.WithDetails("read world").WithCause(err)
	}
	if d := c.String("dir"); d != "" {
		world.SetSavePath(d)
	} else if off.cfg.Snapshot.Path != "" {
		world.SetSavePath(off.cfg.Snapshot.Path)
	}

	var history service.SaveHistory
	if c.Bool("record") {
		cat, err := openCatalog(c)
		if err != nil {
			return err
		}
		defer cat.Close()
		history = cat
	}

	ws, err := off.worldSave(world, history)
	if err != nil {
		return err
	}

	progress := io.Discard
	if ParseGlobalFlags(c).Output == output.FormatTable {
		progress = stderr(c)
	}
	spin := output.NewSpinner(progress, "saving world")
	spin.Start()
	res, err := ws.Save(c.Context)
	if err != nil {
		spin.Fail("save failed")
		return err
	}
	spin.Stop()

	return renderSave(c, res)
}

func renderSave(c *cli.Context, res *service.SaveResult) error {
	showWarnings := c.Bool("show-warnings")
	if ParseGlobalFlags(c).Output != output.FormatTable {
		report := saveReport{Summary: res.Summary}
		if showWarnings {
			report.Warnings = res.Warnings
		}
		return render(c, report)
	}

	if err := render(c, res.Summary); err != nil {
		return err
	}
	if len(res.Warnings) == 0 {
		return nil
	}
	if !showWarnings {
		fmt.Fprintf(stderr(c), "%d nodes were not saved; rerun with --show-warnings to list them\n", len(res.Warnings))
		return nil
	}
	fmt.Fprintln(stdout(c))
	return render(c, res.Warnings)
}

// LoadCommand decodes a snapshot.
func LoadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Decode a snapshot and report its contents",
		Flags: []cli.Flag{
			dirFlag,
			&cli.StringFlag{
				Name:  "export",
				Usage: "write the loaded world as a YAML fixture",
			},
		},
		Action: runLoad,
	}
}

type loadReport struct {
	Path      string        `json:"path" yaml:"path"`
	Bounds    domain.Bounds `json:"bounds" yaml:"bounds" table:"-"`
	Layers    int           `json:"layers" yaml:"layers"`
	Instances int           `json:"instances" yaml:"instances"`
	Cells     int           `json:"cells" yaml:"cells"`
	Roots     int           `json:"roots" yaml:"roots"`
	Export    string        `json:"export,omitempty" yaml:"export,omitempty"`
}

func runLoad(c *cli.Context) error {
	off, err := openOffline(c)
	if err != nil {
		return err
	}
	defer off.Close()

	dir, err := off.dir(c)
	if err != nil {
		return err
	}
	target := memory.NewWorld(domain.Bounds{}, dir)
	ws, err := off.worldSave(target, nil)
	if err != nil {
		return err
	}
	w, err := ws.Load(c.Context)
	if err != nil {
		return err
	}

	report := loadReport{
		Path:      dir,
		Bounds:    w.Bounds,
		Layers:    len(w.Layers),
		Instances: len(w.Instances),
		Cells:     w.CellCount(),
		Roots:     len(w.Roots),
	}
	if path := c.String("export"); path != "" {
		if err := exportFixture(path, target); err != nil {
			return err
		}
		report.Export = path
	}
	return render(c, report)
}

func exportFixture(path string, w *memory.World) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.ErrFilesystem.WithDetails("create export directory").WithCause(err)
	}
	f, err := os.Create(path)
	if err != nil {
		return domain.ErrFilesystem.WithDetailsf("create %s", path).WithCause(err)
	}
	if err := memory.WriteFixture(f, w); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return domain.ErrFilesystem.WithDetailsf("write %s", path).WithCause(err)
	}
	return nil
}

// InspectCommand describes snapshot files.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "Verify checksums and print snapshot file headers",
		Flags:  []cli.Flag{dirFlag},
		Action: runInspect,
	}
}

type fileRow struct {
	File        string    `json:"file" yaml:"file"`
	Kind        string    `json:"kind" yaml:"kind"`
	Layer       int       `json:"layer" yaml:"layer"`
	Records     int       `json:"records" yaml:"records"`
	Codec       string    `json:"codec" yaml:"codec"`
	Compression string    `json:"compression" yaml:"compression"`
	Encrypted   bool      `json:"encrypted" yaml:"encrypted"`
	Size        int64     `json:"size" yaml:"size" table:"bytes"`
	RunID       string    `json:"run_id" yaml:"run_id" table:"wide"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at" table:"wide"`
}

func runInspect(c *cli.Context) error {
	off, err := openOffline(c)
	if err != nil {
		return err
	}
	defer off.Close()

	dir, err := off.dir(c)
	if err != nil {
		return err
	}
	infos, err := off.files.Inspect(dir)
	rows := make([]fileRow, 0, len(infos))
	for _, fi := range infos {
		h := fi.Header
		rows = append(rows, fileRow{
			File:        filepath.Base(fi.Path),
			Kind:        h.Kind,
			Layer:       h.Layer,
			Records:     h.Records,
			Codec:       h.Codec,
			Compression: h.Compression,
			Encrypted:   h.Encrypted,
			Size:        fi.Size,
			RunID:       h.RunID,
			CreatedAt:   time.UnixMilli(h.CreatedAt).UTC(),
		})
	}
	if rerr := render(c, rows); rerr != nil {
		return rerr
	}
	return err
}

// HistoryCommand lists recorded saves.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List saves recorded in the catalog, newest first",
		Flags: []cli.Flag{
			catalogFlag,
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "maximum records"},
		},
		Action: runHistory,
	}
}

func runHistory(c *cli.Context) error {
	cat, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()
	records, err := cat.List(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	return render(c, records)
}
