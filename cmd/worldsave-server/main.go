package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/host/memory"
	"github.com/yndnr/worldsave-go/internal/core/service"
	"github.com/yndnr/worldsave-go/internal/infra/buildinfo"
	"github.com/yndnr/worldsave-go/internal/infra/confloader"
	"github.com/yndnr/worldsave-go/internal/infra/shutdown"
	"github.com/yndnr/worldsave-go/internal/server/config"
	"github.com/yndnr/worldsave-go/internal/server/entrypoint"
	"github.com/yndnr/worldsave-go/internal/server/httpserver"
	"github.com/yndnr/worldsave-go/internal/server/localserver"
	"github.com/yndnr/worldsave-go/internal/storage/catalog"
	"github.com/yndnr/worldsave-go/internal/storage/partition"
	"github.com/yndnr/worldsave-go/internal/telemetry/logger"
	"github.com/yndnr/worldsave-go/internal/telemetry/metric"
	"github.com/yndnr/worldsave-go/internal/telemetry/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("worldsave-server " + buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting worldsave-server",
		"version", buildinfo.Get().Version,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)

	if err := start(cfg, *configFile, log, shutdownHandler); err != nil {
		if herr := shutdownHandler.Abort("startup failed"); herr != nil {
			log.Error("startup cleanup failed", "error", herr)
		}
		return err
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// start brings up every component and registers its shutdown hook. On
// error the hooks registered so far are left for the caller to run.
func start(cfg *config.ServerConfig, configFile string, log logger.Logger, shutdownHandler *shutdown.Handler) error {
	// Startup order below; hooks run in reverse.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := metric.NewRegistry(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	opts, err := cfg.ServiceOptions(log)
	if err != nil {
		return err
	}
	opts.Metrics = metrics

	if cfg.Tracing.Enabled {
		tp := tracer.New(tracer.Config{
			ServiceName: "worldsave-server",
			SampleRatio: cfg.Tracing.SampleRatio,
			Logger:      log,
		})
		opts.Tracer = tp.Tracer()
		shutdownHandler.OnShutdown("tracer", tp.Shutdown)
	}

	if cfg.Catalog.Enabled {
		cat, err := catalog.Open(cfg.Catalog.CatalogConfig(), log)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		if err := cat.RegisterMetrics(reg); err != nil {
			cat.Close()
			return fmt.Errorf("register catalog metrics: %w", err)
		}
		opts.History = cat
		shutdownHandler.OnShutdown("catalog", func(context.Context) error {
			return cat.Close()
		})
	}

	world, err := loadWorld(cfg)
	if err != nil {
		return err
	}

	files, err := partition.NewManager(cfg.Snapshot.PartitionConfig(log))
	if err != nil {
		return fmt.Errorf("init snapshot files: %w", err)
	}
	shutdownHandler.OnShutdown("snapshot files", func(context.Context) error {
		return files.Close()
	})
	opts.Files = files

	ws, err := service.New(world, opts)
	if err != nil {
		return fmt.Errorf("init world save: %w", err)
	}
	if cfg.Snapshot.Path != "" {
		ws.SetPath(cfg.Snapshot.Path)
	}
	reg.MustRegister(metric.NewCollector(ws.LastSave))

	local := localserver.New(cfg.Server.Local.Path,
		localserver.NewHandler(entrypoint.New(ws, log)),
		localserver.WithLogger(log))
	if err := local.Listen(); err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Local.Path, err)
	}
	shutdownHandler.OnShutdown("local server", local.Shutdown)
	go func() {
		if err := local.Serve(); err != nil {
			log.Error("local server error", "error", err)
			shutdownHandler.Trigger("local server failed")
		}
	}()

	if cfg.Metrics.Enabled {
		rc := httpserver.DefaultRouterConfig()
		rc.Metrics = metric.Handler(metrics.Gatherer())
		rc.Ready = ws.Initialized
		rc.LastSave = ws.LastSave
		rc.Logger = log
		httpServer := httpserver.New(cfg.Metrics.Addr, httpserver.NewRouter(rc))
		shutdownHandler.OnShutdown("http server", httpServer.Shutdown)
		go func() {
			log.Info("HTTP server listening", "addr", cfg.Metrics.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP server error", "error", err)
				shutdownHandler.Trigger("http server failed")
			}
		}()
	}

	if configFile != "" {
		if err := watchLogLevel(configFile, log, shutdownHandler); err != nil {
			log.Warn("config watch disabled", "error", err)
		}
	}
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadWorld builds the hosted world from the fixture, or an empty world
// with the configured bounds.
func loadWorld(cfg *config.ServerConfig) (*memory.World, error) {
	if cfg.World.Fixture != "" {
		w, err := memory.LoadFixture(cfg.World.Fixture)
		if err != nil {
			return nil, fmt.Errorf("load world fixture: %w", err)
		}
		return w, nil
	}
	bounds := domain.Bounds{X: cfg.World.Width, Y: cfg.World.Height, Layers: cfg.World.Layers}
	return memory.NewWorld(bounds, cfg.Snapshot.Path), nil
}

// watchLogLevel re-reads the config file on change and applies log.level.
// Other settings need a restart.
func watchLogLevel(path string, log logger.Logger, h *shutdown.Handler) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return err
	}
	w.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	h.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	return nil
}
