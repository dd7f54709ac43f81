package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modoterra/alog/internal/buildinfo"
	"github.com/modoterra/alog/pkg/config"
	"github.com/modoterra/alog/pkg/host"
	"github.com/modoterra/alog/pkg/relay"
	"github.com/modoterra/alog/pkg/transport/udp"
	"github.com/modoterra/alog/pkg/transport/uds"
)

var (
	configPath string
	noViewer   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "alog-relay [flags] [-- command args...]",
	Short: "Broadcast log lines to alog-viewer over UDP",
	Long: `alog-relay timestamps log lines and broadcasts them on the local network,
one line per datagram. Lines come from a wrapped command (stdout as logs,
stderr as errors), from stdin when it is not a terminal, and from the files
and journal units listed in the config.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runRelay,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "relay.yaml", "config file path")
	rootCmd.Flags().BoolVar(&noViewer, "no-viewer", false, "do not launch alog-viewer")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ctlCmd)
	rootCmd.AddCommand(serviceCmd)
}

// --- Root: relay ---

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fixed := config.Sanitize(cfg)

	level := new(slog.LevelVar)
	lvl, _ := config.ParseLevel(cfg.LogLevel)
	level.Set(lvl)

	// The console handler prints everything. The bridge turns the
	// process's own log records into relayed lines; records tagged with
	// the relay's source name are not relayed again.
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	h := host.New()
	logger := slog.New(host.Tee(console, host.NewHandler(h, level)))
	slog.SetDefault(logger)
	relayLogger := logger.With(host.SourceKey, relay.SourceName)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := relay.New(relay.Options{
		Transport:    udp.NewSender(),
		Logger:       relayLogger,
		Echo:         relay.NewEcho(cfg.EchoSink, slog.New(console)),
		LogToConsole: cfg.LogToConsole,
		Launcher:     viewerLauncher(cfg, relayLogger),
	})
	r.Attach(h)
	for _, e := range fixed {
		relayLogger.Warn("config", "err", e)
	}

	relayLogger.Info("starting alog-relay", "version", buildinfo.Version, "port", cfg.Port)
	r.Start(cfg.Port)

	srv := uds.NewServer(cfg.ControlSocket, relayLogger)
	relay.RegisterControl(srv, r)
	go func() {
		if err := srv.Start(ctx); err != nil {
			relayLogger.Warn("control socket unavailable", "err", err)
		}
	}()
	defer srv.Shutdown()

	rl := &reloader{relay: r, level: level, logger: relayLogger, port: cfg.Port}
	go func() {
		if err := config.Watch(ctx, configPath, relayLogger, rl.apply); err != nil {
			relayLogger.Warn("config watch unavailable", "path", configPath, "err", err)
		}
	}()
	go rl.onHangup(ctx, configPath)

	startSources(ctx, h, cfg.Sources, relayLogger)
	startInput(ctx, h, args, relayLogger)

	<-ctx.Done()
	relayLogger.Info("shutting down")
	return r.Close()
}

// viewerLauncher returns nil when no viewer should be managed.
func viewerLauncher(cfg *config.Config, logger *slog.Logger) relay.ViewerLauncher {
	if noViewer || !cfg.Viewer.Launch {
		return nil
	}
	path, err := relay.ResolveViewer(cfg.Viewer.Path)
	if err != nil {
		logger.Warn("viewer not launched", "err", err)
		return nil
	}
	return relay.NewLauncher(path, cfg.Viewer.Terminal, logger)
}

func startSources(ctx context.Context, h *host.Host, sources []config.Source, logger *slog.Logger) {
	for _, s := range sources {
		s := s // per-iteration copy; go.mod targets go1.21 loop semantics
		switch s.Kind {
		case config.SourceFile:
			go follow(ctx, logger, "file", s.Path, func() error { return h.TailFile(ctx, s.Path) })
		case config.SourceJournal:
			go follow(ctx, logger, "journal", s.Unit, func() error { return h.FollowJournal(ctx, s.Unit) })
		}
	}
}

func follow(ctx context.Context, logger *slog.Logger, kind, name string, run func() error) {
	logger.Debug("following source", "kind", kind, "name", name)
	if err := run(); err != nil && ctx.Err() == nil {
		logger.Warn("source stopped", "kind", kind, "name", name, "err", err)
	}
}

// startInput wires the wrapped command, or stdin when it is piped. The
// relay keeps running after either ends so file and journal sources and
// the control socket stay available until a signal arrives.
func startInput(ctx context.Context, h *host.Host, args []string, logger *slog.Logger) {
	if len(args) > 0 {
		go func() {
			err := h.RunCommand(ctx, args)
			switch {
			case ctx.Err() != nil:
			case err != nil:
				logger.Warn("command exited", "cmd", args[0], "err", err)
			default:
				logger.Info("command exited", "cmd", args[0])
			}
		}()
		return
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	go func() {
		if err := h.ReadLines(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			logger.Warn("stdin closed", "err", err)
		}
	}()
}

// reloader applies a changed config to the running relay.
type reloader struct {
	mu     sync.Mutex
	relay  *relay.Relay
	level  *slog.LevelVar
	logger *slog.Logger
	port   int // last requested port
}

func (rl *reloader) apply(next *config.Config) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, e := range config.Sanitize(next) {
		rl.logger.Warn("config", "err", e)
	}
	if next.Port != rl.port {
		rl.port = next.Port
		rl.relay.Reconfigure(next.Port)
	}
	rl.relay.SetLogToConsole(next.LogToConsole)
	if lvl, err := config.ParseLevel(next.LogLevel); err == nil {
		rl.level.Set(lvl)
	}
}

func (rl *reloader) onHangup(ctx context.Context, path string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(path)
			if err != nil {
				rl.logger.Warn("reload failed", "path", path, "err", err)
				continue
			}
			rl.logger.Info("reloading config", "path", path)
			rl.apply(cfg)
		}
	}
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "alog-relay %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config file operations",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a relay config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		errs := config.Validate(cfg)
		out := cmd.OutOrStdout()
		if len(errs) == 0 {
			fmt.Fprintf(out, "%s: valid\n", path)
			return nil
		}
		for _, e := range errs {
			fmt.Fprintf(out, "  ✗ %s\n", e)
		}
		return fmt.Errorf("%s: %d problem(s)", path, len(errs))
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.Save(config.Default(), path); err != nil {
			return err
		}
		abs, _ := filepath.Abs(path)
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", abs)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
}
