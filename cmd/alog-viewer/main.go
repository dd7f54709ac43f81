package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modoterra/alog/internal/buildinfo"
	"github.com/modoterra/alog/pkg/config"
	tuimodel "github.com/modoterra/alog/pkg/tui/model"
	"github.com/modoterra/alog/pkg/viewer"
)

// Reasons the viewer stops, carried as the context's cause.
var (
	errUserExit     = errors.New("exit requested")
	errInterrupted  = errors.New("interrupted")
	errParentExited = errors.New("parent process exited")
)

var (
	plainMode bool
	logFile   string
	logLevel  string
)

func main() {
	rootCmd.SetArgs(launchArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "alog-viewer [port] [acceptRemote]",
	Short: "Show log lines broadcast by alog-relay",
	Long: `alog-viewer listens for alog-relay datagrams on the given UDP port
(default 9999) and prints them colored by severity. Continuation lines of a
multi-line record keep the record's color. Only datagrams from this host are
shown unless acceptRemote is true. Enter exits, Ctrl+L clears the screen.`,
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE:         runViewer,
}

func init() {
	rootCmd.Flags().BoolVar(&plainMode, "plain", false, "print lines to stdout instead of the full-screen UI")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write diagnostics to this file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "diagnostic log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "alog-viewer %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

func runViewer(cmd *cobra.Command, args []string) error {
	la, warnings := viewer.ParseLaunchArgs(args)

	logger, closeLog, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancelCause(cmd.Context())
	defer cancel(nil)
	go cancelOnSignal(ctx, cancel)

	s := newSession(la, logger)
	if useTUI() {
		err = runTUI(ctx, cancel, s, warnings)
	} else {
		err = runPlain(ctx, cancel, s, warnings)
	}
	logger.Info("viewer stopped", "reason", context.Cause(ctx))
	return err
}

// newLogger sends diagnostics to --log-file, to stderr in plain mode, and
// nowhere while the full-screen UI owns the terminal.
func newLogger(stderr io.Writer) (*slog.Logger, func(), error) {
	level, err := config.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }, nil
	case !useTUI():
		return slog.New(slog.NewTextHandler(stderr, opts)), func() {}, nil
	default:
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}, nil
	}
}

// useTUI reports whether the full-screen UI can own the terminal. A
// viewer launched without a window of its own has no terminal on stdin
// and falls back to plain output.
func useTUI() bool {
	return !plainMode && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func cancelOnSignal(ctx context.Context, cancel context.CancelCauseFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		cancel(fmt.Errorf("%w: %s", errInterrupted, sig))
	}
}

// runTUI hosts the session inside a bubbletea program. Everything the
// session prints is sent to the program as a message.
func runTUI(ctx context.Context, cancel context.CancelCauseFunc, s *session, warnings []string) error {
	p := tea.NewProgram(tuimodel.New(s.args.Port), tea.WithAltScreen())

	s.printer = tuimodel.ProgramPrinter{Program: p}
	s.onPhase = func(ph viewer.Phase) { p.Send(tuimodel.PhaseMsg(ph)) }
	s.onSupervision = func(state string) { p.Send(tuimodel.SupervisionMsg(state)) }

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.serve(ctx, cancel, warnings)
	}()
	go func() {
		<-ctx.Done()
		p.Send(tuimodel.StopMsg{Reason: context.Cause(ctx).Error()})
	}()

	final, err := p.Run()
	if app, ok := final.(tuimodel.App); ok && app.Exited() {
		cancel(errUserExit)
	} else {
		cancel(errInterrupted)
	}
	<-done
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// runPlain prints straight to stdout. On a terminal, stdin is switched
// to raw mode so single key presses arrive without Enter being echoed.
func runPlain(ctx context.Context, cancel context.CancelCauseFunc, s *session, warnings []string) error {
	pr := viewer.NewWriterPrinter(os.Stdout, termenv.EnvColorProfile())
	s.printer = pr

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if old, err := term.MakeRaw(fd); err == nil {
			defer term.Restore(fd, old)
			pr.SetCRLF(true)
		} else {
			s.logger.Warn("raw mode unavailable", "err", err)
		}
		go viewer.ReadKeys(os.Stdin, viewer.KeyHandlers{
			Exit: func() { cancel(errUserExit) },
			Clear: func() {
				pr.Clear()
				pr.Print(viewer.ClearedMessage, viewer.Green)
			},
			Interrupt: func() { cancel(errInterrupted) },
		})
	}

	s.serve(ctx, cancel, warnings)
	return nil
}
