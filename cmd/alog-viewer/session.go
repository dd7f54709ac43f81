package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modoterra/alog/pkg/parent"
	"github.com/modoterra/alog/pkg/transport/udp"
	"github.com/modoterra/alog/pkg/viewer"
)

// supervisionUnsupervised is shown in the status bar when no parent is
// watched.
const supervisionUnsupervised = "unsupervised"

// session is one viewer run: the parent watch, the socket and the
// receive loop, printing through whichever front end is active.
type session struct {
	args   viewer.LaunchArgs
	logger *slog.Logger

	printer       viewer.Printer
	onPhase       func(viewer.Phase)
	onSupervision func(string)

	listen        func(port int) (viewer.PacketSource, error)
	watch         func() (parent.Watcher, error)
	watchInterval time.Duration
	retryDelay    time.Duration
}

func newSession(la viewer.LaunchArgs, logger *slog.Logger) *session {
	return &session{
		args:   la,
		logger: logger,
		listen: func(port int) (viewer.PacketSource, error) {
			rx, err := udp.ListenPort(port)
			if err != nil {
				return nil, err
			}
			return rx, nil
		},
		watch:         parent.New,
		watchInterval: parent.DefaultInterval,
	}
}

// serve runs until ctx is done. A failed bind or a receive loop that
// gave up leaves the session idle rather than ending it, so the operator
// can still read what went wrong.
func (s *session) serve(ctx context.Context, cancel context.CancelCauseFunc, warnings []string) {
	for _, w := range warnings {
		s.printer.Print(w, viewer.Red)
	}

	s.superviseParent(ctx, cancel)

	rx, err := s.listen(s.args.Port)
	if err != nil {
		s.logger.Error("bind failed", "port", s.args.Port, "err", err)
		s.printer.Print(fmt.Sprintf("Error binding to port %d: %v", s.args.Port, err), viewer.Red)
		<-ctx.Done()
		return
	}
	s.printer.Print(viewer.StartedMessage, viewer.Green)

	v := viewer.New(viewer.Options{
		Source:       rx,
		Printer:      s.printer,
		AcceptRemote: s.args.AcceptRemote,
		RetryDelay:   s.retryDelay,
		Logger:       s.logger,
		OnPhase:      s.onPhase,
	})
	if err := v.Run(ctx); err != nil {
		s.logger.Error("receive loop ended", "err", err)
		<-ctx.Done()
	}
	rx.Close()
}

// superviseParent stops the session when the launching process exits.
// Without a usable parent the viewer keeps running on its own.
func (s *session) superviseParent(ctx context.Context, cancel context.CancelCauseFunc) {
	w, err := s.watch()
	if err != nil {
		s.logger.Warn("parent not watched", "err", err)
		s.printer.Print(fmt.Sprintf("Not supervised: %v", err), viewer.Yellow)
		s.supervision(supervisionUnsupervised)
		return
	}
	s.supervision(fmt.Sprintf("parent %d", w.PID()))

	loop := parent.NewLoop(w, s.watchInterval, s.logger)
	go func() {
		if loop.Run(ctx) {
			cancel(errParentExited)
		}
	}()
}

func (s *session) supervision(state string) {
	if s.onSupervision != nil {
		s.onSupervision(state)
	}
}
