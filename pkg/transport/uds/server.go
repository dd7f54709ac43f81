package uds

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
)

// HandlerFunc processes a request and returns a response data payload or error.
type HandlerFunc func(ctx context.Context, req Message) (any, error)

// Server listens on a Unix domain socket and dispatches NDJSON requests.
type Server struct {
	socketPath string
	listener   net.Listener
	handlers   map[string]HandlerFunc
	clients    map[net.Conn]struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewServer creates a new UDS server.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		handlers:   make(map[string]HandlerFunc),
		clients:    make(map[net.Conn]struct{}),
		logger:     logger,
	}
}

// Handle registers a handler for a method.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.mu.Lock()
	s.handlers[method] = h
	s.mu.Unlock()
}

// Start listens and serves until ctx is done. A stale socket file is
// removed first.
func (s *Server) Start(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.socketPath, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("control socket listening", "socket", s.socketPath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept error", "err", err)
			continue
		}
		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()
		go s.handleConn(ctx, conn)
	}
}

// Shutdown closes the listener and every client, then removes the socket.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.clients {
		conn.Close()
	}
	s.mu.Unlock()
	os.Remove(s.socketPath)
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.logger.Warn("invalid message", "err", err)
			continue
		}
		if msg.Type != MsgTypeReq {
			continue
		}
		s.writeMessage(conn, s.dispatch(ctx, msg))
	}
}

func (s *Server) dispatch(ctx context.Context, msg Message) Message {
	s.mu.RLock()
	handler, ok := s.handlers[msg.Method]
	s.mu.RUnlock()
	if !ok {
		return NewErrorResponse(msg.ID, msg.Method, fmt.Sprintf("unknown method: %s", msg.Method))
	}

	result, err := handler(ctx, msg)
	if err != nil {
		return NewErrorResponse(msg.ID, msg.Method, err.Error())
	}
	resp, err := NewResponse(msg.ID, msg.Method, result)
	if err != nil {
		return NewErrorResponse(msg.ID, msg.Method, err.Error())
	}
	return resp
}

func (s *Server) writeMessage(conn net.Conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal response", "err", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}
