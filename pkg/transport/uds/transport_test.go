package uds

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startServer(t *testing.T, register func(*Server)) string {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "test.sock")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	srv := NewServer(sock, logger)
	if register != nil {
		register(srv)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		srv.Shutdown()
		<-errCh
	})

	for i := 0; i < 50; i++ {
		if _, err := os.Stat(sock); err == nil {
			return sock
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("socket did not appear")
	return ""
}

func dial(t *testing.T, sock string) *Client {
	t.Helper()
	client, err := Dial(sock)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPingRoundTrip(t *testing.T) {
	sock := startServer(t, func(srv *Server) {
		srv.Handle(MethodPing, func(_ context.Context, _ Message) (any, error) {
			return PingResponse{Pong: true}, nil
		})
	})
	client := dial(t, sock)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var pong PingResponse
	if err := client.Call(ctx, MethodPing, nil, &pong); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !pong.Pong {
		t.Error("expected pong=true")
	}
}

func TestRequestPayload(t *testing.T) {
	got := make(chan int, 1)
	sock := startServer(t, func(srv *Server) {
		srv.Handle(MethodSetPort, func(_ context.Context, req Message) (any, error) {
			var in SetPortRequest
			if err := req.Decode(&in); err != nil {
				return nil, err
			}
			got <- in.Port
			return nil, nil
		})
	})
	client := dial(t, sock)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Call(ctx, MethodSetPort, SetPortRequest{Port: 12000}, nil); err != nil {
		t.Fatalf("set port: %v", err)
	}
	if p := <-got; p != 12000 {
		t.Errorf("expected port 12000, got %d", p)
	}

	if err := client.Call(ctx, MethodSetPort, nil, nil); err == nil {
		t.Error("expected error for missing payload")
	}
}

func TestHandlerError(t *testing.T) {
	sock := startServer(t, func(srv *Server) {
		srv.Handle(MethodSetEcho, func(_ context.Context, _ Message) (any, error) {
			return nil, errors.New("echo locked")
		})
	})
	client := dial(t, sock)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.Request(ctx, MethodSetEcho, SetEchoRequest{Enabled: true})
	if err == nil {
		t.Fatal("expected handler error")
	}
	if resp.Error != "echo locked" {
		t.Errorf("expected error text, got %q", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	sock := startServer(t, nil)
	client := dial(t, sock)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := client.Request(ctx, "NoSuchMethod", nil); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestRequestAfterServerShutdown(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "test.sock")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := NewServer(sock, logger)
	srv.Handle(MethodPing, func(_ context.Context, _ Message) (any, error) {
		return PingResponse{Pong: true}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Start(ctx)
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(sock); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	client := dial(t, sock)
	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()
	if _, err := client.Request(reqCtx, MethodPing, nil); err != nil {
		t.Fatalf("ping: %v", err)
	}

	cancel()
	srv.Shutdown()

	if _, err := client.Request(reqCtx, MethodPing, nil); err == nil {
		t.Error("expected error after shutdown")
	}
}
