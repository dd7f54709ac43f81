package uds

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ErrClosed is returned for requests on a closed or dropped connection.
var ErrClosed = errors.New("connection closed")

// Client connects to the relay control socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
	pending map[string]chan Message
	done    chan struct{}
	once    sync.Once
}

// Dial connects to the control socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	c := &Client{
		conn:    conn,
		scanner: bufio.NewScanner(conn),
		pending: make(map[string]chan Message),
		done:    make(chan struct{}),
	}
	c.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	go c.readLoop()
	return c, nil
}

// Request sends a request and waits for the correlated response.
func (c *Client) Request(ctx context.Context, method string, data any) (Message, error) {
	msg, err := NewRequest(method, data)
	if err != nil {
		return Message{}, err
	}

	ch := make(chan Message, 1)
	c.mu.Lock()
	c.pending[msg.ID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	raw, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}
	raw = append(raw, '\n')

	if _, err := c.conn.Write(raw); err != nil {
		return Message{}, fmt.Errorf("write: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return resp, fmt.Errorf("server error: %s", resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-c.done:
		return Message{}, ErrClosed
	}
}

// Call is Request followed by decoding the response payload into out.
// A nil out discards the payload.
func (c *Client) Call(ctx context.Context, method string, in, out any) error {
	resp, err := c.Request(ctx, method, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer c.once.Do(func() { close(c.done) })

	for c.scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(c.scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Type != MsgTypeRes {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}
