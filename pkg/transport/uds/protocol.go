// Package uds implements the relay control socket: newline-delimited JSON
// requests and responses over a Unix domain socket.
package uds

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

var reqCounter atomic.Uint64

// MsgType identifies the kind of message.
type MsgType string

const (
	MsgTypeReq MsgType = "req"
	MsgTypeRes MsgType = "res"
)

// Message is the NDJSON envelope for all communication.
type Message struct {
	Type   MsgType         `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NewRequest creates a request message with a unique ID.
func NewRequest(method string, data any) (Message, error) {
	raw, err := encode(data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:   MsgTypeReq,
		ID:     fmt.Sprintf("req-%d", reqCounter.Add(1)),
		Method: method,
		Data:   raw,
	}, nil
}

// NewResponse creates a response to a request.
func NewResponse(reqID, method string, data any) (Message, error) {
	raw, err := encode(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: MsgTypeRes, ID: reqID, Method: method, Data: raw}, nil
}

// NewErrorResponse creates an error response.
func NewErrorResponse(reqID, method, errMsg string) Message {
	return Message{Type: MsgTypeRes, ID: reqID, Method: method, Error: errMsg}
}

// Decode unmarshals the message payload into v. An empty payload is an
// error.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: missing data", m.Method)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%s: decode data: %w", m.Method, err)
	}
	return nil
}

func encode(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Methods
const (
	MethodPing    = "Ping"
	MethodStatus  = "Status"
	MethodSetPort = "SetPort"
	MethodSetEcho = "SetEcho"
)

// PingResponse is the response to a Ping request.
type PingResponse struct {
	Pong bool `json:"pong"`
}

// StatusResponse describes the running relay.
type StatusResponse struct {
	Port          int    `json:"port"`
	Bound         bool   `json:"bound"`
	LogToConsole  bool   `json:"log_to_console"`
	RebindPending bool   `json:"rebind_pending"`
	ViewerPID     int    `json:"viewer_pid"`
	Sent          uint64 `json:"sent"`
	Dropped       uint64 `json:"dropped"`
	Failed        uint64 `json:"failed"`
}

// SetPortRequest asks the relay to move to another port.
type SetPortRequest struct {
	Port int `json:"port"`
}

// SetEchoRequest turns local echo on or off.
type SetEchoRequest struct {
	Enabled bool `json:"enabled"`
}
