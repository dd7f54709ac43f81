package relay

import (
	"context"
	"fmt"

	"github.com/modoterra/alog/pkg/config"
	"github.com/modoterra/alog/pkg/transport/uds"
)

// RegisterControl serves the relay's control methods on srv.
func RegisterControl(srv *uds.Server, r *Relay) {
	srv.Handle(uds.MethodPing, func(_ context.Context, _ uds.Message) (any, error) {
		return uds.PingResponse{Pong: true}, nil
	})

	srv.Handle(uds.MethodStatus, func(_ context.Context, _ uds.Message) (any, error) {
		return r.status(), nil
	})

	srv.Handle(uds.MethodSetPort, func(_ context.Context, req uds.Message) (any, error) {
		var in uds.SetPortRequest
		if err := req.Decode(&in); err != nil {
			return nil, err
		}
		if !config.ValidPort(in.Port) {
			return nil, fmt.Errorf("port must be between %d and %d, got %d", config.MinPort, config.MaxPort, in.Port)
		}
		r.Reconfigure(in.Port)
		return r.status(), nil
	})

	srv.Handle(uds.MethodSetEcho, func(_ context.Context, req uds.Message) (any, error) {
		var in uds.SetEchoRequest
		if err := req.Decode(&in); err != nil {
			return nil, err
		}
		r.SetLogToConsole(in.Enabled)
		return r.status(), nil
	})
}

func (r *Relay) status() uds.StatusResponse {
	st := r.Stats()
	return uds.StatusResponse{
		Port:          r.Port(),
		Bound:         r.Bound(),
		LogToConsole:  r.LogToConsole(),
		RebindPending: r.ReconfigurePending(),
		ViewerPID:     r.ViewerPID(),
		Sent:          st.Sent,
		Dropped:       st.Dropped,
		Failed:        st.Failed,
	}
}
