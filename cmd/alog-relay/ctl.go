package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/modoterra/alog/pkg/config"
	"github.com/modoterra/alog/pkg/service"
	"github.com/modoterra/alog/pkg/transport/uds"
)

var socketPath string

// controlSocket prefers --socket, then the config file's control_socket.
func controlSocket() (string, error) {
	if socketPath != "" {
		return socketPath, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return cfg.ControlSocket, nil
}

// call dials the running relay, performs one request and hangs up.
func call(method string, in, out any) error {
	sock, err := controlSocket()
	if err != nil {
		return err
	}
	client, err := uds.Dial(sock)
	if err != nil {
		return fmt.Errorf("cannot connect to relay at %s: %w", sock, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Call(ctx, method, in, out)
}

func printStatus(w io.Writer, st uds.StatusResponse) {
	bound := "unbound"
	if st.Bound {
		bound = "bound"
	}
	if st.RebindPending {
		bound += " (rebind pending)"
	}
	echo := "off"
	if st.LogToConsole {
		echo = "on"
	}
	viewer := "not running"
	if st.ViewerPID > 0 {
		viewer = "pid " + strconv.Itoa(st.ViewerPID)
	}

	fmt.Fprintf(w, "port:     %d, %s\n", st.Port, bound)
	fmt.Fprintf(w, "echo:     %s\n", echo)
	fmt.Fprintf(w, "viewer:   %s\n", viewer)
	fmt.Fprintf(w, "lines:    %d sent, %d dropped, %d failed\n", st.Sent, st.Dropped, st.Failed)
}

// --- Ctl ---

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Talk to a running relay over its control socket",
}

var ctlPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the relay is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var pong uds.PingResponse
		if err := call(uds.MethodPing, nil, &pong); err != nil {
			return err
		}
		if pong.Pong {
			fmt.Fprintln(cmd.OutOrStdout(), "pong ✓")
		}
		return nil
	},
}

var ctlStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the relay's port, echo toggle and counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var st uds.StatusResponse
		if err := call(uds.MethodStatus, nil, &st); err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

var ctlPortCmd = &cobra.Command{
	Use:   "port <n>",
	Short: "Move the relay to another port (applied after the debounce delay)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		if !config.ValidPort(port) {
			return fmt.Errorf("port must be between %d and %d", config.MinPort, config.MaxPort)
		}
		var st uds.StatusResponse
		if err := call(uds.MethodSetPort, uds.SetPortRequest{Port: port}, &st); err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

var ctlEchoCmd = &cobra.Command{
	Use:       "echo <on|off>",
	Short:     "Turn console echo of relayed lines on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		var st uds.StatusResponse
		if err := call(uds.MethodSetEcho, uds.SetEchoRequest{Enabled: enabled}, &st); err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}

func init() {
	ctlCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "control socket path (default: control_socket from the config)")
	ctlCmd.AddCommand(ctlPingCmd)
	ctlCmd.AddCommand(ctlStatusCmd)
	ctlCmd.AddCommand(ctlPortCmd)
	ctlCmd.AddCommand(ctlEchoCmd)
}

// --- Service ---

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the alog-relay systemd user service",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the systemd user service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		u, err := serviceUnit()
		if err != nil {
			return err
		}
		if err := service.Install(u); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "alog-relay service installed and started")
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the systemd user service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := service.Uninstall(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "alog-relay service removed")
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the service and control socket state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sock, err := controlSocket()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), service.Status(sock))
		return nil
	},
}

// serviceUnit points the unit at this executable and, when it exists,
// the config file given with --config.
func serviceUnit() (service.Unit, error) {
	bin, err := os.Executable()
	if err != nil {
		return service.Unit{}, fmt.Errorf("cannot locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(bin); err == nil {
		bin = resolved
	}
	u := service.Unit{Binary: bin}
	if _, err := os.Stat(configPath); err == nil {
		if abs, err := filepath.Abs(configPath); err == nil {
			u.Config = abs
		}
	}
	return u, nil
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
}
