// Package service installs alog-relay as a systemd user service.
package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const unitName = "alog-relay.service"

// Unit describes the service to install.
type Unit struct {
	Binary string // absolute path of alog-relay
	Config string // absolute path of relay.yaml, optional
}

// Contents returns the systemd unit file. The relay reports readiness
// with sd_notify, so the unit is Type=notify. A service has no terminal,
// so the viewer is never launched from it.
func (u Unit) Contents() string {
	cmdline := u.Binary + " --no-viewer"
	if u.Config != "" {
		cmdline += " --config " + u.Config
	}
	return fmt.Sprintf(`[Unit]
Description=alog relay, broadcasts host logs over UDP

[Service]
Type=notify
ExecStart=%s
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, cmdline)
}

// UnitPath returns the path to the systemd user unit file.
func UnitPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user", unitName), nil
}

// Install writes the unit file, reloads systemd, and enables+starts the service.
func Install(u Unit) error {
	if !filepath.IsAbs(u.Binary) {
		return fmt.Errorf("binary path must be absolute: %s", u.Binary)
	}

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}
	if err := WriteUnit(u, unitPath); err != nil {
		return err
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", unitName)
}

// WriteUnit writes the unit file to path, creating its directory.
func WriteUnit(u Unit, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(u.Contents()), 0o644); err != nil {
		return fmt.Errorf("cannot write unit file: %w", err)
	}
	return nil
}

// Uninstall stops+disables the service, removes the unit file, and reloads systemd.
func Uninstall() error {
	// Best-effort; the service may not be running.
	_ = systemctl("stop", unitName)
	_ = systemctl("disable", unitName)

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}

	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove unit file: %w", err)
	}

	return systemctl("daemon-reload")
}

// Status returns a human-readable status string.
func Status(socketPath string) string {
	var lines []string

	if _, err := os.Stat(socketPath); err == nil {
		lines = append(lines, "control socket: active ("+socketPath+")")
	} else {
		lines = append(lines, "control socket: inactive ("+socketPath+")")
	}

	unitPath, err := UnitPath()
	if err == nil {
		if _, statErr := os.Stat(unitPath); statErr == nil {
			out, runErr := exec.Command("systemctl", "--user", "is-active", unitName).Output()
			state := strings.TrimSpace(string(out))
			if runErr != nil && state == "" {
				state = "unknown"
			}
			lines = append(lines, "systemd user service: "+state)
		} else {
			lines = append(lines, "systemd user service: not installed")
		}
	}

	return strings.Join(lines, "\n")
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl --user %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
