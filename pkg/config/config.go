// Package config loads the relay configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Port limits shared by the relay and the viewer.
const (
	MinPort     = 1024
	MaxPort     = 65535
	DefaultPort = 9999
)

// Echo sinks.
const (
	EchoSlog    = "slog"
	EchoJournal = "journal"
)

// Source kinds.
const (
	SourceFile    = "file"
	SourceJournal = "journal"
)

// Config represents a relay.yaml file.
type Config struct {
	Port          int      `yaml:"port"`
	LogToConsole  bool     `yaml:"log_to_console"`
	EchoSink      string   `yaml:"echo_sink"`
	LogLevel      string   `yaml:"log_level"`
	Viewer        Viewer   `yaml:"viewer"`
	ControlSocket string   `yaml:"control_socket"`
	Sources       []Source `yaml:"sources,omitempty"`

	// FilePath is where the config was loaded from. Not serialized.
	FilePath string `yaml:"-"`
}

// Viewer controls how the relay launches the viewer process.
type Viewer struct {
	Launch bool   `yaml:"launch"`
	Path   string `yaml:"path,omitempty"` // empty: next to the relay executable

	// Terminal is prepended to the viewer command line, e.g. ["xterm", "-e"],
	// so the viewer gets a window of its own.
	Terminal []string `yaml:"terminal,omitempty"`
}

// Source is an extra log source the relay host follows.
type Source struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path,omitempty"` // file
	Unit string `yaml:"unit,omitempty"` // journal
}

// Default returns a Config with the stock settings.
func Default() *Config {
	return &Config{
		Port:          DefaultPort,
		LogToConsole:  true,
		EchoSink:      EchoSlog,
		LogLevel:      "info",
		Viewer:        Viewer{Launch: true},
		ControlSocket: "/tmp/alog-relay.sock",
	}
}

// Load reads a config file. A missing file yields Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.FilePath = path
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.FilePath = path
	return cfg, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.EchoSink == "" {
		c.EchoSink = d.EchoSink
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ControlSocket == "" {
		c.ControlSocket = d.ControlSocket
	}
}
