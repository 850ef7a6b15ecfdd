// Package config loads the YAML-driven configuration surface described in
// spec §6: the idle-read timeout, the wire framing mode, the accept
// backlog, and the TCP_NODELAY/SO_REUSEADDR toggle. Loading is YAML-file
// based rather than environment-variable based, following
// GandalftheGUI-grove's project.yaml/grove.yaml convention rather than
// scrypster-memento's MEMENTO_-prefixed env vars, since no corpus env-var
// prefix is protocol-agnostic enough for a standalone transport library.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-jsonrpc2/tcp/rpc"
)

// ServerConfig contains the listening side's settings.
type ServerConfig struct {
	Address string `yaml:"address"` // host:port to listen on (default: ":7650")
	Backlog int    `yaml:"backlog"` // max concurrently-served connections (default: 256)
}

// Duration parses the way time.ParseDuration does ("30s", "5m") from a YAML
// scalar, since yaml.v3 has no built-in notion of time.Duration (its
// underlying type is int64, which yaml.v3 would otherwise try to parse the
// string as).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// TransportConfig contains the wire-level settings shared by client and
// server.
type TransportConfig struct {
	Framing   string   `yaml:"framing"`    // "newline" | "jsonpos" | "brute" (default: "newline")
	Timeout   Duration `yaml:"timeout"`    // idle-read timeout (default: 5s)
	NoDelay   bool     `yaml:"no_delay"`   // disable Nagle's algorithm (default: true)
	ReuseAddr bool     `yaml:"reuse_addr"` // set SO_REUSEADDR on listen (default: true)
}

// Config holds the full configuration surface for a server or client built
// from this library.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
}

// DefaultAddress is ServerConfig.Address's default when unset.
const DefaultAddress = ":7650"

// Load reads and parses a YAML configuration file at path, applying
// defaults to any field the file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// defaultConfig returns a Config pre-populated with defaults; Unmarshal
// then overlays any field present in the YAML document on top of it.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: DefaultAddress,
			Backlog: 256,
		},
		Transport: TransportConfig{
			Framing:   "newline",
			Timeout:   Duration(rpc.DefaultTimeout),
			NoDelay:   true,
			ReuseAddr: true,
		},
	}
}

// applyDefaults fills in Address, Backlog, Framing and Timeout when they
// decoded to their Go zero value (for example, set explicitly to "" or 0).
// NoDelay and ReuseAddr are left as decoded: an explicit false stays false.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.Backlog <= 0 {
		cfg.Server.Backlog = 256
	}
	if cfg.Transport.Framing == "" {
		cfg.Transport.Framing = "newline"
	}
	if cfg.Transport.Timeout <= 0 {
		cfg.Transport.Timeout = Duration(rpc.DefaultTimeout)
	}
}

// FramingMode parses Transport.Framing, returning an error that names the
// offending value for unrecognized spellings.
func (c *Config) FramingMode() (rpc.FramingMode, error) {
	mode, ok := rpc.ParseFramingMode(c.Transport.Framing)
	if !ok {
		return 0, fmt.Errorf("config: unrecognized framing mode %q", c.Transport.Framing)
	}
	return mode, nil
}
