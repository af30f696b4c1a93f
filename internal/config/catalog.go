package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTool is returned when an identifier is not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Tool describes one external tracing binary.
type Tool struct {
	ID    string   `yaml:"id" json:"id"`
	Label string   `yaml:"label" json:"label"`
	Args  []string `yaml:"args,omitempty" json:"args,omitempty"`
}

type GraphConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Catalog is the deployment configuration for launching tools.
type Catalog struct {
	Privilege    []string    `yaml:"privilege"`
	InstallDir   string      `yaml:"install_dir,omitempty"`
	BinarySuffix string      `yaml:"binary_suffix"`
	StopSignal   string      `yaml:"stop_signal,omitempty"`
	StopTimeout  int         `yaml:"stop_timeout,omitempty"`
	MaxRows      int         `yaml:"max_rows,omitempty"`
	Graph        GraphConfig `yaml:"graph"`
	Tools        []Tool      `yaml:"tools"`
}

func DefaultCatalog() *Catalog {
	c := &Catalog{
		Privilege:    []string{"sudo"},
		BinarySuffix: "-bpfcc",
		Graph:        GraphConfig{X: 0, Y: 1},
		Tools: []Tool{
			{ID: "tcpconnect", Label: "TCP Connection Statistics"},
			{ID: "tcpretrans", Label: "TCP Retransmission Statistics"},
			{ID: "sockstat", Label: "Socket Statistics"},
			{ID: "biolatency", Label: "Block I/O Latency Statistics"},
			{ID: "cachestat", Label: "Cache Statistics"},
		},
	}
	c.setDefaults()
	return c
}

// LoadCatalog reads a catalog file. A missing file yields the default
// catalog together with an error wrapping os.ErrNotExist.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultCatalog(), err
	}

	// Privilege and suffix left unset keep their defaults; explicit empty
	// values disable them.
	cfg := Catalog{
		Privilege:    []string{"sudo"},
		BinarySuffix: "-bpfcc",
		Graph:        GraphConfig{X: 0, Y: 1},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Tools) == 0 {
		cfg.Tools = DefaultCatalog().Tools
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Catalog) setDefaults() {
	if c.InstallDir == "" {
		c.InstallDir = "/usr/sbin"
	}
	if c.StopSignal == "" {
		c.StopSignal = "SIGTERM"
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = 5
	}
	if c.MaxRows == 0 {
		c.MaxRows = 10000
	}
	for i := range c.Tools {
		if c.Tools[i].Label == "" {
			c.Tools[i].Label = c.Tools[i].ID
		}
	}
}

// Validate rejects empty or duplicate tool identifiers, unknown signals and
// negative limits.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Tools))
	for i, t := range c.Tools {
		if t.ID == "" {
			return fmt.Errorf("tool #%d has no id", i+1)
		}
		if filepath.Base(t.ID) != t.ID {
			return fmt.Errorf("tool id %q must not contain a path", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate tool id %q", t.ID)
		}
		seen[t.ID] = true
	}
	switch c.StopSignal {
	case "SIGTERM", "SIGINT", "SIGKILL":
	default:
		return fmt.Errorf("unsupported stop_signal %q", c.StopSignal)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("stop_timeout must not be negative, got %d", c.StopTimeout)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must not be negative, got %d", c.MaxRows)
	}
	if c.Graph.X < 0 || c.Graph.Y < 0 {
		return errors.New("graph column indexes must not be negative")
	}
	return nil
}

func (c *Catalog) Lookup(id string) (Tool, bool) {
	for _, t := range c.Tools {
		if t.ID == id {
			return t, true
		}
	}
	return Tool{}, false
}

// LookupLabel resolves a display label back to its tool.
func (c *Catalog) LookupLabel(label string) (Tool, bool) {
	for _, t := range c.Tools {
		if t.Label == label {
			return t, true
		}
	}
	return Tool{}, false
}

// BinaryPath is the absolute path of the tool's executable.
func (c *Catalog) BinaryPath(t Tool) string {
	return filepath.Join(c.InstallDir, t.ID+c.BinarySuffix)
}

// Command builds the argv used to launch a tool.
func (c *Catalog) Command(id string) ([]string, error) {
	t, ok := c.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, id)
	}

	argv := make([]string, 0, len(c.Privilege)+1+len(t.Args))
	argv = append(argv, c.Privilege...)
	argv = append(argv, c.BinaryPath(t))
	argv = append(argv, t.Args...)
	return argv, nil
}
