// Package config loads the daemon's startup configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/reset-supervisor/internal/gpio"
)

// Config is the effective startup configuration.
type Config struct {
	Chip      string
	Pins      gpio.Pins
	Broker    string
	ClientID  string
	Heartbeat time.Duration
	HTTPAddr  string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Chip:      gpio.DefaultChip,
		Pins:      gpio.DefaultPins(),
		Broker:    "tcp://192.168.1.200:1883",
		ClientID:  "reset-supervisor",
		Heartbeat: 15 * time.Minute,
		HTTPAddr:  ":80",
	}
}

type yamlConfig struct {
	Chip     string   `yaml:"chip,omitempty"`
	Pins     yamlPins `yaml:"pins,omitempty"`
	MQTT     yamlMQTT `yaml:"mqtt,omitempty"`
	HTTPAddr *string  `yaml:"http_addr,omitempty"`
}

type yamlPins struct {
	Switch   *int `yaml:"switch,omitempty"`
	Halt     *int `yaml:"halt,omitempty"`
	Reset    *int `yaml:"reset,omitempty"`
	ExtReset *int `yaml:"ext_reset,omitempty"`
	LED      *int `yaml:"led,omitempty"`
}

type yamlMQTT struct {
	Broker    *string `yaml:"broker,omitempty"`
	ClientID  string  `yaml:"client_id,omitempty"`
	Heartbeat string  `yaml:"heartbeat,omitempty"`
}

// Load reads the YAML file at path over the defaults.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fileData yamlConfig
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	if err := applyYaml(&cfg, fileData); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	broker, addr := cfg.Broker, cfg.HTTPAddr
	fileData := yamlConfig{
		Chip: cfg.Chip,
		Pins: yamlPins{
			Switch:   intPtr(cfg.Pins.Switch),
			Halt:     intPtr(cfg.Pins.Halt),
			Reset:    intPtr(cfg.Pins.Reset),
			ExtReset: intPtr(cfg.Pins.ExtReset),
			LED:      intPtr(cfg.Pins.LED),
		},
		MQTT: yamlMQTT{
			Broker:    &broker,
			ClientID:  cfg.ClientID,
			Heartbeat: cfg.Heartbeat.String(),
		},
		HTTPAddr: &addr,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate rejects configurations the board cannot run with.
func (c Config) Validate() error {
	if c.Chip == "" {
		return errors.New("config: gpio chip must be set")
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("config: heartbeat must not be negative, got %v", c.Heartbeat)
	}

	seen := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"switch", c.Pins.Switch},
		{"halt", c.Pins.Halt},
		{"reset", c.Pins.Reset},
		{"ext_reset", c.Pins.ExtReset},
		{"led", c.Pins.LED},
	} {
		if p.pin < 0 {
			return fmt.Errorf("config: %s pin must not be negative, got %d", p.name, p.pin)
		}
		if other, dup := seen[p.pin]; dup {
			return fmt.Errorf("config: %s and %s share pin %d", other, p.name, p.pin)
		}
		seen[p.pin] = p.name
	}
	return nil
}

func applyYaml(cfg *Config, fileData yamlConfig) error {
	if fileData.Chip != "" {
		cfg.Chip = fileData.Chip
	}

	setPin(&cfg.Pins.Switch, fileData.Pins.Switch)
	setPin(&cfg.Pins.Halt, fileData.Pins.Halt)
	setPin(&cfg.Pins.Reset, fileData.Pins.Reset)
	setPin(&cfg.Pins.ExtReset, fileData.Pins.ExtReset)
	setPin(&cfg.Pins.LED, fileData.Pins.LED)

	// An explicit empty broker or address disables that feature.
	if fileData.MQTT.Broker != nil {
		cfg.Broker = *fileData.MQTT.Broker
	}
	if fileData.MQTT.ClientID != "" {
		cfg.ClientID = fileData.MQTT.ClientID
	}
	if fileData.MQTT.Heartbeat != "" {
		d, err := time.ParseDuration(fileData.MQTT.Heartbeat)
		if err != nil {
			return fmt.Errorf("parse mqtt heartbeat: %w", err)
		}
		cfg.Heartbeat = d
	}
	if fileData.HTTPAddr != nil {
		cfg.HTTPAddr = *fileData.HTTPAddr
	}
	return nil
}

func setPin(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func intPtr(v int) *int {
	return &v
}
