// Package config loads the TOML configuration files the demonstration
// binaries in cmd/ run from.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Authority is one directory authority a relay registers with.
type Authority struct {
	Address string `toml:"address"`
	Cert    string `toml:"cert"`
}

// Relay is a relay's on-disk configuration: its consensus weight, its
// public-facing address, and the authorities it registers keys with.
type Relay struct {
	Weight        uint32      `toml:"weight"`
	PublicAddress string      `toml:"public_address"`
	Port          uint16      `toml:"port"`
	BoardAddress  string      `toml:"board_address"`
	BoardPort     uint16      `toml:"board_port"`
	Authority     []Authority `toml:"authority"`
}

// LoadRelay reads and parses a relay configuration file.
func LoadRelay(path string) (*Relay, error) {
	var cfg Relay
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	return &cfg, nil
}
