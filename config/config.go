// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the pendingtx configuration file. Values
// are read from a TOML file and may be overridden by PENDINGTX_* environment
// variables ("rpc.url" becomes PENDINGTX_RPC_URL).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bitfsorg/pendingtx-go/network"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PENDINGTX"

// Config holds the pendingtx settings.
type Config struct {
	DataDir          string            `mapstructure:"datadir"`
	Network          string            `mapstructure:"network"`
	LogLevel         string            `mapstructure:"loglevel"`
	LogFile          string            `mapstructure:"logfile"`
	AllowHighFees    bool              `mapstructure:"allowhighfees"`
	MetricsNamespace string            `mapstructure:"metricsnamespace"`
	RPC              network.RPCConfig `mapstructure:"rpc"`
}

// DefaultDataDir returns ~/.pendingtx, or .pendingtx when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pendingtx"
	}
	return filepath.Join(home, ".pendingtx")
}

// ConfigPath returns the configuration file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// DefaultConfig returns the built-in defaults. The RPC endpoint is left empty
// so that the network preset applies.
func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		Network:          "mainnet",
		LogLevel:         "info",
		MetricsNamespace: "pendingtx",
		RPC:              network.RPCConfig{Timeout: network.DefaultTimeout},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("datadir", d.DataDir)
	v.SetDefault("network", d.Network)
	v.SetDefault("loglevel", d.LogLevel)
	v.SetDefault("logfile", d.LogFile)
	v.SetDefault("allowhighfees", d.AllowHighFees)
	v.SetDefault("metricsnamespace", d.MetricsNamespace)
	v.SetDefault("rpc.url", d.RPC.URL)
	v.SetDefault("rpc.user", d.RPC.User)
	v.SetDefault("rpc.password", d.RPC.Password)
	v.SetDefault("rpc.timeout", d.RPC.Timeout)
	return v
}

// LoadConfig reads the TOML file at path on top of the defaults and applies
// environment overrides. An empty path skips the file. Keys the file does not
// set keep their defaults; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfigFile, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("datadir", cfg.DataDir)
	v.Set("network", cfg.Network)
	v.Set("loglevel", cfg.LogLevel)
	v.Set("logfile", cfg.LogFile)
	v.Set("allowhighfees", cfg.AllowHighFees)
	v.Set("metricsnamespace", cfg.MetricsNamespace)
	v.Set("rpc.url", cfg.RPC.URL)
	v.Set("rpc.user", cfg.RPC.User)
	v.Set("rpc.password", cfg.RPC.Password)
	v.Set("rpc.timeout", cfg.RPC.Timeout.String())

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}

// ResolveRPC fills unset RPC fields from the preset for cfg.Network.
func (c Config) ResolveRPC() (*network.RPCConfig, error) {
	return network.ResolveConfig(&c.RPC, nil, c.Network)
}

// DataPath returns name joined to the data directory.
func (c Config) DataPath(name string) string {
	return filepath.Join(c.DataDir, name)
}
