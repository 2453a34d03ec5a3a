package network

import (
	"fmt"
	"time"
)

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "PENDINGTX_RPC_URL"
	EnvRPCUser = "PENDINGTX_RPC_USER"
	EnvRPCPass = "PENDINGTX_RPC_PASSWORD"
)

// RPCConfig holds the connection parameters for a BSV node's JSON-RPC interface.
type RPCConfig struct {
	URL      string        `json:"url" mapstructure:"url"`
	User     string        `json:"user" mapstructure:"user"`
	Password string        `json:"password" mapstructure:"password"`
	Network  string        `json:"network" mapstructure:"-"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NetworkPresets contains default RPC configurations for local nodes.
// Mainnet has no preset and must be configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18443", User: "pendingtx", Password: "pendingtx"},
	"testnet": {URL: "http://localhost:18332", User: "pendingtx", Password: "pendingtx"},
}

// ResolveConfig merges RPC settings with decreasing priority: explicit
// values (flags or config file), then environment, then network presets.
func ResolveConfig(explicit *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{}
	if preset, ok := NetworkPresets[network]; ok {
		result = preset
	}
	result.Network = network

	if v := env[EnvRPCURL]; v != "" {
		result.URL = v
	}
	if v := env[EnvRPCUser]; v != "" {
		result.User = v
	}
	if v := env[EnvRPCPass]; v != "" {
		result.Password = v
	}

	if explicit != nil {
		if explicit.URL != "" {
			result.URL = explicit.URL
		}
		if explicit.User != "" {
			result.User = explicit.User
		}
		if explicit.Password != "" {
			result.Password = explicit.Password
		}
		if explicit.Timeout > 0 {
			result.Timeout = explicit.Timeout
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set --rpc-url, %s, or config file)", network, EnvRPCURL)
	}
	return &result, nil
}
