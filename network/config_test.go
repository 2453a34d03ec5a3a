package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkPresets(t *testing.T) {
	tests := []struct {
		network string
		url     string
	}{
		{"regtest", "http://localhost:18443"},
		{"testnet", "http://localhost:18332"},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			preset, ok := NetworkPresets[tt.network]
			require.True(t, ok)
			assert.Equal(t, tt.url, preset.URL)
			assert.Equal(t, "pendingtx", preset.User)
		})
	}

	_, ok := NetworkPresets["mainnet"]
	assert.False(t, ok, "mainnet should not have a default preset")
}

func TestResolveConfig(t *testing.T) {
	tests := []struct {
		name     string
		explicit *RPCConfig
		env      map[string]string
		network  string
		want     RPCConfig
	}{
		{
			name:    "preset fallback",
			network: "regtest",
			want:    RPCConfig{URL: "http://localhost:18443", User: "pendingtx", Password: "pendingtx", Network: "regtest"},
		},
		{
			name:    "env overrides preset",
			env:     map[string]string{EnvRPCURL: "http://env-node:18332", EnvRPCUser: "envuser"},
			network: "regtest",
			want:    RPCConfig{URL: "http://env-node:18332", User: "envuser", Password: "pendingtx", Network: "regtest"},
		},
		{
			name:     "explicit overrides env",
			explicit: &RPCConfig{URL: "http://custom:9999", Password: "secret", Timeout: time.Second},
			env:      map[string]string{EnvRPCURL: "http://env-node:18332"},
			network:  "testnet",
			want:     RPCConfig{URL: "http://custom:9999", User: "pendingtx", Password: "secret", Network: "testnet", Timeout: time.Second},
		},
		{
			name:     "mainnet explicit",
			explicit: &RPCConfig{URL: "http://node:8332"},
			network:  "mainnet",
			want:     RPCConfig{URL: "http://node:8332", Network: "mainnet"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConfig(tt.explicit, tt.env, tt.network)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestResolveConfig_MainnetRequiresExplicit(t *testing.T) {
	_, err := ResolveConfig(nil, nil, "mainnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mainnet")
}
