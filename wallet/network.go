package wallet

import (
	"fmt"

	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

// NetworkConfig defines the parameters of a BSV network that affect keys
// and addresses.
type NetworkConfig struct {
	Name           string `json:"name"`
	AddressVersion byte   `json:"address_version"`
	RPCPort        uint16 `json:"rpc_port"`
}

// Predefined network configurations.
var (
	MainNet = NetworkConfig{
		Name:           "mainnet",
		AddressVersion: 0x00,
		RPCPort:        8332,
	}

	TestNet = NetworkConfig{
		Name:           "testnet",
		AddressVersion: 0x6f,
		RPCPort:        18332,
	}

	RegTest = NetworkConfig{
		Name:           "regtest",
		AddressVersion: 0x6f,
		RPCPort:        18443,
	}
)

var predefined = map[string]*NetworkConfig{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"regtest": &RegTest,
}

// GetNetwork returns a predefined network by name.
func GetNetwork(name string) (*NetworkConfig, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}

// IsMainnet reports whether addresses on this network use the mainnet prefix.
func (n *NetworkConfig) IsMainnet() bool {
	return n.AddressVersion == MainNet.AddressVersion
}

// Params maps the network to go-sdk chain parameters for BIP32.
func (n *NetworkConfig) Params() *chaincfg.Params {
	if n.IsMainnet() {
		return &chaincfg.MainNet
	}
	return &chaincfg.TestNet
}
