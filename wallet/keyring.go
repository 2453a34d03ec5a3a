package wallet

import (
	"fmt"
	"sort"
	"sync"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
)

// Keyring maps P2PKH addresses to the private keys that spend them.
// It is safe for concurrent use.
type Keyring struct {
	network *NetworkConfig

	mu   sync.RWMutex
	keys map[string]*ec.PrivateKey
}

// NewKeyring returns an empty keyring for network. A nil network means mainnet.
func NewKeyring(network *NetworkConfig) *Keyring {
	if network == nil {
		network = &MainNet
	}
	return &Keyring{
		network: network,
		keys:    make(map[string]*ec.PrivateKey),
	}
}

// Add stores priv under its compressed-key address and returns that address.
func (k *Keyring) Add(priv *ec.PrivateKey) (*script.Address, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil key", ErrDerivationFailed)
	}
	addr, err := script.NewAddressFromPublicKey(priv.PubKey(), k.network.IsMainnet())
	if err != nil {
		return nil, fmt.Errorf("wallet: address from key: %w", err)
	}

	k.mu.Lock()
	k.keys[addr.AddressString] = priv
	k.mu.Unlock()
	return addr, nil
}

// AddWIF decodes a WIF private key and adds it.
func (k *Keyring) AddWIF(wif string) (*script.Address, error) {
	priv, err := ec.PrivateKeyFromWif(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWIF, err)
	}
	return k.Add(priv)
}

// Key returns the private key for addr.
func (k *Keyring) Key(addr *script.Address) (*ec.PrivateKey, error) {
	if addr == nil {
		return nil, fmt.Errorf("%w: nil address", ErrKeyNotFound)
	}
	k.mu.RLock()
	priv, ok := k.keys[addr.AddressString]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, addr.AddressString)
	}
	return priv, nil
}

// Addresses lists the addresses held, sorted.
func (k *Keyring) Addresses() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.keys))
	for a := range k.keys {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}
