package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

const (
	// BIP44 path constants.
	PurposeBIP44 = 44
	CoinTypeBSV  = 236

	// Chain indices.
	ExternalChain = 0 // Receive addresses
	InternalChain = 1 // Change addresses

	// MaxIndex is the largest non-hardened BIP32 child index.
	MaxIndex = 1<<31 - 1

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet is an HD wallet rooted at a BIP39 seed.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   *NetworkConfig
}

// KeyPair holds a derived public/private key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Path       string         `json:"path"` // Human-readable derivation path
}

// NewWallet creates a new Wallet from a BIP39 seed. A nil network means mainnet.
func NewWallet(seed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	masterKey, err := bip32.NewMaster(seed, network.Params())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &Wallet{
		masterKey: masterKey,
		network:   network,
	}, nil
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig {
	return w.network
}

// deriveAccount derives the account-level key: m/44'/236'/account'
func (w *Wallet) deriveAccount(account uint32) (*bip32.ExtendedKey, error) {
	if account > MaxIndex {
		return nil, fmt.Errorf("%w: account %d", ErrIndexOutOfRange, account)
	}

	purpose, err := w.masterKey.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}

	coinType, err := purpose.Child(CoinTypeBSV + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}

	accountKey, err := coinType.Child(account + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}
	return accountKey, nil
}

// DeriveKey derives the key pair at m/44'/236'/account'/chain/index.
//
//	chain: ExternalChain (0) for receive, InternalChain (1) for change
func (w *Wallet) DeriveKey(account, chain, index uint32) (*KeyPair, error) {
	if index > MaxIndex {
		return nil, fmt.Errorf("%w: index %d", ErrIndexOutOfRange, index)
	}
	accountKey, err := w.deriveAccount(account)
	if err != nil {
		return nil, err
	}
	return deriveAddressKey(accountKey, account, chain, index)
}

// DeriveKeyring derives the first external receive keys and the first
// internal change keys of account into a Keyring.
func (w *Wallet) DeriveKeyring(account, external, internal uint32) (*Keyring, error) {
	if external > MaxIndex || internal > MaxIndex {
		return nil, fmt.Errorf("%w: keyring size", ErrIndexOutOfRange)
	}
	accountKey, err := w.deriveAccount(account)
	if err != nil {
		return nil, err
	}

	kr := NewKeyring(w.network)
	for _, c := range []struct {
		chain uint32
		count uint32
	}{{ExternalChain, external}, {InternalChain, internal}} {
		for i := uint32(0); i < c.count; i++ {
			kp, err := deriveAddressKey(accountKey, account, c.chain, i)
			if err != nil {
				return nil, err
			}
			if _, err := kr.Add(kp.PrivateKey); err != nil {
				return nil, err
			}
		}
	}
	return kr, nil
}

func deriveAddressKey(accountKey *bip32.ExtendedKey, account, chain, index uint32) (*KeyPair, error) {
	chainKey, err := accountKey.Child(chain)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}
	childKey, err := chainKey.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}
	return extKeyToKeyPair(childKey, fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", PurposeBIP44, CoinTypeBSV, account, chain, index))
}

// extKeyToKeyPair converts a BIP32 extended key to a KeyPair.
func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrDerivationFailed)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Path:       path,
	}, nil
}
