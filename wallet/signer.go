package wallet

import (
	"context"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// Signer signs pending transactions with keys from a Keyring.
type Signer struct {
	keyring *Keyring
}

// NewSigner returns a Signer backed by kr.
func NewSigner(kr *Keyring) *Signer {
	return &Signer{keyring: kr}
}

// TrySign resolves a key for every spending address and signs all inputs.
// Missing keys fail the whole call with ErrKeyNotFound; stx is not modified.
func (s *Signer) TrySign(ctx context.Context, stx *tx.SignableTx, addresses []*script.Address) (*tx.SignableTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.keyring == nil {
		return nil, fmt.Errorf("%w: no keyring", ErrKeyNotFound)
	}

	seen := make(map[string]struct{}, len(addresses))
	keys := make([]*ec.PrivateKey, 0, len(addresses))
	for _, addr := range addresses {
		priv, err := s.keyring.Key(addr)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[addr.AddressString]; dup {
			continue
		}
		seen[addr.AddressString] = struct{}{}
		keys = append(keys, priv)
	}
	return tx.SignWithKeys(stx, keys)
}
