package tx

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
)

// PrivateKeyLen is the length of a raw secp256k1 secret.
const PrivateKeyLen = 32

// SignWithKeys signs the inputs of s that pay to one of keys and returns the
// result as a new SignableTx; s itself is not modified.
//
// Inputs are matched by the public key hash in their P2PKH locking script.
// Inputs with no matching key keep their existing unlocking script, so the
// result may still be partially signed. Completeness is not checked; use
// IsFullySigned for that.
func SignWithKeys(s *SignableTx, keys []*ec.PrivateKey) (*SignableTx, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: SignableTx", ErrNilParam)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: keys", ErrNilParam)
	}

	byHash := make(map[string]*ec.PrivateKey, len(keys))
	for i, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("%w: key[%d]", ErrNilParam, i)
		}
		byHash[string(bsvhash.Hash160(k.PubKey().Compressed()))] = k
	}

	out := s.Clone()
	for i, in := range out.tx.Inputs {
		pkh, ok := p2pkhHash(out.entries[i].ScriptPubKey)
		if !ok {
			continue
		}
		key, ok := byHash[string(pkh)]
		if !ok {
			continue
		}

		unlocker, err := p2pkh.Unlock(key, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create unlocker for input %d: %w",
				ErrSigningFailed, i, err)
		}
		unlock, err := unlocker.Sign(out.tx, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("%w: input %d: %w", ErrSigningFailed, i, err)
		}
		in.UnlockingScript = unlock
	}
	return out, nil
}

// KeysFromBytes converts raw 32-byte secrets into private keys.
func KeysFromBytes(raw [][]byte) ([]*ec.PrivateKey, error) {
	keys := make([]*ec.PrivateKey, 0, len(raw))
	for i, b := range raw {
		if len(b) != PrivateKeyLen {
			return nil, fmt.Errorf("%w: key[%d] is %d bytes, want %d", ErrInvalidKey, i, len(b), PrivateKeyLen)
		}
		if isZero(b) {
			return nil, fmt.Errorf("%w: key[%d] is zero", ErrInvalidKey, i)
		}
		priv, _ := ec.PrivateKeyFromBytes(b)
		keys = append(keys, priv)
	}
	return keys, nil
}

// BuildP2PKHScript creates a P2PKH locking script for the given public key.
// Returns the raw script bytes suitable for use as UTXO.ScriptPubKey.
func BuildP2PKHScript(pubKey *ec.PublicKey) ([]byte, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("%w: public key", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(pubKey, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %w", ErrScriptBuild, err)
	}
	return BuildAddressScript(addr)
}

// BuildAddressScript creates a P2PKH locking script paying to addr.
func BuildAddressScript(addr *script.Address) ([]byte, error) {
	if addr == nil {
		return nil, fmt.Errorf("%w: address", ErrNilParam)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock script: %w", ErrScriptBuild, err)
	}
	return []byte(*lockScript), nil
}

// AddressFromScript returns the address paid by a P2PKH locking script.
func AddressFromScript(lockingScript []byte, mainnet bool) (*script.Address, error) {
	hash, ok := p2pkhHash(lockingScript)
	if !ok {
		return nil, fmt.Errorf("%w: not a P2PKH script", ErrScriptBuild)
	}
	addr, err := script.NewAddressFromPublicKeyHash(hash, mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrScriptBuild, err)
	}
	return addr, nil
}

// p2pkhHash extracts the 20-byte public key hash from a P2PKH locking script:
// OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG.
func p2pkhHash(lockingScript []byte) ([]byte, bool) {
	if !script.NewFromBytes(lockingScript).IsP2PKH() {
		return nil, false
	}
	return lockingScript[3:23], true
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
