package wallet

import (
	"bytes"
	"context"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// --- Keyring tests ---

func TestKeyring_AddAndKey(t *testing.T) {
	kr := NewKeyring(nil)
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := kr.Add(priv)
	require.NoError(t, err)
	assert.Equal(t, 1, kr.Len())
	assert.Equal(t, []string{addr.AddressString}, kr.Addresses())

	got, err := kr.Key(addr)
	require.NoError(t, err)
	assert.Equal(t, priv.Serialize(), got.Serialize())
}

func TestKeyring_KeyNotFound(t *testing.T) {
	kr := NewKeyring(&TestNet)
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := script.NewAddressFromPublicKey(priv.PubKey(), false)
	require.NoError(t, err)

	_, err = kr.Key(addr)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = kr.Key(nil)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = kr.Add(nil)
	assert.Error(t, err)
}

func TestKeyring_AddWIF(t *testing.T) {
	kr := NewKeyring(&MainNet)
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := kr.AddWIF(priv.Wif())
	require.NoError(t, err)

	want, err := script.NewAddressFromPublicKey(priv.PubKey(), true)
	require.NoError(t, err)
	assert.Equal(t, want.AddressString, addr.AddressString)

	_, err = kr.AddWIF("not-a-wif")
	assert.ErrorIs(t, err, ErrInvalidWIF)
}

// --- Signer tests ---

// signable builds a payload spending one P2PKH output per key.
func signable(t *testing.T, keys ...*ec.PrivateKey) (*tx.SignableTx, []*script.Address) {
	t.Helper()
	body := transaction.NewTransaction()
	var (
		utxos []*tx.UTXO
		addrs []*script.Address
	)
	for i, k := range keys {
		addr, err := script.NewAddressFromPublicKey(k.PubKey(), true)
		require.NoError(t, err)
		lock, err := tx.BuildAddressScript(addr)
		require.NoError(t, err)
		u := &tx.UTXO{TxID: bytes.Repeat([]byte{byte(i + 1)}, 32), Vout: 0, Amount: 1000, ScriptPubKey: lock}
		h, err := chainhash.NewHash(u.TxID)
		require.NoError(t, err)
		body.AddInput(&transaction.TransactionInput{SourceTXID: h, SourceTxOutIndex: 0, SequenceNumber: transaction.DefaultSequenceNumber})
		utxos = append(utxos, u)
		addrs = append(addrs, addr)
	}
	out, err := tx.BuildP2PKHScript(keys[0].PubKey())
	require.NoError(t, err)
	body.AddOutput(&transaction.TransactionOutput{Satoshis: 500, LockingScript: script.NewFromBytes(out)})

	stx, err := tx.NewSignableTx(body, utxos)
	require.NoError(t, err)
	return stx, addrs
}

func TestSigner_TrySign(t *testing.T) {
	w := newTestWallet(t)
	kr, err := w.DeriveKeyring(0, 2, 0)
	require.NoError(t, err)

	k0, err := w.DeriveKey(0, ExternalChain, 0)
	require.NoError(t, err)
	k1, err := w.DeriveKey(0, ExternalChain, 1)
	require.NoError(t, err)
	stx, addrs := signable(t, k0.PrivateKey, k1.PrivateKey, k0.PrivateKey)

	signed, err := NewSigner(kr).TrySign(context.Background(), stx, addrs)
	require.NoError(t, err)
	assert.True(t, signed.IsFullySigned())
	assert.Equal(t, 0, stx.SignedInputs(), "input payload is not modified")
}

func TestSigner_MissingKey(t *testing.T) {
	kr := NewKeyring(&MainNet)
	known, err := ec.NewPrivateKey()
	require.NoError(t, err)
	_, err = kr.Add(known)
	require.NoError(t, err)
	unknown, err := ec.NewPrivateKey()
	require.NoError(t, err)

	stx, addrs := signable(t, known, unknown)
	_, err = NewSigner(kr).TrySign(context.Background(), stx, addrs)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = NewSigner(nil).TrySign(context.Background(), stx, addrs)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSigner_Cancelled(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	kr := NewKeyring(nil)
	_, err = kr.Add(priv)
	require.NoError(t, err)
	stx, addrs := signable(t, priv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSigner(kr).TrySign(ctx, stx, addrs)
	assert.ErrorIs(t, err, context.Canceled)
}
