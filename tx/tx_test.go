package tx

import (
	"bytes"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKeyPair(t *testing.T) (*ec.PrivateKey, *ec.PublicKey) {
	t.Helper()
	privKey, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return privKey, privKey.PubKey()
}

func testUTXO(t *testing.T, fill byte, amount uint64, pub *ec.PublicKey) *UTXO {
	t.Helper()
	scriptBytes, err := BuildP2PKHScript(pub)
	require.NoError(t, err)
	return &UTXO{
		TxID:         bytes.Repeat([]byte{fill}, 32),
		Vout:         uint32(fill),
		Amount:       amount,
		ScriptPubKey: scriptBytes,
	}
}

// buildTestBody spends utxos into a single P2PKH output worth outAmount.
func buildTestBody(t *testing.T, utxos []*UTXO, outAmount uint64) *transaction.Transaction {
	t.Helper()
	body := transaction.NewTransaction()
	for _, u := range utxos {
		h, err := chainhash.NewHash(u.TxID)
		require.NoError(t, err)
		body.AddInput(&transaction.TransactionInput{
			SourceTXID:       h,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
	}
	_, pub := generateTestKeyPair(t)
	out, err := BuildP2PKHScript(pub)
	require.NoError(t, err)
	body.AddOutput(&transaction.TransactionOutput{
		Satoshis:      outAmount,
		LockingScript: script.NewFromBytes(out),
	})
	return body
}

// --- UTXO tests ---

func TestUTXOOutpoint(t *testing.T) {
	u := &UTXO{TxID: bytes.Repeat([]byte{0x01}, 32), Vout: 3}
	h, err := u.Hash()
	require.NoError(t, err)
	assert.Equal(t, h.String()+":3", u.Outpoint())
}

func TestUTXOHash_BadLength(t *testing.T) {
	u := &UTXO{TxID: []byte{0x01}}
	_, err := u.Hash()
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestUTXOClone_Independent(t *testing.T) {
	u := &UTXO{TxID: bytes.Repeat([]byte{0x01}, 32), ScriptPubKey: []byte{0x76}}
	cp := u.Clone()
	cp.TxID[0] = 0xff
	cp.ScriptPubKey[0] = 0x00
	assert.Equal(t, byte(0x01), u.TxID[0])
	assert.Equal(t, byte(0x76), u.ScriptPubKey[0])
}

// --- SignableTx tests ---

func TestNewSignableTx(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	utxos := []*UTXO{testUTXO(t, 0x01, 600, pub), testUTXO(t, 0x02, 400, pub)}
	body := buildTestBody(t, utxos, 900)

	stx, err := NewSignableTx(body, utxos)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), stx.InputValue())
	assert.Equal(t, uint64(900), stx.OutputValue())
	assert.Equal(t, 0, stx.SignedInputs())
	assert.False(t, stx.IsFullySigned())
	assert.Equal(t, body.TxID().String(), stx.ID())

	tx := stx.Transaction()
	for i, in := range tx.Inputs {
		require.NotNil(t, in.SourceTxOutput())
		assert.Equal(t, utxos[i].Amount, in.SourceTxOutput().Satoshis)
	}
}

func TestNewSignableTx_NilBody(t *testing.T) {
	_, err := NewSignableTx(nil, nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestNewSignableTx_CountMismatch(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	utxos := []*UTXO{testUTXO(t, 0x01, 600, pub)}
	body := buildTestBody(t, utxos, 500)

	_, err := NewSignableTx(body, append(utxos, testUTXO(t, 0x02, 1, pub)))
	assert.ErrorIs(t, err, ErrInputMismatch)
}

func TestNewSignableTx_OutpointMismatch(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	body := buildTestBody(t, []*UTXO{testUTXO(t, 0x01, 600, pub)}, 500)

	_, err := NewSignableTx(body, []*UTXO{testUTXO(t, 0x02, 600, pub)})
	assert.ErrorIs(t, err, ErrInputMismatch)
}

func TestNewSignableTx_DoesNotAliasBody(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	utxos := []*UTXO{testUTXO(t, 0x01, 600, pub)}
	body := buildTestBody(t, utxos, 500)

	stx, err := NewSignableTx(body, utxos)
	require.NoError(t, err)
	id := stx.ID()

	body.Outputs[0].Satoshis = 1
	utxos[0].Amount = 1
	assert.Equal(t, id, stx.ID())
	assert.Equal(t, uint64(600), stx.InputValue())
}

func TestSignableTxClone_Independent(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	utxos := []*UTXO{testUTXO(t, 0x01, 600, pub)}
	stx, err := NewSignableTx(buildTestBody(t, utxos, 500), utxos)
	require.NoError(t, err)

	cp := stx.Clone()
	cp.tx.Outputs[0].Satoshis = 42
	assert.Equal(t, uint64(500), stx.OutputValue())
	assert.NotEqual(t, stx.ID(), cp.ID())
}

func TestSignableTxSameUnsigned(t *testing.T) {
	priv, pub := generateTestKeyPair(t)
	utxos := []*UTXO{testUTXO(t, 0x01, 600, pub)}
	stx, err := NewSignableTx(buildTestBody(t, utxos, 500), utxos)
	require.NoError(t, err)

	signed, err := SignWithKeys(stx, []*ec.PrivateKey{priv})
	require.NoError(t, err)
	require.True(t, signed.IsFullySigned())
	assert.True(t, stx.SameUnsigned(signed))
	assert.True(t, stx.SameUnsigned(stx.Clone()))
	assert.False(t, stx.SameUnsigned(nil))

	tests := []struct {
		name   string
		mutate func(s *SignableTx)
	}{
		{"output_amount", func(s *SignableTx) { s.tx.Outputs[0].Satoshis++ }},
		{"output_script", func(s *SignableTx) { (*s.tx.Outputs[0].LockingScript)[3] ^= 0xff }},
		{"extra_output", func(s *SignableTx) {
			s.tx.AddOutput(&transaction.TransactionOutput{Satoshis: 1, LockingScript: script.NewFromBytes([]byte{0x6a})})
		}},
		{"locktime", func(s *SignableTx) { s.tx.LockTime = 800000 }},
		{"version", func(s *SignableTx) { s.tx.Version = 2 }},
		{"sequence", func(s *SignableTx) { s.tx.Inputs[0].SequenceNumber = 0 }},
		{"outpoint", func(s *SignableTx) { s.tx.Inputs[0].SourceTxOutIndex = 9 }},
		{"entry_amount", func(s *SignableTx) { s.entries[0].Amount = 700 }},
		{"entry_script", func(s *SignableTx) { s.entries[0].ScriptPubKey = []byte{0x51} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cp := signed.Clone()
			tc.mutate(cp)
			assert.False(t, stx.SameUnsigned(cp))
		})
	}
}

func TestWire(t *testing.T) {
	_, pub := generateTestKeyPair(t)
	utxos := []*UTXO{testUTXO(t, 0x01, 1000, pub)}
	stx, err := NewSignableTx(buildTestBody(t, utxos, 900), utxos)
	require.NoError(t, err)

	w := stx.Wire()
	assert.Equal(t, stx.ID(), w.TxID)
	assert.Equal(t, stx.Hex(), w.Hex)
	assert.Equal(t, len(stx.Bytes()), w.Size)
	assert.Equal(t, 1, w.Inputs)
	assert.Equal(t, 1, w.Outputs)
	assert.Equal(t, uint64(100), w.Fee)
	assert.False(t, w.Signed)
}
