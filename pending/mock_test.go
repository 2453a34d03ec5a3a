package pending

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// mockSigner is a function-field test double for Signer.
type mockSigner struct {
	TrySignFn func(ctx context.Context, stx *tx.SignableTx, addresses []*script.Address) (*tx.SignableTx, error)
}

func (m *mockSigner) TrySign(ctx context.Context, stx *tx.SignableTx, addresses []*script.Address) (*tx.SignableTx, error) {
	return m.TrySignFn(ctx, stx, addresses)
}

// keySigner signs with a fixed key per address.
func keySigner(keys map[string]*ec.PrivateKey) *mockSigner {
	return &mockSigner{
		TrySignFn: func(_ context.Context, stx *tx.SignableTx, addresses []*script.Address) (*tx.SignableTx, error) {
			var use []*ec.PrivateKey
			for _, a := range addresses {
				if k, ok := keys[a.AddressString]; ok {
					use = append(use, k)
				}
			}
			return tx.SignWithKeys(stx, use)
		},
	}
}

// countingNotifier records outgoing notifications.
type countingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *countingNotifier) HandleOutgoingTransaction(_ context.Context, p *Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, p.ID())
	return n.err
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// mockTransport is a function-field test double for Transport that counts calls.
type mockTransport struct {
	mu       sync.Mutex
	received []*tx.WireTx
	SubmitFn func(ctx context.Context, wire *tx.WireTx, allowHighFees bool) (string, error)
}

func (m *mockTransport) SubmitTransaction(ctx context.Context, wire *tx.WireTx, allowHighFees bool) (string, error) {
	m.mu.Lock()
	m.received = append(m.received, wire)
	m.mu.Unlock()
	return m.SubmitFn(ctx, wire, allowHighFees)
}

func (m *mockTransport) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

func fixedTransport(id string) *mockTransport {
	return &mockTransport{
		SubmitFn: func(context.Context, *tx.WireTx, bool) (string, error) { return id, nil },
	}
}

// fixture is a generated transaction spending two P2PKH outputs.
type fixture struct {
	keys      map[string]*ec.PrivateKey
	pubs      []*ec.PublicKey
	body      *transaction.Transaction
	utxos     []*tx.UTXO
	addresses []*script.Address
}

func newFixture(t *testing.T, amounts ...uint64) *fixture {
	t.Helper()
	if len(amounts) == 0 {
		amounts = []uint64{600, 400}
	}
	f := &fixture{keys: make(map[string]*ec.PrivateKey), body: transaction.NewTransaction()}
	for i, amt := range amounts {
		priv, err := ec.NewPrivateKey()
		require.NoError(t, err)
		addr, err := script.NewAddressFromPublicKey(priv.PubKey(), true)
		require.NoError(t, err)
		lock, err := tx.BuildAddressScript(addr)
		require.NoError(t, err)

		u := &tx.UTXO{
			TxID:         bytes.Repeat([]byte{byte(i + 1)}, 32),
			Vout:         uint32(i),
			Amount:       amt,
			ScriptPubKey: lock,
			Address:      addr.AddressString,
		}
		h, err := chainhash.NewHash(u.TxID)
		require.NoError(t, err)
		f.body.AddInput(&transaction.TransactionInput{
			SourceTXID:       h,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})

		f.keys[addr.AddressString] = priv
		f.pubs = append(f.pubs, priv.PubKey())
		f.utxos = append(f.utxos, u)
		f.addresses = append(f.addresses, addr)
	}

	dest, err := ec.NewPrivateKey()
	require.NoError(t, err)
	out, err := tx.BuildP2PKHScript(dest.PubKey())
	require.NoError(t, err)
	f.body.AddOutput(&transaction.TransactionOutput{Satoshis: 900, LockingScript: script.NewFromBytes(out)})
	return f
}

func (f *fixture) rawKeys() [][]byte {
	var raw [][]byte
	for _, a := range f.addresses {
		raw = append(raw, f.keys[a.AddressString].Serialize())
	}
	return raw
}

func paymentOf(v uint64) *uint64 { return &v }

// exampleEconomics is the 1000 in / 900 out / 100 fee final payment.
func exampleEconomics() Economics {
	return Economics{
		PaymentValue:         paymentOf(900),
		ChangeValue:          0,
		AggregateInputValue:  1000,
		AggregateOutputValue: 900,
		Fees:                 100,
	}
}

func (f *fixture) newPending(t *testing.T, gen Generator, opts ...Option) *Transaction {
	t.Helper()
	p, err := New(gen, f.body, f.utxos, f.addresses, exampleEconomics(), true, opts...)
	require.NoError(t, err)
	return p
}

// respend returns a body with the fixture's outputs spending copies of its
// UTXOs whose txids are shifted by shift.
func (f *fixture) respend(t *testing.T, shift byte) (*transaction.Transaction, []*tx.UTXO) {
	t.Helper()
	body := transaction.NewTransaction()
	utxos := make([]*tx.UTXO, len(f.utxos))
	for i, u := range f.utxos {
		cp := u.Clone()
		cp.TxID = bytes.Repeat([]byte{byte(i+1) + shift}, 32)
		h, err := chainhash.NewHash(cp.TxID)
		require.NoError(t, err)
		body.AddInput(&transaction.TransactionInput{
			SourceTXID:       h,
			SourceTxOutIndex: cp.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
		utxos[i] = cp
	}
	for _, out := range f.body.Outputs {
		body.AddOutput(&transaction.TransactionOutput{
			Satoshis:      out.Satoshis,
			LockingScript: script.NewFromBytes(append([]byte(nil), *out.LockingScript...)),
		})
	}
	return body, utxos
}
