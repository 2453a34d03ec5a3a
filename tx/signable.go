package tx

import (
	"bytes"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// SignableTx is a transaction body together with the full records of the
// outputs it spends. Each input carries its source output so signature
// hashes can be computed without a lookup.
//
// A SignableTx is treated as a value: signing produces a new one rather than
// editing an existing one in place.
type SignableTx struct {
	tx      *transaction.Transaction
	entries []*UTXO
}

// NewSignableTx copies body and attaches entries[i] as the source output of
// input i. Entries must match the inputs one to one, by outpoint.
func NewSignableTx(body *transaction.Transaction, entries []*UTXO) (*SignableTx, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: transaction body", ErrNilParam)
	}
	if len(entries) != len(body.Inputs) {
		return nil, fmt.Errorf("%w: have %d UTXOs but tx has %d inputs",
			ErrInputMismatch, len(entries), len(body.Inputs))
	}

	for i, e := range entries {
		if e == nil {
			return nil, fmt.Errorf("%w: utxo[%d]", ErrNilParam, i)
		}
		h, err := e.Hash()
		if err != nil {
			return nil, fmt.Errorf("%w: utxo[%d]: %w", ErrInputMismatch, i, err)
		}
		in := body.Inputs[i]
		if in.SourceTXID == nil || !in.SourceTXID.IsEqual(h) || in.SourceTxOutIndex != e.Vout {
			return nil, fmt.Errorf("%w: input %d does not spend %s", ErrInputMismatch, i, e.Outpoint())
		}
	}

	cp := make([]*UTXO, len(entries))
	for i, e := range entries {
		cp[i] = e.Clone()
	}
	return newSignable(cloneTx(body), cp), nil
}

func newSignable(t *transaction.Transaction, entries []*UTXO) *SignableTx {
	for i, e := range entries {
		t.Inputs[i].SetSourceTxOutput(e.Output())
	}
	return &SignableTx{tx: t, entries: entries}
}

// ID returns the transaction id in display (hex) order.
func (s *SignableTx) ID() string {
	return s.tx.TxID().String()
}

// Bytes returns the serialized transaction.
func (s *SignableTx) Bytes() []byte {
	return s.tx.Bytes()
}

// Hex returns the serialized transaction as hex.
func (s *SignableTx) Hex() string {
	return s.tx.Hex()
}

// Entries returns copies of the input records, in input order.
func (s *SignableTx) Entries() []*UTXO {
	out := make([]*UTXO, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Transaction returns a deep copy of the underlying go-sdk transaction with
// source outputs attached.
func (s *SignableTx) Transaction() *transaction.Transaction {
	return s.Clone().tx
}

// Clone returns an independent copy.
func (s *SignableTx) Clone() *SignableTx {
	entries := make([]*UTXO, len(s.entries))
	for i, e := range s.entries {
		entries[i] = e.Clone()
	}
	return newSignable(cloneTx(s.tx), entries)
}

// InputValue returns the sum of the spent outputs in satoshis.
func (s *SignableTx) InputValue() uint64 {
	var total uint64
	for _, e := range s.entries {
		total += e.Amount
	}
	return total
}

// OutputValue returns the sum of the outputs in satoshis.
func (s *SignableTx) OutputValue() uint64 {
	var total uint64
	for _, o := range s.tx.Outputs {
		total += o.Satoshis
	}
	return total
}

// SignedInputs returns the number of inputs carrying an unlocking script.
func (s *SignableTx) SignedInputs() int {
	n := 0
	for _, in := range s.tx.Inputs {
		if in.UnlockingScript != nil && len(*in.UnlockingScript) > 0 {
			n++
		}
	}
	return n
}

// IsFullySigned reports whether every input has an unlocking script.
// It does not validate the scripts.
func (s *SignableTx) IsFullySigned() bool {
	return s.SignedInputs() == len(s.tx.Inputs)
}

// SameUnsigned reports whether o is s with at most its unlocking scripts
// changed: same version and locktime, same input outpoints and sequences,
// same outputs, and the same spent output records.
func (s *SignableTx) SameUnsigned(o *SignableTx) bool {
	if o == nil {
		return false
	}
	a, b := s.tx, o.tx
	if a.Version != b.Version || a.LockTime != b.LockTime ||
		len(a.Inputs) != len(b.Inputs) || len(a.Outputs) != len(b.Outputs) ||
		len(s.entries) != len(o.entries) {
		return false
	}
	for i := range a.Inputs {
		x, y := a.Inputs[i], b.Inputs[i]
		if x.SourceTxOutIndex != y.SourceTxOutIndex || x.SequenceNumber != y.SequenceNumber {
			return false
		}
		if (x.SourceTXID == nil) != (y.SourceTXID == nil) ||
			(x.SourceTXID != nil && !x.SourceTXID.IsEqual(y.SourceTXID)) {
			return false
		}
	}
	for i := range a.Outputs {
		x, y := a.Outputs[i], b.Outputs[i]
		if x.Satoshis != y.Satoshis || !bytes.Equal(scriptBytes(x.LockingScript), scriptBytes(y.LockingScript)) {
			return false
		}
	}
	for i := range s.entries {
		x, y := s.entries[i], o.entries[i]
		if !bytes.Equal(x.TxID, y.TxID) || x.Vout != y.Vout || x.Amount != y.Amount ||
			!bytes.Equal(x.ScriptPubKey, y.ScriptPubKey) {
			return false
		}
	}
	return true
}

func scriptBytes(s *script.Script) []byte {
	if s == nil {
		return nil
	}
	return *s
}

// cloneTx copies a transaction field by field. Unlocking script templates
// are not carried over.
func cloneTx(src *transaction.Transaction) *transaction.Transaction {
	dst := transaction.NewTransaction()
	dst.Version = src.Version
	dst.LockTime = src.LockTime

	for _, in := range src.Inputs {
		cp := &transaction.TransactionInput{
			SourceTxOutIndex: in.SourceTxOutIndex,
			SequenceNumber:   in.SequenceNumber,
		}
		if in.SourceTXID != nil {
			h := *in.SourceTXID
			cp.SourceTXID = &h
		}
		if in.UnlockingScript != nil {
			cp.UnlockingScript = copyScript(in.UnlockingScript)
		}
		dst.AddInput(cp)
	}

	for _, out := range src.Outputs {
		cp := &transaction.TransactionOutput{
			Satoshis: out.Satoshis,
			Change:   out.Change,
		}
		if out.LockingScript != nil {
			cp.LockingScript = copyScript(out.LockingScript)
		}
		dst.AddOutput(cp)
	}
	return dst
}

func copyScript(s *script.Script) *script.Script {
	return script.NewFromBytes(append([]byte(nil), *s...))
}
