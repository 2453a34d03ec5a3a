package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// TxIDLen is the length of a transaction hash in bytes.
const TxIDLen = 32

// UTXO references an unspent transaction output consumed by a transaction.
type UTXO struct {
	TxID         []byte `json:"txid"` // 32 bytes, chainhash byte order
	Vout         uint32 `json:"vout"`
	Amount       uint64 `json:"amount"`        // satoshis
	ScriptPubKey []byte `json:"script_pubkey"` // locking script bytes
	Address      string `json:"address,omitempty"`
}

// Hash returns the TxID as a chainhash.
func (u *UTXO) Hash() (*chainhash.Hash, error) {
	if len(u.TxID) != TxIDLen {
		return nil, fmt.Errorf("%w: txid must be %d bytes, got %d", ErrInvalidParams, TxIDLen, len(u.TxID))
	}
	return chainhash.NewHash(u.TxID)
}

// Outpoint renders the reference as "txid:vout" with the txid in display order.
func (u *UTXO) Outpoint() string {
	h, err := u.Hash()
	if err != nil {
		return fmt.Sprintf("%x:%d", u.TxID, u.Vout)
	}
	return fmt.Sprintf("%s:%d", h.String(), u.Vout)
}

// Output returns the UTXO as the go-sdk output it was created as.
func (u *UTXO) Output() *transaction.TransactionOutput {
	return &transaction.TransactionOutput{
		Satoshis:      u.Amount,
		LockingScript: script.NewFromBytes(u.ScriptPubKey),
	}
}

// Clone returns a deep copy of the UTXO.
func (u *UTXO) Clone() *UTXO {
	cp := *u
	cp.TxID = append([]byte(nil), u.TxID...)
	cp.ScriptPubKey = append([]byte(nil), u.ScriptPubKey...)
	return &cp
}
