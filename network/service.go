package network

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// BlockchainService is the node surface the wallet needs: loading spendable
// outputs, submitting pending transactions and following them afterwards.
// Every implementation is a pending.Transport.
type BlockchainService interface {
	// ListUnspent returns all unspent transaction outputs for the given address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// GetUTXO returns a specific unspent output, or ErrTxNotFound once spent.
	GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error)

	// BroadcastTx submits a raw transaction hex and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// SubmitTransaction broadcasts the wire projection of a pending transaction.
	SubmitTransaction(ctx context.Context, wire *tx.WireTx, allowHighFees bool) (string, error)

	// GetTxStatus returns the confirmation status of a transaction.
	GetTxStatus(ctx context.Context, txid string) (*TxStatus, error)

	// GetBestBlockHeight returns the height of the node's chain tip.
	GetBestBlockHeight(ctx context.Context) (uint64, error)
}

// UTXO is an unspent output as reported by the node.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// ToTxUTXO converts the node representation into a transaction input reference.
func (u *UTXO) ToTxUTXO() (*tx.UTXO, error) {
	h, err := chainhash.NewHashFromHex(u.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: txid %q: %w", ErrInvalidResponse, u.TxID, err)
	}
	lock, err := hex.DecodeString(u.ScriptPubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: script of %s:%d: %w", ErrInvalidResponse, u.TxID, u.Vout, err)
	}
	return &tx.UTXO{
		TxID:         h.CloneBytes(),
		Vout:         u.Vout,
		Amount:       u.Amount,
		ScriptPubKey: lock,
		Address:      u.Address,
	}, nil
}

// TxStatus represents the confirmation status of a transaction.
type TxStatus struct {
	Confirmed     bool   `json:"confirmed"`
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"block_hash"`
	BlockHeight   uint64 `json:"block_height"`
}
