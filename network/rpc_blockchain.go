package network

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bitfsorg/pendingtx-go/tx"
)

var _ BlockchainService = (*RPCClient)(nil)

// btcToSat converts a BTC amount as returned by the node to satoshis.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent calls `listunspent 0 9999999 ["address"]`.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	params := []interface{}{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, len(results))
	for i, r := range results {
		utxos[i] = &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        btcToSat(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		}
	}
	return utxos, nil
}

// gettxout answers JSON null for a spent output, hence the pointer.
type gettxoutResult struct {
	Value         float64 `json:"value"`
	Confirmations int64   `json:"confirmations"`
	ScriptPubKey  struct {
		Hex       string   `json:"hex"`
		Addresses []string `json:"addresses"`
	} `json:"scriptPubKey"`
}

// GetUTXO calls `gettxout "txid" vout`.
func (c *RPCClient) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	var result *gettxoutResult
	if err := c.Call(ctx, "gettxout", []interface{}{txid, vout}, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: output %s:%d is spent", ErrTxNotFound, txid, vout)
	}

	u := &UTXO{
		TxID:          txid,
		Vout:          vout,
		Amount:        btcToSat(result.Value),
		ScriptPubKey:  result.ScriptPubKey.Hex,
		Confirmations: result.Confirmations,
	}
	if len(result.ScriptPubKey.Addresses) > 0 {
		u.Address = result.ScriptPubKey.Addresses[0]
	}
	return u, nil
}

// BroadcastTx calls `sendrawtransaction "hex"`.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return c.sendRaw(ctx, []interface{}{rawTxHex})
}

// SubmitTransaction calls `sendrawtransaction "hex" allowhighfees` with the
// wire projection of a pending transaction. The node's txid is returned.
func (c *RPCClient) SubmitTransaction(ctx context.Context, wire *tx.WireTx, allowHighFees bool) (string, error) {
	if wire == nil {
		return "", fmt.Errorf("%w: wire transaction", ErrNilParam)
	}
	return c.sendRaw(ctx, []interface{}{wire.Hex, allowHighFees})
}

// sendRaw wraps node-side refusals in ErrBroadcastRejected. Connection and
// auth failures keep their own sentinel.
func (c *RPCClient) sendRaw(ctx context.Context, params []interface{}) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", params, &txid); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
		}
		return "", err
	}
	return txid, nil
}

type verboseTxResult struct {
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"blockhash"`
	BlockHeight   uint64 `json:"blockheight"`
}

// GetTxStatus calls `getrawtransaction "txid" true`. Error -5 means the
// node has never seen the transaction and maps to ErrTxNotFound.
func (c *RPCClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	var result verboseTxResult
	if err := c.Call(ctx, "getrawtransaction", []interface{}{txid, true}, &result); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == -5 {
			return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txid)
		}
		return nil, err
	}
	return &TxStatus{
		Confirmed:     result.Confirmations > 0,
		Confirmations: result.Confirmations,
		BlockHash:     result.BlockHash,
		BlockHeight:   result.BlockHeight,
	}, nil
}

// GetBestBlockHeight calls `getblockcount`.
func (c *RPCClient) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.Call(ctx, "getblockcount", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}
