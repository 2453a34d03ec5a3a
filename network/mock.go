package network

import (
	"context"

	"github.com/bitfsorg/pendingtx-go/tx"
)

var _ BlockchainService = (*MockBlockchainService)(nil)

// MockBlockchainService is a test double for BlockchainService.
// All function fields must be set before the corresponding method is called.
type MockBlockchainService struct {
	ListUnspentFn        func(ctx context.Context, address string) ([]*UTXO, error)
	GetUTXOFn            func(ctx context.Context, txid string, vout uint32) (*UTXO, error)
	BroadcastTxFn        func(ctx context.Context, rawTxHex string) (string, error)
	SubmitTransactionFn  func(ctx context.Context, wire *tx.WireTx, allowHighFees bool) (string, error)
	GetTxStatusFn        func(ctx context.Context, txid string) (*TxStatus, error)
	GetBestBlockHeightFn func(ctx context.Context) (uint64, error)
}

func (m *MockBlockchainService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}
func (m *MockBlockchainService) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	return m.GetUTXOFn(ctx, txid, vout)
}
func (m *MockBlockchainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
func (m *MockBlockchainService) SubmitTransaction(ctx context.Context, wire *tx.WireTx, allowHighFees bool) (string, error) {
	return m.SubmitTransactionFn(ctx, wire, allowHighFees)
}
func (m *MockBlockchainService) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	return m.GetTxStatusFn(ctx, txid)
}
func (m *MockBlockchainService) GetBestBlockHeight(ctx context.Context) (uint64, error) {
	return m.GetBestBlockHeightFn(ctx)
}
