package pending

import (
	"context"

	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// Generator is the producer of pending transactions. It supplies the
// capabilities a Transaction resolves at call time. Either method may return
// nil when the capability is not configured.
type Generator interface {
	Signer() Signer
	UTXONotifier() UTXONotifier
}

// Signer produces a signed payload from an unsigned or partially signed one.
type Signer interface {
	// TrySign returns a signed copy of stx. The addresses are the spending
	// identities of the inputs. stx must not be retained.
	TrySign(ctx context.Context, stx *tx.SignableTx, addresses []*script.Address) (*tx.SignableTx, error)
}

// UTXONotifier is told, once per transaction, that its inputs are now
// consumed by an outgoing transaction.
type UTXONotifier interface {
	HandleOutgoingTransaction(ctx context.Context, p *Transaction) error
}

// Transport broadcasts a transaction and returns the network-assigned id.
type Transport interface {
	SubmitTransaction(ctx context.Context, wire *tx.WireTx, allowHighFees bool) (string, error)
}

// StaticGenerator binds a fixed signer and notifier.
type StaticGenerator struct {
	signer   Signer
	notifier UTXONotifier
}

// Compile-time interface check.
var _ Generator = (*StaticGenerator)(nil)

// NewGenerator returns a Generator exposing signer and notifier. Either may be nil.
func NewGenerator(signer Signer, notifier UTXONotifier) *StaticGenerator {
	return &StaticGenerator{signer: signer, notifier: notifier}
}

func (g *StaticGenerator) Signer() Signer { return g.signer }

func (g *StaticGenerator) UTXONotifier() UTXONotifier { return g.notifier }
