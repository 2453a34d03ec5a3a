// Package pending carries a generated transaction from assembly through
// signing to submission.
//
// A Transaction is shared by reference: a UI and a submission task may hold
// the same instance. The signable payload is the only mutable part and is
// replaced wholesale by signing. Submission commits the instance exactly
// once, notifies the UTXO tracker, then hands the wire projection to the
// transport.
package pending

import (
	"context"
	"fmt"
	"sync"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// Economics describes the monetary shape of a transaction as decided by the
// generator.
type Economics struct {
	PaymentValue         *uint64 // nil for pure consolidation
	ChangeValue          uint64
	AggregateInputValue  uint64
	AggregateOutputValue uint64
	Fees                 uint64
}

// Transaction is a generated transaction awaiting signing and submission.
type Transaction struct {
	generator Generator
	utxos     []*tx.UTXO
	addresses []*script.Address

	hasPayment    bool
	paymentValue  uint64
	changeValue   uint64
	inputValue    uint64
	outputValue   uint64
	fees          uint64
	isFinal       bool
	allowHighFees bool

	// mu guards payload. It is held for one copy or one replace, never across
	// a signer, notifier or transport call.
	mu      sync.Mutex
	payload *tx.SignableTx

	committed atomic.Bool

	log     *zap.Logger
	metrics *Metrics
}

// New builds a pending transaction from the generator's output. utxos[i] is
// the output spent by body input i; addresses are the spending identities of
// those outputs. body is copied.
//
// New fails with ErrNilParam for a nil generator or body and with
// tx.ErrInputMismatch when utxos do not line up with the inputs of body.
func New(
	gen Generator,
	body *transaction.Transaction,
	utxos []*tx.UTXO,
	addresses []*script.Address,
	econ Economics,
	isFinal bool,
	opts ...Option,
) (*Transaction, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: generator", ErrNilParam)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: transaction body", ErrNilParam)
	}

	payload, err := tx.NewSignableTx(body, utxos)
	if err != nil {
		return nil, err
	}

	p := &Transaction{
		generator:   gen,
		utxos:       payload.Entries(),
		addresses:   append([]*script.Address(nil), addresses...),
		changeValue: econ.ChangeValue,
		inputValue:  econ.AggregateInputValue,
		outputValue: econ.AggregateOutputValue,
		fees:        econ.Fees,
		isFinal:     isFinal,
		payload:     payload,
		log:         zap.NewNop(),
	}
	if econ.PaymentValue != nil {
		p.hasPayment = true
		p.paymentValue = *econ.PaymentValue
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ID returns the id of the current payload. It is recomputed on every call
// because signing replaces the payload.
func (p *Transaction) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload.ID()
}

// Addresses returns the spending identities of the inputs.
func (p *Transaction) Addresses() []*script.Address {
	return append([]*script.Address(nil), p.addresses...)
}

// UTXOEntries returns the outputs spent by this transaction, in input order.
func (p *Transaction) UTXOEntries() []*tx.UTXO {
	out := make([]*tx.UTXO, len(p.utxos))
	for i, u := range p.utxos {
		out[i] = u.Clone()
	}
	return out
}

// Fees returns the fee the generator decided on, in satoshis.
func (p *Transaction) Fees() uint64 { return p.fees }

// InputAggregateValue returns the sum of the spent outputs.
func (p *Transaction) InputAggregateValue() uint64 { return p.inputValue }

// OutputAggregateValue returns the sum of the outputs.
func (p *Transaction) OutputAggregateValue() uint64 { return p.outputValue }

// PaymentValue returns the destination amount. ok is false for a
// consolidation, which has no payment.
func (p *Transaction) PaymentValue() (value uint64, ok bool) {
	return p.paymentValue, p.hasPayment
}

// ChangeValue returns the amount returned to the wallet.
func (p *Transaction) ChangeValue() uint64 { return p.changeValue }

// IsFinal reports whether this is a standalone transaction rather than one
// element of a multi-transaction plan.
func (p *Transaction) IsFinal() bool { return p.isFinal }

// IsBatch is the negation of IsFinal.
func (p *Transaction) IsBatch() bool { return !p.isFinal }

// IsCommitted reports whether Submit has been called.
func (p *Transaction) IsCommitted() bool { return p.committed.Load() }

// Payload returns an independent copy of the current signable payload.
func (p *Transaction) Payload() *tx.SignableTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload.Clone()
}

// WireTransaction returns the broadcast projection of the current payload.
// It can be used for diagnostics or out-of-band submission; it does not
// commit the transaction.
func (p *Transaction) WireTransaction() *tx.WireTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload.Wire()
}

// Sign signs the payload with the generator's signer and replaces it with
// the result. It fails with ErrNoSigner if none is bound and with
// ErrAlreadyCommitted once the transaction has been submitted.
func (p *Transaction) Sign(ctx context.Context) error {
	signer := p.generator.Signer()
	if signer == nil {
		return ErrNoSigner
	}
	if p.committed.Load() {
		return fmt.Errorf("%w: %s", ErrAlreadyCommitted, p.ID())
	}

	signed, err := signer.TrySign(ctx, p.Payload(), p.Addresses())
	if err != nil {
		return fmt.Errorf("pending: sign: %w", err)
	}
	return p.replace(signed)
}

// SignWithKeys signs with raw 32-byte secrets instead of the bound signer.
// Inputs not matching any key are left as they are, so the payload may
// remain partially signed.
func (p *Transaction) SignWithKeys(ctx context.Context, rawKeys [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.committed.Load() {
		return fmt.Errorf("%w: %s", ErrAlreadyCommitted, p.ID())
	}

	keys, err := tx.KeysFromBytes(rawKeys)
	if err != nil {
		return err
	}
	signed, err := tx.SignWithKeys(p.Payload(), keys)
	if err != nil {
		return fmt.Errorf("pending: sign with keys: %w", err)
	}
	return p.replace(signed)
}

// replace installs a signed payload. The signed payload must be the
// current one with only unlocking scripts changed. The committed flag is
// checked again under the lock: Submit reads the payload under the same
// lock after setting the flag, so nothing can change what was broadcast.
func (p *Transaction) replace(signed *tx.SignableTx) error {
	if signed == nil {
		return fmt.Errorf("%w: signer returned no transaction", tx.ErrSigningFailed)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.committed.Load() {
		return fmt.Errorf("%w: %s", ErrAlreadyCommitted, p.payload.ID())
	}
	if !p.payload.SameUnsigned(signed) {
		return fmt.Errorf("%w: %s", ErrPayloadMismatch, p.payload.ID())
	}
	p.payload = signed.Clone()
	p.metrics.observeSigned()
	p.log.Debug("transaction signed",
		zap.String("txid", signed.ID()),
		zap.Int("signedInputs", signed.SignedInputs()),
		zap.Int("inputs", len(p.utxos)),
	)
	return nil
}

// commit flips the one-shot gate and notifies the UTXO tracker. Only the
// caller that wins the flip notifies.
func (p *Transaction) commit(ctx context.Context) error {
	if !p.committed.CompareAndSwap(false, true) {
		id := p.ID()
		p.metrics.observeDoubleCommit()
		p.log.Error("commit called on an already committed transaction", zap.String("txid", id))
		return fmt.Errorf("%w: %s", ErrDoubleCommit, id)
	}
	p.metrics.observeCommit()

	notifier := p.generator.UTXONotifier()
	if notifier == nil {
		return nil
	}
	if err := notifier.HandleOutgoingTransaction(ctx, p); err != nil {
		return fmt.Errorf("pending: notify outgoing %s: %w", p.ID(), err)
	}
	return nil
}

// Submit commits the transaction and broadcasts the current payload through
// transport, returning the network-assigned id.
//
// A transaction can be submitted once. The commit happens before the
// broadcast, so the instance stays committed whatever the transport returns;
// a failed broadcast needs a freshly generated transaction, not a retry.
// A second call returns ErrDoubleCommit and reaches neither the notifier nor
// the transport.
func (p *Transaction) Submit(ctx context.Context, transport Transport) (string, error) {
	if transport == nil {
		return "", fmt.Errorf("%w: transport", ErrNilParam)
	}
	if err := p.commit(ctx); err != nil {
		return "", err
	}

	wire := p.WireTransaction()
	id, err := transport.SubmitTransaction(ctx, wire, p.allowHighFees)
	if err != nil {
		p.metrics.observeSubmitFailure()
		p.log.Warn("transaction submission failed", zap.String("txid", wire.TxID), zap.Error(err))
		return "", fmt.Errorf("pending: submit %s: %w", wire.TxID, err)
	}

	p.metrics.observeSubmitted()
	p.log.Info("transaction submitted",
		zap.String("txid", wire.TxID),
		zap.String("networkID", id),
		zap.Uint64("fees", p.fees),
		zap.Bool("final", p.isFinal),
	)
	return id, nil
}

// Log writes a diagnostic summary of the transaction. It never affects state.
func (p *Transaction) Log() {
	w := p.WireTransaction()
	fields := []zap.Field{
		zap.String("txid", w.TxID),
		zap.Int("size", w.Size),
		zap.Int("inputs", w.Inputs),
		zap.Int("outputs", w.Outputs),
		zap.Uint64("inputValue", p.inputValue),
		zap.Uint64("outputValue", p.outputValue),
		zap.Uint64("fees", p.fees),
		zap.Uint64("change", p.changeValue),
	}
	if v, ok := p.PaymentValue(); ok {
		fields = append(fields, zap.Uint64("payment", v))
	}
	fields = append(fields,
		zap.Bool("final", p.isFinal),
		zap.Bool("signed", w.Signed),
		zap.Bool("committed", p.IsCommitted()),
		zap.String("hex", w.Hex),
	)
	p.log.Info("pending transaction", fields...)
}
