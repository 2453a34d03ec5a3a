package tx

import (
	"fmt"
	"math"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// PaymentBuilder assembles an unsigned P2PKH transaction from a fixed set of
// inputs: an optional payment output followed by an optional change output.
// Without a payment every input is consolidated into change.
type PaymentBuilder struct {
	inputs     []*UTXO
	payTo      *script.Address
	payScript  []byte
	amount     uint64
	changeAddr *script.Address
	feeRate    uint64
}

// Plan is a built transaction together with the economics the builder
// decided on.
type Plan struct {
	Body        *transaction.Transaction
	Inputs      []*UTXO
	Payment     *uint64 // nil for consolidation
	ChangeValue uint64
	ChangeVout  int // -1 when change was folded into the fee
	InputValue  uint64
	OutputValue uint64
	Fee         uint64
}

// NewPaymentBuilder creates an empty builder at DefaultFeeRate.
func NewPaymentBuilder() *PaymentBuilder {
	return &PaymentBuilder{feeRate: DefaultFeeRate}
}

// AddInput appends a UTXO to spend. Inputs are spent in the order added.
func (b *PaymentBuilder) AddInput(u *UTXO) {
	b.inputs = append(b.inputs, u)
}

// SetPayment pays amount satoshis to addr.
func (b *PaymentBuilder) SetPayment(addr *script.Address, amount uint64) {
	b.payTo = addr
	b.payScript = nil
	b.amount = amount
}

// SetPaymentScript pays amount satoshis to an arbitrary locking script, as
// handed out by a paymail host.
func (b *PaymentBuilder) SetPaymentScript(lock []byte, amount uint64) {
	b.payTo = nil
	b.payScript = append([]byte(nil), lock...)
	b.amount = amount
}

func (b *PaymentBuilder) hasPayment() bool {
	return b.payTo != nil || len(b.payScript) > 0
}

func (b *PaymentBuilder) paymentScript() ([]byte, error) {
	if b.payTo != nil {
		return BuildAddressScript(b.payTo)
	}
	return b.payScript, nil
}

// SetChange sets the change destination.
func (b *PaymentBuilder) SetChange(addr *script.Address) {
	b.changeAddr = addr
}

// SetFeeRate sets the fee rate in sat/KB.
func (b *PaymentBuilder) SetFeeRate(rate uint64) {
	b.feeRate = rate
}

// Build constructs the transaction.
//
// Output layout:
//
//	[0]    payee script (when a payment is set)
//	[last] P2PKH -> change (when above DustLimit)
//
// Change at or below DustLimit is added to the fee.
func (b *PaymentBuilder) Build() (*Plan, error) {
	if len(b.inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ErrNilParam)
	}
	for i, u := range b.inputs {
		if u == nil {
			return nil, fmt.Errorf("%w: input[%d]", ErrNilParam, i)
		}
	}
	if b.hasPayment() && b.amount < DustLimit {
		return nil, fmt.Errorf("%w: payment of %d sat is below dust limit", ErrInvalidParams, b.amount)
	}
	if !b.hasPayment() && b.changeAddr == nil {
		return nil, fmt.Errorf("%w: consolidation needs a change address", ErrNilParam)
	}

	var totalIn uint64
	for i, u := range b.inputs {
		if u.Amount > math.MaxUint64-totalIn {
			return nil, fmt.Errorf("%w: input[%d] overflows total input value", ErrInvalidParams, i)
		}
		totalIn += u.Amount
	}

	numOutputs := 1
	if b.hasPayment() && b.changeAddr != nil {
		numOutputs = 2
	}
	fee := EstimateFee(EstimateTxSize(len(b.inputs), numOutputs), b.feeRate)

	if b.amount > totalIn || fee > totalIn-b.amount {
		return nil, fmt.Errorf("%w: need %d sat plus %d sat fee, have %d sat", ErrInsufficientFunds, b.amount, fee, totalIn)
	}
	change := totalIn - b.amount - fee
	if !b.hasPayment() && change <= DustLimit {
		return nil, fmt.Errorf("%w: consolidated value %d sat is dust", ErrInsufficientFunds, change)
	}
	if change > DustLimit && b.changeAddr == nil {
		return nil, fmt.Errorf("%w: %d sat of change needs a change address", ErrInvalidParams, change)
	}

	body := transaction.NewTransaction()
	for i, u := range b.inputs {
		h, err := chainhash.NewHash(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: input[%d] txid: %w", ErrInvalidParams, i, err)
		}
		body.AddInput(&transaction.TransactionInput{
			SourceTXID:       h,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
	}

	plan := &Plan{
		Inputs:     make([]*UTXO, len(b.inputs)),
		ChangeVout: -1,
		InputValue: totalIn,
	}
	for i, u := range b.inputs {
		plan.Inputs[i] = u.Clone()
	}

	if b.hasPayment() {
		lock, err := b.paymentScript()
		if err != nil {
			return nil, err
		}
		addOutput(body, lock, b.amount)
		amount := b.amount
		plan.Payment = &amount
	}

	if change > DustLimit {
		lock, err := BuildAddressScript(b.changeAddr)
		if err != nil {
			return nil, err
		}
		addOutput(body, lock, change)
		plan.ChangeValue = change
		plan.ChangeVout = len(body.Outputs) - 1
	}

	plan.OutputValue = b.amount + plan.ChangeValue
	plan.Fee = totalIn - plan.OutputValue
	plan.Body = body
	return plan, nil
}

func addOutput(body *transaction.Transaction, lock []byte, amount uint64) {
	body.AddOutput(&transaction.TransactionOutput{
		Satoshis:      amount,
		LockingScript: script.NewFromBytes(lock),
	})
}
