package utxo

import (
	"time"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// State is the lifecycle position of a tracked output.
type State string

const (
	// StateAvailable outputs can be selected for a new transaction.
	StateAvailable State = "available"
	// StateOutgoing outputs are spent by a committed transaction that may
	// not have reached the network yet.
	StateOutgoing State = "outgoing"
)

// Record is a tracked output.
type Record struct {
	UTXO    *tx.UTXO
	State   State
	SpentBy string // txid of the outgoing transaction, empty while available
}

func (r *Record) clone() *Record {
	cp := *r
	cp.UTXO = r.UTXO.Clone()
	return &cp
}

// Outgoing describes a committed transaction and the outputs it consumes.
type Outgoing struct {
	TxID         string    `json:"txid"`
	Inputs       []string  `json:"inputs"` // outpoints, in input order
	Fees         uint64    `json:"fees"`
	PaymentValue uint64    `json:"payment_value"`
	HasPayment   bool      `json:"has_payment"`
	ChangeValue  uint64    `json:"change_value"`
	IsFinal      bool      `json:"is_final"`
	CommittedAt  time.Time `json:"committed_at"`
}

func (o *Outgoing) clone() *Outgoing {
	cp := *o
	cp.Inputs = append([]string(nil), o.Inputs...)
	return &cp
}
