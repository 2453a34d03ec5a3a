package utxo

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("utxo: nil parameter")

	// ErrUnknownUTXO indicates an outpoint the tracker does not hold.
	ErrUnknownUTXO = errors.New("utxo: unknown output")

	// ErrAlreadySpent indicates an output already consumed by an outgoing transaction.
	ErrAlreadySpent = errors.New("utxo: output already spent")

	// ErrOutgoingNotFound indicates no outgoing transaction with the given id.
	ErrOutgoingNotFound = errors.New("utxo: outgoing transaction not found")
)
