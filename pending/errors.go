package pending

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("pending: required parameter is nil")

	// ErrNoSigner indicates Sign was called but the generator has no signer bound.
	// It reports misuse and is not worth retrying.
	ErrNoSigner = errors.New("pending: no signer bound to generator")

	// ErrDoubleCommit indicates a second commit of the same transaction. Commit and
	// UTXO notification are 1:1, so a correct caller never sees this.
	ErrDoubleCommit = errors.New("pending: transaction committed more than once")

	// ErrAlreadyCommitted indicates an attempt to re-sign a committed transaction.
	ErrAlreadyCommitted = errors.New("pending: transaction is already committed")

	// ErrPayloadMismatch indicates a signer returned a transaction that differs
	// from the unsigned one in more than its unlocking scripts.
	ErrPayloadMismatch = errors.New("pending: signed payload does not match transaction")
)
