package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInputMismatch indicates the input records do not line up with the transaction inputs.
	ErrInputMismatch = errors.New("tx: input records do not match transaction inputs")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrInvalidKey indicates raw key material could not be used as a private key.
	ErrInvalidKey = errors.New("tx: invalid private key")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("tx: invalid parameters")

	// ErrInsufficientFunds indicates the inputs cannot cover outputs plus fee.
	ErrInsufficientFunds = errors.New("tx: insufficient funds")
)
