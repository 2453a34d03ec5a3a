package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates the node rejected the RPC credentials.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrTxNotFound indicates the requested transaction or output does not exist.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the node refused a submitted transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("network: nil parameter")
)
