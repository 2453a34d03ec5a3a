// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidRPCURL indicates the RPC endpoint is not an http(s) host:port URL.
	ErrInvalidRPCURL = errors.New("config: invalid RPC URL")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidTimeout indicates a negative RPC timeout.
	ErrInvalidTimeout = errors.New("config: RPC timeout must not be negative")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigFile indicates the configuration file cannot be parsed.
	ErrInvalidConfigFile = errors.New("config: invalid configuration file")
)
