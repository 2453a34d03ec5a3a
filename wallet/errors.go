package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("wallet: entropy bits must be 128 or 256")

	// ErrDecryptionFailed indicates wrong password or corrupted seed data.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates seed checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("wallet: seed checksum mismatch")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("wallet: invalid network name")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")

	// ErrIndexOutOfRange indicates an account or address index at or above
	// the BIP32 hardened boundary.
	ErrIndexOutOfRange = errors.New("wallet: index exceeds maximum (2^31-1)")

	// ErrKeyNotFound indicates the keyring holds no key for an address.
	ErrKeyNotFound = errors.New("wallet: no key for address")

	// ErrInvalidWIF indicates a WIF string that does not decode to a key.
	ErrInvalidWIF = errors.New("wallet: invalid WIF")
)
