// Package wallet holds the keys that sign pending transactions: a BIP39
// seed stored encrypted at rest, BIP32 derivation along
// m/44'/236'/{account}'/{chain}/{index}, and a Keyring-backed Signer.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	"golang.org/x/crypto/argon2"
)

const (
	// Mnemonic entropy sizes.
	Mnemonic12Words = 128
	Mnemonic24Words = 256

	// Argon2id parameters for seed encryption.
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32

	// Encrypted seed layout.
	SaltLen     = 16
	NonceLen    = 12
	ChecksumLen = 4
)

// GenerateMnemonic creates a new BIP39 mnemonic with 128 or 256 bits of entropy.
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != Mnemonic12Words && entropyBits != Mnemonic24Words {
		return "", ErrInvalidEntropy
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("wallet: failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("wallet: failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic string is valid BIP39.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// SeedFromMnemonic derives the 64-byte BIP39 seed. An empty passphrase still
// participates in derivation.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to derive seed: %w", err)
	}
	return seed, nil
}

func seedCipher(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seedChecksum(seed []byte) []byte {
	h := sha256.Sum256(seed)
	return h[:ChecksumLen]
}

// EncryptSeed encrypts seed with an Argon2id-derived AES-256-GCM key.
//
//	salt(16B) || nonce(12B) || AES-GCM(seed || SHA256(seed)[:4])
func EncryptSeed(seed []byte, password string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}

	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("wallet: failed to generate salt: %w", err)
	}
	gcm, err := seedCipher(password, salt)
	if err != nil {
		return nil, fmt.Errorf("wallet: cipher setup failed: %w", err)
	}
	nonce := make([]byte, NonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wallet: failed to generate nonce: %w", err)
	}

	plaintext := append(append(make([]byte, 0, len(seed)+ChecksumLen), seed...), seedChecksum(seed)...)

	out := make([]byte, 0, SaltLen+NonceLen+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// DecryptSeed reverses EncryptSeed. A wrong password yields
// ErrDecryptionFailed.
func DecryptSeed(encrypted []byte, password string) ([]byte, error) {
	if len(encrypted) < SaltLen+NonceLen+ChecksumLen {
		return nil, ErrDecryptionFailed
	}
	salt := encrypted[:SaltLen]
	nonce := encrypted[SaltLen : SaltLen+NonceLen]

	gcm, err := seedCipher(password, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := gcm.Open(nil, nonce, encrypted[SaltLen+NonceLen:], nil)
	if err != nil || len(plaintext) < ChecksumLen {
		return nil, ErrDecryptionFailed
	}

	seed := plaintext[:len(plaintext)-ChecksumLen]
	if subtle.ConstantTimeCompare(plaintext[len(plaintext)-ChecksumLen:], seedChecksum(seed)) != 1 {
		return nil, ErrChecksumMismatch
	}
	return seed, nil
}

// WriteSeedFile encrypts seed and writes it to path with owner-only permissions.
func WriteSeedFile(path string, seed []byte, password string) error {
	enc, err := EncryptSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("wallet: create seed dir: %w", err)
	}
	if err := os.WriteFile(path, enc, 0600); err != nil {
		return fmt.Errorf("wallet: write seed file: %w", err)
	}
	return nil
}

// ReadSeedFile reads and decrypts a seed written by WriteSeedFile.
func ReadSeedFile(path, password string) ([]byte, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read seed file: %w", err)
	}
	return DecryptSeed(enc, password)
}
