package pkcs5

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"io"
	"slices"

	"golang.org/x/crypto/pbkdf2"

	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
)

const (
	// DefaultIterations matches the iteration count OpenSSL uses for PBES2.
	DefaultIterations = 2048
	DefaultSaltSize   = 16

	// MaxIterations bounds the PBKDF2 work an encoded key can demand.
	MaxIterations = 10_000_000
)

// NewParameters returns PBKDF2-HMAC-SHA256 parameters for the given cipher
// with a caller supplied salt and IV. salt and iv are copied.
func NewParameters(cipher asn1.ObjectIdentifier, iterations int, salt, iv []byte) (*Parameters, error) {
	p := &Parameters{
		KDF: PBKDF2Params{
			Salt:           slices.Clone(salt),
			IterationCount: iterations,
			PRF:            OIDHMACWithSHA256,
		},
		Cipher: CipherParams{
			Algorithm: slices.Clone(cipher),
			IV:        slices.Clone(iv),
		},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// GenerateParameters returns parameters with a fresh salt of saltSize bytes
// and a fresh IV, both read from random. A nil random uses crypto/rand.
func GenerateParameters(random io.Reader, cipher asn1.ObjectIdentifier, iterations, saltSize int) (*Parameters, error) {
	if random == nil {
		random = rand.Reader
	}
	if saltSize < 1 {
		return nil, fmt.Errorf("%w: salt size %d", ErrInvalidParameters, saltSize)
	}

	salt := make([]byte, saltSize)
	iv := make([]byte, blockSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	return NewParameters(cipher, iterations, salt, iv)
}

// DeriveKey runs PBKDF2 over password. The caller owns the returned key and
// should wipe it after use.
func (p *Parameters) DeriveKey(password []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return pbkdf2.Key(password, p.KDF.Salt, p.KDF.IterationCount, p.KeySize(), sha256.New), nil
}

// Encrypt pads and encrypts plaintext under a key derived from password.
// plaintext is not modified.
func (p *Parameters) Encrypt(password, plaintext []byte) ([]byte, error) {
	key, err := p.DeriveKey(password)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(key)

	return encryptCBC(key, p.Cipher.IV, plaintext)
}

// Decrypt decrypts ciphertext and strips its padding. Any failure after key
// derivation is reported as ErrDecryption without further detail. The
// caller owns the returned plaintext and should wipe it after use.
func (p *Parameters) Decrypt(password, ciphertext []byte) ([]byte, error) {
	key, err := p.DeriveKey(password)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(key)

	return decryptCBC(key, p.Cipher.IV, ciphertext)
}

// Clone returns a deep copy of p.
func (p *Parameters) Clone() *Parameters {
	return &Parameters{
		KDF: PBKDF2Params{
			Salt:           slices.Clone(p.KDF.Salt),
			IterationCount: p.KDF.IterationCount,
			KeyLength:      p.KDF.KeyLength,
			PRF:            slices.Clone(p.KDF.PRF),
		},
		Cipher: CipherParams{
			Algorithm: slices.Clone(p.Cipher.Algorithm),
			IV:        slices.Clone(p.Cipher.IV),
		},
	}
}
