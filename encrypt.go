package pkcs8

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"io"

	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
	"github.com/gematik/zero-lab/go/pkcs8/pkcs5"
)

// EncryptOptions configures PBES2 encryption. Zero fields take the value
// from DefaultEncryptOptions.
type EncryptOptions struct {
	// Cipher is pkcs5.OIDAES128CBC or pkcs5.OIDAES256CBC (default: AES-256-CBC)
	Cipher asn1.ObjectIdentifier

	// Number of PBKDF2 iterations (default: 2048)
	Iterations int

	// Salt size in bytes (default: 16)
	SaltSize int

	// Source for salt and IV (default: crypto/rand)
	Rand io.Reader
}

// DefaultEncryptOptions returns PBKDF2-HMAC-SHA256 with 2048 iterations, a
// 16 byte salt and AES-256-CBC.
func DefaultEncryptOptions() *EncryptOptions {
	return &EncryptOptions{
		Cipher:     pkcs5.OIDAES256CBC,
		Iterations: pkcs5.DefaultIterations,
		SaltSize:   pkcs5.DefaultSaltSize,
	}
}

func (opts *EncryptOptions) withDefaults() EncryptOptions {
	out := *DefaultEncryptOptions()
	if opts == nil {
		return out
	}
	if len(opts.Cipher) > 0 {
		out.Cipher = opts.Cipher
	}
	if opts.Iterations != 0 {
		out.Iterations = opts.Iterations
	}
	if opts.SaltSize != 0 {
		out.SaltSize = opts.SaltSize
	}
	out.Rand = opts.Rand
	return out
}

// Encrypt encrypts pki under password with a freshly generated salt and IV.
// A nil opts uses DefaultEncryptOptions.
func (pki *PrivateKeyInfo) Encrypt(password []byte, opts *EncryptOptions) (*EncryptedPrivateKeyDocument, error) {
	o := opts.withDefaults()

	params, err := pkcs5.GenerateParameters(o.Rand, o.Cipher, o.Iterations, o.SaltSize)
	if err != nil {
		if errors.Is(err, pkcs5.ErrUnsupportedAlgorithm) || errors.Is(err, pkcs5.ErrInvalidParameters) {
			return nil, translateEncryptError(err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return pki.EncryptWithParameters(password, params)
}

// EncryptWithParameters encrypts pki under password using caller supplied
// PBES2 parameters. The serialized plaintext is wiped before returning.
func (pki *PrivateKeyInfo) EncryptWithParameters(password []byte, params *pkcs5.Parameters) (*EncryptedPrivateKeyDocument, error) {
	alg, err := params.AlgorithmIdentifier()
	if err != nil {
		return nil, translateEncryptError(err)
	}

	plaintext, err := pki.Marshal()
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(plaintext)

	ciphertext, err := params.Encrypt(password, plaintext)
	if err != nil {
		return nil, translateEncryptError(err)
	}

	epki := &EncryptedPrivateKeyInfo{
		EncryptionAlgorithm: alg,
		EncryptedData:       ciphertext,
	}
	return epki.Document()
}

func translateEncryptError(err error) error {
	if errors.Is(err, pkcs5.ErrUnsupportedAlgorithm) {
		return fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, err)
	}
	return fmt.Errorf("%w: %v", ErrEncode, err)
}
