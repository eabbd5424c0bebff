package pkcs8

import (
	"errors"

	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
	"github.com/gematik/zero-lab/go/pkcs8/pkcs5"
)

// Decrypt recovers the PrivateKeyInfo protected by epki.
//
// An unsupported scheme is reported as ErrUnsupportedAlgorithm and broken
// scheme parameters as ErrMalformed. A wrong password, bad padding and
// plaintext that is not a valid PrivateKeyInfo all yield the bare ErrCrypto,
// so callers cannot tell them apart. Intermediate key material is wiped
// before Decrypt returns.
func (epki *EncryptedPrivateKeyInfo) Decrypt(password []byte) (*PrivateKeyDocument, error) {
	params, err := epki.Scheme()
	if err != nil {
		return nil, err
	}

	plaintext, err := params.Decrypt(password, epki.EncryptedData)
	if err != nil {
		if errors.Is(err, pkcs5.ErrDecryption) {
			return nil, ErrCrypto
		}
		return nil, translateSchemeError(err)
	}

	if _, err := ParsePrivateKeyInfo(plaintext); err != nil {
		secret.Wipe(plaintext)
		return nil, ErrCrypto
	}
	return adoptPrivateKeyDocument(plaintext), nil
}

// DecryptPrivateKeyInfo parses a DER encoded EncryptedPrivateKeyInfo and
// decrypts it.
func DecryptPrivateKeyInfo(data, password []byte) (*PrivateKeyDocument, error) {
	epki, err := ParseEncryptedPrivateKeyInfo(data)
	if err != nil {
		return nil, err
	}
	return epki.Decrypt(password)
}
