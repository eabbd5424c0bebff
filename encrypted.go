package pkcs8

import (
	"bytes"
	"crypto/x509/pkix"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
	"github.com/gematik/zero-lab/go/pkcs8/pkcs5"
)

// EncryptedPrivateKeyInfo represents EncryptedPrivateKeyInfo (RFC 5208
// Section 6). Values returned by ParseEncryptedPrivateKeyInfo alias the
// parsed buffer.
type EncryptedPrivateKeyInfo struct {
	EncryptionAlgorithm pkix.AlgorithmIdentifier
	EncryptedData       []byte
}

// ParseEncryptedPrivateKeyInfo parses a DER encoded EncryptedPrivateKeyInfo.
// Only the structure is checked; the encryption scheme parameters are parsed
// by Scheme and Decrypt.
func ParseEncryptedPrivateKeyInfo(data []byte) (*EncryptedPrivateKeyInfo, error) {
	input := cryptobyte.String(data)

	// EncryptedPrivateKeyInfo ::= SEQUENCE {
	//   encryptionAlgorithm  EncryptionAlgorithmIdentifier,
	//   encryptedData        EncryptedData
	// }
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: failed to read EncryptedPrivateKeyInfo SEQUENCE", ErrMalformed)
	}
	if !input.Empty() {
		return nil, fmt.Errorf("%w: trailing data after EncryptedPrivateKeyInfo", ErrMalformed)
	}

	var epki EncryptedPrivateKeyInfo
	if !der.ReadAlgorithmIdentifier(&seq, &epki.EncryptionAlgorithm) {
		return nil, fmt.Errorf("%w: failed to read encryptionAlgorithm", ErrMalformed)
	}
	if !seq.ReadASN1Bytes(&epki.EncryptedData, cryptobyte_asn1.OCTET_STRING) {
		return nil, fmt.Errorf("%w: failed to read encryptedData", ErrMalformed)
	}
	if !seq.Empty() {
		return nil, fmt.Errorf("%w: unexpected data after encryptedData", ErrMalformed)
	}

	return &epki, nil
}

// Marshal returns the DER encoding of epki.
func (epki *EncryptedPrivateKeyInfo) Marshal() ([]byte, error) {
	if len(epki.EncryptionAlgorithm.Algorithm) == 0 {
		return nil, fmt.Errorf("%w: missing encryptionAlgorithm", ErrEncode)
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		der.AddAlgorithmIdentifier(b, epki.EncryptionAlgorithm)
		b.AddASN1OctetString(epki.EncryptedData)
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// Scheme parses the PBES2 parameters of the encryption algorithm.
func (epki *EncryptedPrivateKeyInfo) Scheme() (*pkcs5.Parameters, error) {
	params, err := pkcs5.ParseParameters(epki.EncryptionAlgorithm)
	if err != nil {
		return nil, translateSchemeError(err)
	}
	return params, nil
}

// Clone returns a deep copy of epki.
func (epki *EncryptedPrivateKeyInfo) Clone() *EncryptedPrivateKeyInfo {
	return &EncryptedPrivateKeyInfo{
		EncryptionAlgorithm: der.CloneAlgorithmIdentifier(epki.EncryptionAlgorithm),
		EncryptedData:       bytes.Clone(epki.EncryptedData),
	}
}

// Equal reports whether epki and other have the same contents.
func (epki *EncryptedPrivateKeyInfo) Equal(other *EncryptedPrivateKeyInfo) bool {
	if epki == nil || other == nil {
		return epki == other
	}
	return der.EqualAlgorithmIdentifier(epki.EncryptionAlgorithm, other.EncryptionAlgorithm) &&
		bytes.Equal(epki.EncryptedData, other.EncryptedData)
}

// translateSchemeError maps pkcs5 parameter errors onto this package's
// taxonomy while keeping the detail.
func translateSchemeError(err error) error {
	if errors.Is(err, pkcs5.ErrUnsupportedAlgorithm) {
		return fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
