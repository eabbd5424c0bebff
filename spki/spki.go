// Package spki implements SubjectPublicKeyInfo (RFC 5280 Section 4.1.2.7),
// the public key counterpart of a PKCS#8 PrivateKeyInfo.
package spki

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
)

var (
	ErrParse  = errors.New("spki: parse error")
	ErrEncode = errors.New("spki: encoding failed")
)

// SubjectPublicKeyInfo holds an algorithm identifier and the encoded public
// key. Values returned by Parse alias the parsed buffer.
type SubjectPublicKeyInfo struct {
	Algorithm        pkix.AlgorithmIdentifier
	SubjectPublicKey asn1.BitString
}

// New returns a SubjectPublicKeyInfo for a byte aligned key.
func New(alg pkix.AlgorithmIdentifier, key []byte) *SubjectPublicKeyInfo {
	return &SubjectPublicKeyInfo{
		Algorithm:        alg,
		SubjectPublicKey: asn1.BitString{Bytes: key, BitLength: len(key) * 8},
	}
}

// Parse parses a DER encoded SubjectPublicKeyInfo. No data may follow it.
func Parse(data []byte) (*SubjectPublicKeyInfo, error) {
	input := cryptobyte.String(data)

	// SubjectPublicKeyInfo ::= SEQUENCE {
	//   algorithm            AlgorithmIdentifier,
	//   subjectPublicKey     BIT STRING
	// }
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: failed to read SubjectPublicKeyInfo SEQUENCE", ErrParse)
	}
	if !input.Empty() {
		return nil, fmt.Errorf("%w: trailing data after SubjectPublicKeyInfo", ErrParse)
	}

	var info SubjectPublicKeyInfo
	if !der.ReadAlgorithmIdentifier(&seq, &info.Algorithm) {
		return nil, fmt.Errorf("%w: failed to read algorithm", ErrParse)
	}
	if !seq.ReadASN1BitString(&info.SubjectPublicKey) {
		return nil, fmt.Errorf("%w: failed to read subjectPublicKey", ErrParse)
	}
	if !seq.Empty() {
		return nil, fmt.Errorf("%w: unexpected data after subjectPublicKey", ErrParse)
	}
	return &info, nil
}

// Marshal returns the DER encoding of info.
func (info *SubjectPublicKeyInfo) Marshal() ([]byte, error) {
	if len(info.Algorithm.Algorithm) == 0 {
		return nil, fmt.Errorf("%w: missing algorithm", ErrEncode)
	}
	bits := info.SubjectPublicKey
	if bits.BitLength < 0 || bits.BitLength > len(bits.Bytes)*8 || len(bits.Bytes)*8-bits.BitLength > 7 {
		return nil, fmt.Errorf("%w: invalid bit string length %d", ErrEncode, bits.BitLength)
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		der.AddAlgorithmIdentifier(b, info.Algorithm)
		b.AddASN1(cryptobyte_asn1.BIT_STRING, func(b *cryptobyte.Builder) {
			b.AddUint8(uint8(len(bits.Bytes)*8 - bits.BitLength))
			b.AddBytes(bits.Bytes)
		})
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// PublicKeyBytes returns the key bytes of a byte aligned subjectPublicKey.
func (info *SubjectPublicKeyInfo) PublicKeyBytes() ([]byte, error) {
	if info.SubjectPublicKey.BitLength%8 != 0 {
		return nil, fmt.Errorf("%w: subjectPublicKey is not byte aligned", ErrParse)
	}
	return info.SubjectPublicKey.Bytes, nil
}

// Clone returns a deep copy of info.
func (info *SubjectPublicKeyInfo) Clone() *SubjectPublicKeyInfo {
	return &SubjectPublicKeyInfo{
		Algorithm: der.CloneAlgorithmIdentifier(info.Algorithm),
		SubjectPublicKey: asn1.BitString{
			Bytes:     bytes.Clone(info.SubjectPublicKey.Bytes),
			BitLength: info.SubjectPublicKey.BitLength,
		},
	}
}

// Equal reports whether info and other have the same contents.
func (info *SubjectPublicKeyInfo) Equal(other *SubjectPublicKeyInfo) bool {
	if info == nil || other == nil {
		return info == other
	}
	return der.EqualAlgorithmIdentifier(info.Algorithm, other.Algorithm) &&
		info.SubjectPublicKey.BitLength == other.SubjectPublicKey.BitLength &&
		bytes.Equal(info.SubjectPublicKey.Bytes, other.SubjectPublicKey.Bytes)
}
