package pkcs8

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"slices"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
)

// Private key algorithm OIDs
var (
	OIDRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	OIDECPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	OIDEd25519       = asn1.ObjectIdentifier{1, 3, 101, 112}
)

// Named curves (RFC 5480)
var (
	OIDNamedCurveP224 = asn1.ObjectIdentifier{1, 3, 132, 0, 33}
	OIDNamedCurveP256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	OIDNamedCurveP384 = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	OIDNamedCurveP521 = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
)

var attributesTag = cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()

// PrivateKeyInfo represents PrivateKeyInfo (RFC 5208 Section 5).
//
// Values returned by ParsePrivateKeyInfo alias the parsed buffer; use Clone
// to detach them.
type PrivateKeyInfo struct {
	// Version is always 0.
	Version    int
	Algorithm  pkix.AlgorithmIdentifier
	PrivateKey []byte // algorithm specific, opaque
	// Attributes is nil when the optional field is absent.
	Attributes []Attribute
}

// Attribute represents an entry of the optional attributes field.
type Attribute struct {
	Type   asn1.ObjectIdentifier
	Values [][]byte // DER of each AttributeValue
}

// ParsePrivateKeyInfo parses a DER encoded PrivateKeyInfo. Only version 0 is
// accepted and no data may follow the structure.
func ParsePrivateKeyInfo(data []byte) (*PrivateKeyInfo, error) {
	input := cryptobyte.String(data)

	// PrivateKeyInfo ::= SEQUENCE {
	//   version                   Version,
	//   privateKeyAlgorithm       PrivateKeyAlgorithmIdentifier,
	//   privateKey                PrivateKey,
	//   attributes           [0]  IMPLICIT Attributes OPTIONAL
	// }
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: failed to read PrivateKeyInfo SEQUENCE", ErrMalformed)
	}
	if !input.Empty() {
		return nil, fmt.Errorf("%w: trailing data after PrivateKeyInfo", ErrMalformed)
	}

	var pki PrivateKeyInfo
	if err := readVersion(&seq, &pki.Version); err != nil {
		return nil, err
	}

	if !der.ReadAlgorithmIdentifier(&seq, &pki.Algorithm) {
		return nil, fmt.Errorf("%w: failed to read privateKeyAlgorithm", ErrMalformed)
	}

	if !seq.ReadASN1Bytes(&pki.PrivateKey, cryptobyte_asn1.OCTET_STRING) {
		return nil, fmt.Errorf("%w: failed to read privateKey", ErrMalformed)
	}

	if seq.PeekASN1Tag(attributesTag) {
		var attrs cryptobyte.String
		if !seq.ReadASN1(&attrs, attributesTag) {
			return nil, fmt.Errorf("%w: failed to read attributes", ErrMalformed)
		}
		pki.Attributes = []Attribute{}
		var encoded [][]byte
		for !attrs.Empty() {
			var elem cryptobyte.String
			if !attrs.ReadASN1Element(&elem, cryptobyte_asn1.SEQUENCE) {
				return nil, fmt.Errorf("%w: failed to read Attribute SEQUENCE", ErrMalformed)
			}
			attr, err := parseAttribute(elem)
			if err != nil {
				return nil, err
			}
			encoded = append(encoded, elem)
			pki.Attributes = append(pki.Attributes, attr)
		}
		if !der.IsSortedSetOf(encoded) {
			return nil, fmt.Errorf("%w: attributes not in DER SET OF order", ErrMalformed)
		}
	}

	if !seq.Empty() {
		return nil, fmt.Errorf("%w: unexpected data after privateKey", ErrMalformed)
	}

	return &pki, nil
}

// readVersion accepts only INTEGER 0. Any other well-formed INTEGER is a
// version error, whatever its size.
func readVersion(s *cryptobyte.String, version *int) error {
	var v big.Int
	if !s.ReadASN1Integer(&v) {
		return fmt.Errorf("%w: failed to read version", ErrMalformed)
	}
	if v.Sign() != 0 {
		return fmt.Errorf("%w: %s", ErrVersion, v.String())
	}
	*version = 0
	return nil
}

// parseAttribute parses one encoded Attribute. Its values must be a
// non-empty SET in DER order.
func parseAttribute(elem cryptobyte.String) (Attribute, error) {
	var attr Attribute
	var seq cryptobyte.String

	if !elem.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return attr, fmt.Errorf("%w: failed to read Attribute SEQUENCE", ErrMalformed)
	}
	if !seq.ReadASN1ObjectIdentifier(&attr.Type) {
		return attr, fmt.Errorf("%w: failed to read attribute type", ErrMalformed)
	}

	var values cryptobyte.String
	if !seq.ReadASN1(&values, cryptobyte_asn1.SET) {
		return attr, fmt.Errorf("%w: failed to read attribute values SET", ErrMalformed)
	}
	if values.Empty() {
		return attr, fmt.Errorf("%w: attribute %v has no values", ErrMalformed, attr.Type)
	}
	for !values.Empty() {
		var value cryptobyte.String
		var tag cryptobyte_asn1.Tag
		if !values.ReadAnyASN1Element(&value, &tag) {
			return attr, fmt.Errorf("%w: failed to read attribute value", ErrMalformed)
		}
		attr.Values = append(attr.Values, []byte(value))
	}
	if !der.IsSortedSetOf(attr.Values) {
		return attr, fmt.Errorf("%w: attribute %v values not in DER SET OF order", ErrMalformed, attr.Type)
	}

	if !seq.Empty() {
		return attr, fmt.Errorf("%w: trailing data in Attribute", ErrMalformed)
	}
	return attr, nil
}

// Marshal returns the DER encoding of pki.
func (pki *PrivateKeyInfo) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	if err := pki.build(&b); err != nil {
		return nil, err
	}
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// MarshalTo writes the DER encoding of pki into buf and returns the number
// of bytes written. The encoding is built in place, buf is never grown. If
// buf is too small the error wraps ErrCapacity, nothing is reported written
// and buf is wiped.
func (pki *PrivateKeyInfo) MarshalTo(buf []byte) (int, error) {
	b := cryptobyte.NewFixedBuilder(buf[:0:len(buf)])
	if err := pki.build(b); err != nil {
		return 0, err
	}
	out, err := b.Bytes()
	if err == nil {
		return len(out), nil
	}
	secret.Wipe(buf)

	// tell an invalid value apart from a short buffer
	n, encErr := pki.EncodedLen()
	if encErr != nil {
		return 0, encErr
	}
	return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrCapacity, n, len(buf))
}

// EncodedLen returns the length of the DER encoding of pki.
func (pki *PrivateKeyInfo) EncodedLen() (int, error) {
	out, err := pki.Marshal()
	if err != nil {
		return 0, err
	}
	defer secret.Wipe(out)
	return len(out), nil
}

func (pki *PrivateKeyInfo) build(b *cryptobyte.Builder) error {
	if pki.Version != 0 {
		return fmt.Errorf("%w: version %d", ErrVersion, pki.Version)
	}
	if len(pki.Algorithm.Algorithm) == 0 {
		return fmt.Errorf("%w: missing privateKeyAlgorithm", ErrEncode)
	}
	attrs, err := pki.encodeAttributes()
	if err != nil {
		return err
	}

	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		der.AddAlgorithmIdentifier(b, pki.Algorithm)
		b.AddASN1OctetString(pki.PrivateKey)
		if pki.Attributes != nil {
			b.AddASN1(attributesTag, func(b *cryptobyte.Builder) {
				for _, a := range attrs {
					b.AddBytes(a)
				}
			})
		}
	})
	return nil
}

// encodeAttributes returns the encoded Attribute elements in DER SET OF
// order.
func (pki *PrivateKeyInfo) encodeAttributes() ([][]byte, error) {
	out := make([][]byte, 0, len(pki.Attributes))
	for _, attr := range pki.Attributes {
		enc, err := attr.marshal()
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	der.SortSetOf(out)
	return out, nil
}

func (attr *Attribute) marshal() ([]byte, error) {
	if len(attr.Values) == 0 {
		return nil, fmt.Errorf("%w: attribute %v has no values", ErrEncode, attr.Type)
	}
	values := make([][]byte, len(attr.Values))
	for i, v := range attr.Values {
		s := cryptobyte.String(v)
		var elem cryptobyte.String
		var tag cryptobyte_asn1.Tag
		if !s.ReadAnyASN1Element(&elem, &tag) || !s.Empty() {
			return nil, fmt.Errorf("%w: attribute %v value %d is not a single DER element", ErrEncode, attr.Type, i)
		}
		values[i] = v
	}
	der.SortSetOf(values)

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(attr.Type)
		b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
			for _, v := range values {
				b.AddBytes(v)
			}
		})
	})
	enc, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %v: %v", ErrEncode, attr.Type, err)
	}
	return enc, nil
}

// Clone returns a deep copy of pki that shares no memory with it.
func (pki *PrivateKeyInfo) Clone() *PrivateKeyInfo {
	out := &PrivateKeyInfo{
		Version:    pki.Version,
		Algorithm:  der.CloneAlgorithmIdentifier(pki.Algorithm),
		PrivateKey: secret.Clone(pki.PrivateKey),
	}
	if pki.Attributes != nil {
		out.Attributes = make([]Attribute, 0, len(pki.Attributes))
	}
	for _, attr := range pki.Attributes {
		c := Attribute{Type: slices.Clone(attr.Type)}
		for _, v := range attr.Values {
			c.Values = append(c.Values, slices.Clone(v))
		}
		out.Attributes = append(out.Attributes, c)
	}
	return out
}

// Equal reports whether pki and other have the same contents.
func (pki *PrivateKeyInfo) Equal(other *PrivateKeyInfo) bool {
	if pki == nil || other == nil {
		return pki == other
	}
	if pki.Version != other.Version ||
		!der.EqualAlgorithmIdentifier(pki.Algorithm, other.Algorithm) ||
		!bytes.Equal(pki.PrivateKey, other.PrivateKey) ||
		len(pki.Attributes) != len(other.Attributes) ||
		(pki.Attributes == nil) != (other.Attributes == nil) {
		return false
	}
	for i := range pki.Attributes {
		a, b := pki.Attributes[i], other.Attributes[i]
		if !a.Type.Equal(b.Type) || len(a.Values) != len(b.Values) {
			return false
		}
		for j := range a.Values {
			if !bytes.Equal(a.Values[j], b.Values[j]) {
				return false
			}
		}
	}
	return true
}

// Zeroize overwrites the private key bytes. If pki aliases a buffer, that
// buffer is wiped too.
func (pki *PrivateKeyInfo) Zeroize() {
	secret.Wipe(pki.PrivateKey)
}
