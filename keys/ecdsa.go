package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

// ECDSAPrivateKey wraps an ECDSA private key on one of the NIST curves. The
// curve is named by the algorithm parameters; the embedded ECPrivateKey
// (RFC 5915) may omit it.
type ECDSAPrivateKey struct {
	Key *ecdsa.PrivateKey
}

// ECDSAPublicKey wraps an ECDSA public key on one of the NIST curves.
type ECDSAPublicKey struct {
	Key *ecdsa.PublicKey
}

var curves = []struct {
	oid   asn1.ObjectIdentifier
	curve elliptic.Curve
}{
	{pkcs8.OIDNamedCurveP224, elliptic.P224()},
	{pkcs8.OIDNamedCurveP256, elliptic.P256()},
	{pkcs8.OIDNamedCurveP384, elliptic.P384()},
	{pkcs8.OIDNamedCurveP521, elliptic.P521()},
}

func curveFromOID(oid asn1.ObjectIdentifier) (elliptic.Curve, bool) {
	for _, c := range curves {
		if c.oid.Equal(oid) {
			return c.curve, true
		}
	}
	return nil, false
}

// namedCurve returns the curve named by the ecPublicKey parameters.
func namedCurve(alg pkix.AlgorithmIdentifier) (asn1.ObjectIdentifier, error) {
	if !alg.Algorithm.Equal(pkcs8.OIDECPublicKey) {
		return nil, fmt.Errorf("%w: expected ecPublicKey, got %v", pkcs8.ErrUnsupportedAlgorithm, alg.Algorithm)
	}
	params, err := der.ParameterBytes(alg.Parameters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkcs8.ErrMalformed, err)
	}
	var oid asn1.ObjectIdentifier
	rest, err := asn1.Unmarshal(params, &oid)
	if err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: ecPublicKey parameters are not a named curve", pkcs8.ErrMalformed)
	}
	if _, ok := curveFromOID(oid); !ok {
		return nil, fmt.Errorf("%w: curve %v", pkcs8.ErrUnsupportedAlgorithm, oid)
	}
	return oid, nil
}

// DecodePrivateKeyInfo implements pkcs8.PrivateKeyDecoder.
func (k *ECDSAPrivateKey) DecodePrivateKeyInfo(info *pkcs8.PrivateKeyInfo) error {
	if _, err := namedCurve(info.Algorithm); err != nil {
		return err
	}

	// crypto/x509 resolves the curve from the outer structure
	bare := pkcs8.PrivateKeyInfo{Algorithm: info.Algorithm, PrivateKey: info.PrivateKey}
	enc, err := bare.Marshal()
	if err != nil {
		return err
	}
	defer secret.Wipe(enc)

	key, err := x509.ParsePKCS8PrivateKey(enc)
	if err != nil {
		return fmt.Errorf("%w: %v", pkcs8.ErrMalformed, err)
	}
	ec, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return fmt.Errorf("%w: not an ECDSA key", pkcs8.ErrMalformed)
	}
	k.Key = ec
	return nil
}

// EncodePrivateKeyInfo implements pkcs8.PrivateKeyEncoder.
func (k ECDSAPrivateKey) EncodePrivateKeyInfo() (*pkcs8.PrivateKeyInfo, error) {
	if k.Key == nil {
		return nil, fmt.Errorf("%w: nil ECDSA key", pkcs8.ErrEncode)
	}
	enc, err := x509.MarshalPKCS8PrivateKey(k.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkcs8.ErrEncode, err)
	}
	defer secret.Wipe(enc)

	info, err := pkcs8.ParsePrivateKeyInfo(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkcs8.ErrEncode, err)
	}
	return info.Clone(), nil
}

// DecodeSubjectPublicKeyInfo implements pkcs8.PublicKeyDecoder.
func (k *ECDSAPublicKey) DecodeSubjectPublicKeyInfo(info *spki.SubjectPublicKeyInfo) error {
	if _, err := namedCurve(info.Algorithm); err != nil {
		return err
	}
	enc, err := info.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %v", pkcs8.ErrMalformed, err)
	}
	key, err := x509.ParsePKIXPublicKey(enc)
	if err != nil {
		return fmt.Errorf("%w: %v", pkcs8.ErrMalformed, err)
	}
	ec, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: not an ECDSA key", pkcs8.ErrMalformed)
	}
	k.Key = ec
	return nil
}

// EncodeSubjectPublicKeyInfo implements pkcs8.PublicKeyEncoder.
func (k ECDSAPublicKey) EncodeSubjectPublicKeyInfo() (*spki.SubjectPublicKeyInfo, error) {
	if k.Key == nil {
		return nil, fmt.Errorf("%w: nil ECDSA key", pkcs8.ErrEncode)
	}
	enc, err := x509.MarshalPKIXPublicKey(k.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkcs8.ErrEncode, err)
	}
	info, err := spki.Parse(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkcs8.ErrEncode, err)
	}
	return info, nil
}

// Public returns the matching public key.
func (k ECDSAPrivateKey) Public() ECDSAPublicKey {
	return ECDSAPublicKey{Key: &k.Key.PublicKey}
}
