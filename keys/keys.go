// Package keys adapts the standard library key types to the pkcs8
// capability interfaces, for the three algorithm families found in
// practice: Ed25519 (RFC 8410), RSA (RFC 8017) and ECDSA on the NIST
// curves (RFC 5915).
//
//	key, err := pkcs8.DecodePrivateKeyPEM[keys.Ed25519PrivateKey](pemBytes)
//	if err != nil {
//		return err
//	}
//	sig := ed25519.Sign(key.Key, msg)
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

// ParsePrivateKey decodes info into the matching standard library key:
// ed25519.PrivateKey, *rsa.PrivateKey or *ecdsa.PrivateKey.
func ParsePrivateKey(info *pkcs8.PrivateKeyInfo) (crypto.Signer, error) {
	alg := info.Algorithm.Algorithm
	switch {
	case alg.Equal(pkcs8.OIDEd25519):
		var k Ed25519PrivateKey
		if err := k.DecodePrivateKeyInfo(info); err != nil {
			return nil, err
		}
		return k.Key, nil
	case alg.Equal(pkcs8.OIDRSAEncryption):
		var k RSAPrivateKey
		if err := k.DecodePrivateKeyInfo(info); err != nil {
			return nil, err
		}
		return k.Key, nil
	case alg.Equal(pkcs8.OIDECPublicKey):
		var k ECDSAPrivateKey
		if err := k.DecodePrivateKeyInfo(info); err != nil {
			return nil, err
		}
		return k.Key, nil
	}
	return nil, fmt.Errorf("%w: private key algorithm %v", pkcs8.ErrUnsupportedAlgorithm, alg)
}

// ParsePublicKey decodes info into ed25519.PublicKey, *rsa.PublicKey or
// *ecdsa.PublicKey.
func ParsePublicKey(info *spki.SubjectPublicKeyInfo) (crypto.PublicKey, error) {
	alg := info.Algorithm.Algorithm
	switch {
	case alg.Equal(pkcs8.OIDEd25519):
		var k Ed25519PublicKey
		if err := k.DecodeSubjectPublicKeyInfo(info); err != nil {
			return nil, err
		}
		return k.Key, nil
	case alg.Equal(pkcs8.OIDRSAEncryption):
		var k RSAPublicKey
		if err := k.DecodeSubjectPublicKeyInfo(info); err != nil {
			return nil, err
		}
		return k.Key, nil
	case alg.Equal(pkcs8.OIDECPublicKey):
		var k ECDSAPublicKey
		if err := k.DecodeSubjectPublicKeyInfo(info); err != nil {
			return nil, err
		}
		return k.Key, nil
	}
	return nil, fmt.Errorf("%w: public key algorithm %v", pkcs8.ErrUnsupportedAlgorithm, alg)
}

// PublicKeyInfo returns the SubjectPublicKeyInfo for the public half of
// priv.
func PublicKeyInfo(priv crypto.Signer) (*spki.SubjectPublicKeyInfo, error) {
	var enc pkcs8.PublicKeyEncoder
	switch pub := priv.Public().(type) {
	case ed25519.PublicKey:
		enc = Ed25519PublicKey{Key: pub}
	case *rsa.PublicKey:
		enc = RSAPublicKey{Key: pub}
	case *ecdsa.PublicKey:
		enc = ECDSAPublicKey{Key: pub}
	default:
		return nil, fmt.Errorf("%w: public key type %T", pkcs8.ErrUnsupportedAlgorithm, pub)
	}
	return enc.EncodeSubjectPublicKeyInfo()
}

// AlgorithmName returns a short name for the key algorithm OIDs this package
// knows, and the dotted OID otherwise.
func AlgorithmName(oid asn1.ObjectIdentifier) string {
	switch {
	case oid.Equal(pkcs8.OIDEd25519):
		return "ed25519"
	case oid.Equal(pkcs8.OIDRSAEncryption):
		return "rsa"
	case oid.Equal(pkcs8.OIDECPublicKey):
		return "ecdsa"
	}
	return oid.String()
}

// CurveName returns the curve name for a named curve OID, or "" if unknown.
func CurveName(oid asn1.ObjectIdentifier) string {
	if c, ok := curveFromOID(oid); ok {
		return c.Params().Name
	}
	return ""
}

func absentParameters(alg pkix.AlgorithmIdentifier) bool {
	params, err := der.ParameterBytes(alg.Parameters)
	return err == nil && len(params) == 0
}
