package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

// RSAPrivateKey wraps an RSA private key. The PrivateKeyInfo carries a
// PKCS#1 RSAPrivateKey.
type RSAPrivateKey struct {
	Key *rsa.PrivateKey
}

// RSAPublicKey wraps an RSA public key. The SubjectPublicKeyInfo carries a
// PKCS#1 RSAPublicKey.
type RSAPublicKey struct {
	Key *rsa.PublicKey
}

var rsaAlgorithm = pkix.AlgorithmIdentifier{
	Algorithm:  pkcs8.OIDRSAEncryption,
	Parameters: asn1.NullRawValue,
}

func checkRSAAlgorithm(alg pkix.AlgorithmIdentifier) error {
	if !alg.Algorithm.Equal(pkcs8.OIDRSAEncryption) {
		return fmt.Errorf("%w: expected rsaEncryption, got %v", pkcs8.ErrUnsupportedAlgorithm, alg.Algorithm)
	}
	if !der.HasNullOrAbsentParameters(alg) {
		return fmt.Errorf("%w: rsaEncryption parameters must be NULL", pkcs8.ErrMalformed)
	}
	return nil
}

// DecodePrivateKeyInfo implements pkcs8.PrivateKeyDecoder.
func (k *RSAPrivateKey) DecodePrivateKeyInfo(info *pkcs8.PrivateKeyInfo) error {
	if err := checkRSAAlgorithm(info.Algorithm); err != nil {
		return err
	}
	key, err := x509.ParsePKCS1PrivateKey(info.PrivateKey)
	if err != nil {
		return fmt.Errorf("%w: %v", pkcs8.ErrMalformed, err)
	}
	k.Key = key
	return nil
}

// EncodePrivateKeyInfo implements pkcs8.PrivateKeyEncoder.
func (k RSAPrivateKey) EncodePrivateKeyInfo() (*pkcs8.PrivateKeyInfo, error) {
	if k.Key == nil {
		return nil, fmt.Errorf("%w: nil RSA key", pkcs8.ErrEncode)
	}
	return &pkcs8.PrivateKeyInfo{
		Algorithm:  rsaAlgorithm,
		PrivateKey: x509.MarshalPKCS1PrivateKey(k.Key),
	}, nil
}

// DecodeSubjectPublicKeyInfo implements pkcs8.PublicKeyDecoder.
func (k *RSAPublicKey) DecodeSubjectPublicKeyInfo(info *spki.SubjectPublicKeyInfo) error {
	if err := checkRSAAlgorithm(info.Algorithm); err != nil {
		return err
	}
	pub, err := info.PublicKeyBytes()
	if err != nil {
		return fmt.Errorf("%w: %v", pkcs8.ErrMalformed, err)
	}
	key, err := x509.ParsePKCS1PublicKey(pub)
	if err != nil {
		return fmt.Errorf("%w: %v", pkcs8.ErrMalformed, err)
	}
	k.Key = key
	return nil
}

// EncodeSubjectPublicKeyInfo implements pkcs8.PublicKeyEncoder.
func (k RSAPublicKey) EncodeSubjectPublicKeyInfo() (*spki.SubjectPublicKeyInfo, error) {
	if k.Key == nil || k.Key.N == nil {
		return nil, fmt.Errorf("%w: nil RSA key", pkcs8.ErrEncode)
	}
	return spki.New(rsaAlgorithm, x509.MarshalPKCS1PublicKey(k.Key)), nil
}

// Public returns the matching public key.
func (k RSAPrivateKey) Public() RSAPublicKey {
	return RSAPublicKey{Key: &k.Key.PublicKey}
}
