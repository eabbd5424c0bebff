package keys

import (
	"crypto/ed25519"
	"crypto/x509/pkix"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

// Ed25519PrivateKey wraps an Ed25519 private key.
type Ed25519PrivateKey struct {
	Key ed25519.PrivateKey
}

// Ed25519PublicKey wraps an Ed25519 public key.
type Ed25519PublicKey struct {
	Key ed25519.PublicKey
}

// DecodePrivateKeyInfo implements pkcs8.PrivateKeyDecoder. The private key
// is a CurvePrivateKey, an OCTET STRING holding the 32 byte seed, and the
// algorithm must not carry parameters.
func (k *Ed25519PrivateKey) DecodePrivateKeyInfo(info *pkcs8.PrivateKeyInfo) error {
	if !info.Algorithm.Algorithm.Equal(pkcs8.OIDEd25519) {
		return fmt.Errorf("%w: expected Ed25519, got %v", pkcs8.ErrUnsupportedAlgorithm, info.Algorithm.Algorithm)
	}
	if !absentParameters(info.Algorithm) {
		return fmt.Errorf("%w: Ed25519 algorithm with parameters", pkcs8.ErrMalformed)
	}

	input := cryptobyte.String(info.PrivateKey)
	var seed []byte
	if !input.ReadASN1Bytes(&seed, cryptobyte_asn1.OCTET_STRING) || !input.Empty() {
		return fmt.Errorf("%w: failed to read CurvePrivateKey", pkcs8.ErrMalformed)
	}
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("%w: Ed25519 seed length %d", pkcs8.ErrMalformed, len(seed))
	}

	k.Key = ed25519.NewKeyFromSeed(seed)
	return nil
}

// EncodePrivateKeyInfo implements pkcs8.PrivateKeyEncoder.
func (k Ed25519PrivateKey) EncodePrivateKeyInfo() (*pkcs8.PrivateKeyInfo, error) {
	if len(k.Key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: Ed25519 private key length %d", pkcs8.ErrEncode, len(k.Key))
	}
	seed := k.Key.Seed()
	defer secret.Wipe(seed)

	var b cryptobyte.Builder
	b.AddASN1OctetString(seed)
	priv, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkcs8.ErrEncode, err)
	}

	return &pkcs8.PrivateKeyInfo{
		Algorithm:  pkix.AlgorithmIdentifier{Algorithm: pkcs8.OIDEd25519},
		PrivateKey: priv,
	}, nil
}

// DecodeSubjectPublicKeyInfo implements pkcs8.PublicKeyDecoder.
func (k *Ed25519PublicKey) DecodeSubjectPublicKeyInfo(info *spki.SubjectPublicKeyInfo) error {
	if !info.Algorithm.Algorithm.Equal(pkcs8.OIDEd25519) {
		return fmt.Errorf("%w: expected Ed25519, got %v", pkcs8.ErrUnsupportedAlgorithm, info.Algorithm.Algorithm)
	}
	if !absentParameters(info.Algorithm) {
		return fmt.Errorf("%w: Ed25519 algorithm with parameters", pkcs8.ErrMalformed)
	}
	pub, err := info.PublicKeyBytes()
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: Ed25519 public key length", pkcs8.ErrMalformed)
	}
	k.Key = ed25519.PublicKey(append([]byte(nil), pub...))
	return nil
}

// EncodeSubjectPublicKeyInfo implements pkcs8.PublicKeyEncoder.
func (k Ed25519PublicKey) EncodeSubjectPublicKeyInfo() (*spki.SubjectPublicKeyInfo, error) {
	if len(k.Key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: Ed25519 public key length %d", pkcs8.ErrEncode, len(k.Key))
	}
	return spki.New(pkix.AlgorithmIdentifier{Algorithm: pkcs8.OIDEd25519}, k.Key), nil
}

// Public returns the matching public key.
func (k Ed25519PrivateKey) Public() Ed25519PublicKey {
	return Ed25519PublicKey{Key: k.Key.Public().(ed25519.PublicKey)}
}
