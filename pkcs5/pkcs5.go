// Package pkcs5 implements the PBES2 password-based encryption scheme of
// PKCS#5 v2.1 (RFC 8018) as used by encrypted PKCS#8 private keys.
//
// Supported: PBKDF2 with HMAC-SHA256 as key derivation function and
// AES-128-CBC or AES-256-CBC as encryption scheme. Every other scheme, KDF,
// PRF or cipher is reported as ErrUnsupportedAlgorithm, including the
// PBKDF2 default PRF (HMAC-SHA1), AES-192-CBC and scrypt.
package pkcs5

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
)

var (
	OIDPBES2  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	OIDPBKDF2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	OIDScrypt = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11591, 4, 11}

	// PBKDF2 pseudo random functions
	OIDHMACWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	OIDHMACWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}

	OIDAES128CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	OIDAES192CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 22}
	OIDAES256CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
)

var (
	ErrUnsupportedAlgorithm = errors.New("pkcs5: unsupported algorithm")
	ErrInvalidParameters    = errors.New("pkcs5: invalid parameters")
	ErrDecryption           = errors.New("pkcs5: decryption failed")
)

// Parameters are the PBES2 parameters (RFC 8018 Appendix A.4) restricted to
// PBKDF2 and a CBC block cipher.
type Parameters struct {
	KDF    PBKDF2Params
	Cipher CipherParams
}

// PBKDF2Params represents PBKDF2-params (RFC 8018 Appendix A.2).
type PBKDF2Params struct {
	Salt           []byte
	IterationCount int
	// KeyLength is 0 when the optional field is absent.
	KeyLength int
	PRF       asn1.ObjectIdentifier
}

// CipherParams identifies the block cipher and its IV.
type CipherParams struct {
	Algorithm asn1.ObjectIdentifier
	IV        []byte
}

type cipherInfo struct {
	name    string
	keySize int
}

func lookupCipher(oid asn1.ObjectIdentifier) (cipherInfo, bool) {
	switch {
	case oid.Equal(OIDAES128CBC):
		return cipherInfo{"aes-128-cbc", 16}, true
	case oid.Equal(OIDAES256CBC):
		return cipherInfo{"aes-256-cbc", 32}, true
	}
	return cipherInfo{}, false
}

// CipherByName maps "aes-128-cbc" and "aes-256-cbc" to their OIDs.
func CipherByName(name string) (asn1.ObjectIdentifier, error) {
	switch name {
	case "aes-128-cbc":
		return OIDAES128CBC, nil
	case "aes-256-cbc":
		return OIDAES256CBC, nil
	}
	return nil, fmt.Errorf("%w: cipher %q", ErrUnsupportedAlgorithm, name)
}

// AlgorithmName returns a short human readable name for the OIDs known to
// this package, supported or not, and the dotted OID otherwise.
func AlgorithmName(oid asn1.ObjectIdentifier) string {
	switch {
	case oid.Equal(OIDPBES2):
		return "pbes2"
	case oid.Equal(OIDPBKDF2):
		return "pbkdf2"
	case oid.Equal(OIDScrypt):
		return "scrypt"
	case oid.Equal(OIDHMACWithSHA1):
		return "hmac-sha1"
	case oid.Equal(OIDHMACWithSHA256):
		return "hmac-sha256"
	case oid.Equal(OIDAES128CBC):
		return "aes-128-cbc"
	case oid.Equal(OIDAES192CBC):
		return "aes-192-cbc"
	case oid.Equal(OIDAES256CBC):
		return "aes-256-cbc"
	}
	return oid.String()
}

// ParseParameters parses the PBES2 parameters carried by alg. The returned
// value aliases alg.Parameters.
func ParseParameters(alg pkix.AlgorithmIdentifier) (*Parameters, error) {
	if !alg.Algorithm.Equal(OIDPBES2) {
		return nil, fmt.Errorf("%w: encryption scheme %v", ErrUnsupportedAlgorithm, alg.Algorithm)
	}

	// PBES2-params ::= SEQUENCE {
	//   keyDerivationFunc AlgorithmIdentifier {{PBES2-KDFs}},
	//   encryptionScheme  AlgorithmIdentifier {{PBES2-Encs}}
	// }
	input := cryptobyte.String(alg.Parameters.FullBytes)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: failed to read PBES2 params", ErrInvalidParameters)
	}

	var kdfAlg, encAlg pkix.AlgorithmIdentifier
	if !der.ReadAlgorithmIdentifier(&seq, &kdfAlg) {
		return nil, fmt.Errorf("%w: failed to read key derivation function", ErrInvalidParameters)
	}
	if !der.ReadAlgorithmIdentifier(&seq, &encAlg) {
		return nil, fmt.Errorf("%w: failed to read encryption scheme", ErrInvalidParameters)
	}
	if !seq.Empty() {
		return nil, fmt.Errorf("%w: trailing data in PBES2 params", ErrInvalidParameters)
	}

	if !kdfAlg.Algorithm.Equal(OIDPBKDF2) {
		return nil, fmt.Errorf("%w: key derivation function %s", ErrUnsupportedAlgorithm, AlgorithmName(kdfAlg.Algorithm))
	}

	p := new(Parameters)
	if err := parsePBKDF2Params(kdfAlg.Parameters.FullBytes, &p.KDF); err != nil {
		return nil, err
	}
	if err := parseCipherParams(encAlg, &p.Cipher); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parsePBKDF2Params(data []byte, params *PBKDF2Params) error {
	input := cryptobyte.String(data)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return fmt.Errorf("%w: failed to read PBKDF2 params", ErrInvalidParameters)
	}

	// salt CHOICE { specified OCTET STRING, otherSource AlgorithmIdentifier }
	if seq.PeekASN1Tag(cryptobyte_asn1.SEQUENCE) {
		return fmt.Errorf("%w: PBKDF2 salt from otherSource", ErrUnsupportedAlgorithm)
	}
	if !seq.ReadASN1Bytes(&params.Salt, cryptobyte_asn1.OCTET_STRING) {
		return fmt.Errorf("%w: failed to read salt", ErrInvalidParameters)
	}

	if !seq.ReadASN1Integer(&params.IterationCount) {
		return fmt.Errorf("%w: failed to read iteration count", ErrInvalidParameters)
	}

	if seq.PeekASN1Tag(cryptobyte_asn1.INTEGER) {
		if !seq.ReadASN1Integer(&params.KeyLength) || params.KeyLength < 1 {
			return fmt.Errorf("%w: failed to read key length", ErrInvalidParameters)
		}
	}

	// prf AlgorithmIdentifier DEFAULT algid-hmacWithSHA1
	params.PRF = OIDHMACWithSHA1
	if !seq.Empty() {
		var prfAlg pkix.AlgorithmIdentifier
		if !der.ReadAlgorithmIdentifier(&seq, &prfAlg) {
			return fmt.Errorf("%w: failed to read PRF", ErrInvalidParameters)
		}
		if !der.HasNullOrAbsentParameters(prfAlg) {
			return fmt.Errorf("%w: unexpected PRF parameters", ErrInvalidParameters)
		}
		params.PRF = prfAlg.Algorithm
	}
	if !seq.Empty() {
		return fmt.Errorf("%w: trailing data in PBKDF2 params", ErrInvalidParameters)
	}
	return nil
}

func parseCipherParams(alg pkix.AlgorithmIdentifier, params *CipherParams) error {
	params.Algorithm = alg.Algorithm
	if _, ok := lookupCipher(alg.Algorithm); !ok {
		return fmt.Errorf("%w: cipher %s", ErrUnsupportedAlgorithm, AlgorithmName(alg.Algorithm))
	}

	// AES-CBC parameters are the IV as OCTET STRING
	input := cryptobyte.String(alg.Parameters.FullBytes)
	if !input.ReadASN1Bytes(&params.IV, cryptobyte_asn1.OCTET_STRING) || !input.Empty() {
		return fmt.Errorf("%w: failed to read IV", ErrInvalidParameters)
	}
	return nil
}

// Validate checks that p describes a supported, consistent scheme.
func (p *Parameters) Validate() error {
	if !p.KDF.PRF.Equal(OIDHMACWithSHA256) {
		return fmt.Errorf("%w: PRF %s", ErrUnsupportedAlgorithm, AlgorithmName(p.KDF.PRF))
	}
	info, ok := lookupCipher(p.Cipher.Algorithm)
	if !ok {
		return fmt.Errorf("%w: cipher %s", ErrUnsupportedAlgorithm, AlgorithmName(p.Cipher.Algorithm))
	}
	if len(p.KDF.Salt) == 0 {
		return fmt.Errorf("%w: empty salt", ErrInvalidParameters)
	}
	if p.KDF.IterationCount < 1 || p.KDF.IterationCount > MaxIterations {
		return fmt.Errorf("%w: iteration count %d", ErrInvalidParameters, p.KDF.IterationCount)
	}
	if p.KDF.KeyLength != 0 && p.KDF.KeyLength != info.keySize {
		return fmt.Errorf("%w: key length %d does not match %s", ErrInvalidParameters, p.KDF.KeyLength, info.name)
	}
	if len(p.Cipher.IV) != blockSize {
		return fmt.Errorf("%w: IV length %d", ErrInvalidParameters, len(p.Cipher.IV))
	}
	return nil
}

// KeySize returns the size in bytes of the key derived for the cipher, or 0
// if the cipher is not supported.
func (p *Parameters) KeySize() int {
	info, _ := lookupCipher(p.Cipher.Algorithm)
	return info.keySize
}

// AlgorithmIdentifier encodes p as a PBES2 AlgorithmIdentifier.
func (p *Parameters) AlgorithmIdentifier() (pkix.AlgorithmIdentifier, error) {
	if err := p.Validate(); err != nil {
		return pkix.AlgorithmIdentifier{}, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		// keyDerivationFunc
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(OIDPBKDF2)
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1OctetString(p.KDF.Salt)
				b.AddASN1Int64(int64(p.KDF.IterationCount))
				if p.KDF.KeyLength != 0 {
					b.AddASN1Int64(int64(p.KDF.KeyLength))
				}
				der.AddAlgorithmIdentifier(b, pkix.AlgorithmIdentifier{
					Algorithm:  p.KDF.PRF,
					Parameters: asn1.NullRawValue,
				})
			})
		})
		// encryptionScheme
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(p.Cipher.Algorithm)
			b.AddASN1OctetString(p.Cipher.IV)
		})
	})

	params, err := b.Bytes()
	if err != nil {
		return pkix.AlgorithmIdentifier{}, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}

	return pkix.AlgorithmIdentifier{
		Algorithm:  OIDPBES2,
		Parameters: asn1.RawValue{FullBytes: params},
	}, nil
}
