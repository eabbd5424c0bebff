package pkcs8_test

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/pkcs5"
)

var testPassword = []byte("hunter42")

func TestParseEncryptedPrivateKeyInfo(t *testing.T) {
	der := loadTestFile(t, "rsa2048-priv-enc-aes256.der")

	epki, err := pkcs8.ParseEncryptedPrivateKeyInfo(der)
	require.NoError(t, err)
	assert.True(t, epki.EncryptionAlgorithm.Algorithm.Equal(pkcs5.OIDPBES2))
	assert.Len(t, epki.EncryptedData, 1232)

	scheme, err := epki.Scheme()
	require.NoError(t, err)
	assert.Equal(t, 2048, scheme.KDF.IterationCount)
	assert.True(t, scheme.Cipher.Algorithm.Equal(pkcs5.OIDAES256CBC))

	out, err := epki.Marshal()
	require.NoError(t, err)
	assert.Equal(t, der, out)

	clone := epki.Clone()
	assert.True(t, clone.Equal(epki))
	clone.EncryptedData[0] ^= 0x01
	assert.False(t, clone.Equal(epki))
}

func TestParseEncryptedPrivateKeyInfoMalformed(t *testing.T) {
	der := loadTestFile(t, "rsa2048-priv-enc-aes256.der")

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", der[:len(der)-1]},
		{"trailing data", append(bytes.Clone(der), 0x00)},
		{"missing encryptedData", []byte{0x30, 0x07, 0x30, 0x05, 0x06, 0x03, 0x2a, 0x03, 0x04}},
		{"extra field", []byte{
			0x30, 0x0d, 0x30, 0x05, 0x06, 0x03, 0x2a, 0x03, 0x04,
			0x04, 0x02, 0x00, 0x00, 0x05, 0x00,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pkcs8.ParseEncryptedPrivateKeyInfo(tt.data)
			assert.ErrorIs(t, err, pkcs8.ErrMalformed)
		})
	}
}

func TestEncryptedMarshalMissingAlgorithm(t *testing.T) {
	epki := &pkcs8.EncryptedPrivateKeyInfo{EncryptedData: []byte{1, 2, 3}}
	_, err := epki.Marshal()
	assert.ErrorIs(t, err, pkcs8.ErrEncode)
}

func TestDecryptFixtures(t *testing.T) {
	tests := []struct {
		encrypted string
		plain     string
	}{
		{"rsa2048-priv-enc-aes256.der", "rsa2048-priv.der"},
		{"ed25519-priv-enc-aes128.der", "ed25519-priv.der"},
	}

	for _, tt := range tests {
		t.Run(tt.encrypted, func(t *testing.T) {
			doc, err := pkcs8.DecryptPrivateKeyInfo(loadTestFile(t, tt.encrypted), testPassword)
			require.NoError(t, err)
			assert.Equal(t, loadTestFile(t, tt.plain), doc.Bytes())
		})
	}
}

func TestDecryptFailuresAreIndistinguishable(t *testing.T) {
	der := loadTestFile(t, "rsa2048-priv-enc-aes256.der")

	flipped := bytes.Clone(der)
	flipped[len(flipped)-1] ^= 0x01
	flippedFirstBlock := bytes.Clone(der)
	flippedFirstBlock[len(der)-1232] ^= 0x80

	tests := []struct {
		name     string
		data     []byte
		password []byte
	}{
		{"wrong password", der, []byte("hunter43")},
		{"empty password", der, nil},
		{"corrupted last block", flipped, testPassword},
		{"corrupted first block", flippedFirstBlock, testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := pkcs8.DecryptPrivateKeyInfo(tt.data, tt.password)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, pkcs8.ErrCrypto))
			assert.EqualError(t, err, pkcs8.ErrCrypto.Error())
			assert.Equal(t, pkcs8.KindCrypto, pkcs8.KindOf(err))
		})
	}
}

func TestDecryptUnsupported(t *testing.T) {
	for _, file := range []string{
		"ed25519-priv-enc-aes192.der",
		"ed25519-priv-enc-sha1.der",
		"ed25519-priv-enc-scrypt.der",
	} {
		t.Run(file, func(t *testing.T) {
			der := loadTestFile(t, file)

			epki, err := pkcs8.ParseEncryptedPrivateKeyInfo(der)
			require.NoError(t, err)
			_, err = epki.Scheme()
			assert.ErrorIs(t, err, pkcs8.ErrUnsupportedAlgorithm)

			_, err = pkcs8.DecryptPrivateKeyInfo(der, testPassword)
			assert.ErrorIs(t, err, pkcs8.ErrUnsupportedAlgorithm)
			assert.Equal(t, pkcs8.KindUnsupportedAlgorithm, pkcs8.KindOf(err))
		})
	}
}

func TestDecryptBrokenScheme(t *testing.T) {
	epki := &pkcs8.EncryptedPrivateKeyInfo{
		EncryptionAlgorithm: pkix.AlgorithmIdentifier{
			Algorithm:  pkcs5.OIDPBES2,
			Parameters: asn1.RawValue{FullBytes: []byte{0x30, 0x00}},
		},
		EncryptedData: make([]byte, 16),
	}
	_, err := epki.Decrypt(testPassword)
	assert.ErrorIs(t, err, pkcs8.ErrMalformed)

	epki.EncryptionAlgorithm = pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 3}} // pbeWithMD5AndDES-CBC
	_, err = epki.Decrypt(testPassword)
	assert.ErrorIs(t, err, pkcs8.ErrUnsupportedAlgorithm)
}

func TestEncryptWithParametersMatchesFixture(t *testing.T) {
	encrypted := loadTestFile(t, "rsa2048-priv-enc-aes256.der")

	epki, err := pkcs8.ParseEncryptedPrivateKeyInfo(encrypted)
	require.NoError(t, err)
	params, err := epki.Scheme()
	require.NoError(t, err)

	pki, err := pkcs8.ParsePrivateKeyInfo(loadTestFile(t, "rsa2048-priv.der"))
	require.NoError(t, err)

	doc, err := pki.EncryptWithParameters(testPassword, params)
	require.NoError(t, err)
	assert.Equal(t, encrypted, doc.Bytes())
}

type fixedReader struct{ b byte }

func (r *fixedReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestEncryptDecryptRoundTrip(t *testing.T) {
	pki := ed25519Info(t)
	pki.Attributes = []pkcs8.Attribute{{Type: oidCommonName, Values: [][]byte{{0x0c, 0x01, 0x61}}}}

	tests := []struct {
		name string
		opts *pkcs8.EncryptOptions
	}{
		{"defaults", nil},
		{"aes128", &pkcs8.EncryptOptions{Cipher: pkcs5.OIDAES128CBC, Iterations: 1000, SaltSize: 8}},
		{"deterministic", &pkcs8.EncryptOptions{Rand: &fixedReader{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := pki.Encrypt(testPassword, tt.opts)
			require.NoError(t, err)

			doc, err := enc.Decrypt(testPassword)
			require.NoError(t, err)
			decrypted, err := doc.PrivateKeyInfo()
			require.NoError(t, err)
			assert.True(t, decrypted.Equal(pki))

			_, err = enc.Decrypt([]byte("hunter43"))
			assert.ErrorIs(t, err, pkcs8.ErrCrypto)
		})
	}
}

func TestEncryptDefaults(t *testing.T) {
	enc, err := ed25519Info(t).Encrypt(testPassword, nil)
	require.NoError(t, err)

	epki, err := enc.EncryptedPrivateKeyInfo()
	require.NoError(t, err)
	scheme, err := epki.Scheme()
	require.NoError(t, err)

	assert.True(t, scheme.Cipher.Algorithm.Equal(pkcs5.OIDAES256CBC))
	assert.True(t, scheme.KDF.PRF.Equal(pkcs5.OIDHMACWithSHA256))
	assert.Equal(t, 2048, scheme.KDF.IterationCount)
	assert.Len(t, scheme.KDF.Salt, 16)
	assert.Len(t, scheme.Cipher.IV, 16)
}

func TestEncryptErrors(t *testing.T) {
	pki := ed25519Info(t)

	_, err := pki.Encrypt(testPassword, &pkcs8.EncryptOptions{Cipher: pkcs5.OIDAES192CBC})
	assert.ErrorIs(t, err, pkcs8.ErrUnsupportedAlgorithm)

	_, err = pki.Encrypt(testPassword, &pkcs8.EncryptOptions{Iterations: -1})
	assert.ErrorIs(t, err, pkcs8.ErrEncode)

	_, err = pki.Encrypt(testPassword, &pkcs8.EncryptOptions{Rand: failingReader{}})
	assert.ErrorIs(t, err, pkcs8.ErrCrypto)
	assert.ErrorContains(t, err, "entropy exhausted")

	pki.Version = 1
	_, err = pki.Encrypt(testPassword, nil)
	assert.ErrorIs(t, err, pkcs8.ErrVersion)
}
