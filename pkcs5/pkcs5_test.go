package pkcs5

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/gematik/zero-lab/go/pkcs8/internal/der"
)

var testPassword = []byte("hunter42")

func loadTestFile(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", name))
	require.NoError(t, err, "failed to read test file %s", name)
	return data
}

// loadEncrypted splits an EncryptedPrivateKeyInfo fixture into its scheme
// identifier and ciphertext.
func loadEncrypted(t *testing.T, name string) (pkix.AlgorithmIdentifier, []byte) {
	t.Helper()
	input := cryptobyte.String(loadTestFile(t, name))
	var seq cryptobyte.String
	var alg pkix.AlgorithmIdentifier
	var data []byte
	require.True(t, input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE))
	require.True(t, der.ReadAlgorithmIdentifier(&seq, &alg))
	require.True(t, seq.ReadASN1Bytes(&data, cryptobyte_asn1.OCTET_STRING))
	return alg, data
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestParseParametersAES256(t *testing.T) {
	alg, _ := loadEncrypted(t, "rsa2048-priv-enc-aes256.der")

	p, err := ParseParameters(alg)
	require.NoError(t, err)

	assert.Equal(t, mustHex(t, "5a1c3e7f90b2d4f60819a3b5c7e9f102"), p.KDF.Salt)
	assert.Equal(t, 2048, p.KDF.IterationCount)
	assert.Equal(t, 0, p.KDF.KeyLength)
	assert.True(t, p.KDF.PRF.Equal(OIDHMACWithSHA256))
	assert.True(t, p.Cipher.Algorithm.Equal(OIDAES256CBC))
	assert.Equal(t, mustHex(t, "0f1e2d3c4b5a69788796a5b4c3d2e1f0"), p.Cipher.IV)
	assert.Equal(t, 32, p.KeySize())
}

func TestParseParametersAES128(t *testing.T) {
	alg, _ := loadEncrypted(t, "ed25519-priv-enc-aes128.der")

	p, err := ParseParameters(alg)
	require.NoError(t, err)
	assert.Len(t, p.KDF.Salt, 8)
	assert.True(t, p.Cipher.Algorithm.Equal(OIDAES128CBC))
	assert.Equal(t, 16, p.KeySize())
}

func TestParseParametersUnsupported(t *testing.T) {
	tests := []struct {
		file string
		desc string
	}{
		{"ed25519-priv-enc-aes192.der", "AES-192-CBC"},
		{"ed25519-priv-enc-sha1.der", "default PRF hmacWithSHA1"},
		{"ed25519-priv-enc-scrypt.der", "scrypt KDF"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			alg, _ := loadEncrypted(t, tt.file)
			_, err := ParseParameters(alg)
			assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
		})
	}
}

func TestParseParametersNotPBES2(t *testing.T) {
	_, err := ParseParameters(pkix.AlgorithmIdentifier{Algorithm: OIDPBKDF2})
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestParseParametersMalformed(t *testing.T) {
	alg, _ := loadEncrypted(t, "rsa2048-priv-enc-aes256.der")
	full := alg.Parameters.FullBytes

	tests := []struct {
		name   string
		params []byte
	}{
		{"empty", nil},
		{"truncated", full[:len(full)-3]},
		{"trailing", append(bytes.Clone(full), 0x05, 0x00)},
		{"not a sequence", []byte{0x04, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := pkix.AlgorithmIdentifier{Algorithm: OIDPBES2}
			in.Parameters.FullBytes = tt.params
			_, err := ParseParameters(in)
			assert.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

func TestAlgorithmIdentifierReencodes(t *testing.T) {
	for _, file := range []string{"rsa2048-priv-enc-aes256.der", "ed25519-priv-enc-aes128.der"} {
		t.Run(file, func(t *testing.T) {
			alg, _ := loadEncrypted(t, file)
			p, err := ParseParameters(alg)
			require.NoError(t, err)

			out, err := p.AlgorithmIdentifier()
			require.NoError(t, err)
			assert.True(t, out.Algorithm.Equal(OIDPBES2))
			assert.Equal(t, alg.Parameters.FullBytes, out.Parameters.FullBytes)
		})
	}
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
			alg, ciphertext := loadEncrypted(t, tt.encrypted)
			p, err := ParseParameters(alg)
			require.NoError(t, err)

			plaintext, err := p.Decrypt(testPassword, ciphertext)
			require.NoError(t, err)
			assert.Equal(t, loadTestFile(t, tt.plain), plaintext)
		})
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	alg, ciphertext := loadEncrypted(t, "rsa2048-priv-enc-aes256.der")
	p, err := ParseParameters(alg)
	require.NoError(t, err)

	_, err = p.Decrypt([]byte("hunter43"), ciphertext)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryption))
	assert.Equal(t, ErrDecryption.Error(), err.Error(), "no detail beyond the sentinel")
}

func TestDecryptBadCiphertextLength(t *testing.T) {
	alg, ciphertext := loadEncrypted(t, "rsa2048-priv-enc-aes256.der")
	p, err := ParseParameters(alg)
	require.NoError(t, err)

	for _, ct := range [][]byte{nil, ciphertext[:15], ciphertext[:len(ciphertext)-1]} {
		_, err := p.Decrypt(testPassword, ct)
		assert.ErrorIs(t, err, ErrDecryption)
	}
}

func TestEncryptMatchesFixture(t *testing.T) {
	alg, ciphertext := loadEncrypted(t, "rsa2048-priv-enc-aes256.der")
	p, err := ParseParameters(alg)
	require.NoError(t, err)

	plaintext := loadTestFile(t, "rsa2048-priv.der")
	orig := bytes.Clone(plaintext)

	out, err := p.Encrypt(testPassword, plaintext)
	require.NoError(t, err)
	assert.Equal(t, ciphertext, out)
	assert.Equal(t, orig, plaintext, "plaintext must not be modified")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, cipher := range []string{"aes-128-cbc", "aes-256-cbc"} {
		t.Run(cipher, func(t *testing.T) {
			oid, err := CipherByName(cipher)
			require.NoError(t, err)
			p, err := GenerateParameters(nil, oid, 1000, DefaultSaltSize)
			require.NoError(t, err)

			for _, size := range []int{0, 1, 15, 16, 17, 48} {
				plaintext := bytes.Repeat([]byte{0xa5}, size)
				ct, err := p.Encrypt(testPassword, plaintext)
				require.NoError(t, err)
				assert.Equal(t, 0, len(ct)%blockSize)
				assert.Greater(t, len(ct), size)

				pt, err := p.Decrypt(testPassword, ct)
				require.NoError(t, err)
				assert.Equal(t, plaintext, pt)
			}
		})
	}
}

func TestGenerateParameters(t *testing.T) {
	random := bytes.NewReader(bytes.Repeat([]byte{1, 2, 3, 4}, 16))
	p, err := GenerateParameters(random, OIDAES256CBC, DefaultIterations, 16)
	require.NoError(t, err)

	assert.Equal(t, bytes.Repeat([]byte{1, 2, 3, 4}, 4), p.KDF.Salt)
	assert.Equal(t, bytes.Repeat([]byte{1, 2, 3, 4}, 4), p.Cipher.IV)
	assert.Equal(t, DefaultIterations, p.KDF.IterationCount)

	_, err = GenerateParameters(bytes.NewReader([]byte{1, 2, 3}), OIDAES256CBC, DefaultIterations, 16)
	assert.Error(t, err)

	_, err = GenerateParameters(nil, OIDAES256CBC, DefaultIterations, 0)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestNewParametersValidation(t *testing.T) {
	salt := make([]byte, 16)
	iv := make([]byte, 16)

	tests := []struct {
		name       string
		cipher     []int
		iterations int
		salt, iv   []byte
		want       error
	}{
		{"aes-192", OIDAES192CBC, 2048, salt, iv, ErrUnsupportedAlgorithm},
		{"zero iterations", OIDAES256CBC, 0, salt, iv, ErrInvalidParameters},
		{"too many iterations", OIDAES256CBC, MaxIterations + 1, salt, iv, ErrInvalidParameters},
		{"empty salt", OIDAES256CBC, 2048, nil, iv, ErrInvalidParameters},
		{"short iv", OIDAES256CBC, 2048, salt, iv[:8], ErrInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParameters(tt.cipher, tt.iterations, tt.salt, tt.iv)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseParametersIterationCeiling(t *testing.T) {
	p, err := NewParameters(OIDAES256CBC, MaxIterations, make([]byte, 16), make([]byte, 16))
	require.NoError(t, err)
	alg, err := p.AlgorithmIdentifier()
	require.NoError(t, err)

	_, err = ParseParameters(alg)
	require.NoError(t, err)

	// INTEGER 10000000 -> INTEGER 2147483647, same length
	maxCount := []byte{0x02, 0x04, 0x00, 0x98, 0x96, 0x80}
	require.Equal(t, 1, bytes.Count(alg.Parameters.FullBytes, maxCount))
	alg.Parameters.FullBytes = bytes.Replace(alg.Parameters.FullBytes, maxCount,
		[]byte{0x02, 0x04, 0x7f, 0xff, 0xff, 0xff}, 1)

	_, err = ParseParameters(alg)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestKeyLengthMismatch(t *testing.T) {
	p, err := NewParameters(OIDAES256CBC, 2048, make([]byte, 16), make([]byte, 16))
	require.NoError(t, err)

	p.KDF.KeyLength = 16
	_, err = p.DeriveKey(testPassword)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	p.KDF.KeyLength = 32
	key, err := p.DeriveKey(testPassword)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	// an explicit key length survives re-encoding
	alg, err := p.AlgorithmIdentifier()
	require.NoError(t, err)
	parsed, err := ParseParameters(alg)
	require.NoError(t, err)
	assert.Equal(t, 32, parsed.KDF.KeyLength)
}

func TestUnpad(t *testing.T) {
	block := func(tail ...byte) []byte {
		b := bytes.Repeat([]byte{0x41}, blockSize-len(tail))
		return append(b, tail...)
	}

	tests := []struct {
		name string
		data []byte
		n    int
		ok   bool
	}{
		{"one byte", block(0x01), 15, true},
		{"three bytes", block(0x03, 0x03, 0x03), 13, true},
		{"full block", bytes.Repeat([]byte{0x10}, 16), 0, true},
		{"zero", block(0x00), 0, false},
		{"too large", block(0x11), 0, false},
		{"inconsistent", block(0x02, 0x03, 0x03), 0, false},
		{"0xff", block(0xff), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := unpad(tt.data)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.n, n)
			}
		})
	}
}

func TestClone(t *testing.T) {
	p, err := NewParameters(OIDAES128CBC, 2048, []byte("saltsalt"), make([]byte, 16))
	require.NoError(t, err)

	c := p.Clone()
	c.KDF.Salt[0] = 'X'
	c.Cipher.IV[0] = 0xff
	assert.Equal(t, byte('s'), p.KDF.Salt[0])
	assert.Equal(t, byte(0), p.Cipher.IV[0])
}

func TestAlgorithmName(t *testing.T) {
	assert.Equal(t, "aes-192-cbc", AlgorithmName(OIDAES192CBC))
	assert.Equal(t, "scrypt", AlgorithmName(OIDScrypt))
	assert.Equal(t, "1.2.3", AlgorithmName([]int{1, 2, 3}))

	_, err := CipherByName("des-ede3-cbc")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
