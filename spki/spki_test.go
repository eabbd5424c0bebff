package spki_test

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

var oidEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

func loadTestFile(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", name))
	require.NoError(t, err, "failed to read test file %s", name)
	return data
}

func TestParseRoundTrip(t *testing.T) {
	for _, name := range []string{"rsa2048-pub.der", "ed25519-pub.der", "p256-pub.der"} {
		t.Run(name, func(t *testing.T) {
			data := loadTestFile(t, name)
			info, err := spki.Parse(data)
			require.NoError(t, err)

			out, err := info.Marshal()
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestParseEd25519(t *testing.T) {
	info, err := spki.Parse(loadTestFile(t, "ed25519-pub.der"))
	require.NoError(t, err)

	assert.True(t, info.Algorithm.Algorithm.Equal(oidEd25519))
	assert.Empty(t, info.Algorithm.Parameters.FullBytes)

	key, err := info.PublicKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestParseRejects(t *testing.T) {
	data := loadTestFile(t, "ed25519-pub.der")

	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"trailing data", append(append([]byte{}, data...), 0x00)},
		{"truncated", data[:len(data)-1]},
		{"not a sequence", []byte{0x04, 0x02, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := spki.Parse(tt.input)
			assert.ErrorIs(t, err, spki.ErrParse)
		})
	}
}

func TestMarshalUnalignedBitString(t *testing.T) {
	info := &spki.SubjectPublicKeyInfo{
		Algorithm:        pkix.AlgorithmIdentifier{Algorithm: oidEd25519},
		SubjectPublicKey: asn1.BitString{Bytes: []byte{0xa0}, BitLength: 3},
	}
	out, err := info.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x0b, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70, 0x03, 0x02, 0x05, 0xa0}, out)

	parsed, err := spki.Parse(out)
	require.NoError(t, err)
	assert.True(t, info.Equal(parsed))

	_, err = parsed.PublicKeyBytes()
	assert.ErrorIs(t, err, spki.ErrParse)
}

func TestMarshalRejectsInvalid(t *testing.T) {
	_, err := (&spki.SubjectPublicKeyInfo{}).Marshal()
	assert.ErrorIs(t, err, spki.ErrEncode)

	info := &spki.SubjectPublicKeyInfo{
		Algorithm:        pkix.AlgorithmIdentifier{Algorithm: oidEd25519},
		SubjectPublicKey: asn1.BitString{Bytes: []byte{0x01}, BitLength: 9},
	}
	_, err = info.Marshal()
	assert.ErrorIs(t, err, spki.ErrEncode)
}

func TestNewAndClone(t *testing.T) {
	key := make([]byte, 32)
	info := spki.New(pkix.AlgorithmIdentifier{Algorithm: oidEd25519}, key)
	assert.Equal(t, 256, info.SubjectPublicKey.BitLength)

	clone := info.Clone()
	require.True(t, info.Equal(clone))
	key[0] = 1
	assert.False(t, info.Equal(clone))
}
