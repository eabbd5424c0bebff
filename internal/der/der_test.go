package der

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
)

var oidRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

func TestReadAlgorithmIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		ok     bool
		params []byte
	}{
		{
			name:   "rsa with NULL",
			input:  []byte{0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01, 0x05, 0x00},
			ok:     true,
			params: []byte{0x05, 0x00},
		},
		{
			name:  "ed25519 without parameters",
			input: []byte{0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70},
			ok:    true,
		},
		{
			name:  "two parameter elements",
			input: []byte{0x30, 0x09, 0x06, 0x03, 0x2b, 0x65, 0x70, 0x05, 0x00, 0x05, 0x00},
			ok:    false,
		},
		{
			name:  "missing OID",
			input: []byte{0x30, 0x02, 0x05, 0x00},
			ok:    false,
		},
		{
			name:  "truncated",
			input: []byte{0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cryptobyte.String(tt.input)
			var alg pkix.AlgorithmIdentifier
			ok := ReadAlgorithmIdentifier(&s, &alg)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.True(t, s.Empty())
			params, err := ParameterBytes(alg.Parameters)
			require.NoError(t, err)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestAddAlgorithmIdentifierRoundTrip(t *testing.T) {
	input := []byte{0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01, 0x05, 0x00}
	s := cryptobyte.String(input)
	var alg pkix.AlgorithmIdentifier
	require.True(t, ReadAlgorithmIdentifier(&s, &alg))

	var b cryptobyte.Builder
	AddAlgorithmIdentifier(&b, alg)
	out, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestAddAlgorithmIdentifierNullRawValue(t *testing.T) {
	var b cryptobyte.Builder
	AddAlgorithmIdentifier(&b, pkix.AlgorithmIdentifier{Algorithm: oidRSA, Parameters: asn1.NullRawValue})
	out, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01, 0x05, 0x00}, out)
}

func TestAddAlgorithmIdentifierInvalidOID(t *testing.T) {
	var b cryptobyte.Builder
	AddAlgorithmIdentifier(&b, pkix.AlgorithmIdentifier{})
	_, err := b.Bytes()
	assert.Error(t, err)
}

func TestCloneAlgorithmIdentifier(t *testing.T) {
	full := []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}
	alg := pkix.AlgorithmIdentifier{
		Algorithm:  asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1},
		Parameters: asn1.RawValue{FullBytes: full},
	}
	clone := CloneAlgorithmIdentifier(alg)
	require.True(t, EqualAlgorithmIdentifier(alg, clone))

	full[2] = 0xff
	assert.Equal(t, byte(0x2a), clone.Parameters.FullBytes[2])
	assert.False(t, EqualAlgorithmIdentifier(alg, clone))
}

func TestHasNullOrAbsentParameters(t *testing.T) {
	assert.True(t, HasNullOrAbsentParameters(pkix.AlgorithmIdentifier{Algorithm: oidRSA}))
	assert.True(t, HasNullOrAbsentParameters(pkix.AlgorithmIdentifier{Algorithm: oidRSA, Parameters: asn1.NullRawValue}))
	assert.False(t, HasNullOrAbsentParameters(pkix.AlgorithmIdentifier{
		Algorithm:  oidRSA,
		Parameters: asn1.RawValue{FullBytes: []byte{0x04, 0x00}},
	}))
}

func TestSortSetOf(t *testing.T) {
	elems := [][]byte{
		{0x04, 0x02, 0x01, 0x02},
		{0x02, 0x01, 0x05},
		{0x04, 0x01, 0xff},
		{0x02, 0x01, 0x01},
	}
	SortSetOf(elems)
	assert.Equal(t, [][]byte{
		{0x02, 0x01, 0x01},
		{0x02, 0x01, 0x05},
		{0x04, 0x01, 0xff},
		{0x04, 0x02, 0x01, 0x02},
	}, elems)
}

func TestIsSortedSetOf(t *testing.T) {
	assert.True(t, IsSortedSetOf(nil))
	assert.True(t, IsSortedSetOf([][]byte{{0x02, 0x01, 0x01}}))
	assert.True(t, IsSortedSetOf([][]byte{{0x02, 0x01, 0x01}, {0x02, 0x01, 0x01}, {0x04, 0x00}}))
	assert.False(t, IsSortedSetOf([][]byte{{0x04, 0x00}, {0x02, 0x01, 0x01}}))
}

func TestCompareSetElementsPadding(t *testing.T) {
	assert.Equal(t, 0, compareSetElements([]byte{0x01}, []byte{0x01, 0x00}))
	assert.Equal(t, -1, compareSetElements([]byte{0x01}, []byte{0x01, 0x01}))
	assert.Equal(t, 1, compareSetElements([]byte{0x01, 0x01}, []byte{0x01}))
}
