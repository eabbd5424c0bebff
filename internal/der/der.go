// Package der holds the DER helpers shared by the pkcs8, pkcs5 and spki
// packages: AlgorithmIdentifier reading and writing on top of cryptobyte,
// and DER ordering of SET OF elements.
package der

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"slices"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var errInvalidParameters = errors.New("invalid algorithm parameters")

// ReadAlgorithmIdentifier reads
//
//	AlgorithmIdentifier ::= SEQUENCE {
//	  algorithm   OBJECT IDENTIFIER,
//	  parameters  ANY DEFINED BY algorithm OPTIONAL
//	}
//
// from s. Anything beyond a single parameter element is rejected. The
// parameters alias s.
func ReadAlgorithmIdentifier(s *cryptobyte.String, out *pkix.AlgorithmIdentifier) bool {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return false
	}
	if !seq.ReadASN1ObjectIdentifier(&out.Algorithm) {
		return false
	}
	out.Parameters = asn1.RawValue{}
	if seq.Empty() {
		return true
	}

	var elem cryptobyte.String
	var tag cryptobyte_asn1.Tag
	if !seq.ReadAnyASN1Element(&elem, &tag) || !seq.Empty() {
		return false
	}
	rest, err := asn1.Unmarshal(elem, &out.Parameters)
	return err == nil && len(rest) == 0
}

// ParameterBytes returns the DER encoding of p, or nil if p is absent.
func ParameterBytes(p asn1.RawValue) ([]byte, error) {
	if len(p.FullBytes) > 0 {
		return p.FullBytes, nil
	}
	if p.Class == 0 && p.Tag == 0 && !p.IsCompound && len(p.Bytes) == 0 {
		return nil, nil
	}
	b, err := asn1.Marshal(p)
	if err != nil {
		return nil, errors.Join(errInvalidParameters, err)
	}
	return b, nil
}

// AddAlgorithmIdentifier appends alg to b.
func AddAlgorithmIdentifier(b *cryptobyte.Builder, alg pkix.AlgorithmIdentifier) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(alg.Algorithm)
		params, err := ParameterBytes(alg.Parameters)
		if err != nil {
			b.SetError(err)
			return
		}
		b.AddBytes(params)
	})
}

// CloneAlgorithmIdentifier returns a deep copy of alg.
func CloneAlgorithmIdentifier(alg pkix.AlgorithmIdentifier) pkix.AlgorithmIdentifier {
	out := pkix.AlgorithmIdentifier{
		Algorithm: slices.Clone(alg.Algorithm),
	}
	params, err := ParameterBytes(alg.Parameters)
	if err != nil || params == nil {
		out.Parameters = alg.Parameters
		out.Parameters.Bytes = slices.Clone(alg.Parameters.Bytes)
		return out
	}
	full := slices.Clone(params)
	if _, err := asn1.Unmarshal(full, &out.Parameters); err != nil {
		out.Parameters = asn1.RawValue{FullBytes: full}
	}
	return out
}

// EqualAlgorithmIdentifier reports whether a and b encode identically.
func EqualAlgorithmIdentifier(a, b pkix.AlgorithmIdentifier) bool {
	if !a.Algorithm.Equal(b.Algorithm) {
		return false
	}
	pa, errA := ParameterBytes(a.Parameters)
	pb, errB := ParameterBytes(b.Parameters)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(pa, pb)
}

// HasNullOrAbsentParameters reports whether alg carries no parameters or an
// explicit NULL.
func HasNullOrAbsentParameters(alg pkix.AlgorithmIdentifier) bool {
	params, err := ParameterBytes(alg.Parameters)
	if err != nil {
		return false
	}
	return len(params) == 0 || bytes.Equal(params, asn1.NullBytes)
}

// SortSetOf orders encoded elements as X.690 11.6 requires for a DER
// SET OF: ascending, comparing as octet strings with the shorter one padded
// with trailing zeros.
func SortSetOf(elems [][]byte) {
	slices.SortStableFunc(elems, compareSetElements)
}

// IsSortedSetOf reports whether elems are already in the order SortSetOf
// produces.
func IsSortedSetOf(elems [][]byte) bool {
	return slices.IsSortedFunc(elems, compareSetElements)
}

func compareSetElements(a, b []byte) int {
	n := min(len(a), len(b))
	if c := bytes.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	switch {
	case len(a) > n && !allZero(a[n:]):
		return 1
	case len(b) > n && !allZero(b[n:]):
		return -1
	}
	return 0
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
