package pkcs8

import (
	"errors"
)

var (
	ErrMalformed            = errors.New("pkcs8: malformed encoding")
	ErrVersion              = errors.New("pkcs8: unsupported version")
	ErrUnsupportedAlgorithm = errors.New("pkcs8: unsupported algorithm")
	ErrCrypto               = errors.New("pkcs8: cryptographic failure")
	ErrPEM                  = errors.New("pkcs8: invalid PEM encoding")
	ErrCapacity             = errors.New("pkcs8: buffer too small")
	ErrEncode               = errors.New("pkcs8: encoding failed")
)

// Kind classifies errors returned by this module.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformed
	KindVersion
	KindUnsupportedAlgorithm
	KindCrypto
	KindPEM
	KindCapacity
	KindEncode
)

var kindSentinels = []struct {
	kind Kind
	err  error
}{
	// checked in order
	{KindCrypto, ErrCrypto},
	{KindVersion, ErrVersion},
	{KindUnsupportedAlgorithm, ErrUnsupportedAlgorithm},
	{KindPEM, ErrPEM},
	{KindCapacity, ErrCapacity},
	{KindMalformed, ErrMalformed},
	{KindEncode, ErrEncode},
}

// KindOf reports the kind of err, or KindUnknown if err did not originate
// from this module.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindVersion:
		return "version"
	case KindUnsupportedAlgorithm:
		return "unsupported-algorithm"
	case KindCrypto:
		return "crypto"
	case KindPEM:
		return "pem"
	case KindCapacity:
		return "capacity"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}
