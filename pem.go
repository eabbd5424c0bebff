package pkcs8

import (
	"bytes"
	"encoding/pem"
	"fmt"

	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
)

// PEM type labels (RFC 7468)
const (
	PrivateKeyPEMType          = "PRIVATE KEY"
	EncryptedPrivateKeyPEMType = "ENCRYPTED PRIVATE KEY"
	PublicKeyPEMType           = "PUBLIC KEY"
)

var pemBegin = []byte("-----BEGIN ")

// decodePEM extracts the DER payload of data, which must consist of exactly
// one PEM block of type label, optionally surrounded by whitespace.
func decodePEM(data []byte, label string) ([]byte, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), pemBegin) {
		return nil, fmt.Errorf("%w: no PEM block found", ErrPEM)
	}

	block, rest := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: invalid PEM block", ErrPEM)
	}
	if block.Type != label {
		secret.Wipe(block.Bytes)
		return nil, fmt.Errorf("%w: unexpected type %q, want %q", ErrPEM, block.Type, label)
	}
	if len(block.Headers) > 0 {
		secret.Wipe(block.Bytes)
		return nil, fmt.Errorf("%w: unexpected PEM headers", ErrPEM)
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		secret.Wipe(block.Bytes)
		return nil, fmt.Errorf("%w: trailing data after PEM block", ErrPEM)
	}
	return block.Bytes, nil
}

// encodePEM wraps der in a PEM block of type label with 64 column lines.
func encodePEM(label string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: label, Bytes: der})
}

// PEMType reports the type label of the first PEM block in data, or "" if
// data does not start with one.
func PEMType(data []byte) string {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), pemBegin) {
		return ""
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return ""
	}
	defer secret.Wipe(block.Bytes)
	return block.Type
}
