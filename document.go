package pkcs8

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"runtime"

	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

// PrivateKeyDocument owns the DER encoding of a PrivateKeyInfo. The buffer
// always decodes as a PrivateKeyInfo and is never handed out; accessors
// return copies. The buffer is wiped by Zeroize, and at the latest when the
// document is garbage collected.
type PrivateKeyDocument struct {
	der []byte
}

// NewPrivateKeyDocument validates der and copies it into a new document.
func NewPrivateKeyDocument(der []byte) (*PrivateKeyDocument, error) {
	if _, err := ParsePrivateKeyInfo(der); err != nil {
		return nil, err
	}
	return adoptPrivateKeyDocument(secret.Clone(der)), nil
}

// adoptPrivateKeyDocument takes ownership of an already validated buffer.
func adoptPrivateKeyDocument(der []byte) *PrivateKeyDocument {
	doc := &PrivateKeyDocument{der: der}
	secret.WipeOnRelease(doc, der)
	return doc
}

// ParsePrivateKeyPEM decodes a "PRIVATE KEY" PEM block.
func ParsePrivateKeyPEM(data []byte) (*PrivateKeyDocument, error) {
	der, err := decodePEM(data, PrivateKeyPEMType)
	if err != nil {
		return nil, err
	}
	if _, err := ParsePrivateKeyInfo(der); err != nil {
		secret.Wipe(der)
		return nil, err
	}
	return adoptPrivateKeyDocument(der), nil
}

// Document encodes pki into a PrivateKeyDocument.
func (pki *PrivateKeyInfo) Document() (*PrivateKeyDocument, error) {
	der, err := pki.Marshal()
	if err != nil {
		return nil, err
	}
	if _, err := ParsePrivateKeyInfo(der); err != nil {
		secret.Wipe(der)
		return nil, fmt.Errorf("%w: encoding does not decode: %v", ErrEncode, err)
	}
	return adoptPrivateKeyDocument(der), nil
}

// Bytes returns a copy of the DER encoding. The caller owns the copy and
// should wipe it when done.
func (d *PrivateKeyDocument) Bytes() []byte {
	defer runtime.KeepAlive(d)
	return secret.Clone(d.der)
}

// Len returns the length of the DER encoding.
func (d *PrivateKeyDocument) Len() int {
	return len(d.der)
}

// PEM returns the document as a "PRIVATE KEY" PEM block. The caller owns
// the result and should wipe it when done.
func (d *PrivateKeyDocument) PEM() []byte {
	defer runtime.KeepAlive(d)
	return encodePEM(PrivateKeyPEMType, d.der)
}

// PrivateKeyInfo returns a decoded copy that does not alias the document.
func (d *PrivateKeyDocument) PrivateKeyInfo() (*PrivateKeyInfo, error) {
	defer runtime.KeepAlive(d)
	pki, err := ParsePrivateKeyInfo(d.der)
	if err != nil {
		return nil, err
	}
	return pki.Clone(), nil
}

// Encrypt encrypts the document under password. A nil opts uses
// DefaultEncryptOptions.
func (d *PrivateKeyDocument) Encrypt(password []byte, opts *EncryptOptions) (*EncryptedPrivateKeyDocument, error) {
	defer runtime.KeepAlive(d)
	pki, err := ParsePrivateKeyInfo(d.der)
	if err != nil {
		return nil, err
	}
	return pki.Encrypt(password, opts)
}

// Equal reports whether both documents hold the same encoding, in constant
// time with respect to the contents.
func (d *PrivateKeyDocument) Equal(other *PrivateKeyDocument) bool {
	if d == nil || other == nil {
		return d == other
	}
	defer runtime.KeepAlive(d)
	defer runtime.KeepAlive(other)
	return subtle.ConstantTimeCompare(d.der, other.der) == 1
}

// Zeroize wipes the document. It must not be used afterwards.
func (d *PrivateKeyDocument) Zeroize() {
	secret.Wipe(d.der)
	d.der = nil
}

func (d *PrivateKeyDocument) String() string {
	return fmt.Sprintf("PrivateKeyDocument(%d bytes)", len(d.der))
}

// EncryptedPrivateKeyDocument owns the DER encoding of an
// EncryptedPrivateKeyInfo, with the same guarantees as PrivateKeyDocument.
type EncryptedPrivateKeyDocument struct {
	der []byte
}

// NewEncryptedPrivateKeyDocument validates der and copies it into a new
// document.
func NewEncryptedPrivateKeyDocument(der []byte) (*EncryptedPrivateKeyDocument, error) {
	if _, err := ParseEncryptedPrivateKeyInfo(der); err != nil {
		return nil, err
	}
	return adoptEncryptedPrivateKeyDocument(secret.Clone(der)), nil
}

func adoptEncryptedPrivateKeyDocument(der []byte) *EncryptedPrivateKeyDocument {
	doc := &EncryptedPrivateKeyDocument{der: der}
	secret.WipeOnRelease(doc, der)
	return doc
}

// ParseEncryptedPrivateKeyPEM decodes an "ENCRYPTED PRIVATE KEY" PEM block.
func ParseEncryptedPrivateKeyPEM(data []byte) (*EncryptedPrivateKeyDocument, error) {
	der, err := decodePEM(data, EncryptedPrivateKeyPEMType)
	if err != nil {
		return nil, err
	}
	if _, err := ParseEncryptedPrivateKeyInfo(der); err != nil {
		secret.Wipe(der)
		return nil, err
	}
	return adoptEncryptedPrivateKeyDocument(der), nil
}

// Document encodes epki into an EncryptedPrivateKeyDocument.
func (epki *EncryptedPrivateKeyInfo) Document() (*EncryptedPrivateKeyDocument, error) {
	der, err := epki.Marshal()
	if err != nil {
		return nil, err
	}
	if _, err := ParseEncryptedPrivateKeyInfo(der); err != nil {
		return nil, fmt.Errorf("%w: encoding does not decode: %v", ErrEncode, err)
	}
	return adoptEncryptedPrivateKeyDocument(der), nil
}

// Bytes returns a copy of the DER encoding.
func (d *EncryptedPrivateKeyDocument) Bytes() []byte {
	defer runtime.KeepAlive(d)
	return bytes.Clone(d.der)
}

// Len returns the length of the DER encoding.
func (d *EncryptedPrivateKeyDocument) Len() int {
	return len(d.der)
}

// PEM returns the document as an "ENCRYPTED PRIVATE KEY" PEM block.
func (d *EncryptedPrivateKeyDocument) PEM() []byte {
	defer runtime.KeepAlive(d)
	return encodePEM(EncryptedPrivateKeyPEMType, d.der)
}

// EncryptedPrivateKeyInfo returns a decoded copy that does not alias the
// document.
func (d *EncryptedPrivateKeyDocument) EncryptedPrivateKeyInfo() (*EncryptedPrivateKeyInfo, error) {
	defer runtime.KeepAlive(d)
	epki, err := ParseEncryptedPrivateKeyInfo(d.der)
	if err != nil {
		return nil, err
	}
	return epki.Clone(), nil
}

// Decrypt decrypts the document with password. See
// EncryptedPrivateKeyInfo.Decrypt for the error semantics.
func (d *EncryptedPrivateKeyDocument) Decrypt(password []byte) (*PrivateKeyDocument, error) {
	defer runtime.KeepAlive(d)
	epki, err := ParseEncryptedPrivateKeyInfo(d.der)
	if err != nil {
		return nil, err
	}
	return epki.Decrypt(password)
}

// Equal reports whether both documents hold the same encoding.
func (d *EncryptedPrivateKeyDocument) Equal(other *EncryptedPrivateKeyDocument) bool {
	if d == nil || other == nil {
		return d == other
	}
	defer runtime.KeepAlive(d)
	defer runtime.KeepAlive(other)
	return subtle.ConstantTimeCompare(d.der, other.der) == 1
}

// Zeroize wipes the document. It must not be used afterwards.
func (d *EncryptedPrivateKeyDocument) Zeroize() {
	secret.Wipe(d.der)
	d.der = nil
}

func (d *EncryptedPrivateKeyDocument) String() string {
	return fmt.Sprintf("EncryptedPrivateKeyDocument(%d bytes)", len(d.der))
}

// PublicKeyDocument owns the DER encoding of a SubjectPublicKeyInfo.
type PublicKeyDocument struct {
	der []byte
}

// NewPublicKeyDocument validates der and copies it into a new document.
func NewPublicKeyDocument(der []byte) (*PublicKeyDocument, error) {
	if _, err := parseSubjectPublicKeyInfo(der); err != nil {
		return nil, err
	}
	return &PublicKeyDocument{der: bytes.Clone(der)}, nil
}

// NewPublicKeyDocumentFromInfo encodes info into a PublicKeyDocument.
func NewPublicKeyDocumentFromInfo(info *spki.SubjectPublicKeyInfo) (*PublicKeyDocument, error) {
	der, err := info.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if _, err := parseSubjectPublicKeyInfo(der); err != nil {
		return nil, fmt.Errorf("%w: encoding does not decode: %v", ErrEncode, err)
	}
	return &PublicKeyDocument{der: der}, nil
}

// ParsePublicKeyPEM decodes a "PUBLIC KEY" PEM block.
func ParsePublicKeyPEM(data []byte) (*PublicKeyDocument, error) {
	der, err := decodePEM(data, PublicKeyPEMType)
	if err != nil {
		return nil, err
	}
	if _, err := parseSubjectPublicKeyInfo(der); err != nil {
		return nil, err
	}
	return &PublicKeyDocument{der: der}, nil
}

// Bytes returns a copy of the DER encoding.
func (d *PublicKeyDocument) Bytes() []byte {
	return bytes.Clone(d.der)
}

// Len returns the length of the DER encoding.
func (d *PublicKeyDocument) Len() int {
	return len(d.der)
}

// PEM returns the document as a "PUBLIC KEY" PEM block.
func (d *PublicKeyDocument) PEM() []byte {
	return encodePEM(PublicKeyPEMType, d.der)
}

// SubjectPublicKeyInfo returns a decoded copy that does not alias the
// document.
func (d *PublicKeyDocument) SubjectPublicKeyInfo() (*spki.SubjectPublicKeyInfo, error) {
	info, err := parseSubjectPublicKeyInfo(d.der)
	if err != nil {
		return nil, err
	}
	return info.Clone(), nil
}

// Equal reports whether both documents hold the same encoding.
func (d *PublicKeyDocument) Equal(other *PublicKeyDocument) bool {
	if d == nil || other == nil {
		return d == other
	}
	return bytes.Equal(d.der, other.der)
}

// parseSubjectPublicKeyInfo reports spki parse failures as ErrMalformed.
func parseSubjectPublicKeyInfo(der []byte) (*spki.SubjectPublicKeyInfo, error) {
	info, err := spki.Parse(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return info, nil
}
