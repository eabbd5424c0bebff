package pkcs8

import (
	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

// PrivateKeyDecoder is implemented by key types that can be built from a
// PrivateKeyInfo. DecodePrivateKeyInfo must either fully initialise the
// receiver or return an error. info aliases a buffer owned by the caller and
// must not be retained.
type PrivateKeyDecoder interface {
	DecodePrivateKeyInfo(info *PrivateKeyInfo) error
}

// PrivateKeyEncoder is implemented by key types that can be serialized as a
// PrivateKeyInfo. The returned PrivateKey slice must be freshly allocated;
// it is wiped once encoded.
type PrivateKeyEncoder interface {
	EncodePrivateKeyInfo() (*PrivateKeyInfo, error)
}

// PublicKeyDecoder is implemented by key types that can be built from a
// SubjectPublicKeyInfo.
type PublicKeyDecoder interface {
	DecodeSubjectPublicKeyInfo(info *spki.SubjectPublicKeyInfo) error
}

// PublicKeyEncoder is implemented by key types that can be serialized as a
// SubjectPublicKeyInfo.
type PublicKeyEncoder interface {
	EncodeSubjectPublicKeyInfo() (*spki.SubjectPublicKeyInfo, error)
}

// privateKeyDecoderPtr constrains P to *T implementing PrivateKeyDecoder, so
// callers only name the key type: DecodePrivateKey[keys.Ed25519PrivateKey](der).
type privateKeyDecoderPtr[T any] interface {
	*T
	PrivateKeyDecoder
}

type publicKeyDecoderPtr[T any] interface {
	*T
	PublicKeyDecoder
}

// DecodePrivateKey parses a DER encoded PrivateKeyInfo into a new T.
func DecodePrivateKey[T any, P privateKeyDecoderPtr[T]](der []byte) (*T, error) {
	info, err := ParsePrivateKeyInfo(der)
	if err != nil {
		return nil, err
	}
	key := new(T)
	if err := P(key).DecodePrivateKeyInfo(info); err != nil {
		return nil, err
	}
	return key, nil
}

// DecodePrivateKeyDocument decodes the key held by doc into a new T.
func DecodePrivateKeyDocument[T any, P privateKeyDecoderPtr[T]](doc *PrivateKeyDocument) (*T, error) {
	der := doc.Bytes()
	defer secret.Wipe(der)
	return DecodePrivateKey[T, P](der)
}

// DecodePrivateKeyPEM decodes a "PRIVATE KEY" PEM block into a new T.
func DecodePrivateKeyPEM[T any, P privateKeyDecoderPtr[T]](data []byte) (*T, error) {
	doc, err := ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	defer doc.Zeroize()
	return DecodePrivateKeyDocument[T, P](doc)
}

// DecodeEncryptedPrivateKey decrypts a DER encoded EncryptedPrivateKeyInfo
// and decodes the result into a new T.
func DecodeEncryptedPrivateKey[T any, P privateKeyDecoderPtr[T]](der, password []byte) (*T, error) {
	doc, err := DecryptPrivateKeyInfo(der, password)
	if err != nil {
		return nil, err
	}
	defer doc.Zeroize()
	return DecodePrivateKeyDocument[T, P](doc)
}

// DecodeEncryptedPrivateKeyPEM decrypts an "ENCRYPTED PRIVATE KEY" PEM block
// and decodes the result into a new T.
func DecodeEncryptedPrivateKeyPEM[T any, P privateKeyDecoderPtr[T]](data, password []byte) (*T, error) {
	enc, err := ParseEncryptedPrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	defer enc.Zeroize()

	doc, err := enc.Decrypt(password)
	if err != nil {
		return nil, err
	}
	defer doc.Zeroize()
	return DecodePrivateKeyDocument[T, P](doc)
}

// EncodePrivateKey serializes key into a PrivateKeyDocument.
func EncodePrivateKey(key PrivateKeyEncoder) (*PrivateKeyDocument, error) {
	info, err := key.EncodePrivateKeyInfo()
	if err != nil {
		return nil, err
	}
	defer info.Zeroize()
	return info.Document()
}

// EncodePrivateKeyPEM serializes key as a "PRIVATE KEY" PEM block.
func EncodePrivateKeyPEM(key PrivateKeyEncoder) ([]byte, error) {
	doc, err := EncodePrivateKey(key)
	if err != nil {
		return nil, err
	}
	defer doc.Zeroize()
	return doc.PEM(), nil
}

// EncryptPrivateKey serializes key and encrypts it under password. A nil
// opts uses DefaultEncryptOptions.
func EncryptPrivateKey(key PrivateKeyEncoder, password []byte, opts *EncryptOptions) (*EncryptedPrivateKeyDocument, error) {
	info, err := key.EncodePrivateKeyInfo()
	if err != nil {
		return nil, err
	}
	defer info.Zeroize()
	return info.Encrypt(password, opts)
}

// DecodePublicKey parses a DER encoded SubjectPublicKeyInfo into a new T.
func DecodePublicKey[T any, P publicKeyDecoderPtr[T]](der []byte) (*T, error) {
	info, err := parseSubjectPublicKeyInfo(der)
	if err != nil {
		return nil, err
	}
	key := new(T)
	if err := P(key).DecodeSubjectPublicKeyInfo(info); err != nil {
		return nil, err
	}
	return key, nil
}

// DecodePublicKeyDocument decodes the key held by doc into a new T.
func DecodePublicKeyDocument[T any, P publicKeyDecoderPtr[T]](doc *PublicKeyDocument) (*T, error) {
	return DecodePublicKey[T, P](doc.Bytes())
}

// DecodePublicKeyPEM decodes a "PUBLIC KEY" PEM block into a new T.
func DecodePublicKeyPEM[T any, P publicKeyDecoderPtr[T]](data []byte) (*T, error) {
	doc, err := ParsePublicKeyPEM(data)
	if err != nil {
		return nil, err
	}
	return DecodePublicKeyDocument[T, P](doc)
}

// EncodePublicKey serializes key into a PublicKeyDocument.
func EncodePublicKey(key PublicKeyEncoder) (*PublicKeyDocument, error) {
	info, err := key.EncodeSubjectPublicKeyInfo()
	if err != nil {
		return nil, err
	}
	return NewPublicKeyDocumentFromInfo(info)
}

// EncodePublicKeyPEM serializes key as a "PUBLIC KEY" PEM block.
func EncodePublicKeyPEM(key PublicKeyEncoder) ([]byte, error) {
	doc, err := EncodePublicKey(key)
	if err != nil {
		return nil, err
	}
	return doc.PEM(), nil
}
