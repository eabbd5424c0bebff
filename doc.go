// Package pkcs8 implements PKCS#8 (RFC 5208) private key containers.
//
// PKCS#8 wraps an algorithm specific private key in a PrivateKeyInfo and,
// optionally, encrypts the result into an EncryptedPrivateKeyInfo. It is the
// format behind "PRIVATE KEY" and "ENCRYPTED PRIVATE KEY" PEM files.
//
// # Features
//
// This package provides:
//   - Strict DER parsing and encoding of PrivateKeyInfo and
//     EncryptedPrivateKeyInfo using cryptobyte
//   - PBES2 (RFC 8018) with PBKDF2-HMAC-SHA256 and AES-128/256-CBC
//   - Owned documents that wipe key material on Zeroize or release
//   - PEM (RFC 7468) with exact label matching
//   - Generic decode/encode helpers for key types implementing the
//     capability interfaces (see package keys)
//
// # Quick Start
//
// Decrypt an encrypted key:
//
//	data, _ := os.ReadFile("key.pem")
//	enc, err := pkcs8.ParseEncryptedPrivateKeyPEM(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	doc, err := enc.Decrypt([]byte("password"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer doc.Zeroize()
//
// Encrypt a key with secure defaults:
//
//	doc, err := pkcs8.NewPrivateKeyDocument(der)
//	if err != nil {
//		log.Fatal(err)
//	}
//	enc, err := doc.Encrypt([]byte("password"), nil)
//	os.WriteFile("key.pem", enc.PEM(), 0600)
//
// # API Levels
//
// High-Level:
//
//	DecodePrivateKeyPEM[T](data)             - PEM to typed key
//	DecodeEncryptedPrivateKeyPEM[T](data, pw) - encrypted PEM to typed key
//	EncryptPrivateKey(key, pw, opts)          - typed key to encrypted document
//
// Mid-Level:
//
//	PrivateKeyDocument, EncryptedPrivateKeyDocument, PublicKeyDocument
//
// Low-Level:
//
//	ParsePrivateKeyInfo(der), (*PrivateKeyInfo).Marshal, MarshalTo
//	ParseEncryptedPrivateKeyInfo(der), (*EncryptedPrivateKeyInfo).Decrypt
//	pkcs5.ParseParameters, pkcs5.GenerateParameters
//
// # Errors
//
// All errors wrap one of the Err* sentinels; use errors.Is or KindOf.
// Decryption failures return ErrCrypto unwrapped, so a wrong password cannot
// be told apart from corrupted ciphertext.
package pkcs8
