package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
)

type inputKind int

const (
	kindPrivate inputKind = iota
	kindEncrypted
	kindPublic
)

func (k inputKind) String() string {
	switch k {
	case kindPrivate:
		return "PrivateKeyInfo"
	case kindEncrypted:
		return "EncryptedPrivateKeyInfo"
	default:
		return "SubjectPublicKeyInfo"
	}
}

// input is a parsed key file. Exactly one of the documents is set.
type input struct {
	kind inputKind
	pem  bool

	private   *pkcs8.PrivateKeyDocument
	encrypted *pkcs8.EncryptedPrivateKeyDocument
	public    *pkcs8.PublicKeyDocument
}

func (in *input) encoding() string {
	if in.pem {
		return "pem"
	}
	return "der"
}

func (in *input) document() document {
	switch in.kind {
	case kindPrivate:
		return in.private
	case kindEncrypted:
		return in.encrypted
	default:
		return in.public
	}
}

func (in *input) close() {
	if in.private != nil {
		in.private.Zeroize()
	}
	if in.encrypted != nil {
		in.encrypted.Zeroize()
	}
}

func readFile(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// loadInput reads path and detects PEM or DER and which of the three
// structures it holds.
func loadInput(path string) (*input, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(data)

	in, err := parseInput(data)
	if err != nil {
		return nil, err
	}
	slog.Debug("detected input", "file", path, "type", in.kind.String(), "encoding", in.encoding())
	return in, nil
}

func parseInput(data []byte) (*input, error) {
	if label := pkcs8.PEMType(data); label != "" {
		in := &input{pem: true}
		var err error
		switch label {
		case pkcs8.PrivateKeyPEMType:
			in.kind = kindPrivate
			in.private, err = pkcs8.ParsePrivateKeyPEM(data)
		case pkcs8.EncryptedPrivateKeyPEMType:
			in.kind = kindEncrypted
			in.encrypted, err = pkcs8.ParseEncryptedPrivateKeyPEM(data)
		case pkcs8.PublicKeyPEMType:
			in.kind = kindPublic
			in.public, err = pkcs8.ParsePublicKeyPEM(data)
		default:
			return nil, fmt.Errorf("%w: unsupported PEM type %q", pkcs8.ErrPEM, label)
		}
		if err != nil {
			return nil, err
		}
		return in, nil
	}

	private, errPrivate := pkcs8.NewPrivateKeyDocument(data)
	if errPrivate == nil {
		return &input{kind: kindPrivate, private: private}, nil
	}
	if encrypted, err := pkcs8.NewEncryptedPrivateKeyDocument(data); err == nil {
		return &input{kind: kindEncrypted, encrypted: encrypted}, nil
	}
	if public, err := pkcs8.NewPublicKeyDocument(data); err == nil {
		return &input{kind: kindPublic, public: public}, nil
	}
	return nil, errPrivate
}

// decryptedInput returns the private key of in, decrypting it if needed.
func decryptedInput(in *input) (*pkcs8.PrivateKeyDocument, error) {
	switch in.kind {
	case kindPrivate:
		return in.private, nil
	case kindEncrypted:
		password, err := getPassword()
		if err != nil {
			return nil, err
		}
		defer secret.Wipe(password)
		doc, err := in.encrypted.Decrypt(password)
		if err != nil {
			return nil, fmt.Errorf("decrypting private key: %w", err)
		}
		in.private = doc
		return doc, nil
	}
	return nil, fmt.Errorf("input is a %s, not a private key", in.kind)
}

var errNoPassword = errors.New("no password given (use --password or PKCS8_PASSWORD)")

func getPassword() ([]byte, error) {
	if pw := settings.GetString("password"); pw != "" {
		return []byte(pw), nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errNoPassword
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return pw, nil
}

// document is implemented by the three pkcs8 document types.
type document interface {
	Bytes() []byte
	PEM() []byte
}

// writeOutput writes doc as PEM or DER to path. "-" is stdout.
func writeOutput(w io.Writer, path, format string, doc document) error {
	var out []byte
	if format == "der" {
		out = doc.Bytes()
	} else {
		out = doc.PEM()
	}
	defer secret.Wipe(out)

	if path == "-" {
		_, err := w.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	slog.Info("written", "file", path, "format", format)
	return nil
}
