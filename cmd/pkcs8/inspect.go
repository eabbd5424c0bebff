package main

import (
	"crypto/sha256"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/keys"
	"github.com/gematik/zero-lab/go/pkcs8/pkcs5"
	"github.com/gematik/zero-lab/go/pkcs8/spki"
)

var (
	outputFlag  string
	decryptFlag bool
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the structure of a PKCS#8 or public key file",
		Long:  "Show the structure of a PEM or DER encoded PrivateKeyInfo,\nEncryptedPrivateKeyInfo or SubjectPublicKeyInfo. Use - to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runInspect(cmd.OutOrStdout(), args[0])
		},
	}
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "text", "output format: text, json, yaml")
	cmd.Flags().BoolVar(&decryptFlag, "decrypt", false, "decrypt an encrypted key and show the inner key")
	return cmd
}

type keyReport struct {
	Type         string            `json:"type" yaml:"type"`
	Encoding     string            `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Size         int               `json:"size" yaml:"size"`
	Algorithm    string            `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	AlgorithmOID string            `json:"algorithm_oid,omitempty" yaml:"algorithm_oid,omitempty"`
	Curve        string            `json:"curve,omitempty" yaml:"curve,omitempty"`
	Attributes   []string          `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Fingerprint  string            `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Encryption   *encryptionReport `json:"encryption,omitempty" yaml:"encryption,omitempty"`
	Decrypted    *keyReport        `json:"decrypted,omitempty" yaml:"decrypted,omitempty"`
}

type encryptionReport struct {
	Scheme     string `json:"scheme" yaml:"scheme"`
	KDF        string `json:"kdf,omitempty" yaml:"kdf,omitempty"`
	PRF        string `json:"prf,omitempty" yaml:"prf,omitempty"`
	Iterations int    `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	SaltSize   int    `json:"salt_size,omitempty" yaml:"salt_size,omitempty"`
	Cipher     string `json:"cipher,omitempty" yaml:"cipher,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runInspect(w io.Writer, file string) error {
	in, err := loadInput(file)
	if err != nil {
		return err
	}
	defer in.close()

	report, err := inspectInput(in)
	if err != nil {
		return err
	}
	return printOutput(w, outputFlag, report, func(w io.Writer) error {
		return printReport(w, report)
	})
}

func inspectInput(in *input) (*keyReport, error) {
	var report *keyReport
	var err error
	switch in.kind {
	case kindPrivate:
		report, err = inspectPrivateKey(in.private)
	case kindEncrypted:
		report, err = inspectEncrypted(in)
	default:
		report, err = inspectPublicKey(in.public)
	}
	if err != nil {
		return nil, err
	}
	report.Encoding = in.encoding()
	return report, nil
}

func inspectPrivateKey(doc *pkcs8.PrivateKeyDocument) (*keyReport, error) {
	info, err := doc.PrivateKeyInfo()
	if err != nil {
		return nil, err
	}
	defer info.Zeroize()

	report := &keyReport{
		Type:         kindPrivate.String(),
		Size:         doc.Len(),
		Algorithm:    keys.AlgorithmName(info.Algorithm.Algorithm),
		AlgorithmOID: info.Algorithm.Algorithm.String(),
		Curve:        curveName(info.Algorithm.Parameters.FullBytes),
	}
	for _, attr := range info.Attributes {
		report.Attributes = append(report.Attributes, fmt.Sprintf("%s (%d values)", attr.Type, len(attr.Values)))
	}

	// unknown algorithms are still inspectable, only the fingerprint is lost
	if signer, err := keys.ParsePrivateKey(info); err == nil {
		if pub, err := keys.PublicKeyInfo(signer); err == nil {
			report.Fingerprint = fingerprint(pub)
		}
	}
	return report, nil
}

func inspectPublicKey(doc *pkcs8.PublicKeyDocument) (*keyReport, error) {
	info, err := doc.SubjectPublicKeyInfo()
	if err != nil {
		return nil, err
	}
	return &keyReport{
		Type:         kindPublic.String(),
		Size:         doc.Len(),
		Algorithm:    keys.AlgorithmName(info.Algorithm.Algorithm),
		AlgorithmOID: info.Algorithm.Algorithm.String(),
		Curve:        curveName(info.Algorithm.Parameters.FullBytes),
		Fingerprint:  fingerprint(info),
	}, nil
}

func inspectEncrypted(in *input) (*keyReport, error) {
	epki, err := in.encrypted.EncryptedPrivateKeyInfo()
	if err != nil {
		return nil, err
	}

	enc := &encryptionReport{Scheme: pkcs5.AlgorithmName(epki.EncryptionAlgorithm.Algorithm)}
	if params, err := epki.Scheme(); err != nil {
		enc.Error = err.Error()
	} else {
		enc.KDF = pkcs5.AlgorithmName(pkcs5.OIDPBKDF2)
		enc.PRF = pkcs5.AlgorithmName(params.KDF.PRF)
		enc.Iterations = params.KDF.IterationCount
		enc.SaltSize = len(params.KDF.Salt)
		enc.Cipher = pkcs5.AlgorithmName(params.Cipher.Algorithm)
	}

	report := &keyReport{
		Type:       kindEncrypted.String(),
		Size:       in.encrypted.Len(),
		Encryption: enc,
	}
	if !decryptFlag {
		return report, nil
	}

	doc, err := decryptedInput(in)
	if err != nil {
		return nil, err
	}
	report.Decrypted, err = inspectPrivateKey(doc)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func curveName(params []byte) string {
	var oid asn1.ObjectIdentifier
	if rest, err := asn1.Unmarshal(params, &oid); err != nil || len(rest) != 0 {
		return ""
	}
	return keys.CurveName(oid)
}

// fingerprint is the SHA-256 of the DER encoded SubjectPublicKeyInfo.
func fingerprint(info *spki.SubjectPublicKeyInfo) string {
	der, err := info.Marshal()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return "SHA256:" + hex.EncodeToString(sum[:])
}

func printReport(w io.Writer, r *keyReport) error {
	err := printKeyValue(w, func(w io.Writer) {
		fmt.Fprintf(w, "Type\t%s\n", r.Type)
		if r.Encoding != "" {
			fmt.Fprintf(w, "Encoding\t%s\n", r.Encoding)
		}
		fmt.Fprintf(w, "Size\t%d bytes\n", r.Size)
		if r.Algorithm != "" {
			fmt.Fprintf(w, "Algorithm\t%s (%s)\n", r.Algorithm, r.AlgorithmOID)
		}
		if r.Curve != "" {
			fmt.Fprintf(w, "Curve\t%s\n", r.Curve)
		}
		for _, attr := range r.Attributes {
			fmt.Fprintf(w, "Attribute\t%s\n", attr)
		}
		if r.Fingerprint != "" {
			fmt.Fprintf(w, "Fingerprint\t%s\n", r.Fingerprint)
		}
		if e := r.Encryption; e != nil {
			fmt.Fprintf(w, "Scheme\t%s\n", e.Scheme)
			if e.Error != "" {
				fmt.Fprintf(w, "Error\t%s\n", e.Error)
			} else {
				fmt.Fprintf(w, "KDF\t%s, %s, %d iterations, %d byte salt\n", e.KDF, e.PRF, e.Iterations, e.SaltSize)
				fmt.Fprintf(w, "Cipher\t%s\n", e.Cipher)
			}
		}
	})
	if err != nil || r.Decrypted == nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionHeader(w, "--- Decrypted ---"))
	return printReport(w, r.Decrypted)
}
