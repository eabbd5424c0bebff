package main

import (
	"crypto"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/spf13/cobra"

	"github.com/gematik/zero-lab/go/pkcs8"
	"github.com/gematik/zero-lab/go/pkcs8/keys"
)

var jwkFlag bool

func newPubkeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pubkey <input> <output>",
		Short: "Derive the public key of a private key",
		Long:  "Write the SubjectPublicKeyInfo for an Ed25519, RSA or ECDSA private key.\nEncrypted input is decrypted first.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runPubkey(cmd, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&jwkFlag, "jwk", false, "write a JSON Web Key with its RFC 7638 thumbprint as kid")
	return cmd
}

func runPubkey(cmd *cobra.Command, inPath, outPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := loadInput(inPath)
	if err != nil {
		return err
	}
	defer in.close()

	doc, err := decryptedInput(in)
	if err != nil {
		return err
	}
	info, err := doc.PrivateKeyInfo()
	if err != nil {
		return err
	}
	defer info.Zeroize()

	signer, err := keys.ParsePrivateKey(info)
	if err != nil {
		return fmt.Errorf("parsing private key: %w", err)
	}
	if jwkFlag {
		return writeJWK(cmd.OutOrStdout(), outPath, signer.Public())
	}

	spki, err := keys.PublicKeyInfo(signer)
	if err != nil {
		return err
	}
	pub, err := pkcs8.NewPublicKeyDocumentFromInfo(spki)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outPath, cfg.Output.Format, pub)
}

func writeJWK(w io.Writer, path string, pub crypto.PublicKey) error {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		return fmt.Errorf("creating JWK: %w", err)
	}
	thumbprint, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return fmt.Errorf("computing JWK thumbprint: %w", err)
	}
	if err := key.Set(jwk.KeyIDKey, base64.RawURLEncoding.EncodeToString(thumbprint)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
