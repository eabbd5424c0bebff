package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
)

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt <input> <output>",
		Short: "Encrypt a PKCS#8 private key with PBES2",
		Long:  "Encrypt a PKCS#8 private key with PBES2 (PBKDF2-HMAC-SHA256 and AES-CBC).\nScheme defaults come from the config file and can be overridden by flags.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runEncrypt(cmd, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.String("cipher", "", "aes-128-cbc or aes-256-cbc (env: PKCS8_ENCRYPTION_CIPHER)")
	flags.Int("iterations", 0, "PBKDF2 iteration count (env: PKCS8_ENCRYPTION_ITERATIONS)")
	flags.Int("salt-size", 0, "PBKDF2 salt size in bytes (env: PKCS8_ENCRYPTION_SALT_SIZE)")
	settings.BindPFlag("encryption.cipher", flags.Lookup("cipher"))
	settings.BindPFlag("encryption.iterations", flags.Lookup("iterations"))
	settings.BindPFlag("encryption.salt_size", flags.Lookup("salt-size"))

	return cmd
}

func runEncrypt(cmd *cobra.Command, inPath, outPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.EncryptOptions()
	if err != nil {
		return err
	}

	in, err := loadInput(inPath)
	if err != nil {
		return err
	}
	defer in.close()
	if in.kind != kindPrivate {
		return fmt.Errorf("input is a %s, expected an unencrypted PrivateKeyInfo", in.kind)
	}

	password, err := getPassword()
	if err != nil {
		return err
	}
	defer secret.Wipe(password)

	enc, err := in.private.Encrypt(password, opts)
	if err != nil {
		return fmt.Errorf("encrypting private key: %w", err)
	}
	defer enc.Zeroize()
	slog.Debug("encrypted private key",
		"cipher", cfg.Encryption.Cipher,
		"iterations", cfg.Encryption.Iterations,
		"salt_size", cfg.Encryption.SaltSize)

	return writeOutput(cmd.OutOrStdout(), outPath, cfg.Output.Format, enc)
}
