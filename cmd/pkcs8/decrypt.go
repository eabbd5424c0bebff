package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <input> <output>",
		Short: "Decrypt an encrypted PKCS#8 private key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runDecrypt(cmd, args[0], args[1])
		},
	}
}

func runDecrypt(cmd *cobra.Command, inPath, outPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := loadInput(inPath)
	if err != nil {
		return err
	}
	defer in.close()
	if in.kind != kindEncrypted {
		return fmt.Errorf("input is a %s, expected an EncryptedPrivateKeyInfo", in.kind)
	}

	doc, err := decryptedInput(in)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outPath, cfg.Output.Format, doc)
}
