package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert between PEM and DER",
		Long:  "Convert a private, encrypted or public key between PEM and DER.\nWithout --format the encoding is switched.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runConvert(cmd, args[0], args[1])
		},
	}
}

func runConvert(cmd *cobra.Command, inPath, outPath string) error {
	in, err := loadInput(inPath)
	if err != nil {
		return err
	}
	defer in.close()

	format := "pem"
	if in.pem {
		format = "der"
	}
	if settings.IsSet("output.format") {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		format = cfg.Output.Format
	}
	slog.Debug("converting", "type", in.kind.String(), "from", in.encoding(), "to", format)

	return writeOutput(cmd.OutOrStdout(), outPath, format, in.document())
}
