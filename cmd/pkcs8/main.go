// Command pkcs8 inspects, encrypts, decrypts and converts PKCS#8 private keys.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	console "github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

var (
	verboseFlag bool
	settings    *viper.Viper
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

func newRootCmd() *cobra.Command {
	settings = viper.New()
	settings.SetEnvPrefix("PKCS8")
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	settings.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "pkcs8",
		Short:         "PKCS#8 private key tool",
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			godotenv.Load()

			level := slog.LevelWarn
			if verboseFlag {
				level = slog.LevelDebug
			}
			if os.Getenv("PRETTY_LOGS") != "false" {
				slog.SetDefault(slog.New(console.NewHandler(cmd.ErrOrStderr(), &console.HandlerOptions{
					Level:      level,
					TimeFormat: time.TimeOnly,
				})))
			} else {
				slog.SetLogLoggerLevel(level)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	flags.StringP("config", "c", "", "config file (env: PKCS8_CONFIG)")
	flags.String("password", "", "password for encryption and decryption (env: PKCS8_PASSWORD)")
	flags.String("format", "", "output encoding: pem, der (env: PKCS8_OUTPUT_FORMAT)")
	settings.BindPFlag("config", flags.Lookup("config"))
	settings.BindPFlag("password", flags.Lookup("password"))
	settings.BindPFlag("output.format", flags.Lookup("format"))

	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newEncryptCmd())
	rootCmd.AddCommand(newDecryptCmd())
	rootCmd.AddCommand(newPubkeyCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	})

	return rootCmd
}
