// Sigknife reads, applies and creates IDA style byte signatures.
//
// It decodes IDA signature databases (.sig) and matches them against module
// images, generates unique code signatures for addresses or address ranges,
// and converts between the code, IDA and PEiD textual signature styles. The
// companion formats used alongside signatures are supported as well: linker
// MAP files, IDA DIF patch files and PEiD userdb.txt databases.
//
// Usage:
//
//	sigknife [command] [flags]
//
// See 'sigknife --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/sigknife/internal/config"
	"github.com/muurk/sigknife/internal/logging"
	"github.com/muurk/sigknife/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "sigknife",
	Short: "IDA signature toolkit",
	Long: `A toolkit for IDA style byte signatures.

Applies IDA signature databases (.sig) to module images, generates unique
code signatures for functions, and converts signatures between the code,
IDA and PEiD textual styles. MAP symbol files, DIF patch files and PEiD
databases are supported as well.

Images may be PE files (mapped at their image base), ELF files (.text at its
link address) or raw dumps with --raw and --base.`,
	Version: version.Version,
	Example: `  # Show a signature database header
  sigknife info vc64rtf.sig

  # Label functions in a module
  sigknife apply vc64rtf.sig app.exe

  # Create a signature for a function
  sigknife make app.exe --start 0x140001000 --end 0x140001040

  # Create signatures for many functions
  sigknife batch app.exe functions.txt`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			config.SetPath(configPath)
		}
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: $"+config.PathEnvVar+" or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $"+logging.LogLevelEnvVar+", silent)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		for _, line := range version.Details() {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	},
}
