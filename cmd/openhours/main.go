// openhours evaluates schema.org opening-hours rules
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
)

var (
	// Set at build time via -ldflags
	version = "dev"

	cfgFile   string
	logLevel  string
	logFile   string
	storePath string

	// wallClock supplies "now" to every command; tests swap in a mock.
	wallClock clock.Clock = clock.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "openhours",
		Short: "Evaluate opening-hours rules",
		Long: `openhours answers "is this place open right now, and when does that
change?" from a list of schema.org OpeningHoursSpecification rules.

Rules can be read from JSON, JSONC or YAML files, or kept in a local
place registry and served over an HTTP API.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error; default from config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (default: stderr)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "place registry database (default from config)")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(placeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}
