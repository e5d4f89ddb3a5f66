package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/openhours/openhours/internal/hours"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "openhours version %s (%s)\n", version, runtime.Version())
			fmt.Fprintf(out, "\nFeatures:\n")
			fmt.Fprintf(out, "  • schema.org OpeningHoursSpecification rules\n")
			fmt.Fprintf(out, "  • JSON, JSONC and YAML rule files\n")
			fmt.Fprintf(out, "  • Transition search up to %d days ahead\n", hours.DefaultLookahead)
			fmt.Fprintf(out, "  • SQLite place registry\n")
			fmt.Fprintf(out, "  • HTTP API with Prometheus metrics\n")
		},
	}
}
