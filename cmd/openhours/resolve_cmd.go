package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openhours/openhours/internal/hours"
)

func resolveCmd() *cobra.Command {
	var (
		date     string
		timezone string
	)

	cmd := &cobra.Command{
		Use:     "resolve CLOCK",
		Short:   "Resolve a local HH:MM clock time to an absolute instant",
		Example: `  openhours resolve 09:30 --date 2025-03-30 --timezone Europe/Berlin`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			zone := firstNonEmpty(timezone, cfg.Engine.Timezone)
			loc, err := hours.LoadLocation(zone)
			if err != nil {
				return err
			}

			day := hours.DateOf(wallClock.Now(), loc)
			if date != "" {
				day, err = hours.ParseDate(date)
				if err != nil {
					return err
				}
			}

			instant, err := hours.ResolveClockTime(args[0], day, zone)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), instant.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&timezone, "timezone", "z", "", "IANA timezone (default from config)")

	return cmd
}
