package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openhours/openhours/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configInitCmd())

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, warnings, err := loadConfigWithWarnings()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration\n")
			fmt.Fprintf(out, "══════════════════════════════════════\n")
			fmt.Fprintf(out, "\n[engine]\n")
			fmt.Fprintf(out, "  timezone            = %s\n", firstNonEmpty(cfg.Engine.Timezone, "(local)"))
			fmt.Fprintf(out, "  lookahead_days      = %d\n", cfg.Engine.LookaheadDays)
			fmt.Fprintf(out, "\n[server]\n")
			fmt.Fprintf(out, "  listen              = %s\n", cfg.Server.Listen)
			fmt.Fprintf(out, "  requests_per_second = %g\n", cfg.Server.RequestsPerSecond)
			fmt.Fprintf(out, "  burst               = %d\n", cfg.Server.Burst)
			fmt.Fprintf(out, "\n[store]\n")
			fmt.Fprintf(out, "  path                = %s\n", cfg.Store.Path)
			fmt.Fprintf(out, "\n[logging]\n")
			fmt.Fprintf(out, "  level               = %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "  file                = %s\n", firstNonEmpty(cfg.Logging.File, "(stderr)"))

			for _, w := range warnings {
				fmt.Fprintf(out, "\nWARNING: %s\n", w.Message)
			}
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()

			var cfgPath string
			if cfgFile != "" {
				cfgPath = cfgFile
			} else {
				homeDir, _ := os.UserHomeDir()
				cfgPath = filepath.Join(homeDir, ".config", "openhours", "config.toml")
			}

			if err := cfg.Save(cfgPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", cfgPath)
			return nil
		},
	}
}
