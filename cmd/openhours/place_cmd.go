package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openhours/openhours/internal/config"
	"github.com/openhours/openhours/internal/hours"
	"github.com/openhours/openhours/internal/store"
)

func placeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place",
		Short: "Manage the place registry",
	}

	cmd.AddCommand(placeAddCmd())
	cmd.AddCommand(placeListCmd())
	cmd.AddCommand(placeShowCmd())
	cmd.AddCommand(placeRemoveCmd())

	return cmd
}

// withStore runs fn against the configured place registry.
func withStore(fn func(cfg *config.Config, s *store.Store, logger *zap.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(cfg, s, logger)
}

func placeAddCmd() *cobra.Command {
	var timezone string

	cmd := &cobra.Command{
		Use:   "add NAME FILE",
		Short: "Add or replace a place from a rules file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readRules(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			return withStore(func(_ *config.Config, s *store.Store, logger *zap.Logger) error {
				p := &store.Place{Name: args[0], Timezone: timezone, Rules: rules}
				if err := s.Put(p); err != nil {
					return err
				}
				logger.Info("Saved place", zap.String("name", p.Name), zap.Int("rules", len(rules)))
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d rules)\n", p.Name, len(rules))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&timezone, "timezone", "z", "", "IANA timezone of the place")

	return cmd
}

func placeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(cfg *config.Config, s *store.Store, _ *zap.Logger) error {
				places, err := s.List()
				if err != nil {
					return err
				}
				if len(places) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No places")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tTIMEZONE\tRULES\tUPDATED")
				for _, p := range places {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
						p.Name,
						firstNonEmpty(p.Timezone, cfg.Engine.Timezone, "Local"),
						len(p.Rules),
						humanize.Time(p.UpdatedAt))
				}
				return tw.Flush()
			})
		},
	}
}

func placeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a stored place's rules as JSON, in evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(_ *config.Config, s *store.Store, _ *zap.Logger) error {
				p, err := s.Get(args[0])
				if err != nil {
					return fmt.Errorf("place %s: %w", args[0], err)
				}

				out := struct {
					Name     string        `json:"name"`
					Timezone string        `json:"timezone,omitempty"`
					Rules    hours.RuleSet `json:"rules"`
				}{p.Name, p.Timezone, hours.Rank(p.Rules)}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}
}

func placeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a stored place",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(_ *config.Config, s *store.Store, _ *zap.Logger) error {
				if err := s.Delete(args[0]); err != nil {
					return fmt.Errorf("place %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}
