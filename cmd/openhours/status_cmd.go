package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openhours/openhours/internal/api"
	"github.com/openhours/openhours/internal/hours"
	"github.com/openhours/openhours/internal/schema"
	"github.com/openhours/openhours/internal/status"
)

func statusCmd() *cobra.Command {
	var (
		place    string
		at       string
		timezone string
		asJSON   bool
		relative bool
	)

	cmd := &cobra.Command{
		Use:   "status [FILE]",
		Short: "Show whether a place is open and when that changes",
		Long: `Evaluate opening-hours rules at an instant (default: now).

Rules come from FILE (JSON, JSONC or YAML; "-" reads JSON from stdin)
or from a stored place given with --place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (place != "") {
				return fmt.Errorf("give either a rules file or --place")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := setupLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			var (
				rules  hours.RuleSet
				zone   string
				target string
			)
			if place != "" {
				s, err := openStore(cfg, logger)
				if err != nil {
					return err
				}
				defer s.Close()
				p, err := s.Get(place)
				if err != nil {
					return fmt.Errorf("place %s: %w", place, err)
				}
				rules, zone, target = p.Rules, p.Timezone, p.Name
			} else {
				rules, err = readRules(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
			}
			zone = firstNonEmpty(timezone, zone, cfg.Engine.Timezone)

			when := wallClock.Now()
			if at != "" {
				when, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: want RFC3339", at)
				}
			}

			state, err := newEvaluator(cfg, logger).Evaluate(rules, hours.Query{At: when, Timezone: zone})
			if err != nil {
				return err
			}
			loc, err := hours.LoadLocation(zone)
			if err != nil {
				return err
			}
			logger.Debug("Evaluated",
				zap.String("place", target),
				zap.String("timezone", loc.String()),
				zap.Bool("open", state.IsOpen))

			out := cmd.OutOrStdout()
			if asJSON {
				return writeStateJSON(out, target, loc, when, state)
			}

			line := status.Format(state, when, loc)
			if relative {
				if rel := status.Relative(state, when); rel != "" {
					line += " (" + rel + ")"
				}
			}
			fmt.Fprintln(out, line)
			return nil
		},
	}

	cmd.Flags().StringVarP(&place, "place", "p", "", "stored place to evaluate")
	cmd.Flags().StringVar(&at, "at", "", "instant to evaluate, RFC3339 (default: now)")
	cmd.Flags().StringVarP(&timezone, "timezone", "z", "", "IANA timezone (default: place or config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVarP(&relative, "relative", "r", false, "append relative time to the next change")

	return cmd
}

// readRules loads rules from path, or JSON from stdin when path is "-".
func readRules(stdin io.Reader, path string) (hours.RuleSet, error) {
	if path != "-" {
		return schema.ReadFile(path)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return schema.Parse(data)
}

func writeStateJSON(w io.Writer, place string, loc *time.Location, at time.Time, state hours.State) error {
	resp := api.StateResponse{
		Place:    place,
		Timezone: loc.String(),
		At:       at.In(loc),
		IsOpen:   state.IsOpen,
		Status:   status.Format(state, at, loc),
		Relative: status.Relative(state, at),
	}
	if state.OpensAt != nil {
		t := state.OpensAt.In(loc)
		resp.OpensAt = &t
	}
	if state.ClosesAt != nil {
		t := state.ClosesAt.In(loc)
		resp.ClosesAt = &t
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
