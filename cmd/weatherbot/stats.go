package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"weatherbot/internal/domain"
	"weatherbot/internal/usage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var (
		since    time.Duration
		top      int
		recent   int
		pruneAge time.Duration
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show provider usage from the local usage log",
		Long:  "Reads the SQLite usage log written when usage.enabled is true. Shows call counts per gateway and outcome, and the most requested cities.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Usage.Enabled {
				return errors.New("usage log is disabled (set usage.enabled or WEATHERBOT_USAGE_DB)")
			}

			store, err := usage.NewSQLiteStore(cfg.Usage.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			if pruneAge > 0 {
				n, err := store.Prune(ctx, time.Now().Add(-pruneAge))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d call(s) older than %s\n\n", n, pruneAge)
			}

			from := time.Now().Add(-since)
			summary, err := store.Summary(ctx, from)
			if err != nil {
				return err
			}
			cities, err := store.TopCities(ctx, from, top)
			if err != nil {
				return err
			}
			var rc []domain.GatewayCall
			if recent > 0 {
				if rc, err = store.Recent(ctx, recent); err != nil {
					return err
				}
			}

			if asJSON {
				calls := make([]usageCall, 0, len(rc))
				for _, c := range rc {
					calls = append(calls, usageCall{
						At:       c.At.Format(time.RFC3339),
						Kind:     c.Kind,
						City:     c.City,
						Outcome:  string(c.Outcome),
						Duration: c.Duration.String(),
						Detail:   c.Detail,
					})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"since":     from.Format(time.RFC3339),
					"summary":   summary,
					"topCities": cities,
					"recent":    calls,
				})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Since %s\n\n", from.Format(time.RFC3339))
			fmt.Fprintln(w, "KIND\tOUTCOME\tCALLS\tAVG")
			for _, s := range summary {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Kind, s.Outcome, s.Count, s.AvgDuration)
			}
			fmt.Fprintln(w, "\nCITY\tCALLS")
			for _, c := range cities {
				fmt.Fprintf(w, "%s\t%d\n", c.City, c.Count)
			}
			if len(rc) > 0 {
				fmt.Fprintln(w, "\nWHEN\tKIND\tCITY\tOUTCOME\tDURATION")
				for _, c := range rc {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						humanize.Time(c.At), c.Kind, c.City, c.Outcome, c.Duration.Round(time.Millisecond))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "reporting window")
	cmd.Flags().IntVar(&top, "top", 10, "number of cities to list")
	cmd.Flags().IntVar(&recent, "recent", 0, "also list the N most recent calls")
	cmd.Flags().DurationVar(&pruneAge, "prune", 0, "delete calls older than this before reporting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

type usageCall struct {
	At       string `json:"at"`
	Kind     string `json:"kind"`
	City     string `json:"city"`
	Outcome  string `json:"outcome"`
	Duration string `json:"duration"`
	Detail   string `json:"detail,omitempty"`
}
