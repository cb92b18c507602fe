package main

import (
	"fmt"

	"github.com/Sternrassler/gbiz-collector/pkg/collector"
	"github.com/spf13/cobra"
)

var hydrateCmd = &cobra.Command{
	Use:   "hydrate",
	Short: "Fetch the full record for every corporate number in a list",
	Long: "Read the corporate_number column of a list CSV and write one enriched row per number. " +
		"A number whose detail cannot be fetched is logged and skipped.",
	Args: cobra.NoArgs,
	RunE: runHydrate,
}

var (
	hydrateRun runFlags
	hydrateIn  string
	hydrateOut string
)

func init() {
	hydrateRun.register(hydrateCmd.Flags())
	hydrateCmd.Flags().StringVar(&hydrateIn, "in", "gbiz_list.csv", "Input list CSV with a corporate_number column")
	hydrateCmd.Flags().StringVar(&hydrateOut, "out", "gbiz_enriched.csv", "Output enriched CSV")

	rootCmd.AddCommand(hydrateCmd)
}

func runHydrate(cmd *cobra.Command, _ []string) (err error) {
	interval, err := hydrateRun.interval()
	if err != nil {
		return err
	}
	progress, err := hydrateRun.progress()
	if err != nil {
		return err
	}

	s, err := newSession(cmd.Context(), interval)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	res, err := s.collector.Hydrate(cmd.Context(), collector.HydrateOptions{
		In:       hydrateIn,
		Out:      hydrateOut,
		Resume:   hydrateRun.resume,
		Progress: progress,
	})
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: %d rows appended -> %s (errors: %d)\n", res.Snapshot.Added, hydrateOut, res.Snapshot.Errors)
	return nil
}
