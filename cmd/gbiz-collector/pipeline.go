package main

import (
	"fmt"

	"github.com/Sternrassler/gbiz-collector/pkg/collector"
	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run dump, then hydrate its output",
	Args:  cobra.NoArgs,
	RunE:  runPipeline,
}

var (
	pipelineFilter    filterFlags
	pipelineRun       runFlags
	pipelineListOut   string
	pipelineEnrichOut string
)

func init() {
	pipelineFilter.register(pipelineCmd.Flags())
	pipelineRun.register(pipelineCmd.Flags())
	pipelineCmd.Flags().StringVar(&pipelineListOut, "list-out", "gbiz_list.csv", "Output list CSV (hydrate input)")
	pipelineCmd.Flags().StringVar(&pipelineEnrichOut, "enrich-out", "gbiz_enriched.csv", "Output enriched CSV")

	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) (err error) {
	filter, err := pipelineFilter.toFilter()
	if err != nil {
		return err
	}
	interval, err := pipelineRun.interval()
	if err != nil {
		return err
	}
	progress, err := pipelineRun.progress()
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

	res, err := s.collector.Pipeline(cmd.Context(), collector.PipelineOptions{
		Filter:    filter,
		ListOut:   pipelineListOut,
		EnrichOut: pipelineEnrichOut,
		Resume:    pipelineRun.resume,
		Progress:  progress,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "OK: %d rows appended -> %s\n", res.Dump.Added, pipelineListOut)
	fmt.Fprintf(out, "OK: %d rows appended -> %s (errors: %d)\n", res.Hydrate.Snapshot.Added, pipelineEnrichOut, res.Hydrate.Snapshot.Errors)
	return nil
}
