package main

import (
	"fmt"

	"github.com/Sternrassler/gbiz-collector/pkg/collector"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "List corporate numbers and names matching a filter",
	Long:  "Page through the gBizINFO search endpoint for each selected prefecture and write corporate_number,name rows.",
	Args:  cobra.NoArgs,
	RunE:  runDump,
}

var (
	dumpFilter filterFlags
	dumpRun    runFlags
	dumpOut    string
)

func init() {
	dumpFilter.register(dumpCmd.Flags())
	dumpRun.register(dumpCmd.Flags())
	dumpCmd.Flags().StringVar(&dumpOut, "out", "gbiz_list.csv", "Output list CSV")

	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, _ []string) (err error) {
	filter, err := dumpFilter.toFilter()
	if err != nil {
		return err
	}
	interval, err := dumpRun.interval()
	if err != nil {
		return err
	}
	progress, err := dumpRun.progress()
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

	res, err := s.collector.Dump(cmd.Context(), collector.DumpOptions{
		Filter:   filter,
		Out:      dumpOut,
		Resume:   dumpRun.resume,
		Progress: progress,
	})
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: %d rows appended -> %s\n", res.Added, dumpOut)
	return nil
}
