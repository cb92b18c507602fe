package collector

import (
	"context"
	"fmt"

	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
)

// PipelineOptions configures a dump followed by a hydrate of its output.
type PipelineOptions struct {
	Filter    hojin.FilterSpec
	ListOut   string
	EnrichOut string
	Resume    bool
	Progress  ProgressOptions
}

// PipelineResult holds the results of both phases.
type PipelineResult struct {
	Dump    DumpResult
	Hydrate HydrateResult
}

// Pipeline dumps to opts.ListOut, then hydrates opts.ListOut into
// opts.EnrichOut. Hydrate does not start when the dump fails.
func (c *Collector) Pipeline(ctx context.Context, opts PipelineOptions) (PipelineResult, error) {
	var res PipelineResult

	dump, err := c.Dump(ctx, DumpOptions{
		Filter:   opts.Filter,
		Out:      opts.ListOut,
		Resume:   opts.Resume,
		Progress: opts.Progress,
	})
	res.Dump = dump
	if err != nil {
		return res, fmt.Errorf("pipeline dump: %w", err)
	}

	hydrate, err := c.Hydrate(ctx, HydrateOptions{
		In:       opts.ListOut,
		Out:      opts.EnrichOut,
		Resume:   opts.Resume,
		Progress: opts.Progress,
	})
	res.Hydrate = hydrate
	if err != nil {
		return res, fmt.Errorf("pipeline hydrate: %w", err)
	}
	return res, nil
}
