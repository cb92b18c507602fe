package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/gbiz-collector/pkg/csvfile"
	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/Sternrassler/gbiz-collector/pkg/progress"
	"github.com/Sternrassler/gbiz-collector/pkg/resume"
)

// DumpOptions configures a dump run.
type DumpOptions struct {
	Filter   hojin.FilterSpec
	Out      string
	Resume   bool
	Progress ProgressOptions
}

// DumpResult summarises a dump run.
type DumpResult struct {
	// Fetched counts every record returned upstream, including dropped ones.
	Fetched int
	Added   int
	Skipped int

	Snapshot progress.Snapshot
}

// Dump lists every corporation matching opts.Filter into opts.Out.
//
// Prefectures are paged in ascending order. Records with an invalid number,
// a number already in the output file (resume) or one already written in
// this run are dropped and counted as skipped. A failed page aborts the run
// with a *pagination.FetchError; rows written before it stay on disk.
func (c *Collector) Dump(ctx context.Context, opts DumpOptions) (res DumpResult, err error) {
	if err := opts.Filter.Validate(); err != nil {
		return res, err
	}

	done := resume.Empty()
	if opts.Resume {
		if done, err = resume.Load(opts.Out); err != nil {
			return res, fmt.Errorf("load resume set: %w", err)
		}
	}

	if !opts.Resume {
		c.warnOverwrite(opts.Out)
	}
	sink, err := csvfile.Create(opts.Out, hojin.ListHeader, opts.Resume)
	if err != nil {
		return res, err
	}
	defer func() {
		err = errors.Join(err, sink.Close())
	}()

	c.logger.Info().
		Str("out", opts.Out).
		Str("prefecture", opts.Filter.Prefecture).
		Str("corporate_type", opts.Filter.CorporateType).
		Str("exist_flg", string(opts.Filter.ExistFlag)).
		Int("limit", opts.Filter.PageSize).
		Int("max_pages", opts.Filter.MaxPages).
		Bool("resume", opts.Resume).
		Int("already_done", done.Len()).
		Msg("Dump started")

	seen := resume.NewSeen(done)
	rep := c.reporter("dump", progress.UnknownTotal, opts.Progress)

	for _, pref := range opts.Filter.Prefectures() {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("dump interrupted before prefecture %s: %w", pref, err)
		}

		prefAdded, prefTotal := 0, 0
		for page, err := range c.pager.Pages(ctx, opts.Filter, pref) {
			if err != nil {
				res.Snapshot = rep.Snapshot()
				return res, err
			}

			for _, rec := range page.Records {
				res.Fetched++
				prefTotal++

				number := strings.TrimSpace(rec.CorporateNumber)
				switch {
				case !hojin.ValidNumber(number):
					c.logger.Warn().
						Str("prefecture", pref).
						Int("page", page.Number).
						Str("corporate_number", rec.CorporateNumber).
						Msg("Dropping record with invalid corporate number")
					res.Skipped++
					rep.Record(progress.Skipped)

				case seen.Contains(number):
					res.Skipped++
					rep.Record(progress.Skipped)

				default:
					rec.CorporateNumber = number
					if err := sink.Write(rec.Row()); err != nil {
						res.Snapshot = rep.Snapshot()
						return res, err
					}
					seen.Add(number)
					res.Added++
					prefAdded++
					rep.Record(progress.Added)
				}
			}
		}

		c.logger.Info().
			Str("prefecture", pref).
			Int("added", prefAdded).
			Int("total", prefTotal).
			Msgf("pref=%s added=%d total=%d", pref, prefAdded, prefTotal)
	}

	res.Snapshot = rep.Finish()
	c.logger.Info().
		Int("rows", sink.Rows()).
		Str("out", sink.Path()).
		Msg("Dump complete")
	return res, nil
}
