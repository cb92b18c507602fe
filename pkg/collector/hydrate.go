package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/gbiz-collector/pkg/csvfile"
	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/Sternrassler/gbiz-collector/pkg/progress"
	"github.com/Sternrassler/gbiz-collector/pkg/resume"
)

// HydrateOptions configures a hydrate run.
type HydrateOptions struct {
	In       string
	Out      string
	Resume   bool
	Progress ProgressOptions
}

// HydrateResult summarises a hydrate run.
type HydrateResult struct {
	Snapshot progress.Snapshot

	// Failed lists the corporate numbers that could not be enriched.
	Failed []string
}

// Hydrate fetches the detail of every corporate number in opts.In and writes
// it to opts.Out.
//
// The input is read fully first; its row count is the progress total. Each
// number is processed in input order. A failed detail fetch is logged as a
// *DetailFetchError, counted and skipped. I/O failures, cancellation, a
// rejected token and MaxNetworkFailures consecutive transport failures end
// the run early with an error.
func (c *Collector) Hydrate(ctx context.Context, opts HydrateOptions) (res HydrateResult, err error) {
	numbers, err := csvfile.ReadColumn(opts.In, resume.KeyColumn)
	if err != nil {
		return res, fmt.Errorf("read hydrate input: %w", err)
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
	sink, err := csvfile.Create(opts.Out, hojin.DetailHeader, opts.Resume)
	if err != nil {
		return res, err
	}
	defer func() {
		err = errors.Join(err, sink.Close())
	}()

	c.logger.Info().
		Str("in", opts.In).
		Str("out", opts.Out).
		Int("total", len(numbers)).
		Bool("resume", opts.Resume).
		Int("already_done", done.Len()).
		Msgf("Hydrate %s: %d rows, resume=%t, already done=%d", opts.In, len(numbers), opts.Resume, done.Len())

	seen := resume.NewSeen(done)
	rep := c.reporter("hydrate", len(numbers), opts.Progress)
	netFailures := 0

	for _, number := range numbers {
		if err := ctx.Err(); err != nil {
			res.Snapshot = rep.Snapshot()
			return res, fmt.Errorf("hydrate interrupted before %s: %w", number, err)
		}

		if seen.Contains(number) {
			rep.Record(progress.Skipped)
			continue
		}

		d, err := c.fetch(ctx, number)
		if err != nil {
			if ctx.Err() != nil {
				res.Snapshot = rep.Snapshot()
				return res, fmt.Errorf("hydrate interrupted at %s: %w", number, ctx.Err())
			}
			c.logger.Warn().
				Err(err).
				Str("corporate_number", number).
				Msg("Detail fetch failed, skipping")
			res.Failed = append(res.Failed, number)
			rep.Record(progress.Failed)

			if rejectedToken(err) {
				res.Snapshot = rep.Snapshot()
				return res, fmt.Errorf("hydrate aborted, token rejected: %w", err)
			}
			if !networkFailure(err) {
				netFailures = 0
				continue
			}
			netFailures++
			if netFailures >= MaxNetworkFailures {
				res.Snapshot = rep.Snapshot()
				return res, fmt.Errorf("hydrate aborted after %d network failures: %w: %w", netFailures, ErrNetworkDown, err)
			}
			continue
		}
		netFailures = 0

		if err := sink.Write(d.Row()); err != nil {
			res.Snapshot = rep.Snapshot()
			return res, err
		}
		seen.Add(number)
		rep.Record(progress.Added)
	}

	res.Snapshot = rep.Finish()
	c.logger.Info().
		Int("rows", sink.Rows()).
		Str("out", sink.Path()).
		Msg("Hydrate complete")
	return res, nil
}

// fetch returns the detail for number as a *DetailFetchError on failure.
func (c *Collector) fetch(ctx context.Context, number string) (*hojin.Detail, error) {
	if !hojin.ValidNumber(number) {
		return nil, &DetailFetchError{CorporateNumber: number, Err: ErrInvalidNumber}
	}
	d, err := c.source.Detail(ctx, number)
	if err != nil {
		return nil, &DetailFetchError{CorporateNumber: number, Err: err}
	}
	return d, nil
}
