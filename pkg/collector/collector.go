// Package collector composes pagination, resume, progress and CSV output
// into the dump, hydrate and pipeline runs.
package collector

import (
	"context"
	"os"
	"time"

	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/Sternrassler/gbiz-collector/pkg/pagination"
	"github.com/Sternrassler/gbiz-collector/pkg/progress"
	"github.com/rs/zerolog"
)

// DetailFetcher fetches the enriched record for one corporate number.
type DetailFetcher interface {
	Detail(ctx context.Context, corporateNumber string) (*hojin.Detail, error)
}

// Source is the upstream API as seen by the collector. *client.Client
// satisfies it.
type Source interface {
	pagination.PageFetcher
	DetailFetcher
}

// ProgressOptions sets the snapshot cadence of a run.
type ProgressOptions struct {
	// Every emits a snapshot per N processed items; 0 disables.
	Every int

	// Interval emits a snapshot once this much time has passed; 0 disables.
	Interval time.Duration
}

// Collector runs the collection phases against one Source. Like the client
// it drives, it is used from a single flow of control.
type Collector struct {
	source Source
	pager  *pagination.Pager
	logger zerolog.Logger
	clock  func() time.Time
}

// New creates a collector.
func New(source Source, logger zerolog.Logger) *Collector {
	return &Collector{
		source: source,
		pager:  pagination.NewPager(source, logger),
		logger: logger,
		clock:  time.Now,
	}
}

// SetClock overrides the progress clock (for testing).
func (c *Collector) SetClock(clock func() time.Time) {
	c.clock = clock
}

func (c *Collector) reporter(phase string, total int, opts ProgressOptions) *progress.Reporter {
	return progress.New(progress.Config{
		Phase:    phase,
		Total:    total,
		Every:    opts.Every,
		Interval: opts.Interval,
		Clock:    c.clock,
	}, c.logger)
}

// warnOverwrite logs when a run without resume is about to truncate a
// non-empty output file.
func (c *Collector) warnOverwrite(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return
	}
	c.logger.Warn().
		Str("out", path).
		Int64("bytes", info.Size()).
		Msg("Overwriting existing output, pass --resume to append")
}
