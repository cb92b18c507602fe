package pagination

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/rs/zerolog"
)

// PageFetcher fetches a single page of list records.
type PageFetcher interface {
	FetchPage(ctx context.Context, filter hojin.FilterSpec, prefecture string, page int) ([]hojin.Record, error)
}

// Page is one page of search results.
type Page struct {
	Prefecture string
	Number     int
	Records    []hojin.Record
	// Last is true when no further page will be requested.
	Last bool
}

// FetchError reports the page that could not be retrieved.
type FetchError struct {
	Prefecture string
	Page       int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch prefecture %s page %d: %v", e.Prefecture, e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Pager produces pages lazily from a PageFetcher.
type Pager struct {
	fetcher PageFetcher
	logger  zerolog.Logger
}

// NewPager creates a pager.
func NewPager(fetcher PageFetcher, logger zerolog.Logger) *Pager {
	return &Pager{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Pages returns the page sequence for one prefecture. The sequence ends
// after a short page, after filter.MaxPages pages, or after yielding a
// *FetchError.
func (p *Pager) Pages(ctx context.Context, filter hojin.FilterSpec, prefecture string) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		start := time.Now()
		fetched := 0

		for n := 1; n <= filter.MaxPages; n++ {
			records, err := p.fetcher.FetchPage(ctx, filter, prefecture, n)
			if err != nil {
				p.logger.Warn().
					Err(err).
					Str("prefecture", prefecture).
					Int("page", n).
					Msg("Page fetch failed")
				yield(Page{Prefecture: prefecture, Number: n}, &FetchError{Prefecture: prefecture, Page: n, Err: err})
				return
			}
			fetched += len(records)

			page := Page{
				Prefecture: prefecture,
				Number:     n,
				Records:    records,
				Last:       len(records) < filter.PageSize || n == filter.MaxPages,
			}

			p.logger.Debug().
				Str("prefecture", prefecture).
				Int("page", n).
				Int("records", len(records)).
				Bool("last", page.Last).
				Msg("Page fetched")

			if page.Last && len(records) == filter.PageSize {
				p.logger.Warn().
					Str("prefecture", prefecture).
					Int("max_pages", filter.MaxPages).
					Msg("Page cap reached; further records for this prefecture are not listed")
			}

			if !yield(page, nil) || page.Last {
				p.logger.Info().
					Str("prefecture", prefecture).
					Int("pages", n).
					Int("records", fetched).
					Dur("duration", time.Since(start)).
					Msg("Fetch complete")
				return
			}
		}
	}
}
