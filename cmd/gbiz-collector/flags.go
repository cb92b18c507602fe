package main

import (
	"fmt"
	"math"
	"time"

	"github.com/Sternrassler/gbiz-collector/internal/config"
	"github.com/Sternrassler/gbiz-collector/pkg/collector"
	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/Sternrassler/gbiz-collector/pkg/ratelimit"
	"github.com/spf13/pflag"
)

// filterFlags are the dump filter flags shared by dump and pipeline.
type filterFlags struct {
	pref          string
	corporateType string
	existFlag     string
	limit         int
	maxPages      int
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	def := hojin.DefaultFilterSpec()
	fs.StringVar(&f.pref, "pref", def.Prefecture, `Prefecture code 01-47, or "all"`)
	fs.StringVar(&f.corporateType, "corporate-type", def.CorporateType, "Corporate type code (301: kabushiki kaisha)")
	fs.StringVar(&f.existFlag, "exist-flg", string(def.ExistFlag), "Corporate activity filter: true, false or any")
	fs.IntVar(&f.limit, "limit", def.PageSize, fmt.Sprintf("Records per page (1-%d)", hojin.MaxPageSize))
	fs.IntVar(&f.maxPages, "max-pages", def.MaxPages, fmt.Sprintf("Page cap per prefecture (1-%d)", hojin.MaxPageCap))
}

// toFilter returns the validated filter.
func (f *filterFlags) toFilter() (hojin.FilterSpec, error) {
	filter := hojin.FilterSpec{
		Prefecture:    f.pref,
		CorporateType: f.corporateType,
		ExistFlag:     hojin.ExistFlag(f.existFlag),
		PageSize:      f.limit,
		MaxPages:      f.maxPages,
	}
	if err := filter.Validate(); err != nil {
		return hojin.FilterSpec{}, err
	}
	return filter, nil
}

// runFlags are the flags shared by every command.
type runFlags struct {
	sleep            float64
	resume           bool
	progressEvery    int
	progressInterval float64
}

func (r *runFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&r.sleep, "sleep", ratelimit.DefaultInterval.Seconds(), "Seconds between API requests")
	fs.BoolVar(&r.resume, "resume", false, "Skip corporate numbers already in the output file and append")
	fs.IntVar(&r.progressEvery, "progress-every", 50, "Log progress every N processed items (0 disables)")
	fs.Float64Var(&r.progressInterval, "progress-interval", 0, "Log progress every N seconds (0 disables)")
}

func (r *runFlags) interval() (time.Duration, error) {
	return seconds("--sleep", r.sleep)
}

func (r *runFlags) progress() (collector.ProgressOptions, error) {
	if r.progressEvery < 0 {
		return collector.ProgressOptions{}, &config.ConfigError{
			Field: "--progress-every", Value: fmt.Sprint(r.progressEvery), Reason: "must be >= 0",
		}
	}
	interval, err := seconds("--progress-interval", r.progressInterval)
	if err != nil {
		return collector.ProgressOptions{}, err
	}
	return collector.ProgressOptions{Every: r.progressEvery, Interval: interval}, nil
}

// seconds converts a non-negative flag value in seconds to a duration.
func seconds(flag string, v float64) (time.Duration, error) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &config.ConfigError{Field: flag, Value: fmt.Sprint(v), Reason: "must be a non-negative number of seconds"}
	}
	return time.Duration(v * float64(time.Second)), nil
}
