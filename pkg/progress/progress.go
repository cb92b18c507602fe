// Package progress tracks per-item outcomes of a collector run and emits
// throughput snapshots on a count cadence, a time cadence, or both.
package progress

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// UnknownTotal marks a run whose item count is not known in advance.
const UnknownTotal = -1

var recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gbiz_records_total",
	Help: "Total records processed by phase and outcome",
}, []string{"phase", "outcome"})

// Outcome is the result of processing one item.
type Outcome int

const (
	// Added means a row was written.
	Added Outcome = iota
	// Skipped means the item needed no work (already present, duplicate).
	Skipped
	// Failed means the item was dropped after an error.
	Failed
)

// String returns the metric label of the outcome.
func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config controls when snapshots are emitted.
type Config struct {
	// Phase labels the log line, e.g. "dump" or "hydrate".
	Phase string

	// Total is the expected item count, or UnknownTotal.
	Total int

	// Every emits a snapshot each time processed is a multiple of it; 0 disables.
	Every int

	// Interval emits a snapshot once this much time passed since the last
	// one; 0 disables.
	Interval time.Duration

	// Clock overrides time.Now (for testing).
	Clock func() time.Time
}

// Reporter is the cadence state machine. It is not safe for concurrent use.
type Reporter struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	start      time.Time
	lastReport time.Time

	processed int
	added     int
	skipped   int
	failed    int
}

// New starts a reporter; the run clock starts now.
func New(cfg Config, logger zerolog.Logger) *Reporter {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	if cfg.Every < 0 {
		cfg.Every = 0
	}
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}

	start := now()
	return &Reporter{
		cfg:        cfg,
		logger:     logger,
		now:        now,
		start:      start,
		lastReport: start,
	}
}

// Record counts one processed item and emits a snapshot when either trigger
// fires. It returns the snapshot and whether it was emitted.
func (r *Reporter) Record(o Outcome) (Snapshot, bool) {
	r.processed++
	switch o {
	case Added:
		r.added++
	case Skipped:
		r.skipped++
	case Failed:
		r.failed++
	}
	recordsTotal.WithLabelValues(r.cfg.Phase, o.String()).Inc()

	now := r.now()
	byCount := r.cfg.Every > 0 && r.processed%r.cfg.Every == 0
	byTime := r.cfg.Interval > 0 && now.Sub(r.lastReport) >= r.cfg.Interval
	if !byCount && !byTime {
		return Snapshot{}, false
	}

	snap := r.snapshotAt(now)
	r.lastReport = now
	r.emit(snap, "Progress")
	return snap, true
}

// Snapshot returns the current counters without emitting.
func (r *Reporter) Snapshot() Snapshot {
	return r.snapshotAt(r.now())
}

// Finish emits and returns the final snapshot.
func (r *Reporter) Finish() Snapshot {
	snap := r.Snapshot()
	r.emit(snap, "Finished")
	return snap
}

func (r *Reporter) snapshotAt(now time.Time) Snapshot {
	return Snapshot{
		Phase:     r.cfg.Phase,
		Processed: r.processed,
		Total:     r.cfg.Total,
		Added:     r.added,
		Skipped:   r.skipped,
		Errors:    r.failed,
		Elapsed:   now.Sub(r.start),
	}
}

func (r *Reporter) emit(s Snapshot, event string) {
	ev := r.logger.Info().
		Str("phase", s.Phase).
		Str("event", event).
		Int("processed", s.Processed).
		Int("added", s.Added).
		Int("skipped", s.Skipped).
		Int("errors", s.Errors).
		Float64("rate", s.Rate()).
		Dur("elapsed", s.Elapsed)
	if s.Total != UnknownTotal {
		ev = ev.Int("total", s.Total)
	}
	if eta, ok := s.ETA(); ok {
		ev = ev.Dur("eta", eta)
	}
	ev.Msg(s.String())
}

// Snapshot is a point-in-time view of a run.
type Snapshot struct {
	Phase     string
	Processed int
	Total     int
	Added     int
	Skipped   int
	Errors    int
	Elapsed   time.Duration
}

// Rate returns processed items per second over the whole run.
func (s Snapshot) Rate() float64 {
	elapsed := max(s.Elapsed.Seconds(), 1e-6)
	return float64(s.Processed) / elapsed
}

// Percent returns completion in percent; ok is false when the total is unknown.
func (s Snapshot) Percent() (float64, bool) {
	if s.Total == UnknownTotal {
		return 0, false
	}
	if s.Total == 0 {
		return 100, true
	}
	return float64(s.Processed) / float64(s.Total) * 100, true
}

// ETA returns the remaining time at the current rate; ok is false when the
// total is unknown.
func (s Snapshot) ETA() (time.Duration, bool) {
	if s.Total == UnknownTotal {
		return 0, false
	}
	remain := max(s.Total-s.Processed, 0)
	rate := s.Rate()
	if remain == 0 || rate <= 0 {
		return 0, true
	}
	return time.Duration(float64(remain) / rate * float64(time.Second)), true
}

// String renders the snapshot as a single progress line.
func (s Snapshot) String() string {
	total, pct, eta := "?", "    ?", "?"
	if p, ok := s.Percent(); ok {
		total = fmt.Sprint(s.Total)
		pct = fmt.Sprintf("%5.1f", p)
	}
	if d, ok := s.ETA(); ok {
		eta = FormatHMS(d)
	}
	return fmt.Sprintf("[%s] %d/%s (%s%%) added=%d skipped=%d err=%d rate=%5.1f/s ETA=%s elapsed=%s",
		s.Phase, s.Processed, total, pct, s.Added, s.Skipped, s.Errors, s.Rate(), eta, FormatHMS(s.Elapsed))
}

// FormatHMS renders d as h:mm:ss, truncated to whole seconds.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h, rem := secs/3600, secs%3600
	return fmt.Sprintf("%d:%02d:%02d", h, rem/60, rem%60)
}
