package backfill

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// RunStats is the final tally of a run.
type RunStats struct {
	Scanned          int64 `json:"scanned"`
	MissingAttribute int64 `json:"missingAttribute"`
	Updated          int64 `json:"updated"`
	Failed           int64 `json:"failed"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (s RunStats) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("scanned", s.Scanned).
		Int64("missing_attribute", s.MissingAttribute).
		Int64("updated", s.Updated).
		Int64("failed", s.Failed)
}

// statsAccumulator only grows during a run. Counters are atomic so that
// concurrent updates within a page may record outcomes directly.
type statsAccumulator struct {
	scanned atomic.Int64
	missing atomic.Int64
	updated atomic.Int64
	failed  atomic.Int64
}

func (a *statsAccumulator) addScanned(n int) { a.scanned.Add(int64(n)) }
func (a *statsAccumulator) addMissing(n int) { a.missing.Add(int64(n)) }

func (a *statsAccumulator) addOutcome(o UpdateOutcome) {
	if o.Success {
		a.updated.Add(1)
		return
	}
	a.failed.Add(1)
}

func (a *statsAccumulator) snapshot() RunStats {
	return RunStats{
		Scanned:          a.scanned.Load(),
		MissingAttribute: a.missing.Load(),
		Updated:          a.updated.Load(),
		Failed:           a.failed.Load(),
	}
}
