package backfill

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phihc116/attr-backfill/internals/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Settings is fixed for the lifetime of one run.
type Settings struct {
	Table            string
	MissingAttribute string
	TargetAttribute  string
	KeyAttributes    []string
	FirstPageLimit   int32
	PageLimit        int32
	// Concurrency bounds parallel updates within one page. Values below 2 keep
	// updates strictly sequential.
	Concurrency int
}

// Metrics receives per-page counters.
type Metrics interface {
	Count(name string, value float64, tags []string) error
}

// RunInfo describes a run for the ledger.
type RunInfo struct {
	ID               string
	Table            string
	MissingAttribute string
	TargetAttribute  string
	StartedAt        time.Time
}

// Ledger keeps an audit trail of runs. Its errors never affect the run.
type Ledger interface {
	StartRun(ctx context.Context, run RunInfo) error
	RecordFailure(ctx context.Context, runID string, outcome UpdateOutcome) error
	FinishRun(ctx context.Context, runID string, stats RunStats, runErr error) error
}

type Option func(*Runner)

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithLedger(l Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// Runner ties the pipeline together: scan a page, select records missing the
// attribute, update each of them, tally, and move to the next page until the
// store stops returning a token.
type Runner struct {
	store    Store
	settings Settings
	updater  *Updater

	logger  zerolog.Logger
	metrics Metrics
	ledger  Ledger
	runID   string
}

func NewRunner(store Store, settings Settings, deriver Deriver, opts ...Option) *Runner {
	if settings.TargetAttribute == "" {
		settings.TargetAttribute = settings.MissingAttribute
	}
	r := &Runner{
		store:    store,
		settings: settings,
		updater:  NewUpdater(store, settings.Table, settings.TargetAttribute, settings.KeyAttributes, deriver),
		logger:   zerolog.Nop(),
		runID:    uuid.NewString(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RunID identifies this run in logs and in the ledger.
func (r *Runner) RunID() string { return r.runID }

// Run processes the whole table. A scan failure aborts the run and is returned
// together with the counts reached so far; update failures are only counted.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	log := r.logger.With().
		Str("run_id", r.runID).
		Str("table", r.settings.Table).
		Str("attribute", r.settings.TargetAttribute).
		Logger()

	stats := &statsAccumulator{}
	r.startLedger(ctx, log)
	log.Info().
		Str("missing_attribute", r.settings.MissingAttribute).
		Strs("key_attributes", r.settings.KeyAttributes).
		Int("concurrency", r.settings.Concurrency).
		Msg("backfill started")

	pager := NewPaginator(r.store, r.settings.Table, r.settings.FirstPageLimit, r.settings.PageLimit)
	for pager.HasMorePages() {
		page, err := pager.Next(ctx)
		if err != nil {
			final := stats.snapshot()
			log.Error().Err(err).Int("page", page.Number).Object("stats", final).Msg("scan failed, aborting run")
			r.finishLedger(ctx, log, final, err)
			return final, err
		}
		r.processPage(ctx, log, page, stats)
	}

	final := stats.snapshot()
	log.Info().Object("stats", final).Msg("backfill completed")
	r.finishLedger(ctx, log, final, nil)
	return final, nil
}

func (r *Runner) processPage(ctx context.Context, log zerolog.Logger, page Page, stats *statsAccumulator) {
	stats.addScanned(len(page.Items))
	selected := SelectMissing(page.Items, r.settings.MissingAttribute)
	stats.addMissing(len(selected))

	outcomes := r.updateAll(ctx, selected)

	var updated, failed int
	for _, o := range outcomes {
		stats.addOutcome(o)
		if o.Success {
			updated++
			log.Info().RawJSON("key", []byte(o.Key.JSON())).Str("value", o.Value).Msg("updated")
			continue
		}
		failed++
		log.Warn().
			RawJSON("key", []byte(o.Key.JSON())).
			Str("code", o.ErrorCode).
			Str("error", o.ErrorMessage).
			Msg("update failed")
		if r.ledger != nil {
			if err := r.ledger.RecordFailure(ctx, r.runID, o); err != nil {
				log.Warn().Err(err).Msg("ledger: record failure")
			}
		}
	}

	log.Info().
		Int("page", page.Number).
		Int("scanned", len(page.Items)).
		Int("missing", len(selected)).
		Int("updated", updated).
		Int("failed", failed).
		Bool("has_more", page.HasMore).
		Msg("page processed")

	r.count("backfill.scanned", len(page.Items))
	r.count("backfill.missing", len(selected))
	r.count("backfill.updated", updated)
	r.count("backfill.failed", failed)
}

// updateAll keeps outcomes in selection order. Updates run in parallel only
// when Concurrency > 1, and one failure never cancels its siblings.
func (r *Runner) updateAll(ctx context.Context, selected []models.Record) []UpdateOutcome {
	outcomes := make([]UpdateOutcome, len(selected))
	if r.settings.Concurrency < 2 || len(selected) < 2 {
		for i, rec := range selected {
			outcomes[i] = r.updater.Apply(ctx, rec)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(r.settings.Concurrency)
	for i, rec := range selected {
		g.Go(func() error {
			outcomes[i] = r.updater.Apply(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (r *Runner) count(name string, n int) {
	if r.metrics == nil || n == 0 {
		return
	}
	tags := []string{"table:" + r.settings.Table, "attribute:" + r.settings.TargetAttribute}
	if err := r.metrics.Count(name, float64(n), tags); err != nil {
		r.logger.Debug().Err(err).Str("metric", name).Msg("metrics: count")
	}
}

func (r *Runner) startLedger(ctx context.Context, log zerolog.Logger) {
	if r.ledger == nil {
		return
	}
	err := r.ledger.StartRun(ctx, RunInfo{
		ID:               r.runID,
		Table:            r.settings.Table,
		MissingAttribute: r.settings.MissingAttribute,
		TargetAttribute:  r.settings.TargetAttribute,
		StartedAt:        time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("ledger: start run")
	}
}

func (r *Runner) finishLedger(ctx context.Context, log zerolog.Logger, stats RunStats, runErr error) {
	if r.ledger == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := r.ledger.FinishRun(ctx, r.runID, stats, runErr); err != nil {
		log.Warn().Err(err).Msg("ledger: finish run")
	}
}
