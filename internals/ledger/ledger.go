package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/phihc116/attr-backfill/internals/backfill"
	"github.com/phihc116/attr-backfill/internals/models"
	"gorm.io/gorm"
)

// SQLLedger writes an audit trail of runs and failed updates. It is never read
// back by the backfill itself.
type SQLLedger struct {
	db  *gorm.DB
	now func() time.Time
}

var _ backfill.Ledger = (*SQLLedger)(nil)

func New(db *gorm.DB) *SQLLedger {
	return &SQLLedger{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (l *SQLLedger) StartRun(ctx context.Context, run backfill.RunInfo) error {
	row := NewRunRow(run)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (l *SQLLedger) RecordFailure(ctx context.Context, runID string, outcome backfill.UpdateOutcome) error {
	row := NewFailureRow(runID, outcome, l.now())
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert failure for run %s: %w", runID, err)
	}
	return nil
}

func (l *SQLLedger) FinishRun(ctx context.Context, runID string, stats backfill.RunStats, runErr error) error {
	err := l.db.WithContext(ctx).
		Model(&models.BackfillRun{}).
		Where("id = ?", runID).
		Updates(FinishedColumns(stats, runErr, l.now())).Error
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

func NewRunRow(run backfill.RunInfo) models.BackfillRun {
	return models.BackfillRun{
		ID:               run.ID,
		SourceTable:      run.Table,
		MissingAttribute: run.MissingAttribute,
		TargetAttribute:  run.TargetAttribute,
		Status:           models.RunStatusRunning,
		StartedAt:        run.StartedAt,
	}
}

func NewFailureRow(runID string, outcome backfill.UpdateOutcome, at time.Time) models.BackfillFailure {
	return models.BackfillFailure{
		RunID:     runID,
		ItemKey:   outcome.Key.JSON(),
		ErrorCode: outcome.ErrorCode,
		Message:   outcome.ErrorMessage,
		CreatedAt: at,
	}
}

// FinishedColumns is the column set written when a run ends.
func FinishedColumns(stats backfill.RunStats, runErr error, at time.Time) map[string]any {
	cols := map[string]any{
		"status":        models.RunStatusCompleted,
		"scanned":       stats.Scanned,
		"missing_count": stats.MissingAttribute,
		"updated":       stats.Updated,
		"failed":        stats.Failed,
		"finished_at":   at,
	}
	if runErr != nil {
		cols["status"] = models.RunStatusFailed
		cols["error"] = runErr.Error()
	}
	return cols
}
