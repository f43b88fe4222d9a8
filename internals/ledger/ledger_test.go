package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phihc116/attr-backfill/internals/backfill"
	"github.com/phihc116/attr-backfill/internals/models"
	"github.com/stretchr/testify/assert"
)

func TestNewRunRow(t *testing.T) {
	started := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	row := NewRunRow(backfill.RunInfo{
		ID:               "run-1",
		Table:            "resources",
		MissingAttribute: "OwnerId",
		TargetAttribute:  "OwnerId",
		StartedAt:        started,
	})

	assert.Equal(t, "run-1", row.ID)
	assert.Equal(t, "resources", row.SourceTable)
	assert.Equal(t, models.RunStatusRunning, row.Status)
	assert.Equal(t, started, row.StartedAt)
	assert.Nil(t, row.FinishedAt)
}

func TestNewFailureRow(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 5, 0, 0, time.UTC)
	outcome := backfill.UpdateOutcome{
		Key:          models.Record{"id": &types.AttributeValueMemberS{Value: "r-1"}},
		ErrorCode:    "ValidationException",
		ErrorMessage: "The provided key element does not match the schema",
	}

	row := NewFailureRow("run-1", outcome, at)
	assert.Equal(t, "run-1", row.RunID)
	assert.JSONEq(t, `{"id":"r-1"}`, row.ItemKey)
	assert.Equal(t, "ValidationException", row.ErrorCode)
	assert.Equal(t, outcome.ErrorMessage, row.Message)
	assert.Equal(t, at, row.CreatedAt)
}

func TestFinishedColumns(t *testing.T) {
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	stats := backfill.RunStats{Scanned: 230, MissingAttribute: 12, Updated: 11, Failed: 1}

	cols := FinishedColumns(stats, nil, at)
	assert.Equal(t, models.RunStatusCompleted, cols["status"])
	assert.Equal(t, int64(230), cols["scanned"])
	assert.Equal(t, int64(12), cols["missing_count"])
	assert.Equal(t, int64(11), cols["updated"])
	assert.Equal(t, int64(1), cols["failed"])
	assert.Equal(t, at, cols["finished_at"])
	assert.NotContains(t, cols, "error")

	cols = FinishedColumns(stats, errors.New("scan resources page 2: timeout"), at)
	assert.Equal(t, models.RunStatusFailed, cols["status"])
	assert.Equal(t, "scan resources page 2: timeout", cols["error"])
}
