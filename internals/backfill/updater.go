package backfill

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/phihc116/attr-backfill/internals/models"
)

// Error codes attached to failed outcomes. API errors keep the code reported by the store.
const (
	CodeMalformedIdentifier = "MalformedIdentifier"
	CodeTransportFailure    = "TransportFailure"
)

// UpdateOutcome is the result of one update attempt. Failures are carried
// here and never returned as errors.
type UpdateOutcome struct {
	Key           models.Record
	Value         string
	Success       bool
	UpdatedRecord models.Record
	Err           error
	ErrorCode     string
	ErrorMessage  string
}

func failedOutcome(key models.Record, value string, err error) UpdateOutcome {
	return UpdateOutcome{
		Key:          key,
		Value:        value,
		Err:          err,
		ErrorCode:    ErrorCode(err),
		ErrorMessage: err.Error(),
	}
}

// ApplyUpdate sets target to value on the record identified by keyAttributes.
// It issues exactly one store write and does not touch any other attribute.
func ApplyUpdate(ctx context.Context, store Store, table string, record models.Record, target, value string, keyAttributes []string) UpdateOutcome {
	key := ExtractKey(record, keyAttributes)

	updated, err := store.Update(ctx, table, key, target, value)
	if err != nil {
		return failedOutcome(key, value, fmt.Errorf("update %s: %w", key.JSON(), err))
	}
	return UpdateOutcome{Key: key, Value: value, Success: true, UpdatedRecord: updated}
}

// Updater derives and writes the target attribute for selected records.
type Updater struct {
	store         Store
	table         string
	target        string
	keyAttributes []string
	deriver       Deriver
}

func NewUpdater(store Store, table, target string, keyAttributes []string, deriver Deriver) *Updater {
	return &Updater{
		store:         store,
		table:         table,
		target:        target,
		keyAttributes: keyAttributes,
		deriver:       deriver,
	}
}

// Apply derives the value for record and writes it. A derivation failure
// yields a failed outcome without any write.
func (u *Updater) Apply(ctx context.Context, record models.Record) UpdateOutcome {
	value, err := u.deriver.Derive(record)
	if err != nil {
		return failedOutcome(ExtractKey(record, u.keyAttributes), "", err)
	}
	return ApplyUpdate(ctx, u.store, u.table, record, u.target, value, u.keyAttributes)
}

// ErrorCode classifies an update failure for logs and the run ledger.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMalformedIdentifier) {
		return CodeMalformedIdentifier
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		return apiErr.ErrorCode()
	}
	return CodeTransportFailure
}
