// Package backfill scans a table page by page, selects records missing an
// attribute, derives a value for each one and writes it back.
package backfill

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phihc116/attr-backfill/internals/models"
)

// PageToken is the store's continuation marker. It is handed back unmodified;
// an empty token means there are no more pages.
type PageToken map[string]types.AttributeValue

// Store is the table collaborator the pipeline drives.
type Store interface {
	// Scan returns up to limit records starting after token (nil for the first page).
	Scan(ctx context.Context, table string, limit int32, token PageToken) ([]models.Record, PageToken, error)
	// Update unconditionally sets attribute to value on the item identified by key.
	Update(ctx context.Context, table string, key models.Record, attribute string, value any) (models.Record, error)
}
