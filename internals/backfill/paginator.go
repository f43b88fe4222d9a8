package backfill

import (
	"context"
	"fmt"

	"github.com/phihc116/attr-backfill/internals/models"
)

const (
	DefaultFirstPageLimit int32 = 50
	DefaultPageLimit      int32 = 100
)

// Page is one scan result.
type Page struct {
	Number    int
	Items     []models.Record
	NextToken PageToken
	HasMore   bool
}

// ScanError is returned when a page could not be fetched. It aborts the run.
type ScanError struct {
	Table string
	Page  int
	Err   error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s page %d: %v", e.Table, e.Page, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Paginator drives repeated scans over one table. The first call requests
// firstLimit records without a token, every later call requests limit records
// with the token returned by the previous page.
type Paginator struct {
	store      Store
	table      string
	firstLimit int32
	limit      int32

	token PageToken
	pages int
	done  bool
}

func NewPaginator(store Store, table string, firstLimit, limit int32) *Paginator {
	if firstLimit <= 0 {
		firstLimit = DefaultFirstPageLimit
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &Paginator{store: store, table: table, firstLimit: firstLimit, limit: limit}
}

// HasMorePages reports whether Next may be called again.
func (p *Paginator) HasMorePages() bool {
	return !p.done
}

// Next fetches the next page. The item count never ends pagination: a page can
// be empty and still carry a token.
func (p *Paginator) Next(ctx context.Context) (Page, error) {
	if p.done {
		return Page{}, fmt.Errorf("scan %s: no more pages", p.table)
	}

	limit := p.limit
	if p.pages == 0 {
		limit = p.firstLimit
	}

	page, err := ScanPage(ctx, p.store, p.table, limit, p.token)
	p.pages++
	page.Number = p.pages
	if err != nil {
		return page, &ScanError{Table: p.table, Page: p.pages, Err: err}
	}

	p.token = page.NextToken
	p.done = !page.HasMore
	return page, nil
}

// ScanPage issues a single scan call. HasMore is true iff the store returned a token.
func ScanPage(ctx context.Context, store Store, table string, limit int32, token PageToken) (Page, error) {
	items, next, err := store.Scan(ctx, table, limit, token)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, NextToken: next, HasMore: len(next) > 0}, nil
}
