package backfill_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phihc116/attr-backfill/internals/backfill"
	"github.com/phihc116/attr-backfill/internals/models"
)

const testTable = "resources"

var errScan = errors.New("connection reset")

// fakeStore is an in-memory table keyed by "id". Its page tokens carry an offset.
type fakeStore struct {
	mu sync.Mutex

	items []models.Record

	// emptyPages makes the first n scans return no items and a token that does not advance.
	emptyPages int
	// failScanAt fails the n-th scan call (1-based).
	failScanAt int
	failUpdate map[string]error

	limits         []int32
	receivedTokens []backfill.PageToken
	returnedTokens []backfill.PageToken
	updateKeys     []models.Record
}

func newFakeStore(items ...models.Record) *fakeStore {
	return &fakeStore{items: items, failUpdate: map[string]error{}}
}

func (f *fakeStore) Scan(_ context.Context, table string, limit int32, token backfill.PageToken) ([]models.Record, backfill.PageToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.limits = append(f.limits, limit)
	f.receivedTokens = append(f.receivedTokens, token)
	call := len(f.limits)

	if table != testTable {
		return nil, nil, fmt.Errorf("table %s not found", table)
	}
	if call == f.failScanAt {
		return nil, nil, errScan
	}

	start := 0
	if token != nil {
		n, err := strconv.Atoi(token["offset"].(*types.AttributeValueMemberN).Value)
		if err != nil {
			return nil, nil, err
		}
		start = n
	}

	if call <= f.emptyPages {
		next := offsetToken(start)
		f.returnedTokens = append(f.returnedTokens, next)
		return nil, next, nil
	}

	end := min(start+int(limit), len(f.items))
	page := make([]models.Record, 0, end-start)
	for _, it := range f.items[start:end] {
		page = append(page, copyRecord(it))
	}

	var next backfill.PageToken
	if end < len(f.items) {
		next = offsetToken(end)
	}
	f.returnedTokens = append(f.returnedTokens, next)
	return page, next, nil
}

func (f *fakeStore) Update(_ context.Context, table string, key models.Record, attribute string, value any) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateKeys = append(f.updateKeys, key)

	id, ok := key.GetString("id")
	if !ok {
		return nil, errors.New("ValidationException: key schema mismatch")
	}
	if err := f.failUpdate[id]; err != nil {
		return nil, err
	}
	for _, it := range f.items {
		if got, _ := it.GetString("id"); got == id {
			it[attribute] = &types.AttributeValueMemberS{Value: value.(string)}
			return copyRecord(it), nil
		}
	}
	return nil, fmt.Errorf("item %s not found", id)
}

func (f *fakeStore) scanCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.limits)
}

func offsetToken(n int) backfill.PageToken {
	return backfill.PageToken{"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(n)}}
}

func copyRecord(r models.Record) models.Record {
	out := make(models.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// resource builds a record whose arn carries a valid owner id.
func resource(id string) models.Record {
	return models.Record{
		"id":  &types.AttributeValueMemberS{Value: id},
		"arn": &types.AttributeValueMemberS{Value: "arn:aws:service:us-west-2:886436930021:resource/" + id},
	}
}

func resources(n int) []models.Record {
	out := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, resource(fmt.Sprintf("r-%03d", i)))
	}
	return out
}
