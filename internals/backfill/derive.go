package backfill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phihc116/attr-backfill/internals/models"
)

var ErrMalformedIdentifier = errors.New("malformed identifier")

const (
	identifierSegments = 6
	ownerIDSegment     = 4
	ownerIDLength      = 12
)

// Deriver computes the value written to a selected record.
type Deriver interface {
	Derive(record models.Record) (string, error)
}

type DeriverFunc func(record models.Record) (string, error)

func (f DeriverFunc) Derive(record models.Record) (string, error) { return f(record) }

// OwnerIDDeriver reads a structured identifier such as
// arn:aws:service:region:123456789012:resource from SourceAttribute and
// returns its owner id segment.
type OwnerIDDeriver struct {
	SourceAttribute string
}

func (d OwnerIDDeriver) Derive(record models.Record) (string, error) {
	if !record.Has(d.SourceAttribute) {
		return "", fmt.Errorf("%w: attribute %q is missing", ErrMalformedIdentifier, d.SourceAttribute)
	}
	identifier, ok := record.GetString(d.SourceAttribute)
	if !ok {
		return "", fmt.Errorf("%w: attribute %q is not a string", ErrMalformedIdentifier, d.SourceAttribute)
	}
	return DeriveOwnerID(identifier)
}

// DeriveOwnerID returns segment 4 of a colon-delimited identifier. The segment
// must be exactly 12 ASCII digits and is returned unchanged.
func DeriveOwnerID(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrMalformedIdentifier)
	}

	parts := strings.Split(identifier, ":")
	if len(parts) < identifierSegments {
		return "", fmt.Errorf("%w: %q has %d segments, want at least %d",
			ErrMalformedIdentifier, identifier, len(parts), identifierSegments)
	}

	owner := parts[ownerIDSegment]
	if owner == "" {
		return "", fmt.Errorf("%w: %q has an empty owner id", ErrMalformedIdentifier, identifier)
	}
	if !isDigits(owner, ownerIDLength) {
		return "", fmt.Errorf("%w: owner id %q in %q is not %d digits",
			ErrMalformedIdentifier, owner, identifier, ownerIDLength)
	}
	return owner, nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
