package models

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Record is one schema-less table item. An attribute that is missing from the
// map is absent; an attribute holding AttributeValueMemberNULL is present.
type Record map[string]types.AttributeValue

// Has reports whether name is a key of the record, whatever its value.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// GetString returns the attribute as a string when it is stored as a DynamoDB string.
func (r Record) GetString(name string) (string, bool) {
	av, ok := r[name]
	if !ok {
		return "", false
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// Plain converts the record into plain Go values for logs and audit rows.
func (r Record) Plain() (map[string]any, error) {
	out := map[string]any{}
	if err := attributevalue.UnmarshalMap(r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// JSON renders the record as a JSON object. Unconvertible records fall back to "{}".
func (r Record) JSON() string {
	plain, err := r.Plain()
	if err != nil {
		return "{}"
	}
	b, err := json.Marshal(plain)
	if err != nil {
		return "{}"
	}
	return string(b)
}
