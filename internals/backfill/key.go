package backfill

import "github.com/phihc116/attr-backfill/internals/models"

// ExtractKey copies the named key attributes from the record. Names absent on
// the record are skipped; matching the table's real key schema is up to the caller.
func ExtractKey(record models.Record, keyAttributes []string) models.Record {
	key := make(models.Record, len(keyAttributes))
	for _, name := range keyAttributes {
		if av, ok := record[name]; ok {
			key[name] = av
		}
	}
	return key
}
