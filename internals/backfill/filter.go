package backfill

import "github.com/phihc116/attr-backfill/internals/models"

// SelectMissing returns, in order, the records on which attribute is absent.
// A present attribute excludes the record even when its value is NULL, empty or zero.
func SelectMissing(records []models.Record, attribute string) []models.Record {
	selected := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !r.Has(attribute) {
			selected = append(selected, r)
		}
	}
	return selected
}
