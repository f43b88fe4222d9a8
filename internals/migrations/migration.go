package migrations

import (
	"github.com/phihc116/attr-backfill/internals/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.BackfillRun{},
		&models.BackfillFailure{},
	)
}
