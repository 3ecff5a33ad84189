package database

import (
	"fmt"

	"proptracker/server/internal/models"
)

func (d *Database) RunMigrations() error {
	err := d.db.AutoMigrate(
		&models.Property{},
		&models.Assumptions{},
		&models.RentRollUnit{},
		&models.UnitType{},
		&models.ExpenseLine{},
		&models.Loan{},
		&models.MetricSnapshot{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Create spatial index on coordinates
	err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	return nil
}
