package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"proptracker/server/internal/models"
)

// ErrNotFound is returned when a property does not exist.
var ErrNotFound = errors.New("property not found")

type Database struct {
	sqlDB *sql.DB
	db    *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return open(sqlDB)
}

// NewTestDB returns a migrated in-memory database. The pool is pinned to one
// connection since every sqlite :memory: connection is a separate database.
func NewTestDB() (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	d, err := open(sqlDB)
	if err != nil {
		return nil, err
	}
	if err := d.RunMigrations(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func open(sqlDB *sql.DB) (*Database, error) {
	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}
	return &Database{sqlDB: sqlDB, db: db}, nil
}

func (d *Database) Close() error {
	return d.sqlDB.Close()
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// LoadPropertyRecords reads a property together with every source record the
// calculation may use.
func (d *Database) LoadPropertyRecords(ctx context.Context, id int64) (models.PropertyRecords, error) {
	var records models.PropertyRecords
	db := d.db.WithContext(ctx)

	if err := db.First(&records.Property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return records, fmt.Errorf("property %d: %w", id, ErrNotFound)
		}
		return records, fmt.Errorf("failed to load property %d: %w", id, err)
	}

	var assumptions []models.Assumptions
	if err := db.Where("property_id = ?", id).Limit(1).Find(&assumptions).Error; err != nil {
		return records, fmt.Errorf("failed to load assumptions: %w", err)
	}
	if len(assumptions) > 0 {
		records.Assumptions = &assumptions[0]
	}

	if err := db.Where("property_id = ?", id).Order("id").Find(&records.RentRoll).Error; err != nil {
		return records, fmt.Errorf("failed to load rent roll: %w", err)
	}
	if err := db.Where("property_id = ?", id).Order("id").Find(&records.UnitTypes).Error; err != nil {
		return records, fmt.Errorf("failed to load unit types: %w", err)
	}
	if err := db.Where("property_id = ?", id).Order("id").Find(&records.Expenses).Error; err != nil {
		return records, fmt.Errorf("failed to load expenses: %w", err)
	}
	if err := db.Where("property_id = ?", id).Order("id").Find(&records.Loans).Error; err != nil {
		return records, fmt.Errorf("failed to load loans: %w", err)
	}

	return records, nil
}

func (d *Database) PropertyExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up property %d: %w", id, err)
	}
	return count > 0, nil
}

func (d *Database) ListPropertyIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := d.db.WithContext(ctx).Model(&models.Property{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return ids, nil
}

func (d *Database) ListPropertyIDsByEntity(ctx context.Context, entity string) ([]int64, error) {
	var ids []int64
	err := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("entity_name = ?", entity).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list properties of entity %q: %w", entity, err)
	}
	return ids, nil
}

// PersistRecompute writes the calculated fields back onto the property and
// appends the snapshot in a single transaction.
func (d *Database) PersistRecompute(ctx context.Context, id int64, update models.PropertyMetricsUpdate, snapshot *models.MetricSnapshot) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A map so zero values are written too.
		res := tx.Model(&models.Property{}).Where("id = ?", id).Updates(map[string]interface{}{
			"arv":                      update.ARV,
			"initial_capital_required": update.InitialCapitalRequired,
			"annual_cash_flow":         update.AnnualCashFlow,
			"cash_on_cash_return":      update.CashOnCashReturn,
			"annualized_return":        update.AnnualizedReturn,
			"last_calculated_at":       update.CalculatedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update property %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("property %d: %w", id, ErrNotFound)
		}

		snapshot.PropertyID = id
		if err := tx.Create(snapshot).Error; err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		return nil
	})
}

// ListSnapshots returns the newest snapshots of a property first. A limit of
// zero or less returns all of them.
func (d *Database) ListSnapshots(ctx context.Context, id int64, limit int) ([]models.MetricSnapshot, error) {
	var snapshots []models.MetricSnapshot
	q := d.db.WithContext(ctx).Where("property_id = ?", id).Order("calculation_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// SaveRecords inserts a property and its source records. IDs are assigned by
// the database and written back into records.
func (d *Database) SaveRecords(ctx context.Context, records *models.PropertyRecords) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := UpsertProperties(tx, []*models.Property{&records.Property}); err != nil {
			return err
		}
		id := records.Property.ID

		if records.Assumptions != nil {
			records.Assumptions.PropertyID = id
			if err := tx.Create(records.Assumptions).Error; err != nil {
				return fmt.Errorf("failed to insert assumptions: %w", err)
			}
		}
		for i := range records.RentRoll {
			records.RentRoll[i].PropertyID = id
		}
		for i := range records.UnitTypes {
			records.UnitTypes[i].PropertyID = id
		}
		for i := range records.Expenses {
			records.Expenses[i].PropertyID = id
		}
		for i := range records.Loans {
			records.Loans[i].PropertyID = id
		}

		if len(records.RentRoll) > 0 {
			if err := tx.Create(&records.RentRoll).Error; err != nil {
				return fmt.Errorf("failed to insert rent roll: %w", err)
			}
		}
		if len(records.UnitTypes) > 0 {
			if err := tx.Create(&records.UnitTypes).Error; err != nil {
				return fmt.Errorf("failed to insert unit types: %w", err)
			}
		}
		if len(records.Expenses) > 0 {
			if err := tx.Create(&records.Expenses).Error; err != nil {
				return fmt.Errorf("failed to insert expenses: %w", err)
			}
		}
		if len(records.Loans) > 0 {
			if err := tx.Create(&records.Loans).Error; err != nil {
				return fmt.Errorf("failed to insert loans: %w", err)
			}
		}
		return nil
	})
}

// UpsertProperties saves a batch of properties inside tx, inserting new rows
// and overwriting existing ones by primary key.
func UpsertProperties(tx *gorm.DB, properties []*models.Property) error {
	for _, p := range properties {
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to save property %q: %w", p.Name, err)
		}
	}
	return nil
}
