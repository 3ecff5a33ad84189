package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MetricSnapshot is one immutable row of a property's metric history, written
// on every recompute. Snapshots feed trend views only and are never read back
// into a calculation.
type MetricSnapshot struct {
	ID               string    `json:"id" gorm:"type:text;primaryKey"`
	PropertyID       int64     `json:"property_id" gorm:"index:idx_snapshot_property_date;not null"`
	CalculationDate  time.Time `json:"calculation_date" gorm:"index:idx_snapshot_property_date;not null"`
	AnnualNOI        float64   `json:"annual_noi"`
	AnnualCashFlow   float64   `json:"annual_cash_flow"`
	CapRate          float64   `json:"cap_rate"`
	CashOnCashReturn float64   `json:"cash_on_cash_return"`
	DSCR             float64   `json:"dscr"`
	ARV              float64   `json:"arv"`
	CurrentEquity    float64   `json:"current_equity"`
	Metrics          string    `json:"metrics" gorm:"type:text"` // full metric set as JSON
}

// BeforeCreate assigns a random id to new snapshots.
func (s *MetricSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// PropertyMetricsUpdate is the subset of calculated metrics written back onto
// the property row.
type PropertyMetricsUpdate struct {
	ARV                    float64
	InitialCapitalRequired float64
	AnnualCashFlow         float64
	CashOnCashReturn       float64 // percentage
	AnnualizedReturn       float64 // percentage
	CalculatedAt           time.Time
}
