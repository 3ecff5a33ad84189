package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"proptracker/server/internal/finance"
)

// LegacyDealVersion is the newest deal blob layout this package understands.
// Blobs written before versioning carry no version and are read as version 1.
const LegacyDealVersion = 1

var ErrUnsupportedLegacyVersion = errors.New("unsupported legacy deal version")

// LegacyDeal is the typed view of the free-form deal blob kept on older
// properties. Numeric fields accept numbers or currency strings.
type LegacyDeal struct {
	Version           int                  `json:"version"`
	PurchasePrice     finance.Amount       `json:"purchase_price"`
	RehabCost         finance.Amount       `json:"rehab_cost"`
	ClosingCost       finance.Amount       `json:"closing_cost"`
	HoldingCost       finance.Amount       `json:"holding_cost"`
	VacancyRate       finance.Amount       `json:"vacancy_rate"`
	OtherIncome       finance.Amount       `json:"other_income"` // annual
	ExpenseRatio      finance.Amount       `json:"expense_ratio"`
	ManagementFeeRate finance.Amount       `json:"management_fee_rate"`
	LoanPercentage    finance.Amount       `json:"loan_percentage"`
	InterestRate      finance.Amount       `json:"interest_rate"`
	LoanTermYears     finance.Amount       `json:"loan_term_years"`
	MarketCapRate     finance.Amount       `json:"market_cap_rate"`
	ExitCapRate       finance.Amount       `json:"exit_cap_rate"`
	RentRoll          []LegacyRentRollUnit `json:"rent_roll"`
	UnitTypes         []LegacyUnitType     `json:"unit_types"`
	Expenses          []LegacyExpense      `json:"expenses"`
}

type LegacyRentRollUnit struct {
	Unit        string         `json:"unit"`
	CurrentRent finance.Amount `json:"current_rent"`
	MarketRent  finance.Amount `json:"market_rent"`
	Tenant      string         `json:"tenant"`
	LeaseStart  string         `json:"lease_start"`
	LeaseEnd    string         `json:"lease_end"`
}

func (u LegacyRentRollUnit) hasLiveData() bool {
	return u.Tenant != "" || u.LeaseStart != "" || u.LeaseEnd != "" || u.CurrentRent != 0
}

type LegacyUnitType struct {
	Name       string         `json:"name"`
	Units      finance.Amount `json:"units"`
	MarketRent finance.Amount `json:"market_rent"`
}

type LegacyExpense struct {
	Category  string         `json:"category"`
	Amount    finance.Amount `json:"amount"`
	Frequency string         `json:"frequency"` // monthly (default), quarterly, annual
}

// Annual returns the expense converted to a yearly amount.
func (e LegacyExpense) Annual() float64 {
	switch strings.ToLower(strings.TrimSpace(e.Frequency)) {
	case "annual", "annually", "yearly", "year":
		return e.Amount.Float()
	case "quarterly", "quarter":
		return e.Amount.Float() * 4
	default:
		return e.Amount.Float() * 12
	}
}

// ParseLegacyDeal decodes a deal blob. An empty blob yields nil without error.
func ParseLegacyDeal(raw string) (*LegacyDeal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var deal LegacyDeal
	if err := json.Unmarshal([]byte(raw), &deal); err != nil {
		return nil, fmt.Errorf("failed to parse legacy deal: %w", err)
	}
	if deal.Version == 0 {
		deal.Version = LegacyDealVersion
	}
	if deal.Version < 0 || deal.Version > LegacyDealVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedLegacyVersion, deal.Version)
	}
	return &deal, nil
}
