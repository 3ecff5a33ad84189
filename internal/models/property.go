package models

import "time"

// PropertyStatus is the lifecycle state of a property. Transitions are owned by
// the storage layer; the calculation engine only reads the current state.
type PropertyStatus string

const (
	StatusUnderContract PropertyStatus = "Under Contract"
	StatusRehabbing     PropertyStatus = "Rehabbing"
	StatusCashflowing   PropertyStatus = "Cashflowing"
	StatusSold          PropertyStatus = "Sold"
)

// IsSold reports whether the property reached its terminal state.
func (s PropertyStatus) IsSold() bool {
	return s == StatusSold
}

type Property struct {
	ID                     int64          `json:"id" gorm:"primaryKey"`
	Name                   string         `json:"name"`
	EntityName             string         `json:"entity_name" gorm:"index"`
	Status                 PropertyStatus `json:"status"`
	Units                  int            `json:"units"`
	PurchasePrice          float64        `json:"purchase_price"`
	RehabCost              float64        `json:"rehab_cost"`
	ARV                    float64        `json:"arv"`
	SalePrice              float64        `json:"sale_price"`
	TotalProfit            float64        `json:"total_profit"`
	InitialCapitalRequired float64        `json:"initial_capital_required"`
	AnnualCashFlow         float64        `json:"annual_cash_flow"`
	CashOnCashReturn       float64        `json:"cash_on_cash_return"` // percentage
	AnnualizedReturn       float64        `json:"annualized_return"`   // percentage
	Latitude               *float64       `json:"latitude"`
	Longitude              *float64       `json:"longitude"`
	DealData               string         `json:"-"` // legacy free-form deal blob (JSON)
	LastCalculatedAt       *time.Time     `json:"last_calculated_at"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// Assumptions are the manually entered underwriting inputs of a property.
// Rates may be stored either as decimals or as percentages.
type Assumptions struct {
	ID                int64   `json:"id" gorm:"primaryKey"`
	PropertyID        int64   `json:"property_id" gorm:"uniqueIndex"`
	VacancyRate       float64 `json:"vacancy_rate"`
	OtherIncome       float64 `json:"other_income"` // annual
	ExpenseRatio      float64 `json:"expense_ratio"`
	ManagementFeeRate float64 `json:"management_fee_rate"`
	LoanPercentage    float64 `json:"loan_percentage"`
	InterestRate      float64 `json:"interest_rate"`
	LoanTermYears     int     `json:"loan_term_years"`
	MarketCapRate     float64 `json:"market_cap_rate"`
	ExitCapRate       float64 `json:"exit_cap_rate"`
	RefinanceLTV      float64 `json:"refinance_ltv"`
	RefinanceRate     float64 `json:"refinance_rate"`
	ClosingCost       float64 `json:"closing_cost"`
	HoldingCost       float64 `json:"holding_cost"`
}

type RentRollUnit struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	PropertyID  int64      `json:"property_id" gorm:"index"`
	UnitLabel   string     `json:"unit_label"`
	CurrentRent float64    `json:"current_rent"` // monthly
	MarketRent  float64    `json:"market_rent"`  // monthly
	TenantName  string     `json:"tenant_name"`
	LeaseStart  *time.Time `json:"lease_start"`
	LeaseEnd    *time.Time `json:"lease_end"`
}

// HasLiveData reports whether the unit carries tenant, lease or rent data.
func (u RentRollUnit) HasLiveData() bool {
	return u.TenantName != "" || u.LeaseStart != nil || u.LeaseEnd != nil || u.CurrentRent != 0
}

// UnitType is a catalogue entry describing a group of identical units.
type UnitType struct {
	ID         int64   `json:"id" gorm:"primaryKey"`
	PropertyID int64   `json:"property_id" gorm:"index"`
	Name       string  `json:"name"`
	Units      int     `json:"units"`
	MarketRent float64 `json:"market_rent"` // monthly, per unit
}

type ExpenseLine struct {
	ID           int64   `json:"id" gorm:"primaryKey"`
	PropertyID   int64   `json:"property_id" gorm:"index"`
	Category     string  `json:"category"`
	AnnualAmount float64 `json:"annual_amount"`
}

// PaymentType values for Loan.PaymentType.
const (
	PaymentAmortizing   = "amortizing"
	PaymentInterestOnly = "interest_only"
)

type Loan struct {
	ID             int64   `json:"id" gorm:"primaryKey"`
	PropertyID     int64   `json:"property_id" gorm:"index"`
	Lender         string  `json:"lender"`
	IsActive       bool    `json:"is_active"`
	OriginalAmount float64 `json:"original_amount"`
	CurrentBalance float64 `json:"current_balance"`
	MonthlyPayment float64 `json:"monthly_payment"`
	InterestRate   float64 `json:"interest_rate"`
	TermYears      int     `json:"term_years"`
	PaymentType    string  `json:"payment_type"`
}

// PropertyRecords bundles every stored source a calculation may draw from.
// Assumptions is nil when none were entered.
type PropertyRecords struct {
	Property    Property
	Assumptions *Assumptions
	RentRoll    []RentRollUnit
	UnitTypes   []UnitType
	Expenses    []ExpenseLine
	Loans       []Loan
}
