// Package engine derives a property's financial metrics from its normalized
// financial facts. Every calculator is a pure function; Gather is the only
// place that knows about raw source records, precedence and unit ambiguity.
package engine

import (
	"strings"

	"proptracker/server/internal/models"
)

// IncomeSource names the source the gross rent was taken from.
type IncomeSource string

const (
	IncomeFromRentRoll        IncomeSource = "rent_roll"
	IncomeFromUnitTypes       IncomeSource = "unit_types"
	IncomeFromLegacyRentRoll  IncomeSource = "legacy_rent_roll"
	IncomeFromLegacyUnitTypes IncomeSource = "legacy_unit_types"
	IncomeNone                IncomeSource = "none"
)

// ExpenseSource names the source of the operating expenses.
type ExpenseSource string

const (
	ExpensesItemized ExpenseSource = "itemized"
	ExpensesLegacy   ExpenseSource = "legacy"
	ExpensesRatio    ExpenseSource = "ratio"
)

// DebtSource names where the loan terms came from.
type DebtSource string

const (
	DebtFromLoanRecord DebtSource = "loan_record"
	DebtSynthesized    DebtSource = "synthesized"
)

// Defaults are the fallback values used when no source supplies a figure.
type Defaults struct {
	VacancyRate     float64
	ExpenseRatio    float64
	ManagementRate  float64
	LoanPercentage  float64
	InterestRate    float64
	LoanTermYears   int
	MarketCapRate   float64
	ClosingCostRate float64
	HoldingCostRate float64
	RefinanceLTV    float64
}

// DefaultDefaults returns the standard underwriting defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		VacancyRate:     0.05,
		ExpenseRatio:    0.45,
		ManagementRate:  0.08,
		LoanPercentage:  0.75,
		InterestRate:    0.07,
		LoanTermYears:   30,
		MarketCapRate:   0.055,
		ClosingCostRate: 0.02,
		HoldingCostRate: 0.01,
		RefinanceLTV:    0.75,
	}
}

// ExpenseBreakdown holds annual operating expenses per category.
type ExpenseBreakdown struct {
	Taxes       float64 `json:"taxes"`
	Insurance   float64 `json:"insurance"`
	Utilities   float64 `json:"utilities"`
	Maintenance float64 `json:"maintenance"`
	Management  float64 `json:"management"`
	Other       float64 `json:"other"`
}

func (b ExpenseBreakdown) Total() float64 {
	return b.Taxes + b.Insurance + b.Utilities + b.Maintenance + b.Management + b.Other
}

// Add books amount under the category that best matches the free-form name.
func (b *ExpenseBreakdown) Add(category string, amount float64) {
	switch CategorizeExpense(category) {
	case "taxes":
		b.Taxes += amount
	case "insurance":
		b.Insurance += amount
	case "utilities":
		b.Utilities += amount
	case "maintenance":
		b.Maintenance += amount
	case "management":
		b.Management += amount
	default:
		b.Other += amount
	}
}

var expenseKeywords = []struct {
	category string
	keywords []string
}{
	{"management", []string{"manag"}},
	{"taxes", []string{"tax"}},
	{"insurance", []string{"insur"}},
	{"utilities", []string{"util", "water", "electric", "gas", "sewer", "trash", "garbage"}},
	{"maintenance", []string{"maint", "repair", "capex", "landscap", "turnover"}},
}

// CategorizeExpense maps a free-form expense name onto one of taxes,
// insurance, utilities, maintenance, management or other.
func CategorizeExpense(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, group := range expenseKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(name, kw) {
				return group.category
			}
		}
	}
	return "other"
}

// Default apportioning of a ratio-based expense total.
var defaultExpenseSplit = ExpenseBreakdown{
	Taxes:       0.25,
	Insurance:   0.15,
	Utilities:   0.15,
	Maintenance: 0.25,
	Management:  0.08,
	Other:       0.12,
}

// SplitExpenses apportions total across categories using the default split.
func SplitExpenses(total float64) ExpenseBreakdown {
	return ExpenseBreakdown{
		Taxes:       total * defaultExpenseSplit.Taxes,
		Insurance:   total * defaultExpenseSplit.Insurance,
		Utilities:   total * defaultExpenseSplit.Utilities,
		Maintenance: total * defaultExpenseSplit.Maintenance,
		Management:  total * defaultExpenseSplit.Management,
		Other:       total * defaultExpenseSplit.Other,
	}
}

// LoanFacts describes the debt on a property, either read from a loan record
// or synthesized from the financing assumptions.
type LoanFacts struct {
	Source         DebtSource `json:"source"`
	Amount         float64    `json:"amount"`
	Balance        float64    `json:"balance"`
	MonthlyPayment float64    `json:"monthly_payment"` // stored payment, 0 when unknown
	InterestRate   float64    `json:"interest_rate"`
	TermYears      int        `json:"term_years"`
	PaymentType    string     `json:"payment_type"`
}

// Provenance records which source won each precedence decision, plus any
// missing-data warnings raised while gathering.
type Provenance struct {
	Income   IncomeSource  `json:"income"`
	Expenses ExpenseSource `json:"expenses"`
	Debt     DebtSource    `json:"debt"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Facts is the normalized, fully populated input of a calculation run. All
// rates are decimals.
type Facts struct {
	Status models.PropertyStatus

	PurchasePrice float64
	RehabCost     float64
	ClosingCost   float64
	HoldingCost   float64
	Units         int

	GrossMonthlyRent float64
	VacancyRate      float64
	OtherIncome      float64 // annual

	// Expenses is the annual categorized breakdown for itemized and legacy
	// sources; it is empty when ExpenseSource is ExpensesRatio.
	Expenses       ExpenseBreakdown
	ExpenseSource  ExpenseSource
	ExpenseRatio   float64
	ManagementRate float64

	Loan LoanFacts

	MarketCapRate float64
	ExitCapRate   float64
	RefinanceLTV  float64
	RefinanceRate float64

	RecordedARV             float64
	SalePrice               float64
	TotalProfit             float64
	RecordedInvestedCapital float64

	Provenance Provenance
}
