package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptracker/server/internal/models"
)

func TestGather_IncomePrecedence(t *testing.T) {
	lease := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	legacy := `{
		"rent_roll": [{"unit": "A", "current_rent": "$900"}, {"unit": "B", "current_rent": "1,000"}],
		"unit_types": [{"name": "2br", "units": 2, "market_rent": 800}]
	}`
	legacyTypesOnly := `{"unit_types": [{"name": "2br", "units": "3", "market_rent": "$750"}]}`

	tests := []struct {
		name     string
		records  models.PropertyRecords
		expected float64
		source   IncomeSource
	}{
		{
			name: "rent roll with tenants",
			records: models.PropertyRecords{
				RentRoll:  []models.RentRollUnit{{CurrentRent: 1000, TenantName: "A"}, {CurrentRent: 0, LeaseStart: &lease}},
				UnitTypes: []models.UnitType{{Units: 10, MarketRent: 500}},
			},
			expected: 1000,
			source:   IncomeFromRentRoll,
		},
		{
			name: "empty rent roll falls to unit types",
			records: models.PropertyRecords{
				RentRoll:  []models.RentRollUnit{{UnitLabel: "1"}, {UnitLabel: "2"}},
				UnitTypes: []models.UnitType{{Units: 2, MarketRent: 950}, {Units: 1, MarketRent: 1200}},
			},
			expected: 3100,
			source:   IncomeFromUnitTypes,
		},
		{
			name:     "legacy rent roll",
			records:  models.PropertyRecords{Property: models.Property{DealData: legacy}},
			expected: 1900,
			source:   IncomeFromLegacyRentRoll,
		},
		{
			name:     "legacy unit types",
			records:  models.PropertyRecords{Property: models.Property{DealData: legacyTypesOnly}},
			expected: 2250,
			source:   IncomeFromLegacyUnitTypes,
		},
		{
			name:     "nothing",
			records:  models.PropertyRecords{},
			expected: 0,
			source:   IncomeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Gather(tt.records, DefaultDefaults())
			assert.Equal(t, tt.expected, f.GrossMonthlyRent)
			assert.Equal(t, tt.source, f.Provenance.Income)
		})
	}
}

func TestGather_ItemizedExpensesAreCategorized(t *testing.T) {
	f := Gather(models.PropertyRecords{
		Expenses: []models.ExpenseLine{
			{Category: "Property Tax", AnnualAmount: 3000},
			{Category: "Insurance", AnnualAmount: 1200},
			{Category: "Water/Sewer", AnnualAmount: 800},
			{Category: "Electric", AnnualAmount: 400},
			{Category: "Repairs", AnnualAmount: 1500},
			{Category: "Property Management", AnnualAmount: 2000},
			{Category: "Accounting", AnnualAmount: 300},
		},
	}, DefaultDefaults())

	assert.Equal(t, ExpensesItemized, f.ExpenseSource)
	assert.Equal(t, ExpenseBreakdown{
		Taxes:       3000,
		Insurance:   1200,
		Utilities:   1200,
		Maintenance: 1500,
		Management:  2000,
		Other:       300,
	}, f.Expenses)
}

func TestGather_LegacyExpensesAreAnnualized(t *testing.T) {
	f := Gather(models.PropertyRecords{Property: models.Property{DealData: `{
		"expenses": [
			{"category": "taxes", "amount": "$250"},
			{"category": "insurance", "amount": 1200, "frequency": "annual"},
			{"category": "lawn care", "amount": 100, "frequency": "quarterly"}
		]
	}`}}, DefaultDefaults())

	assert.Equal(t, ExpensesLegacy, f.ExpenseSource)
	assert.Equal(t, 3000.0, f.Expenses.Taxes)
	assert.Equal(t, 1200.0, f.Expenses.Insurance)
	assert.Equal(t, 400.0, f.Expenses.Other)
}

func TestGather_ExpenseRatioFallback(t *testing.T) {
	f := Gather(models.PropertyRecords{
		RentRoll: []models.RentRollUnit{{CurrentRent: 1000}},
	}, DefaultDefaults())

	require.Equal(t, ExpensesRatio, f.ExpenseSource)
	assert.Equal(t, 0.45, f.ExpenseRatio)
	assert.Equal(t, ExpenseBreakdown{}, f.Expenses)

	income := CalculateIncome(f.GrossMonthlyRent, f.VacancyRate, f.OtherIncome)
	expenses := CalculateExpenses(f, income.EffectiveGrossIncome)

	total := income.EffectiveGrossIncome * 0.45
	assert.InDelta(t, total, expenses.Annual, 1e-6)
	assert.InDelta(t, total*0.25, expenses.Breakdown.Taxes, 1e-6)
	assert.InDelta(t, total*0.08, expenses.Breakdown.Management, 1e-6)
	// the split already carries management, no extra fee
	assert.Equal(t, 0.0, expenses.ManagementFee)
}

func TestGather_DebtPrecedence(t *testing.T) {
	t.Run("active loan wins", func(t *testing.T) {
		f := Gather(models.PropertyRecords{Loans: []models.Loan{
			{OriginalAmount: 50000, MonthlyPayment: 300},
			{OriginalAmount: 90000, CurrentBalance: 85000, MonthlyPayment: 600, IsActive: true, InterestRate: 5},
		}}, DefaultDefaults())

		assert.Equal(t, DebtFromLoanRecord, f.Loan.Source)
		assert.Equal(t, 90000.0, f.Loan.Amount)
		assert.Equal(t, 85000.0, f.Loan.Balance)
		assert.Equal(t, 600.0, f.Loan.MonthlyPayment)
		assert.Equal(t, 0.05, f.Loan.InterestRate)
	})

	t.Run("first loan when none is active", func(t *testing.T) {
		f := Gather(models.PropertyRecords{Loans: []models.Loan{
			{OriginalAmount: 50000},
			{OriginalAmount: 70000},
		}}, DefaultDefaults())

		assert.Equal(t, 50000.0, f.Loan.Amount)
		assert.Equal(t, 50000.0, f.Loan.Balance)
		assert.Equal(t, 0.07, f.Loan.InterestRate)
		assert.Equal(t, 30, f.Loan.TermYears)
	})

	t.Run("synthesized loan", func(t *testing.T) {
		f := Gather(models.PropertyRecords{
			Property: models.Property{PurchasePrice: 200000},
		}, DefaultDefaults())

		assert.Equal(t, DebtSynthesized, f.Loan.Source)
		assert.Equal(t, 150000.0, f.Loan.Amount)
		assert.Equal(t, 0.07, f.Loan.InterestRate)
		assert.Equal(t, 30, f.Loan.TermYears)
		assert.NotEmpty(t, f.Provenance.Warnings)
	})

	t.Run("assumptions size the synthesized loan", func(t *testing.T) {
		f := Gather(models.PropertyRecords{
			Property:    models.Property{PurchasePrice: 200000},
			Assumptions: &models.Assumptions{LoanPercentage: 80, InterestRate: 6, LoanTermYears: 15},
		}, DefaultDefaults())

		assert.Equal(t, 160000.0, f.Loan.Amount)
		assert.Equal(t, 0.06, f.Loan.InterestRate)
		assert.Equal(t, 15, f.Loan.TermYears)
	})
}

func TestGather_LegacyBlob(t *testing.T) {
	t.Run("malformed blob is ignored", func(t *testing.T) {
		f := Gather(models.PropertyRecords{Property: models.Property{
			PurchasePrice: 100000,
			DealData:      `{"purchase_price": 1, "rent_roll": [`,
		}}, DefaultDefaults())

		assert.Equal(t, 100000.0, f.PurchasePrice)
		assert.Equal(t, IncomeNone, f.Provenance.Income)
		assert.Contains(t, f.Provenance.Warnings[0], "legacy deal data ignored")
	})

	t.Run("newer versions are ignored", func(t *testing.T) {
		_, err := ParseLegacyDeal(`{"version": 2}`)
		assert.ErrorIs(t, err, ErrUnsupportedLegacyVersion)
	})

	t.Run("fills missing core fields", func(t *testing.T) {
		f := Gather(models.PropertyRecords{Property: models.Property{
			DealData: `{"purchase_price": "$180,000", "rehab_cost": "20000", "vacancy_rate": "8%", "market_cap_rate": 6}`,
		}}, DefaultDefaults())

		assert.Equal(t, 180000.0, f.PurchasePrice)
		assert.Equal(t, 20000.0, f.RehabCost)
		assert.Equal(t, 0.08, f.VacancyRate)
		assert.Equal(t, 0.06, f.MarketCapRate)
	})

	t.Run("empty blob", func(t *testing.T) {
		deal, err := ParseLegacyDeal("  ")
		assert.NoError(t, err)
		assert.Nil(t, deal)
	})
}

func TestGather_Defaults(t *testing.T) {
	f := Gather(models.PropertyRecords{Property: models.Property{PurchasePrice: 100000}}, DefaultDefaults())

	assert.Equal(t, 0.05, f.VacancyRate)
	assert.Equal(t, 0.08, f.ManagementRate)
	assert.Equal(t, 0.055, f.MarketCapRate)
	assert.Equal(t, 0.055, f.ExitCapRate)
	assert.Equal(t, 2000.0, f.ClosingCost)
	assert.Equal(t, 1000.0, f.HoldingCost)
	assert.Equal(t, 0.75, f.RefinanceLTV)
	assert.Equal(t, 0.07, f.RefinanceRate)
}

func TestGather_EnteredZeroVacancyIsKept(t *testing.T) {
	f := Gather(models.PropertyRecords{Assumptions: &models.Assumptions{VacancyRate: 0}}, DefaultDefaults())
	assert.Equal(t, 0.0, f.VacancyRate)
}

func TestGather_FullVacancyBoundary(t *testing.T) {
	// exactly 1 means 100%, anything above 1 is a percentage
	f := Gather(models.PropertyRecords{Assumptions: &models.Assumptions{VacancyRate: 1}}, DefaultDefaults())
	assert.Equal(t, 1.0, f.VacancyRate)

	f = Gather(models.PropertyRecords{Assumptions: &models.Assumptions{VacancyRate: 2}}, DefaultDefaults())
	assert.Equal(t, 0.02, f.VacancyRate)
}

func TestGather_RatesStayInUnitInterval(t *testing.T) {
	records := models.PropertyRecords{
		Property: models.Property{PurchasePrice: 400000},
		Assumptions: &models.Assumptions{
			VacancyRate:       -5,
			ExpenseRatio:      250,
			ManagementFeeRate: -0.08,
			InterestRate:      -7,
		},
		UnitTypes: []models.UnitType{{Units: 4, MarketRent: 1100}},
	}

	f := Gather(records, DefaultDefaults())
	for name, rate := range map[string]float64{
		"vacancy":    f.VacancyRate,
		"expense":    f.ExpenseRatio,
		"management": f.ManagementRate,
		"interest":   f.Loan.InterestRate,
	} {
		assert.GreaterOrEqual(t, rate, 0.0, name)
		assert.LessOrEqual(t, rate, 1.0, name)
	}
	assert.Equal(t, 0.0, f.VacancyRate)
	assert.Equal(t, 1.0, f.ExpenseRatio)

	// a negative vacancy never inflates income
	income := CalculateIncome(f.GrossMonthlyRent, f.VacancyRate, f.OtherIncome)
	assert.Equal(t, 52800.0, income.EffectiveGrossIncome)
}

func TestCategorizeExpense(t *testing.T) {
	assert.Equal(t, "taxes", CategorizeExpense("County TAXES"))
	assert.Equal(t, "management", CategorizeExpense("Management fee"))
	assert.Equal(t, "utilities", CategorizeExpense("Trash"))
	assert.Equal(t, "maintenance", CategorizeExpense("General maintenance"))
	assert.Equal(t, "other", CategorizeExpense("HOA"))
}
