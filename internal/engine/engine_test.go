package engine

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptracker/server/internal/models"
)

// fourplex is the reference deal: 150,000 purchase, four units at 1,100,
// 5% vacancy, 12,000 of flat expenses and a 120,000 loan at 6.5% over 30 years.
func fourplex() models.PropertyRecords {
	rentRoll := make([]models.RentRollUnit, 4)
	for i := range rentRoll {
		rentRoll[i] = models.RentRollUnit{PropertyID: 1, CurrentRent: 1100, TenantName: "tenant"}
	}
	return models.PropertyRecords{
		Property: models.Property{
			ID:            1,
			Status:        models.StatusCashflowing,
			PurchasePrice: 150000,
		},
		Assumptions: &models.Assumptions{PropertyID: 1, VacancyRate: 5},
		RentRoll:    rentRoll,
		Expenses:    []models.ExpenseLine{{PropertyID: 1, Category: "Operating", AnnualAmount: 12000}},
		Loans: []models.Loan{{
			PropertyID:     1,
			IsActive:       true,
			OriginalAmount: 120000,
			CurrentBalance: 120000,
			InterestRate:   6.5,
			TermYears:      30,
		}},
	}
}

func TestCalculate_ReferenceDeal(t *testing.T) {
	f, m := Run(fourplex(), DefaultDefaults())

	assert.Equal(t, IncomeFromRentRoll, f.Provenance.Income)
	assert.Equal(t, ExpensesItemized, f.Provenance.Expenses)
	assert.Equal(t, DebtFromLoanRecord, f.Provenance.Debt)

	assert.InDelta(t, 52800, m.GrossAnnualRent, 1e-9)
	assert.InDelta(t, 2640, m.VacancyLoss, 1e-9)
	assert.InDelta(t, 50160, m.EffectiveGrossIncome, 1e-9)

	// no management line, so 8% of EGI is added
	assert.InDelta(t, 4012.8, m.ManagementFee, 1e-9)
	assert.InDelta(t, 16012.8, m.AnnualOperatingExpenses, 1e-9)
	assert.InDelta(t, 34147.2, m.AnnualNOI, 1e-9)

	assert.InDelta(t, 758.48, m.MonthlyDebtService, 0.01)
	assert.Equal(t, m.AnnualNOI/150000, m.CapRate)
	assert.Equal(t, 4, m.Units)
}

func TestCalculate_ZeroRent(t *testing.T) {
	records := fourplex()
	for i := range records.RentRoll {
		records.RentRoll[i].CurrentRent = 0
		records.RentRoll[i].TenantName = ""
	}

	f, m := Run(records, DefaultDefaults())

	assert.Equal(t, IncomeNone, f.Provenance.Income)
	assert.Equal(t, 0.0, m.GrossAnnualRent)
	assert.Equal(t, 0.0, m.EffectiveGrossIncome)
	assert.Equal(t, 0.0, m.ManagementFee)
	assert.Equal(t, -12000.0, m.AnnualNOI)
	// negative cap rate is reported, not clamped
	assert.Equal(t, -0.08, m.CapRate)
	assert.Equal(t, 0.0, m.BreakEvenOccupancy)
	assert.Equal(t, 0.0, m.OperatingExpenseRatio)
}

func TestCalculate_SoldProperty(t *testing.T) {
	records := fourplex()
	records.Property.Status = models.StatusSold
	records.Property.SalePrice = 500000
	records.Property.TotalProfit = 120000
	records.Property.InitialCapitalRequired = 100000
	records.Property.ARV = 210000

	f, m := Run(records, DefaultDefaults())

	assert.Equal(t, 500000.0, m.ARV)
	_, source := ResolveARV(f, m.AnnualNOI)
	assert.Equal(t, ARVFromSalePrice, source)
	assert.Equal(t, 100000.0, m.InvestedCapital)
	assert.Equal(t, 1.2, m.EquityMultiple)
}

func TestCalculate_Identities(t *testing.T) {
	variants := map[string]func(*models.PropertyRecords){
		"reference": func(r *models.PropertyRecords) {},
		"no loan":   func(r *models.PropertyRecords) { r.Loans = nil },
		"no expenses": func(r *models.PropertyRecords) {
			r.Expenses = nil
		},
		"no assumptions": func(r *models.PropertyRecords) { r.Assumptions = nil },
		"underwater": func(r *models.PropertyRecords) {
			r.Expenses = append(r.Expenses, models.ExpenseLine{Category: "Repairs", AnnualAmount: 90000})
		},
		"interest only": func(r *models.PropertyRecords) { r.Loans[0].PaymentType = models.PaymentInterestOnly },
	}

	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			records := fourplex()
			mutate(&records)
			_, m := Run(records, DefaultDefaults())

			assert.Equal(t, m.EffectiveGrossIncome-m.AnnualOperatingExpenses, m.AnnualNOI)
			assert.Equal(t, m.AnnualNOI-m.AnnualDebtService, m.AnnualCashFlow)
			assert.Equal(t, m.MonthlyNOI-m.MonthlyDebtService, m.MonthlyCashFlow)
			assert.Equal(t, m.ARV-m.CurrentDebt, m.CurrentEquity)
		})
	}
}

func TestCalculate_AllZeroInputsAreFinite(t *testing.T) {
	inputs := []models.PropertyRecords{
		{},
		{Assumptions: &models.Assumptions{}},
		{Loans: []models.Loan{{}}},
		{Property: models.Property{Status: models.StatusSold}},
		{Property: models.Property{DealData: `{"rent_roll": "broken"`}},
	}

	for _, records := range inputs {
		_, m := Run(records, Defaults{})
		v := reflect.ValueOf(m)
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if field.Kind() != reflect.Float64 {
				continue
			}
			x := field.Float()
			require.False(t, math.IsNaN(x) || math.IsInf(x, 0), "field %s is %v", v.Type().Field(i).Name, x)
		}
		b := reflect.ValueOf(m.ExpenseBreakdown)
		for i := 0; i < b.NumField(); i++ {
			x := b.Field(i).Float()
			require.False(t, math.IsNaN(x) || math.IsInf(x, 0))
		}
	}
}

func TestCalculate_RentIncreaseIsMonotonic(t *testing.T) {
	base := fourplex()
	_, before := Run(base, DefaultDefaults())

	for _, bump := range []float64{1, 50, 500, 5000} {
		records := fourplex()
		records.RentRoll[2].CurrentRent += bump
		_, after := Run(records, DefaultDefaults())

		assert.GreaterOrEqual(t, after.EffectiveGrossIncome, before.EffectiveGrossIncome)
		assert.GreaterOrEqual(t, after.AnnualNOI, before.AnnualNOI)
		assert.GreaterOrEqual(t, after.CapRate, before.CapRate)
		assert.GreaterOrEqual(t, after.CashOnCashReturn, before.CashOnCashReturn)
	}
}

func TestCalculate_FixedExpenseIncreaseIsMonotonic(t *testing.T) {
	_, before := Run(fourplex(), DefaultDefaults())

	for _, bump := range []float64{1, 100, 10000} {
		records := fourplex()
		records.Expenses[0].AnnualAmount += bump
		_, after := Run(records, DefaultDefaults())

		assert.LessOrEqual(t, after.AnnualNOI, before.AnnualNOI)
		assert.LessOrEqual(t, after.CapRate, before.CapRate)
	}
}

func TestCalculate_PercentAndDecimalRatesAgree(t *testing.T) {
	percent := fourplex()
	percent.Assumptions.VacancyRate = 5

	decimal := fourplex()
	decimal.Assumptions.VacancyRate = 0.05

	_, a := Run(percent, DefaultDefaults())
	_, b := Run(decimal, DefaultDefaults())
	assert.Equal(t, a.AnnualNOI, b.AnnualNOI)

	percent.Loans[0].InterestRate = 6.5
	decimal.Loans[0].InterestRate = 0.065
	_, a = Run(percent, DefaultDefaults())
	_, b = Run(decimal, DefaultDefaults())
	assert.Equal(t, a.MonthlyDebtService, b.MonthlyDebtService)
}

func TestCalculate_IsDeterministic(t *testing.T) {
	_, first := Run(fourplex(), DefaultDefaults())
	_, second := Run(fourplex(), DefaultDefaults())
	assert.Equal(t, first, second)
}
