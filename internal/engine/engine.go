package engine

import (
	"proptracker/server/internal/finance"
	"proptracker/server/internal/models"
)

// Metrics is the complete, internally consistent result of one calculation
// run. Ratios are decimals. It carries no timestamps and no provenance, so a
// run over written-back values compares equal to the run that wrote them.
type Metrics struct {
	GrossMonthlyRent     float64 `json:"gross_monthly_rent"`
	GrossAnnualRent      float64 `json:"gross_annual_rent"`
	VacancyLoss          float64 `json:"vacancy_loss"`
	OtherIncome          float64 `json:"other_income"`
	EffectiveGrossIncome float64 `json:"effective_gross_income"`

	AnnualOperatingExpenses  float64          `json:"annual_operating_expenses"`
	MonthlyOperatingExpenses float64          `json:"monthly_operating_expenses"`
	ManagementFee            float64          `json:"management_fee"`
	ExpenseBreakdown         ExpenseBreakdown `json:"expense_breakdown"`

	AnnualNOI  float64 `json:"annual_noi"`
	MonthlyNOI float64 `json:"monthly_noi"`

	MonthlyDebtService float64 `json:"monthly_debt_service"`
	AnnualDebtService  float64 `json:"annual_debt_service"`

	MonthlyCashFlow float64 `json:"monthly_cash_flow"`
	AnnualCashFlow  float64 `json:"annual_cash_flow"`

	CapRate          float64 `json:"cap_rate"`
	CashOnCashReturn float64 `json:"cash_on_cash_return"`
	DSCR             float64 `json:"dscr"`

	ARV             float64 `json:"arv"`
	InvestedCapital float64 `json:"invested_capital"`
	AllInCost       float64 `json:"all_in_cost"`
	CurrentDebt     float64 `json:"current_debt"`
	CurrentEquity   float64 `json:"current_equity"`
	EquityMultiple  float64 `json:"equity_multiple"`

	BreakEvenOccupancy    float64 `json:"break_even_occupancy"`
	OperatingExpenseRatio float64 `json:"operating_expense_ratio"`
	LoanToValue           float64 `json:"loan_to_value"`

	AnnualPrincipalPaydown float64 `json:"annual_principal_paydown"`
	AnnualizedReturn       float64 `json:"annualized_return"`
	ExitValue              float64 `json:"exit_value"`
	RefinanceCashOut       float64 `json:"refinance_cash_out"`

	Units int `json:"units"`
}

// Calculate runs income, expenses, NOI, debt service, cash flow, returns and
// valuation in order over f.
func Calculate(f Facts) Metrics {
	income := CalculateIncome(f.GrossMonthlyRent, f.VacancyRate, f.OtherIncome)
	expenses := CalculateExpenses(f, income.EffectiveGrossIncome)
	noi := CalculateNOI(income.EffectiveGrossIncome, expenses.Annual)
	debt := CalculateDebtService(f.Loan)
	cashFlow := CalculateCashFlow(noi, debt)
	returns := CalculateReturns(noi.Annual, cashFlow.Annual, debt.Annual, f.PurchasePrice, InvestedCapital(f))
	valuation := CalculateValuation(f, noi, debt)

	paydown := finance.PrincipalPaid(debt.CurrentDebt, debt.InterestRate, debt.Monthly, 12)

	m := Metrics{
		GrossMonthlyRent:     income.GrossMonthlyRent,
		GrossAnnualRent:      income.GrossAnnualRent,
		VacancyLoss:          income.VacancyLoss,
		OtherIncome:          income.OtherIncome,
		EffectiveGrossIncome: income.EffectiveGrossIncome,

		AnnualOperatingExpenses:  expenses.Annual,
		MonthlyOperatingExpenses: expenses.Monthly,
		ManagementFee:            expenses.ManagementFee,
		ExpenseBreakdown:         expenses.Breakdown,

		AnnualNOI:  noi.Annual,
		MonthlyNOI: noi.Monthly,

		MonthlyDebtService: debt.Monthly,
		AnnualDebtService:  debt.Annual,

		MonthlyCashFlow: cashFlow.Monthly,
		AnnualCashFlow:  cashFlow.Annual,

		CapRate:          returns.CapRate,
		CashOnCashReturn: returns.CashOnCash,
		DSCR:             returns.DSCR,

		ARV:             valuation.ARV,
		InvestedCapital: valuation.InvestedCapital,
		AllInCost:       valuation.AllInCost,
		CurrentDebt:     valuation.CurrentDebt,
		CurrentEquity:   valuation.CurrentEquity,
		EquityMultiple:  valuation.EquityMultiple,
		LoanToValue:     valuation.LoanToValue,
		ExitValue:       valuation.ExitValue,

		RefinanceCashOut:       valuation.RefinanceCashOut,
		AnnualPrincipalPaydown: paydown,
		Units:                  f.Units,
	}

	if income.GrossAnnualRent > 0 {
		m.BreakEvenOccupancy = finance.SafeDiv(expenses.Annual+debt.Annual, income.GrossAnnualRent)
	}
	if income.EffectiveGrossIncome > 0 {
		m.OperatingExpenseRatio = finance.SafeDiv(expenses.Annual, income.EffectiveGrossIncome)
	}
	if valuation.InvestedCapital > 0 {
		m.AnnualizedReturn = finance.SafeDiv(cashFlow.Annual+paydown, valuation.InvestedCapital)
	}

	return m
}

// Run gathers facts from records and calculates their metrics.
func Run(records models.PropertyRecords, defaults Defaults) (Facts, Metrics) {
	f := Gather(records, defaults)
	return f, Calculate(f)
}
