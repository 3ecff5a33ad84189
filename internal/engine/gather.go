package engine

import (
	"fmt"

	"proptracker/server/internal/finance"
	"proptracker/server/internal/models"
)

// Gather assembles the financial facts of one property from whichever sources
// are populated. It never fails: malformed or missing sources fall through to
// the next one in precedence order and finally to the defaults, leaving a
// warning in Provenance.
//
// Rates are normalized here and nowhere else.
func Gather(records models.PropertyRecords, defaults Defaults) Facts {
	p := records.Property
	a := records.Assumptions

	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	deal, err := ParseLegacyDeal(p.DealData)
	if err != nil {
		warn("legacy deal data ignored: %v", err)
		deal = nil
	}
	if a == nil {
		warn("no assumptions recorded, using defaults")
		a = &models.Assumptions{}
	}
	if deal == nil {
		deal = &LegacyDeal{}
	}

	f := Facts{
		Status:                  p.Status,
		PurchasePrice:           firstNonZero(p.PurchasePrice, deal.PurchasePrice.Float()),
		RehabCost:               firstNonZero(p.RehabCost, deal.RehabCost.Float()),
		RecordedARV:             p.ARV,
		SalePrice:               p.SalePrice,
		TotalProfit:             p.TotalProfit,
		RecordedInvestedCapital: p.InitialCapitalRequired,
	}

	f.ClosingCost = firstPositive(a.ClosingCost, deal.ClosingCost.Float(), f.PurchasePrice*defaults.ClosingCostRate)
	f.HoldingCost = firstPositive(a.HoldingCost, deal.HoldingCost.Float(), f.PurchasePrice*defaults.HoldingCostRate)

	// Vacancy and other income may legitimately be zero, so an entered
	// assumptions record is taken as-is.
	if records.Assumptions != nil {
		f.VacancyRate = finance.NormalizeRate(a.VacancyRate)
		f.OtherIncome = a.OtherIncome
	} else {
		f.VacancyRate = firstPositive(finance.NormalizeRate(deal.VacancyRate.Float()), finance.NormalizeRate(defaults.VacancyRate))
		f.OtherIncome = deal.OtherIncome.Float()
	}

	f.ExpenseRatio = firstPositive(finance.NormalizeRate(a.ExpenseRatio), finance.NormalizeRate(deal.ExpenseRatio.Float()), finance.NormalizeRate(defaults.ExpenseRatio))
	f.ManagementRate = firstPositive(finance.NormalizeRate(a.ManagementFeeRate), finance.NormalizeRate(deal.ManagementFeeRate.Float()), finance.NormalizeRate(defaults.ManagementRate))
	f.MarketCapRate = firstPositive(finance.NormalizeRate(a.MarketCapRate), finance.NormalizeRate(deal.MarketCapRate.Float()), finance.NormalizeRate(defaults.MarketCapRate))
	f.ExitCapRate = firstPositive(finance.NormalizeRate(a.ExitCapRate), finance.NormalizeRate(deal.ExitCapRate.Float()), f.MarketCapRate)

	interestRate := firstPositive(finance.NormalizeRate(a.InterestRate), finance.NormalizeRate(deal.InterestRate.Float()), finance.NormalizeRate(defaults.InterestRate))
	termYears := firstPositiveInt(a.LoanTermYears, int(deal.LoanTermYears.Float()), defaults.LoanTermYears)
	f.RefinanceLTV = firstPositive(finance.NormalizeRate(a.RefinanceLTV), finance.NormalizeRate(defaults.RefinanceLTV))
	f.RefinanceRate = firstPositive(finance.NormalizeRate(a.RefinanceRate), interestRate)

	gatherIncome(&f, records, deal, warn)
	gatherExpenses(&f, records, deal, warn)

	loanPercentage := firstPositive(finance.NormalizeRate(a.LoanPercentage), finance.NormalizeRate(deal.LoanPercentage.Float()), finance.NormalizeRate(defaults.LoanPercentage))
	gatherDebt(&f, records.Loans, loanPercentage, interestRate, termYears, warn)

	f.Units = firstPositiveInt(p.Units, len(records.RentRoll), sumUnitTypes(records.UnitTypes), len(deal.RentRoll), sumLegacyUnitTypes(deal.UnitTypes))

	f.Provenance.Warnings = warnings
	return f
}

func gatherIncome(f *Facts, records models.PropertyRecords, deal *LegacyDeal, warn func(string, ...interface{})) {
	live := false
	var rentRollTotal float64
	for _, u := range records.RentRoll {
		if u.HasLiveData() {
			live = true
		}
		rentRollTotal += u.CurrentRent
	}
	if live {
		f.GrossMonthlyRent = rentRollTotal
		f.Provenance.Income = IncomeFromRentRoll
		return
	}

	if len(records.UnitTypes) > 0 {
		var total float64
		for _, ut := range records.UnitTypes {
			total += float64(ut.Units) * ut.MarketRent
		}
		f.GrossMonthlyRent = total
		f.Provenance.Income = IncomeFromUnitTypes
		return
	}

	live = false
	var legacyTotal float64
	for _, u := range deal.RentRoll {
		if u.hasLiveData() {
			live = true
		}
		legacyTotal += u.CurrentRent.Float()
	}
	if live {
		f.GrossMonthlyRent = legacyTotal
		f.Provenance.Income = IncomeFromLegacyRentRoll
		return
	}

	if len(deal.UnitTypes) > 0 {
		var total float64
		for _, ut := range deal.UnitTypes {
			total += ut.Units.Float() * ut.MarketRent.Float()
		}
		f.GrossMonthlyRent = total
		f.Provenance.Income = IncomeFromLegacyUnitTypes
		return
	}

	warn("no rent data found, gross rent is zero")
	f.GrossMonthlyRent = 0
	f.Provenance.Income = IncomeNone
}

func gatherExpenses(f *Facts, records models.PropertyRecords, deal *LegacyDeal, warn func(string, ...interface{})) {
	if len(records.Expenses) > 0 {
		for _, e := range records.Expenses {
			f.Expenses.Add(e.Category, e.AnnualAmount)
		}
		f.ExpenseSource = ExpensesItemized
		f.Provenance.Expenses = ExpensesItemized
		return
	}

	if len(deal.Expenses) > 0 {
		for _, e := range deal.Expenses {
			f.Expenses.Add(e.Category, e.Annual())
		}
		f.ExpenseSource = ExpensesLegacy
		f.Provenance.Expenses = ExpensesLegacy
		return
	}

	warn("no expense records found, using %.0f%% expense ratio", f.ExpenseRatio*100)
	f.ExpenseSource = ExpensesRatio
	f.Provenance.Expenses = ExpensesRatio
}

func gatherDebt(f *Facts, loans []models.Loan, loanPercentage, interestRate float64, termYears int, warn func(string, ...interface{})) {
	if len(loans) > 0 {
		loan := loans[0]
		for _, l := range loans {
			if l.IsActive {
				loan = l
				break
			}
		}

		amount := firstPositive(loan.OriginalAmount, loan.CurrentBalance)
		f.Loan = LoanFacts{
			Source:         DebtFromLoanRecord,
			Amount:         amount,
			Balance:        firstPositive(loan.CurrentBalance, amount),
			MonthlyPayment: loan.MonthlyPayment,
			InterestRate:   firstPositive(finance.NormalizeRate(loan.InterestRate), interestRate),
			TermYears:      firstPositiveInt(loan.TermYears, termYears),
			PaymentType:    paymentType(loan.PaymentType),
		}
		f.Provenance.Debt = DebtFromLoanRecord
		return
	}

	warn("no loan recorded, synthesizing a %.0f%% loan", loanPercentage*100)
	principal := f.PurchasePrice * loanPercentage
	f.Loan = LoanFacts{
		Source:       DebtSynthesized,
		Amount:       principal,
		Balance:      principal,
		InterestRate: interestRate,
		TermYears:    termYears,
		PaymentType:  models.PaymentAmortizing,
	}
	f.Provenance.Debt = DebtSynthesized
}

func paymentType(t string) string {
	switch t {
	case models.PaymentInterestOnly, "interest-only", "io", "IO":
		return models.PaymentInterestOnly
	default:
		return models.PaymentAmortizing
	}
}

func sumUnitTypes(types []models.UnitType) int {
	total := 0
	for _, ut := range types {
		total += ut.Units
	}
	return total
}

func sumLegacyUnitTypes(types []LegacyUnitType) int {
	total := 0
	for _, ut := range types {
		total += int(ut.Units.Float())
	}
	return total
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveInt(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
