package engine

import (
	"proptracker/server/internal/finance"
	"proptracker/server/internal/models"
)

type DebtServiceResult struct {
	Monthly      float64
	Annual       float64
	CurrentDebt  float64
	InterestRate float64
	// Amortized is true when the payment was computed rather than read from
	// a loan record.
	Amortized bool
}

// CalculateDebtService resolves the monthly loan payment. A recorded payment
// is used directly together with the recorded balance; otherwise the payment
// is computed from amount, rate and term.
func CalculateDebtService(loan LoanFacts) DebtServiceResult {
	res := DebtServiceResult{
		CurrentDebt:  loan.Balance,
		InterestRate: loan.InterestRate,
	}

	switch {
	case loan.Source == DebtFromLoanRecord && loan.MonthlyPayment > 0:
		res.Monthly = loan.MonthlyPayment
	case loan.PaymentType == models.PaymentInterestOnly:
		res.Monthly = finance.InterestOnlyPayment(loan.Amount, loan.InterestRate)
		res.Amortized = true
	default:
		res.Monthly = finance.MonthlyPayment(loan.Amount, loan.InterestRate, loan.TermYears)
		res.Amortized = true
	}

	res.Annual = res.Monthly * 12
	return res
}
