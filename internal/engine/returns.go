package engine

import "proptracker/server/internal/finance"

type CashFlowResult struct {
	Monthly float64
	Annual  float64
}

func CalculateCashFlow(noi NOIResult, debt DebtServiceResult) CashFlowResult {
	return CashFlowResult{
		Monthly: noi.Monthly - debt.Monthly,
		Annual:  noi.Annual - debt.Annual,
	}
}

// ReturnsResult holds yield ratios as decimals; 0.09 means 9%.
type ReturnsResult struct {
	CapRate    float64
	CashOnCash float64
	DSCR       float64
}

// CalculateReturns computes cap rate, cash-on-cash return and DSCR. Each ratio
// is 0 when its denominator is not positive.
func CalculateReturns(annualNOI, annualCashFlow, annualDebtService, purchasePrice, investedCapital float64) ReturnsResult {
	var res ReturnsResult
	if purchasePrice > 0 {
		res.CapRate = finance.SafeDiv(annualNOI, purchasePrice)
	}
	if investedCapital > 0 {
		res.CashOnCash = finance.SafeDiv(annualCashFlow, investedCapital)
	}
	if annualDebtService > 0 {
		res.DSCR = finance.SafeDiv(annualNOI, annualDebtService)
	}
	return res
}
