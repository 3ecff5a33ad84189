package engine

import (
	"math"

	"proptracker/server/internal/finance"
)

// ARVSource names the rule that produced a property's ARV.
type ARVSource string

const (
	ARVFromSalePrice     ARVSource = "sale_price"
	ARVFromRecorded      ARVSource = "recorded"
	ARVFromCapRate       ARVSource = "cap_rate"
	ARVFromPurchasePrice ARVSource = "purchase_price"
)

type ValuationResult struct {
	ARV              float64
	ARVSource        ARVSource
	InvestedCapital  float64
	AllInCost        float64
	CurrentDebt      float64
	CurrentEquity    float64
	EquityMultiple   float64
	LoanToValue      float64
	ExitValue        float64
	RefinanceCashOut float64
}

// ResolveARV picks the after-repair value: the sale price of a sold property,
// then a recorded ARV, then NOI capitalized at the market cap rate, then the
// purchase price.
func ResolveARV(f Facts, annualNOI float64) (float64, ARVSource) {
	if f.Status.IsSold() && f.SalePrice > 0 {
		return f.SalePrice, ARVFromSalePrice
	}
	if f.RecordedARV > 0 {
		return f.RecordedARV, ARVFromRecorded
	}
	if annualNOI > 0 && f.MarketCapRate > 0 {
		if v := finance.SafeDiv(annualNOI, f.MarketCapRate); v > 0 {
			return v, ARVFromCapRate
		}
	}
	return f.PurchasePrice, ARVFromPurchasePrice
}

// InvestedCapital returns the recorded initial capital, or the down payment
// plus closing costs when none was recorded.
func InvestedCapital(f Facts) float64 {
	if f.RecordedInvestedCapital > 0 {
		return f.RecordedInvestedCapital
	}
	return (f.PurchasePrice - f.Loan.Amount) + f.ClosingCost
}

// AllInCost is purchase price plus rehab, closing and holding costs.
func AllInCost(f Facts) float64 {
	return f.PurchasePrice + f.RehabCost + f.ClosingCost + f.HoldingCost
}

// CalculateValuation derives ARV, equity and the equity multiple. Only this
// calculator depends on the property status: a sold property is valued at its
// sale price and its multiple is realized profit over invested capital.
func CalculateValuation(f Facts, noi NOIResult, debt DebtServiceResult) ValuationResult {
	arv, source := ResolveARV(f, noi.Annual)
	invested := InvestedCapital(f)
	allIn := AllInCost(f)

	res := ValuationResult{
		ARV:             arv,
		ARVSource:       source,
		InvestedCapital: invested,
		AllInCost:       allIn,
		CurrentDebt:     debt.CurrentDebt,
		CurrentEquity:   arv - debt.CurrentDebt,
	}

	if invested > 0 {
		if f.Status.IsSold() {
			res.EquityMultiple = finance.SafeDiv(f.TotalProfit, invested)
		} else {
			res.EquityMultiple = finance.SafeDiv(math.Max(0, arv-allIn), invested)
		}
	}

	if arv > 0 {
		res.LoanToValue = finance.SafeDiv(debt.CurrentDebt, arv)
	}

	res.ExitValue = arv
	if noi.Annual > 0 && f.ExitCapRate > 0 {
		res.ExitValue = finance.SafeDiv(noi.Annual, f.ExitCapRate)
	}

	res.RefinanceCashOut = math.Max(0, arv*f.RefinanceLTV-debt.CurrentDebt)
	return res
}
