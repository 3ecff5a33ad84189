package engine

type ExpenseResult struct {
	Annual        float64
	Monthly       float64
	ManagementFee float64 // computed fee, 0 when management was itemized
	Breakdown     ExpenseBreakdown
}

// CalculateExpenses totals the operating expenses of a property. Ratio-based
// expenses are derived from effective gross income and split across the
// default categories. When no management amount is present a fee of
// effectiveGrossIncome × ManagementRate is added; an itemized management
// figure is used as-is so the fee is never counted twice.
func CalculateExpenses(f Facts, effectiveGrossIncome float64) ExpenseResult {
	base := effectiveGrossIncome
	if base < 0 {
		base = 0
	}

	breakdown := f.Expenses
	if f.ExpenseSource == ExpensesRatio {
		breakdown = SplitExpenses(base * f.ExpenseRatio)
	}

	var fee float64
	if breakdown.Management == 0 {
		fee = base * f.ManagementRate
		breakdown.Management = fee
	}

	annual := breakdown.Total()
	return ExpenseResult{
		Annual:        annual,
		Monthly:       annual / 12,
		ManagementFee: fee,
		Breakdown:     breakdown,
	}
}
