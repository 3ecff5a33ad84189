package engine

// IncomeResult is the output of the income calculator. Amounts are annual
// unless named monthly.
type IncomeResult struct {
	GrossMonthlyRent     float64
	GrossAnnualRent      float64
	VacancyLoss          float64
	OtherIncome          float64
	EffectiveGrossIncome float64
}

// CalculateIncome turns gross rent, vacancy and other income into effective
// gross income. Zero or negative rent is passed through unchanged.
func CalculateIncome(grossMonthlyRent, vacancyRate, otherIncome float64) IncomeResult {
	annual := grossMonthlyRent * 12
	vacancyLoss := annual * vacancyRate
	return IncomeResult{
		GrossMonthlyRent:     grossMonthlyRent,
		GrossAnnualRent:      annual,
		VacancyLoss:          vacancyLoss,
		OtherIncome:          otherIncome,
		EffectiveGrossIncome: annual - vacancyLoss + otherIncome,
	}
}

type NOIResult struct {
	Annual  float64
	Monthly float64
}

// CalculateNOI subtracts operating expenses from effective gross income.
// Negative NOI is a valid result.
func CalculateNOI(effectiveGrossIncome, annualOperatingExpenses float64) NOIResult {
	annual := effectiveGrossIncome - annualOperatingExpenses
	return NOIResult{
		Annual:  annual,
		Monthly: annual / 12,
	}
}
