package finance

import "math"

// MonthlyPayment returns the fixed monthly payment that fully amortizes
// principal over years at the given annual rate (decimal):
//
//	payment = P × (r/12 × (1+r/12)^n) / ((1+r/12)^n − 1), n = years × 12
//
// A zero rate spreads the principal evenly. A non-positive term yields 0.
func MonthlyPayment(principal, annualRate float64, years int) float64 {
	n := years * 12
	if n <= 0 || principal == 0 {
		return 0
	}
	if annualRate == 0 {
		return principal / float64(n)
	}

	r := annualRate / 12
	growth := math.Pow(1+r, float64(n))
	payment := principal * (r * growth) / (growth - 1)
	if math.IsNaN(payment) || math.IsInf(payment, 0) {
		return 0
	}
	return payment
}

// InterestOnlyPayment returns the monthly interest due on principal.
func InterestOnlyPayment(principal, annualRate float64) float64 {
	return principal * annualRate / 12
}

// PrincipalPaid returns how much of balance is retired by the next months
// payments of monthlyPayment at the given annual rate. Payments that do not
// cover the interest retire nothing; the result never exceeds balance.
func PrincipalPaid(balance, annualRate, monthlyPayment float64, months int) float64 {
	if balance <= 0 || monthlyPayment <= 0 || months <= 0 {
		return 0
	}

	r := annualRate / 12
	remaining := balance
	for i := 0; i < months && remaining > 0; i++ {
		principal := monthlyPayment - remaining*r
		if principal <= 0 {
			break
		}
		if principal > remaining {
			principal = remaining
		}
		remaining -= principal
	}
	return balance - remaining
}
