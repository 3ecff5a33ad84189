// Package finance holds the numeric helpers shared by the calculation engine:
// tolerant amount parsing, rate normalization, and loan amortization.
package finance

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount such as "$1,100.50", "(250)",
// "1 200 EUR" or "7.5%" into a float. Anything that cannot be parsed yields 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s, ok := stripCurrencyCode(s)
	if !ok {
		return 0
	}

	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',', r == '_', r == '%', r == '+':
			// separators and unit markers
		case strings.ContainsRune("$€£¥", r):
			// currency symbols
		case unicode.IsSpace(r):
			if !isGroupSpace(runes, i) {
				return 0
			}
		default:
			return 0
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return 0
	}
	v := d.InexactFloat64()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if negative {
		v = -v
	}
	return v
}

// stripCurrencyCode removes a three-letter code such as USD from one end of
// s. It reports false when letters remain that are not such a code.
func stripCurrencyCode(s string) (string, bool) {
	lead := 0
	for lead < len(s) && isASCIILetter(s[lead]) {
		lead++
	}
	trail := 0
	for trail < len(s)-lead && isASCIILetter(s[len(s)-1-trail]) {
		trail++
	}

	switch {
	case lead == 0 && trail == 0:
		return s, true
	case lead == 3 && trail == 0:
		return s[3:], true
	case trail == 3 && lead == 0:
		return s[:len(s)-3], true
	}
	return s, false
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// isGroupSpace reports whether the space at i is allowed: anywhere not
// between two digits, or as a thousands separator followed by exactly three
// digits.
func isGroupSpace(runes []rune, i int) bool {
	if i == 0 || i == len(runes)-1 || !unicode.IsDigit(runes[i-1]) || !unicode.IsDigit(runes[i+1]) {
		return true
	}
	n := 0
	for j := i + 1; j < len(runes) && unicode.IsDigit(runes[j]); j++ {
		n++
	}
	return n == 3
}

// Amount is a number that may be encoded in JSON as a number, a numeric or
// currency string, or null. Decoding never fails; unreadable values become 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = 0
			return nil
		}
		*a = Amount(ParseAmount(s))
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

func (a Amount) Float() float64 { return float64(a) }

// NormalizeRate converts a rate to its decimal form in [0, 1]. Values beyond
// ±1 are read as percentages, so 5 and 0.05 both become 0.05. A rate of
// exactly 1 is kept as 100%. Negative rates become 0 and rates above 100%
// become 1.
func NormalizeRate(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > 1 || v < -1 {
		v /= 100
	}
	return math.Max(0, math.Min(1, v))
}

// SafeDiv returns a/b, or 0 when b is zero or the quotient is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
