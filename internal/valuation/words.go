package valuation

import "strings"

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// Covers the full int64 range: math.MaxInt64 is just over nine quintillion.
var scaleWords = []string{"", "Thousand", "Million", "Billion", "Trillion", "Quadrillion", "Quintillion"}

// AmountInWords renders an integer rupee amount the way it appears on a
// valuation certificate, e.g. "Twenty Five Million Rupees Only".
func AmountInWords(amount int64) string {
	if amount == 0 {
		return "Zero Rupees Only"
	}
	prefix := ""
	if amount < 0 {
		prefix = "Minus "
		amount = -amount
	}
	return prefix + numberWords(amount) + " Rupees Only"
}

func numberWords(n int64) string {
	var groups []int64
	for n > 0 {
		groups = append(groups, n%1000)
		n /= 1000
	}
	var parts []string
	for i := len(groups) - 1; i >= 0; i-- {
		if groups[i] == 0 {
			continue
		}
		part := threeDigitWords(int(groups[i]))
		if scaleWords[i] != "" {
			part += " " + scaleWords[i]
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

func threeDigitWords(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" Hundred")
		n %= 100
	}
	if n >= 20 {
		if n%10 != 0 {
			parts = append(parts, tensWords[n/10]+" "+onesWords[n%10])
		} else {
			parts = append(parts, tensWords[n/10])
		}
	} else if n > 0 {
		parts = append(parts, onesWords[n])
	}
	return strings.Join(parts, " ")
}
