package analytics

import (
	"fmt"
	"math"
	"strings"
)

// FormatMoney formats an amount with thousands separators. Whole amounts
// drop the cents ("$0", "-$1,200"); others keep two decimals ("$12.50").
func FormatMoney(amount float64, currency string) string {
	negative := amount < 0
	abs := math.Abs(amount)

	var str string
	if abs == math.Trunc(abs) {
		str = fmt.Sprintf("%.0f", abs)
	} else {
		str = fmt.Sprintf("%.2f", abs)
	}
	intPart, decPart, hasDec := strings.Cut(str, ".")

	result := currency + groupThousands(intPart)
	if hasDec {
		result += "." + decPart
	}
	if negative && result != currency+"0" && result != currency+"0.00" {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
