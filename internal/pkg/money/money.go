// internal/pkg/money/money.go
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Currency symbols for the currencies the shop actually settles in.
// Anything else falls back to the ISO code.
var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
}

// Format renders an amount held in minor units (kobo, cents) for
// humans: Format(251000, "NGN") == "₦2,510.00". Arithmetic stays in
// integers everywhere; this is presentation only.
func Format(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}

	code := strings.ToUpper(strings.TrimSpace(currency))
	prefix, ok := symbols[code]
	if !ok {
		if code == "" {
			prefix = ""
		} else {
			prefix = code + " "
		}
	}

	return fmt.Sprintf("%s%s%s.%02d", sign, prefix, group(minor/100), minor%100)
}

// group inserts thousands separators: 1234567 becomes "1,234,567".
func group(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
