// internal/pkg/money/money_test.go
package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		minor    int64
		currency string
		want     string
	}{
		{"kobo to naira", 251000, "NGN", "₦2,510.00"},
		{"sub unit only", 99, "NGN", "₦0.99"},
		{"zero", 0, "NGN", "₦0.00"},
		{"millions grouped", 123456789, "NGN", "₦1,234,567.89"},
		{"negative", -1500, "NGN", "-₦15.00"},
		{"lowercase code", 2500, "ngn", "₦25.00"},
		{"unknown currency falls back to code", 2500, "KES", "KES 25.00"},
		{"empty currency", 2500, "", "25.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.minor, tt.currency))
		})
	}
}
