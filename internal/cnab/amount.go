package cnab

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseBRLToCents converts a Brazilian currency string ("R$ 1.234,56",
// "1234,56", "1.234,5") to integer cents. Thousands separators are dots,
// the decimal separator is a comma. Rounding is half-up, per the bank's
// totaling rules; float arithmetic is never involved.
func ParseBRLToCents(v string) (int64, error) {
	s := strings.TrimSpace(v)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid currency amount %q: %w", v, err)
	}

	// Round is half away from zero, which for payment amounts is the
	// half-up rounding the bank's totaling rules require.
	return d.Shift(2).Round(0).IntPart(), nil
}
