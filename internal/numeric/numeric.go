// Package numeric normalizes the heterogeneous numeric representations
// that arrive from document extractions and API payloads: plain numbers,
// "1.234,56", "1234,56", "2737.96", "R$ 1.500,00" and so on.
package numeric

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a raw value into an exact decimal. Nil and empty input
// yield an invalid (null) result, already-numeric input is returned
// unchanged, and strings go through separator normalization. Anything
// that does not survive as a number is null; the caller decides whether
// null means "error" or "unknown".
func Parse(raw interface{}) decimal.NullDecimal {
	switch v := raw.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NullDecimal{Decimal: v, Valid: true}
	case decimal.NullDecimal:
		return v
	case float64:
		return decimal.NullDecimal{Decimal: decimal.NewFromFloat(v), Valid: true}
	case float32:
		return decimal.NullDecimal{Decimal: decimal.NewFromFloat32(v), Valid: true}
	case int:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(v)), Valid: true}
	case int64:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
	case json.Number:
		return ParseString(string(v))
	case string:
		return ParseString(v)
	default:
		return decimal.NullDecimal{}
	}
}

// ParseString normalizes a textual number. When both comma and period
// are present, periods are thousands separators and the comma is the
// decimal separator. A lone comma is a decimal separator. A lone period
// is already a decimal separator and is kept: "2737.96" must parse to
// 2737.96, not 273796.
func ParseString(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.NullDecimal{}
	}

	s = stripCurrency(s)
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return decimal.NullDecimal{}
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func stripCurrency(s string) string {
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "r$", "")
	s = strings.ReplaceAll(s, "$", "")
	return s
}

// ParseInt resolves a raw value to a plain int, for item numbers. The
// second return is false when the value is null, fractional or not
// representable.
func ParseInt(raw interface{}) (int, bool) {
	d := Parse(raw)
	if !d.Valid {
		return 0, false
	}
	if !d.Decimal.IsInteger() {
		return 0, false
	}
	return int(d.Decimal.IntPart()), true
}
