// Package format renders dates and money for invoice documents.
// Output never depends on the process locale or time zone.
package format

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is the glyph prefixed to every amount
const DefaultCurrencySymbol = "₹"

var isoDatePrefix = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})`)

// Date converts an ISO-8601 date or timestamp to DD/MM/YYYY.
// Only the leading calendar date is read; offsets are ignored so the
// printed day is the one stored. Empty or malformed input yields "".
func Date(iso string) string {
	m := isoDatePrefix.FindStringSubmatch(iso)
	if m == nil {
		return ""
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return m[3] + "/" + m[2] + "/" + m[1]
}

// DatePtr is Date for optional values
func DatePtr(iso *string) string {
	if iso == nil {
		return ""
	}
	return Date(*iso)
}

// Formatter prints amounts with a fixed currency glyph
type Formatter struct {
	Symbol string
}

// New returns a Formatter using symbol, or the default glyph when empty
func New(symbol string) Formatter {
	if strings.TrimSpace(symbol) == "" {
		symbol = DefaultCurrencySymbol
	}
	return Formatter{Symbol: symbol}
}

// Currency prints amount with exactly two decimals, e.g. ₹1130.00 or -₹5.00
func (f Formatter) Currency(amount decimal.Decimal) string {
	amount = amount.Round(2)
	if amount.IsNegative() {
		return "-" + f.Symbol + amount.Neg().StringFixed(2)
	}
	return f.Symbol + amount.StringFixed(2)
}

// Discount prints a deduction with a leading minus, e.g. -₹50.00
func (f Formatter) Discount(amount decimal.Decimal) string {
	return f.Currency(amount.Abs().Neg())
}

// Currency formats with the default glyph
func Currency(amount decimal.Decimal) string {
	return New("").Currency(amount)
}

// Percent prints a percentage without trailing zeros, e.g. 12.5%
func Percent(p decimal.Decimal) string {
	return p.String() + "%"
}

// Quantity prints an optional integer quantity, zero when missing
func Quantity(q *int64) string {
	if q == nil {
		return "0"
	}
	return strconv.FormatInt(*q, 10)
}

// Amount unwraps a nullable decimal, failing closed to zero
func Amount(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// ParseAmount coerces a loosely typed value into a decimal.
// nil, NaN, infinities, booleans and non-numeric strings all become zero.
func ParseAmount(raw any) decimal.Decimal {
	d, ok := parseNumber(raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseNullAmount is ParseAmount that keeps "missing" distinguishable
func ParseNullAmount(raw any) decimal.NullDecimal {
	d, ok := parseNumber(raw)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseNumber(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case decimal.NullDecimal:
		return v.Decimal, v.Valid
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return parseNumber(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case uint64:
		return parseNumber(strconv.FormatUint(v, 10))
	case json.Number:
		return parseNumber(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case fmt.Stringer:
		return parseNumber(v.String())
	default:
		return decimal.Zero, false
	}
}
