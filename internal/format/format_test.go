package format

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-07T00:00:00Z", "07/03/2024"},
		{"2024-03-07", "07/03/2024"},
		{"2024-12-31T23:59:59-05:00", "31/12/2024"},
		{"2024-01-01T00:30:00+14:00", "01/01/2024"},
		{"  2023-11-05 10:00:00", "05/11/2023"},
		{"", ""},
		{"07/03/2024", ""},
		{"2024-13-01", ""},
		{"2024-02-00", ""},
		{"2024-02-31", ""},
		{"2023-02-29", ""},
		{"2024-02-29", "29/02/2024"},
		{"2024-04-31T10:00:00Z", ""},
		{"not a date", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Date(tt.in))
		})
	}
}

func TestDate_IgnoresProcessTimeZone(t *testing.T) {
	original := time.Local
	t.Cleanup(func() { time.Local = original })

	for _, zone := range []string{"UTC", "America/Los_Angeles", "Asia/Kolkata", "Pacific/Kiritimati"} {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			continue
		}
		time.Local = loc
		t.Setenv("TZ", zone)
		t.Setenv("LANG", "de_DE.UTF-8")
		assert.Equal(t, "07/03/2024", Date("2024-03-07T00:00:00Z"), "zone %s", zone)
	}
}

func TestDatePtr(t *testing.T) {
	assert.Equal(t, "", DatePtr(nil))
	s := "2025-06-09"
	assert.Equal(t, "09/06/2025", DatePtr(&s))
}

func TestFormatter_Currency(t *testing.T) {
	f := New("")
	assert.Equal(t, "₹1000.00", f.Currency(decimal.RequireFromString("1000")))
	assert.Equal(t, "₹0.50", f.Currency(decimal.RequireFromString("0.5")))
	assert.Equal(t, "₹12.35", f.Currency(decimal.RequireFromString("12.345")))
	assert.Equal(t, "-₹50.00", f.Currency(decimal.RequireFromString("-50")))
	assert.Equal(t, "₹0.00", f.Currency(decimal.RequireFromString("-0.001")))
	assert.Equal(t, "₹0.00", f.Currency(decimal.RequireFromString("-0.004")))
	assert.Equal(t, "-₹0.01", f.Currency(decimal.RequireFromString("-0.005")))
	assert.Equal(t, "-₹50.00", f.Discount(decimal.RequireFromString("50")))

	usd := New("$")
	assert.Equal(t, "$9.90", usd.Currency(decimal.RequireFromString("9.9")))
	assert.Equal(t, "₹1.00", Currency(decimal.NewFromInt(1)))
}

func TestPercentAndQuantity(t *testing.T) {
	assert.Equal(t, "10%", Percent(decimal.NewFromInt(10)))
	assert.Equal(t, "12.5%", Percent(decimal.RequireFromString("12.50")))
	assert.Equal(t, "0", Quantity(nil))
	q := int64(3)
	assert.Equal(t, "3", Quantity(&q))
}

func TestParseAmount_FailsClosed(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"nan", math.NaN(), "0"},
		{"inf", math.Inf(1), "0"},
		{"garbage", "abc", "0"},
		{"empty string", "", "0"},
		{"bool", true, "0"},
		{"float", 1130.5, "1130.5"},
		{"int", 42, "42"},
		{"string", " 180.00 ", "180"},
		{"json number", json.Number("50.25"), "50.25"},
		{"decimal", decimal.RequireFromString("7.7"), "7.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
			assert.NotContains(t, Currency(got), "NaN")
		})
	}
}

func TestParseNullAmount(t *testing.T) {
	assert.False(t, ParseNullAmount(nil).Valid)
	assert.False(t, ParseNullAmount("x").Valid)
	got := ParseNullAmount("3.10")
	assert.True(t, got.Valid)
	assert.Equal(t, "3.10", got.Decimal.StringFixed(2))
}
