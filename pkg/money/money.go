// Package money holds the amount and currency value objects shared by the
// payment records, and the amount renderings the QR standards require.
package money

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/bibbank/qrpay/pkg/codes"
)

// ErrNegativeAmount is returned when an amount below zero is supplied.
var ErrNegativeAmount = errors.New("amount must not be negative")

// Currency is an ISO 4217 currency code.
type Currency struct {
	code string
}

// NewCurrency creates a Currency after checking the code against the ISO 4217 table.
func NewCurrency(code string) (Currency, error) {
	if _, ok := codes.Currencies[code]; !ok {
		return Currency{}, fmt.Errorf("invalid currency code %q: not an ISO 4217 code", code)
	}
	return Currency{code: code}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// String returns the currency code.
func (c Currency) String() string {
	return c.code
}

// IsZero returns true if the currency is uninitialized.
func (c Currency) IsZero() bool {
	return c.code == ""
}

// Currencies used as defaults by the supported QR standards.
var (
	EUR = MustCurrency("EUR")
	CZK = MustCurrency("CZK")
	PLN = MustCurrency("PLN")
)

// Money represents an immutable monetary amount with currency.
// Fields are unexported to enforce immutability.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value from a decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// NewFromString parses an amount string and currency code into a Money value.
// The amount accepts the same loose notation as ParseAmount.
func NewFromString(amount string, currency string) (Money, error) {
	cur, err := NewCurrency(currency)
	if err != nil {
		return Money{}, fmt.Errorf("invalid currency: %w", err)
	}

	d, err := ParseAmount(amount)
	if err != nil {
		return Money{}, err
	}

	return Money{amount: d, currency: cur}, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency.
func (m Money) Currency() Currency {
	return m.currency
}

// IsPositive returns true if the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Equal returns true if both the amount and currency of m and other are equal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String formats the Money value as "<amount> <currency>", for example "100.00 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", Format(m.amount), m.currency.Code())
}

// ParseAmount parses a human-entered amount. A decimal comma is accepted in
// place of the dot and all whitespace is ignored, so "1 234,50" parses as
// 1234.50. Negative amounts are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == ',' {
			return '.'
		}
		return r
	}, s)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, ErrNegativeAmount)
	}
	return d, nil
}

// Format renders an amount with exactly two decimal places and a dot
// separator, rounding half away from zero.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MinorUnits renders an amount in hundredths, left-padded with zeros to at
// least width digits. 1234.56 becomes "123456"; 12.3 with width 6 becomes "001230".
func MinorUnits(d decimal.Decimal, width int) string {
	cents := d.Round(2).Shift(2).StringFixed(0)
	if len(cents) < width {
		cents = strings.Repeat("0", width-len(cents)) + cents
	}
	return cents
}
