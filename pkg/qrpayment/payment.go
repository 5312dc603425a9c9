// Package qrpayment builds the payloads that bank-transfer QR codes carry in
// the Czech (SPD), European (EPC), Polish and Slovak (Pay by square)
// standards.
//
// Records are plain structs. Validate reports every problem found; Encode
// never validates, so callers decide whether an invalid record may still be
// printed.
package qrpayment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Standard identifies a QR payment format.
type Standard string

const (
	StandardCZE Standard = "cze"
	StandardEPC Standard = "epc"
	StandardPOL Standard = "pol"
	StandardSVK Standard = "svk"
)

// Standards lists every supported format.
var Standards = []Standard{StandardCZE, StandardEPC, StandardPOL, StandardSVK}

// ParseStandard validates and creates a Standard from a case-insensitive name.
func ParseStandard(s string) (Standard, error) {
	std := Standard(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Standards {
		if std == known {
			return std, nil
		}
	}
	return "", fmt.Errorf("unknown payment standard: %q", s)
}

// String returns the lower-case standard name.
func (s Standard) String() string {
	return string(s)
}

// Record is implemented by the payment record of every standard.
type Record interface {
	Standard() Standard
	// Validate returns all violations found; an empty result means valid.
	Validate() []string
	IsValid() bool
	// Encode renders the QR payload without validating the record.
	Encode(ctx context.Context) (string, error)
}

var (
	_ Record = (*CZE)(nil)
	_ Record = (*EPC)(nil)
	_ Record = (*POL)(nil)
	_ Record = (*SVK)(nil)
)

// ValidationErrors is the error form of a non-empty Validate result.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return "invalid payment: " + strings.Join(v, "; ")
}

// Err returns the violations of r as ValidationErrors, or nil when r is valid.
func Err(r Record) error {
	if msgs := r.Validate(); len(msgs) > 0 {
		return ValidationErrors(msgs)
	}
	return nil
}

// dateLayout is the YYYYMMDD form used by every standard.
const dateLayout = "20060102"

// ParseDate accepts YYYYMMDD or YYYY-MM-DD. An empty string yields the zero
// time, meaning "no date".
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{dateLayout, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYYMMDD or YYYY-MM-DD", s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// today returns the current local date at midnight.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// ParseSymbol parses a numeric payment symbol. Surrounding whitespace is
// ignored and an empty string yields zero, meaning "not set".
func ParseSymbol(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid symbol %q: must be a non-negative integer", s)
	}
	return n, nil
}

// NormalizeIBAN upper-cases s and removes all whitespace.
func NormalizeIBAN(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func digits(n uint64) int {
	return len(strconv.FormatUint(n, 10))
}
