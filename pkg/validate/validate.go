// Package validate provides the stateless field checks shared by every QR
// payment standard. None of the functions panic on malformed input; they
// simply report false.
package validate

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/bibbank/qrpay/pkg/codes"
)

// ibanChunk is how many digits are folded into the running mod-97 remainder
// per step. Two remainder digits plus seven new ones stay well inside uint64.
const ibanChunk = 7

var (
	bicPattern   = regexp.MustCompile(`(?i)^[A-Z]{6}[A-Z2-9][A-NP-Z0-9]([A-Z0-9]{3})?$`)
	phonePattern = regexp.MustCompile(`(\+|00)?\d{9,12}`)
)

// IBAN reports whether s is an IBAN of the length registered for its country
// prefix and whose mod-97 checksum equals 1.
func IBAN(s string) bool {
	if s == "" {
		return false
	}
	want, ok := codes.LookupIBANLength(s)
	if !ok || len(s) != want {
		return false
	}

	moved := strings.ToUpper(s[4:] + s[:4])
	var digits strings.Builder
	digits.Grow(len(moved) * 2)
	for i := 0; i < len(moved); i++ {
		c := moved[i]
		switch {
		case c >= '0' && c <= '9':
			digits.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			n := int(c-'A') + 10
			digits.WriteByte(byte('0' + n/10))
			digits.WriteByte(byte('0' + n%10))
		default:
			return false
		}
	}
	return mod97(digits.String()) == 1
}

// mod97 reduces an arbitrarily long decimal numeral modulo 97 by folding it
// in fixed-size chunks.
func mod97(numeral string) uint64 {
	var rem uint64
	for len(numeral) > 0 {
		n := ibanChunk
		if n > len(numeral) {
			n = len(numeral)
		}
		for i := 0; i < n; i++ {
			rem = rem*10 + uint64(numeral[i]-'0')
		}
		rem %= 97
		numeral = numeral[n:]
	}
	return rem
}

// BIC reports whether s looks like a SWIFT/BIC code: 8 or 11 characters,
// compared case-insensitively.
func BIC(s string) bool {
	return bicPattern.MatchString(s)
}

// Currency reports whether code is a known ISO 4217 alphabetic code.
func Currency(code string) bool {
	_, ok := codes.Currencies[code]
	return ok
}

// CountryCode reports whether code is a known ISO 3166-1 alpha-3 code.
// Alpha-2 codes such as "SK" are rejected.
func CountryCode(code string) bool {
	_, ok := codes.Countries[code]
	return ok
}

// URL reports whether s parses as an absolute URL with both scheme and host.
func URL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Phone reports whether s contains an international or local phone number
// of 9 to 12 digits.
func Phone(s string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(s, "+", "00"))
}

// Latin1 reports whether every rune of s is representable in ISO-8859-1.
func Latin1(s string) bool {
	for _, r := range s {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

// StripDiacritics transliterates the letters listed in codes.Diacritics to
// their base Latin letter. All other runes pass through unchanged.
func StripDiacritics(s string) string {
	return strings.Map(func(r rune) rune {
		if base, ok := codes.Diacritics[r]; ok {
			return base
		}
		return r
	}, s)
}
