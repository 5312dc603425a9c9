package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIBANLength(t *testing.T) {
	tests := []struct {
		iban   string
		want   int
		wantOK bool
	}{
		{"CZ6508000000192000145399", 24, true},
		{"sk3112000000198742637541", 24, true},
		{"NO9386011117947", 15, true},
		{"XX00", 0, false},
		{"C", 0, false},
		{"", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.iban, func(t *testing.T) {
			got, ok := LookupIBANLength(tc.iban)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTablesAreAlpha3(t *testing.T) {
	for code := range Currencies {
		assert.Len(t, code, 3, "currency %q", code)
	}
	for code := range Countries {
		assert.Len(t, code, 3, "country %q", code)
	}
	assert.Contains(t, Countries, "SVK")
	assert.NotContains(t, Countries, "SK")
	assert.Contains(t, Currencies, "CZK")
	assert.Contains(t, Currencies, "EUR")
}

func TestDiacriticsMapToASCII(t *testing.T) {
	for from, to := range Diacritics {
		assert.Less(t, to, rune(0x80), "%q maps to non-ASCII %q", from, to)
	}
}
