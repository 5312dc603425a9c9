package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/qrpay/pkg/validate"
)

// referenceIBANs are published example IBANs, one per country.
var referenceIBANs = []string{
	"AD1200012030200359100100",
	"AE070331234567890123456",
	"AL47212110090000000235698741",
	"AT611904300234573201",
	"AZ21NABZ00000000137010001944",
	"BA391290079401028494",
	"BE68539007547034",
	"BG80BNBG96611020345678",
	"BH67BMAG00001299123456",
	"BR1800360305000010009795493C1",
	"CH9300762011623852957",
	"CY17002001280000001200527600",
	"CZ6508000000192000145399",
	"DE89370400440532013000",
	"DK5000400440116243",
	"DO28BAGR00000001212453611324",
	"EE382200221020145685",
	"ES9121000418450200051332",
	"FI2112345600000785",
	"FO6264600001631634",
	"FR1420041010050500013M02606",
	"GB29NWBK60161331926819",
	"GE29NB0000000101904917",
	"GI75NWBK000000007099453",
	"GL8964710001000206",
	"GR1601101250000000012300695",
	"GT82TRAJ01020000001210029690",
	"HR1210010051863000160",
	"HU42117730161111101800000000",
	"IE29AIBK93115212345678",
	"IL620108000000099999999",
	"IS140159260076545510730339",
	"IT60X0542811101000000123456",
	"JO94CBJO0010000000000131000302",
	"KW81CBKU0000000000001234560101",
	"KZ86125KZT5004100100",
	"LB62099900000001001901229114",
	"LI21088100002324013AA",
	"LT121000011101001000",
	"LU280019400644750000",
	"LV80BANK0000435195001",
	"MC5811222000010123456789030",
	"MD24AG000225100013104168",
	"ME25505000012345678951",
	"MK07250120000058984",
	"MR1300020001010000123456753",
	"MT84MALT011000012345MTLCAST001S",
	"MU17BOMM0101101030300200000MUR",
	"NL91ABNA0417164300",
	"NO9386011117947",
	"PK36SCBL0000001123456702",
	"PL61109010140000071219812874",
	"PS92PALS000000000400123456702",
	"PT50000201231234567890154",
	"QA58DOHB00001234567890ABCDEFG",
	"RO49AAAA1B31007593840000",
	"RS35260005601001611379",
	"SA0380000000608010167519",
	"SE4550000000058398257466",
	"SI56263300012039086",
	"SK3112000000198742637541",
	"SM86U0322509800000000270100",
	"TN5910006035183598478831",
	"TR330006100519786457841326",
	"VG96VPVG0000012345678901",
}

func TestIBAN_ReferenceSet(t *testing.T) {
	for _, iban := range referenceIBANs {
		t.Run(iban, func(t *testing.T) {
			assert.True(t, validate.IBAN(iban))
			assert.True(t, validate.IBAN(strings.ToLower(iban)), "prefix and letters are case-insensitive")
		})
	}
}

func TestIBAN_SingleDigitMutation(t *testing.T) {
	for _, iban := range referenceIBANs {
		t.Run(iban, func(t *testing.T) {
			b := []byte(iban)
			for i := 4; i < len(b); i++ {
				if b[i] < '0' || b[i] > '9' {
					continue
				}
				orig := b[i]
				b[i] = '0' + (orig-'0'+1)%10
				assert.False(t, validate.IBAN(string(b)), "mutated position %d: %s", i, b)
				b[i] = orig
			}
		})
	}
}

func TestIBAN_Invalid(t *testing.T) {
	tests := []struct {
		name string
		iban string
	}{
		{"empty", ""},
		{"unknown country", "XX6508000000192000145399"},
		{"too short", "CZ650800000019200014539"},
		{"too long", "CZ65080000001920001453990"},
		{"wrong check digits", "CZ6608000000192000145399"},
		{"punctuation", "CZ65-8000000192000145399"},
		{"single char", "C"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, validate.IBAN(tc.iban))
		})
	}
}

func TestBIC(t *testing.T) {
	tests := []struct {
		bic  string
		want bool
	}{
		{"GIBACZPX", true},
		{"TATRSKBX", true},
		{"COBADEFFXXX", true},
		{"nwbkgb2lxxx", true},
		{"DEUTDEFF500", true},
		{"GIBACZP", false},
		{"GIBACZPXX", false},
		{"GIBACZ1X", false},
		{"GIBACZPO", false},
		{"GIB4CZPX", false},
		{"COBADEFFXX!", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.bic, func(t *testing.T) {
			assert.Equal(t, tc.want, validate.BIC(tc.bic))
		})
	}
}

func TestCurrency(t *testing.T) {
	assert.True(t, validate.Currency("CZK"))
	assert.True(t, validate.Currency("EUR"))
	assert.True(t, validate.Currency("PLN"))
	assert.False(t, validate.Currency("eur"))
	assert.False(t, validate.Currency("EURO"))
	assert.False(t, validate.Currency("ABC"))
	assert.False(t, validate.Currency(""))
}

func TestCountryCode_Alpha3Only(t *testing.T) {
	assert.True(t, validate.CountryCode("SVK"))
	assert.True(t, validate.CountryCode("CZE"))
	assert.False(t, validate.CountryCode("SK"))
	assert.False(t, validate.CountryCode("svk"))
	assert.False(t, validate.CountryCode(""))
}

func TestURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/pay?id=1", true},
		{"http://shop.example.cz", true},
		{"ftp://files.example.org/invoice.pdf", true},
		{"example.com", false},
		{"/relative/path", false},
		{"https://", false},
		{"mailto:someone@example.com", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.want, validate.URL(tc.url))
		})
	}
}

func TestPhone(t *testing.T) {
	assert.True(t, validate.Phone("+420777123456"))
	assert.True(t, validate.Phone("777123456"))
	assert.True(t, validate.Phone("00421905123456"))
	assert.False(t, validate.Phone("12345"))
	assert.False(t, validate.Phone("call me"))
}

func TestLatin1(t *testing.T) {
	assert.True(t, validate.Latin1("Zahlung für Müller"))
	assert.True(t, validate.Latin1("plain ascii"))
	assert.False(t, validate.Latin1("Platba za zboží"))
}

func TestStripDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Příliš žluťoučký kůň úpěl ďábelské ódy", "Prilis zlutoucky kun upel dabelske ody"},
		{"ŽLUŤOUČKÝ KŮŇ", "ZLUTOUCKY KUN"},
		{"Ľubovoľný ĺ ŕ ô ä", "Lubovolny l r o a"},
		{"Łódź", "Łodź"},
		{"Straße", "Straße"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, validate.StripDiacritics(tc.in))
		})
	}
}
