package testutil

// Account fixtures with valid check digits, one per supported market.
const (
	IBANCZ = "CZ6508000000192000145399"
	IBANDE = "DE89370400440532013000"
	IBANPL = "PL61109010140000071219812874"
	IBANSK = "SK3112000000198742637541"

	BICDE = "COBADEFFXXX"
	BICSK = "TATRSKBX"
)

// BadChecksum returns iban with its last digit changed, which breaks the
// mod-97 check.
func BadChecksum(iban string) string {
	b := []byte(iban)
	last := len(b) - 1
	if b[last] == '9' {
		b[last] = '0'
	} else {
		b[last]++
	}
	return string(b)
}
