package qrpayment

import (
	"context"
	"fmt"
	"strings"

	"github.com/bibbank/qrpay/pkg/money"
	"github.com/bibbank/qrpay/pkg/validate"
)

const (
	polDelimiter = "|"
	polFields    = 9
	// polManualAmount tells the payer's bank to ask for the amount.
	polManualAmount = "000000"
)

// POL is a Polish ZBP "2D" payment record.
type POL struct {
	NIP           string
	IBAN          string
	Country       string
	Amount        string
	PayeeName     string
	PaymentTitle  string
	DirectDebitID string
	InvoiceID     string
	Reserved      string

	optErrs []string
}

// POLOption configures a POL record.
type POLOption func(*POL)

// NewPOL creates a record for iban with the amount left to the payer.
func NewPOL(iban string, opts ...POLOption) *POL {
	p := &POL{Country: "PL", Amount: polManualAmount}
	p.SetIBAN(iban)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithPOLAmount sets the amount from its textual form.
func WithPOLAmount(amount string) POLOption {
	return func(p *POL) {
		if err := p.SetAmount(amount); err != nil {
			p.optErrs = append(p.optErrs, err.Error())
		}
	}
}

// WithPOLPayee sets the recipient name.
func WithPOLPayee(name string) POLOption {
	return func(p *POL) { p.SetPayeeName(name) }
}

// WithPOLTitle sets the payment title.
func WithPOLTitle(title string) POLOption {
	return func(p *POL) { p.SetPaymentTitle(title) }
}

// WithPOLNIP sets the payee tax identification number.
func WithPOLNIP(nip string) POLOption {
	return func(p *POL) { p.NIP = strings.TrimSpace(nip) }
}

// Standard implements Record.
func (p *POL) Standard() Standard { return StandardPOL }

// SetIBAN stores iban upper-cased and without whitespace.
func (p *POL) SetIBAN(iban string) {
	p.IBAN = NormalizeIBAN(iban)
}

// AccountNumber is the IBAN without its country prefix.
func (p *POL) AccountNumber() string {
	if len(p.IBAN) < 2 {
		return ""
	}
	return p.IBAN[2:]
}

// SetAmount stores the amount in grosze, zero padded to six digits.
func (p *POL) SetAmount(amount string) error {
	d, err := money.ParseAmount(amount)
	if err != nil {
		return err
	}
	p.Amount = money.MinorUnits(d, 6)
	return nil
}

func (p *POL) SetPayeeName(s string)     { p.PayeeName = strings.TrimSpace(s) }
func (p *POL) SetPaymentTitle(s string)  { p.PaymentTitle = strings.TrimSpace(s) }
func (p *POL) SetDirectDebitID(s string) { p.DirectDebitID = strings.TrimSpace(s) }
func (p *POL) SetInvoiceID(s string)     { p.InvoiceID = strings.TrimSpace(s) }
func (p *POL) SetReserved(s string)      { p.Reserved = strings.TrimSpace(s) }

// SetVariableSymbol is an alias of SetDirectDebitID.
func (p *POL) SetVariableSymbol(s string) { p.SetDirectDebitID(s) }

// Validate implements Record.
func (p *POL) Validate() []string {
	errs := append([]string(nil), p.optErrs...)

	if p.NIP != "" && length(p.NIP) != 10 {
		errs = append(errs, "NIP must have 10 characters.")
	}
	switch {
	case p.IBAN == "":
		errs = append(errs, "IBAN is required.")
	case !validate.IBAN(p.IBAN):
		errs = append(errs, "IBAN is not valid.")
	}
	if p.Country != "" && length(p.Country) != 2 {
		errs = append(errs, "Country code must have 2 characters.")
	}
	if length(p.Amount) < 6 {
		errs = append(errs, "Amount has to be min 6 characters long.")
	}
	limits := []struct {
		name, value string
		max         int
	}{
		{"Payee name", p.PayeeName, 20},
		{"Payment title", p.PaymentTitle, 32},
		{"Direct debit ID", p.DirectDebitID, 20},
		{"Invoice ID", p.InvoiceID, 12},
		{"Reserved field", p.Reserved, 24},
	}
	for _, l := range limits {
		if length(l.value) > l.max {
			errs = append(errs, fmt.Sprintf("%s can be max %d characters long.", l.name, l.max))
		}
	}
	for _, l := range limits {
		if strings.Contains(l.value, polDelimiter) {
			errs = append(errs, fmt.Sprintf("%s must not contain %q.", l.name, polDelimiter))
		}
	}
	return errs
}

// IsValid implements Record.
func (p *POL) IsValid() bool {
	return len(p.Validate()) == 0
}

// String renders the nine pipe separated fields.
func (p *POL) String() string {
	amount := p.Amount
	if amount == "" {
		amount = polManualAmount
	}
	return strings.Join([]string{
		p.NIP,
		p.Country,
		p.AccountNumber(),
		amount,
		p.PayeeName,
		p.PaymentTitle,
		p.DirectDebitID,
		p.InvoiceID,
		p.Reserved,
	}, polDelimiter)
}

// Encode implements Record.
func (p *POL) Encode(context.Context) (string, error) {
	return p.String(), nil
}

// ParsePOL reads a POL payload back into a record. The IBAN is rebuilt from
// the country and account number.
func ParsePOL(s string) (*POL, error) {
	f := strings.Split(s, polDelimiter)
	if len(f) != polFields {
		return nil, fmt.Errorf("POL payload has %d fields, want %d", len(f), polFields)
	}
	return &POL{
		NIP:           f[0],
		Country:       f[1],
		IBAN:          f[1] + f[2],
		Amount:        f[3],
		PayeeName:     f[4],
		PaymentTitle:  f[5],
		DirectDebitID: f[6],
		InvoiceID:     f[7],
		Reserved:      f[8],
	}, nil
}
