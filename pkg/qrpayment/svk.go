package qrpayment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/qrpay/pkg/bysquare"
	"github.com/bibbank/qrpay/pkg/lzma"
	"github.com/bibbank/qrpay/pkg/money"
	"github.com/bibbank/qrpay/pkg/validate"
)

// svkFields is the field count of a single-payment Pay by square payload:
// internal ID, payment count and the 17 payment fields.
const svkFields = 19

// SVK is a Slovak "Pay by square" payment record.
type SVK struct {
	IBAN              string
	BIC               string
	VariableSymbol    string
	SpecificSymbol    string
	ConstantSymbol    string
	Currency          string
	Comment           string
	InternalID        string
	DueDate           time.Time
	Amount            decimal.Decimal
	Country           string
	PayeeName         string
	PayeeAddressLine1 string
	PayeeAddressLine2 string

	// Compressor produces the raw LZMA1 stream. Nil means lzma.Native.
	Compressor lzma.Compressor

	optErrs []string
}

// SVKOption configures an SVK record.
type SVKOption func(*SVK)

// NewSVK creates a record in EUR due today.
func NewSVK(iban, bic string, opts ...SVKOption) *SVK {
	s := &SVK{
		BIC:      bic,
		Currency: money.EUR.Code(),
		Country:  "SK",
		DueDate:  today(),
	}
	s.SetIBAN(iban)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithSVKAmount sets the amount from its textual form.
func WithSVKAmount(amount string) SVKOption {
	return func(s *SVK) {
		if err := s.SetAmount(amount); err != nil {
			s.optErrs = append(s.optErrs, err.Error())
		}
	}
}

// WithSVKDueDate sets the due date.
func WithSVKDueDate(t time.Time) SVKOption {
	return func(s *SVK) { s.DueDate = t }
}

// WithSVKSymbols sets the variable, constant and specific symbols.
func WithSVKSymbols(variable, constant, specific string) SVKOption {
	return func(s *SVK) {
		s.VariableSymbol = variable
		s.ConstantSymbol = constant
		s.SpecificSymbol = specific
	}
}

// WithSVKComment sets the payment note.
func WithSVKComment(comment string) SVKOption {
	return func(s *SVK) { s.Comment = comment }
}

// WithSVKPayee sets the beneficiary name and address lines.
func WithSVKPayee(name, line1, line2 string) SVKOption {
	return func(s *SVK) {
		s.PayeeName = name
		s.PayeeAddressLine1 = line1
		s.PayeeAddressLine2 = line2
	}
}

// WithSVKCompressor sets the compressor used by Encode.
func WithSVKCompressor(c lzma.Compressor) SVKOption {
	return func(s *SVK) { s.Compressor = c }
}

// Standard implements Record.
func (s *SVK) Standard() Standard { return StandardSVK }

// SetIBAN stores iban upper-cased and without whitespace.
func (s *SVK) SetIBAN(iban string) {
	s.IBAN = NormalizeIBAN(iban)
}

// SetAmount parses amount and rounds it to cents.
func (s *SVK) SetAmount(amount string) error {
	d, err := money.ParseAmount(amount)
	if err != nil {
		return err
	}
	s.Amount = d.Round(2)
	return nil
}

func (s *SVK) textFields() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"Internal ID", s.InternalID},
		{"Variable symbol", s.VariableSymbol},
		{"Constant symbol", s.ConstantSymbol},
		{"Specific symbol", s.SpecificSymbol},
		{"Comment", s.Comment},
		{"SWIFT-BIC", s.BIC},
		{"Payee name", s.PayeeName},
		{"Payee address line 1", s.PayeeAddressLine1},
		{"Payee address line 2", s.PayeeAddressLine2},
	}
}

// Validate implements Record. The country is checked against ISO 3166
// alpha-3 codes, so the default "SK" is reported until a three letter code
// such as "SVK" is set.
func (s *SVK) Validate() []string {
	errs := append([]string(nil), s.optErrs...)

	switch {
	case s.IBAN == "":
		errs = append(errs, "IBAN is required.")
	case !validate.IBAN(s.IBAN):
		errs = append(errs, "IBAN is not valid.")
	}
	if s.Currency != "" && !validate.Currency(s.Currency) {
		errs = append(errs, "Currency code is not valid (ISO 4217 3 char).")
	}
	if s.Country != "" && !validate.CountryCode(s.Country) {
		errs = append(errs, "Country code is not valid (ISO 3166 alpha-3).")
	}
	if s.BIC != "" && !validate.BIC(s.BIC) {
		errs = append(errs, "SWIFT-BIC is not valid.")
	}
	if d := formatDate(s.DueDate); d != "" && len(d) != len(dateLayout) {
		errs = append(errs, "Due date is not valid.")
	}
	if s.Amount.IsNegative() {
		errs = append(errs, "Amount must not be negative.")
	}
	for _, f := range s.textFields() {
		if strings.ContainsAny(f.value, "\t\r\n") {
			errs = append(errs, f.name+" must not contain tabs or line breaks.")
		}
	}
	return errs
}

// IsValid implements Record.
func (s *SVK) IsValid() bool {
	return len(s.Validate()) == 0
}

// Payload assembles the tab separated record that is checksummed and
// compressed.
func (s *SVK) Payload() string {
	payment := strings.Join([]string{
		"1", // regular payment
		money.Format(s.Amount.Round(2)),
		s.Currency,
		formatDate(s.DueDate),
		s.VariableSymbol,
		s.ConstantSymbol,
		s.SpecificSymbol,
		"", // symbols in SEPA reference form
		s.Comment,
		"1", // target account count
		s.IBAN,
		s.BIC,
		"0", // standing order
		"0", // direct debit
		s.PayeeName,
		s.PayeeAddressLine1,
		s.PayeeAddressLine2,
	}, "\t")
	return strings.Join([]string{s.InternalID, "1", payment}, "\t")
}

// Encode implements Record.
func (s *SVK) Encode(ctx context.Context) (string, error) {
	c := s.Compressor
	if c == nil {
		c = lzma.Native{}
	}
	return bysquare.NewEncoder(c).Encode(ctx, []byte(s.Payload()))
}

// DecodeSVK decodes Pay by square text into a record. Only single payment
// codes are supported.
func DecodeSVK(code string) (*SVK, error) {
	payload, err := bysquare.Decode(code)
	if err != nil {
		return nil, err
	}
	return ParseSVKPayload(string(payload))
}

// ParseSVKPayload builds a record from the tab separated payload that
// bysquare.Decode returns.
func ParseSVKPayload(payload string) (*SVK, error) {
	f := strings.Split(payload, "\t")
	if len(f) != svkFields {
		return nil, fmt.Errorf("pay by square payload has %d fields, want %d", len(f), svkFields)
	}
	if f[1] != "1" {
		return nil, fmt.Errorf("unsupported payment count %q", f[1])
	}

	p := f[2:]
	s := &SVK{
		InternalID:        f[0],
		Currency:          p[2],
		VariableSymbol:    p[4],
		ConstantSymbol:    p[5],
		SpecificSymbol:    p[6],
		Comment:           p[8],
		IBAN:              p[10],
		BIC:               p[11],
		PayeeName:         p[14],
		PayeeAddressLine1: p[15],
		PayeeAddressLine2: p[16],
	}
	if p[1] != "" {
		amount, err := money.ParseAmount(p[1])
		if err != nil {
			return nil, err
		}
		s.Amount = amount
	}
	due, err := ParseDate(p[3])
	if err != nil {
		return nil, err
	}
	s.DueDate = due
	return s, nil
}
