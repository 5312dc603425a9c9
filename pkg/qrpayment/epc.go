package qrpayment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/qrpay/pkg/iso20022"
	"github.com/bibbank/qrpay/pkg/money"
	"github.com/bibbank/qrpay/pkg/validate"
)

// EPC header defaults.
const (
	EPCServiceTag     = "BCD"
	EPCVersion1       = "001"
	EPCVersion2       = "002"
	EPCIdentification = "SCT"
)

// EPC character set codes.
const (
	CharsetUTF8 = iota + 1
	CharsetISO8859_1
	CharsetISO8859_2
	CharsetISO8859_4
	CharsetISO8859_5
	CharsetISO8859_7
	CharsetISO8859_10
	CharsetISO8859_15
)

const epcLines = 12

// EPC is a European Payments Council "BCD" SEPA credit transfer record.
type EPC struct {
	ServiceTag          string
	Version             string
	CharacterSet        string
	Identification      string
	BIC                 string
	PayeeName           string
	IBAN                string
	Currency            string
	Amount              decimal.Decimal
	Purpose             string
	RemittanceReference string
	RemittanceText      string
	Information         string

	optErrs []string
}

// EPCOption configures an EPC record.
type EPCOption func(*EPC)

// NewEPC creates a version 001 UTF-8 record in EUR.
func NewEPC(iban, bic string, opts ...EPCOption) *EPC {
	e := &EPC{
		ServiceTag:     EPCServiceTag,
		Version:        EPCVersion1,
		CharacterSet:   strconv.Itoa(CharsetUTF8),
		Identification: EPCIdentification,
		BIC:            bic,
		Currency:       money.EUR.Code(),
	}
	e.SetIBAN(iban)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithEPCAmount sets the amount from its textual form.
func WithEPCAmount(amount string) EPCOption {
	return func(e *EPC) {
		d, err := money.ParseAmount(amount)
		if err != nil {
			e.optErrs = append(e.optErrs, err.Error())
			return
		}
		e.Amount = d
	}
}

// WithEPCPayee sets the beneficiary name.
func WithEPCPayee(name string) EPCOption {
	return func(e *EPC) { e.PayeeName = name }
}

// WithEPCRemittanceText sets the unstructured remittance information.
func WithEPCRemittanceText(text string) EPCOption {
	return func(e *EPC) { e.RemittanceText = text }
}

// WithEPCVersion selects format version 1 or 2.
func WithEPCVersion(v int) EPCOption {
	return func(e *EPC) { e.SetVersion(v) }
}

// Standard implements Record.
func (e *EPC) Standard() Standard { return StandardEPC }

// SetIBAN stores iban upper-cased and without whitespace.
func (e *EPC) SetIBAN(iban string) {
	e.IBAN = NormalizeIBAN(iban)
}

// SetVersion maps 1 and 2 to "001" and "002"; other values are stored verbatim.
func (e *EPC) SetVersion(v int) {
	switch v {
	case 1:
		e.Version = EPCVersion1
	case 2:
		e.Version = EPCVersion2
	default:
		e.Version = strconv.Itoa(v)
	}
}

// FormatMoney renders the EPC amount line: the upper-cased currency followed
// by the amount with two decimals, or the bare currency when value is not
// positive.
func FormatMoney(currency string, value decimal.Decimal) string {
	if !value.IsPositive() {
		return strings.ToUpper(currency)
	}
	return strings.ToUpper(currency) + money.Format(value)
}

func (e *EPC) amountLine() string {
	if !e.Amount.IsPositive() {
		return ""
	}
	return FormatMoney(e.Currency, e.Amount)
}

// Validate implements Record.
func (e *EPC) Validate() []string {
	errs := append([]string(nil), e.optErrs...)

	if length(e.ServiceTag) > 3 {
		errs = append(errs, "Service tag can be max 3 characters long.")
	}
	if length(e.Version) > 3 {
		errs = append(errs, "Version can be max 3 characters long.")
	}
	if length(e.CharacterSet) > 1 {
		errs = append(errs, "Character set can be max 1 characters long.")
	} else if e.CharacterSet != "" && !validCharset(e.CharacterSet) {
		errs = append(errs, "Character set must be a code from 1 to 8.")
	}
	if length(e.Identification) > 3 {
		errs = append(errs, "Identification can be max 3 characters long.")
	}
	if length(e.PayeeName) > 70 {
		errs = append(errs, "Payee name can be max 70 characters long.")
	}
	if e.Currency != "" && !validate.Currency(e.Currency) {
		errs = append(errs, "Currency code is not valid.")
	}
	if e.Amount.IsNegative() {
		errs = append(errs, "Amount must not be negative.")
	}
	if length(e.amountLine()) > 12 {
		errs = append(errs, "Amount can be max 12 characters long.")
	}
	if length(e.Purpose) > 4 {
		errs = append(errs, "Purpose can be max 4 characters long.")
	}
	if length(e.RemittanceReference) > 35 {
		errs = append(errs, "Remittance reference can be max 35 characters long.")
	}
	if length(e.RemittanceText) > 140 {
		errs = append(errs, "Remittance text can be max 140 characters long.")
	}
	if e.RemittanceReference != "" && e.RemittanceText != "" {
		errs = append(errs, "Use either remittance reference or remittance text, not both.")
	}
	if length(e.Information) > 70 {
		errs = append(errs, "Information can be max 70 characters long.")
	}
	switch {
	case e.IBAN == "":
		errs = append(errs, "IBAN is required.")
	case !validate.IBAN(e.IBAN):
		errs = append(errs, "IBAN is not valid.")
	}
	if e.BIC == "" && (e.Version == EPCVersion1 || e.Currency != money.EUR.Code()) {
		errs = append(errs, "SWIFT-BIC is required for version 1 or when currency is not EUR.")
	}
	if e.BIC != "" && !validate.BIC(e.BIC) {
		errs = append(errs, "SWIFT-BIC is not valid.")
	}
	return errs
}

func validCharset(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= CharsetUTF8 && n <= CharsetISO8859_15
}

// IsValid implements Record.
func (e *EPC) IsValid() bool {
	return len(e.Validate()) == 0
}

// String renders the twelve newline separated EPC lines, with trailing empty
// lines removed.
func (e *EPC) String() string {
	lines := []string{
		e.ServiceTag,
		e.Version,
		e.CharacterSet,
		e.Identification,
		e.BIC,
		e.PayeeName,
		e.IBAN,
		e.amountLine(),
		e.Purpose,
		e.RemittanceReference,
		e.RemittanceText,
		e.Information,
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Encode implements Record.
func (e *EPC) Encode(context.Context) (string, error) {
	return e.String(), nil
}

// ParseEPC reads an EPC payload back into a record.
func ParseEPC(s string) (*EPC, error) {
	lines := strings.Split(s, "\n")
	if len(lines) > epcLines {
		return nil, fmt.Errorf("EPC payload has %d lines, want at most %d", len(lines), epcLines)
	}
	if lines[0] != EPCServiceTag {
		return nil, errors.New("not an EPC payload")
	}
	for len(lines) < epcLines {
		lines = append(lines, "")
	}

	e := &EPC{
		ServiceTag:          lines[0],
		Version:             lines[1],
		CharacterSet:        lines[2],
		Identification:      lines[3],
		BIC:                 lines[4],
		PayeeName:           lines[5],
		IBAN:                lines[6],
		Purpose:             lines[8],
		RemittanceReference: lines[9],
		RemittanceText:      lines[10],
		Information:         lines[11],
	}
	if amount := lines[7]; amount != "" {
		if len(amount) < 3 {
			return nil, fmt.Errorf("malformed EPC amount %q", amount)
		}
		e.Currency = amount[:3]
		if len(amount) > 3 {
			d, err := money.ParseAmount(amount[3:])
			if err != nil {
				return nil, err
			}
			e.Amount = d
		}
	}
	return e, nil
}

// CreditTransfer describes the payment as an ISO 20022 credit transfer
// transaction. An empty endToEndID is replaced by iso20022.NewID and a longer
// one than iso20022.MaxIDLength is cut to that length.
func (e *EPC) CreditTransfer(endToEndID string) iso20022.CreditTransferTransaction {
	if endToEndID == "" {
		endToEndID = iso20022.NewID()
	}
	if r := []rune(endToEndID); len(r) > iso20022.MaxIDLength {
		endToEndID = string(r[:iso20022.MaxIDLength])
	}
	remittance := e.RemittanceText
	if remittance == "" {
		remittance = e.RemittanceReference
	}
	return iso20022.CreditTransferTransaction{
		EndToEndID:      endToEndID,
		Amount:          money.Format(e.Amount),
		Currency:        strings.ToUpper(e.Currency),
		CreditorName:    e.PayeeName,
		CreditorAccount: e.IBAN,
		CreditorAgent:   e.BIC,
		Purpose:         e.Purpose,
		RemittanceInfo:  remittance,
	}
}
