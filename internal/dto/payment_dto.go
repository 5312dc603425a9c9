package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibbank/qrpay/pkg/iso20022"
	"github.com/bibbank/qrpay/pkg/lzma"
	"github.com/bibbank/qrpay/pkg/qrpayment"
	"github.com/bibbank/qrpay/pkg/validate"
)

// PaymentRequest is the input DTO shared by every standard. Fields a standard
// does not carry are ignored. Message becomes the CZE message, the EPC
// remittance text, the POL payment title or the SVK comment.
type PaymentRequest struct {
	IBAN      string `json:"iban"`
	BIC       string `json:"bic,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	DueDate   string `json:"due_date,omitempty"` // YYYYMMDD or YYYY-MM-DD
	PayeeName string `json:"payee_name,omitempty"`
	Message   string `json:"message,omitempty"`

	// CZE and SVK
	VariableSymbol string `json:"variable_symbol,omitempty"`
	SpecificSymbol string `json:"specific_symbol,omitempty"`
	ConstantSymbol string `json:"constant_symbol,omitempty"`

	// CZE
	PayeeID      string `json:"payee_id,omitempty"`
	PaymentType  string `json:"payment_type,omitempty"`
	Instant      bool   `json:"instant,omitempty"`
	Notification string `json:"notification,omitempty"`
	Contact      string `json:"contact,omitempty"`
	RetryDays    int    `json:"retry_days,omitempty"`
	PayerSideID  string `json:"payer_side_id,omitempty"`
	URL          string `json:"url,omitempty"`

	// EPC
	Version      int    `json:"version,omitempty"`
	CharacterSet string `json:"character_set,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
	Reference    string `json:"reference,omitempty"`
	Information  string `json:"information,omitempty"`

	// POL
	NIP           string `json:"nip,omitempty"`
	DirectDebitID string `json:"direct_debit_id,omitempty"`
	InvoiceID     string `json:"invoice_id,omitempty"`
	Reserved      string `json:"reserved,omitempty"`

	// SVK
	InternalID   string `json:"internal_id,omitempty"`
	Country      string `json:"country,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`

	// pain.001 export
	DebtorName string `json:"debtor_name,omitempty"`
	DebtorIBAN string `json:"debtor_iban,omitempty"`
	DebtorBIC  string `json:"debtor_bic,omitempty"`
}

// ErrDebtor reports missing or malformed debtor details of a pain.001 export.
var ErrDebtor = errors.New("invalid debtor")

// DefaultSVKCountry is the payee country of an SVK request that names none.
const DefaultSVKCountry = "SVK"

// EncodeResponse is the output DTO of an encode call.
type EncodeResponse struct {
	Standard string   `json:"standard"`
	Payload  string   `json:"payload,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// ToRecord builds the record for std. Malformed dates and symbols are
// returned as errors; field violations are left to Validate. The compressor
// is only used by SVK records.
func (r PaymentRequest) ToRecord(std qrpayment.Standard, c lzma.Compressor) (qrpayment.Record, error) {
	due, err := qrpayment.ParseDate(r.DueDate)
	if err != nil {
		return nil, err
	}

	switch std {
	case qrpayment.StandardCZE:
		return r.cze(due)
	case qrpayment.StandardEPC:
		return r.epc(), nil
	case qrpayment.StandardPOL:
		return r.pol(), nil
	case qrpayment.StandardSVK:
		return r.svk(due, c), nil
	}
	return nil, fmt.Errorf("unknown payment standard: %q", std)
}

func (r PaymentRequest) cze(due time.Time) (*qrpayment.CZE, error) {
	var symbols [4]uint64
	for i, s := range []string{r.VariableSymbol, r.SpecificSymbol, r.ConstantSymbol, r.PayeeID} {
		n, err := qrpayment.ParseSymbol(s)
		if err != nil {
			return nil, err
		}
		symbols[i] = n
	}

	opts := []qrpayment.CZEOption{
		qrpayment.WithCZECurrency(r.Currency),
		qrpayment.WithCZEMessage(r.Message),
		qrpayment.WithCZESymbols(symbols[0], symbols[1], symbols[2]),
		qrpayment.WithCZEPayee(symbols[3], r.PayeeName),
		qrpayment.WithCZENotification(r.Notification, r.Contact),
	}
	if r.Amount != "" {
		opts = append(opts, qrpayment.WithCZEAmount(r.Amount))
	}
	if !due.IsZero() {
		opts = append(opts, qrpayment.WithCZEDueDate(due))
	}

	c := qrpayment.NewCZE(r.IBAN, opts...)
	c.PaymentType = r.PaymentType
	if r.Instant {
		c.ImmediatePayment(true)
	}
	c.Retry = r.RetryDays
	c.PayerSideID = r.PayerSideID
	c.URL = r.URL
	return c, nil
}

func (r PaymentRequest) epc() *qrpayment.EPC {
	opts := []qrpayment.EPCOption{
		qrpayment.WithEPCPayee(r.PayeeName),
		qrpayment.WithEPCRemittanceText(r.Message),
	}
	if r.Amount != "" {
		opts = append(opts, qrpayment.WithEPCAmount(r.Amount))
	}
	if r.Version != 0 {
		opts = append(opts, qrpayment.WithEPCVersion(r.Version))
	}

	e := qrpayment.NewEPC(r.IBAN, r.BIC, opts...)
	if r.Currency != "" {
		e.Currency = r.Currency
	}
	if r.CharacterSet != "" {
		e.CharacterSet = r.CharacterSet
	}
	e.Purpose = r.Purpose
	e.RemittanceReference = r.Reference
	e.Information = r.Information
	return e
}

func (r PaymentRequest) pol() *qrpayment.POL {
	opts := []qrpayment.POLOption{
		qrpayment.WithPOLNIP(r.NIP),
		qrpayment.WithPOLPayee(r.PayeeName),
		qrpayment.WithPOLTitle(r.Message),
	}
	if r.Amount != "" {
		opts = append(opts, qrpayment.WithPOLAmount(r.Amount))
	}

	p := qrpayment.NewPOL(r.IBAN, opts...)
	p.SetDirectDebitID(r.DirectDebitID)
	p.SetInvoiceID(r.InvoiceID)
	p.SetReserved(r.Reserved)
	return p
}

func (r PaymentRequest) svk(due time.Time, c lzma.Compressor) *qrpayment.SVK {
	opts := []qrpayment.SVKOption{
		qrpayment.WithSVKSymbols(r.VariableSymbol, r.ConstantSymbol, r.SpecificSymbol),
		qrpayment.WithSVKComment(r.Message),
		qrpayment.WithSVKPayee(r.PayeeName, r.AddressLine1, r.AddressLine2),
		qrpayment.WithSVKCompressor(c),
	}
	if r.Amount != "" {
		opts = append(opts, qrpayment.WithSVKAmount(r.Amount))
	}
	if !due.IsZero() {
		opts = append(opts, qrpayment.WithSVKDueDate(due))
	}

	s := qrpayment.NewSVK(r.IBAN, r.BIC, opts...)
	s.InternalID = r.InternalID
	if r.Currency != "" {
		s.Currency = r.Currency
	}
	s.Country = DefaultSVKCountry
	if r.Country != "" {
		s.Country = r.Country
	}
	return s
}

// FromSVK maps a decoded Pay by square record back to a request.
func FromSVK(s *qrpayment.SVK) PaymentRequest {
	req := PaymentRequest{
		IBAN:           s.IBAN,
		BIC:            s.BIC,
		Currency:       s.Currency,
		PayeeName:      s.PayeeName,
		Message:        s.Comment,
		VariableSymbol: s.VariableSymbol,
		SpecificSymbol: s.SpecificSymbol,
		ConstantSymbol: s.ConstantSymbol,
		InternalID:     s.InternalID,
		Country:        s.Country,
		AddressLine1:   s.PayeeAddressLine1,
		AddressLine2:   s.PayeeAddressLine2,
	}
	if !s.Amount.IsZero() {
		req.Amount = s.Amount.StringFixed(2)
	}
	if !s.DueDate.IsZero() {
		req.DueDate = s.DueDate.Format("20060102")
	}
	return req
}

// PaymentInstruction returns the pain.001 payment instruction debiting the
// request's debtor. Transactions are left to the caller.
func (r PaymentRequest) PaymentInstruction() (iso20022.PaymentInstructionInfo, error) {
	iban := qrpayment.NormalizeIBAN(r.DebtorIBAN)
	bic := strings.ToUpper(strings.TrimSpace(r.DebtorBIC))
	switch {
	case iban == "" || bic == "":
		return iso20022.PaymentInstructionInfo{}, fmt.Errorf("%w: debtor_iban and debtor_bic are required", ErrDebtor)
	case !validate.IBAN(iban):
		return iso20022.PaymentInstructionInfo{}, fmt.Errorf("%w: debtor_iban is not valid", ErrDebtor)
	case !validate.BIC(bic):
		return iso20022.PaymentInstructionInfo{}, fmt.Errorf("%w: debtor_bic is not valid", ErrDebtor)
	}
	return iso20022.PaymentInstructionInfo{
		DebtorName:    strings.TrimSpace(r.DebtorName),
		DebtorAccount: iban,
		DebtorAgent:   bic,
	}, nil
}
