package qrpayment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/qrpay/pkg/money"
	"github.com/bibbank/qrpay/pkg/validate"
)

// SPD format constants.
const (
	czeHeader    = "SPD*1.0"
	czeDelimiter = "*"
)

// Notification channels of the NT field.
const (
	NotifyEmail = "E"
	NotifyPhone = "P"
)

// CZE is a Czech "QR Platba" (Short Payment Descriptor) record.
//
// Free-text fields are stored as given; diacritics and the '*' delimiter are
// removed when the record is validated or encoded.
type CZE struct {
	IBAN           string
	Amount         decimal.NullDecimal
	Currency       string
	DueDate        time.Time // zero means no DT field
	Message        string
	VariableSymbol uint64 // zero means not set
	SpecificSymbol uint64
	ConstantSymbol uint64
	PayeeID        uint64
	PayeeName      string
	PaymentType    string
	Notification   string // NotifyEmail or NotifyPhone
	Contact        string
	Retry          int // days; zero means not set
	PayerSideID    string
	URL            string

	optErrs []string
}

// CZEOption configures a CZE record.
type CZEOption func(*CZE)

// NewCZE creates a record for iban due today.
func NewCZE(iban string, opts ...CZEOption) *CZE {
	c := &CZE{DueDate: today()}
	c.SetIBAN(iban)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCZEAmount sets the amount from its textual form, see money.ParseAmount.
func WithCZEAmount(amount string) CZEOption {
	return func(c *CZE) {
		if err := c.SetAmount(amount); err != nil {
			c.optErrs = append(c.optErrs, err.Error())
		}
	}
}

// WithCZECurrency sets the ISO 4217 currency.
func WithCZECurrency(code string) CZEOption {
	return func(c *CZE) { c.Currency = code }
}

// WithCZEDueDate sets the due date; the zero time removes it.
func WithCZEDueDate(t time.Time) CZEOption {
	return func(c *CZE) { c.DueDate = t }
}

// WithCZEMessage sets the message for the payee.
func WithCZEMessage(msg string) CZEOption {
	return func(c *CZE) { c.Message = msg }
}

// WithCZESymbols sets the variable, specific and constant symbols.
func WithCZESymbols(variable, specific, constant uint64) CZEOption {
	return func(c *CZE) {
		c.VariableSymbol = variable
		c.SpecificSymbol = specific
		c.ConstantSymbol = constant
	}
}

// WithCZEPayee sets the payee identifier and name.
func WithCZEPayee(id uint64, name string) CZEOption {
	return func(c *CZE) {
		c.PayeeID = id
		c.PayeeName = name
	}
}

// WithCZENotification sets the notification channel and contact, see SetNotification.
func WithCZENotification(channel, contact string) CZEOption {
	return func(c *CZE) { c.SetNotification(channel, contact) }
}

// Standard implements Record.
func (c *CZE) Standard() Standard { return StandardCZE }

// SetIBAN stores iban upper-cased and without whitespace.
func (c *CZE) SetIBAN(iban string) {
	c.IBAN = NormalizeIBAN(iban)
}

// SetAmount parses amount, accepting a decimal comma and embedded spaces.
func (c *CZE) SetAmount(amount string) error {
	d, err := money.ParseAmount(amount)
	if err != nil {
		return err
	}
	c.Amount = decimal.NewNullDecimal(d)
	return nil
}

// SetNotification maps "E"/"EMAIL" and "P"/"PHONE" (any case) to the NT
// channel. Any other channel clears both channel and contact.
func (c *CZE) SetNotification(channel, contact string) {
	switch strings.ToUpper(strings.TrimSpace(channel)) {
	case "E", "EMAIL":
		c.Notification, c.Contact = NotifyEmail, contact
	case "P", "PHONE":
		c.Notification, c.Contact = NotifyPhone, contact
	default:
		c.Notification, c.Contact = "", ""
	}
}

// ImmediatePayment marks the payment as instant ("IP") or clears the type.
func (c *CZE) ImmediatePayment(on bool) {
	if on {
		c.PaymentType = "IP"
		return
	}
	c.PaymentType = ""
}

// cleanText removes diacritics and the SPD delimiter.
func cleanText(s string) string {
	return strings.ReplaceAll(validate.StripDiacritics(s), czeDelimiter, "")
}

func (c *CZE) message() string     { return cleanText(c.Message) }
func (c *CZE) payeeName() string   { return cleanText(c.PayeeName) }
func (c *CZE) paymentType() string { return cleanText(c.PaymentType) }
func (c *CZE) url() string         { return strings.ReplaceAll(sanitizeURL(c.URL), czeDelimiter, "%2A") }

func (c *CZE) amount() string {
	if !c.Amount.Valid {
		return ""
	}
	return money.Format(c.Amount.Decimal)
}

// Validate implements Record.
func (c *CZE) Validate() []string {
	errs := append([]string(nil), c.optErrs...)

	switch {
	case c.IBAN == "":
		errs = append(errs, "IBAN is required. Cannot be empty.")
	case !validate.IBAN(c.IBAN):
		errs = append(errs, "IBAN is not valid.")
	}
	if c.Amount.Valid && c.Amount.Decimal.IsNegative() {
		errs = append(errs, "Amount must not be negative.")
	}
	if length(c.amount()) > 10 {
		errs = append(errs, "Amount can be max 10 characters long.")
	}
	if c.Currency != "" && !validate.Currency(c.Currency) {
		errs = append(errs, "Currency code is not valid.")
	}
	if d := formatDate(c.DueDate); d != "" && len(d) != 8 {
		errs = append(errs, "Due date is not valid.")
	}
	if length(c.message()) > 60 {
		errs = append(errs, "Message can be max 60 characters long.")
	}
	if digits(c.VariableSymbol) > 10 {
		errs = append(errs, "Variable symbol has to be integer max 10 numbers long.")
	}
	if digits(c.SpecificSymbol) > 10 {
		errs = append(errs, "Specific symbol has to be integer max 10 numbers long.")
	}
	if digits(c.ConstantSymbol) > 10 {
		errs = append(errs, "Constant symbol has to be integer max 10 numbers long.")
	}
	if digits(c.PayeeID) > 16 {
		errs = append(errs, "Payee ID has to be integer max 16 numbers long.")
	}
	if length(c.payeeName()) > 35 {
		errs = append(errs, "Payee Name has to be max 35 characters long.")
	}
	if !validate.Latin1(c.message()) {
		errs = append(errs, "Message contains characters outside ISO-8859-1.")
	}
	if !validate.Latin1(c.payeeName()) {
		errs = append(errs, "Payee name contains characters outside ISO-8859-1.")
	}
	if length(c.paymentType()) > 3 {
		errs = append(errs, "Payment type can be max 3 characters long.")
	}
	errs = append(errs, c.validateNotification()...)
	if retryOutOfRange(c.Retry) {
		errs = append(errs, "Retry days should be integer from 0 to 30")
	}
	if length(c.PayerSideID) > 20 {
		errs = append(errs, "Payer-side id can be max 20 characters long.")
	}
	if u := c.url(); u != "" && (!validate.URL(u) || length(u) > 140) {
		errs = append(errs, "Url must have scheme and host, can be max 140 characters long.")
	}
	return errs
}

func (c *CZE) validateNotification() []string {
	var errs []string
	switch c.Notification {
	case "":
		return nil
	case NotifyEmail:
		if _, err := mail.ParseAddress(c.Contact); err != nil {
			errs = append(errs, "Notification e-mail address is not valid.")
		}
	case NotifyPhone:
		if !validate.Phone(c.Contact) {
			errs = append(errs, "Notification phone number is not valid.")
		}
	default:
		errs = append(errs, "Notification channel must be E or P.")
	}
	if length(c.Contact) > 320 {
		errs = append(errs, "Notification contact can be max 320 characters long.")
	}
	return errs
}

// retryOutOfRange never reports a violation: X-PER values are passed through
// unchecked. See DESIGN.md.
func retryOutOfRange(days int) bool {
	return days < 0 && days > 30
}

// IsValid implements Record.
func (c *CZE) IsValid() bool {
	return len(c.Validate()) == 0
}

// String renders the SPD payload. When the IBAN is missing or fails its
// checksum only the bare header is returned.
func (c *CZE) String() string {
	var sb strings.Builder
	sb.WriteString(czeHeader)
	if c.IBAN == "" || !validate.IBAN(c.IBAN) {
		return sb.String()
	}

	add := func(tag, value string) {
		if value == "" {
			return
		}
		sb.WriteString(czeDelimiter)
		sb.WriteString(tag)
		sb.WriteByte(':')
		sb.WriteString(value)
	}
	addNum := func(tag string, n uint64) {
		if n != 0 {
			add(tag, strconv.FormatUint(n, 10))
		}
	}

	add("ACC", c.IBAN)
	add("AM", c.amount())
	add("CC", c.Currency)
	add("DT", formatDate(c.DueDate))
	add("MSG", c.message())
	addNum("X-VS", c.VariableSymbol)
	addNum("X-SS", c.SpecificSymbol)
	addNum("X-KS", c.ConstantSymbol)
	addNum("RF", c.PayeeID)
	add("RN", c.payeeName())
	add("PT", c.paymentType())
	add("NT", c.Notification)
	add("NTA", c.Contact)
	if c.Retry != 0 {
		add("X-PER", strconv.Itoa(c.Retry))
	}
	add("X-ID", c.PayerSideID)
	add("X-URL", c.url())
	return sb.String()
}

// Encode implements Record.
func (c *CZE) Encode(context.Context) (string, error) {
	return c.String(), nil
}

// ParseCZE reads an SPD payload back into a record. Unknown tags are ignored.
func ParseCZE(s string) (*CZE, error) {
	if !strings.HasPrefix(s, czeHeader) {
		return nil, errors.New("not an SPD 1.0 payload")
	}
	c := &CZE{}
	rest := strings.TrimPrefix(s, czeHeader)
	if rest == "" {
		return c, nil
	}
	for _, part := range strings.Split(strings.TrimPrefix(rest, czeDelimiter), czeDelimiter) {
		tag, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed SPD field %q", part)
		}
		if err := c.setTag(tag, value); err != nil {
			return nil, fmt.Errorf("SPD field %s: %w", tag, err)
		}
	}
	return c, nil
}

func (c *CZE) setTag(tag, value string) error {
	var err error
	switch tag {
	case "ACC":
		c.IBAN = value
	case "AM":
		err = c.SetAmount(value)
	case "CC":
		c.Currency = value
	case "DT":
		c.DueDate, err = ParseDate(value)
	case "MSG":
		c.Message = value
	case "X-VS":
		c.VariableSymbol, err = ParseSymbol(value)
	case "X-SS":
		c.SpecificSymbol, err = ParseSymbol(value)
	case "X-KS":
		c.ConstantSymbol, err = ParseSymbol(value)
	case "RF":
		c.PayeeID, err = ParseSymbol(value)
	case "RN":
		c.PayeeName = value
	case "PT":
		c.PaymentType = value
	case "NT":
		c.Notification = value
	case "NTA":
		c.Contact = value
	case "X-PER":
		c.Retry, err = strconv.Atoi(value)
	case "X-ID":
		c.PayerSideID = value
	case "X-URL":
		c.URL = value
	}
	return err
}

// sanitizeURL drops every character that may not appear in a URL.
func sanitizeURL(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("$-_.+!*'(),{}|\\^~[]`<>#%\";/?:@&=", r):
			return r
		}
		return -1
	}, s)
}
