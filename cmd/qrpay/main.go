// Command qrpay encodes bank payment QR payloads from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/bibbank/qrpay/internal/config"
	"github.com/bibbank/qrpay/internal/dto"
	"github.com/bibbank/qrpay/pkg/bysquare"
	"github.com/bibbank/qrpay/pkg/lzma"
	"github.com/bibbank/qrpay/pkg/observability"
	"github.com/bibbank/qrpay/pkg/qrpayment"
	"github.com/bibbank/qrpay/pkg/render"
)

// Globals are flags shared by every command.
type Globals struct {
	LogLevel   string        `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"LOG_LEVEL"`
	Compressor string        `help:"LZMA backend for Pay by square" enum:"native,xz" default:"native" env:"QRPAY_COMPRESSOR"`
	XZPath     string        `name:"xz-path" help:"Path to the xz binary" type:"path" env:"QRPAY_XZ_PATH"`
	XZTimeout  time.Duration `name:"xz-timeout" help:"Timeout for one xz invocation" default:"10s" env:"QRPAY_XZ_TIMEOUT"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

// CLI defines the command-line interface for qrpay.
type CLI struct {
	Globals

	CZE         CZECmd         `cmd:"" name:"cze" help:"Czech Short Payment Descriptor (SPD)"`
	EPC         EPCCmd         `cmd:"" name:"epc" help:"EPC SEPA credit transfer (BCD)"`
	POL         POLCmd         `cmd:"" name:"pol" help:"Polish bank transfer code"`
	SVK         SVKCmd         `cmd:"" name:"svk" help:"Slovak Pay by square"`
	DecodeSVK   DecodeSVKCmd   `cmd:"" name:"decode-svk" help:"Decode a Pay by square payload"`
	DecodeImage DecodeImageCmd `cmd:"" name:"decode-image" help:"Read the payload from a QR code image"`
}

// PaymentFlags are the fields every standard accepts.
type PaymentFlags struct {
	IBAN      string `arg:"" name:"iban" help:"Payee account IBAN"`
	Amount    string `short:"a" help:"Amount, decimal point or comma"`
	Currency  string `short:"c" help:"ISO 4217 currency code"`
	DueDate   string `name:"due" help:"Due date, YYYYMMDD or YYYY-MM-DD"`
	PayeeName string `name:"payee" help:"Payee name"`
	Message   string `short:"m" help:"Message, remittance text or payment title"`
}

// OutputFlags control how an encoded payload is emitted.
type OutputFlags struct {
	PNG    string `name:"png" help:"Also render the code to this PNG file" type:"path"`
	Size   int    `help:"PNG size in pixels" default:"300"`
	Level  string `help:"Error correction level (low, medium, quartile, high)" default:"medium"`
	Strict bool   `help:"Fail instead of warning when the payment is not valid"`
}

// CZECmd encodes a Czech SPD payload.
type CZECmd struct {
	PaymentFlags `embed:""`
	OutputFlags  `embed:""`

	VS          string `name:"vs" help:"Variable symbol"`
	SS          string `name:"ss" help:"Specific symbol"`
	KS          string `name:"ks" help:"Constant symbol"`
	PayeeID     string `name:"payee-id" help:"Payee reference (RF)"`
	PaymentType string `name:"type" help:"Payment type (PT)"`
	Instant     bool   `help:"Request an instant payment"`
	Notify      string `help:"Notification channel, email or phone"`
	Contact     string `help:"Notification e-mail or phone"`
	Retry       int    `help:"Days to retry an unsuccessful payment"`
	PayerSideID string `name:"payer-id" help:"Payer side identifier (X-ID)"`
	URL         string `name:"url" help:"Link shown to the payer (X-URL)"`
}

func (c *CZECmd) Run(g *Globals) error {
	req := c.request()
	req.VariableSymbol = c.VS
	req.SpecificSymbol = c.SS
	req.ConstantSymbol = c.KS
	req.PayeeID = c.PayeeID
	req.PaymentType = c.PaymentType
	req.Instant = c.Instant
	req.Notification = c.Notify
	req.Contact = c.Contact
	req.RetryDays = c.Retry
	req.PayerSideID = c.PayerSideID
	req.URL = c.URL
	return g.emit(qrpayment.StandardCZE, req, c.OutputFlags)
}

// EPCCmd encodes an EPC QR payload.
type EPCCmd struct {
	PaymentFlags `embed:""`
	OutputFlags  `embed:""`

	BIC          string `name:"bic" help:"Payee bank SWIFT-BIC"`
	Version      int    `help:"EPC version, 1 or 2" default:"1"`
	CharacterSet string `name:"charset" help:"Character set code, 1 (UTF-8) to 8"`
	Purpose      string `help:"Four letter purpose code"`
	Reference    string `help:"Structured creditor reference"`
	Information  string `name:"info" help:"Beneficiary to originator information"`
}

func (c *EPCCmd) Run(g *Globals) error {
	req := c.request()
	req.BIC = c.BIC
	req.Version = c.Version
	req.CharacterSet = c.CharacterSet
	req.Purpose = c.Purpose
	req.Reference = c.Reference
	req.Information = c.Information
	return g.emit(qrpayment.StandardEPC, req, c.OutputFlags)
}

// POLCmd encodes a Polish transfer payload.
type POLCmd struct {
	PaymentFlags `embed:""`
	OutputFlags  `embed:""`

	NIP           string `name:"nip" help:"Payee tax number"`
	DirectDebitID string `name:"direct-debit" help:"Direct debit identifier"`
	InvoiceID     string `name:"invoice" help:"Invoice identifier"`
	Reserved      string `help:"Reserved field"`
}

func (c *POLCmd) Run(g *Globals) error {
	req := c.request()
	req.NIP = c.NIP
	req.DirectDebitID = c.DirectDebitID
	req.InvoiceID = c.InvoiceID
	req.Reserved = c.Reserved
	return g.emit(qrpayment.StandardPOL, req, c.OutputFlags)
}

// SVKCmd encodes a Pay by square payload.
type SVKCmd struct {
	PaymentFlags `embed:""`
	OutputFlags  `embed:""`

	BIC          string `name:"bic" help:"Payee bank SWIFT-BIC"`
	VS           string `name:"vs" help:"Variable symbol"`
	KS           string `name:"ks" help:"Constant symbol"`
	SS           string `name:"ss" help:"Specific symbol"`
	InternalID   string `name:"id" help:"Payment identifier"`
	Country      string `help:"Payee country, ISO 3166 alpha-3" default:"SVK"`
	AddressLine1 string `name:"address1" help:"Payee address, first line"`
	AddressLine2 string `name:"address2" help:"Payee address, second line"`
}

func (c *SVKCmd) Run(g *Globals) error {
	req := c.request()
	req.BIC = c.BIC
	req.VariableSymbol = c.VS
	req.ConstantSymbol = c.KS
	req.SpecificSymbol = c.SS
	req.InternalID = c.InternalID
	req.Country = c.Country
	req.AddressLine1 = c.AddressLine1
	req.AddressLine2 = c.AddressLine2
	return g.emit(qrpayment.StandardSVK, req, c.OutputFlags)
}

// DecodeSVKCmd prints the fields of a Pay by square payload.
type DecodeSVKCmd struct {
	Payload string `arg:"" help:"Pay by square text"`
	Raw     bool   `help:"Print the tab separated payload instead of JSON"`
}

func (c *DecodeSVKCmd) Run(g *Globals) error {
	if c.Raw {
		raw, err := bysquare.Decode(c.Payload)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(g.Stdout, string(raw))
		return err
	}
	s, err := qrpayment.DecodeSVK(c.Payload)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(g.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.FromSVK(s))
}

// DecodeImageCmd prints the text of a QR code in a PNG or JPEG image.
type DecodeImageCmd struct {
	File string `arg:"" help:"Image file" type:"existingfile"`
}

func (c *DecodeImageCmd) Run(g *Globals) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	text, err := render.DecodeImage(img)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.Stdout, text)
	return err
}

func (p PaymentFlags) request() dto.PaymentRequest {
	return dto.PaymentRequest{
		IBAN:      p.IBAN,
		Amount:    p.Amount,
		Currency:  p.Currency,
		DueDate:   p.DueDate,
		PayeeName: p.PayeeName,
		Message:   p.Message,
	}
}

func (g *Globals) logger() *slog.Logger {
	return observability.InitLogger(observability.LogConfig{
		Level:  g.LogLevel,
		Format: "text",
		Output: g.Stderr,
	})
}

// emit validates and encodes the payment, printing violations to stderr and
// the payload to stdout.
func (g *Globals) emit(std qrpayment.Standard, req dto.PaymentRequest, out OutputFlags) error {
	ctx := context.Background()
	logger := g.logger()

	cfg := config.Config{Compressor: g.Compressor, XZPath: g.XZPath, XZTimeout: g.XZTimeout}
	compressor, _ := cfg.NewCompressor(logger)

	rec, err := req.ToRecord(std, compressor)
	if err != nil {
		return err
	}
	if err := qrpayment.Err(rec); err != nil {
		if out.Strict {
			return err
		}
		for _, msg := range rec.Validate() {
			fmt.Fprintln(g.Stderr, "warning:", msg)
		}
	}

	payload, err := rec.Encode(ctx)
	if err != nil {
		if errors.Is(err, lzma.ErrUnavailable) {
			return fmt.Errorf("%w (install xz or use --compressor=native)", err)
		}
		return err
	}

	if out.PNG != "" {
		level, err := render.ParseLevel(out.Level)
		if err != nil {
			return err
		}
		opts := render.DefaultOptions()
		opts.Size = out.Size
		opts.Level = level
		png, err := render.PNG(payload, opts)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out.PNG, png, 0o644); err != nil {
			return err
		}
		logger.Info("wrote QR code", "standard", std.String(), "file", out.PNG, "bytes", len(png))
	}

	_, err = fmt.Fprintln(g.Stdout, payload)
	return err
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	cli := CLI{Globals: Globals{Stdout: stdout, Stderr: stderr}}
	parser, err := kong.New(&cli,
		kong.Name("qrpay"),
		kong.Description("Encode and decode bank payment QR codes (CZE, EPC, POL, SVK)."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&cli.Globals)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "qrpay:", err)
		os.Exit(1)
	}
}
