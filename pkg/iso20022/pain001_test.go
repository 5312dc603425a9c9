package iso20022

import (
	"encoding/xml"
	"strings"
	"errors"
	"testing"
	"time"
	"unicode/utf8"
)

func TestCreditTransferInitiationType(t *testing.T) {
	msg := CreditTransferInitiation{}
	if msg.Type() != Pain001 {
		t.Errorf("expected %s, got %s", Pain001, msg.Type())
	}
}

func sampleInitiation() CreditTransferInitiation {
	return CreditTransferInitiation{
		Header: MessageHeader{
			MessageID:    "MSG-001",
			CreationDate: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			From:         PartyIdentification{Name: "qrpay"},
		},
		PaymentInfo: []PaymentInstructionInfo{
			{
				PaymentInfoID: "PI-001",
				PaymentMethod: "TRF",
				ExecutionDate: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
				DebtorName:    "Acme Corp",
				DebtorAccount: "DE89370400440532013000",
				DebtorAgent:   "COBADEFFXXX",
				Transactions: []CreditTransferTransaction{
					{
						EndToEndID:      "E2E-001",
						Amount:          "1000.00",
						Currency:        "EUR",
						CreditorName:    "Widget Inc",
						CreditorAccount: "GB29NWBK60161331926819",
						CreditorAgent:   "NWBKGB2LXXX",
						RemittanceInfo:  "Invoice 12345",
					},
					{
						EndToEndID:      "E2E-002",
						Amount:          "24.5",
						Currency:        "EUR",
						CreditorName:    "Franz Mustermann",
						CreditorAccount: "AT611904300234573201",
						Purpose:         "GDDS",
					},
				},
			},
		},
	}
}

func TestCreditTransferInitiationToXML(t *testing.T) {
	data, err := sampleInitiation().ToXML()
	if err != nil {
		t.Fatalf("ToXML() returned error: %v", err)
	}

	var doc pain001Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("produced invalid XML: %v", err)
	}

	if !strings.HasPrefix(string(data), xml.Header) {
		t.Error("XML declaration missing")
	}
	if !strings.Contains(string(data), pain001Namespace) {
		t.Error("XML does not contain expected pain.001 namespace")
	}

	hdr := doc.CstmrCdtTrfInitn.GrpHdr
	if hdr.MsgID != "MSG-001" {
		t.Errorf("expected MsgId MSG-001, got %s", hdr.MsgID)
	}
	if hdr.NbOfTxs != "2" {
		t.Errorf("expected NbOfTxs 2, got %s", hdr.NbOfTxs)
	}
	if hdr.CtrlSum != "1024.50" {
		t.Errorf("expected CtrlSum 1024.50, got %s", hdr.CtrlSum)
	}

	if len(doc.CstmrCdtTrfInitn.PmtInf) != 1 {
		t.Fatalf("expected 1 PmtInf, got %d", len(doc.CstmrCdtTrfInitn.PmtInf))
	}
	pmt := doc.CstmrCdtTrfInitn.PmtInf[0]
	if pmt.ReqdExctnDt.Dt != "2025-01-20" {
		t.Errorf("expected execution date 2025-01-20, got %s", pmt.ReqdExctnDt.Dt)
	}
	if pmt.DbtrAcct.ID.IBAN != "DE89370400440532013000" || pmt.DbtrAgt.FinInstnID.BICFI != "COBADEFFXXX" {
		t.Errorf("unexpected debtor account %+v", pmt.DbtrAcct)
	}

	second := pmt.CdtTrfTxInf[1]
	if second.Amt.InstdAmt.Value != "24.50" || second.Amt.InstdAmt.Ccy != "EUR" {
		t.Errorf("unexpected amount %+v", second.Amt.InstdAmt)
	}
	if second.CdtrAgt != nil {
		t.Errorf("expected no creditor agent, got %+v", second.CdtrAgt)
	}
	if second.Purp == nil || second.Purp.Cd != "GDDS" {
		t.Errorf("unexpected purpose %+v", second.Purp)
	}
	if second.RmtInf != nil {
		t.Errorf("expected no remittance info, got %+v", second.RmtInf)
	}
}

func TestCreditTransferInitiationInvalidAmount(t *testing.T) {
	msg := sampleInitiation()
	msg.PaymentInfo[0].Transactions[0].Amount = "12,00"
	if _, err := msg.ToXML(); err == nil {
		t.Fatal("expected error for malformed amount")
	}
}

func TestNewCreditTransferInitiation(t *testing.T) {
	msg := NewCreditTransferInitiation("qrpay", PaymentInstructionInfo{
		DebtorAccount: "DE89370400440532013000",
		DebtorAgent:   "COBADEFFXXX",
		Transactions:  []CreditTransferTransaction{{EndToEndID: "E2E", Amount: "1", Currency: "EUR"}},
	})

	if len(msg.Header.MessageID) != 32 {
		t.Errorf("message ID %q is not 32 characters", msg.Header.MessageID)
	}
	if len(msg.PaymentInfo[0].PaymentInfoID) != 32 {
		t.Errorf("payment info ID %q is not 32 characters", msg.PaymentInfo[0].PaymentInfoID)
	}
	if msg.Header.MessageID == msg.PaymentInfo[0].PaymentInfoID {
		t.Error("message and payment info IDs must differ")
	}
	if msg.PaymentInfo[0].PaymentMethod != "TRF" {
		t.Errorf("expected TRF, got %s", msg.PaymentInfo[0].PaymentMethod)
	}
	if msg.Header.From.Name != "qrpay" {
		t.Errorf("expected initiating party qrpay, got %s", msg.Header.From.Name)
	}

	data, err := msg.ToXML()
	if err != nil {
		t.Fatalf("ToXML() returned error: %v", err)
	}
	if !strings.Contains(string(data), "<CtrlSum>1.00</CtrlSum>") {
		t.Errorf("control sum missing in %s", data)
	}
}

func TestNewID(t *testing.T) {
	id := NewID()
	if len(id) != 32 || strings.Contains(id, "-") {
		t.Errorf("unexpected ID %q", id)
	}
	if id == NewID() {
		t.Error("IDs must be unique")
	}
}

func TestCreditTransferInitiationIDLimits(t *testing.T) {
	long := strings.Repeat("x", MaxIDLength+1)
	tests := []struct {
		name   string
		mutate func(*CreditTransferInitiation)
	}{
		{"empty message ID", func(c *CreditTransferInitiation) { c.Header.MessageID = "" }},
		{"long message ID", func(c *CreditTransferInitiation) { c.Header.MessageID = long }},
		{"long payment info ID", func(c *CreditTransferInitiation) { c.PaymentInfo[0].PaymentInfoID = long }},
		{"long end-to-end ID", func(c *CreditTransferInitiation) { c.PaymentInfo[0].Transactions[1].EndToEndID = long }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := sampleInitiation()
			tt.mutate(&msg)
			if _, err := msg.ToXML(); !errors.Is(err, ErrInvalidID) {
				t.Errorf("expected ErrInvalidID, got %v", err)
			}
		})
	}

	msg := sampleInitiation()
	msg.Header.MessageID = strings.Repeat("é", MaxIDLength)
	if _, err := msg.ToXML(); err != nil {
		t.Errorf("35 characters must be accepted: %v", err)
	}
	if utf8.RuneCountInString(msg.Header.MessageID) != MaxIDLength {
		t.Fatal("fixture must be exactly MaxIDLength characters")
	}
}

func TestCreditTransferInitiationRequiresDebtor(t *testing.T) {
	msg := sampleInitiation()
	msg.PaymentInfo[0].DebtorAccount = ""
	if _, err := msg.ToXML(); !errors.Is(err, ErrMissingDebtor) {
		t.Errorf("expected ErrMissingDebtor, got %v", err)
	}

	msg = sampleInitiation()
	msg.PaymentInfo[0].DebtorAgent = ""
	if _, err := msg.ToXML(); !errors.Is(err, ErrMissingDebtor) {
		t.Errorf("expected ErrMissingDebtor, got %v", err)
	}
}
