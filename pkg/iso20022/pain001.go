package iso20022

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const pain001Namespace = "urn:iso:std:iso:20022:tech:xsd:" + string(Pain001)

// CreditTransferInitiation represents pain.001 message.
type CreditTransferInitiation struct {
	Header      MessageHeader
	PaymentInfo []PaymentInstructionInfo
}

var _ Message = CreditTransferInitiation{}

// NewCreditTransferInitiation wraps the given instructions in a message with
// a fresh NewID message ID. Instructions without an ID get one too, and an
// empty payment method defaults to "TRF".
func NewCreditTransferInitiation(initiator string, infos ...PaymentInstructionInfo) CreditTransferInitiation {
	for i := range infos {
		if infos[i].PaymentInfoID == "" {
			infos[i].PaymentInfoID = NewID()
		}
		if infos[i].PaymentMethod == "" {
			infos[i].PaymentMethod = "TRF"
		}
	}
	return CreditTransferInitiation{
		Header: MessageHeader{
			MessageID:    NewID(),
			CreationDate: time.Now().UTC(),
			From:         PartyIdentification{Name: initiator},
		},
		PaymentInfo: infos,
	}
}

func (c CreditTransferInitiation) Type() MessageType { return Pain001 }

// ToXML renders the message. Amounts must be decimal strings, identifiers
// Max35Text, and every instruction needs a debtor account and agent.
func (c CreditTransferInitiation) ToXML() ([]byte, error) {
	if err := checkID("MsgId", c.Header.MessageID); err != nil {
		return nil, err
	}
	var (
		total   decimal.Decimal
		count   int
		pmtInfs []pain001PmtInf
	)
	for _, info := range c.PaymentInfo {
		pmtInf, sum, err := info.toXML()
		if err != nil {
			return nil, fmt.Errorf("payment info %s: %w", info.PaymentInfoID, err)
		}
		total = total.Add(sum)
		count += len(info.Transactions)
		pmtInfs = append(pmtInfs, pmtInf)
	}

	doc := pain001Document{
		Xmlns: pain001Namespace,
		CstmrCdtTrfInitn: pain001CstmrCdtTrfInitn{
			GrpHdr: pain001GrpHdr{
				MsgID:    c.Header.MessageID,
				CreDtTm:  c.Header.CreationDate.Format(time.RFC3339),
				NbOfTxs:  strconv.Itoa(count),
				CtrlSum:  total.StringFixed(2),
				InitgPty: pain001Party{Nm: c.Header.From.Name},
			},
			PmtInf: pmtInfs,
		},
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// PaymentInstructionInfo contains payment instruction details.
type PaymentInstructionInfo struct {
	PaymentInfoID string
	PaymentMethod string // "TRF" for credit transfer
	ExecutionDate time.Time
	DebtorName    string
	DebtorAccount string
	DebtorAgent   string // BIC
	Transactions  []CreditTransferTransaction
}

// CreditTransferTransaction contains individual transaction details.
type CreditTransferTransaction struct {
	EndToEndID      string
	Amount          string // decimal string
	Currency        string
	CreditorName    string
	CreditorAccount string
	CreditorAgent   string // BIC
	Purpose         string
	RemittanceInfo  string
}

func (p PaymentInstructionInfo) toXML() (pain001PmtInf, decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := checkID("PmtInfId", p.PaymentInfoID); err != nil {
		return pain001PmtInf{}, sum, err
	}
	if p.DebtorAccount == "" || p.DebtorAgent == "" {
		return pain001PmtInf{}, sum, ErrMissingDebtor
	}
	txs := make([]pain001CdtTrfTxInf, 0, len(p.Transactions))
	for _, tx := range p.Transactions {
		if err := checkID("EndToEndId", tx.EndToEndID); err != nil {
			return pain001PmtInf{}, sum, err
		}
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			return pain001PmtInf{}, sum, fmt.Errorf("transaction %s: invalid amount %q: %w", tx.EndToEndID, tx.Amount, err)
		}
		sum = sum.Add(amount)
		txs = append(txs, tx.toXML(amount))
	}

	execDate := p.ExecutionDate
	if execDate.IsZero() {
		execDate = time.Now()
	}
	out := pain001PmtInf{
		PmtInfID:    p.PaymentInfoID,
		PmtMtd:      p.PaymentMethod,
		NbOfTxs:     strconv.Itoa(len(txs)),
		CtrlSum:     sum.StringFixed(2),
		PmtTpInf:    pain001PmtTpInf{SvcLvl: pain001Code{Cd: "SEPA"}},
		ReqdExctnDt: pain001Date{Dt: execDate.Format(time.DateOnly)},
		Dbtr:        pain001Party{Nm: p.DebtorName},
		DbtrAcct:    pain001Acct{ID: pain001AcctID{IBAN: p.DebtorAccount}},
		DbtrAgt:     pain001Agt{FinInstnID: pain001FinInstnID{BICFI: p.DebtorAgent}},
		CdtTrfTxInf: txs,
	}
	return out, sum, nil
}

func (t CreditTransferTransaction) toXML(amount decimal.Decimal) pain001CdtTrfTxInf {
	tx := pain001CdtTrfTxInf{
		PmtID: pain001PmtID{EndToEndID: t.EndToEndID},
		Amt: pain001Amt{InstdAmt: pain001InstdAmt{
			Ccy:   t.Currency,
			Value: amount.StringFixed(2),
		}},
		CdtrAgt:  agentOf(t.CreditorAgent),
		Cdtr:     pain001Party{Nm: t.CreditorName},
		CdtrAcct: accountOf(t.CreditorAccount),
	}
	if t.Purpose != "" {
		tx.Purp = &pain001Code{Cd: t.Purpose}
	}
	if t.RemittanceInfo != "" {
		tx.RmtInf = &pain001RmtInf{Ustrd: t.RemittanceInfo}
	}
	return tx
}

func accountOf(iban string) *pain001Acct {
	if iban == "" {
		return nil
	}
	return &pain001Acct{ID: pain001AcctID{IBAN: iban}}
}

func agentOf(bic string) *pain001Agt {
	if bic == "" {
		return nil
	}
	return &pain001Agt{FinInstnID: pain001FinInstnID{BICFI: bic}}
}

// XML marshaling structs (internal)
type pain001Document struct {
	XMLName          xml.Name                `xml:"Document"`
	Xmlns            string                  `xml:"xmlns,attr"`
	CstmrCdtTrfInitn pain001CstmrCdtTrfInitn `xml:"CstmrCdtTrfInitn"`
}

type pain001CstmrCdtTrfInitn struct {
	GrpHdr pain001GrpHdr   `xml:"GrpHdr"`
	PmtInf []pain001PmtInf `xml:"PmtInf"`
}

type pain001GrpHdr struct {
	MsgID    string       `xml:"MsgId"`
	CreDtTm  string       `xml:"CreDtTm"`
	NbOfTxs  string       `xml:"NbOfTxs"`
	CtrlSum  string       `xml:"CtrlSum"`
	InitgPty pain001Party `xml:"InitgPty"`
}

type pain001PmtInf struct {
	PmtInfID    string               `xml:"PmtInfId"`
	PmtMtd      string               `xml:"PmtMtd"`
	NbOfTxs     string               `xml:"NbOfTxs"`
	CtrlSum     string               `xml:"CtrlSum"`
	PmtTpInf    pain001PmtTpInf      `xml:"PmtTpInf"`
	ReqdExctnDt pain001Date          `xml:"ReqdExctnDt"`
	Dbtr        pain001Party         `xml:"Dbtr"`
	DbtrAcct    pain001Acct          `xml:"DbtrAcct"`
	DbtrAgt     pain001Agt           `xml:"DbtrAgt"`
	CdtTrfTxInf []pain001CdtTrfTxInf `xml:"CdtTrfTxInf"`
}

type pain001PmtTpInf struct {
	SvcLvl pain001Code `xml:"SvcLvl"`
}

type pain001Code struct {
	Cd string `xml:"Cd"`
}

type pain001Date struct {
	Dt string `xml:"Dt"`
}

type pain001Party struct {
	Nm string `xml:"Nm,omitempty"`
}

type pain001Acct struct {
	ID pain001AcctID `xml:"Id"`
}

type pain001AcctID struct {
	IBAN string `xml:"IBAN"`
}

type pain001Agt struct {
	FinInstnID pain001FinInstnID `xml:"FinInstnId"`
}

type pain001FinInstnID struct {
	BICFI string `xml:"BICFI"`
}

type pain001CdtTrfTxInf struct {
	PmtID    pain001PmtID   `xml:"PmtId"`
	Amt      pain001Amt     `xml:"Amt"`
	CdtrAgt  *pain001Agt    `xml:"CdtrAgt,omitempty"`
	Cdtr     pain001Party   `xml:"Cdtr"`
	CdtrAcct *pain001Acct   `xml:"CdtrAcct,omitempty"`
	Purp     *pain001Code   `xml:"Purp,omitempty"`
	RmtInf   *pain001RmtInf `xml:"RmtInf,omitempty"`
}

type pain001PmtID struct {
	EndToEndID string `xml:"EndToEndId"`
}

type pain001Amt struct {
	InstdAmt pain001InstdAmt `xml:"InstdAmt"`
}

type pain001InstdAmt struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type pain001RmtInf struct {
	Ustrd string `xml:"Ustrd"`
}
