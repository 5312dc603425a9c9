// Package iso20022 exports payment requests as ISO 20022 customer credit
// transfer initiations (pain.001).
package iso20022

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MessageType represents ISO 20022 message types.
type MessageType string

// Pain001 is CustomerCreditTransferInitiation.
const Pain001 MessageType = "pain.001.001.12"

// MaxIDLength is the Max35Text limit on MsgId, PmtInfId and EndToEndId.
const MaxIDLength = 35

var (
	// ErrInvalidID reports an identifier that is empty or longer than MaxIDLength.
	ErrInvalidID = errors.New("iso20022: identifier must be 1 to 35 characters")
	// ErrMissingDebtor reports a payment instruction without debtor account or agent.
	ErrMissingDebtor = errors.New("iso20022: debtor account and agent are required")
)

// NewID returns a random 32 character hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func checkID(field, id string) error {
	if id == "" || utf8.RuneCountInString(id) > MaxIDLength {
		return fmt.Errorf("%w: %s %q", ErrInvalidID, field, id)
	}
	return nil
}

// Message is the base interface for ISO 20022 messages.
type Message interface {
	Type() MessageType
	ToXML() ([]byte, error)
}

// MessageHeader contains the group header fields.
type MessageHeader struct {
	MessageID    string
	CreationDate time.Time
	From         PartyIdentification
}

// PartyIdentification identifies a party in the message.
type PartyIdentification struct {
	BIC  string // Business Identifier Code (SWIFT code)
	Name string
}
