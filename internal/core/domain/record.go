package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// Mode identifies the persistence backend a record was written through.
type Mode string

const (
	// ModeLocal records live only in the local append-only journal.
	ModeLocal Mode = "NO_BLOCKCHAIN"
	// ModeLedger records are committed to the external ledger contract.
	ModeLedger Mode = "BLOCKCHAIN"
)

// EventRecord is an immutable fact appended to the log. Records are never
// edited; corrections are new records that reference an earlier one.
// The JSON field names are the on-disk journal format.
type EventRecord struct {
	At          time.Time       `json:"at"`
	EventID     string          `json:"eventId"`
	Role        Role            `json:"role"`
	Tag         string          `json:"tag"`
	EventType   EventType       `json:"eventType"`
	Payload     json.RawMessage `json:"payload"`
	PayloadJSON string          `json:"payloadJson"`
	SubmittedBy string          `json:"submittedBy"`
	Mode        Mode            `json:"mode"`

	// Ledger-backed records only.
	TxHash        string `json:"txHash,omitempty"`
	BlockNumber   uint64 `json:"blockNumber,omitempty"`
	LedgerEventID string `json:"ledgerEventId,omitempty"`
}

// Receipt acknowledges a successful append.
type Receipt struct {
	EventID       string `json:"eventId"`
	TxHash        string `json:"txHash,omitempty"`
	BlockNumber   uint64 `json:"blockNumber,omitempty"`
	SubmittedBy   string `json:"submittedBy,omitempty"`
	LedgerEventID string `json:"ledgerEventId,omitempty"`
}

var emptyObject = json.RawMessage(`{}`)

// NewEventRecord assembles a record from already validated inputs. The event
// ID is left empty: the backend assigns it on append. A missing or null
// payload is stored as an empty object.
func NewEventRecord(at time.Time, role Role, tag string, eventType EventType, payload json.RawMessage, mode Mode) (EventRecord, error) {
	payload = NormalizePayload(payload)

	serialized, err := SerializePayload(payload)
	if err != nil {
		return EventRecord{}, err
	}

	return EventRecord{
		At:          at.UTC(),
		Role:        role,
		Tag:         tag,
		EventType:   eventType,
		Payload:     append(json.RawMessage(nil), payload...),
		PayloadJSON: serialized,
		SubmittedBy: string(role),
		Mode:        mode,
	}, nil
}

// NormalizePayload maps an absent or null payload to an empty object.
func NormalizePayload(payload json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyObject
	}
	return trimmed
}

// SerializePayload returns the canonical string form of a payload. A JSON
// string passes through unquoted; anything else is rendered as RFC 8785
// canonical JSON.
func SerializePayload(payload json.RawMessage) (string, error) {
	payload = NormalizePayload(payload)

	if payload[0] == '"' {
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return "", ErrValidation("payload is not valid JSON").WithField("payload")
		}
		return s, nil
	}

	canonical, err := jcs.Transform(payload)
	if err != nil {
		return "", ErrValidation(fmt.Sprintf("payload is not valid JSON: %v", err)).WithField("payload")
	}
	return string(canonical), nil
}

// ReceiptFor builds the acknowledgement returned to the submitter.
func ReceiptFor(rec EventRecord) *Receipt {
	r := &Receipt{EventID: rec.EventID}
	if rec.Mode == ModeLedger {
		r.TxHash = rec.TxHash
		r.BlockNumber = rec.BlockNumber
		r.SubmittedBy = rec.SubmittedBy
		r.LedgerEventID = rec.LedgerEventID
	}
	return r
}
