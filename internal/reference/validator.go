// Package reference enforces correction references on compensating events.
//
// A compensating record only names the record it voids or amends; whether
// that record exists is not checked here or anywhere else in the portal.
package reference

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

const (
	// KeyEventID references an earlier record by its event ID.
	KeyEventID = "correctsEventId"
	// KeyTxHash references an earlier ledger record by transaction hash.
	KeyTxHash = "correctsTxHash"
)

// Validator checks compensating payloads.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Check returns a reference error when eventType is compensating and payload
// carries neither accepted reference key. Non-compensating types always pass.
func (v *Validator) Check(eventType domain.EventType, payload json.RawMessage) error {
	if !eventType.Compensating() {
		return nil
	}

	if _, ok := Extract(payload); !ok {
		return domain.ErrReference(fmt.Sprintf("%s requires payload.%s (or %s)", eventType, KeyEventID, KeyTxHash)).
			WithField("payload." + KeyEventID)
	}
	return nil
}

// Extract returns the correction reference carried by payload, preferring
// the event ID key. Empty strings, zero, false and null do not count.
func Extract(payload json.RawMessage) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", false
	}

	for _, key := range []string{KeyEventID, KeyTxHash} {
		if ref, ok := referenceValue(fields[key]); ok {
			return ref, true
		}
	}
	return "", false
}

func referenceValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		if f, err := n.Float64(); err != nil || f == 0 {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}
