package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSerializePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "object is canonicalized", payload: `{"weight": 650, "unit":"lb"}`, want: `{"unit":"lb","weight":650}`},
		{name: "string passes through", payload: `"raw text"`, want: "raw text"},
		{name: "empty payload", payload: ``, want: `{}`},
		{name: "null payload", payload: `null`, want: `{}`},
		{name: "array", payload: `[3, 1]`, want: `[3,1]`},
		{name: "invalid json", payload: `{"weight":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializePayload(json.RawMessage(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if KindOf(err) != KindValidation {
					t.Errorf("KindOf(err) = %q, want validation", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("SerializePayload() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SerializePayload() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEventRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CST", -6*3600))

	rec, err := NewEventRecord(at, RoleScale, "A123", EventWeighIn, json.RawMessage(`{"weight":650}`), ModeLocal)
	if err != nil {
		t.Fatalf("NewEventRecord() error = %v", err)
	}

	if rec.EventID != "" {
		t.Errorf("EventID = %q, want empty until appended", rec.EventID)
	}
	if !rec.At.Equal(at) || rec.At.Location() != time.UTC {
		t.Errorf("At = %v, want %v in UTC", rec.At, at)
	}
	if rec.SubmittedBy != "SCALE" {
		t.Errorf("SubmittedBy = %q, want SCALE", rec.SubmittedBy)
	}
	if rec.PayloadJSON != `{"weight":650}` {
		t.Errorf("PayloadJSON = %q", rec.PayloadJSON)
	}
	if rec.Mode != ModeLocal {
		t.Errorf("Mode = %q, want %q", rec.Mode, ModeLocal)
	}
}

func TestNewEventRecord_DefaultsPayload(t *testing.T) {
	rec, err := NewEventRecord(time.Now(), RoleVet, "B7", EventTreatmentAdministered, nil, ModeLocal)
	if err != nil {
		t.Fatalf("NewEventRecord() error = %v", err)
	}
	if string(rec.Payload) != "{}" || rec.PayloadJSON != "{}" {
		t.Errorf("payload = %s / %q, want {}", rec.Payload, rec.PayloadJSON)
	}
}

func TestNewEventRecord_CopiesPayload(t *testing.T) {
	buf := []byte(`{"a":1}`)
	rec, err := NewEventRecord(time.Now(), RoleScale, "A1", EventWeighIn, buf, ModeLocal)
	if err != nil {
		t.Fatalf("NewEventRecord() error = %v", err)
	}
	buf[2] = 'z'
	if string(rec.Payload) != `{"a":1}` {
		t.Errorf("record payload changed with caller buffer: %s", rec.Payload)
	}
}

func TestEventRecord_JSONFieldNames(t *testing.T) {
	rec, _ := NewEventRecord(time.Unix(0, 0), RoleTruck, "T9", EventPickupRecorded, nil, ModeLocal)
	rec.EventID = "evt-1"

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"at", "eventId", "role", "tag", "eventType", "payload", "payloadJson", "submittedBy", "mode"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing field %q in %s", key, data)
		}
	}
	if _, ok := fields["txHash"]; ok {
		t.Errorf("local record should omit txHash: %s", data)
	}
}

func TestReceiptFor(t *testing.T) {
	local := ReceiptFor(EventRecord{EventID: "e1", Mode: ModeLocal, SubmittedBy: "SCALE"})
	if local.EventID != "e1" || local.SubmittedBy != "" || local.TxHash != "" {
		t.Errorf("local receipt = %+v", local)
	}

	ledger := ReceiptFor(EventRecord{EventID: "0xabc", Mode: ModeLedger, TxHash: "0xabc", BlockNumber: 12, SubmittedBy: "0x01"})
	if ledger.TxHash != "0xabc" || ledger.BlockNumber != 12 || ledger.SubmittedBy != "0x01" {
		t.Errorf("ledger receipt = %+v", ledger)
	}
}
