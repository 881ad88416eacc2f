package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

func record(t *testing.T, id string) domain.EventRecord {
	t.Helper()
	rec, err := domain.NewEventRecord(time.Now(), domain.RoleTruck, "T9", domain.EventPickupRecorded, json.RawMessage(`{"to":"packer"}`), domain.ModeLocal)
	if err != nil {
		t.Fatalf("NewEventRecord() error = %v", err)
	}
	rec.EventID = id
	return rec
}

func TestMemoryJournal_Tail(t *testing.T) {
	j := New()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := j.Append(ctx, record(t, fmt.Sprintf("e%d", i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 0, want: []string{}},
		{limit: 1, want: []string{"e3"}},
		{limit: 3, want: []string{"e1", "e2", "e3"}},
		{limit: 10, want: []string{"e0", "e1", "e2", "e3"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d", tt.limit), func(t *testing.T) {
			got, err := j.Tail(ctx, tt.limit)
			if err != nil {
				t.Fatalf("Tail() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Tail(%d) returned %d records, want %d", tt.limit, len(got), len(tt.want))
			}
			for i := range got {
				if got[i].EventID != tt.want[i] {
					t.Errorf("record %d = %s, want %s", i, got[i].EventID, tt.want[i])
				}
			}
		})
	}
}

func TestMemoryJournal_TailReturnsCopies(t *testing.T) {
	j := New()
	ctx := context.Background()
	j.Append(ctx, record(t, "orig"))

	got, _ := j.Tail(ctx, 1)
	got[0].EventID = "mutated"
	got[0].Payload[2] = 'X'

	again, _ := j.Tail(ctx, 1)
	if again[0].EventID != "orig" {
		t.Errorf("stored record changed to %s", again[0].EventID)
	}
	if string(again[0].Payload) != `{"to":"packer"}` {
		t.Errorf("stored payload changed to %s", again[0].Payload)
	}
}

func TestMemoryJournal_Close(t *testing.T) {
	j := New()
	j.Close()

	if err := j.Append(context.Background(), record(t, "late")); err == nil {
		t.Error("Append() after Close should fail")
	}
	if j.Len() != 0 {
		t.Errorf("Len() = %d, want 0", j.Len())
	}
}
