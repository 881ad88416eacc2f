package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

func newRecord(t *testing.T, id string) domain.EventRecord {
	t.Helper()
	rec, err := domain.NewEventRecord(time.Now(), domain.RoleScale, "A123", domain.EventWeighIn, json.RawMessage(`{"weight":650}`), domain.ModeLocal)
	if err != nil {
		t.Fatalf("NewEventRecord() error = %v", err)
	}
	rec.EventID = id
	return rec
}

func openJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit-log.ndjson")
	j, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, path
}

func TestJournal_AppendAndTail(t *testing.T) {
	j, _ := openJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := j.Append(ctx, newRecord(t, fmt.Sprintf("evt-%d", i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	all, err := j.Tail(ctx, 5)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("Tail(5) returned %d records, want 5", len(all))
	}
	for i, rec := range all {
		if want := fmt.Sprintf("evt-%d", i); rec.EventID != want {
			t.Errorf("record %d = %s, want %s", i, rec.EventID, want)
		}
	}

	last, err := j.Tail(ctx, 2)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(last) != 2 || last[0].EventID != "evt-3" || last[1].EventID != "evt-4" {
		t.Errorf("Tail(2) = %v, want evt-3, evt-4", ids(last))
	}

	more, err := j.Tail(ctx, 50)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(more) != 5 {
		t.Errorf("Tail(50) returned %d records, want 5", len(more))
	}
}

func TestJournal_TailSkipsMalformedLines(t *testing.T) {
	j, path := openJournal(t)
	ctx := context.Background()

	if err := j.Append(ctx, newRecord(t, "good-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString("{not json\n\n42\n")
	f.Close()

	if err := j.Append(ctx, newRecord(t, "good-2")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := j.Tail(ctx, 2)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(got) != 2 || got[0].EventID != "good-1" || got[1].EventID != "good-2" {
		t.Errorf("Tail(2) = %v, want good-1, good-2", ids(got))
	}
}

func TestJournal_AppendAfterTornLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit-log.ndjson")
	if err := os.WriteFile(path, []byte(`{"at":"2024-01-01T00:00:00Z","eventId":"torn"`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	j, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	ctx := context.Background()
	if err := j.Append(ctx, newRecord(t, "committed-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := j.Tail(ctx, 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(got) != 1 || got[0].EventID != "committed-1" {
		t.Errorf("Tail() = %v, want [committed-1]", ids(got))
	}

	// Reopening a clean journal must not add blank lines.
	j.Close()
	again, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer again.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := bytes.Count(raw, []byte("\n")); n != 2 {
		t.Errorf("journal has %d newlines, want 2", n)
	}
}

func TestJournal_TailMissingFile(t *testing.T) {
	j, path := openJournal(t)
	os.Remove(path)

	got, err := j.Tail(context.Background(), 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Tail() = %v, want empty", ids(got))
	}
}

func TestJournal_ConcurrentAppendsProduceWholeLines(t *testing.T) {
	j, path := openJournal(t)
	ctx := context.Background()

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := newRecord(t, fmt.Sprintf("w%d-%d", w, i))
				if err := j.Append(ctx, rec); err != nil {
					t.Errorf("Append() error = %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not a whole record: %v", lines+1, err)
		}
		lines++
	}
	if lines != writers*perWriter {
		t.Errorf("journal has %d lines, want %d", lines, writers*perWriter)
	}
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.ndjson")
	ctx := context.Background()

	j, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := j.Append(ctx, newRecord(t, "first")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	j.Close()

	if err := j.Append(ctx, newRecord(t, "after-close")); err == nil {
		t.Error("Append() after Close should fail")
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Tail(ctx, 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(got) != 1 || got[0].EventID != "first" {
		t.Errorf("Tail() = %v, want [first]", ids(got))
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Error("Open(\"\") expected error")
	}
}

func ids(recs []domain.EventRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.EventID
	}
	return out
}
