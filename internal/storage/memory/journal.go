// Package memory provides an in-process journal. Records do not survive a
// restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
)

// Journal is an in-memory implementation of ports.Journal
type Journal struct {
	mu      sync.RWMutex
	records []domain.EventRecord
	closed  bool
}

var _ ports.Journal = (*Journal)(nil)

// New creates a new in-memory journal
func New() *Journal {
	return &Journal{}
}

func (j *Journal) Append(ctx context.Context, rec domain.EventRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return fmt.Errorf("memory journal is closed")
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	j.records = append(j.records, rec)
	return nil
}

// Tail returns copies of the last limit records, oldest first.
func (j *Journal) Tail(ctx context.Context, limit int) ([]domain.EventRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		return []domain.EventRecord{}, nil
	}
	start := max(len(j.records)-limit, 0)
	out := make([]domain.EventRecord, len(j.records)-start)
	copy(out, j.records[start:])
	for i := range out {
		out[i].Payload = append([]byte(nil), out[i].Payload...)
	}
	return out, nil
}

// Len returns the number of records held.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}

func (j *Journal) Location() string {
	return "memory"
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}
