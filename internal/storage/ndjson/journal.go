// Package ndjson provides an append-only journal with one JSON record per line.
package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
)

// Journal appends records to a newline-delimited JSON file. Writers are
// serialized so every record lands as one complete line.
type Journal struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
}

var _ ports.Journal = (*Journal)(nil)

// Open opens (creating if needed) the journal at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if err := terminateTornLine(path, f, logger); err != nil {
		f.Close()
		return nil, err
	}

	return &Journal{path: path, file: f, logger: logger}, nil
}

// terminateTornLine ends a partial last line left by an interrupted write,
// so the next record starts on a line of its own.
func terminateTornLine(path string, w *os.File, logger *slog.Logger) error {
	r, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", path, err)
	}
	defer r.Close()

	info, err := r.Stat()
	if err != nil {
		return fmt.Errorf("stat journal %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := r.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("read journal %s: %w", path, err)
	}
	if last[0] == '\n' {
		return nil
	}

	logger.Warn("journal ends with a partial line", slog.String("path", path))
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("terminate partial line in %s: %w", path, err)
	}
	return w.Sync()
}

// Append writes rec as a single line and syncs it to disk.
func (j *Journal) Append(ctx context.Context, rec domain.EventRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("append to %s: %w", j.path, err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", j.path, err)
	}
	return nil
}

// Tail returns the last limit decodable records, oldest first. Blank and
// malformed lines are skipped; a missing file yields no records.
func (j *Journal) Tail(ctx context.Context, limit int) ([]domain.EventRecord, error) {
	if limit <= 0 {
		return []domain.EventRecord{}, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.EventRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", j.path, err)
	}
	defer f.Close()

	return tail(f, limit, j.logger)
}

func tail(r io.Reader, limit int, logger *slog.Logger) ([]domain.EventRecord, error) {
	ring := make([]domain.EventRecord, 0, min(limit, ports.DefaultListLimit))
	start := 0
	skipped := 0

	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read journal: %w", readErr)
		}

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec domain.EventRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				skipped++
			} else if len(ring) < limit {
				ring = append(ring, rec)
			} else {
				ring[start] = rec
				start = (start + 1) % limit
			}
		}

		if readErr != nil {
			break
		}
	}

	if skipped > 0 {
		logger.Debug("skipped malformed journal lines", slog.Int("count", skipped))
	}

	out := make([]domain.EventRecord, 0, len(ring))
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out, nil
}

// Location returns the journal file path.
func (j *Journal) Location() string {
	return j.path
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
