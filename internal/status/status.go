// Package status reports the operating mode and backend health.
package status

import (
	"context"
	"log/slog"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
)

// EphemeralNote warns that the local journal may not outlive the process's
// storage.
const EphemeralNote = "Local storage may be ephemeral depending on deployment; the log can reset on restart."

// Report is the body of the status endpoint.
type Report struct {
	OK          bool        `json:"ok"`
	Mode        domain.Mode `json:"mode"`
	LogPath     string      `json:"logPath,omitempty"`
	Note        string      `json:"note,omitempty"`
	Contract    string      `json:"contract,omitempty"`
	ChainHeight *uint64     `json:"chainHeight,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Reporter produces a status report. It never fails: provider errors are
// reported inside the Report.
type Reporter interface {
	Status(ctx context.Context) Report
}

// Local reports on the local journal.
type Local struct {
	logPath string
}

// NewLocal creates a reporter for a journal kept at logPath.
func NewLocal(logPath string) *Local {
	return &Local{logPath: logPath}
}

// Status implements Reporter.
func (l *Local) Status(ctx context.Context) Report {
	return Report{
		OK:      true,
		Mode:    domain.ModeLocal,
		LogPath: l.logPath,
		Note:    EphemeralNote,
	}
}

// Ledger reports the chain height as a liveness signal.
type Ledger struct {
	contract string
	heights  ports.HeightReader
	logger   *slog.Logger
}

// NewLedger creates a reporter for the contract at address.
func NewLedger(address string, heights ports.HeightReader, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{contract: address, heights: heights, logger: logger}
}

// Status implements Reporter.
func (l *Ledger) Status(ctx context.Context) Report {
	height, err := l.heights.BlockNumber(ctx)
	if err != nil {
		l.logger.Warn("chain height unavailable", slog.String("error", err.Error()))
		return Report{OK: false, Mode: domain.ModeLedger, Contract: l.contract, Error: err.Error()}
	}
	return Report{OK: true, Mode: domain.ModeLedger, Contract: l.contract, ChainHeight: &height}
}
