// Package testutil holds helpers shared by package tests.
package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewVCRRecorder replays testdata/fixtures/<cassetteName>.yaml. Set
// VCR_MODE=record to capture a fresh cassette against a live node.
func NewVCRRecorder(t *testing.T, cassetteName string) *recorder.Recorder {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("VCR_MODE") == "record" {
		mode = recorder.ModeRecording
	}

	cassettePath := filepath.Join("testdata", "fixtures", cassetteName)

	r, err := recorder.NewAsMode(cassettePath, mode, nil)
	if err != nil {
		t.Fatalf("Failed to create VCR recorder: %v", err)
	}

	// JSON-RPC bodies carry a per-client request id, so only method and URL
	// take part in matching. Interactions replay in order.
	r.SetMatcher(func(r *http.Request, i cassette.Request) bool {
		return r.Method == i.Method && r.URL.String() == i.URL
	})

	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("Failed to stop VCR recorder: %v", err)
		}
	})

	return r
}

// VCRHTTPClient returns an HTTP client that sends through the recorder.
func VCRHTTPClient(t *testing.T, cassetteName string) *http.Client {
	t.Helper()
	return &http.Client{Transport: NewVCRRecorder(t, cassetteName)}
}
