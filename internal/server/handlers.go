package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
	"github.com/tjfontaine/feedlot-portal/internal/core/ports"
	"github.com/tjfontaine/feedlot-portal/internal/pipeline"
)

// maxBodyBytes caps a submission body.
const maxBodyBytes = 1 << 20

type handlers struct {
	portal Portal
	logger *slog.Logger
}

type eventsResponse struct {
	OK     bool                 `json:"ok"`
	Events []domain.EventRecord `json:"events"`
}

type submitResponse struct {
	OK bool `json:"ok"`
	*domain.Receipt
}

type errorResponse struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error"`
	Kind  domain.Kind `json:"kind,omitempty"`
	Field string      `json:"field,omitempty"`
}

// submitBody is the wire form of a submission. The pin may arrive as a JSON
// string or number.
type submitBody struct {
	Role      string          `json:"role"`
	PIN       json.RawMessage `json:"pin"`
	Tag       string          `json:"tag"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.portal.Status(r.Context()))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	limit := ParseLimit(r.URL.Query().Get("limit"))

	recs, err := h.portal.List(r.Context(), ports.ListOptions{Limit: limit})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []domain.EventRecord{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{OK: true, Events: recs})
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmit(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.PIN == "" {
		req.PIN = CredentialFromContext(r.Context())
	}

	AddLogField(r.Context(), "role", req.Role)
	AddLogField(r.Context(), "event_type", req.EventType)

	receipt, err := h.portal.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	AddLogField(r.Context(), "event_id", receipt.EventID)
	writeJSON(w, http.StatusOK, submitResponse{OK: true, Receipt: receipt})
}

func decodeSubmit(w http.ResponseWriter, r *http.Request) (pipeline.SubmitRequest, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.SubmitRequest{}, domain.ErrValidation("request body too large")
		}
		return pipeline.SubmitRequest{}, domain.ErrValidation("failed to read request body")
	}

	// An empty body is treated as an empty object and fails role validation.
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	if err := validateSubmitBody(raw); err != nil {
		return pipeline.SubmitRequest{}, err
	}

	var body submitBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return pipeline.SubmitRequest{}, domain.ErrValidation(fmt.Sprintf("invalid request body: %v", err))
	}

	return pipeline.SubmitRequest{
		Role:      body.Role,
		PIN:       pinString(body.PIN),
		Tag:       body.Tag,
		EventType: body.EventType,
		Payload:   body.Payload,
	}, nil
}

func pinString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ParseLimit reads the events limit the way the portal always has: leading
// digits are used, anything unparseable means the default, and the result
// is clamped to [1, MaxListLimit].
func ParseLimit(s string) int {
	end := 0
	for end < len(s) && (s[end] == ' ' || s[end] == '\t') {
		end++
	}
	s = s[end:]

	end = 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return ports.DefaultListLimit
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Overflow: only the sign matters once clamped.
		if s[0] == '-' {
			return 1
		}
		return ports.MaxListLimit
	}
	return min(ports.MaxListLimit, max(1, n))
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)

	var derr *domain.Error
	if !errors.As(err, &derr) {
		h.logger.Error("unexpected handler error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, derr.HTTPStatusCode(), errorResponse{
		Error: derr.Message,
		Kind:  derr.Kind,
		Field: derr.Field,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
