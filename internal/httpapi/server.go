// Package httpapi exposes the workflow over HTTP. Voice-note submissions are
// authenticated with an HMAC-SHA256 signature over the request body.
package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/workflow"
)

// Runner is the engine surface the API needs.
type Runner interface {
	Run(ctx context.Context, transcript string, actor docket.Actor) workflow.RunResult
	ProcessPayloads(ctx context.Context, payloads []workflow.CasePayload, actor docket.Actor) workflow.RunResult
}

// CaseReader serves the read-side endpoints.
type CaseReader interface {
	Search(ctx context.Context, query string) ([]docket.CaseSummary, error)
	GetByID(ctx context.Context, id string) (docket.CaseSummary, error)
}

type Config struct {
	// Secret signs requests. When empty, signature checks are disabled so
	// local runs work without credentials.
	Secret string
}

type Server struct {
	runner Runner
	cases  CaseReader
	cfg    Config
}

func NewServer(runner Runner, cases CaseReader, cfg Config) http.Handler {
	s := &Server{runner: runner, cases: cases, cfg: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/voice-notes", s.handleVoiceNotes)
	mux.HandleFunc("/v1/payloads", s.handlePayloads)
	mux.HandleFunc("/v1/cases", s.handleSearchCases)
	mux.HandleFunc("/v1/cases/", s.handleGetCase)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var we *workflow.Error
	if errors.As(err, &we) {
		writeJSON(w, we.Status, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":      we.Code,
				"message":   we.Message,
				"transient": we.Transient,
			},
		})
		return
	}
	writeJSON(w, 500, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":      workflow.CodeInternal,
			"message":   err.Error(),
			"transient": true,
		},
	})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func unauthorized(message string) error {
	return &workflow.Error{Code: "unauthorized", Message: message, Status: 401}
}

// verifySignature checks the X-Signature header (hex HMAC-SHA256 of the raw
// body, optional "sha256=" prefix) against the configured secret.
func (s *Server) verifySignature(signature string, payload []byte) error {
	if strings.TrimSpace(s.cfg.Secret) == "" {
		return nil
	}
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return unauthorized("X-Signature required")
	}
	if strings.HasPrefix(strings.ToLower(sig), "sha256=") {
		sig = sig[len("sha256="):]
	}
	provided, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return unauthorized("invalid signature encoding")
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.Secret))
	_, _ = mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return unauthorized("invalid signature")
	}
	return nil
}

type voiceNoteRequest struct {
	Transcript string       `json:"transcript"`
	Actor      docket.Actor `json:"actor"`
}

func (s *Server) handleVoiceNotes(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, workflow.NewValidationError("unreadable request body"))
		return
	}
	if err := s.verifySignature(r.Header.Get("X-Signature"), blob); err != nil {
		writeError(w, err)
		return
	}
	var req voiceNoteRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		writeError(w, workflow.NewValidationError("invalid JSON: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeError(w, workflow.NewValidationError("transcript is required"))
		return
	}

	result := s.runner.Run(r.Context(), req.Transcript, req.Actor)
	status := 200
	if result.Status == workflow.RunErrored {
		status = 502
	}
	writeJSON(w, status, result)
}

type payloadsRequest struct {
	Cases []workflow.CasePayload `json:"cases"`
	Actor docket.Actor           `json:"actor"`
}

// handlePayloads accepts pre-extracted payloads, bypassing the extractor.
// Useful for replays and clients that do their own transcription parsing.
func (s *Server) handlePayloads(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, workflow.NewValidationError("unreadable request body"))
		return
	}
	if err := s.verifySignature(r.Header.Get("X-Signature"), blob); err != nil {
		writeError(w, err)
		return
	}
	var req payloadsRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		writeError(w, workflow.NewValidationError("invalid JSON: "+err.Error()))
		return
	}
	if len(req.Cases) == 0 {
		writeError(w, workflow.NewValidationError("cases is required"))
		return
	}

	writeJSON(w, 200, s.runner.ProcessPayloads(r.Context(), req.Cases, req.Actor))
}

func (s *Server) handleSearchCases(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, workflow.NewValidationError("q is required"))
		return
	}
	cases, err := s.cases.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"cases": cases})
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/cases/"), "/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	c, err := s.cases.GetByID(r.Context(), id)
	if errors.Is(err, docket.ErrCaseNotFound) {
		writeJSON(w, 404, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":    "not_found",
				"message": "case not found",
			},
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, c)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "service": "casescribe"})
}
