package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/workflow"
)

type stubRunner struct {
	result      workflow.RunResult
	transcripts []string
	payloadRuns int
}

func (s *stubRunner) Run(_ context.Context, transcript string, _ docket.Actor) workflow.RunResult {
	s.transcripts = append(s.transcripts, transcript)
	return s.result
}

func (s *stubRunner) ProcessPayloads(context.Context, []workflow.CasePayload, docket.Actor) workflow.RunResult {
	s.payloadRuns++
	return s.result
}

type stubReader struct {
	cases  map[string]docket.CaseSummary
	getErr error
}

func (s *stubReader) Search(_ context.Context, query string) ([]docket.CaseSummary, error) {
	var out []docket.CaseSummary
	for _, c := range s.cases {
		if strings.Contains(strings.ToLower(c.CaseName), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubReader) GetByID(_ context.Context, id string) (docket.CaseSummary, error) {
	if s.getErr != nil {
		return docket.CaseSummary{}, s.getErr
	}
	c, ok := s.cases[id]
	if !ok {
		return docket.CaseSummary{}, fmt.Errorf("case %s: %w", id, docket.ErrCaseNotFound)
	}
	return c, nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestServer(secret string) (*stubRunner, *stubReader, http.Handler) {
	runner := &stubRunner{result: workflow.RunResult{Success: true, Status: workflow.RunProcessed, Cases: []workflow.PayloadResult{}}}
	reader := &stubReader{cases: map[string]docket.CaseSummary{
		"c1": {ID: "c1", CaseName: "Sharma Property Dispute", CaseNumber: "CASE-2025-00123"},
	}}
	return runner, reader, NewServer(runner, reader, Config{Secret: secret})
}

func TestVoiceNoteAccepted(t *testing.T) {
	runner, _, h := newTestServer("")
	body := `{"transcript": "update the Sharma case", "actor": {"display_name": "Adv. Meera Nair"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/voice-notes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if len(runner.transcripts) != 1 || runner.transcripts[0] != "update the Sharma case" {
		t.Fatalf("transcript not forwarded: %v", runner.transcripts)
	}
	var out workflow.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != workflow.RunProcessed {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestVoiceNoteRequiresTranscript(t *testing.T) {
	_, _, h := newTestServer("")
	req := httptest.NewRequest(http.MethodPost, "/v1/voice-notes", strings.NewReader(`{"transcript": "  "}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVoiceNoteSignatureEnforced(t *testing.T) {
	runner, _, h := newTestServer("topsecret")
	body := []byte(`{"transcript": "update the Sharma case"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/voice-notes", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 401 {
		t.Fatalf("unsigned request should be rejected, got %d", rec.Code)
	}
	if len(runner.transcripts) != 0 {
		t.Fatal("rejected request must not reach the engine")
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/voice-notes", strings.NewReader(string(body)))
	req.Header.Set("X-Signature", sign("wrongsecret", body))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 401 {
		t.Fatalf("bad signature should be rejected, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/voice-notes", strings.NewReader(string(body)))
	req.Header.Set("X-Signature", sign("topsecret", body))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("valid signature rejected: %d %s", rec.Code, rec.Body.String())
	}
}

func TestVoiceNoteErroredRunMapsTo502(t *testing.T) {
	runner, reader, _ := newTestServer("")
	runner.result = workflow.RunResult{Status: workflow.RunErrored, Error: "extraction: model unavailable"}
	h := NewServer(runner, reader, Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/voice-notes", strings.NewReader(`{"transcript": "note"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 502 {
		t.Fatalf("expected 502 for errored run, got %d", rec.Code)
	}
}

func TestPayloadsEndpoint(t *testing.T) {
	runner, _, h := newTestServer("")
	body := `{"cases": [{"action_type": "CREATE_NEW", "case_name": "Iyer Contract Review"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/payloads", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if runner.payloadRuns != 1 {
		t.Fatalf("expected one payload run, got %d", runner.payloadRuns)
	}
}

func TestPayloadsRequiresCases(t *testing.T) {
	_, _, h := newTestServer("")
	req := httptest.NewRequest(http.MethodPost, "/v1/payloads", strings.NewReader(`{"cases": []}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetCase(t *testing.T) {
	_, _, h := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/v1/cases/c1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	var c docket.CaseSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.CaseNumber != "CASE-2025-00123" {
		t.Fatalf("unexpected case %+v", c)
	}
}

func TestGetCaseNotFound(t *testing.T) {
	_, _, h := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/v1/cases/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetCaseStoreFailure(t *testing.T) {
	_, reader, h := newTestServer("")
	reader.getErr = errors.New("database is locked")
	req := httptest.NewRequest(http.MethodGet, "/v1/cases/c1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 500 {
		t.Fatalf("store failure must not report 404, got %d", rec.Code)
	}
}

func TestSearchCases(t *testing.T) {
	_, _, h := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/v1/cases?q=sharma", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	var out struct {
		Cases []docket.CaseSummary `json:"cases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Cases) != 1 {
		t.Fatalf("expected one hit, got %+v", out.Cases)
	}
}

func TestHealth(t *testing.T) {
	_, _, h := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, _, h := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/v1/voice-notes", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
