// Package calendar delivers hearing events and document reminders to a
// calendar webhook. With no webhook configured it degrades to skipped
// results so the workflow keeps moving.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/workflow"
)

type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:  Config{WebhookURL: strings.TrimRight(cfg.WebhookURL, "/"), Timeout: cfg.Timeout},
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) configured() bool {
	return strings.TrimSpace(c.cfg.WebhookURL) != ""
}

func (c *Client) CreateHearingEvent(ctx context.Context, ev workflow.HearingEvent, actor docket.Actor) (workflow.ScheduleResult, error) {
	if !c.configured() {
		return workflow.ScheduleResult{Skipped: true}, nil
	}
	payload := map[string]any{
		"kind":        "hearing",
		"summary":     fmt.Sprintf("Hearing: %s", ev.CaseName),
		"description": ev.Description,
		"case_number": ev.CaseNumber,
		"start":       ev.Start,
		"end":         ev.End,
		"attendees":   ev.Attendees,
		"organizer":   actor.Email,
	}
	return c.post(ctx, "/events", payload)
}

func (c *Client) CreateDocumentReminder(ctx context.Context, r workflow.DocumentReminder, actor docket.Actor) (*workflow.ScheduleResult, error) {
	if !c.configured() {
		return nil, nil
	}
	payload := map[string]any{
		"kind":      "document-reminder",
		"summary":   fmt.Sprintf("Collect documents: %s", r.CaseName),
		"documents": r.Documents,
		"due_date":  r.DueDate,
		"organizer": actor.Email,
	}
	res, err := c.post(ctx, "/reminders", payload)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) (workflow.ScheduleResult, error) {
	blob, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL+path, bytes.NewReader(blob))
	if err != nil {
		return workflow.ScheduleResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return workflow.ScheduleResult{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return workflow.ScheduleResult{}, fmt.Errorf("calendar webhook %s failed status=%d body=%s", path, resp.StatusCode, string(body))
	}

	var out struct {
		EventID string `json:"event_id"`
		Link    string `json:"link"`
	}
	_ = json.Unmarshal(body, &out)
	return workflow.ScheduleResult{EventID: out.EventID, Link: out.Link}, nil
}

var _ workflow.Scheduler = (*Client)(nil)
