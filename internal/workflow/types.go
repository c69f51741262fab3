package workflow

import (
	"context"
	"strings"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/match"
)

type ActionType string

const (
	ActionUpdateExisting      ActionType = "UPDATE_EXISTING"
	ActionCreateNew           ActionType = "CREATE_NEW"
	ActionClarificationNeeded ActionType = "CLARIFICATION_NEEDED"
)

// CasePayload is one case reference extracted from a voice-note transcript.
// It is transient: it exists only for the duration of a workflow run.
type CasePayload struct {
	ActionType      ActionType `json:"action_type"`
	LookupKey       string     `json:"lookup_key,omitempty"`
	CaseName        string     `json:"case_name,omitempty"`
	CaseNumber      string     `json:"case_number,omitempty"`
	ClientName      string     `json:"client_name,omitempty"`
	ClientEmail     string     `json:"client_email,omitempty"`
	JuniorName      string     `json:"junior_name,omitempty"`
	JuniorEmail     string     `json:"junior_email,omitempty"`
	Outcome         string     `json:"outcome,omitempty"`
	Status          string     `json:"status,omitempty"`
	CaseSummary     string     `json:"case_summary,omitempty"`
	NextHearingDate string     `json:"next_hearing_date,omitempty"`
	NextHearingTime string     `json:"next_hearing_time,omitempty"`
	DocumentsNeeded []string   `json:"documents_needed,omitempty"`
	AssignToJunior  bool       `json:"assign_to_junior,omitempty"`
	MissingFields   []string   `json:"missing_fields,omitempty"`
	RawNotes        string     `json:"raw_notes,omitempty"`
}

// normalize trims fields, defaults nil slices, and enforces the actor's role
// constraints before any branch logic runs.
func (p CasePayload) normalize(actor docket.Actor) CasePayload {
	p.ActionType = ActionType(strings.ToUpper(strings.TrimSpace(string(p.ActionType))))
	p.LookupKey = strings.TrimSpace(p.LookupKey)
	p.CaseName = strings.TrimSpace(p.CaseName)
	p.CaseNumber = strings.TrimSpace(p.CaseNumber)
	p.ClientName = strings.TrimSpace(p.ClientName)
	p.ClientEmail = strings.TrimSpace(p.ClientEmail)
	p.JuniorName = strings.TrimSpace(p.JuniorName)
	p.JuniorEmail = strings.TrimSpace(p.JuniorEmail)
	p.Outcome = strings.TrimSpace(p.Outcome)
	p.Status = strings.ToUpper(strings.TrimSpace(p.Status))
	p.NextHearingDate = strings.TrimSpace(p.NextHearingDate)
	p.NextHearingTime = strings.TrimSpace(p.NextHearingTime)
	if p.DocumentsNeeded == nil {
		p.DocumentsNeeded = []string{}
	}
	if p.MissingFields == nil {
		p.MissingFields = []string{}
	}
	if actor.Role == docket.RoleJunior {
		p.AssignToJunior = false
		p.JuniorName = ""
		p.JuniorEmail = ""
	}
	return p
}

// displayName picks the best human-readable name for results and logs.
func (p CasePayload) displayName() string {
	switch {
	case p.CaseName != "":
		return p.CaseName
	case p.LookupKey != "":
		return p.LookupKey
	case p.ClientName != "":
		return p.ClientName
	default:
		return "(unnamed case)"
	}
}

type ResultStatus string

const (
	StatusCreated             ResultStatus = "CREATED"
	StatusUpdated             ResultStatus = "UPDATED"
	StatusCreatedAsDraft      ResultStatus = "CREATED_AS_DRAFT"
	StatusClarificationNeeded ResultStatus = "CLARIFICATION_NEEDED"
	StatusDuplicateCase       ResultStatus = "DUPLICATE_CASE"
	StatusUnknownAction       ResultStatus = "UNKNOWN_ACTION"
	StatusErrored             ResultStatus = "ERROR"
)

type RunStatus string

const (
	RunProcessed          RunStatus = "PROCESSED"
	RunNeedsClarification RunStatus = "NEEDS_CLARIFICATION"
	RunErrored            RunStatus = "ERROR"
)

// ExistingCaseRef points the caller at the case a duplicate creation attempt
// collided with.
type ExistingCaseRef struct {
	ID         string `json:"id"`
	CaseName   string `json:"case_name"`
	CaseNumber string `json:"case_number"`
	URL        string `json:"url,omitempty"`
}

// ScheduleResult is the scheduler sink acknowledgement. Skipped means the
// sink is unconfigured, not that it failed.
type ScheduleResult struct {
	EventID string `json:"event_id,omitempty"`
	Link    string `json:"link,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// SendResult is the notifier sink acknowledgement.
type SendResult struct {
	Sent    bool `json:"sent"`
	Skipped bool `json:"skipped,omitempty"`
}

// PayloadResult is the per-payload outcome collected into the run response.
type PayloadResult struct {
	Status        ResultStatus      `json:"status"`
	CaseName      string            `json:"case_name"`
	CaseNumber    string            `json:"case_number,omitempty"`
	CaseID        string            `json:"case_id,omitempty"`
	Actions       []string          `json:"actions"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	HearingNumber int               `json:"hearing_number,omitempty"`
	Candidates    []match.Candidate `json:"candidates,omitempty"`
	ExistingCase  *ExistingCaseRef  `json:"existing_case,omitempty"`
	CalendarEvent *ScheduleResult   `json:"calendar_event,omitempty"`
	EmailSent     bool              `json:"email_sent,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// RunResult is the aggregate outcome of one workflow run: one transcript,
// one-or-more payloads, one operation log.
type RunResult struct {
	Success    bool            `json:"success"`
	Status     RunStatus       `json:"status"`
	Summary    string          `json:"summary,omitempty"`
	Cases      []PayloadResult `json:"cases"`
	Operations []LogEntry      `json:"operations"`
	Error      string          `json:"error,omitempty"`
}

// Extraction is what the upstream entity extractor returns for a transcript.
type Extraction struct {
	Cases                 []CasePayload `json:"cases"`
	OverallSummary        string        `json:"overall_summary"`
	RequiresClarification bool          `json:"requires_clarification"`
	ClarificationMessage  string        `json:"clarification_message,omitempty"`
}

// HearingEvent is the calendar entry for an upcoming hearing. End is fixed
// at two hours after Start.
type HearingEvent struct {
	CaseName    string   `json:"case_name"`
	CaseNumber  string   `json:"case_number,omitempty"`
	Description string   `json:"description,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees,omitempty"`
}

// DocumentReminder asks the scheduler for a document-collection follow-up.
type DocumentReminder struct {
	CaseName  string   `json:"case_name"`
	Documents []string `json:"documents"`
	DueDate   string   `json:"due_date,omitempty"`
}

// CaseStore is the record store boundary. Implementations provide
// last-write-wins semantics; the engine performs no version checks.
type CaseStore interface {
	Search(ctx context.Context, query string) ([]docket.CaseSummary, error)
	GetByID(ctx context.Context, id string) (docket.CaseSummary, error)
	Create(ctx context.Context, data docket.NewCase, actor docket.Actor) (docket.CreateReceipt, error)
	Update(ctx context.Context, id string, patch docket.CasePatch, actor docket.Actor) error
	CloseCase(ctx context.Context, id string, actor docket.Actor) error
	AddHearing(ctx context.Context, caseID string, h docket.NewHearing, actor docket.Actor) (int, error)
	AppendHistoryNote(ctx context.Context, caseID, note string, actor docket.Actor) error
}

// Scheduler is the calendar sink. Implementations must degrade to a skipped
// result when unconfigured rather than failing.
type Scheduler interface {
	CreateHearingEvent(ctx context.Context, ev HearingEvent, actor docket.Actor) (ScheduleResult, error)
	CreateDocumentReminder(ctx context.Context, r DocumentReminder, actor docket.Actor) (*ScheduleResult, error)
}

// Notifier is the email sink. Implementations must degrade to a skipped
// result when unconfigured rather than failing.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) (SendResult, error)
}

// Extractor is the upstream natural-language entity extractor.
type Extractor interface {
	Extract(ctx context.Context, transcript string, actor docket.Actor) (Extraction, error)
	Summarize(ctx context.Context, notes string) (string, error)
}
