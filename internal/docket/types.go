package docket

import (
	"errors"
	"time"
)

// ErrCaseNotFound reports a lookup for a case that does not exist. Stores
// wrap it so callers can tell a missing record from an I/O failure.
var ErrCaseNotFound = errors.New("case not found")

// PlaceholderPrefix names auto-created draft cases whose real case could not
// be resolved from a voice note. Matching and duplicate checks skip them.
const PlaceholderPrefix = "Unknown Case:"

type CaseStatus string

const (
	StatusDraft          CaseStatus = "DRAFT"
	StatusActive         CaseStatus = "ACTIVE"
	StatusContinuing     CaseStatus = "CONTINUING"
	StatusFinalized      CaseStatus = "FINALIZED"
	StatusClosed         CaseStatus = "CLOSED"
	StatusActionRequired CaseStatus = "ACTION_REQUIRED"
)

// CaseSummary is the persisted shape of a case record as returned by search
// and lookup. The case number, once assigned, never changes; the case name is
// never empty after creation.
type CaseSummary struct {
	ID              string     `json:"id" db:"id"`
	CaseName        string     `json:"case_name" db:"case_name"`
	CaseNumber      string     `json:"case_number" db:"case_number"`
	Status          CaseStatus `json:"status" db:"status"`
	ClientName      string     `json:"client_name" db:"client_name"`
	ClientEmail     string     `json:"client_email" db:"client_email"`
	JuniorName      string     `json:"junior_name" db:"junior_name"`
	JuniorEmail     string     `json:"junior_email" db:"junior_email"`
	CaseSummary     string     `json:"case_summary" db:"case_summary"`
	LatestOutcome   string     `json:"latest_outcome" db:"latest_outcome"`
	HearingsHeld    int        `json:"hearings_held" db:"hearings_held"`
	NextHearingDate string     `json:"next_hearing_date" db:"next_hearing_date"`
	DocumentsNeeded []string   `json:"documents_needed" db:"-"`
	WelcomeSent     bool       `json:"welcome_sent" db:"-"`
	AssignedTo      string     `json:"assigned_to" db:"assigned_to"`
	CreatedBy       string     `json:"created_by" db:"created_by"`
	UpdatedAt       time.Time  `json:"updated_at" db:"-"`
}

// NewCase carries the fields persisted when a case is first created.
type NewCase struct {
	CaseName        string
	CaseNumber      string
	Status          CaseStatus
	ClientName      string
	ClientEmail     string
	JuniorName      string
	JuniorEmail     string
	CaseSummary     string
	NextHearingDate string
	DocumentsNeeded []string
}

// CreateReceipt is the store acknowledgement for a created case.
type CreateReceipt struct {
	ID         string `json:"id"`
	CaseNumber string `json:"case_number"`
	IsDraft    bool   `json:"is_draft"`
}

// CasePatch is a sparse update: nil fields are left untouched.
type CasePatch struct {
	Status          *CaseStatus
	ClientName      *string
	ClientEmail     *string
	JuniorName      *string
	JuniorEmail     *string
	CaseSummary     *string
	LatestOutcome   *string
	CaseNumber      *string
	NextHearingDate *string
	DocumentsNeeded *[]string
	WelcomeSent     *bool
}

func (p CasePatch) IsEmpty() bool {
	return p.Status == nil && p.ClientName == nil && p.ClientEmail == nil &&
		p.JuniorName == nil && p.JuniorEmail == nil && p.CaseSummary == nil &&
		p.LatestOutcome == nil && p.CaseNumber == nil && p.NextHearingDate == nil &&
		p.DocumentsNeeded == nil && p.WelcomeSent == nil
}

// Hearing is one court appearance recorded against a case. Hearings are
// numbered sequentially per case and never mutated after insert.
type Hearing struct {
	CaseID        string    `json:"case_id" db:"case_id"`
	HearingNumber int       `json:"hearing_number" db:"hearing_number"`
	Date          string    `json:"date" db:"hearing_date"`
	Description   string    `json:"description" db:"description"`
	Outcome       string    `json:"outcome" db:"outcome"`
	NextSteps     string    `json:"next_steps" db:"next_steps"`
	Documents     []string  `json:"documents" db:"-"`
	CourtJudge    string    `json:"court_judge" db:"court_judge"`
	CreatedAt     time.Time `json:"created_at" db:"-"`
}

// NewHearing carries the fields for a hearing insert; the store assigns the
// sequence number.
type NewHearing struct {
	Date        string
	Description string
	Outcome     string
	NextSteps   string
	Documents   []string
	CourtJudge  string
}
