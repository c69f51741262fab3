// Package casestore persists case records, hearings, and history notes in
// SQLite. Writes are last-write-wins; the workflow engine performs no
// version checks before patching.
package casestore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/workflow"
)

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	id                TEXT PRIMARY KEY,
	case_name         TEXT NOT NULL,
	case_number       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'DRAFT',
	client_name       TEXT NOT NULL DEFAULT '',
	client_email      TEXT NOT NULL DEFAULT '',
	junior_name       TEXT NOT NULL DEFAULT '',
	junior_email      TEXT NOT NULL DEFAULT '',
	case_summary      TEXT NOT NULL DEFAULT '',
	latest_outcome    TEXT NOT NULL DEFAULT '',
	hearings_held     INTEGER NOT NULL DEFAULT 0,
	next_hearing_date TEXT NOT NULL DEFAULT '',
	documents_needed  TEXT NOT NULL DEFAULT '[]',
	welcome_sent      INTEGER NOT NULL DEFAULT 0,
	assigned_to       TEXT NOT NULL DEFAULT '',
	created_by        TEXT NOT NULL DEFAULT '',
	updated_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hearings (
	case_id        TEXT NOT NULL,
	hearing_number INTEGER NOT NULL,
	hearing_date   TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	outcome        TEXT NOT NULL DEFAULT '',
	next_steps     TEXT NOT NULL DEFAULT '',
	documents      TEXT NOT NULL DEFAULT '[]',
	court_judge    TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	PRIMARY KEY (case_id, hearing_number)
);

CREATE TABLE IF NOT EXISTS history_notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id    TEXT NOT NULL,
	note       TEXT NOT NULL,
	actor      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const caseColumns = `id, case_name, case_number, status, client_name, client_email,
	junior_name, junior_email, case_summary, latest_outcome, hearings_held,
	next_hearing_date, documents_needed, welcome_sent, assigned_to, created_by, updated_at`

// Search matches the query as a case-insensitive substring of the case name,
// case number, or client name.
func (s *Store) Search(ctx context.Context, query string) ([]docket.CaseSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	like := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+caseColumns+` FROM cases
		 WHERE case_name LIKE ? OR case_number LIKE ? OR client_name LIKE ?
		 ORDER BY updated_at DESC`,
		like, like, like)
	if err != nil {
		return nil, fmt.Errorf("search cases: %w", err)
	}
	defer rows.Close()

	var out []docket.CaseSummary
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id string) (docket.CaseSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return docket.CaseSummary{}, fmt.Errorf("case %s: %w", id, docket.ErrCaseNotFound)
	}
	return c, err
}

func (s *Store) Create(ctx context.Context, data docket.NewCase, actor docket.Actor) (docket.CreateReceipt, error) {
	if strings.TrimSpace(data.CaseName) == "" {
		return docket.CreateReceipt{}, fmt.Errorf("case name is required")
	}
	id := uuid.NewString()
	number := strings.TrimSpace(data.CaseNumber)
	if number == "" {
		number = s.newCaseNumber()
	}
	status := data.Status
	if status == "" {
		status = docket.StatusDraft
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cases (id, case_name, case_number, status, client_name, client_email,
			junior_name, junior_email, case_summary, latest_outcome, hearings_held,
			next_hearing_date, documents_needed, welcome_sent, assigned_to, created_by, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', 0, ?, ?, 0, ?, ?, ?)`,
		id, data.CaseName, number, string(status), data.ClientName, data.ClientEmail,
		data.JuniorName, data.JuniorEmail, data.CaseSummary,
		data.NextHearingDate, marshalJSON(data.DocumentsNeeded),
		actor.DisplayName, actor.DisplayName, s.timestamp())
	if err != nil {
		return docket.CreateReceipt{}, fmt.Errorf("insert case: %w", err)
	}
	return docket.CreateReceipt{
		ID:         id,
		CaseNumber: number,
		IsDraft:    status == docket.StatusDraft,
	}, nil
}

func (s *Store) Update(ctx context.Context, id string, patch docket.CasePatch, actor docket.Actor) error {
	sets := []string{"updated_at = ?"}
	args := []any{s.timestamp()}
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.ClientName != nil {
		add("client_name", *patch.ClientName)
	}
	if patch.ClientEmail != nil {
		add("client_email", *patch.ClientEmail)
	}
	if patch.JuniorName != nil {
		add("junior_name", *patch.JuniorName)
	}
	if patch.JuniorEmail != nil {
		add("junior_email", *patch.JuniorEmail)
	}
	if patch.CaseSummary != nil {
		add("case_summary", *patch.CaseSummary)
	}
	if patch.LatestOutcome != nil {
		add("latest_outcome", *patch.LatestOutcome)
	}
	if patch.CaseNumber != nil {
		add("case_number", *patch.CaseNumber)
	}
	if patch.NextHearingDate != nil {
		add("next_hearing_date", *patch.NextHearingDate)
	}
	if patch.DocumentsNeeded != nil {
		add("documents_needed", marshalJSON(*patch.DocumentsNeeded))
	}
	if patch.WelcomeSent != nil {
		add("welcome_sent", boolToInt(*patch.WelcomeSent))
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE cases SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("case %s: %w", id, docket.ErrCaseNotFound)
	}
	return nil
}

// CloseCase transitions a case to CLOSED. The transition is irreversible
// through this workflow.
func (s *Store) CloseCase(ctx context.Context, id string, actor docket.Actor) error {
	status := docket.StatusClosed
	return s.Update(ctx, id, docket.CasePatch{Status: &status}, actor)
}

// AddHearing inserts the next hearing in sequence and bumps the case's
// hearing count in the same transaction.
func (s *Store) AddHearing(ctx context.Context, caseID string, h docket.NewHearing, actor docket.Actor) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var held int
	if err := tx.QueryRowContext(ctx, `SELECT hearings_held FROM cases WHERE id = ?`, caseID).Scan(&held); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("case %s: %w", caseID, docket.ErrCaseNotFound)
		}
		return 0, fmt.Errorf("read hearing count: %w", err)
	}
	number := held + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO hearings (case_id, hearing_number, hearing_date, description, outcome, next_steps, documents, court_judge, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		caseID, number, h.Date, h.Description, h.Outcome, h.NextSteps,
		marshalJSON(h.Documents), h.CourtJudge, s.timestamp()); err != nil {
		return 0, fmt.Errorf("insert hearing: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE cases SET hearings_held = ?, updated_at = ? WHERE id = ?`,
		number, s.timestamp(), caseID); err != nil {
		return 0, fmt.Errorf("bump hearing count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return number, nil
}

func (s *Store) ListHearings(ctx context.Context, caseID string) ([]docket.Hearing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT case_id, hearing_number, hearing_date, description, outcome, next_steps, documents, court_judge, created_at
		 FROM hearings WHERE case_id = ? ORDER BY hearing_number`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list hearings: %w", err)
	}
	defer rows.Close()

	var out []docket.Hearing
	for rows.Next() {
		var h docket.Hearing
		var docsJSON, createdAt string
		if err := rows.Scan(&h.CaseID, &h.HearingNumber, &h.Date, &h.Description,
			&h.Outcome, &h.NextSteps, &docsJSON, &h.CourtJudge, &createdAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(docsJSON), &h.Documents)
		h.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) AppendHistoryNote(ctx context.Context, caseID, note string, actor docket.Actor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history_notes (case_id, note, actor, created_at) VALUES (?, ?, ?, ?)`,
		caseID, note, actor.DisplayName, s.timestamp())
	if err != nil {
		return fmt.Errorf("append history note: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (docket.CaseSummary, error) {
	var c docket.CaseSummary
	var docsJSON, updatedAt string
	var welcome int
	err := row.Scan(&c.ID, &c.CaseName, &c.CaseNumber, &c.Status, &c.ClientName, &c.ClientEmail,
		&c.JuniorName, &c.JuniorEmail, &c.CaseSummary, &c.LatestOutcome, &c.HearingsHeld,
		&c.NextHearingDate, &docsJSON, &welcome, &c.AssignedTo, &c.CreatedBy, &updatedAt)
	if err != nil {
		return docket.CaseSummary{}, err
	}
	_ = json.Unmarshal([]byte(docsJSON), &c.DocumentsNeeded)
	c.WelcomeSent = welcome != 0
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return c, nil
}

const caseNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newCaseNumber produces a stable human-readable code, CASE-YYYY-XXXXX.
func (s *Store) newCaseNumber() string {
	buf := make([]byte, 5)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = caseNumberAlphabet[int(b)%len(caseNumberAlphabet)]
	}
	return fmt.Sprintf("CASE-%d-%s", s.now().Year(), string(buf))
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func marshalJSON(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ workflow.CaseStore = (*Store)(nil)
