package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/casescribe/casescribe/internal/docket"
)

// fakeStore is an in-memory CaseStore with the same substring search
// semantics as the SQLite implementation.
type fakeStore struct {
	cases    map[string]*docket.CaseSummary
	hearings map[string][]docket.Hearing
	notes    map[string][]string
	seq      int

	searchErr  error
	createErr  error
	updateErr  error
	hearingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cases:    map[string]*docket.CaseSummary{},
		hearings: map[string][]docket.Hearing{},
		notes:    map[string][]string{},
	}
}

func (f *fakeStore) add(c docket.CaseSummary) *docket.CaseSummary {
	f.cases[c.ID] = &c
	return &c
}

func (f *fakeStore) Search(_ context.Context, query string) ([]docket.CaseSummary, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	lq := strings.ToLower(strings.TrimSpace(query))
	ids := make([]string, 0, len(f.cases))
	for id := range f.cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []docket.CaseSummary
	for _, id := range ids {
		c := f.cases[id]
		if strings.Contains(strings.ToLower(c.CaseName), lq) ||
			strings.Contains(strings.ToLower(c.CaseNumber), lq) ||
			strings.Contains(strings.ToLower(c.ClientName), lq) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (docket.CaseSummary, error) {
	c, ok := f.cases[id]
	if !ok {
		return docket.CaseSummary{}, fmt.Errorf("case %s not found", id)
	}
	return *c, nil
}

func (f *fakeStore) Create(_ context.Context, data docket.NewCase, _ docket.Actor) (docket.CreateReceipt, error) {
	if f.createErr != nil {
		return docket.CreateReceipt{}, f.createErr
	}
	f.seq++
	id := fmt.Sprintf("case-%d", f.seq)
	number := data.CaseNumber
	if number == "" {
		number = fmt.Sprintf("CASE-2026-%05d", f.seq)
	}
	status := data.Status
	if status == "" {
		status = docket.StatusDraft
	}
	f.cases[id] = &docket.CaseSummary{
		ID:              id,
		CaseName:        data.CaseName,
		CaseNumber:      number,
		Status:          status,
		ClientName:      data.ClientName,
		ClientEmail:     data.ClientEmail,
		JuniorName:      data.JuniorName,
		JuniorEmail:     data.JuniorEmail,
		CaseSummary:     data.CaseSummary,
		NextHearingDate: data.NextHearingDate,
		DocumentsNeeded: data.DocumentsNeeded,
	}
	return docket.CreateReceipt{ID: id, CaseNumber: number, IsDraft: status == docket.StatusDraft}, nil
}

func (f *fakeStore) Update(_ context.Context, id string, patch docket.CasePatch, _ docket.Actor) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	c, ok := f.cases[id]
	if !ok {
		return fmt.Errorf("case %s not found", id)
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.ClientName != nil {
		c.ClientName = *patch.ClientName
	}
	if patch.ClientEmail != nil {
		c.ClientEmail = *patch.ClientEmail
	}
	if patch.JuniorName != nil {
		c.JuniorName = *patch.JuniorName
	}
	if patch.JuniorEmail != nil {
		c.JuniorEmail = *patch.JuniorEmail
	}
	if patch.CaseSummary != nil {
		c.CaseSummary = *patch.CaseSummary
	}
	if patch.LatestOutcome != nil {
		c.LatestOutcome = *patch.LatestOutcome
	}
	if patch.CaseNumber != nil {
		c.CaseNumber = *patch.CaseNumber
	}
	if patch.NextHearingDate != nil {
		c.NextHearingDate = *patch.NextHearingDate
	}
	if patch.DocumentsNeeded != nil {
		c.DocumentsNeeded = *patch.DocumentsNeeded
	}
	if patch.WelcomeSent != nil {
		c.WelcomeSent = *patch.WelcomeSent
	}
	return nil
}

func (f *fakeStore) CloseCase(_ context.Context, id string, _ docket.Actor) error {
	c, ok := f.cases[id]
	if !ok {
		return fmt.Errorf("case %s not found", id)
	}
	c.Status = docket.StatusClosed
	return nil
}

func (f *fakeStore) AddHearing(_ context.Context, caseID string, h docket.NewHearing, _ docket.Actor) (int, error) {
	if f.hearingErr != nil {
		return 0, f.hearingErr
	}
	c, ok := f.cases[caseID]
	if !ok {
		return 0, fmt.Errorf("case %s not found", caseID)
	}
	c.HearingsHeld++
	f.hearings[caseID] = append(f.hearings[caseID], docket.Hearing{
		CaseID:        caseID,
		HearingNumber: c.HearingsHeld,
		Date:          h.Date,
		Description:   h.Description,
		Outcome:       h.Outcome,
		NextSteps:     h.NextSteps,
		Documents:     h.Documents,
	})
	return c.HearingsHeld, nil
}

func (f *fakeStore) AppendHistoryNote(_ context.Context, caseID, note string, _ docket.Actor) error {
	f.notes[caseID] = append(f.notes[caseID], note)
	return nil
}

type fakeScheduler struct {
	events      []HearingEvent
	reminders   []DocumentReminder
	eventErr    error
	reminderErr error

	// unconfigured mimics a sink with no webhook: events come back skipped
	// and reminders come back nil.
	unconfigured bool
}

func (f *fakeScheduler) CreateHearingEvent(_ context.Context, ev HearingEvent, _ docket.Actor) (ScheduleResult, error) {
	if f.eventErr != nil {
		return ScheduleResult{}, f.eventErr
	}
	if f.unconfigured {
		return ScheduleResult{Skipped: true}, nil
	}
	f.events = append(f.events, ev)
	return ScheduleResult{EventID: fmt.Sprintf("evt-%d", len(f.events)), Link: "https://calendar.test/evt"}, nil
}

func (f *fakeScheduler) CreateDocumentReminder(_ context.Context, r DocumentReminder, _ docket.Actor) (*ScheduleResult, error) {
	if f.reminderErr != nil {
		return nil, f.reminderErr
	}
	if f.unconfigured {
		return nil, nil
	}
	f.reminders = append(f.reminders, r)
	return &ScheduleResult{EventID: fmt.Sprintf("rem-%d", len(f.reminders))}, nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	sent []sentMail
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, to, subject, body string) (SendResult, error) {
	if f.err != nil {
		return SendResult{}, f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return SendResult{Sent: true}, nil
}

type fakeExtractor struct {
	ext     Extraction
	err     error
	summary string
}

func (f *fakeExtractor) Extract(context.Context, string, docket.Actor) (Extraction, error) {
	return f.ext, f.err
}

func (f *fakeExtractor) Summarize(context.Context, string) (string, error) {
	return f.summary, nil
}

type engineFixture struct {
	engine    *Engine
	store     *fakeStore
	scheduler *fakeScheduler
	notifier  *fakeNotifier
	extractor *fakeExtractor
}

func newFixture() *engineFixture {
	f := &engineFixture{
		store:     newFakeStore(),
		scheduler: &fakeScheduler{},
		notifier:  &fakeNotifier{},
		extractor: &fakeExtractor{},
	}
	f.engine = NewEngine(f.store, f.scheduler, f.notifier, f.extractor, Config{CaseBaseURL: "https://app.casescribe.test"})
	f.engine.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return f
}

func seniorActor() docket.Actor {
	return docket.Actor{
		ID:          "u1",
		Role:        docket.RoleSenior,
		DisplayName: "Adv. Meera Nair",
		Email:       "meera.nair@nairlaw.in",
	}
}

func hasAction(r PayloadResult, action string) bool {
	for _, a := range r.Actions {
		if a == action {
			return true
		}
	}
	return false
}

func TestRunRejectsEmptyTranscript(t *testing.T) {
	f := newFixture()
	res := f.engine.Run(context.Background(), "   ", seniorActor())
	if res.Status != RunErrored || res.Success {
		t.Fatalf("expected errored run, got %+v", res)
	}
	if !strings.Contains(res.Error, "transcript") {
		t.Fatalf("expected transcript validation error, got %q", res.Error)
	}
}

func TestRunExtractionFailure(t *testing.T) {
	f := newFixture()
	f.extractor.err = errors.New("model unavailable")
	res := f.engine.Run(context.Background(), "note about the Sharma case", seniorActor())
	if res.Status != RunErrored {
		t.Fatalf("expected errored run, got %s", res.Status)
	}
	if len(res.Operations) == 0 {
		t.Fatal("expected the operation log to record the failure")
	}
}

func TestRunClarificationFromExtractor(t *testing.T) {
	f := newFixture()
	f.extractor.ext = Extraction{
		RequiresClarification: true,
		ClarificationMessage:  "Which Mehta case did you mean?",
	}
	res := f.engine.Run(context.Background(), "update the Mehta case", seniorActor())
	if res.Status != RunNeedsClarification || !res.Success {
		t.Fatalf("expected clarification run, got %+v", res)
	}
	if res.Summary != "Which Mehta case did you mean?" {
		t.Fatalf("unexpected summary %q", res.Summary)
	}
	if len(res.Cases) != 0 {
		t.Fatalf("clarification runs must not process payloads, got %d", len(res.Cases))
	}
}

func TestRunProcessesExtractedPayloads(t *testing.T) {
	f := newFixture()
	f.extractor.ext = Extraction{
		OverallSummary: "One new case for Lakshmi Iyer.",
		Cases: []CasePayload{{
			ActionType:  ActionCreateNew,
			CaseName:    "Iyer Contract Review",
			ClientName:  "Lakshmi Iyer",
			ClientEmail: "lakshmi.iyer@gmail.com",
		}},
	}
	res := f.engine.Run(context.Background(), "new matter for Lakshmi Iyer", seniorActor())
	if res.Status != RunProcessed || !res.Success {
		t.Fatalf("expected processed run, got %+v", res)
	}
	if len(res.Cases) != 1 || res.Cases[0].Status != StatusCreated {
		t.Fatalf("expected one created case, got %+v", res.Cases)
	}
	if res.Summary != "One new case for Lakshmi Iyer." {
		t.Fatalf("unexpected summary %q", res.Summary)
	}
}

func TestProcessPayloadsUnknownAction(t *testing.T) {
	f := newFixture()
	res := f.engine.ProcessPayloads(context.Background(), []CasePayload{
		{ActionType: "ARCHIVE_CASE", CaseName: "Verma Estate"},
	}, seniorActor())
	if len(res.Cases) != 1 {
		t.Fatalf("expected one result, got %d", len(res.Cases))
	}
	if res.Cases[0].Status != StatusUnknownAction {
		t.Fatalf("expected UNKNOWN_ACTION, got %s", res.Cases[0].Status)
	}
}

func TestProcessPayloadsClarificationAction(t *testing.T) {
	f := newFixture()
	res := f.engine.ProcessPayloads(context.Background(), []CasePayload{
		{ActionType: ActionClarificationNeeded, CaseName: "Some Mehta case"},
	}, seniorActor())
	if res.Cases[0].Status != StatusClarificationNeeded {
		t.Fatalf("expected CLARIFICATION_NEEDED, got %s", res.Cases[0].Status)
	}
}

func TestProcessPayloadsSiblingIsolation(t *testing.T) {
	f := newFixture()
	f.store.add(docket.CaseSummary{ID: "c1", CaseName: "Sharma Property Dispute", ClientName: "Priya Sharma"})
	f.store.hearingErr = errors.New("disk full")
	res := f.engine.ProcessPayloads(context.Background(), []CasePayload{
		{ActionType: ActionUpdateExisting, LookupKey: "Priya Sharma", Outcome: "Arguments heard."},
		{ActionType: ActionCreateNew, CaseName: "Iyer Contract Review", ClientName: "Lakshmi Iyer", ClientEmail: "lakshmi.iyer@gmail.com"},
	}, seniorActor())

	if res.Cases[0].Status != StatusErrored {
		t.Fatalf("expected first payload to fail, got %s", res.Cases[0].Status)
	}
	if res.Cases[1].Status != StatusCreated {
		t.Fatalf("a failing payload must not abort its sibling, got %s", res.Cases[1].Status)
	}
}

type panicStore struct {
	*fakeStore
}

func (panicStore) Search(context.Context, string) ([]docket.CaseSummary, error) {
	panic("corrupt index")
}

func TestProcessPayloadsRecoversFromPanic(t *testing.T) {
	f := newFixture()
	f.engine.store = panicStore{f.store}
	res := f.engine.ProcessPayloads(context.Background(), []CasePayload{
		{ActionType: ActionUpdateExisting, LookupKey: "Sharma"},
	}, seniorActor())
	if res.Cases[0].Status != StatusErrored {
		t.Fatalf("expected recovered panic to surface as ERROR, got %s", res.Cases[0].Status)
	}
	if !strings.Contains(res.Cases[0].Error, "corrupt index") {
		t.Fatalf("expected panic value in error, got %q", res.Cases[0].Error)
	}
}

func TestJuniorActorCannotDelegate(t *testing.T) {
	f := newFixture()
	junior := docket.Actor{
		ID:          "u2",
		Role:        docket.RoleJunior,
		DisplayName: "Adv. Kiran Rao",
		Email:       "kiran.rao@nairlaw.in",
		JuniorEmail: "someone@nairlaw.in",
	}
	res := f.engine.ProcessPayloads(context.Background(), []CasePayload{{
		ActionType:     ActionCreateNew,
		CaseName:       "Iyer Contract Review",
		ClientName:     "Lakshmi Iyer",
		ClientEmail:    "lakshmi.iyer@gmail.com",
		AssignToJunior: true,
		JuniorEmail:    "intern@nairlaw.in",
	}}, junior)

	if res.Cases[0].Status != StatusCreated {
		t.Fatalf("expected created case, got %+v", res.Cases[0])
	}
	if hasAction(res.Cases[0], "junior_assigned") {
		t.Fatal("junior actor must not be able to delegate to another junior")
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("expected no assignment email, got %+v", f.notifier.sent)
	}
}
