package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/match"
	"github.com/casescribe/casescribe/internal/report"
)

// draftMissingFields is attached to placeholder drafts synthesized when an
// update's lookup key resolves to nothing.
var draftMissingFields = []string{"case_verification", "client_name", "client_email"}

// runUpdate walks one update payload through locate, hearing recording,
// field patching, status actions, scheduling, document handling, and
// notification. Sub-steps commit independently; there is no rollback.
func (e *Engine) runUpdate(ctx context.Context, p CasePayload, actor docket.Actor, log *OperationLog) PayloadResult {
	key := coalesce(p.LookupKey, p.CaseNumber, p.ClientName, p.CaseName)
	log.Record(OpLookup, "locating case for lookup key %q", key)

	found, early, err := e.locateCase(ctx, p, key, actor, log)
	if err != nil {
		return e.errorResult(p, log, err)
	}
	if early != nil {
		return *early
	}

	result := PayloadResult{
		Status:     StatusUpdated,
		CaseName:   found.CaseName,
		CaseNumber: found.CaseNumber,
		CaseID:     found.ID,
		Actions:    []string{},
	}
	clientEmail := ResolveClientEmail(coalesce(p.ClientEmail, found.ClientEmail), actor.Email)

	// Hearing recording happens before field patches so the sequence number
	// reflects the state the outcome was dictated against.
	hearingNumber := 0
	if p.Outcome != "" {
		h := docket.NewHearing{
			Date:        e.today(),
			Description: coalesce(p.RawNotes, p.Outcome),
			Outcome:     p.Outcome,
			NextSteps:   nextStepsNote(p.NextHearingDate),
			Documents:   p.DocumentsNeeded,
		}
		n, err := e.store.AddHearing(ctx, found.ID, h, actor)
		if err != nil {
			return e.errorResult(p, log, fmt.Errorf("record hearing: %w", err))
		}
		hearingNumber = n
		result.HearingNumber = n
		result.Actions = append(result.Actions, "hearing_recorded")
		log.Record(OpHearing, "recorded hearing %d for %q", n, found.CaseName)
	}

	patch, mappedStatus := e.buildUpdatePatch(p, found)
	if p.AssignToJunior {
		juniorName := coalesce(p.JuniorName, actor.JuniorName)
		juniorEmail := coalesce(p.JuniorEmail, actor.JuniorEmail)
		if juniorName != "" {
			patch.JuniorName = &juniorName
		}
		if juniorEmail != "" {
			patch.JuniorEmail = &juniorEmail
		}
		// Assignment notifications go out on updates too, not just creation.
		e.notifyJuniorAssignment(ctx, found, juniorName, juniorEmail, p.Outcome, &result, log)
	}
	if !patch.IsEmpty() {
		if err := e.store.Update(ctx, found.ID, patch, actor); err != nil {
			return e.errorResult(p, log, fmt.Errorf("apply updates: %w", err))
		}
		result.Actions = append(result.Actions, "case_updated")
		log.Record(OpUpdate, "applied field updates to %q", found.CaseName)
	}

	if mappedStatus != nil && *mappedStatus == docket.StatusFinalized {
		if err := e.store.CloseCase(ctx, found.ID, actor); err != nil {
			return e.errorResult(p, log, fmt.Errorf("close case: %w", err))
		}
		result.Actions = append(result.Actions, "case_closed")
		log.Record(OpClose, "closed case %q", found.CaseName)
		if clientEmail != "" {
			subject, body := report.ClosingNotice(found, p.Outcome)
			e.sendEmail(ctx, clientEmail, subject, body, &result, log)
		}
	}

	// Scheduling runs whenever a next hearing date is present, regardless of
	// the status branch taken above.
	if p.NextHearingDate != "" {
		e.scheduleHearing(ctx, p, found, actor, &result, log)
	}

	if len(p.DocumentsNeeded) > 0 {
		e.handleDocuments(ctx, p, found, actor, clientEmail, &result, log)
	}

	if hearingNumber > 0 {
		if clientEmail != "" {
			subject, body := report.HearingReport(found, hearingNumber, p.Outcome, p.NextHearingDate, p.DocumentsNeeded)
			e.sendEmail(ctx, clientEmail, subject, body, &result, log)
		}
		// The first hearing report doubles as the welcome communication, so
		// only the flag is set here; retries must not re-send it.
		if hearingNumber == 1 && !found.WelcomeSent {
			welcome := true
			if err := e.store.Update(ctx, found.ID, docket.CasePatch{WelcomeSent: &welcome}, actor); err != nil {
				return e.errorResult(p, log, fmt.Errorf("mark welcome sent: %w", err))
			}
		}
	}

	return result
}

// locateCase resolves the lookup key. A non-nil early result short-circuits
// the branch: placeholder draft creation or a clarification request.
func (e *Engine) locateCase(ctx context.Context, p CasePayload, key string, actor docket.Actor, log *OperationLog) (docket.CaseSummary, *PayloadResult, error) {
	res, err := match.FindCase(ctx, e.store, key)
	if err != nil {
		return docket.CaseSummary{}, nil, fmt.Errorf("case search: %w", err)
	}

	switch res.Outcome {
	case match.OutcomeMatched:
		return *res.Case, nil, nil

	case match.OutcomeNotFound:
		draft, err := e.createUnknownDraft(ctx, p, key, actor, log)
		if err != nil {
			return docket.CaseSummary{}, nil, err
		}
		return docket.CaseSummary{}, &draft, nil

	default: // ambiguous
		real := res.Candidates[:0:0]
		for _, c := range res.Candidates {
			if !strings.HasPrefix(c.CaseName, docket.PlaceholderPrefix) {
				real = append(real, c)
			}
		}
		switch len(real) {
		case 1:
			found, err := e.store.GetByID(ctx, real[0].ID)
			if err != nil {
				return docket.CaseSummary{}, nil, fmt.Errorf("load matched case: %w", err)
			}
			return found, nil, nil
		case 0:
			draft, err := e.createUnknownDraft(ctx, p, key, actor, log)
			if err != nil {
				return docket.CaseSummary{}, nil, err
			}
			return docket.CaseSummary{}, &draft, nil
		default:
			log.Record(OpClarification, "lookup key %q matched %d cases; clarification needed", key, len(real))
			return docket.CaseSummary{}, &PayloadResult{
				Status:     StatusClarificationNeeded,
				CaseName:   key,
				Actions:    []string{"clarification_requested"},
				Candidates: real,
			}, nil
		}
	}
}

// createUnknownDraft recovers an unresolvable lookup by persisting a
// placeholder draft instead of surfacing a hard failure.
func (e *Engine) createUnknownDraft(ctx context.Context, p CasePayload, key string, actor docket.Actor, log *OperationLog) (PayloadResult, error) {
	name := fmt.Sprintf("%s %s", docket.PlaceholderPrefix, key)
	receipt, err := e.store.Create(ctx, docket.NewCase{
		CaseName:        name,
		Status:          docket.StatusDraft,
		CaseSummary:     coalesce(p.Outcome, p.RawNotes),
		ClientName:      p.ClientName,
		ClientEmail:     p.ClientEmail,
		NextHearingDate: p.NextHearingDate,
		DocumentsNeeded: p.DocumentsNeeded,
	}, actor)
	if err != nil {
		return PayloadResult{}, fmt.Errorf("create placeholder draft: %w", err)
	}

	// Best effort; a missing history note must not fail the draft path.
	note := fmt.Sprintf("Auto-created from a voice note; the lookup key %q did not match any existing case.", key)
	if nerr := e.store.AppendHistoryNote(ctx, receipt.ID, note, actor); nerr != nil {
		log.Record(OpError, "history note for draft %q not recorded: %v", name, nerr)
	}

	log.Record(OpCreate, "no case matched %q; created placeholder draft %q", key, name)
	missing := make([]string, len(draftMissingFields))
	copy(missing, draftMissingFields)
	return PayloadResult{
		Status:        StatusCreatedAsDraft,
		CaseName:      name,
		CaseNumber:    receipt.CaseNumber,
		CaseID:        receipt.ID,
		Actions:       []string{"draft_created"},
		MissingFields: missing,
	}, nil
}

// buildUpdatePatch collects only the fields the payload actually carries.
// The case number is patched only when the record has none; once assigned it
// never changes.
func (e *Engine) buildUpdatePatch(p CasePayload, found docket.CaseSummary) (docket.CasePatch, *docket.CaseStatus) {
	var patch docket.CasePatch

	mapped := mapPayloadStatus(p.Status)
	patch.Status = mapped
	if p.NextHearingDate != "" {
		v := p.NextHearingDate
		patch.NextHearingDate = &v
	}
	if len(p.DocumentsNeeded) > 0 {
		docs := p.DocumentsNeeded
		patch.DocumentsNeeded = &docs
	}
	if p.ClientEmail != "" {
		v := p.ClientEmail
		patch.ClientEmail = &v
	}
	if p.ClientName != "" {
		v := p.ClientName
		patch.ClientName = &v
	}
	if p.CaseSummary != "" {
		v := p.CaseSummary
		patch.CaseSummary = &v
	}
	if p.Outcome != "" {
		v := p.Outcome
		patch.LatestOutcome = &v
	}
	if p.CaseNumber != "" && found.CaseNumber == "" {
		v := p.CaseNumber
		patch.CaseNumber = &v
	}
	return patch, mapped
}

// mapPayloadStatus translates the extractor's status vocabulary into the
// store's. Unmapped non-empty values default to ACTIVE.
func mapPayloadStatus(status string) *docket.CaseStatus {
	if status == "" {
		return nil
	}
	var s docket.CaseStatus
	switch status {
	case string(docket.StatusContinuing):
		s = docket.StatusContinuing
	case string(docket.StatusFinalized):
		s = docket.StatusFinalized
	case string(docket.StatusDraft):
		s = docket.StatusDraft
	case string(docket.StatusActive):
		s = docket.StatusActive
	default:
		s = docket.StatusActive
	}
	return &s
}

func (e *Engine) scheduleHearing(ctx context.Context, p CasePayload, found docket.CaseSummary, actor docket.Actor, result *PayloadResult, log *OperationLog) {
	start, err := parseHearingStart(p.NextHearingDate, p.NextHearingTime)
	if err != nil {
		log.Record(OpError, "hearing not scheduled for %q: %v", found.CaseName, err)
		return
	}
	ev := HearingEvent{
		CaseName:    found.CaseName,
		CaseNumber:  found.CaseNumber,
		Description: coalesce(p.Outcome, found.LatestOutcome),
		Start:       start.Format(time.RFC3339),
		End:         hearingEventEnd(start).Format(time.RFC3339),
	}
	sr, err := e.scheduler.CreateHearingEvent(ctx, ev, actor)
	if err != nil {
		// Scheduler failures degrade; the rest of the workflow continues.
		log.Record(OpError, "calendar event for %q failed: %v", found.CaseName, err)
		return
	}
	result.CalendarEvent = &sr
	if !sr.Skipped {
		result.Actions = append(result.Actions, "calendar_event_scheduled")
		log.Record(OpSchedule, "scheduled hearing event for %q on %s", found.CaseName, p.NextHearingDate)
	}
}

func (e *Engine) handleDocuments(ctx context.Context, p CasePayload, found docket.CaseSummary, actor docket.Actor, clientEmail string, result *PayloadResult, log *OperationLog) {
	e.scheduleDocumentReminder(ctx, DocumentReminder{
		CaseName:  found.CaseName,
		Documents: p.DocumentsNeeded,
		DueDate:   p.NextHearingDate,
	}, actor, result, log)

	if clientEmail != "" {
		subject, body := report.DocumentRequest(found.CaseName, p.DocumentsNeeded)
		e.sendEmail(ctx, clientEmail, subject, body, result, log)
	}
	if actor.HasJunior() && actor.JuniorEmail != "" {
		subject, body := report.DocumentRequest(found.CaseName, p.DocumentsNeeded)
		e.sendEmail(ctx, actor.JuniorEmail, "Follow up: "+subject, body, result, log)
	}
}

// scheduleDocumentReminder records the action only when the scheduler
// actually accepted the reminder. A nil or skipped result means the sink is
// unconfigured and nothing was scheduled.
func (e *Engine) scheduleDocumentReminder(ctx context.Context, r DocumentReminder, actor docket.Actor, result *PayloadResult, log *OperationLog) {
	sr, err := e.scheduler.CreateDocumentReminder(ctx, r, actor)
	if err != nil {
		log.Record(OpError, "document reminder for %q failed: %v", r.CaseName, err)
		return
	}
	if sr == nil || sr.Skipped {
		return
	}
	result.Actions = append(result.Actions, "document_reminder_scheduled")
	log.Record(OpSchedule, "scheduled document reminder for %q", r.CaseName)
}

func (e *Engine) notifyJuniorAssignment(ctx context.Context, c docket.CaseSummary, juniorName, juniorEmail, latestOutcome string, result *PayloadResult, log *OperationLog) {
	result.Actions = append(result.Actions, "junior_assigned")
	if juniorEmail == "" {
		log.Record(OpNotify, "junior assigned on %q but no junior email available", c.CaseName)
		return
	}
	subject, body := report.JuniorAssignment(c, juniorName, latestOutcome)
	e.sendEmail(ctx, juniorEmail, subject, body, result, log)
}

// sendEmail delivers through the notifier sink, tolerating failure: email is
// never fatal to a payload.
func (e *Engine) sendEmail(ctx context.Context, to, subject, body string, result *PayloadResult, log *OperationLog) {
	sr, err := e.notifier.Send(ctx, to, subject, body)
	if err != nil {
		log.Record(OpError, "email %q to %s failed: %v", subject, to, err)
		return
	}
	if sr.Skipped {
		log.Record(OpNotify, "email %q skipped (notifier unconfigured)", subject)
		return
	}
	result.EmailSent = true
	log.Record(OpNotify, "sent %q to %s", subject, to)
}

func nextStepsNote(nextHearingDate string) string {
	if nextHearingDate == "" {
		return ""
	}
	return "Next hearing scheduled for " + nextHearingDate
}
