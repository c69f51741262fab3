package workflow

import (
	"context"
	"fmt"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/match"
)

// runCreate validates required fields, guards against duplicates, and
// persists a new case as draft or active. Drafts never trigger outbound
// communication; active cases notify the junior and schedule follow-ups, but
// the client is deliberately not contacted until the first hearing.
func (e *Engine) runCreate(ctx context.Context, p CasePayload, actor docket.Actor, log *OperationLog) PayloadResult {
	missing := e.collectMissingFields(p, actor)

	summary := p.CaseSummary
	if summary == "" && p.RawNotes != "" {
		if s, err := e.extractor.Summarize(ctx, p.RawNotes); err == nil && s != "" {
			summary = s
		} else {
			summary = p.RawNotes
		}
	}

	if existing := match.CheckDuplicate(ctx, e.store, match.Proposed{CaseName: p.CaseName, ClientName: p.ClientName}); existing != nil {
		log.Record(OpDuplicate, "creation of %q blocked: collides with existing case %q (%s)",
			p.displayName(), existing.CaseName, existing.CaseNumber)
		return PayloadResult{
			Status:   StatusDuplicateCase,
			CaseName: coalesce(p.CaseName, existing.CaseName),
			Actions:  []string{"duplicate_detected"},
			ExistingCase: &ExistingCaseRef{
				ID:         existing.ID,
				CaseName:   existing.CaseName,
				CaseNumber: existing.CaseNumber,
				URL:        e.caseURL(existing.ID),
			},
		}
	}

	status := docket.StatusActive
	if len(missing) > 0 {
		status = docket.StatusDraft
	}
	receipt, err := e.store.Create(ctx, docket.NewCase{
		CaseName:        coalesce(p.CaseName, p.ClientName),
		CaseNumber:      p.CaseNumber,
		Status:          status,
		ClientName:      p.ClientName,
		ClientEmail:     p.ClientEmail,
		JuniorName:      p.JuniorName,
		JuniorEmail:     p.JuniorEmail,
		CaseSummary:     summary,
		NextHearingDate: p.NextHearingDate,
		DocumentsNeeded: p.DocumentsNeeded,
	}, actor)
	if err != nil {
		return e.errorResult(p, log, fmt.Errorf("create case: %w", err))
	}
	log.Record(OpCreate, "created case %q (%s) with status %s", p.displayName(), receipt.CaseNumber, status)

	result := PayloadResult{
		CaseName:   coalesce(p.CaseName, p.ClientName),
		CaseNumber: receipt.CaseNumber,
		CaseID:     receipt.ID,
		Actions:    []string{"case_created"},
	}

	if status == docket.StatusDraft {
		// Incomplete data: no notifications, no scheduling.
		result.Status = StatusCreatedAsDraft
		result.MissingFields = missing
		return result
	}
	result.Status = StatusCreated

	created := docket.CaseSummary{
		ID:            receipt.ID,
		CaseName:      result.CaseName,
		CaseNumber:    receipt.CaseNumber,
		Status:        status,
		ClientName:    p.ClientName,
		ClientEmail:   p.ClientEmail,
		LatestOutcome: p.Outcome,
	}

	if p.AssignToJunior || (actor.Role == docket.RoleSenior && actor.AutoAssignJunior) {
		juniorName := coalesce(p.JuniorName, actor.JuniorName)
		juniorEmail := coalesce(p.JuniorEmail, actor.JuniorEmail)
		e.notifyJuniorAssignment(ctx, created, juniorName, juniorEmail, summary, &result, log)
	}

	if len(p.DocumentsNeeded) > 0 {
		e.scheduleDocumentReminder(ctx, DocumentReminder{
			CaseName:  created.CaseName,
			Documents: p.DocumentsNeeded,
			DueDate:   p.NextHearingDate,
		}, actor, &result, log)
	}

	if p.NextHearingDate != "" {
		e.scheduleHearing(ctx, p, created, actor, &result, log)
	}

	// No client email at intake; the first hearing report is the first
	// client contact.
	return result
}

// collectMissingFields unions the creation requirements with whatever the
// extractor already flagged, preserving first-seen order.
func (e *Engine) collectMissingFields(p CasePayload, actor docket.Actor) []string {
	var missing []string
	seen := map[string]struct{}{}
	add := func(f string) {
		if f == "" {
			return
		}
		if _, dup := seen[f]; dup {
			return
		}
		seen[f] = struct{}{}
		missing = append(missing, f)
	}

	if p.CaseName == "" {
		add("case_name")
	}
	if p.ClientName == "" {
		add("client_name")
	}
	if p.ClientEmail == "" {
		add("client_email")
	}
	if actor.Role == docket.RoleSenior && p.AssignToJunior &&
		p.JuniorEmail == "" && actor.JuniorEmail == "" {
		add("junior_email")
	}
	for _, f := range p.MissingFields {
		add(f)
	}
	return missing
}
