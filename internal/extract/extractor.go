// Package extract is the natural-language boundary: it turns a free-form
// voice-note transcript into structured case payloads for the workflow
// engine. The workflow never retries extraction itself.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casescribe/casescribe/internal/docket"
	"github.com/casescribe/casescribe/internal/workflow"
)

const maxTranscriptChars = 24000

const extractionSchema = `{
  "cases": [
    {
      "action_type": "UPDATE_EXISTING | CREATE_NEW | CLARIFICATION_NEEDED",
      "lookup_key": "case number or client name only, never a compound description",
      "case_name": "",
      "case_number": "",
      "client_name": "",
      "client_email": "",
      "junior_name": "",
      "junior_email": "",
      "outcome": "",
      "status": "CONTINUING | FINALIZED | DRAFT | ACTIVE or empty",
      "case_summary": "",
      "next_hearing_date": "YYYY-MM-DD or empty",
      "next_hearing_time": "HH:MM or H:MM AM/PM or empty",
      "documents_needed": [],
      "assign_to_junior": false,
      "missing_fields": [],
      "raw_notes": "the transcript portion this payload came from"
    }
  ],
  "overall_summary": "",
  "requires_clarification": false,
  "clarification_message": ""
}`

// CaseExtractor implements workflow.Extractor over an LLM caller.
type CaseExtractor struct {
	exec *Executor
}

func NewCaseExtractor(caller LLMCaller) *CaseExtractor {
	return &CaseExtractor{exec: NewExecutor(caller)}
}

func (x *CaseExtractor) Extract(ctx context.Context, transcript string, actor docket.Actor) (workflow.Extraction, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return workflow.Extraction{}, errors.New("transcript is empty")
	}
	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}

	prompt := fmt.Sprintf(`A lawyer dictated the following voice note about one or more legal cases.
Lawyer: %s (role %s).

Identify every distinct case mentioned and classify each as an update to an
existing case, a new case, or one needing clarification. Dates must be
ISO-format. Use CLARIFICATION_NEEDED only when the reference is genuinely
ambiguous from the note alone.

Transcript:
"""
%s
"""

JSON schema:
%s`, actor.DisplayName, actor.Role, transcript, extractionSchema)

	var out workflow.Extraction
	err := x.exec.Run(ctx, "case extraction", prompt, &out, func() error {
		if !out.RequiresClarification && len(out.Cases) == 0 {
			return errors.New("no cases extracted and no clarification requested")
		}
		for i, c := range out.Cases {
			if strings.TrimSpace(string(c.ActionType)) == "" {
				return fmt.Errorf("cases[%d] is missing action_type", i)
			}
		}
		return nil
	})
	if err != nil {
		return workflow.Extraction{}, err
	}
	return out, nil
}

// Summarize condenses raw dictated notes into a short case summary. Used by
// the create branch when no summary was dictated.
func (x *CaseExtractor) Summarize(ctx context.Context, notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "", nil
	}
	if len(notes) > maxTranscriptChars {
		notes = notes[:maxTranscriptChars]
	}

	prompt := fmt.Sprintf(`Summarize the following dictated case notes in two to three sentences
suitable as a case file summary.

Notes:
"""
%s
"""

JSON schema:
{"summary": ""}`, notes)

	var out struct {
		Summary string `json:"summary"`
	}
	err := x.exec.Run(ctx, "note summarization", prompt, &out, func() error {
		if strings.TrimSpace(out.Summary) == "" {
			return errors.New("summary is empty")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Summary), nil
}

var _ workflow.Extractor = (*CaseExtractor)(nil)
