// Package report builds the markdown documents sent to clients and juniors
// and rendered into case docket PDFs.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/casescribe/casescribe/internal/docket"
)

// HearingReport is the structured update sent to the client after a hearing
// outcome is recorded, stamped with the hearing sequence number.
func HearingReport(c docket.CaseSummary, hearingNumber int, outcome, nextHearingDate string, documents []string) (subject, body string) {
	subject = fmt.Sprintf("Hearing %d update — %s", hearingNumber, c.CaseName)

	var b strings.Builder
	fmt.Fprintf(&b, "# Hearing %d Report\n\n", hearingNumber)
	fmt.Fprintf(&b, "- Case: %s\n", c.CaseName)
	if c.CaseNumber != "" {
		fmt.Fprintf(&b, "- Case number: %s\n", c.CaseNumber)
	}
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format("2 January 2006"))

	fmt.Fprintf(&b, "## Outcome\n\n%s\n\n", sanitizeBlock(outcome))
	if nextHearingDate != "" {
		fmt.Fprintf(&b, "## Next Hearing\n\nThe next hearing is listed for %s.\n\n", nextHearingDate)
	}
	if len(documents) > 0 {
		fmt.Fprintf(&b, "## Documents Required\n\n")
		for _, d := range documents {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}
	b.WriteString("Please reach out with any questions about this update.\n")
	return subject, b.String()
}

// ClosingNotice is the final client communication when a case is closed.
func ClosingNotice(c docket.CaseSummary, outcome string) (subject, body string) {
	subject = fmt.Sprintf("Case closed — %s", c.CaseName)

	var b strings.Builder
	fmt.Fprintf(&b, "# Case Closed\n\n")
	fmt.Fprintf(&b, "- Case: %s\n", c.CaseName)
	if c.CaseNumber != "" {
		fmt.Fprintf(&b, "- Case number: %s\n", c.CaseNumber)
	}
	b.WriteString("\n")
	if outcome != "" {
		fmt.Fprintf(&b, "## Final Outcome\n\n%s\n\n", sanitizeBlock(outcome))
	}
	b.WriteString("This matter has been finalized and the file is now closed. Thank you for trusting us with your case.\n")
	return subject, b.String()
}

// DocumentRequest asks the recipient to provide outstanding documents.
func DocumentRequest(caseName string, documents []string) (subject, body string) {
	subject = fmt.Sprintf("Documents needed — %s", caseName)

	var b strings.Builder
	fmt.Fprintf(&b, "# Documents Needed\n\nFor the matter **%s**, the following documents are outstanding:\n\n", caseName)
	for _, d := range documents {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	b.WriteString("\nPlease share these at your earliest convenience.\n")
	return subject, b.String()
}

// JuniorAssignment notifies a junior that a case has been assigned to them.
func JuniorAssignment(c docket.CaseSummary, juniorName, latestOutcome string) (subject, body string) {
	subject = fmt.Sprintf("Case assigned to you — %s", c.CaseName)

	var b strings.Builder
	fmt.Fprintf(&b, "# Case Assignment\n\n")
	if juniorName != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", juniorName)
	}
	fmt.Fprintf(&b, "You have been assigned **%s**", c.CaseName)
	if c.CaseNumber != "" {
		fmt.Fprintf(&b, " (%s)", c.CaseNumber)
	}
	b.WriteString(".\n\n")
	if latestOutcome != "" {
		fmt.Fprintf(&b, "## Latest Update\n\n%s\n\n", sanitizeBlock(latestOutcome))
	}
	b.WriteString("Please review the file and follow up on the next steps.\n")
	return subject, b.String()
}

// CaseDocket renders a full case summary with the hearing timeline, used for
// the PDF docket report.
func CaseDocket(c docket.CaseSummary, hearings []docket.Hearing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Case Docket — %s\n\n", c.CaseName)
	fmt.Fprintf(&b, "- Case number: %s\n", valueOrDash(c.CaseNumber))
	fmt.Fprintf(&b, "- Status: %s\n", c.Status)
	fmt.Fprintf(&b, "- Client: %s\n", valueOrDash(c.ClientName))
	fmt.Fprintf(&b, "- Hearings held: %d\n", c.HearingsHeld)
	if c.NextHearingDate != "" {
		fmt.Fprintf(&b, "- Next hearing: %s\n", c.NextHearingDate)
	}
	b.WriteString("\n")

	if c.CaseSummary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", sanitizeBlock(c.CaseSummary))
	}
	if c.LatestOutcome != "" {
		fmt.Fprintf(&b, "## Latest Outcome\n\n%s\n\n", sanitizeBlock(c.LatestOutcome))
	}
	if len(c.DocumentsNeeded) > 0 {
		fmt.Fprintf(&b, "## Outstanding Documents\n\n")
		for _, d := range c.DocumentsNeeded {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Hearing Timeline\n\n")
	if len(hearings) == 0 {
		b.WriteString("No hearings recorded yet.\n")
	}
	for _, h := range hearings {
		fmt.Fprintf(&b, "### Hearing %d — %s\n\n", h.HearingNumber, valueOrDash(h.Date))
		if h.Outcome != "" {
			fmt.Fprintf(&b, "- Outcome: %s\n", sanitizeLine(h.Outcome))
		}
		if h.Description != "" {
			fmt.Fprintf(&b, "- Notes: %s\n", sanitizeLine(h.Description))
		}
		if h.NextSteps != "" {
			fmt.Fprintf(&b, "- Next steps: %s\n", sanitizeLine(h.NextSteps))
		}
		if len(h.Documents) > 0 {
			fmt.Fprintf(&b, "- Documents submitted: %s\n", strings.Join(h.Documents, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sanitizeLine(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return "-"
	}
	return s
}

func sanitizeBlock(s string) string {
	return strings.TrimSpace(s)
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
