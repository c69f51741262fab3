package docket

import "strings"

type Role string

const (
	RoleSenior Role = "SENIOR"
	RoleJunior Role = "JUNIOR"
)

// Actor is the authenticated user on whose behalf a workflow run executes.
// It is normalized once at construction and treated as immutable afterwards.
type Actor struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	JuniorName  string `json:"junior_name,omitempty"`
	JuniorEmail string `json:"junior_email,omitempty"`

	AutoAssignJunior bool `json:"auto_assign_junior,omitempty"`
	SendClientEmails bool `json:"send_client_emails,omitempty"`
	ReminderLeadDays int  `json:"reminder_lead_days,omitempty"`
}

// NormalizeActor trims fields, defaults the role, and enforces role
// constraints: a junior actor can never carry a delegated junior or the
// auto-assign preference.
func NormalizeActor(a Actor) Actor {
	a.ID = strings.TrimSpace(a.ID)
	a.DisplayName = strings.TrimSpace(a.DisplayName)
	a.Email = strings.TrimSpace(a.Email)
	a.JuniorName = strings.TrimSpace(a.JuniorName)
	a.JuniorEmail = strings.TrimSpace(a.JuniorEmail)

	switch strings.ToUpper(strings.TrimSpace(string(a.Role))) {
	case string(RoleJunior):
		a.Role = RoleJunior
	default:
		a.Role = RoleSenior
	}

	if a.Role == RoleJunior {
		a.JuniorName = ""
		a.JuniorEmail = ""
		a.AutoAssignJunior = false
	}
	return a
}

// HasJunior reports whether the actor has a configured junior to delegate to.
func (a Actor) HasJunior() bool {
	return a.Role == RoleSenior && (a.JuniorEmail != "" || a.JuniorName != "")
}
