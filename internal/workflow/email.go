package workflow

import "strings"

// Placeholder addresses show up constantly in dictated notes and demo data.
// Sending to them silently fails delivery, so they fall back to the actor.
var placeholderDomains = map[string]struct{}{
	"example.com":    {},
	"example.org":    {},
	"example.net":    {},
	"test.com":       {},
	"mailinator.com": {},
	"tempmail.com":   {},
	"fake.com":       {},
}

var placeholderLocalParts = map[string]struct{}{
	"test":     {},
	"demo":     {},
	"sample":   {},
	"admin":    {},
	"noreply":  {},
	"no-reply": {},
	"user":     {},
}

// ResolveClientEmail picks the effective delivery address for client
// communication. A missing or placeholder candidate falls back to the
// actor's own email when available, else empty. Real addresses are used
// as-is.
func ResolveClientEmail(candidate, actorEmail string) string {
	candidate = strings.TrimSpace(candidate)
	actorEmail = strings.TrimSpace(actorEmail)
	if candidate == "" {
		return actorEmail
	}
	if isRealEmail(candidate) {
		return candidate
	}
	return actorEmail
}

func isRealEmail(addr string) bool {
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	local := strings.ToLower(addr[:at])
	domain := strings.ToLower(addr[at+1:])

	if _, bad := placeholderDomains[domain]; bad {
		return false
	}
	if _, bad := placeholderLocalParts[local]; bad {
		return false
	}
	// Throwaway locals like a@b.com: one to three letters.
	if len(local) <= 3 && isAlphaOnly(local) {
		return false
	}
	return true
}

func isAlphaOnly(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}
