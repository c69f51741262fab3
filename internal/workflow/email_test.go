package workflow

import "testing"

func TestResolveClientEmail(t *testing.T) {
	const actor = "meera.nair@nairlaw.in"

	cases := []struct {
		name      string
		candidate string
		want      string
	}{
		{"real address used as-is", "priya.sharma@gmail.com", "priya.sharma@gmail.com"},
		{"empty falls back to actor", "", actor},
		{"whitespace falls back to actor", "   ", actor},
		{"example.com is placeholder", "priya@example.com", actor},
		{"mailinator is placeholder", "x1234@mailinator.com", actor},
		{"test local part is placeholder", "test@gmail.com", actor},
		{"noreply local part is placeholder", "noreply@lawfirm.in", actor},
		{"short alpha local is throwaway", "abc@gmail.com", actor},
		{"short numeric local is kept", "a1@gmail.com", "a1@gmail.com"},
		{"four letter local is kept", "asha@gmail.com", "asha@gmail.com"},
		{"missing domain falls back", "priya@", actor},
		{"missing local falls back", "@gmail.com", actor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveClientEmail(tc.candidate, actor); got != tc.want {
				t.Fatalf("ResolveClientEmail(%q) = %q, want %q", tc.candidate, got, tc.want)
			}
		})
	}
}

func TestResolveClientEmailNoActorFallback(t *testing.T) {
	if got := ResolveClientEmail("test@example.com", ""); got != "" {
		t.Fatalf("expected empty result with no fallback, got %q", got)
	}
}
