package visual

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "login-page", "login-page"},
		{"spaces kept", "Login page", "Login page"},
		{"single invalid", "a:b", "a_b"},
		{"run collapses", `a<>:"/\|?*b`, "a_b"},
		{"control chars", "a\x00\x1fb", "a_b"},
		{"trailing dots", "name...", "name_"},
		{"inner dots kept", "v1.2.3", "v1.2.3"},
		{"only invalid", `<>:"/\|?*`, "_"},
		{"empty", "", "_"},
		{"only dots", "...", "_"},
		{"only space", " ", "_"},
		{"only whitespace", "\u00a0\u3000", "_"},
		{"trailing dot and space", "a. ", "a_"},
		{"trailing spaces", "name  ", "name_"},
		{"leading space kept", " name", " name"},
		{"unicode kept", "ダッシュボード", "ダッシュボード"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_NeverProducesSeparatorsOrEmpty(t *testing.T) {
	inputs := []string{"", "/", "..", "a/b/c", `C:\tmp\x`, "\t\n", "???", "trailing/.", "a. ", "   "}
	for _, in := range inputs {
		got := Sanitize(in)
		if got == "" {
			t.Errorf("Sanitize(%q) returned empty string", in)
		}
		if strings.ContainsAny(got, `/\`) {
			t.Errorf("Sanitize(%q) = %q contains a path separator", in, got)
		}
		if strings.HasSuffix(got, ".") || strings.HasSuffix(got, " ") {
			t.Errorf("Sanitize(%q) = %q ends with a dot", in, got)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	for _, in := range []string{"a:b", "x...", "", `\\server\share`, "ok"} {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
