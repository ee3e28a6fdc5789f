package utils

import "testing"

func TestSafeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Acme", "acme"},
		{"spaces", "Acme Corp", "acme_corp"},
		{"punctuation", "Acme Corp.", "acme_corp"},
		{"case insensitive", "ACME corp", "acme_corp"},
		{"unicode stripped", "Büro GmbH", "b_ro_gmbh"},
		{"leading trailing", "  - Acme - ", "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeName(tt.in); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeNameStable(t *testing.T) {
	if SafeName("Acme Corp.") != SafeName("acme corp") {
		t.Error("Equivalent company names should map to the same identifier")
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"relative path", "https://acme.com/careers", "/jobs/123", "https://acme.com/jobs/123"},
		{"relative sibling", "https://acme.com/careers/", "jobs/123", "https://acme.com/careers/jobs/123"},
		{"already absolute", "https://acme.com/careers", "https://boards.example.com/j/9", "https://boards.example.com/j/9"},
		{"empty href", "https://acme.com", "", ""},
		{"query only", "https://acme.com/careers", "?page=2", "https://acme.com/careers?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsoluteURL(tt.base, tt.href); got != tt.want {
				t.Errorf("AbsoluteURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}
