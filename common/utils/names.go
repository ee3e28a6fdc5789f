package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// SafeName normalizes a company name into a stable identifier usable as a
// map key or file name fragment. "Acme Corp." and "acme corp" map to the
// same identifier.
func SafeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = unsafeNameChars.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// AbsoluteURL resolves href against base. Relative hrefs scraped from
// listing pages are returned fully qualified, absolute hrefs pass through
// unchanged.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	if h.IsAbs() {
		return href
	}

	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
