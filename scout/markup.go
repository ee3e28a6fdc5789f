package scout

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// strippedTags is markup that carries no selector information and bloats
// the model prompt.
var strippedTags = []string{"script", "style", "noscript", "svg", "iframe", "link", "meta"}

// CleanMarkup strips non-content markup and bounds the result to maxBytes.
// The model only needs document structure, not payloads.
func CleanMarkup(html string, maxBytes int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range strippedTags {
		doc.Find(tag).Remove()
	}
	doc.Find("*").Contents().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == "#comment"
	}).Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", err
	}

	cleaned = strings.TrimSpace(cleaned)
	if maxBytes > 0 && len(cleaned) > maxBytes {
		cleaned = truncateUTF8(cleaned, maxBytes)
	}

	return cleaned, nil
}

// truncateUTF8 cuts s at limit without splitting a multi-byte rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}
