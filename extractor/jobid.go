package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

// Career sites encode job IDs inconsistently. These patterns cover the
// common URL shapes, tried in order.
var jobIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/jobs?/(\w+)`),
	regexp.MustCompile(`/positions?/(\w+)`),
	regexp.MustCompile(`/careers?/(\w+)`),
	regexp.MustCompile(`id=(\w+)`),
	regexp.MustCompile(`jobId=(\w+)`),
	regexp.MustCompile(`positionId=(\w+)`),
	regexp.MustCompile(`/(\d+)/?$`),
}

var idAttrs = []string{"data-id", "data-job-id", "data-position-id", "id"}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// ExtractJobID pulls a job's unique identifier out of the element matched
// by sel. It tries href URL patterns, then data attributes, then a purely
// numeric text content. Returns "" when nothing identifies the job.
func ExtractJobID(item *goquery.Selection, sel models.Selector) string {
	m := First(item, sel)
	if m == nil {
		return ""
	}

	if href, ok := m.Attr("href"); ok {
		if id := jobIDFromURL(href); id != "" {
			return id
		}
	}

	for _, attr := range idAttrs {
		if v, ok := m.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	text := strings.TrimSpace(m.Text())
	if digitsOnly.MatchString(text) {
		return text
	}

	return ""
}

func jobIDFromURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	for _, pattern := range jobIDPatterns {
		if match := pattern.FindStringSubmatch(href); match != nil {
			return match[1]
		}
	}
	return ""
}
