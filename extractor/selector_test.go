package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

func parseDoc(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Parsing fixture: %v", err)
	}
	return doc.Selection
}

const selectorFixture = `<html><body>
	<div class="job" data-id="j1">
		<h2>Backend Engineer</h2>
		<span class="loc"> Jakarta </span>
		<div class="cta"><a href="/jobs/1">Apply</a></div>
	</div>
	<div class="job" data-id="j2">
		<h2>Data Analyst</h2>
		<a class="direct" href="/jobs/2">Apply</a>
	</div>
	<button>Load more</button>
</body></html>`

func TestFindCSS(t *testing.T) {
	root := parseDoc(t, selectorFixture)

	matches := Find(root, models.Selector{Kind: models.SelectorCSS, Value: "div.job"})
	if len(matches) != 2 {
		t.Fatalf("CSS selector matched %d elements, want 2", len(matches))
	}
}

func TestFindXPath(t *testing.T) {
	root := parseDoc(t, selectorFixture)

	matches := Find(root, models.Selector{Kind: models.SelectorXPath, Value: `//div[@class="job"]//h2`})
	if len(matches) != 2 {
		t.Fatalf("XPath selector matched %d elements, want 2", len(matches))
	}
	if got := strings.TrimSpace(matches[0].Text()); got != "Backend Engineer" {
		t.Errorf("First XPath match text = %q", got)
	}
}

func TestFindText(t *testing.T) {
	root := parseDoc(t, selectorFixture)

	matches := Find(root, models.Selector{Kind: models.SelectorText, Value: "load more"})
	if len(matches) != 1 {
		t.Fatalf("Text selector matched %d elements, want 1", len(matches))
	}
	if goquery.NodeName(matches[0]) != "button" {
		t.Errorf("Text match is a %q, want button", goquery.NodeName(matches[0]))
	}
}

func TestFindZeroSelector(t *testing.T) {
	root := parseDoc(t, selectorFixture)

	if matches := Find(root, models.Selector{}); matches != nil {
		t.Errorf("Zero selector should match nothing, got %d", len(matches))
	}
}

func TestText(t *testing.T) {
	root := parseDoc(t, selectorFixture)

	if got := Text(root, models.Selector{Kind: models.SelectorCSS, Value: "span.loc"}); got != "Jakarta" {
		t.Errorf("Text = %q, want trimmed Jakarta", got)
	}
	if got := Text(root, models.Selector{Kind: models.SelectorCSS, Value: ".missing"}); got != "" {
		t.Errorf("Text on no match = %q, want empty", got)
	}
}

func TestHref(t *testing.T) {
	root := parseDoc(t, selectorFixture)

	// Direct href on the matched element.
	if got := Href(root, models.Selector{Kind: models.SelectorCSS, Value: "a.direct"}); got != "/jobs/2" {
		t.Errorf("Direct Href = %q", got)
	}

	// The match has no href, the nested anchor supplies it.
	if got := Href(root, models.Selector{Kind: models.SelectorCSS, Value: "div.cta"}); got != "/jobs/1" {
		t.Errorf("Nested Href = %q", got)
	}

	if got := Href(root, models.Selector{Kind: models.SelectorCSS, Value: "span.loc"}); got != "" {
		t.Errorf("Href without any anchor = %q, want empty", got)
	}
}

func TestAttr(t *testing.T) {
	root := parseDoc(t, selectorFixture)

	sel := models.Selector{Kind: models.SelectorCSS, Value: "div.job"}
	if got := Attr(root, sel, "data-id"); got != "j1" {
		t.Errorf("Attr = %q, want j1", got)
	}
	if got := Attr(root, sel, "data-missing"); got != "" {
		t.Errorf("Missing attr = %q, want empty", got)
	}
}
