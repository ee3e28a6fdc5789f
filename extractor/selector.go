package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

// Find returns the selections matched by sel inside root. XPath selectors
// run against the underlying html.Node tree, text selectors match elements
// whose trimmed text contains the value.
func Find(root *goquery.Selection, sel models.Selector) []*goquery.Selection {
	if sel.IsZero() {
		return nil
	}

	switch sel.Kind {
	case models.SelectorXPath:
		return findXPath(root, sel.Value)
	case models.SelectorText:
		return findText(root, sel.Value)
	default:
		var out []*goquery.Selection
		root.Find(sel.Value).Each(func(_ int, s *goquery.Selection) {
			out = append(out, s)
		})
		return out
	}
}

// First returns the first match of sel inside root, or nil.
func First(root *goquery.Selection, sel models.Selector) *goquery.Selection {
	matches := Find(root, sel)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Text returns the trimmed text of the first match, or "" when nothing
// matches.
func Text(root *goquery.Selection, sel models.Selector) string {
	m := First(root, sel)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.Text())
}

// Href returns the href of the first match. When the match itself carries
// no href, the first nested anchor is consulted.
func Href(root *goquery.Selection, sel models.Selector) string {
	m := First(root, sel)
	if m == nil {
		return ""
	}
	if href, ok := m.Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	if href, ok := m.Find("a[href]").First().Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	return ""
}

// Attr returns the named attribute of the first match.
func Attr(root *goquery.Selection, sel models.Selector, name string) string {
	m := First(root, sel)
	if m == nil {
		return ""
	}
	v, _ := m.Attr(name)
	return strings.TrimSpace(v)
}

func findXPath(root *goquery.Selection, expr string) []*goquery.Selection {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil
	}

	var out []*goquery.Selection
	for _, node := range root.Nodes {
		for _, match := range htmlquery.QuerySelectorAll(node, compiled) {
			out = append(out, goquery.NewDocumentFromNode(match).Selection)
		}
	}
	return out
}

func findText(root *goquery.Selection, needle string) []*goquery.Selection {
	needle = strings.ToLower(needle)

	var out []*goquery.Selection
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		if strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), needle) {
			out = append(out, s)
		}
	})
	return out
}
