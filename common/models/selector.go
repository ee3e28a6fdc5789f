package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// SelectorKind identifies how a selector value is interpreted.
type SelectorKind string

const (
	// SelectorCSS is a CSS selector evaluated against the document.
	SelectorCSS SelectorKind = "css"
	// SelectorXPath is an XPath expression evaluated against the document.
	SelectorXPath SelectorKind = "xpath"
	// SelectorText matches the first element whose own text contains the value.
	SelectorText SelectorKind = "text"
)

// ErrInvalidSelector is returned when a selector value cannot be compiled.
var ErrInvalidSelector = errors.New("invalid selector")

// Selector is a tagged locator rule. The kind is dispatched explicitly by the
// extractor; there is no runtime type inspection.
type Selector struct {
	Kind  SelectorKind `json:"kind"`
	Value string       `json:"value"`
}

// IsZero reports whether the selector is unset.
func (s Selector) IsZero() bool {
	return s.Value == ""
}

func (s Selector) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.Value)
}

// Validate checks that the selector value is syntactically well-formed for its
// kind. Text selectors accept any non-empty value.
func (s Selector) Validate() error {
	if s.Value == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidSelector)
	}
	switch s.Kind {
	case SelectorCSS:
		if _, err := cascadia.Compile(s.Value); err != nil {
			return fmt.Errorf("%w: css %q: %v", ErrInvalidSelector, s.Value, err)
		}
	case SelectorXPath:
		if _, err := xpath.Compile(s.Value); err != nil {
			return fmt.Errorf("%w: xpath %q: %v", ErrInvalidSelector, s.Value, err)
		}
	case SelectorText:
		// any non-empty value is a valid substring match
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSelector, s.Kind)
	}
	return nil
}

// ParseSelector classifies a raw selector string coming from the AI model.
// Expressions starting with "/" or "(" are treated as XPath, a "text=" prefix
// as a text match, everything else as CSS.
func ParseSelector(raw string) Selector {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selector{}
	}
	if strings.HasPrefix(raw, "text=") {
		return Selector{Kind: SelectorText, Value: strings.TrimPrefix(raw, "text=")}
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "(") {
		return Selector{Kind: SelectorXPath, Value: raw}
	}
	return Selector{Kind: SelectorCSS, Value: raw}
}
