package browser

import (
	"context"
	"errors"

	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

var (
	// ErrElementNotFound signals a selector matched nothing on the page.
	ErrElementNotFound = errors.New("browser: element not found")
	// ErrBrowserClosed signals operations on a closed browser.
	ErrBrowserClosed = errors.New("browser: browser is closed")
)

// Browser opens pages. Implementations own the underlying browser process.
type Browser interface {
	Open(ctx context.Context, url string) (Page, error)
	Close() error
}

// Page is one open tab. Extraction works on HTML snapshots, so the only
// interactions a page needs are navigation, clicking the next-page control
// and serializing the current DOM.
type Page interface {
	// HTML returns the rendered DOM as a string.
	HTML() (string, error)
	// URL returns the page's current URL.
	URL() string
	// Navigate loads a new URL in the same tab and waits for it to settle.
	Navigate(ctx context.Context, url string) error
	// ClickNext clicks the element matched by the selector and waits for
	// the page to settle. Returns false without error when the element is
	// absent, which ends pagination.
	ClickNext(ctx context.Context, sel models.Selector) (bool, error)
	Close() error
}
