package browser

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/config"
	"github.com/LexiconIndonesia/jobscout-service/common/models"
)

// RodBrowser drives a headless Chromium instance via go-rod.
type RodBrowser struct {
	browser    *rod.Browser
	navTimeout time.Duration
	stableWait time.Duration
}

// NewRodBrowser launches the browser process and connects to it.
func NewRodBrowser(cfg config.ScraperConfig) (*RodBrowser, error) {
	url, err := launcher.New().
		Headless(cfg.Headless).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	log.Info().Bool("headless", cfg.Headless).Msg("Browser launched")

	return &RodBrowser{
		browser:    browser,
		navTimeout: cfg.NavTimeout,
		stableWait: cfg.StableWait,
	}, nil
}

func (b *RodBrowser) Open(ctx context.Context, url string) (Page, error) {
	if b.browser == nil {
		return nil, ErrBrowserClosed
	}

	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}

	p := &rodPage{
		page:       page,
		navTimeout: b.navTimeout,
		stableWait: b.stableWait,
	}

	if err := p.Navigate(ctx, url); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func (b *RodBrowser) Close() error {
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
	stableWait time.Duration
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx).Timeout(p.navTimeout)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", url, err)
	}

	// Give client-rendered listings a moment to hydrate.
	if p.stableWait > 0 {
		time.Sleep(p.stableWait)
	}

	return nil
}

func (p *rodPage) HTML() (string, error) {
	html, err := p.page.HTML()
	if err != nil {
		return "", fmt.Errorf("serializing page: %w", err)
	}
	return html, nil
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) ClickNext(ctx context.Context, sel models.Selector) (bool, error) {
	page := p.page.Context(ctx).Timeout(p.navTimeout)

	el, err := p.element(page, sel)
	if err != nil {
		// An absent next control means the last page was reached.
		return false, nil
	}

	visible, err := el.Visible()
	if err != nil || !visible {
		return false, nil
	}

	if err := el.Click("left", 1); err != nil {
		return false, fmt.Errorf("clicking next control: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return false, fmt.Errorf("waiting after pagination click: %w", err)
	}
	if p.stableWait > 0 {
		time.Sleep(p.stableWait)
	}

	return true, nil
}

func (p *rodPage) element(page *rod.Page, sel models.Selector) (*rod.Element, error) {
	switch sel.Kind {
	case models.SelectorXPath:
		return page.ElementX(sel.Value)
	case models.SelectorText:
		return page.ElementR("a, button", regexp.QuoteMeta(sel.Value))
	default:
		return page.Element(sel.Value)
	}
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
