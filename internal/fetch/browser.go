package fetch

import (
	"context"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/simplify"
)

// BrowserFetcher drives a headless Chromium page to obtain rendered
// HTML for ids that require JavaScript execution before DOM inspection.
// Adapted from the teacher's internal/browser.SessionManager launcher
// and viewport/timeout plumbing (internal/browser/session_manager.go),
// narrowed to a single fetch-and-render operation instead of a
// long-lived multi-tab session.
type BrowserFetcher struct {
	cfg     config.BrowserConfig
	browser *rod.Browser
}

// NewBrowserFetcher launches a headless browser controlled by cfg.
func NewBrowserFetcher(cfg config.BrowserConfig) (*BrowserFetcher, error) {
	url, err := launcher.New().
		Headless(cfg.Headless).
		Launch()
	if err != nil {
		return nil, errs.New(errs.KindFetch, "launch browser", err)
	}
	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, errs.New(errs.KindFetch, "connect browser", err)
	}
	return &BrowserFetcher{cfg: cfg, browser: browser}, nil
}

// Close releases the underlying browser process.
func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}

// Fetch navigates to id (an http(s):// URL) and returns the rendered
// page HTML, reduced by internal/simplify.
func (f *BrowserFetcher) Fetch(ctx context.Context, id string) (Result, error) {
	if !strings.HasPrefix(id, "http://") && !strings.HasPrefix(id, "https://") {
		return Result{}, errs.New(errs.KindFetch, id, errNotAURL)
	}

	// Each navigation gets its own uuid-tagged page, the same per-tab
	// identification the teacher's SessionManager uses for its longer-lived
	// multi-tab sessions (internal/browser/session_manager.go: "ID:
	// uuid.NewString()"), narrowed here to one tab per fetch.
	fetchID := uuid.NewString()

	errContext := id + " (" + fetchID + ")"

	deadline := f.cfg.NavigationTimeout()
	page, err := f.browser.Context(ctx).Timeout(deadline).Page(proto.TargetCreateTarget{URL: id})
	if err != nil {
		return Result{}, errs.New(errs.KindFetch, errContext, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return Result{}, errs.New(errs.KindFetch, errContext, err)
	}

	html, err := page.HTML()
	if err != nil {
		return Result{}, errs.New(errs.KindFetch, errContext, err)
	}

	return Result{
		OriginalHTML:   html,
		SimplifiedHTML: simplify.Simplify(html),
	}, nil
}

var errNotAURL = fetchIDError("BrowserFetcher requires an http(s):// id")

type fetchIDError string

func (e fetchIDError) Error() string { return string(e) }
