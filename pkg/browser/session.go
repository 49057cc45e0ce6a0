// Package browser drives real browsers through playwright-go and adapts them to
// the visual engine.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures a browser session
type Options struct {
	// Name is chromium, firefox or webkit
	Name     string
	Headless bool

	// Timeout is the default per-action timeout; zero keeps playwright's default
	Timeout time.Duration

	// BaseURL is prepended to relative navigation targets
	BaseURL string
}

// Session owns a playwright driver, one browser and one page
type Session struct {
	name    string
	baseURL string
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	logger  *slog.Logger
}

// Launch starts playwright, the named browser and a fresh page
func Launch(opts Options) (*Session, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Name))
	if name == "" {
		name = "chromium"
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	bt, err := browserType(pw, name)
	if err != nil {
		pw.Stop()
		return nil, err
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", name, err)
	}

	page, err := b.NewPage()
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if opts.Timeout > 0 {
		page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}

	s := &Session{
		name:    name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		pw:      pw,
		browser: b,
		page:    page,
		logger:  slog.Default().With("browser", name),
	}
	s.logger.Info("Browser session started", "headless", opts.Headless, "version", b.Version())
	return s, nil
}

// Name returns the browser engine name
func (s *Session) Name() string {
	return s.name
}

// Page returns the session page
func (s *Session) Page() playwright.Page {
	return s.page
}

// URL resolves path against the base URL; absolute URLs are returned unchanged
func (s *Session) URL(path string) string {
	return ResolveURL(s.baseURL, path)
}

// Capturer returns a frame capturer for the session page
func (s *Session) Capturer() *PageCapturer {
	return NewPageCapturer(s.page)
}

// Close shuts the browser and the driver down
func (s *Session) Close() error {
	var errs []error
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	s.logger.Info("Browser session closed")
	return errors.Join(errs...)
}

// ResolveURL joins base and path unless path is already absolute
func ResolveURL(base, path string) string {
	if strings.Contains(path, "://") || base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func browserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser %q", name)
	}
}
