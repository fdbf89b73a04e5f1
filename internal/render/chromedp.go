package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

const (
	defaultRenderTimeout = 30 * time.Second
	// settleDelay gives single-page-app docs a chance to hydrate
	// before the DOM is captured.
	settleDelay = 2 * time.Second
)

// ChromeRenderer renders pages with a shared headless Chrome allocator.
// Each Render call runs in its own tab.
type ChromeRenderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChromeRenderer prepares the browser allocator. Chrome itself is
// launched lazily on the first render.
func NewChromeRenderer() *ChromeRenderer {
	// no-sandbox and disable-dev-shm-usage keep headless Chrome stable
	// in containers.
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{allocCtx: allocCtx, cancel: cancel}
}

// Render navigates to the URL in a fresh tab, waits for scripts to
// settle, and extracts title, markdown, and outbound links.
func (r *ChromeRenderer) Render(ctx context.Context, url string, opts Options) (*Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	taskCtx, cancelTimeout := context.WithTimeout(r.allocCtx, timeout)
	defer cancelTimeout()
	taskCtx, cancelTab := chromedp.NewContext(taskCtx)
	defer cancelTab()

	actions := []chromedp.Action{}
	if opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	var html string
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html),
	)

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(taskCtx, actions...) }()

	select {
	case <-ctx.Done():
		// The caller gave up; the tab context keeps its own timeout, so
		// report the caller's cancellation.
		return nil, classifyChromeErr(url, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, classifyChromeErr(url, err)
		}
	}

	return parsePage(url, html)
}

// HealthCheck verifies Chrome can launch at all, so a missing browser
// surfaces at startup instead of on the first tool call.
func (r *ChromeRenderer) HealthCheck(ctx context.Context) error {
	checkCtx, cancelTimeout := context.WithTimeout(r.allocCtx, 15*time.Second)
	defer cancelTimeout()
	checkCtx, cancelTab := chromedp.NewContext(checkCtx)
	defer cancelTab()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(checkCtx, chromedp.Navigate("about:blank")) }()

	select {
	case <-ctx.Done():
		return &Error{Kind: KindEngineUnavailable, URL: "about:blank", Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return &Error{Kind: KindEngineUnavailable, URL: "about:blank", Err: err}
		}
	}
	return nil
}

// Close shuts down the browser and releases its resources.
func (r *ChromeRenderer) Close() {
	r.cancel()
}

func classifyChromeErr(url string, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, URL: url, Err: err}
	case isEngineLaunchErr(err):
		return &Error{Kind: KindEngineUnavailable, URL: url, Err: err}
	default:
		return &Error{Kind: KindNetwork, URL: url, Err: fmt.Errorf("navigating: %w", err)}
	}
}

// isEngineLaunchErr matches failures to start the browser binary, as
// opposed to failures of the page itself.
func isEngineLaunchErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "exec:") ||
		strings.Contains(msg, "fork/exec")
}
