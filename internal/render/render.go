// Package render wraps the headless-browser engine behind a narrow
// interface. Everything downstream depends on Renderer only, so tests
// substitute a double and never touch a browser.
package render

import (
	"context"
	"fmt"
	"time"
)

// Link is one outbound anchor discovered on a rendered page, in
// document order.
type Link struct {
	Href string
	Text string
}

// Result is the outcome of rendering a single page.
type Result struct {
	URL       string
	Title     string
	HTML      string
	Markdown  string
	Links     []Link
	FetchedAt time.Time
}

// Options control a single render call.
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// Kind classifies render failures.
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindNetwork           Kind = "network"
	KindEngineUnavailable Kind = "engine_unavailable"
	KindInvalidContent    Kind = "invalid_content"
)

// Error is a typed render failure. Use errors.As to recover the kind.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("render %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Renderer fetches and executes a page, producing HTML, markdown, and
// the page's outbound links.
type Renderer interface {
	Render(ctx context.Context, url string, opts Options) (*Result, error)
}
