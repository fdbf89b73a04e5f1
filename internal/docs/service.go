// Package docs orchestrates the documentation operations: listing
// configured sites, building a site's table of contents, and fetching
// a single page as markdown. It composes the registry, the cache, and
// the renderer; it holds no per-request state.
package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/atessier/docport/internal/cache"
	"github.com/atessier/docport/internal/markdown"
	"github.com/atessier/docport/internal/render"
	"github.com/atessier/docport/internal/site"
	"github.com/atessier/docport/internal/toc"
)

// SiteInfo is one entry of the list_documentation response.
type SiteInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// ScopeError signals a page URL outside its site's domain.
type ScopeError struct {
	URL     string
	RootURL string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("url %s is outside the documentation site at %s", e.URL, e.RootURL)
}

// Service implements the three documentation operations.
type Service struct {
	registry *site.Registry
	cache    *cache.Cache
	renderer render.Renderer

	userAgent     string
	renderTimeout time.Duration
}

func NewService(registry *site.Registry, c *cache.Cache, renderer render.Renderer, userAgent string, renderTimeout time.Duration) *Service {
	return &Service{
		registry:      registry,
		cache:         c,
		renderer:      renderer,
		userAgent:     userAgent,
		renderTimeout: renderTimeout,
	}
}

// ListDocumentation returns the configured sites in order. No sites
// configured means an empty list, not an error.
func (s *Service) ListDocumentation() []SiteInfo {
	sites := s.registry.ListAll()
	out := make([]SiteInfo, len(sites))
	for i, st := range sites {
		out[i] = SiteInfo{Index: st.Index, Name: st.Name, URL: st.RootURL}
	}
	return out
}

// GetTOC returns the table of contents for the site at docIndex,
// rendering the site's root page on a cache miss. The TOC is cached as
// JSON under the canonical root URL plus a "#toc" suffix, keeping it
// distinct from the root page's own content entry.
func (s *Service) GetTOC(ctx context.Context, docIndex int) ([]toc.Entry, error) {
	st, err := s.registry.Resolve(docIndex)
	if err != nil {
		return nil, err
	}

	rootCanonical, err := toc.CanonicalURL(st.RootURL)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing root URL %q: %w", st.RootURL, err)
	}
	key := rootCanonical + "#toc"

	content, err := s.cache.GetOrRender(ctx, key, func(ctx context.Context) (string, error) {
		result, err := s.renderer.Render(ctx, st.RootURL, s.renderOptions())
		if err != nil {
			return "", err
		}
		entries, err := toc.Extract(st.RootURL, result.Links)
		if err != nil {
			return "", fmt.Errorf("extracting table of contents: %w", err)
		}
		if entries == nil {
			entries = []toc.Entry{}
		}
		b, err := json.Marshal(entries)
		if err != nil {
			return "", fmt.Errorf("serializing table of contents: %w", err)
		}
		return string(b), nil
	})
	if err != nil {
		return nil, err
	}

	var entries []toc.Entry
	if err := json.Unmarshal([]byte(content), &entries); err != nil {
		// A stale or corrupt cached value; drop it and fail the call so
		// the next attempt re-renders.
		s.cache.Invalidate(key)
		return nil, fmt.Errorf("decoding cached table of contents: %w", err)
	}
	return entries, nil
}

// GetPage returns the page at pageURL as markdown. The URL must be
// within the resolved site's scope (same scheme and host as the root).
func (s *Service) GetPage(ctx context.Context, docIndex int, pageURL string) (string, error) {
	st, err := s.registry.Resolve(docIndex)
	if err != nil {
		return "", err
	}

	if err := s.checkScope(st, pageURL); err != nil {
		return "", err
	}

	key, err := toc.CanonicalURL(pageURL)
	if err != nil {
		return "", fmt.Errorf("canonicalizing page URL %q: %w", pageURL, err)
	}

	return s.cache.GetOrRender(ctx, key, func(ctx context.Context) (string, error) {
		result, err := s.renderer.Render(ctx, pageURL, s.renderOptions())
		if err != nil {
			return "", err
		}

		content := markdown.AbsoluteLinks(result.Markdown, pageURL)
		if result.Title != "" {
			content = fmt.Sprintf("# %s\n\n%s", result.Title, content)
		}
		return content, nil
	})
}

// checkScope enforces domain-level scoping: the page must share the
// site root's scheme and host.
func (s *Service) checkScope(st site.Site, pageURL string) error {
	root, err := url.Parse(st.RootURL)
	if err != nil {
		return fmt.Errorf("parsing root URL %q: %w", st.RootURL, err)
	}
	page, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parsing page URL %q: %w", pageURL, err)
	}
	if !page.IsAbs() || page.Scheme != root.Scheme || page.Host != root.Host {
		return &ScopeError{URL: pageURL, RootURL: st.RootURL}
	}
	return nil
}

func (s *Service) renderOptions() render.Options {
	return render.Options{UserAgent: s.userAgent, Timeout: s.renderTimeout}
}
