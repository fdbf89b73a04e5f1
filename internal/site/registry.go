// Package site holds the fixed set of documentation sites the server
// is configured to serve. The registry is built once at startup and is
// read-only afterwards.
package site

import (
	"fmt"
	"net/url"
	"strings"
)

// Site is one configured documentation source.
type Site struct {
	Index   int
	Name    string
	RootURL string
}

// IndexError signals a site index outside the configured range.
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("doc index %d out of range [0, %d)", e.Index, e.Count)
}

// Registry is the ordered, indexed list of configured sites.
type Registry struct {
	sites []Site
}

// NewRegistry builds a registry from configured entries. Each entry is
// either a bare root URL or "Name=URL"; the display name falls back to
// the URL host. Entries that do not parse as absolute http(s) URLs are
// rejected.
func NewRegistry(entries []string) (*Registry, error) {
	sites := make([]Site, 0, len(entries))
	for _, entry := range entries {
		name, rawURL := splitEntry(entry)

		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parsing documentation URL %q: %w", rawURL, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("documentation URL %q must be absolute http(s)", rawURL)
		}

		if name == "" {
			name = u.Host
		}
		sites = append(sites, Site{Index: len(sites), Name: name, RootURL: rawURL})
	}
	return &Registry{sites: sites}, nil
}

// splitEntry separates an optional "Name=" prefix from the URL. The
// scheme's "://" never contains "=", so the first "=" before the scheme
// separator is the delimiter.
func splitEntry(entry string) (name, rawURL string) {
	entry = strings.TrimSpace(entry)
	eq := strings.Index(entry, "=")
	scheme := strings.Index(entry, "://")
	if eq >= 0 && (scheme < 0 || eq < scheme) {
		return strings.TrimSpace(entry[:eq]), strings.TrimSpace(entry[eq+1:])
	}
	return "", entry
}

// Resolve returns the site at the given index.
func (r *Registry) Resolve(index int) (Site, error) {
	if index < 0 || index >= len(r.sites) {
		return Site{}, &IndexError{Index: index, Count: len(r.sites)}
	}
	return r.sites[index], nil
}

// ListAll returns all sites in configured order. The returned slice is
// a copy; callers may not mutate registry state.
func (r *Registry) ListAll() []Site {
	out := make([]Site, len(r.sites))
	copy(out, r.sites)
	return out
}

// Len returns the number of configured sites.
func (r *Registry) Len() int {
	return len(r.sites)
}
