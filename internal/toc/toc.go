// Package toc builds a table of contents from the links discovered on
// a documentation site's root page.
package toc

import (
	"net/url"
	"path"
	"strings"

	"github.com/atessier/docport/internal/render"
)

// Entry is one table-of-contents item.
type Entry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// staticExtensions are path extensions that never carry documentation
// content and are skipped during extraction.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// CanonicalURL normalizes a URL into its stable cache/comparison form:
// fragment stripped, default port stripped, no trailing slash except on
// a bare root path.
func CanonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	canonicalize(u)
	return u.String(), nil
}

func canonicalize(u *url.URL) {
	u.Fragment = ""

	host := u.Host
	if (u.Scheme == "http" && strings.HasSuffix(host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(host, ":443")) {
		u.Host = host[:strings.LastIndex(host, ":")]
	}

	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
}

// Extract builds the ordered, deduplicated table of contents for the
// links found on the page at baseURL.
//
// Hrefs are resolved against baseURL, canonicalized, and kept only when
// they share the base's scheme and host and do not point at a static
// asset. The first-seen anchor text wins for duplicates; blank anchor
// text falls back to the last path segment. The base URL itself is
// excluded — the root is implicit, not an entry. Malformed hrefs are
// skipped.
func Extract(baseURL string, links []render.Link) ([]Entry, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	baseCanonical := *base
	canonicalize(&baseCanonical)

	seen := make(map[string]bool)
	var entries []Entry

	for _, link := range links {
		href := strings.TrimSpace(link.Href)
		if href == "" || strings.HasPrefix(href, "#") {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}

		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}

		canonicalize(resolved)
		if resolved.Scheme != baseCanonical.Scheme || resolved.Host != baseCanonical.Host {
			continue
		}
		if staticExtensions[strings.ToLower(path.Ext(resolved.Path))] {
			continue
		}

		canonical := resolved.String()
		if canonical == baseCanonical.String() || seen[canonical] {
			continue
		}
		seen[canonical] = true

		title := strings.TrimSpace(link.Text)
		if title == "" {
			title = lastPathSegment(resolved.Path)
		}
		entries = append(entries, Entry{URL: canonical, Title: title})
	}

	return entries, nil
}

// lastPathSegment returns the last non-empty path segment, or "/" for
// the bare root.
func lastPathSegment(p string) string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return "/"
	}
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}
