// Package markdown post-processes rendered page markdown.
package markdown

import (
	"net/url"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// AbsoluteLinks rewrites relative link destinations in src to absolute
// URLs resolved against pageURL, so links in returned markdown can be
// fetched directly. It parses the markdown to AST to find destinations,
// then performs targeted string replacements to preserve the original
// formatting. Absolute, mailto, and fragment-only destinations are
// left untouched.
func AbsoluteLinks(src, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return src
	}

	doc := gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	seen := make(map[string]bool)
	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		var dest string
		switch n := node.(type) {
		case *ast.Link:
			dest = string(n.Destination)
		case *ast.Image:
			dest = string(n.Destination)
		default:
			return ast.GoToNext
		}
		if seen[dest] {
			return ast.GoToNext
		}
		if abs, ok := resolveRelative(base, dest); ok {
			seen[dest] = true
			replacements = append(replacements, replacement{dest, abs})
		}
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}

	result := src

	// Inline links: [text](destination) — one pass per replacement
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference-style definitions: [ref]: destination — single pass over lines
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.oldDest] = "]: " + r.newDest
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// resolveRelative resolves dest against base when dest is a relative
// http(s)-style reference worth rewriting.
func resolveRelative(base *url.URL, dest string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}

	ref, err := url.Parse(dest)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		return "", false
	}
	// Scheme-relative links only need the base scheme.
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
