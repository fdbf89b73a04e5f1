package render

import (
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are elements removed before markdown conversion. They
// carry navigation chrome and media, not documentation content.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
}

// parsePage turns raw rendered HTML into a Result: title, outbound
// links in document order, and the main content converted to markdown.
func parsePage(pageURL, html string) (*Result, error) {
	if strings.TrimSpace(html) == "" {
		return nil, &Error{Kind: KindInvalidContent, URL: pageURL, Err: fmt.Errorf("empty body")}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{Kind: KindInvalidContent, URL: pageURL, Err: fmt.Errorf("parsing HTML: %w", err)}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// Collect links from the full document before noise removal so the
	// table of contents sees navigation menus too.
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		links = append(links, Link{Href: href, Text: strings.TrimSpace(s.Text())})
	})

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	// <main> is the most semantically precise container, then
	// <article>, then <body>.
	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return nil, &Error{Kind: KindInvalidContent, URL: pageURL, Err: fmt.Errorf("no content container found")}
	}

	contentHTML, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, &Error{Kind: KindInvalidContent, URL: pageURL, Err: fmt.Errorf("serializing content: %w", err)}
	}

	markdown, err := htmltomarkdown.ConvertString(contentHTML)
	if err != nil {
		return nil, &Error{Kind: KindInvalidContent, URL: pageURL, Err: fmt.Errorf("converting to markdown: %w", err)}
	}

	return &Result{
		URL:       pageURL,
		Title:     title,
		HTML:      html,
		Markdown:  strings.TrimSpace(markdown),
		Links:     links,
		FetchedAt: time.Now(),
	}, nil
}
