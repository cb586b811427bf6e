// Package webclip fetches a web page and reduces it to a title and a
// markdown body, ready to be wrapped into a note.
package webclip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

const (
	fetchTimeout = 30 * time.Second
	maxPageSize  = 8 << 20
	userAgent    = "zettag (+https://github.com/zettelware/zettag)"
)

// noiseTags are stripped before conversion when no main content
// element is found.
var noiseTags = []string{
	"script", "style", "noscript", "nav", "header", "footer",
	"aside", "iframe", "form", "svg",
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Clip is the usable part of a fetched page.
type Clip struct {
	URL      string
	Title    string
	Markdown string
}

// Clipper fetches pages and converts them to markdown.
type Clipper struct {
	client *http.Client
	conv   *md.Converter
}

// New returns a clipper with a timeout-bounded HTTP client and a
// GitHub-flavored markdown converter.
func New() *Clipper {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &Clipper{
		client: &http.Client{Timeout: fetchTimeout},
		conv:   conv,
	}
}

// Clip fetches url and converts the page.
func (c *Clipper) Clip(ctx context.Context, url string) (*Clip, error) {
	page, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	clip, err := c.Convert(page)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", url, err)
	}
	clip.URL = url
	return clip, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("fetch %s: not an html page (%s)", url, ct)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return page, nil
}

// Convert reduces raw HTML to a Clip without touching the network.
func (c *Clipper) Convert(page []byte) (*Clip, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	title := pageTitle(doc)

	var rendered strings.Builder
	if err := html.Render(&rendered, mainContent(doc)); err != nil {
		return nil, err
	}
	markdown, err := c.conv.ConvertString(rendered.String())
	if err != nil {
		return nil, err
	}
	markdown = tidy(markdown)

	if title == "" {
		title = headingTitle(markdown)
	}
	return &Clip{Title: title, Markdown: markdown}, nil
}

// pageTitle returns the text of the first <title> element.
func pageTitle(doc *html.Node) string {
	node := findTag(doc, "title")
	if node == nil {
		return ""
	}
	var buf strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// mainContent picks the node to convert: <main> or <article> when the
// page marks one, otherwise the whole <body>. Noise elements are
// removed first either way.
func mainContent(doc *html.Node) *html.Node {
	prune(doc)
	for _, tag := range []string{"main", "article"} {
		if node := findTag(doc, tag); node != nil {
			return node
		}
	}
	if body := findTag(doc, "body"); body != nil {
		return body
	}
	return doc
}

// findTag returns the first element with the given tag name.
func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// prune removes noise elements from the tree in place.
func prune(n *html.Node) {
	noise := make(map[string]bool, len(noiseTags))
	for _, tag := range noiseTags {
		noise[tag] = true
	}

	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && noise[node.Data] {
			doomed = append(doomed, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	for _, node := range doomed {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// tidy collapses blank-line runs and trims the result.
func tidy(markdown string) string {
	markdown = blankRunRe.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}

// headingTitle falls back to the first level-one heading.
func headingTitle(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
