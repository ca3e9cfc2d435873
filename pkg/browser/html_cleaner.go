package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// CleanedHTML is page markup with scripts, styles and noise removed.
type CleanedHTML struct {
	HTML      string
	Title     string
	Truncated bool
}

var (
	skippedElements = set("script", "style", "noscript", "iframe", "embed", "object", "svg", "template")

	blockElements = set("html", "head", "body", "div", "p", "section", "article", "header", "footer",
		"nav", "main", "aside", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr",
		"td", "th", "form", "fieldset", "label", "dialog", "blockquote", "pre")

	voidElements = set("area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta",
		"param", "source", "track", "wbr")

	// keptAttributes are the attributes scenario locators can target.
	keptAttributes = set("id", "class", "role", "name", "type", "for", "href", "alt", "placeholder",
		"value", "title", "data-testid")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// cleanHTML reduces raw page HTML to an indented outline of the elements
// and attributes a scenario author needs to write locators.
func cleanHTML(rawHTML string, maxLength int) (*CleanedHTML, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &cleaner{max: maxLength}
	c.walk(doc, 0)

	return &CleanedHTML{
		HTML:      strings.TrimSpace(c.b.String()),
		Title:     findTitle(doc),
		Truncated: c.truncated,
	}, nil
}

type cleaner struct {
	b         strings.Builder
	max       int
	truncated bool
}

func (c *cleaner) full() bool {
	if c.max > 0 && c.b.Len() >= c.max {
		c.truncated = true
	}
	return c.truncated
}

func (c *cleaner) walk(n *html.Node, depth int) {
	if c.full() {
		return
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		c.text(n.Data)
		return
	case html.ElementNode:
		c.element(n, depth)
		return
	}

	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.walk(ch, depth)
	}
}

func (c *cleaner) text(data string) {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		return
	}
	if c.max > 0 && c.b.Len()+len(text) > c.max {
		n := c.max - c.b.Len()
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n] + "..."
		c.truncated = true
	}
	c.b.WriteString(text)
}

func (c *cleaner) element(n *html.Node, depth int) {
	tag := strings.ToLower(n.Data)
	if skippedElements[tag] {
		return
	}

	block := blockElements[tag]
	if block {
		c.newline(depth)
	}

	c.b.WriteString("<" + tag)
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if keptAttributes[key] || strings.HasPrefix(key, "aria-") {
			fmt.Fprintf(&c.b, ` %s="%s"`, key, html.EscapeString(attr.Val))
		}
	}
	c.b.WriteString(">")

	if voidElements[tag] {
		return
	}

	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.walk(ch, depth+1)
	}

	if block {
		c.newline(depth)
	}
	c.b.WriteString("</" + tag + ">")
}

func (c *cleaner) newline(depth int) {
	if c.b.Len() > 0 {
		c.b.WriteString("\n")
	}
	c.b.WriteString(strings.Repeat("  ", depth))
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if title := findTitle(ch); title != "" {
			return title
		}
	}
	return ""
}
