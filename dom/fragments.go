// Package dom derives text fragments from static page markup, for renderers
// that do not run a browser.
package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute visible text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

// Fragments returns the text of every element that directly contains
// non-blank text, in document order. Each fragment covers the element's
// whole subtree, so nested fragments overlap the way a browser's innerText
// does. When selector is non-empty only elements inside its matches are
// visited.
func Fragments(markup, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("dom: parse markup: %w", err)
	}

	roots := doc.Selection
	if selector != "" {
		m, err := cascadia.Compile(selector)
		if err != nil {
			return nil, fmt.Errorf("dom: invalid scope selector %q: %w", selector, err)
		}
		roots = doc.FindMatcher(m)
	}

	var out []string
	for _, n := range roots.Nodes {
		walk(n, &out)
	}
	return out, nil
}

func walk(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode {
		if skipped[n.DataAtom] {
			return
		}
		if hasDirectText(n) {
			if text := collapse(textOf(n)); text != "" {
				*out = append(*out, text)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, out)
	}
}

func hasDirectText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

// collapse folds runs of ASCII whitespace into one space. No-break spaces
// are kept: they are thousands separators in some locales.
func collapse(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
	})
	return strings.Join(fields, " ")
}
