// Package richtext turns the inline markup in suggested replacement text
// into styled plain-text spans.
//
// Replacement text comes from a language model and is untrusted. Nothing
// here ever returns markup or terminal control sequences: only text, a
// small set of styles and link targets with safe schemes.
package richtext

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html"
)

// Style is a set of inline styles.
type Style uint8

const (
	Bold Style = 1 << iota
	Italic
	Link
)

// Span is a run of text with one style.
type Span struct {
	Text  string
	Style Style
	Href  string // set only for Link spans with an allowed target
}

// dropped elements are removed together with their content.
var dropped = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true,
	"embed": true, "noscript": true, "template": true, "svg": true,
	"math": true, "head": true, "title": true,
}

// blocks end with a line break.
var blocks = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true,
}

// Parse converts markup to spans. Markup that cannot be parsed comes back
// as a single plain span of its raw text.
func Parse(markup string) []Span {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return []Span{{Text: Clean(markup)}}
	}
	var b builder
	b.walk(doc.Find("body").Contents(), 0, "")
	return b.finish()
}

// Clean removes terminal escape sequences and every other control
// character except newline and tab. Apply it to any model-supplied text
// before it reaches the terminal.
func Clean(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		// C0, DEL and C1
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Plain joins the text of spans, dropping styles.
func Plain(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

type builder struct {
	spans []Span
}

func (b *builder) walk(sel *goquery.Selection, style Style, href string) {
	sel.Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		switch node.Type {
		case html.TextNode:
			b.add(Span{Text: node.Data, Style: style, Href: href})
		case html.ElementNode:
			name := goquery.NodeName(s)
			if dropped[name] {
				return
			}
			childStyle, childHref := style, href
			switch name {
			case "strong", "b":
				childStyle |= Bold
			case "em", "i":
				childStyle |= Italic
			case "a":
				childStyle |= Link
				childHref = safeHref(s.AttrOr("href", ""))
			case "br":
				b.add(Span{Text: "\n"})
				return
			}
			b.walk(s.Contents(), childStyle, childHref)
			if blocks[name] {
				b.add(Span{Text: "\n"})
			}
		}
	})
}

// add appends s, merging it into the previous span when styles match.
func (b *builder) add(s Span) {
	s.Text = Clean(s.Text)
	if s.Text == "" {
		return
	}
	if n := len(b.spans); n > 0 {
		last := &b.spans[n-1]
		if last.Style == s.Style && last.Href == s.Href {
			last.Text += s.Text
			return
		}
	}
	b.spans = append(b.spans, s)
}

// finish trims trailing line breaks left by block elements.
func (b *builder) finish() []Span {
	for len(b.spans) > 0 {
		last := &b.spans[len(b.spans)-1]
		last.Text = strings.TrimRight(last.Text, "\n")
		if last.Text != "" {
			break
		}
		b.spans = b.spans[:len(b.spans)-1]
	}
	return b.spans
}

// safeHref keeps http, https, mailto and relative targets. Anything else
// (javascript:, data:, vbscript:) is dropped.
func safeHref(raw string) string {
	raw = strings.TrimSpace(Clean(raw))
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return u.String()
	}
	return ""
}
