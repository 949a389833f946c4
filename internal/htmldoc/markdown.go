// Package htmldoc parses documentation pages: extracting page links from an
// index and converting page HTML into Markdown.
package htmldoc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var prunedTags = map[atom.Atom]struct{}{
	atom.Nav:    {},
	atom.Footer: {},
	atom.Script: {},
	atom.Style:  {},
}

// FromHTML converts a documentation page into Markdown. Navigation chrome,
// scripts, and styles are dropped; the content root is the <main> element, a
// body/content div, or the <body> as a fallback.
func FromHTML(raw []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	prune(doc)

	root := findContentRoot(doc)
	var b strings.Builder
	renderChildren(&b, root)
	return strings.TrimSpace(b.String()), nil
}

func prune(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		if child.Type == html.ElementNode {
			if _, drop := prunedTags[child.DataAtom]; drop {
				n.RemoveChild(child)
				child = next
				continue
			}
		}
		prune(child)
		child = next
	}
}

func findContentRoot(doc *html.Node) *html.Node {
	if main := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Main }); main != nil {
		return main
	}
	contentDiv := findFirst(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.Div {
			return false
		}
		class := attr(n, "class")
		return strings.Contains(class, "body") || strings.Contains(class, "content")
	})
	if contentDiv != nil {
		return contentDiv
	}
	if body := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body }); body != nil {
		return body
	}
	return doc
}

func renderChildren(b *strings.Builder, n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		renderNode(b, child)
	}
}

func renderNode(b *strings.Builder, n *html.Node) {
	if n.Type != html.ElementNode {
		if n.Type == html.TextNode {
			return // bare text outside block elements carries no structure
		}
		renderChildren(b, n)
		return
	}

	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		fmt.Fprintf(b, "\n%s %s\n\n", strings.Repeat("#", level), nodeText(n))
	case atom.P:
		if text := nodeText(n); text != "" {
			fmt.Fprintf(b, "%s\n\n", text)
		}
	case atom.Pre:
		code := rawText(n)
		fmt.Fprintf(b, "\n```%s\n%s\n```\n\n", sniffLanguage(code), strings.Trim(code, "\n"))
	case atom.Ul, atom.Ol:
		renderList(b, n)
	case atom.Dl:
		renderDefinitions(b, n)
	case atom.Table:
		renderTable(b, n)
	default:
		renderChildren(b, n)
	}
}

func renderList(b *strings.Builder, n *html.Node) {
	prefix := "- "
	if n.DataAtom == atom.Ol {
		prefix = "1. "
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.DataAtom == atom.Li {
			fmt.Fprintf(b, "%s%s\n", prefix, nodeText(child))
		}
	}
	b.WriteString("\n")
}

func renderDefinitions(b *strings.Builder, n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.DataAtom != atom.Dt {
			continue
		}
		term := nodeText(child)
		defn := ""
		for sib := child.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.DataAtom == atom.Dd {
				defn = nodeText(sib)
				break
			}
			if sib.DataAtom == atom.Dt {
				break
			}
		}
		fmt.Fprintf(b, "- **%s**: %s\n", term, defn)
	}
	b.WriteString("\n")
}

func renderTable(b *strings.Builder, n *html.Node) {
	var walkRows func(*html.Node)
	walkRows = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.DataAtom == atom.Tr {
				var cells []string
				for cell := child.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.DataAtom == atom.Th || cell.DataAtom == atom.Td {
						cells = append(cells, strings.ReplaceAll(nodeText(cell), "|", "\\|"))
					}
				}
				if len(cells) > 0 {
					fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
				}
				continue
			}
			walkRows(child)
		}
	}
	walkRows(n)
	b.WriteString("\n")
}

// sniffLanguage guesses a fence language for highlighting. Interpreter
// prompts and def statements are a good-enough signal for Python docs.
func sniffLanguage(code string) string {
	if strings.Contains(code, ">>>") || strings.Contains(code, "def ") {
		return "python"
	}
	return ""
}

// nodeText collapses the node's text content into single-space-separated
// words.
func nodeText(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

// rawText concatenates text nodes without reflowing whitespace.
func rawText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, pred); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
