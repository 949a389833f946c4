package htmldoc

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var excludedPages = []string{"genindex", "py-modindex", "search"}

// ExtractDocPaths returns the sorted, deduplicated set of documentation page
// paths linked from an index page. Only .html links are kept; generated index
// pages are excluded and URL fragments are stripped. Absolute links are
// accepted when they live under baseURL.
func ExtractDocPaths(raw []byte, baseURL string) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse index html: %w", err)
	}

	base := strings.TrimRight(baseURL, "/")
	seen := map[string]struct{}{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if path, ok := docPath(attr(n, "href"), base); ok {
				seen[path] = struct{}{}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func docPath(href, base string) (string, bool) {
	href, _, _ = strings.Cut(href, "#")
	href = strings.TrimSpace(href)
	if !strings.HasSuffix(href, ".html") {
		return "", false
	}
	for _, excluded := range excludedPages {
		if strings.Contains(href, excluded) {
			return "", false
		}
	}

	switch {
	case strings.HasPrefix(href, base+"/"):
		href = strings.TrimPrefix(href, base+"/")
	case strings.Contains(href, "://"):
		return "", false // absolute link to another site
	default:
		href = strings.TrimLeft(href, "/")
	}
	if href == "" {
		return "", false
	}
	return href, true
}
