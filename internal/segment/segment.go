// Package segment splits Markdown into typed spans so translation can skip
// code and links without regex placeholder substitution. Concatenating the
// span bodies in order reproduces the input byte for byte.
package segment

import "strings"

// Kind labels what a span contains.
type Kind int

const (
	// Text is translatable prose.
	Text Kind = iota
	// Code is a fenced block or inline code span, never translated.
	Code
	// Skip covers links and bare URLs, preserved verbatim.
	Skip
)

// Span is one contiguous slice of the source document.
type Span struct {
	Kind Kind
	Body string
}

// Split scans content into spans. The scanner is position-based rather than
// regex-driven: an unterminated fence swallows the rest of the document as
// code, which degrades safely instead of mis-translating program text.
func Split(content string) []Span {
	var spans []Span
	emitText := func(s string) {
		if s != "" {
			spans = append(spans, Span{Kind: Text, Body: s})
		}
	}

	i := 0
	textStart := 0
	for i < len(content) {
		atLineStart := i == 0 || content[i-1] == '\n'
		switch {
		case atLineStart && strings.HasPrefix(content[i:], "```"):
			emitText(content[textStart:i])
			end := fenceEnd(content, i)
			spans = append(spans, Span{Kind: Code, Body: content[i:end]})
			i, textStart = end, end
		case content[i] == '`':
			if end, ok := inlineCodeEnd(content, i); ok {
				emitText(content[textStart:i])
				spans = append(spans, Span{Kind: Code, Body: content[i:end]})
				i, textStart = end, end
			} else {
				i++
			}
		case content[i] == '[':
			if end, ok := linkEnd(content, i); ok {
				emitText(content[textStart:i])
				spans = append(spans, Span{Kind: Skip, Body: content[i:end]})
				i, textStart = end, end
			} else {
				i++
			}
		case strings.HasPrefix(content[i:], "http://"), strings.HasPrefix(content[i:], "https://"):
			emitText(content[textStart:i])
			end := urlEnd(content, i)
			spans = append(spans, Span{Kind: Skip, Body: content[i:end]})
			i, textStart = end, end
		default:
			i++
		}
	}
	emitText(content[textStart:])
	return spans
}

// Join reassembles spans into a document.
func Join(spans []Span) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Body)
	}
	return b.String()
}

// fenceEnd returns the index just past the line containing the closing fence,
// or len(content) when the fence never closes.
func fenceEnd(content string, start int) int {
	nl := strings.IndexByte(content[start:], '\n')
	if nl < 0 {
		return len(content)
	}
	search := start + nl + 1
	for search < len(content) {
		lineEnd := strings.IndexByte(content[search:], '\n')
		if strings.HasPrefix(content[search:], "```") {
			if lineEnd < 0 {
				return len(content)
			}
			return search + lineEnd + 1
		}
		if lineEnd < 0 {
			return len(content)
		}
		search += lineEnd + 1
	}
	return len(content)
}

// inlineCodeEnd matches a single-line `code` span starting at start.
func inlineCodeEnd(content string, start int) (int, bool) {
	rest := content[start+1:]
	closing := strings.IndexByte(rest, '`')
	if closing < 0 {
		return 0, false
	}
	if strings.Contains(rest[:closing], "\n") {
		return 0, false
	}
	return start + 1 + closing + 1, true
}

// linkEnd matches [label](target) starting at start. Labels spanning a blank
// line are rejected; that is almost always a stray bracket, not a link.
func linkEnd(content string, start int) (int, bool) {
	mid := strings.Index(content[start:], "](")
	if mid < 0 {
		return 0, false
	}
	if strings.Contains(content[start:start+mid], "\n\n") {
		return 0, false
	}
	targetStart := start + mid + 2
	closing := strings.IndexByte(content[targetStart:], ')')
	if closing < 0 {
		return 0, false
	}
	return targetStart + closing + 1, true
}

func urlEnd(content string, start int) int {
	for i := start; i < len(content); i++ {
		switch content[i] {
		case ' ', '\t', '\n', ')', '"', '>', '<':
			return i
		}
	}
	return len(content)
}
