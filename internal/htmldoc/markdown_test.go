package htmldoc

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>os — Miscellaneous interfaces</title><style>body { color: red }</style></head>
<body>
<nav><a href="index.html">skip me</a></nav>
<main>
<h1>os — Miscellaneous operating system interfaces</h1>
<p>This module provides a portable way of using
operating system dependent functionality.</p>
<pre>&gt;&gt;&gt; import os
&gt;&gt;&gt; os.getcwd()</pre>
<h2>Notes</h2>
<ul>
<li>First note</li>
<li>Second note</li>
</ul>
<dl>
<dt>os.name</dt>
<dd>The name of the operating system dependent module imported.</dd>
</dl>
<table>
<tr><th>Function</th><th>Purpose</th></tr>
<tr><td>getcwd</td><td>current | directory</td></tr>
</table>
</main>
<footer>copyright notice</footer>
</body>
</html>`

func TestFromHTML(t *testing.T) {
	md, err := FromHTML([]byte(samplePage))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"# os — Miscellaneous operating system interfaces",
		"This module provides a portable way of using operating system dependent functionality.",
		"```python\n>>> import os",
		"## Notes",
		"- First note",
		"- **os.name**: The name of the operating system dependent module imported.",
		"| Function | Purpose |",
		"| getcwd | current \\| directory |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	for _, unwanted := range []string{"skip me", "copyright notice", "color: red"} {
		if strings.Contains(md, unwanted) {
			t.Fatalf("pruned content leaked %q:\n%s", unwanted, md)
		}
	}
}

func TestFromHTMLFallsBackToBody(t *testing.T) {
	md, err := FromHTML([]byte(`<html><body><p>plain page</p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "plain page") {
		t.Fatalf("markdown = %q", md)
	}
}

func TestFromHTMLContentDiv(t *testing.T) {
	md, err := FromHTML([]byte(`<html><body><div class="document-body"><p>div content</p></div></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "div content") {
		t.Fatalf("markdown = %q", md)
	}
}

func TestSniffLanguage(t *testing.T) {
	if sniffLanguage(">>> print('x')") != "python" {
		t.Fatal("prompt not detected")
	}
	if sniffLanguage("plain output text") != "" {
		t.Fatal("false positive")
	}
}
