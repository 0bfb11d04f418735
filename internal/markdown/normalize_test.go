package markdown

import (
	"strings"
	"testing"
)

func TestNormalizeMermaidFenceBecomesEmbeddableBlock(t *testing.T) {
	raw := "# Graphs\n\n```mermaid\ngraph TD\nA-->B\n```\n\nText after."
	got := Normalize(raw)

	want := "# Graphs\n\n<pre class=\"mermaid\">\ngraph TD\nA-->B\n</pre>\n\nText after."
	if got != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}

func TestNormalizeLeavesConvertedDiagramAlone(t *testing.T) {
	doc := "<pre class=\"mermaid\">\ngraph TD\nA-->B\n</pre>"
	if got := Normalize(doc); got != doc {
		t.Fatalf("converted diagram changed: %q", got)
	}
}

func TestNormalizeUnwrapsOuterFence(t *testing.T) {
	cases := map[string]string{
		"```\n# Title\nBody.\n```":         "# Title\nBody.",
		"```markdown\n# Title\nBody.\n```": "# Title\nBody.",
		"```md\n# Title\nBody.\n```":       "# Title\nBody.",
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeKeepsRealCodeFence(t *testing.T) {
	raw := "```go\nfunc main() {}\n```"
	if got := Normalize(raw); got != raw {
		t.Fatalf("go fence was altered: %q", got)
	}
}

func TestNormalizeDoubleWrappedFence(t *testing.T) {
	raw := "```\n```markdown\n# Title\n```\n```"
	if got := Normalize(raw); got != "# Title" {
		t.Fatalf("double wrap not removed: %q", got)
	}
}

func TestNormalizeDoesNotUnwrapFenceWithOddInterior(t *testing.T) {
	// The opening fence belongs to a real code block here.
	raw := "```\ncode\n```\nprose\n```"
	got := Normalize(raw)
	if !strings.Contains(got, "prose") || strings.Count(got, "```") != 3 {
		t.Fatalf("fences damaged: %q", got)
	}
}

func TestNormalizeCollapsesLongBlankRuns(t *testing.T) {
	raw := "one\n\n\n\ntwo\n\nthree"
	want := "one\n\ntwo\n\nthree"
	if got := Normalize(raw); got != want {
		t.Fatalf("blank collapse wrong: %q", got)
	}
}

func TestNormalizeKeepsShortBlankRuns(t *testing.T) {
	raw := "one\n\ntwo"
	if got := Normalize(raw); got != raw {
		t.Fatalf("single blank line changed: %q", got)
	}
}

func TestNormalizeHeadingSpacing(t *testing.T) {
	cases := map[string]string{
		"#Title":         "# Title",
		"##  Subtitle":   "## Subtitle",
		"###\tIndented":  "### Indented",
		"# Already fine": "# Already fine",
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeSkipsHeadingRuleInsideCodeFence(t *testing.T) {
	raw := "```\n#not-a-heading\n```"
	if got := Normalize(raw); got != raw {
		t.Fatalf("code fence interior rewritten: %q", got)
	}
}

func TestNormalizeCRLFAndTrailingSpace(t *testing.T) {
	raw := "# Title\r\n\r\nBody.\r\n\r\n"
	want := "# Title\n\nBody."
	if got := Normalize(raw); got != want {
		t.Fatalf("crlf handling wrong: %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"```markdown\n#Title\n\n\n\n```mermaid\ngraph TD\nA-->B\n```\n\nBody.\n```",
		"plain text only",
		"```python\nprint('hi')\n```",
		"# A\n\n<pre class=\"mermaid\">\nflowchart LR\n</pre>\n\n## B",
		"",
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\nonce:  %q\ntwice: %q", raw, once, twice)
		}
	}
}

func TestNormalizeUnterminatedMermaidFence(t *testing.T) {
	raw := "```mermaid\ngraph TD"
	got := Normalize(raw)
	if strings.Contains(got, mermaidOpen) {
		t.Fatalf("unterminated fence converted: %q", got)
	}
}
