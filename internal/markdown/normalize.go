package markdown

import (
	"regexp"
	"strings"
)

var (
	headingRE  = regexp.MustCompile(`^(#{1,6})[ \t]*([^#\s].*)$`)
	fenceTagRE = regexp.MustCompile("^```([A-Za-z0-9_-]*)[ \t]*$")
)

const (
	mermaidOpen  = `<pre class="mermaid">`
	mermaidClose = `</pre>`
)

// Normalize turns raw model output into a structurally consistent markdown
// document: mermaid-fenced diagrams become a single embeddable <pre> block,
// a whole-payload generic fence wrapper is stripped, runs of three or more
// blank lines collapse to one, and heading markers get exactly one space.
// Normalize is pure and idempotent.
func Normalize(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.TrimSpace(s)
	for {
		unwrapped, ok := unwrapOuterFence(s)
		if !ok {
			break
		}
		s = unwrapped
	}

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0

	flushBlanks := func() {
		if blanks == 0 {
			return
		}
		n := blanks
		if n >= 3 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, "")
		}
		blanks = 0
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(trimmed, "```mermaid"):
			end := closingFence(lines, i+1, "```")
			if end == -1 {
				flushBlanks()
				out = append(out, line)
				continue
			}
			flushBlanks()
			out = append(out, mermaidOpen)
			out = append(out, lines[i+1:end]...)
			out = append(out, mermaidClose)
			i = end
		case trimmed == mermaidOpen:
			// Already-converted diagram blocks pass through untouched.
			end := closingFence(lines, i+1, mermaidClose)
			flushBlanks()
			if end == -1 {
				out = append(out, line)
				continue
			}
			out = append(out, lines[i:end+1]...)
			i = end
		case strings.HasPrefix(trimmed, "```"):
			// Generic fenced code is copied verbatim; its interior is not
			// subject to heading or blank-line rules.
			end := closingFence(lines, i+1, "```")
			flushBlanks()
			if end == -1 {
				out = append(out, line)
				continue
			}
			out = append(out, lines[i:end+1]...)
			i = end
		case trimmed == "":
			blanks++
		default:
			flushBlanks()
			out = append(out, headingRE.ReplaceAllString(line, "$1 $2"))
		}
	}

	return strings.Join(out, "\n")
}

func closingFence(lines []string, from int, marker string) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == marker {
			return j
		}
	}
	return -1
}

// unwrapOuterFence strips a generic fence that wraps the entire payload,
// a common failure mode of text models asked for markdown. The interior
// fence count must pair up, otherwise the opening fence belongs to a real
// code block and is left alone.
func unwrapOuterFence(s string) (string, bool) {
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s, false
	}
	m := fenceTagRE.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return s, false
	}
	tag := strings.ToLower(m[1])
	if tag != "" && tag != "markdown" && tag != "md" {
		return s, false
	}
	if strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return s, false
	}
	inner := lines[1 : len(lines)-1]
	count := 0
	for _, l := range inner {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			count++
		}
	}
	if count%2 != 0 {
		return s, false
	}
	return strings.TrimSpace(strings.Join(inner, "\n")), true
}
