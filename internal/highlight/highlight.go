// Package highlight wraps search matches inside already-styled
// terminal text without disturbing its escape sequences.
package highlight

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type Result struct {
	Text      string
	Count     int
	LineIndex []int
}

// Apply wraps every case-insensitive occurrence of query in the text
// portions of input, leaving escape sequences intact, and records
// which lines matched so the caller can jump between them.
func Apply(input, query string, wrap func(string) string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Text: input}
	}
	if wrap == nil {
		wrap = func(s string) string { return s }
	}

	lines := strings.SplitAfter(input, "\n")
	var out strings.Builder
	var matchLines []int
	total := 0

	for lineNo, line := range lines {
		// Cheap pre-check on the stripped line before segment work.
		if !containsFold(ansi.Strip(line), query) {
			out.WriteString(line)
			continue
		}

		highlighted, count := applyToLine(line, query, wrap)
		out.WriteString(highlighted)
		if count > 0 {
			matchLines = append(matchLines, lineNo)
			total += count
		}
	}

	return Result{Text: out.String(), Count: total, LineIndex: matchLines}
}

type segment struct {
	escape bool
	text   string
}

func applyToLine(line, query string, wrap func(string) string) (string, int) {
	var out strings.Builder
	total := 0
	for _, seg := range splitANSI(line) {
		if seg.escape {
			out.WriteString(seg.text)
			continue
		}
		plain, count := applyToPlain(seg.text, query, wrap)
		out.WriteString(plain)
		total += count
	}
	return out.String(), total
}

// splitANSI separates CSI/OSC escape sequences from printable runs.
func splitANSI(s string) []segment {
	var segs []segment
	start := 0
	i := 0
	flush := func(end int) {
		if end > start {
			segs = append(segs, segment{text: s[start:end]})
		}
	}
	for i < len(s) {
		if s[i] != 0x1b || i+1 >= len(s) {
			i++
			continue
		}
		escStart := i
		j := i + 1
		switch s[j] {
		case '[':
			j++
			for j < len(s) && (s[j] < '@' || s[j] > '~') {
				j++
			}
			if j < len(s) {
				j++
			}
		case ']':
			j++
			for j < len(s) && s[j] != 0x07 {
				if s[j] == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
					j++
					break
				}
				j++
			}
			if j < len(s) {
				j++
			}
		default:
			j++
		}
		flush(escStart)
		segs = append(segs, segment{escape: true, text: s[escStart:j]})
		start = j
		i = j
	}
	flush(len(s))
	return segs
}

func applyToPlain(s, query string, wrap func(string) string) (string, int) {
	if s == "" || !containsFold(s, query) {
		return s, 0
	}

	lower := strings.ToLower(s)
	q := strings.ToLower(query)
	var out strings.Builder
	count := 0
	start := 0
	for {
		rel := strings.Index(lower[start:], q)
		if rel < 0 {
			out.WriteString(s[start:])
			break
		}
		idx := start + rel
		end := idx + len(query)
		out.WriteString(s[start:idx])
		out.WriteString(wrap(s[idx:end]))
		count++
		start = end
	}
	return out.String(), count
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
