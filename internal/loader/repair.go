package loader

import "regexp"

// The repair pass covers the escaping mistakes actually seen in CMAD
// exports, nothing more. Each fix is applied at most once, in a fixed
// order, and the caller retries the parse exactly once afterwards.
var (
	// Matches every ampersand, capturing the tail of a recognized entity
	// reference when one follows. An empty capture means the ampersand is
	// bare. Go regexp has no lookahead, hence the replace-func below.
	ampersandPattern = regexp.MustCompile(`&(amp;|lt;|gt;|apos;|quot;|#[0-9]+;|#[xX][0-9a-fA-F]+;)?`)

	// An angle bracket followed by whitespace cannot open a tag.
	openBracketPattern = regexp.MustCompile(`<(\s)`)

	// A closing bracket preceded by whitespace cannot terminate a tag name.
	// Deliberately the mirror of the "<" rule above: escaping a ">" NOT
	// preceded by whitespace would hit every tag terminator and destroy
	// well-formed markup (see DESIGN.md, "Stray `>` repair").
	closeBracketPattern = regexp.MustCompile(`(\s)>`)
)

// Repair escapes bare ampersands, a "<" followed by whitespace, and a ">"
// preceded by whitespace. It returns the repaired text and the names of the
// repairs that changed something, so a successful repair can be surfaced as
// a diagnostic instead of being silently absorbed.
func Repair(text string) (string, []string) {
	var applied []string

	out := ampersandPattern.ReplaceAllStringFunc(text, func(m string) string {
		if m == "&" {
			return "&amp;"
		}
		return m
	})
	if out != text {
		applied = append(applied, "escaped bare ampersand")
	}

	next := openBracketPattern.ReplaceAllString(out, "&lt;${1}")
	if next != out {
		applied = append(applied, "escaped stray '<'")
	}
	out = next

	next = closeBracketPattern.ReplaceAllString(out, "${1}&gt;")
	if next != out {
		applied = append(applied, "escaped stray '>'")
	}
	out = next

	if len(applied) == 0 {
		return text, nil
	}
	return out, applied
}
