package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const nbsp = "\u00a0"

// mojibakeNBSP is NBSP encoded as UTF-8 and then read back as Latin-1.
const mojibakeNBSP = "\u00c2\u00a0"

// foldAccents removes combining marks: NFD, drop Mn, NFC.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// snakeASCII turns header text into a lowercase ASCII identifier: accents are
// folded, [a-z0-9] kept, runs of space, dash, dot and underscore become a
// single underscore, everything else is dropped. Empty results become "col".
func snakeASCII(s string) string {
	s = foldAccents(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}

// stripTags removes <...> sequences. It is a heuristic, not an HTML parser:
// a '>' inside an attribute value ends the tag early.
func stripTags(s string) string {
	if strings.IndexByte(s, '<') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseSpace replaces runs of Unicode white space with one ASCII space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	seen := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !seen {
				b.WriteByte(' ')
				seen = true
			}
			continue
		}
		b.WriteRune(r)
		seen = false
	}
	return b.String()
}
