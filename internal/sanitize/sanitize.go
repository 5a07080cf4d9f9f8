// Package sanitize turns raw HTML into clean text and filters out
// programmatic-looking garbage that client-rendered pages leak into
// naive extraction.
package sanitize

import (
	"html"
	"strings"
)

// Sanitize strips script/style blocks and remaining tags from raw HTML,
// decodes entities, and collapses whitespace.
func Sanitize(raw string) string {
	s := removeBlocks(raw, "script")
	s = removeBlocks(s, "style")
	s = stripTags(s)
	s = html.UnescapeString(s)
	return collapseWhitespace(s)
}

// removeBlocks drops every <tag>...</tag> region, case-insensitively. A
// block with no closing tag is truncated at end-of-document rather than
// kept, so half-loaded script bodies never reach the output.
func removeBlocks(s, tag string) string {
	open := "<" + tag
	closing := "</" + tag
	lower := strings.ToLower(s)

	var buf strings.Builder
	buf.Grow(len(s))

	pos := 0
	for {
		start := strings.Index(lower[pos:], open)
		if start < 0 {
			buf.WriteString(s[pos:])
			break
		}
		start += pos
		buf.WriteString(s[pos:start])

		end := strings.Index(lower[start:], closing)
		if end < 0 {
			// Missing closing tag: drop everything to end-of-document.
			break
		}
		end += start
		// Skip past the closing tag's '>'.
		gt := strings.IndexByte(lower[end:], '>')
		if gt < 0 {
			break
		}
		pos = end + gt + 1
	}

	return buf.String()
}

// stripTags removes anything between '<' and '>'. An unterminated tag is
// dropped to end-of-document.
func stripTags(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	inTag := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<':
			inTag = true
			// Tags act as word boundaries.
			buf.WriteByte(' ')
		case s[i] == '>':
			inTag = false
		case !inTag:
			buf.WriteByte(s[i])
		}
	}

	return buf.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripCodeSegments removes paragraphs that classify as leaked client
// script. Classified text must never reach persistence, so callers drop
// the segment entirely rather than storing it.
func StripCodeSegments(text string) string {
	paragraphs := strings.Split(text, "\n")
	kept := paragraphs[:0]
	for _, p := range paragraphs {
		if LooksLikeCode(p) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "\n")
}
