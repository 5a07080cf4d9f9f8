package fetch

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"

	"github.com/deadonfilm/deadonfilm/internal/sanitize"
)

const (
	// minReadableLength is the acceptance threshold for readability
	// output; anything shorter falls back to the generic sanitizer.
	minReadableLength = 200

	// maxContentLength bounds stored page content.
	maxContentLength = 8000
)

// extractReadable pulls the readable article text out of raw HTML. It
// tries a readability parse first, falls back to the generic sanitizer,
// strips leaked script segments, and truncates to maxContentLength.
func extractReadable(rawHTML, pageURL string) (title, content string) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	if parsedURL != nil {
		if article, err := readability.FromReader(bytes.NewReader([]byte(rawHTML)), parsedURL); err == nil {
			var rendered bytes.Buffer
			if err := article.RenderText(&rendered); err == nil {
				text := cleanText(rendered.String())
				if len(text) >= minReadableLength {
					return article.Title(), truncate(sanitize.StripCodeSegments(text))
				}
			}
		}
	}

	text := sanitize.Sanitize(rawHTML)
	return "", truncate(sanitize.StripCodeSegments(text))
}

func truncate(s string) string {
	if len(s) <= maxContentLength {
		return s
	}
	return s[:maxContentLength]
}

// cleanText normalizes line endings and collapses in-line whitespace
// while keeping paragraph breaks.
func cleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}
