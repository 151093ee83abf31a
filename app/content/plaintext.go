package content

import (
	"html"
	"regexp"
	"strings"
)

var (
	autoLinkURLRe   = regexp.MustCompile(`https?://[^\s<>"]+`)
	autoLinkEmailRe = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)
	paragraphRe     = regexp.MustCompile(`\n{2,}`)
)

// textToHTML converts a plain text body into HTML: URLs and email addresses
// become anchors, double newlines paragraph breaks, single newlines line
// breaks.
func textToHTML(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	escaped := html.EscapeString(normalized)

	linked := autoLinkURLRe.ReplaceAllStringFunc(escaped, func(match string) string {
		trimmed := strings.TrimRight(match, ".,;:!?)")
		suffix := match[len(trimmed):]
		return `<a href="` + trimmed + `">` + trimmed + `</a>` + suffix
	})

	linked = autoLinkEmailRe.ReplaceAllStringFunc(linked, func(match string) string {
		return `<a href="mailto:` + match + `">` + match + `</a>`
	})

	var sb strings.Builder
	for _, para := range paragraphRe.Split(linked, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.ReplaceAll(para, "\n", "<br>"))
		sb.WriteString("</p>\n")
	}

	return strings.TrimSpace(sb.String())
}

// titleFromText derives a title from the first non-empty line: the whole line
// when reasonably short, otherwise a snippet of its first 50 characters.
func titleFromText(text string) string {
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) < 100 {
			return line
		}
		runes := []rune(line)
		if len(runes) > 50 {
			runes = runes[:50]
		}
		return strings.TrimSpace(string(runes)) + "..."
	}
	return PlaceholderTitle
}
