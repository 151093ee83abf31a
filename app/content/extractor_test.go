package content

import (
	"strings"
	"testing"
)

func TestExtractorEmptyBodies(t *testing.T) {
	extractor := NewExtractor()

	result := extractor.Run("", "   ", "")

	if result.Success {
		t.Error("Expected extraction to fail for empty bodies")
	}
	if result.Method != MethodError {
		t.Errorf("Expected method %s, got %s", MethodError, result.Method)
	}
	if result.Title != PlaceholderTitle {
		t.Errorf("Expected placeholder title, got %q", result.Title)
	}
	if result.Error == "" {
		t.Error("Expected error message to be set")
	}
}

func TestExtractorHTMLNewsletter(t *testing.T) {
	extractor := NewExtractor()

	html := `<html><body>
		<h1>This Week in Gophers</h1>
		<p>Welcome back. This issue covers generics, profiling and the
		community survey results in quite some depth, with examples.</p>
		<p>Read the <a href="https://example.com/article?utm_source=newsletter">full article</a>
		for all the details we could not fit here.</p>
		<img src="https://example.com/open.gif" width="1" height="1">
		<div class="footer">You are receiving this email because you signed up.
		<a href="https://example.com/unsubscribe">Unsubscribe</a> at any time.</div>
	</body></html>`

	result := extractor.Run(html, "", "https://example.com")

	if !result.Success {
		t.Fatalf("Expected successful extraction, got error %q", result.Error)
	}
	if result.Method != MethodReadability && result.Method != MethodFallback {
		t.Errorf("Expected readability or fallback method, got %s", result.Method)
	}
	if !strings.Contains(result.TextContent, "generics") {
		t.Errorf("Expected article text preserved, got %q", result.TextContent)
	}
	if strings.Contains(strings.ToLower(result.Content), "unsubscribe") {
		t.Errorf("Expected unsubscribe block stripped, got %q", result.Content)
	}
	if strings.Contains(result.Content, "open.gif") {
		t.Errorf("Expected tracking pixel removed, got %q", result.Content)
	}

	foundArticle := false
	for _, link := range result.Links {
		if link.URL == "https://example.com/article" {
			foundArticle = true
		}
		if strings.Contains(link.URL, "utm_source") {
			t.Errorf("Expected tracking params stripped from %s", link.URL)
		}
	}
	if !foundArticle {
		t.Errorf("Expected canonicalized article link, got %+v", result.Links)
	}

	if result.WordCount == 0 {
		t.Error("Expected a non-zero word count")
	}
	if result.ReadingTime < 1 {
		t.Errorf("Expected reading time of at least 1 minute, got %d", result.ReadingTime)
	}
}

func TestExtractorMalformedHTMLNeverFails(t *testing.T) {
	extractor := NewExtractor()

	result := extractor.Run(`<div><p>unclosed markup <b>with bold`, "", "")

	if !result.Success {
		t.Errorf("Expected degraded extraction to still succeed, got error %q", result.Error)
	}
	if !strings.Contains(result.TextContent, "unclosed markup") {
		t.Errorf("Expected text recovered, got %q", result.TextContent)
	}
}

func TestExtractorPlaintext(t *testing.T) {
	extractor := NewExtractor()

	text := "Check this: https://shop.example.com?utm_campaign=spring\n\nBye"
	result := extractor.Run("", text, "")

	if !result.Success {
		t.Fatalf("Expected successful extraction, got error %q", result.Error)
	}
	if result.Method != MethodPlaintext {
		t.Errorf("Expected method %s, got %s", MethodPlaintext, result.Method)
	}

	if len(result.Links) != 1 {
		t.Fatalf("Expected 1 autolinked URL, got %d", len(result.Links))
	}
	if result.Links[0].URL != "https://shop.example.com" {
		t.Errorf("Expected canonicalized link, got %s", result.Links[0].URL)
	}

	// Word count reflects the original text, not the generated markup.
	if result.WordCount != 4 {
		t.Errorf("Expected word count 4, got %d", result.WordCount)
	}

	if !strings.Contains(result.Content, "<p>") {
		t.Errorf("Expected paragraph markup, got %q", result.Content)
	}
	if result.Title != "Check this: https://shop.example.com?utm_campaign=spring" {
		t.Errorf("Expected first line as title, got %q", result.Title)
	}
}

func TestExtractorPlaintextLongFirstLine(t *testing.T) {
	extractor := NewExtractor()

	long := strings.Repeat("word ", 30)
	result := extractor.Run("", long+"\n\nmore text", "")

	if !strings.HasSuffix(result.Title, "...") {
		t.Errorf("Expected truncated title with ellipsis, got %q", result.Title)
	}
	if len([]rune(result.Title)) > 54 {
		t.Errorf("Expected short title, got %d chars", len([]rune(result.Title)))
	}
}

func TestTitleOrSubject(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		subject  string
		expected string
	}{
		{"title wins", "Issue 42", "Weekly Digest #42", "Issue 42"},
		{"empty title uses subject", "", "Weekly Digest #42", "Weekly Digest #42"},
		{"placeholder uses subject", PlaceholderTitle, "Weekly Digest #42", "Weekly Digest #42"},
		{"both empty", "", "", PlaceholderTitle},
		{"placeholder with no subject", PlaceholderTitle, "", PlaceholderTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleOrSubject(tt.title, tt.subject)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMakeExcerpt(t *testing.T) {
	short := "A short summary."
	if got := makeExcerpt(short); got != short {
		t.Errorf("Expected short text unchanged, got %q", got)
	}

	long := strings.Repeat("lorem ipsum ", 40)
	excerpt := makeExcerpt(long)
	if len([]rune(excerpt)) > excerptLength {
		t.Errorf("Expected excerpt within %d chars, got %d", excerptLength, len([]rune(excerpt)))
	}
	if strings.HasSuffix(excerpt, " ") {
		t.Errorf("Expected trimmed excerpt, got %q", excerpt)
	}
	if !strings.HasSuffix(excerpt, "ipsum") && !strings.HasSuffix(excerpt, "lorem") {
		t.Errorf("Expected excerpt cut at a word boundary, got %q", excerpt)
	}
}

func TestTextToHTMLAutolink(t *testing.T) {
	out := textToHTML("Visit https://example.com/a. Mail hi@example.com for help.\n\nSecond paragraph.")

	if !strings.Contains(out, `<a href="https://example.com/a">https://example.com/a</a>.`) {
		t.Errorf("Expected trailing punctuation excluded from link, got %q", out)
	}
	if !strings.Contains(out, `<a href="mailto:hi@example.com">hi@example.com</a>`) {
		t.Errorf("Expected email autolinked, got %q", out)
	}
	if strings.Count(out, "<p>") != 2 {
		t.Errorf("Expected two paragraphs, got %q", out)
	}
}
