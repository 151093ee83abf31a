package content

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// readabilityCharThreshold is tuned for short newsletter bodies rather than
// long-form articles.
const readabilityCharThreshold = 100

const excerptLength = 200

// Extractor turns an HTML or plain text body into a clean ExtractionResult.
// It never returns an error: failed stages degrade to the next fallback and
// the outcome is reported via Method and Success.
type Extractor struct {
	stripRules []StripRule
	sanitizer  *Sanitizer
	normalizer *Normalizer
}

func NewExtractor() *Extractor {
	return &Extractor{
		stripRules: DefaultStripRules,
		sanitizer:  NewSanitizer(),
		normalizer: NewNormalizer(),
	}
}

func NewExtractorWithRules(stripRules []StripRule, sanitizer *Sanitizer, normalizer *Normalizer) *Extractor {
	return &Extractor{
		stripRules: stripRules,
		sanitizer:  sanitizer,
		normalizer: normalizer,
	}
}

// Run extracts readable content. baseURL (usually the sender's domain) is
// used to resolve relative links and images.
func (e *Extractor) Run(htmlBody, textBody, baseURL string) ExtractionResult {
	switch {
	case strings.TrimSpace(htmlBody) != "":
		return e.extractHTML(htmlBody, textBody, baseURL)
	case strings.TrimSpace(textBody) != "":
		return e.extractText(textBody, baseURL)
	default:
		return ExtractionResult{
			Title:   PlaceholderTitle,
			Method:  MethodError,
			Success: false,
			Error:   "message has no HTML or text body",
		}
	}
}

func (e *Extractor) extractHTML(htmlBody, textBody, baseURL string) ExtractionResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		slog.Warn("HTML body unparseable, degrading", "error", err)
		if strings.TrimSpace(textBody) != "" {
			return e.extractText(textBody, baseURL)
		}
		return e.buildResult(PlaceholderTitle, htmlBody, baseURL, "", MethodRaw, false, "failed to parse HTML body")
	}

	for _, rule := range e.stripRules {
		if removed := rule.Apply(doc); removed > 0 {
			slog.Debug("Strip rule removed elements", "rule", rule.Name, "removed", removed)
		}
	}

	cleaned, err := doc.Html()
	if err != nil {
		cleaned = htmlBody
	}

	if article, ok := e.tryReadability(cleaned, baseURL); ok {
		title := strings.TrimSpace(article.Title)
		if title == "" {
			title = extractTitle(doc)
		}
		return e.buildResult(title, article.Content, baseURL, "", MethodReadability, true, "")
	}

	// Readability found no usable article: fall back to the whole body.
	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body = cleaned
	}
	return e.buildResult(extractTitle(doc), body, baseURL, "", MethodFallback, true, "")
}

func (e *Extractor) extractText(textBody, baseURL string) ExtractionResult {
	converted := textToHTML(textBody)
	result := e.buildResult(titleFromText(textBody), converted, baseURL, textBody, MethodPlaintext, true, "")
	return result
}

// buildResult runs the sanitize and normalize stages and fills the derived
// fields. textOverride, when set, supplies the plain text used for word
// counting (the plaintext path counts the original text, not the HTML).
func (e *Extractor) buildResult(title, rawHTML, baseURL, textOverride string, method ExtractionMethod, success bool, errMsg string) ExtractionResult {
	sanitized := e.sanitizer.Run(rawHTML)
	normalized, links, images := e.normalizer.Run(sanitized, baseURL)

	textContent := textOverride
	if textContent == "" {
		textContent = htmlToText(normalized)
	}

	wordCount := len(strings.Fields(textContent))

	return ExtractionResult{
		Title:       strings.TrimSpace(title),
		Content:     normalized,
		TextContent: textContent,
		Excerpt:     makeExcerpt(textContent),
		WordCount:   wordCount,
		ReadingTime: (wordCount + 199) / 200,
		Links:       links,
		Images:      images,
		Method:      method,
		Success:     success,
		Error:       errMsg,
	}
}

func (e *Extractor) tryReadability(cleanedHTML, baseURL string) (readability.Article, bool) {
	pageURL, err := url.Parse(baseURL)
	if err != nil {
		pageURL = nil
	}

	parser := readability.NewParser()
	parser.CharThresholds = readabilityCharThreshold

	article, err := parser.Parse(strings.NewReader(cleanedHTML), pageURL)
	if err != nil {
		slog.Debug("Readability extraction failed, using fallback", "error", err)
		return readability.Article{}, false
	}
	if strings.TrimSpace(article.Content) == "" {
		return readability.Article{}, false
	}
	return article, true
}

// TitleOrSubject applies the caller-level title fallback: an empty or
// placeholder title is replaced by the message subject.
func TitleOrSubject(title, subject string) string {
	title = strings.TrimSpace(title)
	subject = strings.TrimSpace(subject)
	if (title == "" || title == PlaceholderTitle) && subject != "" {
		return subject
	}
	if title == "" {
		return PlaceholderTitle
	}
	return title
}

// extractTitle searches the title selector table in priority order.
func extractTitle(doc *goquery.Document) string {
	for _, selector := range TitleSelectors {
		title := ""
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			candidate := strings.TrimSpace(s.Text())
			if candidate != "" {
				title = candidate
				return false
			}
			return true
		})
		if title != "" {
			return title
		}
	}
	return PlaceholderTitle
}

func htmlToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
}

// makeExcerpt returns roughly the first excerptLength characters, cut at the
// last whitespace boundary before the limit.
func makeExcerpt(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}

	cut := string(runes[:excerptLength])
	if idx := strings.LastIndexFunc(cut, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
