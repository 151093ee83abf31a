package content

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Normalizer canonicalizes links and images in sanitized HTML: relative URLs
// are resolved against the sender-domain base, tracking parameters stripped,
// tracking pixels dropped. A malformed URL skips that element only.
type Normalizer struct {
	trackingParams map[string]bool
}

func NewNormalizer() *Normalizer {
	return NewNormalizerWithParams(TrackingParams)
}

func NewNormalizerWithParams(params []string) *Normalizer {
	trackingParams := make(map[string]bool, len(params))
	for _, p := range params {
		trackingParams[p] = true
	}
	return &Normalizer{trackingParams: trackingParams}
}

// Run rewrites the fragment and collects its links and images. Normalization
// is idempotent: running it on already-normalized output changes nothing.
func (n *Normalizer) Run(rawHTML string, baseURL string) (string, []Link, []Image) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, nil, nil
	}

	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil {
			slog.Warn("Invalid base URL, relative links left unresolved", "base_url", baseURL, "error", err)
			base = nil
		}
	}

	links := n.normalizeLinks(doc, base)
	images := n.normalizeImages(doc, base)

	out, err := doc.Find("body").Html()
	if err != nil {
		return rawHTML, links, images
	}
	return strings.TrimSpace(out), links, images
}

func (n *Normalizer) normalizeLinks(doc *goquery.Document, base *url.URL) []Link {
	var links []Link

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
			return
		}

		canonical, err := n.CanonicalizeURL(href, base)
		if err != nil {
			slog.Warn("Skipping malformed link", "href", href, "error", err)
			return
		}

		s.SetAttr("href", canonical)
		s.SetAttr("target", "_blank")
		s.SetAttr("rel", "noopener noreferrer")

		links = append(links, Link{
			Text:        strings.TrimSpace(s.Text()),
			URL:         canonical,
			OriginalURL: href,
		})
	})

	return links
}

func (n *Normalizer) normalizeImages(doc *goquery.Document, base *url.URL) []Image {
	var images []Image

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if IsTrackingPixel(s) {
			s.Remove()
			return
		}

		src, ok := s.Attr("src")
		if !ok || src == "" {
			s.Remove()
			return
		}

		resolved, err := n.resolveURL(src, base)
		if err != nil {
			slog.Warn("Skipping image with malformed src", "src", src, "error", err)
			return
		}
		s.SetAttr("src", resolved)

		alt, _ := s.Attr("alt")
		if strings.TrimSpace(alt) == "" {
			alt = DefaultImageAlt
			s.SetAttr("alt", alt)
		}
		s.SetAttr("loading", "lazy")

		width, _ := s.Attr("width")
		height, _ := s.Attr("height")

		images = append(images, Image{
			Src:    resolved,
			Alt:    alt,
			Width:  width,
			Height: height,
		})
	})

	return images
}

// CanonicalizeURL resolves a possibly-relative URL against base and strips
// tracking query parameters. Parameter order in the output is stable.
func (n *Normalizer) CanonicalizeURL(raw string, base *url.URL) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	if !u.IsAbs() {
		if base == nil {
			return "", fmt.Errorf("relative URL %q with no base", raw)
		}
		u = base.ResolveReference(u)
	}

	query := u.Query()
	changed := false
	for param := range query {
		if n.trackingParams[param] || strings.HasPrefix(param, "utm_") {
			query.Del(param)
			changed = true
		}
	}
	if changed || u.RawQuery != "" {
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

func (n *Normalizer) resolveURL(raw string, base *url.URL) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if !u.IsAbs() {
		if base == nil {
			return "", fmt.Errorf("relative URL %q with no base", raw)
		}
		u = base.ResolveReference(u)
	}
	return u.String(), nil
}
