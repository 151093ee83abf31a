package content

import (
	"strings"
	"testing"
)

func TestNormalizerStripsTrackingParams(t *testing.T) {
	normalizer := NewNormalizer()

	html := `<a href="https://example.com/article?utm_source=news&utm_campaign=spring&id=1">Read</a>`
	out, links, _ := normalizer.Run(html, "")

	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(links))
	}
	if links[0].URL != "https://example.com/article?id=1" {
		t.Errorf("Expected tracking params stripped, got %s", links[0].URL)
	}
	if links[0].OriginalURL != "https://example.com/article?utm_source=news&utm_campaign=spring&id=1" {
		t.Errorf("Expected original URL retained, got %s", links[0].OriginalURL)
	}
	if !strings.Contains(out, `href="https://example.com/article?id=1"`) {
		t.Errorf("Expected rewritten href in output, got %q", out)
	}
}

func TestNormalizerStripsUnknownUtmParams(t *testing.T) {
	normalizer := NewNormalizer()

	_, links, _ := normalizer.Run(`<a href="https://example.com/?utm_custom=x&q=go">Link</a>`, "")

	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(links))
	}
	if links[0].URL != "https://example.com/?q=go" {
		t.Errorf("Expected utm_ prefixed param stripped, got %s", links[0].URL)
	}
}

func TestNormalizerIdempotent(t *testing.T) {
	normalizer := NewNormalizer()

	html := `<p><a href="https://example.com/a?utm_medium=email&id=2">Link</a></p>` +
		`<img src="/logo.png" alt="">`

	first, firstLinks, firstImages := normalizer.Run(html, "https://news.example.com")
	second, secondLinks, secondImages := normalizer.Run(first, "https://news.example.com")

	if first != second {
		t.Errorf("Expected normalization to be a fixed point:\nfirst:  %q\nsecond: %q", first, second)
	}
	if len(firstLinks) != len(secondLinks) || firstLinks[0].URL != secondLinks[0].URL {
		t.Errorf("Expected stable links across runs")
	}
	if len(firstImages) != len(secondImages) || firstImages[0].Src != secondImages[0].Src {
		t.Errorf("Expected stable images across runs")
	}
}

func TestNormalizerResolvesRelativeURLs(t *testing.T) {
	normalizer := NewNormalizer()

	html := `<a href="/issues/42">Issue</a><img src="images/header.png" alt="Header">`
	_, links, images := normalizer.Run(html, "https://news.example.com")

	if len(links) != 1 || links[0].URL != "https://news.example.com/issues/42" {
		t.Fatalf("Expected resolved link, got %+v", links)
	}
	if len(images) != 1 || images[0].Src != "https://news.example.com/images/header.png" {
		t.Fatalf("Expected resolved image src, got %+v", images)
	}
}

func TestNormalizerRemovesTrackingPixels(t *testing.T) {
	normalizer := NewNormalizer()

	html := `<img src="https://example.com/open?id=9" width="1" height="1">` +
		`<img src="https://cdn.example.com/banner.png" alt="Banner" width="600">`
	out, _, images := normalizer.Run(html, "")

	if len(images) != 1 {
		t.Fatalf("Expected 1 image after pixel removal, got %d", len(images))
	}
	if images[0].Src != "https://cdn.example.com/banner.png" {
		t.Errorf("Expected banner kept, got %s", images[0].Src)
	}
	if strings.Contains(out, "open?id=9") {
		t.Errorf("Expected pixel removed from output, got %q", out)
	}
}

func TestNormalizerRemovesImagesWithoutSrc(t *testing.T) {
	normalizer := NewNormalizer()

	out, _, images := normalizer.Run(`<img alt="broken"><p>Text</p>`, "")

	if len(images) != 0 {
		t.Errorf("Expected no images, got %d", len(images))
	}
	if strings.Contains(out, "<img") {
		t.Errorf("Expected srcless image removed, got %q", out)
	}
}

func TestNormalizerDefaultsImageAlt(t *testing.T) {
	normalizer := NewNormalizer()

	out, _, images := normalizer.Run(`<img src="https://cdn.example.com/a.png" alt="  ">`, "")

	if len(images) != 1 {
		t.Fatalf("Expected 1 image, got %d", len(images))
	}
	if images[0].Alt != DefaultImageAlt {
		t.Errorf("Expected default alt, got %q", images[0].Alt)
	}
	if !strings.Contains(out, `loading="lazy"`) {
		t.Errorf("Expected lazy loading attribute, got %q", out)
	}
}

func TestNormalizerAddsLinkHardening(t *testing.T) {
	normalizer := NewNormalizer()

	out, _, _ := normalizer.Run(`<a href="https://example.com">Go</a>`, "")

	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("Expected target attribute, got %q", out)
	}
	if !strings.Contains(out, `rel="noopener noreferrer"`) {
		t.Errorf("Expected rel attribute, got %q", out)
	}
}

func TestNormalizerSkipsMailtoAndTel(t *testing.T) {
	normalizer := NewNormalizer()

	out, links, _ := normalizer.Run(`<a href="mailto:hi@example.com">Mail</a><a href="tel:+15551234">Call</a>`, "")

	if len(links) != 0 {
		t.Errorf("Expected mailto/tel links not collected, got %d", len(links))
	}
	if !strings.Contains(out, `href="mailto:hi@example.com"`) {
		t.Errorf("Expected mailto href untouched, got %q", out)
	}
}

func TestNormalizerSkipsMalformedURLs(t *testing.T) {
	normalizer := NewNormalizer()

	html := `<a href="http://[::1">Broken</a><a href="https://example.com/ok">OK</a>`
	_, links, _ := normalizer.Run(html, "")

	if len(links) != 1 {
		t.Fatalf("Expected only the valid link collected, got %d", len(links))
	}
	if links[0].URL != "https://example.com/ok" {
		t.Errorf("Expected valid link kept, got %s", links[0].URL)
	}
}

func TestNormalizerRelativeURLWithoutBase(t *testing.T) {
	normalizer := NewNormalizer()

	_, links, _ := normalizer.Run(`<a href="/no-base">Link</a>`, "")

	if len(links) != 0 {
		t.Errorf("Expected relative link without base skipped, got %d", len(links))
	}
}
