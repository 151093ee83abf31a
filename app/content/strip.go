package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripRule removes a class of non-content elements before extraction runs.
// Rules are applied in table order.
type StripRule struct {
	Name  string
	Apply func(doc *goquery.Document) int
}

// DefaultStripRules is the ordered pre-clean table for newsletter HTML.
var DefaultStripRules = []StripRule{
	{
		// 1x1 images and srcs mentioning track/pixel/beacon.
		Name:  "tracking_pixels",
		Apply: stripTrackingPixels,
	},
	{
		// Blocks whose class/id mentions unsubscribe or footer and whose
		// text talks about unsubscribing or managing preferences.
		Name:  "unsubscribe_blocks",
		Apply: stripUnsubscribeBlocks,
	},
	{
		// Follow-us link farms: more than two links plus follow/social wording.
		Name:  "social_blocks",
		Apply: stripSocialBlocks,
	},
	{
		// Sponsor slots with sponsored/advertisement wording.
		Name:  "sponsor_blocks",
		Apply: stripSponsorBlocks,
	},
}

func stripTrackingPixels(doc *goquery.Document) int {
	removed := 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if IsTrackingPixel(s) {
			s.Remove()
			removed++
		}
	})
	return removed
}

// IsTrackingPixel reports whether an img element is a tracking pixel:
// declared 1x1, or an src containing a known pixel hint.
func IsTrackingPixel(s *goquery.Selection) bool {
	width, _ := s.Attr("width")
	height, _ := s.Attr("height")
	if width == "1" || height == "1" {
		return true
	}

	src, _ := s.Attr("src")
	src = strings.ToLower(src)
	for _, hint := range PixelSrcHints {
		if strings.Contains(src, hint) {
			return true
		}
	}
	return false
}

func stripUnsubscribeBlocks(doc *goquery.Document) int {
	removed := 0
	doc.Find("[class],[id]").Each(func(_ int, s *goquery.Selection) {
		marker := elementMarker(s)
		if !strings.Contains(marker, "unsubscribe") && !strings.Contains(marker, "footer") {
			return
		}

		text := strings.ToLower(s.Text())
		if strings.Contains(text, "unsubscribe") || strings.Contains(text, "manage preferences") || strings.Contains(text, "manage your preferences") {
			s.Remove()
			removed++
		}
	})
	return removed
}

func stripSocialBlocks(doc *goquery.Document) int {
	removed := 0
	doc.Find("[class],[id]").Each(func(_ int, s *goquery.Selection) {
		marker := elementMarker(s)
		if !strings.Contains(marker, "social") && !strings.Contains(marker, "follow") {
			return
		}

		if s.Find("a").Length() <= 2 {
			return
		}

		text := strings.ToLower(s.Text())
		if strings.Contains(text, "follow") || strings.Contains(text, "social") {
			s.Remove()
			removed++
		}
	})
	return removed
}

func stripSponsorBlocks(doc *goquery.Document) int {
	removed := 0
	doc.Find("[class],[id]").Each(func(_ int, s *goquery.Selection) {
		marker := elementMarker(s)
		if !strings.Contains(marker, "sponsor") && !strings.Contains(marker, "advert") && !strings.Contains(marker, "promo") {
			return
		}

		text := strings.ToLower(s.Text())
		if strings.Contains(text, "sponsored") || strings.Contains(text, "advertisement") {
			s.Remove()
			removed++
		}
	})
	return removed
}

// elementMarker joins an element's class and id, lower-cased, for the
// substring heuristics above.
func elementMarker(s *goquery.Selection) string {
	class, _ := s.Attr("class")
	id, _ := s.Attr("id")
	return strings.ToLower(class + " " + id)
}
