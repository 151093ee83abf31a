package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sanitizer reduces HTML to a strict allow-list of structural and text tags.
// Tags outside the list are unwrapped with their content preserved; tags in
// the removal list disappear wholesale.
type Sanitizer struct {
	allowedTags map[string]map[string]bool
	removedTags map[string]bool
}

func NewSanitizer() *Sanitizer {
	return NewSanitizerWithRules(DefaultAllowedTags, DefaultRemovedTags)
}

func NewSanitizerWithRules(allowed map[string][]string, removed []string) *Sanitizer {
	allowedTags := make(map[string]map[string]bool, len(allowed))
	for tag, attrs := range allowed {
		attrSet := make(map[string]bool, len(attrs))
		for _, attr := range attrs {
			attrSet[attr] = true
		}
		allowedTags[tag] = attrSet
	}

	removedTags := make(map[string]bool, len(removed))
	for _, tag := range removed {
		removedTags[tag] = true
	}

	return &Sanitizer{
		allowedTags: allowedTags,
		removedTags: removedTags,
	}
}

// Run sanitizes an HTML fragment. Unparseable input yields an empty string.
func (s *Sanitizer) Run(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	body := doc.Find("body")
	s.clean(body)

	out, err := body.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func (s *Sanitizer) clean(sel *goquery.Selection) {
	sel.Children().Each(func(_ int, child *goquery.Selection) {
		tag := goquery.NodeName(child)

		if s.removedTags[tag] {
			child.Remove()
			return
		}

		// Descendants first, so unwrapping re-serializes cleaned content.
		s.clean(child)

		attrs, allowed := s.allowedTags[tag]
		if !allowed {
			inner, err := child.Html()
			if err != nil {
				child.Remove()
				return
			}
			child.ReplaceWithHtml(inner)
			return
		}

		s.filterAttributes(child, attrs)
	})
}

func (s *Sanitizer) filterAttributes(sel *goquery.Selection, allowed map[string]bool) {
	node := sel.Get(0)
	if node == nil {
		return
	}

	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		key := strings.ToLower(attr.Key)
		if strings.HasPrefix(key, "on") || strings.HasPrefix(key, "data-") {
			continue
		}
		if !allowed[key] {
			continue
		}
		kept = append(kept, attr)
	}
	node.Attr = kept
}
