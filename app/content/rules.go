package content

// Rule tables for the extraction pipeline. These are static defaults passed
// explicitly into the components, so tests can substitute alternates.

// TrackingParams are query parameters removed during URL canonicalization.
// Any parameter with a "utm_" prefix is removed as well.
var TrackingParams = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
	"fb_source",
	"gclid",
	"mc_eid",
	"mc_cid",
	"_ga",
}

// PixelSrcHints mark an image src as a tracking pixel.
var PixelSrcHints = []string{"track", "pixel", "beacon"}

// TitleSelectors are tried in order when extracting a title from HTML.
var TitleSelectors = []string{
	"h1",
	"[class*='title']",
	"[class*='headline']",
	"[class*='subject']",
	"[id*='title']",
	"[id*='headline']",
	"title",
}

// PlaceholderTitle is emitted when no title can be found. Callers replace it
// with the message subject.
const PlaceholderTitle = "Newsletter"

// DefaultImageAlt fills empty alt attributes on content images.
const DefaultImageAlt = "Newsletter image"

// DefaultAllowedTags is the sanitizer allow-list: tag name to permitted
// attributes. Tags absent from the map are unwrapped, their text preserved.
// data-* and on* attributes are always dropped, even for allow-listed tags.
var DefaultAllowedTags = map[string][]string{
	"h1": nil, "h2": nil, "h3": nil, "h4": nil, "h5": nil, "h6": nil,
	"p": nil, "br": nil, "hr": nil,
	"ul": nil, "ol": nil, "li": nil,
	"table": nil, "thead": nil, "tbody": nil, "tfoot": nil, "tr": nil,
	"td": {"colspan", "rowspan"}, "th": {"colspan", "rowspan"},
	"blockquote": nil, "pre": nil, "code": nil,
	"img":        {"src", "alt", "width", "height", "loading"},
	"a":          {"href", "title", "target", "rel"},
	"em":         nil, "strong": nil, "b": nil, "i": nil, "u": nil, "s": nil,
	"span":       nil, "div": nil,
	"figure":     nil, "figcaption": nil,
}

// DefaultRemovedTags are removed wholesale, content included.
var DefaultRemovedTags = []string{
	"script", "style", "iframe", "object", "embed", "form", "input",
	"button", "select", "option", "textarea", "noscript", "svg", "canvas",
	"video", "audio", "link", "meta", "title", "base",
}
