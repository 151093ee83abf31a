package content

// Extraction pipeline types

type ExtractionMethod string

const (
	MethodReadability ExtractionMethod = "readability"
	MethodPlaintext   ExtractionMethod = "plaintext"
	MethodFallback    ExtractionMethod = "fallback"
	MethodRaw         ExtractionMethod = "raw"
	MethodError       ExtractionMethod = "error"
)

type Link struct {
	Text        string
	URL         string // canonical URL, tracking parameters stripped
	OriginalURL string
}

type Image struct {
	Src    string
	Alt    string
	Width  string
	Height string
}

type ExtractionResult struct {
	Title       string
	Content     string // sanitized, normalized HTML
	TextContent string
	Excerpt     string
	WordCount   int
	ReadingTime int // minutes
	Links       []Link
	Images      []Image
	Method      ExtractionMethod
	Success     bool
	Error       string
}

// Fingerprint identifies an item's content. Hash is the exact-duplicate key,
// SimHash the near-duplicate key.
type Fingerprint struct {
	Hash    string // sha256 hex, 64 chars
	SimHash string // 64-bit simhash hex, 16 chars
}
