package content

import (
	"testing"
)

func TestCanonicalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Hello World", "hello world"},
		{"collapses whitespace", "Hello   World", "hello world"},
		{"collapses newlines and tabs", "Hello\n\tWorld", "hello world"},
		{"trims", "  Hello World  ", "hello world"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalText(tt.input)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCanonicalTextIdempotent(t *testing.T) {
	once := CanonicalText("  Mixed   CASE\n\ntext ")
	twice := CanonicalText(once)
	if once != twice {
		t.Errorf("Expected canonicalization to be idempotent, got %q then %q", once, twice)
	}
}

func TestComputeFingerprintKnownHash(t *testing.T) {
	fp, err := ComputeFingerprint(CanonicalText("Hello   World"))
	if err != nil {
		t.Fatal(err)
	}

	expected := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if fp.Hash != expected {
		t.Errorf("Expected hash %s, got %s", expected, fp.Hash)
	}
	if len(fp.SimHash) != 16 {
		t.Errorf("Expected 16-char simhash, got %q", fp.SimHash)
	}
}

func TestComputeFingerprintDeterministic(t *testing.T) {
	text := CanonicalText("The quick brown fox jumps over the lazy dog")

	first, err := ComputeFingerprint(text)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ComputeFingerprint(text)
	if err != nil {
		t.Fatal(err)
	}

	if first.Hash != second.Hash {
		t.Errorf("Hash not deterministic: %s vs %s", first.Hash, second.Hash)
	}
	if first.SimHash != second.SimHash {
		t.Errorf("SimHash not deterministic: %s vs %s", first.SimHash, second.SimHash)
	}
}

func TestComputeFingerprintCaseAndWhitespaceInvariant(t *testing.T) {
	a, err := ComputeFingerprint(CanonicalText("Weekly Update:  Issue 42"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ComputeFingerprint(CanonicalText("weekly   update: issue 42"))
	if err != nil {
		t.Fatal(err)
	}

	if a.Hash != b.Hash {
		t.Errorf("Expected identical hashes for canonically equal text")
	}
	if a.SimHash != b.SimHash {
		t.Errorf("Expected identical simhashes for canonically equal text")
	}
}

func TestComputeFingerprintEmptyContent(t *testing.T) {
	if _, err := ComputeFingerprint(""); err == nil {
		t.Error("Expected error for empty content")
	}
	if _, err := ComputeFingerprint("   "); err == nil {
		t.Error("Expected error for whitespace-only content")
	}
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{"0000000000000000", "0000000000000000", 0},
		{"0000000000000000", "0000000000000001", 1},
		{"0000000000000000", "000000000000003f", 6},
		{"0000000000000000", "00000000000000ff", 8},
		{"ffffffffffffffff", "0000000000000000", 64},
	}

	for _, tt := range tests {
		dist, err := HammingDistance(tt.a, tt.b)
		if err != nil {
			t.Fatal(err)
		}
		if dist != tt.expected {
			t.Errorf("HammingDistance(%s, %s): expected %d, got %d", tt.a, tt.b, tt.expected, dist)
		}
	}
}

func TestHammingDistanceMalformed(t *testing.T) {
	if _, err := HammingDistance("not-hex", "0000000000000000"); err == nil {
		t.Error("Expected error for malformed fingerprint")
	}
}

func TestIsNearDuplicate(t *testing.T) {
	// Distance 6 is within the threshold, distance 8 is not.
	if !IsNearDuplicate("0000000000000000", "000000000000003f") {
		t.Error("Expected distance 6 to be a near-duplicate")
	}
	if IsNearDuplicate("0000000000000000", "00000000000000ff") {
		t.Error("Expected distance 8 not to be a near-duplicate")
	}
	if !IsNearDuplicate("abcdef0123456789", "abcdef0123456789") {
		t.Error("Expected identical fingerprints to be near-duplicates")
	}
	if IsNearDuplicate("zzzz", "0000000000000000") {
		t.Error("Expected malformed fingerprint never to match")
	}
}

func TestSimHashSmallEdits(t *testing.T) {
	base := CanonicalText("This week in Go: generics tips, a profiling deep dive, and community news from around the ecosystem")
	edited := CanonicalText("This week in Go: generics tips, a profiling deep dive, and community news from around the ecosystem today")

	a, err := ComputeFingerprint(base)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ComputeFingerprint(edited)
	if err != nil {
		t.Fatal(err)
	}

	if a.Hash == b.Hash {
		t.Error("Expected different exact hashes for edited text")
	}

	dist, err := HammingDistance(a.SimHash, b.SimHash)
	if err != nil {
		t.Fatal(err)
	}
	if dist > 20 {
		t.Errorf("Expected a small simhash distance for a one-word edit, got %d", dist)
	}
}
