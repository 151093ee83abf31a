package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/bits"
	"regexp"
	"strconv"
	"strings"
)

// Near-duplicate detection parameters: simhash over shingleSize-word shingles,
// two fingerprints match when their Hamming distance is within the threshold.
const (
	shingleSize = 3

	NearDuplicateThreshold = 6
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CanonicalText canonicalizes plain text for hashing: lower-cased, whitespace
// runs collapsed to single spaces, trimmed. Applying it twice is a no-op.
func CanonicalText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToLower(text), " "))
}

// ComputeFingerprint derives the exact-duplicate hash and the near-duplicate
// simhash from canonical content. Empty content is a caller contract
// violation and the one error path in the pipeline.
func ComputeFingerprint(normalized string) (Fingerprint, error) {
	if strings.TrimSpace(normalized) == "" {
		return Fingerprint{}, fmt.Errorf("cannot fingerprint empty content")
	}

	sum := sha256.Sum256([]byte(normalized))

	return Fingerprint{
		Hash:    hex.EncodeToString(sum[:]),
		SimHash: fmt.Sprintf("%016x", simhash(normalized)),
	}, nil
}

// HammingDistance compares two hex-encoded simhashes.
func HammingDistance(a, b string) (int, error) {
	x, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fingerprint %q: %w", a, err)
	}
	y, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fingerprint %q: %w", b, err)
	}
	return bits.OnesCount64(x ^ y), nil
}

// IsNearDuplicate reports whether two simhashes are within the near-duplicate
// threshold. Malformed fingerprints never match.
func IsNearDuplicate(a, b string) bool {
	dist, err := HammingDistance(a, b)
	if err != nil {
		return false
	}
	return dist <= NearDuplicateThreshold
}

func simhash(text string) uint64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	addShingle := func(shingle string) {
		h := fnv.New64a()
		h.Write([]byte(shingle))
		sum := h.Sum64()
		for bit := 0; bit < 64; bit++ {
			if sum&(1<<uint(bit)) != 0 {
				vector[bit]++
			} else {
				vector[bit]--
			}
		}
	}

	if len(words) < shingleSize {
		addShingle(strings.Join(words, " "))
	} else {
		for i := 0; i+shingleSize <= len(words); i++ {
			addShingle(strings.Join(words[i:i+shingleSize], " "))
		}
	}

	var out uint64
	for bit := 0; bit < 64; bit++ {
		if vector[bit] > 0 {
			out |= 1 << uint(bit)
		}
	}
	return out
}
