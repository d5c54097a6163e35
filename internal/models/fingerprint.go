package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strconv"
)

// PerceptualHashBits is the fixed width of a perceptual fingerprint.
// An 8x8 average-hash grid produces one bit per cell.
const PerceptualHashBits = 64

// perceptualHashHexLen is the hex-encoded width of a perceptual hash (64 bits = 16 chars)
const perceptualHashHexLen = PerceptualHashBits / 4

// PerceptualHash is a fixed-width bit vector summarizing the coarse visual
// appearance of an image. Bit 63 corresponds to the top-left grid cell.
type PerceptualHash uint64

// ContentHash computes the SHA-256 digest of raw file bytes, hex-encoded.
// Identical bytes always yield the identical digest; it is the
// exact-duplicate key within a tenant.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ParsePerceptualHash parses the persisted hex form of a perceptual hash.
// The encoded width must match the fixed 64-bit fingerprint width.
func ParsePerceptualHash(s string) (PerceptualHash, error) {
	if len(s) != perceptualHashHexLen {
		return 0, fmt.Errorf("perceptual hash width mismatch: got %d hex chars, want %d",
			len(s), perceptualHashHexLen)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid perceptual hash %q: %w", s, err)
	}
	return PerceptualHash(v), nil
}

// String returns the zero-padded hex form used for persistence.
func (p PerceptualHash) String() string {
	return fmt.Sprintf("%016x", uint64(p))
}

// Distance returns the Hamming distance to another fingerprint: the
// population count of the bitwise XOR of the two bit vectors.
func (p PerceptualHash) Distance(other PerceptualHash) int {
	return bits.OnesCount64(uint64(p) ^ uint64(other))
}

// IsNearDuplicate reports whether the two fingerprints are within the
// given Hamming distance threshold (inclusive).
func (p PerceptualHash) IsNearDuplicate(other PerceptualHash, threshold int) bool {
	return p.Distance(other) <= threshold
}
