package service

import (
	"image"

	"renditr/internal/models"

	"github.com/disintegration/imaging"
)

// aHashGridSize is the edge length of the downsampling grid. An 8x8
// grid yields the fixed 64-bit perceptual fingerprint width.
const aHashGridSize = 8

// HasherServiceImpl implements the HasherService interface
type HasherServiceImpl struct{}

// NewHasherService creates a new fingerprint hasher
func NewHasherService() HasherService {
	return &HasherServiceImpl{}
}

// ContentFingerprint returns the hex-encoded SHA-256 digest of the raw bytes
func (h *HasherServiceImpl) ContentFingerprint(data []byte) string {
	return models.ContentHash(data)
}

// PerceptualFingerprint computes the average hash of a decoded image:
// downsample to an 8x8 grid with the same Lanczos filter the rendition
// path uses, convert to greyscale, then set one bit per cell to 1 if
// the cell's intensity is at or above the grid mean. The first cell
// (top-left) maps to the most significant bit.
func (h *HasherServiceImpl) PerceptualFingerprint(img image.Image) models.PerceptualHash {
	small := imaging.Resize(img, aHashGridSize, aHashGridSize, imaging.Lanczos)
	grey := imaging.Grayscale(small)

	var cells [aHashGridSize * aHashGridSize]uint8
	var sum int
	for y := 0; y < aHashGridSize; y++ {
		for x := 0; x < aHashGridSize; x++ {
			// Grayscale output has R == G == B
			v := grey.NRGBAAt(x, y).R
			cells[y*aHashGridSize+x] = v
			sum += int(v)
		}
	}
	mean := float64(sum) / float64(len(cells))

	var hash uint64
	for _, v := range cells {
		hash <<= 1
		if float64(v) >= mean {
			hash |= 1
		}
	}

	return models.PerceptualHash(hash)
}
