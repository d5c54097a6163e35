package service

import (
	"context"

	"renditr/internal/config"
	"renditr/internal/models"
	"renditr/pkg/logger"

	"go.uber.org/zap"
)

// CompareServiceImpl implements the CompareService interface
type CompareServiceImpl struct {
	renderer RendererService
	config   *config.Config
}

// NewCompareService creates a new comparator
func NewCompareService(renderer RendererService, cfg *config.Config) CompareService {
	return &CompareServiceImpl{
		renderer: renderer,
		config:   cfg,
	}
}

// Compare generates a rendition per configured preset in memory and
// scores each by compression efficiency (bytes per pixel of the output).
// Nothing is persisted.
//
// Recommendation policy: the preset whose rendition retains the most
// bytes per pixel is recommended, on the grounds that it preserved the
// most detail relative to its output size. Ties break to the
// lexicographically first preset name. The score is a heuristic, not a
// perceptual-quality measure.
func (s *CompareServiceImpl) Compare(ctx context.Context, data []byte) (*models.CompareResult, error) {
	size := int64(len(data))
	if size > s.config.Image.MaxUploadBytes {
		return nil, models.PayloadTooLargeError{Size: size, MaxSize: s.config.Image.MaxUploadBytes}
	}

	img, err := s.renderer.Decode(data)
	if err != nil {
		return nil, models.InvalidImageError{Reason: err.Error()}
	}

	presets := s.config.SortedPresets()
	results := make([]models.PresetMetric, 0, len(presets))
	recommended := ""
	bestScore := -1.0

	for _, preset := range presets {
		rendition, err := s.renderer.Generate(img, preset)
		if err != nil {
			return nil, err
		}

		pixels := rendition.Width * rendition.Height
		score := 0.0
		if pixels > 0 {
			score = float64(len(rendition.Data)) / float64(pixels)
		}

		results = append(results, models.PresetMetric{
			Preset:        preset.Name,
			SizeBytes:     int64(len(rendition.Data)),
			Width:         rendition.Width,
			Height:        rendition.Height,
			BytesPerPixel: score,
		})

		// Presets are sorted by name, so a strict > keeps the first
		// name on ties
		if score > bestScore {
			bestScore = score
			recommended = preset.Name
		}
	}

	logger.DebugWithContext(ctx, "Compare evaluation complete",
		zap.String("recommended", recommended),
		zap.Int("presets", len(results)))

	return &models.CompareResult{
		Results:     results,
		Recommended: recommended,
	}, nil
}
