package service

import (
	"bytes"
	"image"
	"image/color"

	"renditr/internal/models"
	"renditr/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/icza/gox/imagex/colorx"
	"go.uber.org/zap"
	"golang.org/x/image/webp"
)

// RendererServiceImpl implements the RendererService interface
type RendererServiceImpl struct {
	background color.Color // canvas color used to flatten transparency for JPEG output
}

// NewRendererService creates a new rendition generator. backgroundColor
// is the hex color transparent sources are flattened onto before JPEG
// encoding.
func NewRendererService(backgroundColor string) (RendererService, error) {
	bg, err := colorx.ParseHexColor(backgroundColor)
	if err != nil {
		return nil, models.EncodeError{
			Preset: "",
			Reason: "invalid background color: " + err.Error(),
		}
	}
	return &RendererServiceImpl{background: bg}, nil
}

// Decode decodes raw bytes into an image. The standard registry covers
// JPEG, PNG and GIF; WebP needs the extra decoder from golang.org/x/image.
func (r *RendererServiceImpl) Decode(data []byte) (image.Image, error) {
	reader := bytes.NewReader(data)

	img, _, err := image.Decode(reader)
	if err != nil {
		reader.Seek(0, 0)
		if webpImg, webpErr := webp.Decode(reader); webpErr == nil {
			return webpImg, nil
		}
		return nil, models.DecodeError{Reason: err.Error()}
	}

	return img, nil
}

// Generate resizes an image to fit the preset's bounding box and
// re-encodes it at the preset's quality. Aspect ratio is preserved and
// the source is never upscaled: imaging.Fit only scales down, so a
// source already inside the box passes through at its own size.
func (r *RendererServiceImpl) Generate(img image.Image, preset models.Preset) (*RenditionData, error) {
	if err := preset.Validate(); err != nil {
		return nil, models.EncodeError{Preset: preset.Name, Reason: err.Error()}
	}

	resized := imaging.Fit(img, preset.MaxWidth, preset.MaxHeight, imaging.Lanczos)
	bounds := resized.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	out := image.Image(resized)
	if preset.Format == "jpeg" {
		// JPEG has no alpha channel: flatten onto the configured background
		canvas := imaging.New(width, height, r.background)
		out = imaging.Overlay(canvas, resized, image.Pt(0, 0), 1.0)
	}

	var buf bytes.Buffer
	var err error
	switch preset.Format {
	case "png":
		err = imaging.Encode(&buf, out, imaging.PNG)
	default:
		err = imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(preset.Quality))
	}
	if err != nil {
		return nil, models.EncodeError{Preset: preset.Name, Reason: err.Error()}
	}

	logger.Debug("Rendition generated",
		zap.String("preset", preset.Name),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("size", buf.Len()))

	return &RenditionData{
		Data:   buf.Bytes(),
		Width:  width,
		Height: height,
		Image:  out,
	}, nil
}
