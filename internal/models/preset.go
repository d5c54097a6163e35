package models

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Preset defines one named rendition configuration: a bounding box the
// output must fit inside (aspect ratio preserved, no upscaling), the
// encoding quality and the output format.
type Preset struct {
	Name      string `json:"name"`
	MaxWidth  int    `json:"max_width"`
	MaxHeight int    `json:"max_height"`
	Quality   int    `json:"quality"`
	Format    string `json:"format"`
}

var presetSpecRegex = regexp.MustCompile(`^([a-z0-9_-]+):(\d+)x(\d+)(?::(\d+))?$`)

// DefaultPresets returns the built-in preset set.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "card", MaxWidth: 600, MaxHeight: 400, Quality: 85, Format: "jpeg"},
		{Name: "thumb", MaxWidth: 200, MaxHeight: 200, Quality: 85, Format: "jpeg"},
		{Name: "zoom", MaxWidth: 1600, MaxHeight: 1600, Quality: 85, Format: "jpeg"},
	}
}

// ParsePresetSpec parses a comma-separated preset specification like
// "thumb:200x200:85,card:600x400,zoom:1600x1600:90".
// Quality is optional and defaults to 85. Format is always jpeg for
// parsed specs. Presets are returned sorted by name for deterministic
// iteration order.
func ParsePresetSpec(spec string) ([]Preset, error) {
	parts := strings.Split(spec, ",")
	presets := make([]Preset, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		matches := presetSpecRegex.FindStringSubmatch(part)
		if matches == nil {
			return nil, fmt.Errorf("invalid preset spec %q (expected name:WIDTHxHEIGHT[:QUALITY])", part)
		}

		name := matches[1]
		if seen[name] {
			return nil, fmt.Errorf("duplicate preset name %q", name)
		}
		seen[name] = true

		width, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, fmt.Errorf("invalid width in preset %q: %w", part, err)
		}
		height, err := strconv.Atoi(matches[3])
		if err != nil {
			return nil, fmt.Errorf("invalid height in preset %q: %w", part, err)
		}

		quality := 85
		if matches[4] != "" {
			quality, err = strconv.Atoi(matches[4])
			if err != nil {
				return nil, fmt.Errorf("invalid quality in preset %q: %w", part, err)
			}
		}

		preset := Preset{
			Name:      name,
			MaxWidth:  width,
			MaxHeight: height,
			Quality:   quality,
			Format:    "jpeg",
		}
		if err := preset.Validate(); err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}

	if len(presets) == 0 {
		return nil, fmt.Errorf("preset spec %q contains no presets", spec)
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}

// Validate validates the preset parameters.
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if p.MaxWidth <= 0 || p.MaxHeight <= 0 {
		return fmt.Errorf("preset %q: bounding box must be positive, got %dx%d",
			p.Name, p.MaxWidth, p.MaxHeight)
	}
	if p.MaxWidth > 10000 || p.MaxHeight > 10000 {
		return fmt.Errorf("preset %q: bounding box cannot exceed 10000 pixels", p.Name)
	}
	if p.Quality < 1 || p.Quality > 100 {
		return fmt.Errorf("preset %q: quality must be between 1 and 100, got %d", p.Name, p.Quality)
	}
	switch p.Format {
	case "jpeg", "png":
	default:
		return fmt.Errorf("preset %q: unsupported format %q", p.Name, p.Format)
	}
	return nil
}

// Extension returns the file extension for the preset's output format.
func (p Preset) Extension() string {
	if p.Format == "png" {
		return "png"
	}
	return "jpg"
}

// String returns a compact description of the preset.
func (p Preset) String() string {
	return fmt.Sprintf("%s(%dx%d q%d %s)", p.Name, p.MaxWidth, p.MaxHeight, p.Quality, p.Format)
}
