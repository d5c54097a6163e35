package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPresets(t *testing.T) {
	presets := DefaultPresets()
	assert.Len(t, presets, 3)

	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
		assert.NoError(t, p.Validate())
	}
	assert.Equal(t, []string{"card", "thumb", "zoom"}, names)
}

func TestParsePresetSpec(t *testing.T) {
	t.Run("full_spec", func(t *testing.T) {
		presets, err := ParsePresetSpec("thumb:200x200:85,card:600x400,zoom:1600x1600:90")
		assert.NoError(t, err)
		assert.Len(t, presets, 3)

		// Sorted by name
		assert.Equal(t, "card", presets[0].Name)
		assert.Equal(t, 600, presets[0].MaxWidth)
		assert.Equal(t, 400, presets[0].MaxHeight)
		assert.Equal(t, 85, presets[0].Quality) // default quality

		assert.Equal(t, "thumb", presets[1].Name)
		assert.Equal(t, "zoom", presets[2].Name)
		assert.Equal(t, 90, presets[2].Quality)
	})

	t.Run("duplicate_name", func(t *testing.T) {
		_, err := ParsePresetSpec("thumb:200x200,thumb:300x300")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("malformed_entry", func(t *testing.T) {
		_, err := ParsePresetSpec("thumb:200")
		assert.Error(t, err)
	})

	t.Run("uppercase_name_rejected", func(t *testing.T) {
		_, err := ParsePresetSpec("Thumb:200x200")
		assert.Error(t, err)
	})

	t.Run("empty_spec", func(t *testing.T) {
		_, err := ParsePresetSpec("  ,  ")
		assert.Error(t, err)
	})
}

func TestPreset_Validate(t *testing.T) {
	valid := Preset{Name: "thumb", MaxWidth: 200, MaxHeight: 200, Quality: 85, Format: "jpeg"}
	assert.NoError(t, valid.Validate())

	t.Run("zero_box", func(t *testing.T) {
		p := valid
		p.MaxWidth = 0
		assert.Error(t, p.Validate())
	})

	t.Run("oversized_box", func(t *testing.T) {
		p := valid
		p.MaxHeight = 20000
		assert.Error(t, p.Validate())
	})

	t.Run("quality_bounds", func(t *testing.T) {
		p := valid
		p.Quality = 0
		assert.Error(t, p.Validate())
		p.Quality = 101
		assert.Error(t, p.Validate())
	})

	t.Run("unsupported_format", func(t *testing.T) {
		p := valid
		p.Format = "webp"
		assert.Error(t, p.Validate())
	})
}

func TestRenditionStorageKey(t *testing.T) {
	preset := Preset{Name: "thumb", MaxWidth: 200, MaxHeight: 200, Quality: 85, Format: "jpeg"}
	hash := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"

	key := RenditionStorageKey(hash, preset)
	assert.Equal(t, "renditions/abcdef01/thumb.jpg", key)

	t.Run("stable_for_identical_content", func(t *testing.T) {
		assert.Equal(t, key, RenditionStorageKey(hash, preset))
	})

	t.Run("png_extension", func(t *testing.T) {
		p := preset
		p.Format = "png"
		assert.Equal(t, "renditions/abcdef01/thumb.png", RenditionStorageKey(hash, p))
	})
}

func TestValidateTenantName(t *testing.T) {
	t.Run("valid_names", func(t *testing.T) {
		for _, name := range []string{"acme", "acme-corp", "a", "Tenant_1", "shop.example"} {
			assert.NoError(t, ValidateTenantName(name), name)
		}
	})

	t.Run("invalid_names", func(t *testing.T) {
		for _, name := range []string{"", "has space", "colon:name", "pipe|name", ".leading", "-leading"} {
			assert.Error(t, ValidateTenantName(name), name)
		}
	})

	t.Run("length_limit", func(t *testing.T) {
		long := make([]byte, 65)
		for i := range long {
			long[i] = 'a'
		}
		assert.Error(t, ValidateTenantName(string(long)))
		assert.NoError(t, ValidateTenantName(string(long[:64])))
	})
}
