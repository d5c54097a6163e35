package models

import "time"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RenditionResponse is the API shape of one rendition
type RenditionResponse struct {
	ID         string `json:"id"`
	Preset     string `json:"preset"`
	StorageKey string `json:"storage_key"`
	SizeBytes  int64  `json:"size_bytes"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Quality    int    `json:"quality"`
}

// AssetResponse is the API shape of an asset with its renditions
type AssetResponse struct {
	ID          string              `json:"id"`
	Tenant      string              `json:"tenant"`
	ContentHash string              `json:"content_hash"`
	Filename    string              `json:"filename"`
	SizeBytes   int64               `json:"size_bytes"`
	Width       int                 `json:"width"`
	Height      int                 `json:"height"`
	InUseCount  int64               `json:"in_use_count"`
	CreatedAt   time.Time           `json:"created_at"`
	Renditions  []RenditionResponse `json:"renditions"`
}

// ToResponse converts the composed asset into its API shape.
func (ar *AssetWithRenditions) ToResponse() AssetResponse {
	renditions := make([]RenditionResponse, 0, len(ar.Renditions))
	for _, r := range ar.Renditions {
		renditions = append(renditions, RenditionResponse{
			ID:         r.ID,
			Preset:     r.Preset,
			StorageKey: r.StorageKey,
			SizeBytes:  r.SizeBytes,
			Width:      r.Width,
			Height:     r.Height,
			Quality:    r.Quality,
		})
	}
	return AssetResponse{
		ID:          ar.Asset.ID,
		Tenant:      ar.Tenant.Name,
		ContentHash: ar.Asset.ContentHash,
		Filename:    ar.Asset.Filename,
		SizeBytes:   ar.Asset.SizeBytes,
		Width:       ar.Asset.Width,
		Height:      ar.Asset.Height,
		InUseCount:  ar.Asset.InUseCount,
		CreatedAt:   ar.Asset.CreatedAt,
		Renditions:  renditions,
	}
}

// PresetMetric holds the transient evaluation result for one preset
type PresetMetric struct {
	Preset        string  `json:"preset"`
	SizeBytes     int64   `json:"size_bytes"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	BytesPerPixel float64 `json:"bytes_per_pixel"`
}

// CompareResult holds per-preset metrics and the recommended preset.
// The recommendation policy: the preset whose rendition retains the most
// bytes per pixel wins; ties break to the lexicographically first name.
type CompareResult struct {
	Results     []PresetMetric `json:"results"`
	Recommended string         `json:"recommended"`
}

// PurgeRequest is the purge endpoint request body
type PurgeRequest struct {
	DryRun       bool   `json:"dry_run"`
	ConfirmToken string `json:"confirm_token,omitempty"`
}

// PurgeResult reports purge candidates and the deletion outcome
type PurgeResult struct {
	DryRun       bool     `json:"dry_run"`
	Candidates   []string `json:"candidates"`
	DeletedCount int      `json:"deleted_count"`
}

// UsageMetrics holds read-only rollups over the asset catalog
type UsageMetrics struct {
	AssetCountByTenant map[string]int64 `json:"asset_count_by_tenant"`
	BytesByPreset      map[string]int64 `json:"bytes_by_preset"`
}

// MarkInUseResponse reports the updated reference counter
type MarkInUseResponse struct {
	ID         string `json:"id"`
	InUseCount int64  `json:"in_use_count"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
}
