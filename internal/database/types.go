package database

import (
	"time"

	"proxyprobe/internal/database/models/model"
)

// GeoStats contains statistics about the geolocation cache
type GeoStats struct {
	Total     int            `json:"total"`
	Fresh     int            `json:"fresh"`
	ByCountry map[string]int `json:"by_country"`
}

// IsFresh reports whether a cached record is still usable under maxAge.
// Records without a resolution timestamp are never fresh.
func IsFresh(rec *model.GeoRecords, maxAge time.Duration) bool {
	if rec == nil || rec.ResolvedAt == nil {
		return false
	}
	return time.Since(*rec.ResolvedAt) < maxAge
}
