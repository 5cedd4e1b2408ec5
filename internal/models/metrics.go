package models

import "time"

// RuntimeMetrics is a lightweight snapshot for the readiness endpoint.
type RuntimeMetrics struct {
	ActiveSessions           int64     `json:"activeSessions"`
	LivePreviews             int64     `json:"livePreviews"`
	PreviewsAllocated        uint64    `json:"previewsAllocated"`
	PreviewsReleased         uint64    `json:"previewsReleased"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
