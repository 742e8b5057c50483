package domain

// ============================================================
// Health & metrics API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// UsageMetrics is the snapshot returned by GET /v1/admin/metrics.
type UsageMetrics struct {
	TotalRequests  float64 `json:"totalRequests"`
	ErrorRate      float64 `json:"errorRate"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	ActiveSessions int     `json:"activeReviewSessions"`
	Period         string  `json:"period"`
}
