package models

// ReportResponse is the response for GET /api/v1/positions/:chain/:id/report.
type ReportResponse struct {
	// Success indicates whether both quantities were resolved.
	Success bool `json:"success"`

	// URL is the position page that was rendered.
	URL string `json:"url,omitempty"`

	// Report is the comparison, present only on success.
	Report *Report `json:"report,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Report is the JSON form of a position comparison.
type Report struct {
	PositionUSD     float64 `json:"position_usd"`
	PositionRung    string  `json:"position_rung"`
	ETHRate         float64 `json:"eth_rate"`
	RateSource      string  `json:"rate_source"`
	ETHInitial      float64 `json:"eth_initial"`
	CurrentETHValue float64 `json:"current_eth_value"`
	PositionInETH   float64 `json:"position_in_eth"`
	USDDelta        float64 `json:"usd_delta"`
	ETHDelta        float64 `json:"eth_delta"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// RenderMs is the time spent navigating and rendering the page.
	RenderMs int64 `json:"render_ms"`

	// ExtractMs is the time spent in the extraction ladders and quote fallback.
	ExtractMs int64 `json:"extract_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Engine    string    `json:"engine"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
