// Package handler holds the operational HTTP endpoints: liveness and a
// request-counter snapshot.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/dkostiuk/clipferry/internal/pipeline"
)

var startTime = time.Now()

// ToolChecker reports whether an external tool is reachable on PATH.
type ToolChecker interface {
	IsAvailable() bool
}

// HealthHandler serves the liveness and stats endpoints.
type HealthHandler struct {
	stats      *pipeline.Stats
	transcoder ToolChecker
	tempPath   string
}

// NewHealthHandler creates a health handler. tempPath is the workspace root
// whose disk usage is reported.
func NewHealthHandler(stats *pipeline.Stats, transcoder ToolChecker, tempPath string) *HealthHandler {
	return &HealthHandler{
		stats:      stats,
		transcoder: transcoder,
		tempPath:   tempPath,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status          string `json:"status"`
	Timestamp       string `json:"timestamp"`
	TranscoderReady bool   `json:"transcoder_ready"`
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		TranscoderReady: h.transcoder.IsAvailable(),
	})
}

// StatsResponse combines pipeline counters with process statistics.
type StatsResponse struct {
	Uptime        int64             `json:"uptime_seconds"`
	UptimeHuman   string            `json:"uptime_human"`
	Pipeline      pipeline.Snapshot `json:"pipeline"`
	MemAllocMB    int64             `json:"mem_alloc_mb"`
	MemSysMB      int64             `json:"mem_sys_mb"`
	NumGoroutines int               `json:"num_goroutines"`
	DiskFreeBytes int64             `json:"disk_free_bytes"`
	DiskUsedPct   float64           `json:"disk_used_pct"`
	TempPath      string            `json:"temp_path"`
}

// Stats handles GET /stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)
	resp := StatsResponse{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		Pipeline:      h.stats.Snapshot(),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		TempPath:      h.tempPath,
	}

	// Workspaces live on this volume; running out of space fails extractions.
	_, free, _, usedPct := diskStats(h.tempPath)
	resp.DiskFreeBytes = free
	resp.DiskUsedPct = usedPct

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
