package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/agentstation/stockguard/internal/server/response"
	"github.com/agentstation/stockguard/internal/server/status"
	"github.com/agentstation/stockguard/pkg/constants"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// HandleHealth handles GET /api/v1/health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "stockguard",
		"version": h.version,
	})
}

// HandleReady handles GET /api/v1/ready. It fails while the server is
// shutting down or the store cannot be read.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	snap := h.status.Snapshot()
	if snap.State != status.Online {
		response.ServiceUnavailable(w, "Server is "+string(snap.State))
		return
	}
	if _, err := h.store.ListCategories(); err != nil {
		h.logger.Error().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, "Inventory store not available")
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}

// HandleStatus handles GET /api/v1/status with the same fields the
// heartbeat broadcasts.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, h.status.Snapshot())
}

// eventStats is implemented by the event broker.
type eventStats interface {
	EventsPublished() int64
	EventsDropped() int64
	QueueDepth() int
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	products, lowStock, err := h.countProducts()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	cats, err := h.store.ListCategories()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := map[string]any{
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      mem.Alloc / 1024 / 1024,
			"memory_sys_mb":  mem.Sys / 1024 / 1024,
		},
		"process": processStats(),
		"inventory": map[string]any{
			"products_total":   products,
			"low_stock_total":  lowStock,
			"categories_total": len(cats),
		},
		"realtime": map[string]any{
			"websocket_clients": h.wsHub.ClientCount(),
			"sse_clients":       h.sseBroadcaster.ClientCount(),
		},
		"cache": h.cache.GetStats(),
	}
	if es, ok := h.events.(eventStats); ok {
		stats["events"] = map[string]any{
			"published_total": es.EventsPublished(),
			"dropped_total":   es.EventsDropped(),
			"queue_depth":     es.QueueDepth(),
		}
	}

	response.OK(w, stats)
}

// countProducts pages through the store counting all and low stock products.
func (h *Handlers) countProducts() (total, lowStock int, err error) {
	for skip := 0; ; skip += constants.MaxPageSize {
		page, err := h.store.ListProducts(inventory.Filter{Skip: skip, Limit: constants.MaxPageSize})
		if err != nil {
			return 0, 0, err
		}
		for _, p := range page {
			total++
			if p.IsLowStock() {
				lowStock++
			}
		}
		if len(page) < constants.MaxPageSize {
			return total, lowStock, nil
		}
	}
}

// processStats reports OS level figures for this process. Fields that
// cannot be read are omitted.
func processStats() map[string]any {
	out := map[string]any{"pid": os.Getpid()}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return out
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		out["rss_mb"] = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		out["cpu_percent"] = cpu
	}
	if n, err := proc.NumThreads(); err == nil {
		out["threads"] = n
	}
	return out
}
