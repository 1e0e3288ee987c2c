package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"propertydeals-backend/internal/middleware"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// DBPinger is optional. If nil, the database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// LedgerPinger is satisfied by any ledger.Client.
type LedgerPinger interface {
	ListAccounts(ctx context.Context) ([]common.Address, error)
}

// RegistryStats reports the cache size and replay position.
type RegistryStats interface {
	Len() int
	Cursor() uint64
}

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Registry     *RegistryInfo        `json:"registry,omitempty"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB    int `json:"allocMb"`
	HeapUsedMB int `json:"heapUsedMb"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type RegistryInfo struct {
	Properties int    `json:"properties"`
	Cursor     uint64 `json:"cursor"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
	Detail string      `json:"detail,omitempty"`
}

// Checker gathers health data. Any field may be nil.
type Checker struct {
	Rdb      *redis.Client
	DB       DBPinger
	Ledger   LedgerPinger
	Registry RegistryStats
}

// CollectHealth pings every dependency and reads request stats from Redis.
func (h *Checker) CollectHealth(ctx context.Context) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	dbStatus := DepStatus{Status: "disconnected"}
	if h.DB != nil {
		start := time.Now()
		if err := h.DB.Ping(); err == nil {
			dbStatus = DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
		} else {
			dbStatus = DepStatus{Status: "error", Detail: err.Error()}
		}
	}
	result.Dependencies["database"] = dbStatus

	ledgerStatus := DepStatus{Status: "disconnected"}
	if h.Ledger != nil {
		start := time.Now()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		accounts, err := h.Ledger.ListAccounts(pingCtx)
		cancel()
		if err == nil {
			ledgerStatus = DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds(),
				Detail: strconv.Itoa(len(accounts)) + " accounts"}
		} else {
			ledgerStatus = DepStatus{Status: "error", Detail: err.Error()}
		}
	}
	result.Dependencies["ledger"] = ledgerStatus

	redisStatus := DepStatus{Status: "disconnected"}
	startTimeMs := time.Now().UnixMilli()
	result.Traffic = TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	if h.Rdb != nil {
		start := time.Now()
		if err := h.Rdb.Ping(ctx).Err(); err == nil {
			redisStatus = DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
			result.Traffic, startTimeMs = readTraffic(ctx, h.Rdb, startTimeMs)
		} else {
			redisStatus = DepStatus{Status: "error", Detail: err.Error()}
		}
	}
	result.Dependencies["redis"] = redisStatus

	if h.Registry != nil {
		result.Registry = &RegistryInfo{Properties: h.Registry.Len(), Cursor: h.Registry.Cursor()}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapUsedMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	result.Status = "issue"
	if redisStatus.Status == "connected" && ledgerStatus.Status == "connected" &&
		(h.DB == nil || dbStatus.Status == "connected") {
		result.Status = "ok"
	}
	return result
}

func readTraffic(ctx context.Context, rdb *redis.Client, startTimeMs int64) (TrafficInfo, int64) {
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	totalReq, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := rdb.Get(ctx, middleware.KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return stats, startTimeMs
}
