package stats

import (
	"context"
	"runtime"
	"time"

	"github.com/croessner/luascope/config"
	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/log"
	"github.com/croessner/luascope/log/level"
	"github.com/croessner/luascope/util"
	"github.com/mackerelio/go-osstat/cpu"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InterpreterCreated counts every Lua interpreter that was successfully constructed.
	InterpreterCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_interpreters_created_total",
		Help: "Total number of Lua interpreters created",
	})

	// InterpreterClosed counts every Lua interpreter whose state was torn down.
	InterpreterClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_interpreters_closed_total",
		Help: "Total number of Lua interpreters closed",
	})

	// HandlesOpened counts table handles taken from interpreters.
	HandlesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_table_handles_opened_total",
		Help: "Total number of table handles opened",
	})

	// HandlesClosed counts table handles that were closed again.
	HandlesClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_table_handles_closed_total",
		Help: "Total number of table handles closed",
	})

	// ChunksExecuted counts chunk runs partitioned by outcome.
	ChunksExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lua_chunks_executed_total",
			Help: "Number of executed Lua chunks.",
		},
		[]string{"result"})

	// TypeMismatches counts typed lookups that found a value of the wrong kind.
	TypeMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_type_mismatches_total",
		Help: "Total number of typed lookups rejected due to a kind mismatch",
	})

	// CorruptedStacks counts detected stack depth violations.
	CorruptedStacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_corrupted_stacks_total",
		Help: "Total number of detected Lua stack corruptions",
	})

	// ChunkCacheHits counts compiled chunks served from the local cache.
	ChunkCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_chunk_cache_hits_total",
		Help: "The total number of compiled chunk cache hits",
	})

	// ChunkCacheMisses counts compiled chunk lookups that had to compile.
	ChunkCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lua_chunk_cache_misses_total",
		Help: "The total number of compiled chunk cache misses",
	})

	// PoolInUse tracks the number of interpreters currently checked out per pool.
	PoolInUse = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lua_pool_in_use_states",
		Help: "The number of pooled Lua interpreters currently in use",
	}, []string{"pool"})

	// PoolIdle tracks the number of interpreters parked per pool.
	PoolIdle = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lua_pool_idle_states",
		Help: "The number of pooled Lua interpreters currently idle",
	}, []string{"pool"})

	// PoolReplaced counts interpreters discarded and rebuilt per pool.
	PoolReplaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lua_pool_replaced_total",
		Help: "The total number of pooled Lua interpreters that were replaced",
	}, []string{"pool"})

	// FunctionDuration measures time spent in instrumented functions.
	FunctionDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name: "function_duration_seconds",
		Help: "Time spent in function",
	}, []string{"service", "task"})

	// cpuUserUsage reports CPU user usage in percent.
	cpuUserUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_user_usage_percent",
		Help: "CPU user usage in percent",
	})

	// cpuSystemUsage reports CPU system usage in percent.
	cpuSystemUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_system_usage_percent",
		Help: "CPU system usage in percent",
	})

	// cpuIdleUsage reports CPU idle usage in percent.
	cpuIdleUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_idle_usage_percent",
		Help: "CPU idle usage in percent",
	})
)

// PrometheusTimer returns a stop function that observes the elapsed time in
// the FunctionDuration summary. It returns nil while developer mode is off,
// so callers must guard the deferred stop call.
func PrometheusTimer(service string, taskName string) func() {
	if !config.GetEnvironment().DevMode {
		return nil
	}

	timer := prometheus.NewTimer(FunctionDuration.WithLabelValues(service, taskName))

	return func() {
		timer.ObserveDuration()
	}
}

var oldCpu cpu.Stats

// MeasureCPU continuously measures CPU utilization and updates the CPU
// gauges every two seconds until the context is canceled. Measurement errors
// are logged once and end the loop.
func MeasureCPU(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(2 * time.Second)

			newCpu, err := cpu.Get()
			if err != nil {
				level.Error(log.Logger).Log(definitions.LogKeyError, err)

				return
			}

			total := float64(newCpu.Total - oldCpu.Total)

			cpuUserUsage.Set(float64(newCpu.User-oldCpu.User) / total * 100)
			cpuSystemUsage.Set(float64(newCpu.System-oldCpu.System) / total * 100)
			cpuIdleUsage.Set(float64(newCpu.Idle-oldCpu.Idle) / total * 100)

			oldCpu = *newCpu
		}
	}
}

// PrintStats logs a snapshot of the Go runtime memory statistics through the
// default logger.
func PrintStats() {
	var memStats runtime.MemStats

	runtime.ReadMemStats(&memStats)

	level.Info(log.Logger).Log(
		// Heap Stats
		definitions.LogKeyStatsHeapAlloc, util.ByteSize(memStats.HeapAlloc),
		definitions.LogKeyStatsHeapInUse, util.ByteSize(memStats.HeapInuse),
		definitions.LogKeyStatsHeapIdle, util.ByteSize(memStats.HeapIdle),
		definitions.LogKeyStatsHeapSys, util.ByteSize(memStats.HeapSys),
		definitions.LogKeyStatsHeapReleased, util.ByteSize(memStats.HeapReleased),
		definitions.LogKeyStatsMallocs, memStats.Mallocs,
		definitions.LogKeyStatsFrees, memStats.Frees,

		// Stack Stats
		definitions.LogKeyStatsStackInUse, util.ByteSize(memStats.StackInuse),
		definitions.LogKeyStatsStackSys, util.ByteSize(memStats.StackSys),

		// GC Stats
		definitions.LogKeyStatsGCSys, util.ByteSize(memStats.GCSys),
		definitions.LogKeyStatsNumGC, memStats.NumGC,

		// General Stats
		definitions.LogKeyStatsAlloc, util.ByteSize(memStats.Alloc),
		definitions.LogKeyStatsSys, util.ByteSize(memStats.Sys),
		definitions.LogKeyStatsTotalAlloc, util.ByteSize(memStats.TotalAlloc),
	)
}
