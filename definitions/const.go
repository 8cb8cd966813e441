// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package definitions

// Log keys.
const (
	// LogKeyGUID represents the session identifier used in log entries.
	LogKeyGUID = "session"

	// LogKeyMsg represents the message content in log entries.
	LogKeyMsg = "msg"

	// LogKeyError represents error information in log entries.
	LogKeyError = "error"

	// LogKeyErrorDetails represents additional error details in log entries.
	LogKeyErrorDetails = "error_details"

	// LogKeyWarning represents warning information in log entries.
	LogKeyWarning = "warn"

	// LogKeyInstance represents instance identification in log entries.
	LogKeyInstance = "instance"

	// LogKeyVariable represents the name of a Lua global variable in log entries.
	LogKeyVariable = "variable"

	// LogKeyField represents the name of a Lua table field in log entries.
	LogKeyField = "field"

	// LogKeyIndex represents the numeric index of a Lua table slot in log entries.
	LogKeyIndex = "index"

	// LogKeyKind represents the requested value kind in log entries.
	LogKeyKind = "kind"

	// LogKeyLuaType represents the Lua type actually found on the stack.
	LogKeyLuaType = "lua_type"

	// LogKeyStackTop represents the current top of the Lua stack in log entries.
	LogKeyStackTop = "stack_top"

	// LogKeyStackWant represents the recorded stack depth an operation expected.
	LogKeyStackWant = "stack_want"

	// LogKeyScript represents the path or name of a Lua chunk in log entries.
	LogKeyScript = "script"

	// LogKeyLatency represents the measured duration of an operation.
	LogKeyLatency = "latency"

	// LogKeyPool represents the name of a Lua state pool in log entries.
	LogKeyPool = "pool"
)

// Memory statistics log keys.
const (
	// LogKeyStatsAlloc represents the stats for allocations logged.
	LogKeyStatsAlloc = "stats_alloc"

	// LogKeyStatsHeapAlloc represents the heap allocations in memory stats logging.
	LogKeyStatsHeapAlloc = "stats_heap_alloc"

	// LogKeyStatsHeapInUse represents heap memory currently in use for memory stats logging.
	LogKeyStatsHeapInUse = "stats_heap_in_use"

	// LogKeyStatsHeapIdle represents heap memory currently idling for memory stats logging.
	LogKeyStatsHeapIdle = "stats_heap_idle"

	// LogKeyStatsHeapSys represents heap memory obtained from the system for memory stats logging.
	LogKeyStatsHeapSys = "stats_heap_sys"

	// LogKeyStatsHeapReleased represents heap memory returned to the system for memory stats logging.
	LogKeyStatsHeapReleased = "stats_heap_released"

	// LogKeyStatsMallocs represents the cumulative count of heap objects allocated.
	LogKeyStatsMallocs = "stats_mallocs"

	// LogKeyStatsFrees represents the cumulative count of heap objects freed.
	LogKeyStatsFrees = "stats_frees"

	// LogKeyStatsStackInUse represents stack memory currently in use for memory stats logging.
	LogKeyStatsStackInUse = "stats_stack_in_use"

	// LogKeyStatsStackSys represents system level stats about the program's stack.
	LogKeyStatsStackSys = "stats_stack_sys"

	// LogKeyStatsGCSys represents memory used by the garbage collector.
	LogKeyStatsGCSys = "stats_gc_sys"

	// LogKeyStatsNumGC indicates the number of GC runs.
	LogKeyStatsNumGC = "stats_num_gc"

	// LogKeyStatsSys represents general system level stats about the program.
	LogKeyStatsSys = "stats_sys"

	// LogKeyStatsTotalAlloc represents total allocation in memory stats logging.
	LogKeyStatsTotalAlloc = "stats_total_alloc"
)

// Log level.
const (
	// LogLevelNone is the iota constant representing no logs
	LogLevelNone = iota

	// LogLevelError is the iota constant for error logs
	LogLevelError

	// LogLevelWarn is the iota constant for warning logs
	LogLevelWarn

	// LogLevelInfo is the iota constant for info logs
	LogLevelInfo

	// LogLevelDebug is the iota constant for debug logs
	LogLevelDebug
)

// Debug modules.
const (
	// DbgNone is a placeholder for no debugging
	DbgNone DbgModule = iota

	// DbgAll enables debugging for every module
	DbgAll

	// DbgInterp is for interpreter lifecycle related debugging.
	DbgInterp

	// DbgStack is for Lua stack bookkeeping related debugging.
	DbgStack

	// DbgConvert is for value conversion related debugging.
	DbgConvert

	// DbgCompile is for chunk compilation related debugging.
	DbgCompile

	// DbgCache is suitable for cache mechanism debugging.
	DbgCache

	// DbgPool is for Lua state pool related debugging.
	DbgPool

	// DbgStats is for statistics related debugging.
	DbgStats
)

const (
	// DbgNoneName is the debug identifier for 'none'
	DbgNoneName = "none"

	// DbgAllName is the debug identifier for 'all'
	DbgAllName = "all"

	// DbgInterpName is the debug identifier for the interpreter
	DbgInterpName = "interp"

	// DbgStackName is the debug identifier for stack bookkeeping
	DbgStackName = "stack"

	// DbgConvertName is the debug identifier for value conversion
	DbgConvertName = "convert"

	// DbgCompileName is the debug identifier for chunk compilation
	DbgCompileName = "compile"

	// DbgCacheName is the debug identifier for cache
	DbgCacheName = "cache"

	// DbgPoolName is the debug identifier for the state pool
	DbgPoolName = "pool"

	// DbgStatsName is the debug identifier for statistics
	DbgStatsName = "statistics"
)

// Defaults.
const (
	// InstanceName is the default instance name
	InstanceName = "luascope"

	// LuaRegistrySize is the initial registry size of a Lua state
	LuaRegistrySize = 512

	// LuaRegistryMaxSize is the upper bound the registry of a Lua state may grow to
	LuaRegistryMaxSize = 20480

	// LuaCallStackSize is the fixed call stack size of a Lua state
	LuaCallStackSize = 120

	// LuaPoolMaxStates is the default number of Lua states kept in a bounded pool
	LuaPoolMaxStates = 8

	// LuaMaxExecutionTime is the default timeout in seconds for running a Lua chunk
	LuaMaxExecutionTime = 120

	// ChunkCacheTTL is the default number of seconds a compiled chunk stays cached
	ChunkCacheTTL = 3600
)

// Lua value kinds as exposed to configuration and logging.
const (
	// KindIntName is the identifier for integral numbers
	KindIntName = "int"

	// KindNumberName is the identifier for floating point numbers
	KindNumberName = "number"

	// KindStringName is the identifier for strings
	KindStringName = "string"

	// KindBoolName is the identifier for booleans
	KindBoolName = "bool"

	// KindTableName is the identifier for tables
	KindTableName = "table"

	// KindTypeName is the identifier for the dynamic type probe
	KindTypeName = "type"

	// KindNilName is the identifier for nil
	KindNilName = "nil"

	// KindOtherName is the identifier for functions, userdata and threads
	KindOtherName = "other"
)

// Chunk execution results used as Prometheus label values.
const (
	// ChunkResultOK marks a chunk that compiled and ran without errors.
	ChunkResultOK = "ok"

	// ChunkResultCompileError marks a chunk rejected by the compiler.
	ChunkResultCompileError = "compile_error"

	// ChunkResultRunError marks a chunk that failed while running.
	ChunkResultRunError = "runtime_error"
)

// Prometheus service labels for function timings.
const (
	// PromInterp groups timings of interpreter operations.
	PromInterp = "interpreter"

	// PromCompile groups timings of chunk compilation.
	PromCompile = "compile"

	// PromPool groups timings of pool operations.
	PromPool = "pool"
)
