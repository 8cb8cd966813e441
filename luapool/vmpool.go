// Copyright (C) 2025 Christian Rößner
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

package luapool

import (
	"context"
	stdhttp "net/http"
	"sync"
	"sync/atomic"

	"github.com/croessner/luascope/config"
	"github.com/croessner/luascope/definitions"
	"github.com/croessner/luascope/errors"
	"github.com/croessner/luascope/log"
	"github.com/croessner/luascope/log/level"
	"github.com/croessner/luascope/luai"
	monittrace "github.com/croessner/luascope/monitoring/trace"
	"github.com/croessner/luascope/stats"

	"go.opentelemetry.io/otel/attribute"
)

// PoolKey identifies an interpreter pool, e.g. "inspect:default".
type PoolKey string

// PoolOptions controls the size and setup of a bounded interpreter pool.
type PoolOptions struct {
	// MaxStates is the maximum number of interpreters in the pool.
	MaxStates int

	// LuaOptions sizes the states the pool creates.
	LuaOptions luai.Options

	// ExtendedLibs preloads the extended module set into every interpreter.
	ExtendedLibs bool

	// HTTPClient enables glua_http preloading once per interpreter.
	HTTPClient *stdhttp.Client
}

// OptionsFromEnvironment derives pool options from the environment
// configuration.
func OptionsFromEnvironment() PoolOptions {
	cfg := config.GetEnvironment()

	return PoolOptions{
		MaxStates: int(cfg.PoolMaxStates),
		LuaOptions: luai.Options{
			RegistrySize:    cfg.LuaRegistrySize,
			RegistryMaxSize: cfg.LuaRegistryMaxSize,
			CallStackSize:   cfg.LuaCallStackSize,
		},
		ExtendedLibs: cfg.ExtendedLibs,
	}
}

// Pool implements a bounded pool of interpreters. Acquire enforces
// backpressure via its context, Release returns interpreters after a reset
// and Replace swaps broken ones for fresh instances.
type Pool struct {
	key    PoolKey
	opts   PoolOptions
	states chan *luai.Interpreter
	quit   chan struct{}

	mu     sync.Mutex
	closed bool

	// inUse tracks the number of interpreters currently checked out from the pool.
	inUse int64
}

// NewPool creates a pool for the given key and fills it with ready
// interpreters.
func NewPool(key PoolKey, opts PoolOptions) (*Pool, error) {
	if opts.MaxStates <= 0 {
		opts.MaxStates = definitions.LuaPoolMaxStates
	}

	p := &Pool{
		key:    key,
		opts:   opts,
		states: make(chan *luai.Interpreter, opts.MaxStates),
		quit:   make(chan struct{}),
	}

	for i := 0; i < opts.MaxStates; i++ {
		ipr, err := p.newInterpreter()
		if err != nil {
			p.Close()

			return nil, err
		}

		p.states <- ipr
	}

	// Initialize gauge to 0 in-use
	stats.PoolInUse.WithLabelValues(string(key)).Set(0)
	stats.PoolIdle.WithLabelValues(string(key)).Set(float64(len(p.states)))

	return p, nil
}

func (p *Pool) newInterpreter() (*luai.Interpreter, error) {
	ipr, err := luai.NewInterpreter(p.opts.LuaOptions)
	if err != nil {
		return nil, err
	}

	if err = ipr.OpenLibraries(); err != nil {
		_ = ipr.Close()

		return nil, err
	}

	if p.opts.ExtendedLibs {
		if err = ipr.OpenExtendedLibraries(p.opts.HTTPClient); err != nil {
			_ = ipr.Close()

			return nil, err
		}
	}

	return ipr, nil
}

// Acquire borrows an interpreter from the pool, respecting the provided
// context for deadline and cancellation. A closed pool yields ErrPoolClosed.
func (p *Pool) Acquire(ctx context.Context) (*luai.Interpreter, error) {
	stopTimer := stats.PrometheusTimer(definitions.PromPool, "lua_pool_acquire_total")

	if stopTimer != nil {
		defer stopTimer()
	}

	tr := monittrace.New("luascope/luapool")
	actx, asp := tr.Start(ctx, "luapool.acquire",
		attribute.String("key", string(p.key)),
		attribute.Int("capacity", p.opts.MaxStates),
		attribute.Int64("in_use_before", atomic.LoadInt64(&p.inUse)),
	)

	defer asp.End()

	select {
	case <-actx.Done():
		asp.RecordError(actx.Err())

		return nil, actx.Err()
	case <-p.quit:
		asp.RecordError(errors.ErrPoolClosed)

		return nil, errors.ErrPoolClosed
	case ipr := <-p.states:
		// An explicit counter avoids race-y observations based on len(chan)
		// under heavy concurrency.
		n := atomic.AddInt64(&p.inUse, 1)

		stats.PoolInUse.WithLabelValues(string(p.key)).Set(float64(n))
		stats.PoolIdle.WithLabelValues(string(p.key)).Set(float64(len(p.states)))
		asp.SetAttributes(attribute.Int64("in_use_after", n))

		return ipr, nil
	}
}

// Release returns the interpreter to the pool after a reset. Closed,
// corrupted or stack-dirty interpreters are replaced with fresh instances
// instead of being reused.
func (p *Pool) Release(ipr *luai.Interpreter) {
	if ipr == nil {
		return
	}

	if ipr.Closed() || ipr.Corrupted() || ipr.StackDepth() != 0 {
		p.Replace(ipr)

		return
	}

	tr := monittrace.New("luascope/luapool")
	_, rsp := tr.Start(context.Background(), "luapool.release",
		attribute.String("key", string(p.key)),
		attribute.Int("capacity", p.opts.MaxStates),
		attribute.Int64("in_use_before", atomic.LoadInt64(&p.inUse)),
	)

	defer rsp.End()

	if err := ipr.Reset(); err != nil {
		rsp.RecordError(err)
		p.Replace(ipr)

		return
	}

	if !p.offer(ipr) {
		// Pool closed or unexpectedly full; close the interpreter to avoid a leak.
		_ = ipr.Close()

		if !p.isClosed() {
			level.Warn(log.Logger).Log(
				definitions.LogKeyPool, string(p.key),
				definitions.LogKeyMsg, "lua pool overflow close",
			)
			rsp.SetAttributes(attribute.Bool("overflow_close", true))
		}
	}

	// Decrement in-use counter and update gauges
	n := atomic.AddInt64(&p.inUse, -1)
	if n < 0 {
		// Should not happen; self-heal to zero
		atomic.StoreInt64(&p.inUse, 0)
		n = 0
	}

	stats.PoolInUse.WithLabelValues(string(p.key)).Set(float64(n))
	stats.PoolIdle.WithLabelValues(string(p.key)).Set(float64(len(p.states)))
	rsp.SetAttributes(attribute.Int64("in_use_after", n))
}

// Replace discards a broken interpreter and refills the pool with a fresh
// one. Like Release it ends the in-use phase.
func (p *Pool) Replace(ipr *luai.Interpreter) {
	tr := monittrace.New("luascope/luapool")
	_, xsp := tr.Start(context.Background(), "luapool.replace",
		attribute.String("key", string(p.key)),
		attribute.Int("capacity", p.opts.MaxStates),
		attribute.Int64("in_use_before", atomic.LoadInt64(&p.inUse)),
	)

	defer xsp.End()

	if ipr != nil {
		_ = ipr.Close()
	}

	stats.PoolReplaced.WithLabelValues(string(p.key)).Inc()

	fresh, err := p.newInterpreter()
	if err != nil {
		level.Error(log.Logger).Log(
			definitions.LogKeyPool, string(p.key),
			definitions.LogKeyError, err,
			definitions.LogKeyMsg, "cannot refill lua pool",
		)
		xsp.RecordError(err)
	} else if !p.offer(fresh) {
		// Pool closed or unexpectedly full; drop
		_ = fresh.Close()
	}

	n := atomic.AddInt64(&p.inUse, -1)
	if n < 0 {
		atomic.StoreInt64(&p.inUse, 0)
		n = 0
	}

	stats.PoolInUse.WithLabelValues(string(p.key)).Set(float64(n))
	stats.PoolIdle.WithLabelValues(string(p.key)).Set(float64(len(p.states)))
	xsp.SetAttributes(attribute.Int64("in_use_after", n))
}

// offer hands an interpreter to the idle channel unless the pool is closed
// or unexpectedly full.
func (p *Pool) offer(ipr *luai.Interpreter) bool {
	p.mu.Lock()

	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	select {
	case p.states <- ipr:
		return true
	default:
		return false
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()

	defer p.mu.Unlock()

	return p.closed
}

// Close shuts the pool down. Idle interpreters are closed immediately,
// blocked and future Acquire calls return ErrPoolClosed and interpreters
// still checked out are closed when they come back through Release or
// Replace. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return
	}

	p.closed = true

	close(p.quit)
	p.mu.Unlock()

	for {
		select {
		case ipr := <-p.states:
			_ = ipr.Close()
		default:
			stats.PoolIdle.WithLabelValues(string(p.key)).Set(0)

			return
		}
	}
}

// Manager provides global access to per-key pools.
type Manager struct {
	mu    sync.Mutex
	pools map[PoolKey]*Pool
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// GetManager returns the singleton Manager.
func GetManager() *Manager {
	mgrOnce.Do(func() {
		mgr = &Manager{pools: make(map[PoolKey]*Pool)}
	})

	return mgr
}

// GetOrCreate returns (and creates if needed) a pool for the given key.
func (m *Manager) GetOrCreate(key PoolKey, opts PoolOptions) (*Pool, error) {
	m.mu.Lock()

	defer m.mu.Unlock()

	if p, ok := m.pools[key]; ok {
		return p, nil
	}

	p, err := NewPool(key, opts)
	if err != nil {
		return nil, err
	}

	m.pools[key] = p

	return p, nil
}

// CloseAll shuts down every pool the manager knows about.
func (m *Manager) CloseAll() {
	m.mu.Lock()

	defer m.mu.Unlock()

	for _, p := range m.pools {
		p.Close()
	}

	m.pools = make(map[PoolKey]*Pool)
}
