package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-looper/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// LooperSnapshotProvider provides current looper stats snapshots.
type LooperSnapshotProvider interface {
	Stats() core.LooperStats
}

// PoolSnapshotProvider provides current message pool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports looper/pool Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	loopersMu sync.RWMutex
	loopers   map[string]LooperSnapshotProvider

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	looperPending    *prom.GaugeVec
	looperDispatched *prom.GaugeVec
	looperPanicked   *prom.GaugeVec
	looperRejected   *prom.GaugeVec
	looperRunning    *prom.GaugeVec

	poolAllocated *prom.GaugeVec
	poolInUse     *prom.GaugeVec
	poolFree      *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string, labels ...string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "looper",
			Name:      name,
			Help:      help,
		}, labels)
	}

	looperPending := gauge("pending", "Number of pending messages per looper.", "looper")
	looperDispatched := gauge("dispatched_total", "Looper dispatched message count snapshot.", "looper")
	looperPanicked := gauge("panicked_total", "Looper panicked dispatch count snapshot.", "looper")
	looperRejected := gauge("rejected_total", "Looper rejected message count snapshot.", "looper")
	looperRunning := gauge("running", "Looper running state (1=looping, 0=not looping).", "looper")

	poolAllocated := gauge("pool_allocated", "Arena slots allocated per message pool.", "pool")
	poolInUse := gauge("pool_in_use", "Arena slots currently in use per message pool.", "pool")
	poolFree := gauge("pool_free", "Arena slots available for reuse per message pool.", "pool")

	var err error
	for _, g := range []**prom.GaugeVec{
		&looperPending, &looperDispatched, &looperPanicked, &looperRejected, &looperRunning,
		&poolAllocated, &poolInUse, &poolFree,
	} {
		if *g, err = registerCollector(reg, *g); err != nil {
			return nil, err
		}
	}

	return &SnapshotPoller{
		interval:         interval,
		loopers:          make(map[string]LooperSnapshotProvider),
		pools:            make(map[string]PoolSnapshotProvider),
		looperPending:    looperPending,
		looperDispatched: looperDispatched,
		looperPanicked:   looperPanicked,
		looperRejected:   looperRejected,
		looperRunning:    looperRunning,
		poolAllocated:    poolAllocated,
		poolInUse:        poolInUse,
		poolFree:         poolFree,
	}, nil
}

// AddLooper adds or replaces a looper snapshot provider by name.
func (p *SnapshotPoller) AddLooper(name string, provider LooperSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "looper")
	p.loopersMu.Lock()
	p.loopers[name] = provider
	p.loopersMu.Unlock()
}

// RemoveLooper stops exporting the named looper.
func (p *SnapshotPoller) RemoveLooper(name string) {
	if p == nil {
		return
	}
	name = normalizeLabel(name, "looper")
	p.loopersMu.Lock()
	delete(p.loopers, name)
	p.loopersMu.Unlock()

	for _, g := range []*prom.GaugeVec{p.looperPending, p.looperDispatched, p.looperPanicked, p.looperRejected, p.looperRunning} {
		g.DeleteLabelValues(name)
	}
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	done := p.done
	p.stateMu.Unlock()

	go p.loop(pollCtx, done)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.loopersMu.RLock()
	for name, provider := range p.loopers {
		stats := provider.Stats()
		p.looperPending.WithLabelValues(name).Set(float64(stats.Pending))
		p.looperDispatched.WithLabelValues(name).Set(float64(stats.Dispatched))
		p.looperPanicked.WithLabelValues(name).Set(float64(stats.Panicked))
		p.looperRejected.WithLabelValues(name).Set(float64(stats.Rejected))
		if stats.Running {
			p.looperRunning.WithLabelValues(name).Set(1)
		} else {
			p.looperRunning.WithLabelValues(name).Set(0)
		}
	}
	p.loopersMu.RUnlock()

	p.poolsMu.RLock()
	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolAllocated.WithLabelValues(name).Set(float64(stats.Allocated))
		p.poolInUse.WithLabelValues(name).Set(float64(stats.InUse))
		p.poolFree.WithLabelValues(name).Set(float64(stats.Free))
	}
	p.poolsMu.RUnlock()
}
