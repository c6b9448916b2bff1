package camera

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Gate serializes frame evaluation and drops frames that arrive while an
// evaluation is running. There is no queue and no timeout: a stuck
// evaluation holds the gate until it returns.
type Gate struct {
	mu       sync.Mutex
	inflight sync.WaitGroup

	evaluated prometheus.Counter
	dropped   prometheus.Counter
	nEval     atomic.Uint64
	nDrop     atomic.Uint64
}

// NewGate creates a gate and registers its counters with reg. A nil reg
// leaves the counters unregistered.
func NewGate(reg prometheus.Registerer) (*Gate, error) {
	g := &Gate{
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skills",
			Name:      "frames_evaluated_total",
			Help:      "Frames that acquired the evaluation gate.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skills",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because an evaluation was in progress.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{g.evaluated, g.dropped} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// TryRun runs fn on the calling goroutine if the gate is free.
//
// Returns:
//   - bool: false if the frame was dropped.
func (g *Gate) TryRun(fn func()) bool {
	if !g.mu.TryLock() {
		g.drop()
		return false
	}
	defer g.mu.Unlock()
	g.admit()
	fn()
	return true
}

// Submit runs fn on a new goroutine if the gate is free. The drop decision
// is made before Submit returns.
//
// Returns:
//   - bool: false if the frame was dropped.
func (g *Gate) Submit(fn func()) bool {
	if !g.mu.TryLock() {
		g.drop()
		return false
	}
	g.admit()
	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		defer g.mu.Unlock()
		fn()
	}()
	return true
}

// Wait blocks until the evaluation started by Submit, if any, returns.
func (g *Gate) Wait() {
	g.inflight.Wait()
}

func (g *Gate) admit() {
	g.evaluated.Inc()
	g.nEval.Add(1)
}

func (g *Gate) drop() {
	g.dropped.Inc()
	g.nDrop.Add(1)
}

// EvaluatedCount returns how many frames were admitted.
func (g *Gate) EvaluatedCount() uint64 {
	return g.nEval.Load()
}

// DroppedCount returns how many frames were dropped.
func (g *Gate) DroppedCount() uint64 {
	return g.nDrop.Load()
}

// Evaluated returns the evaluated frame counter.
func (g *Gate) Evaluated() prometheus.Counter {
	return g.evaluated
}

// Dropped returns the dropped frame counter.
func (g *Gate) Dropped() prometheus.Counter {
	return g.dropped
}
