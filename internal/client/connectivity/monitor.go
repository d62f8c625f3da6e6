// Package connectivity tracks backend reachability for the client. A
// Monitor probes the backend on an interval, keeps a process-wide
// reachable flag, and notifies subscribers exactly when the flag flips.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/ibalodis/fieldsignal/internal/logging"
)

// Prober answers a single liveness question: can the backend be reached
// right now? A nil error means reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Monitor maintains the reachable flag and the subscriber list.
// Events are edge-triggered: a subscriber joining mid-unreachable-period
// hears nothing until the next flip.
type Monitor struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	log          logging.Logger

	mu        sync.Mutex
	reachable bool
	probed    bool
	subs      []chan bool
}

// NewMonitor builds a Monitor. The reachable flag is initialized by the
// first probe after Run starts; until then it reports unreachable.
func NewMonitor(prober Prober, interval time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		prober:       prober,
		interval:     interval,
		probeTimeout: 3 * time.Second,
		log:          log,
	}
}

// Reachable returns the current reachability state.
func (m *Monitor) Reachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

// Subscribe registers a new edge-event channel. The channel carries the new
// state after each flip. Delivery is independent per subscriber, with no
// ordering guarantee between them; a subscriber that is not draining its
// channel misses intermediate flips but always ends up with the latest one.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Run probes once immediately and then on every interval tick, until ctx is
// cancelled. Flips are logged and fanned out to subscribers.
func (m *Monitor) Run(ctx context.Context) {
	m.probeOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probeOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) probeOnce(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.prober.Probe(probeCtx)
	cancel()

	m.setReachable(ctx, err == nil)
}

func (m *Monitor) setReachable(ctx context.Context, reachable bool) {
	m.mu.Lock()

	// The first probe establishes the initial state without raising an edge.
	if !m.probed {
		m.probed = true
		m.reachable = reachable
		m.mu.Unlock()
		return
	}

	if m.reachable == reachable {
		m.mu.Unlock()
		return
	}
	m.reachable = reachable
	subs := make([]chan bool, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	if reachable {
		m.log.Info(ctx, "backend reachable")
	} else {
		m.log.Warn(ctx, "backend unreachable")
	}

	for _, ch := range subs {
		// Replace a stale undelivered event so the subscriber always sees
		// the latest state.
		select {
		case ch <- reachable:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- reachable:
			default:
			}
		}
	}
}
